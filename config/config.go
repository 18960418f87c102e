// Copyright 2026 PetLog
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full engine configuration, loaded from a TOML file. Zero
// values fall back to defaults at load time, so a partial file is fine.
type Config struct {
	LogLevel string `toml:"log_level"`
	DataDir  string `toml:"data_dir"`

	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Corpus    CorpusConfig    `toml:"corpus"`
	Syncer    SyncerConfig    `toml:"syncer"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Naver     NaverConfig     `toml:"naver"`
	Articles  []ArticleConfig `toml:"articles"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Host      string `toml:"host"`
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension"`
}

// IndexConfig configures the vector index store.
type IndexConfig struct {
	Path string `toml:"path"`
}

// CorpusConfig configures the lexical corpus.
type CorpusConfig struct {
	Path      string  `toml:"path"`
	TopN      int     `toml:"top_n"`
	Threshold float64 `toml:"threshold"`
}

// SyncerConfig configures the change event consumer.
type SyncerConfig struct {
	Group          string `toml:"group"`
	Workers        int    `toml:"workers"`
	BatchSize      int    `toml:"batch_size"`
	MaxAttempts    int    `toml:"max_attempts"`
	RetryDelayMS   int    `toml:"retry_delay_ms"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// RetryDelay returns the retry delay as a duration.
func (c SyncerConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// PollInterval returns the poll interval as a duration.
func (c SyncerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// RetrievalConfig configures the hybrid retrieval orchestrator.
type RetrievalConfig struct {
	DeadlineMS      int `toml:"deadline_ms"`
	SourceTimeoutMS int `toml:"source_timeout_ms"`
	MaxItems        int `toml:"max_items"`
	VectorTopK      int `toml:"vector_top_k"`
}

// Deadline returns the overall deadline as a duration.
func (c RetrievalConfig) Deadline() time.Duration {
	return time.Duration(c.DeadlineMS) * time.Millisecond
}

// SourceTimeout returns the per-source timeout as a duration.
func (c RetrievalConfig) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}

// NaverConfig holds Naver open API credentials. The source is disabled when
// either credential is empty.
type NaverConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Enabled reports whether both credentials are present.
func (c NaverConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// ArticleConfig declares one crawled article source.
type ArticleConfig struct {
	Name      string `toml:"name"`
	SearchURL string `toml:"search_url"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		DataDir:  "data",
		Embedding: EmbeddingConfig{
			Host:      "http://localhost:11434",
			Model:     "embeddinggemma",
			Dimension: 1024,
		},
		Index: IndexConfig{
			Path: "data/vectors.db",
		},
		Corpus: CorpusConfig{
			Path:      "data/health_docs.json",
			TopN:      5,
			Threshold: 0.1,
		},
		Syncer: SyncerConfig{
			Group:          "index-syncer",
			Workers:        2,
			BatchSize:      64,
			MaxAttempts:    3,
			RetryDelayMS:   500,
			PollIntervalMS: 250,
		},
		Retrieval: RetrievalConfig{
			DeadlineMS:      5000,
			SourceTimeoutMS: 3000,
			MaxItems:        8,
			VectorTopK:      5,
		},
	}
}

// Load reads a TOML config file, filling unset fields from defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Embedding.Host == "" {
		c.Embedding.Host = def.Embedding.Host
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = def.Embedding.Model
	}
	if c.Embedding.Dimension <= 0 {
		c.Embedding.Dimension = def.Embedding.Dimension
	}
	if c.Index.Path == "" {
		c.Index.Path = def.Index.Path
	}
	if c.Corpus.TopN <= 0 {
		c.Corpus.TopN = def.Corpus.TopN
	}
	if c.Corpus.Threshold <= 0 {
		c.Corpus.Threshold = def.Corpus.Threshold
	}
	if c.Syncer.Group == "" {
		c.Syncer.Group = def.Syncer.Group
	}
	if c.Syncer.Workers <= 0 {
		c.Syncer.Workers = def.Syncer.Workers
	}
	if c.Syncer.BatchSize <= 0 {
		c.Syncer.BatchSize = def.Syncer.BatchSize
	}
	if c.Syncer.MaxAttempts <= 0 {
		c.Syncer.MaxAttempts = def.Syncer.MaxAttempts
	}
	if c.Syncer.RetryDelayMS <= 0 {
		c.Syncer.RetryDelayMS = def.Syncer.RetryDelayMS
	}
	if c.Syncer.PollIntervalMS <= 0 {
		c.Syncer.PollIntervalMS = def.Syncer.PollIntervalMS
	}
	if c.Retrieval.DeadlineMS <= 0 {
		c.Retrieval.DeadlineMS = def.Retrieval.DeadlineMS
	}
	if c.Retrieval.SourceTimeoutMS <= 0 {
		c.Retrieval.SourceTimeoutMS = def.Retrieval.SourceTimeoutMS
	}
	if c.Retrieval.MaxItems <= 0 {
		c.Retrieval.MaxItems = def.Retrieval.MaxItems
	}
	if c.Retrieval.VectorTopK <= 0 {
		c.Retrieval.VectorTopK = def.Retrieval.VectorTopK
	}
}

// Validate rejects configurations that cannot work at all.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Retrieval.SourceTimeoutMS > c.Retrieval.DeadlineMS {
		return fmt.Errorf("%w: source_timeout_ms exceeds deadline_ms", ErrInvalidConfig)
	}
	for _, article := range c.Articles {
		if article.Name == "" || article.SearchURL == "" {
			return fmt.Errorf("%w: article sources need name and search_url", ErrInvalidConfig)
		}
	}
	return nil
}
