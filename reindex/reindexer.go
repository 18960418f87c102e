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


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/petlog/healthrag/ai"
	"github.com/petlog/healthrag/index"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of entries to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the fixed delay between retries
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer regenerates every embedding in the vector index from its stored
// snippet, used after switching the embedding model or dimension.
type Reindexer struct {
	index     index.Index
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(idx index.Index, embedder ai.Embedder, config *Config, progress io.Writer) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reindexer{
		index:     idx,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(idx, embedder, config.MaxRetries, config.RetryDelay),
	}
}

// Run executes the reindexing operation over every live entry.
// Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) error {
	entries, err := r.index.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list index entries: %w", err)
	}

	total := len(entries)
	if total == 0 {
		fmt.Fprintf(r.progress, "No entries found in index (0 entries)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d entries (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	for start := 0; start < total; start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > total {
			end = total
		}

		if err := r.processor.Process(ctx, entries[start:end]); err != nil {
			return fmt.Errorf("failed to process batch at %d: %w", start, err)
		}
		tracker.Increment(end - start)
	}

	tracker.Finish()
	fmt.Fprintf(r.progress, "Reindexed %d entries in %s\n", total, tracker.Elapsed().Round(time.Millisecond))
	return nil
}
