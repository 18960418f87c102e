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


package healthrag

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/petlog/healthrag/ai"
	aiopenai "github.com/petlog/healthrag/ai/openai"
	"github.com/petlog/healthrag/config"
	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/corpus"
	"github.com/petlog/healthrag/index"
	indexsqvect "github.com/petlog/healthrag/index/sqvect"
	"github.com/petlog/healthrag/reindex"
	"github.com/petlog/healthrag/retrieval"
	"github.com/petlog/healthrag/sources"
	"github.com/petlog/healthrag/storage"
	storagebadger "github.com/petlog/healthrag/storage/badger"
	"github.com/petlog/healthrag/syncer"
)

// Engine wires the event log, vector index, embedder, corpus, and external
// sources into one facade. Construction degrades instead of failing: a
// missing corpus file means an empty corpus, an unreachable index or
// embedder disables the vector branch, and only the event log store is
// load-bearing for the write path.
type Engine struct {
	cfg      *config.Config
	backend  *storagebadger.Backend
	eventLog storage.EventLog
	offsets  storage.OffsetStore
	embedder ai.Embedder
	index    index.Index
	corpus   *corpus.Corpus
	fetchers []retrieval.Fetcher
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger   *slog.Logger
	embedder ai.Embedder
	index    index.Index
	inMemory bool
}

// WithEngineLogger sets a custom logger.
// Default is slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEmbedder injects an embedder, replacing the configured provider.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithIndex injects a vector index, replacing the configured store.
func WithIndex(idx index.Index) EngineOption {
	return func(o *engineOptions) {
		o.index = idx
	}
}

// WithInMemoryStorage keeps the event log in memory, used by tests.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine builds an engine from configuration. It returns an error only
// when the event log store cannot be opened; every other collaborator
// degrades with a logged warning.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger.With("component", "engine")

	eventPath := filepath.Join(cfg.DataDir, "events")
	backend, err := storagebadger.OpenBackend(eventPath, options.inMemory)
	if err != nil {
		return nil, err
	}
	eventLog, err := storagebadger.NewEventLog(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	offsets := storagebadger.NewOffsetStore(backend)

	e := &Engine{
		cfg:      cfg,
		backend:  backend,
		eventLog: eventLog,
		offsets:  offsets,
		embedder: options.embedder,
		index:    options.index,
		logger:   logger,
	}

	if e.embedder == nil {
		aiConfig := ai.NewConfig(
			ai.WithEmbeddingHost(cfg.Embedding.Host),
			ai.WithEmbeddingModel(cfg.Embedding.Model),
			ai.WithDimension(cfg.Embedding.Dimension),
		)
		embedder, embErr := aiopenai.NewEmbedder(aiConfig)
		if embErr != nil {
			logger.Error("embedding provider unavailable, vector branch disabled", "err", embErr)
		} else {
			e.embedder = embedder
		}
	}

	if e.index == nil {
		idx, idxErr := indexsqvect.Open(context.Background(), cfg.Index.Path, cfg.Embedding.Dimension,
			indexsqvect.WithLogger(options.logger))
		if idxErr != nil {
			logger.Error("vector index unavailable, starting degraded", "path", cfg.Index.Path, "err", idxErr)
		} else {
			e.index = idx
		}
	}

	lexical, corpusErr := corpus.LoadFile(cfg.Corpus.Path,
		corpus.WithTopN(cfg.Corpus.TopN),
		corpus.WithThreshold(cfg.Corpus.Threshold),
		corpus.WithLogger(options.logger))
	if corpusErr != nil {
		logger.Warn("corpus unavailable, lexical search disabled", "path", cfg.Corpus.Path, "err", corpusErr)
	} else {
		e.corpus = lexical
		logger.Info("corpus loaded", "documents", lexical.Len())
	}

	e.fetchers = buildFetchers(cfg, options.logger, logger)
	return e, nil
}

func buildFetchers(cfg *config.Config, logger, engineLogger *slog.Logger) []retrieval.Fetcher {
	var fetchers []retrieval.Fetcher

	if cfg.Naver.Enabled() {
		naver, err := sources.NewNaverClient(cfg.Naver.ClientID, cfg.Naver.ClientSecret,
			sources.WithNaverLogger(logger))
		if err != nil {
			engineLogger.Warn("naver source disabled", "err", err)
		} else {
			fetchers = append(fetchers, naver)
		}
	}

	for _, article := range cfg.Articles {
		fetcher, err := sources.NewArticleFetcher(article.Name, article.SearchURL,
			sources.WithArticleLogger(logger))
		if err != nil {
			engineLogger.Warn("article source disabled", "site", article.Name, "err", err)
			continue
		}
		fetchers = append(fetchers, fetcher)
	}
	return fetchers
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	if e.index != nil {
		if err := e.index.Close(); err != nil {
			e.logger.Error("error closing vector index", "err", err)
		}
	}
	if err := e.eventLog.Close(); err != nil {
		e.logger.Error("error closing event log", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// EventLog exposes the durable change event log.
func (e *Engine) EventLog() storage.EventLog {
	return e.eventLog
}

// AppendEvent appends a change event for the consumer to pick up.
func (e *Engine) AppendEvent(ctx context.Context, event *core.ChangeEvent) (uint64, error) {
	return e.eventLog.Append(ctx, event)
}

// NewConsumer creates the index synchronizer consumer. It requires the
// vector branch: without an embedder and index there is nothing to sync.
func (e *Engine) NewConsumer(opts ...syncer.ConsumerOption) (*syncer.Consumer, error) {
	handler, err := syncer.NewHandler(e.embedder, e.index,
		syncer.WithMaxAttempts(e.cfg.Syncer.MaxAttempts),
		syncer.WithRetryDelay(e.cfg.Syncer.RetryDelay()),
		syncer.WithHandlerLogger(e.logger))
	if err != nil {
		return nil, err
	}

	base := []syncer.ConsumerOption{
		syncer.WithGroup(e.cfg.Syncer.Group),
		syncer.WithWorkers(e.cfg.Syncer.Workers),
		syncer.WithBatchSize(e.cfg.Syncer.BatchSize),
		syncer.WithPollInterval(e.cfg.Syncer.PollInterval()),
		syncer.WithConsumerLogger(e.logger),
	}
	return syncer.NewConsumer(e.eventLog, e.offsets, handler, append(base, opts...)...)
}

// NewOrchestrator creates the hybrid retrieval orchestrator over whatever
// collaborators the engine managed to start.
func (e *Engine) NewOrchestrator(opts ...retrieval.Option) (*retrieval.Orchestrator, error) {
	base := []retrieval.Option{
		retrieval.WithDeadline(e.cfg.Retrieval.Deadline()),
		retrieval.WithSourceTimeout(e.cfg.Retrieval.SourceTimeout()),
		retrieval.WithMaxItems(e.cfg.Retrieval.MaxItems),
		retrieval.WithVectorTopK(e.cfg.Retrieval.VectorTopK),
		retrieval.WithFetchers(e.fetchers...),
		retrieval.WithLogger(e.logger),
	}
	return retrieval.NewOrchestrator(e.corpus, e.embedder, e.index, append(base, opts...)...)
}

// NewReindexer creates a reindexer over the engine's index and embedder.
func (e *Engine) NewReindexer(progress io.Writer) (*reindex.Reindexer, error) {
	if e.index == nil {
		return nil, syncer.ErrIndexRequired
	}
	if e.embedder == nil {
		return nil, syncer.ErrEmbedderRequired
	}

	cfg := reindex.DefaultConfig()
	cfg.MaxRetries = e.cfg.Syncer.MaxAttempts
	cfg.RetryDelay = e.cfg.Syncer.RetryDelay()
	return reindex.NewReindexer(e.index, e.embedder, cfg, progress), nil
}
