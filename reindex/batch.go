package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/petlog/healthrag/ai"
	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/index"
	"github.com/petlog/healthrag/syncer"
)

// BatchProcessor re-embeds batches of vector entries and writes them back to
// the index.
type BatchProcessor struct {
	index          index.Index
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: fixed delay between retries
func NewBatchProcessor(idx index.Index, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		index:          idx,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process regenerates embeddings for a batch of entries from their stored
// snippets and upserts the refreshed entries.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Snippet
	}

	var embeddings [][]float32
	_, err := syncer.RetryFixed(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(entries) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(entries), len(embeddings))
	}

	for i, entry := range entries {
		entry.Embedding = embeddings[i]
		entry.InsertedAt = time.Now().UTC()
		if err := bp.index.Upsert(ctx, entry); err != nil {
			return fmt.Errorf("failed to upsert entry %d: %w", entry.RecordID, err)
		}
	}

	return nil
}
