package reindex

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/petlog/healthrag/ai/mock"
	"github.com/petlog/healthrag/core"
	idxmock "github.com/petlog/healthrag/index/mock"
)

func seedEntries(t *testing.T, idx *idxmock.MockIndex, n int) {
	t.Helper()

	for i := 1; i <= n; i++ {
		require.NoError(t, idx.Upsert(context.Background(), &core.VectorEntry{
			RecordID:  int64(i),
			OwnerID:   7,
			Embedding: []float32{1, 2, 3},
			Snippet:   "기록 내용",
		}))
	}
}

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestReindexerRun(t *testing.T) {
	idx := idxmock.NewMockIndex()
	seedEntries(t, idx, 5)
	embedder := aimock.NewMockEmbedder()
	embedder.Dimension = 8

	var out bytes.Buffer
	r := NewReindexer(idx, embedder, testConfig(), &out)

	require.NoError(t, r.Run(context.Background()))

	// Seed upserts plus one refresh per entry.
	assert.Equal(t, 10, idx.UpsertCount())
	for i := int64(1); i <= 5; i++ {
		entry := idx.Get(i)
		require.NotNil(t, entry)
		assert.Len(t, entry.Embedding, 8)
	}
	assert.Contains(t, out.String(), "Starting reindex of 5 entries")
	assert.Contains(t, out.String(), "Reindexed 5 entries")
}

func TestReindexerEmptyIndex(t *testing.T) {
	var out bytes.Buffer
	r := NewReindexer(idxmock.NewMockIndex(), aimock.NewMockEmbedder(), nil, &out)

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "No entries found")
}

func TestReindexerRetriesEmbeddingFailure(t *testing.T) {
	idx := idxmock.NewMockIndex()
	seedEntries(t, idx, 1)
	embedder := aimock.NewMockEmbedder()

	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 2, 3, 4}
		}
		return out, nil
	}

	var out bytes.Buffer
	r := NewReindexer(idx, embedder, testConfig(), &out)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestReindexerFailsAfterExhaustedRetries(t *testing.T) {
	idx := idxmock.NewMockIndex()
	seedEntries(t, idx, 1)
	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("persistent")
	}

	var out bytes.Buffer
	r := NewReindexer(idx, embedder, testConfig(), &out)

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch")
}

func TestProgressTracker(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 10, 5)

	tracker.Start()
	tracker.Increment(5)
	tracker.Increment(5)
	tracker.Finish()

	assert.Contains(t, out.String(), "10/10 (100.0%)")
	assert.GreaterOrEqual(t, tracker.Elapsed(), time.Duration(0))
}

func TestProgressTrackerBeforeStart(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 10, 1)

	tracker.Increment(3)
	tracker.Finish()

	assert.Empty(t, out.String())
	assert.Equal(t, time.Duration(0), tracker.Elapsed())
}
