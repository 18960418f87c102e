package sqvect

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/index"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()

	idx, err := Open(context.Background(), filepath.Join(t.TempDir(), "vectors.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func entry(recordID int64, vector []float32, snippet string) *core.VectorEntry {
	return &core.VectorEntry{
		RecordID:   recordID,
		OwnerID:    7,
		SubjectID:  3,
		Embedding:  vector,
		Snippet:    snippet,
		InsertedAt: time.Now().UTC(),
	}
}

func TestUpsertAndQuery(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry(1, []float32{1, 0, 0, 0}, "강아지 눈곱이 많아요")))
	require.NoError(t, idx.Upsert(ctx, entry(2, []float32{0, 1, 0, 0}, "고양이 기침 증상")))

	matches, err := idx.Query(ctx, []float32{1, 0, 0, 0}, index.Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(1), matches[0].RecordID)
	assert.Equal(t, "강아지 눈곱이 많아요", matches[0].Snippet)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry(5, []float32{1, 0, 0, 0}, "first")))
	require.NoError(t, idx.Upsert(ctx, entry(5, []float32{0, 0, 1, 0}, "second")))

	matches, err := idx.Query(ctx, []float32{0, 0, 1, 0}, index.Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(5), matches[0].RecordID)
	assert.Equal(t, "second", matches[0].Snippet)
}

func TestUpsertValidation(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	assert.ErrorIs(t, idx.Upsert(ctx, nil), index.ErrNilEntry)
	assert.ErrorIs(t, idx.Upsert(ctx, &core.VectorEntry{RecordID: 1}), index.ErrEmptyVector)
}

func TestQueryFilterByOwner(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	mine := entry(1, []float32{1, 0, 0, 0}, "mine")
	theirs := entry(2, []float32{1, 0, 0, 0}, "theirs")
	theirs.OwnerID = 99
	require.NoError(t, idx.Upsert(ctx, mine))
	require.NoError(t, idx.Upsert(ctx, theirs))

	matches, err := idx.Query(ctx, []float32{1, 0, 0, 0}, index.Filter{OwnerID: 7}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].RecordID)
}

func TestDeleteIsIdempotent(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry(42, []float32{1, 0, 0, 0}, "gone soon")))
	require.NoError(t, idx.Delete(ctx, 42))
	require.NoError(t, idx.Delete(ctx, 42))

	matches, err := idx.Query(ctx, []float32{1, 0, 0, 0}, index.Filter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestEntriesRoundTrip(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	first := entry(1, []float32{1, 0, 0, 0}, "one")
	second := entry(2, []float32{0, 1, 0, 0}, "two")
	require.NoError(t, idx.Upsert(ctx, first))
	require.NoError(t, idx.Upsert(ctx, second))

	entries, err := idx.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := make(map[int64]*core.VectorEntry, len(entries))
	for _, e := range entries {
		byID[e.RecordID] = e
	}
	require.Contains(t, byID, int64(1))
	require.Contains(t, byID, int64(2))
	assert.Equal(t, "one", byID[1].Snippet)
	assert.Equal(t, int64(7), byID[1].OwnerID)
	assert.Equal(t, int64(3), byID[1].SubjectID)
	assert.Len(t, byID[2].Embedding, 4)
	assert.False(t, byID[2].InsertedAt.IsZero())
}

func TestQueryEmptyInputs(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	matches, err := idx.Query(ctx, nil, index.Filter{}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = idx.Query(ctx, []float32{1, 0, 0, 0}, index.Filter{}, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, clampScore(-0.2))
	assert.Equal(t, 0.5, clampScore(0.5))
	assert.Equal(t, 1.0, clampScore(1.3))
}
