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


package sqvect

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	sqcore "github.com/liliang-cn/sqvect/v2/pkg/core"
	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/index"
)

// Metadata field names stored alongside each embedding.
const (
	metaOwner      = "owner_id"
	metaSubject    = "subject_id"
	metaInsertedAt = "inserted_at"
)

// Index implements index.Index on top of a sqvect SQLite vector store.
type Index struct {
	store  *sqcore.SQLiteStore
	logger *slog.Logger
}

var _ index.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// Open creates (or reopens) a SQLite-backed vector index at path with the
// given embedding dimension.
func Open(ctx context.Context, path string, dimension int, opts ...Option) (*Index, error) {
	store, err := sqcore.New(path, dimension)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	idx := &Index{
		store:  store,
		logger: slog.Default().With("component", "sqvect-index"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// Upsert inserts a vector entry keyed by its record ID. Uniqueness across
// time is the caller's responsibility: replace semantics are delete-then-upsert.
func (idx *Index) Upsert(ctx context.Context, entry *core.VectorEntry) error {
	if entry == nil {
		return index.ErrNilEntry
	}
	if len(entry.Embedding) == 0 {
		return index.ErrEmptyVector
	}

	insertedAt := entry.InsertedAt
	if insertedAt.IsZero() {
		insertedAt = time.Now().UTC()
	}

	key := recordKey(entry.RecordID)
	emb := &sqcore.Embedding{
		ID:      key,
		DocID:   key,
		Vector:  entry.Embedding,
		Content: entry.Snippet,
		Metadata: map[string]string{
			metaOwner:      strconv.FormatInt(entry.OwnerID, 10),
			metaSubject:    strconv.FormatInt(entry.SubjectID, 10),
			metaInsertedAt: insertedAt.UTC().Format(time.RFC3339),
		},
	}

	if err := idx.store.Upsert(ctx, emb); err != nil {
		return err
	}

	idx.logger.Debug("vector entry upserted", "recordID", entry.RecordID)
	return nil
}

// Delete removes every entry for the record ID. Missing entries are a no-op.
func (idx *Index) Delete(ctx context.Context, recordID int64) error {
	if err := idx.store.DeleteByDocID(ctx, recordKey(recordID)); err != nil {
		return err
	}
	idx.logger.Debug("vector entry deleted", "recordID", recordID)
	return nil
}

// Query returns up to topK matches ranked by cosine similarity. Store
// failures degrade to an empty result so retrieval can continue from other
// sources.
func (idx *Index) Query(ctx context.Context, vector []float32, filter index.Filter, topK int) ([]index.Match, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, nil
	}

	opts := sqcore.SearchOptions{TopK: topK}
	if filter.OwnerID != 0 || filter.SubjectID != 0 {
		opts.Filter = make(map[string]string, 2)
		if filter.OwnerID != 0 {
			opts.Filter[metaOwner] = strconv.FormatInt(filter.OwnerID, 10)
		}
		if filter.SubjectID != 0 {
			opts.Filter[metaSubject] = strconv.FormatInt(filter.SubjectID, 10)
		}
	}

	scored, err := idx.store.Search(ctx, vector, opts)
	if err != nil {
		idx.logger.Warn("vector search unavailable, degrading to empty result", "err", err)
		return nil, nil
	}

	matches := make([]index.Match, 0, len(scored))
	for _, hit := range scored {
		recordID, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			idx.logger.Warn("skipping entry with non-numeric id", "id", hit.ID)
			continue
		}
		matches = append(matches, index.Match{
			RecordID: recordID,
			Score:    clampScore(hit.Score),
			Snippet:  hit.Content,
		})
	}
	return matches, nil
}

// Entries returns every live entry, used by the reindexer.
func (idx *Index) Entries(ctx context.Context) ([]*core.VectorEntry, error) {
	docIDs, err := idx.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*core.VectorEntry, 0, len(docIDs))
	for _, docID := range docIDs {
		embs, err := idx.store.GetByDocID(ctx, docID)
		if err != nil {
			return nil, err
		}
		for _, emb := range embs {
			entry, err := entryFromEmbedding(emb)
			if err != nil {
				idx.logger.Warn("skipping malformed entry", "id", emb.ID, "err", err)
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Close releases the underlying store.
func (idx *Index) Close() error {
	return idx.store.Close()
}

func recordKey(recordID int64) string {
	return strconv.FormatInt(recordID, 10)
}

func entryFromEmbedding(emb *sqcore.Embedding) (*core.VectorEntry, error) {
	recordID, err := strconv.ParseInt(emb.ID, 10, 64)
	if err != nil {
		return nil, err
	}

	entry := &core.VectorEntry{
		RecordID:  recordID,
		Embedding: emb.Vector,
		Snippet:   emb.Content,
	}
	if v := emb.Metadata[metaOwner]; v != "" {
		entry.OwnerID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := emb.Metadata[metaSubject]; v != "" {
		entry.SubjectID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := emb.Metadata[metaInsertedAt]; v != "" {
		entry.InsertedAt, _ = time.Parse(time.RFC3339, v)
	}
	return entry, nil
}

// clampScore maps cosine similarity in [-1,1] onto [0,1] by clamping.
// Negative similarity carries no retrieval signal here.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
