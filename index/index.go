package index

import (
	"context"

	"github.com/petlog/healthrag/core"
)

// Filter restricts a similarity query to entries matching the given owner
// and/or subject. Zero values mean "no restriction".
type Filter struct {
	OwnerID   int64
	SubjectID int64
}

// Match is a single similarity hit. Score is cosine similarity clamped to
// [0,1] so it merges directly with lexical scores.
type Match struct {
	RecordID int64
	Score    float64
	Snippet  string
}

// Index is the capability the engine needs from a similarity-search store.
//
// Update semantics are caller-driven: Upsert does not enforce uniqueness, so
// callers replacing an entry must Delete the stale one first. Delete on a
// missing record is a no-op. Query degrades to an empty result, never an
// error, when the store is unreachable or uninitialized.
type Index interface {
	// Upsert inserts a vector entry keyed by its record ID.
	Upsert(ctx context.Context, entry *core.VectorEntry) error

	// Delete removes all entries for the record ID. Absent entries are not
	// an error.
	Delete(ctx context.Context, recordID int64) error

	// Query returns up to topK entries ranked by cosine similarity,
	// restricted by filter when its fields are set.
	Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error)

	// Entries returns every live entry, used for bulk reindexing.
	Entries(ctx context.Context) ([]*core.VectorEntry, error)

	// Close releases the underlying store.
	Close() error
}
