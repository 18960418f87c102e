package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a deterministic 64-bit identifier derived from content.
// It is used for near-duplicate suppression during result merging.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// EventType identifies the kind of mutation a ChangeEvent describes.
type EventType string

const (
	// EventCreated signals a newly authored journal record.
	EventCreated EventType = "CREATED"
	// EventUpdated signals an edit to an existing journal record.
	EventUpdated EventType = "UPDATED"
	// EventDeleted signals removal of a journal record.
	EventDeleted EventType = "DELETED"
)

// Valid reports whether the event type is one the synchronizer understands.
func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// ChangeEvent is a notification about a create/update/delete mutation on a
// journal record. Events are produced by the system of record, delivered
// at least once, and immutable once received.
type ChangeEvent struct {
	EventID   string // Producer-assigned UUID, stable across redeliveries
	Type      EventType
	RecordID  int64
	OwnerID   int64
	SubjectID int64
	Text      string
	MediaRef  string
	Timestamp time.Time
}

// VectorEntry is a single embedded journal record held by the vector index.
// For any RecordID at most one live entry exists at a time: updates delete
// the stale entry before inserting the replacement.
type VectorEntry struct {
	RecordID   int64
	OwnerID    int64
	SubjectID  int64
	Embedding  []float32
	Snippet    string
	InsertedAt time.Time
}

// CorpusDocument is a curated health document held in the in-process lexical
// corpus. Documents are loaded once at startup and never mutated.
type CorpusDocument struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Category string   `json:"category,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// RankedResult is a single retrieval hit, produced per query and never
// persisted. Score is normalized to [0,1] across all sources.
type RankedResult struct {
	Source     string
	Title      string
	Snippet    string
	Score      float64
	Provenance string
}

// Snippet truncates text to at most maxRunes runes, appending an ellipsis
// when anything was cut. Safe for multi-byte text.
func Snippet(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
