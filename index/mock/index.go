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


package mock

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/index"
)

// MockIndex is an in-memory index.Index for testing. All behavior can be
// overridden through the Func fields; the default implementation keeps
// entries in a map keyed by record ID and ranks queries by cosine similarity.
type MockIndex struct {
	UpsertFunc  func(ctx context.Context, entry *core.VectorEntry) error
	DeleteFunc  func(ctx context.Context, recordID int64) error
	QueryFunc   func(ctx context.Context, vector []float32, filter index.Filter, topK int) ([]index.Match, error)
	EntriesFunc func(ctx context.Context) ([]*core.VectorEntry, error)

	mu      sync.Mutex
	entries map[int64]*core.VectorEntry
	upserts int
	deletes int
	queries int
}

var _ index.Index = (*MockIndex)(nil)

// NewMockIndex creates an empty in-memory index.
func NewMockIndex() *MockIndex {
	return &MockIndex{entries: make(map[int64]*core.VectorEntry)}
}

func (m *MockIndex) Upsert(ctx context.Context, entry *core.VectorEntry) error {
	m.mu.Lock()
	m.upserts++
	m.mu.Unlock()

	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, entry)
	}
	if entry == nil {
		return index.ErrNilEntry
	}
	if len(entry.Embedding) == 0 {
		return index.ErrEmptyVector
	}

	cp := *entry
	m.mu.Lock()
	m.entries[entry.RecordID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MockIndex) Delete(ctx context.Context, recordID int64) error {
	m.mu.Lock()
	m.deletes++
	m.mu.Unlock()

	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, recordID)
	}

	m.mu.Lock()
	delete(m.entries, recordID)
	m.mu.Unlock()
	return nil
}

func (m *MockIndex) Query(ctx context.Context, vector []float32, filter index.Filter, topK int) ([]index.Match, error) {
	m.mu.Lock()
	m.queries++
	m.mu.Unlock()

	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, vector, filter, topK)
	}
	if len(vector) == 0 || topK <= 0 {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	matches := make([]index.Match, 0, len(m.entries))
	for _, entry := range m.entries {
		if filter.OwnerID != 0 && entry.OwnerID != filter.OwnerID {
			continue
		}
		if filter.SubjectID != 0 && entry.SubjectID != filter.SubjectID {
			continue
		}
		score := cosine(vector, entry.Embedding)
		if score < 0 {
			score = 0
		}
		matches = append(matches, index.Match{
			RecordID: entry.RecordID,
			Score:    score,
			Snippet:  entry.Snippet,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MockIndex) Entries(ctx context.Context) ([]*core.VectorEntry, error) {
	if m.EntriesFunc != nil {
		return m.EntriesFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]*core.VectorEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		cp := *entry
		entries = append(entries, &cp)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RecordID < entries[j].RecordID })
	return entries, nil
}

func (m *MockIndex) Close() error { return nil }

// Len returns the number of live entries.
func (m *MockIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Get returns the stored entry for a record ID, or nil.
func (m *MockIndex) Get(recordID int64) *core.VectorEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[recordID]
	if !ok {
		return nil
	}
	cp := *entry
	return &cp
}

// UpsertCount returns how many times Upsert was called.
func (m *MockIndex) UpsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// DeleteCount returns how many times Delete was called.
func (m *MockIndex) DeleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

// QueryCount returns how many times Query was called.
func (m *MockIndex) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
