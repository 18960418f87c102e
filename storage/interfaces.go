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


package storage

import (
	"context"

	"github.com/petlog/healthrag/core"
)

// Record is a change event together with its log offset.
type Record struct {
	Offset uint64
	Event  *core.ChangeEvent
}

// EventLog is an append-only, offset-addressed log of change events.
// Offsets start at 1 and are strictly increasing; offset 0 means "nothing".
// Implementations must be thread-safe.
type EventLog interface {
	// Append adds an event to the log and returns its assigned offset.
	Append(ctx context.Context, event *core.ChangeEvent) (uint64, error)

	// Read returns up to max records with offset > after, in offset order.
	// An empty result means the log has no records past that point.
	Read(ctx context.Context, after uint64, max int) ([]Record, error)

	// LastOffset returns the highest offset in the log, 0 when empty.
	LastOffset(ctx context.Context) (uint64, error)

	// Close releases log resources.
	Close() error
}

// OffsetStore persists per-consumer-group commit positions. A commit is only
// made after every event at or below the offset has reached a terminal state,
// so redelivery after a crash replays at most the uncommitted tail.
type OffsetStore interface {
	// Commit durably records that group has fully processed up to offset.
	Commit(ctx context.Context, group string, offset uint64) error

	// Last returns the last committed offset for group. The bool reports
	// whether the group has ever committed.
	Last(ctx context.Context, group string) (uint64, bool, error)
}
