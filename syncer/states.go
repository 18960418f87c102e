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


package syncer

// EventState tracks an event through the processing state machine:
// RECEIVED -> EMBEDDING -> INDEX_MUTATING -> {ACKED | SKIPPED | DROPPED}.
// Terminal states are never revisited.
type EventState string

const (
	// StateReceived is the initial state after an event is read from the log.
	StateReceived EventState = "RECEIVED"
	// StateEmbedding means the embedding round-trip is in flight.
	StateEmbedding EventState = "EMBEDDING"
	// StateIndexMutating means the vector index mutation is in flight.
	StateIndexMutating EventState = "INDEX_MUTATING"
	// StateAcked is terminal: the index mutation was acknowledged.
	StateAcked EventState = "ACKED"
	// StateSkipped is terminal: retries were exhausted and the event was
	// given up on to keep the consumer live.
	StateSkipped EventState = "SKIPPED"
	// StateDropped is terminal: the event was malformed and discarded
	// without any index work.
	StateDropped EventState = "DROPPED"
)

// Terminal reports whether the state ends processing for an event.
func (s EventState) Terminal() bool {
	switch s {
	case StateAcked, StateSkipped, StateDropped:
		return true
	}
	return false
}

// Result records the outcome of processing a single change event.
type Result struct {
	EventID  string
	RecordID int64
	State    EventState
	Attempts int
	Err      error
}
