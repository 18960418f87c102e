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


package core

import "fmt"

// ValidateChangeEvent validates a ChangeEvent according to domain rules.
// A validation failure marks the event as malformed: malformed events are
// logged and dropped by the consumer, never retried.
//
// Validation rules:
//   - Type must be CREATED, UPDATED, or DELETED
//   - RecordID must be set
//   - Text must not be empty for CREATED and UPDATED (nothing to embed)
//
// NOT validated:
//   - Timestamp (producer clocks may drift; stale timestamps are tolerated)
//   - MediaRef (optional)
func ValidateChangeEvent(event *ChangeEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event is nil", ErrUnknownEventType)
	}

	if !event.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}

	if event.RecordID == 0 {
		return ErrMissingRecordID
	}

	if event.Type != EventDeleted && event.Text == "" {
		return fmt.Errorf("%w: event %s for record %d", ErrEmptyText, event.Type, event.RecordID)
	}

	return nil
}
