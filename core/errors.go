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

import "errors"

// Domain validation errors
var (
	// ErrUnknownEventType indicates a ChangeEvent carries a type the
	// synchronizer does not understand.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrMissingRecordID indicates a ChangeEvent without a record ID.
	ErrMissingRecordID = errors.New("record id is required")

	// ErrEmptyText indicates a CREATED or UPDATED event with no text body,
	// which cannot be embedded.
	ErrEmptyText = errors.New("event text cannot be empty")
)
