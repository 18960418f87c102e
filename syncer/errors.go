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

import "errors"

var (
	// ErrEmbedderRequired is returned when a nil embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrIndexRequired is returned when a nil vector index is provided.
	ErrIndexRequired = errors.New("vector index is required")

	// ErrEventLogRequired is returned when a nil event log is provided.
	ErrEventLogRequired = errors.New("event log is required")

	// ErrOffsetStoreRequired is returned when a nil offset store is provided.
	ErrOffsetStoreRequired = errors.New("offset store is required")

	// ErrHandlerRequired is returned when a nil handler is provided.
	ErrHandlerRequired = errors.New("handler is required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
