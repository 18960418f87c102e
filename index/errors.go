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


package index

import "errors"

var (
	// ErrNilEntry is returned when Upsert receives a nil entry.
	ErrNilEntry = errors.New("vector entry required")

	// ErrEmptyVector is returned when Upsert receives an entry without an
	// embedding.
	ErrEmptyVector = errors.New("vector entry has no embedding")

	// ErrIndexClosed is returned by mutations after Close.
	ErrIndexClosed = errors.New("index is closed")
)
