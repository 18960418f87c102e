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


package sources

import "errors"

var (
	// ErrCredentialsRequired is returned when API credentials are missing.
	ErrCredentialsRequired = errors.New("api credentials required")

	// ErrSourceConfigRequired is returned when a fetcher is constructed
	// without a name or search URL.
	ErrSourceConfigRequired = errors.New("source name and search url required")

	// ErrUnexpectedStatus is returned on a non-200 HTTP response.
	ErrUnexpectedStatus = errors.New("unexpected http status")
)
