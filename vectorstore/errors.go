// Copyright 2025 Poiesic Systems
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


package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIndex indicates a load produced no valid records.
	ErrEmptyIndex = errors.New("vector index is empty")

	// ErrNotLoaded indicates a search before any snapshot was loaded.
	ErrNotLoaded = errors.New("vector snapshot not loaded")

	// ErrSourceNotFound indicates the snapshot source does not exist.
	ErrSourceNotFound = errors.New("vector source not found")

	// ErrInvalidQuery indicates a query vector of the wrong width or with
	// non-finite values.
	ErrInvalidQuery = errors.New("invalid query vector")

	// ErrInvalidDimension indicates a non-positive embedding dimension.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrNilSnapshot indicates Reload was called without a snapshot.
	ErrNilSnapshot = errors.New("snapshot is nil")
)

// LoadError reports that a snapshot source was absent or unreadable.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load vectors from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
