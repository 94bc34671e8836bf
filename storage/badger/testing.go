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


package badger

import "github.com/poiesic/skumatch/storage"

// Repositories groups the repositories opened over one backend.
type Repositories struct {
	Catalog storage.CatalogRepository
	History storage.HistoryRepository
	Quotes  storage.QuoteRepository
	Backend *Backend
}

// Close closes the repositories and then the backend.
func (r *Repositories) Close() error {
	r.Catalog.Close()
	r.History.Close()
	r.Quotes.Close()
	return r.Backend.Close()
}

// OpenRepositories opens a backend at path and all repositories over it.
// The caller must Close the result.
func OpenRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	catalog, err := NewCatalogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	history, err := NewHistoryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	quotes, err := NewQuoteRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Catalog: catalog,
		History: history,
		Quotes:  quotes,
		Backend: backend,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	return OpenRepositories("", true)
}
