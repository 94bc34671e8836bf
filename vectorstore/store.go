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
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/skumatch/core"
)

// Store holds the active snapshot. Reload swaps it atomically; readers take
// one snapshot per call, so a search that started before a reload finishes
// on the version it started with.
type Store struct {
	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
	logger     *slog.Logger
}

// NewStore creates an empty store. Searches fail with ErrNotLoaded until the
// first Reload.
func NewStore() *Store {
	return &Store{
		logger: slog.Default().With("component", "vector-store"),
	}
}

// Reload publishes snap as the active snapshot and returns its generation.
func (s *Store) Reload(snap *Snapshot) (uint64, error) {
	published, err := s.Publish(snap)
	if err != nil {
		return 0, err
	}
	return published.generation, nil
}

// Publish is Reload returning the stamped snapshot that was swapped in.
func (s *Store) Publish(snap *Snapshot) (*Snapshot, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}

	// Published copies share the immutable arrays but carry their own generation
	published := *snap
	published.generation = s.generation.Add(1)
	previous := s.current.Swap(&published)

	args := []any{"generation", published.generation, "rows", published.Len()}
	if previous != nil {
		args = append(args, "previous_generation", previous.generation, "previous_rows", previous.Len())
	}
	s.logger.Info("vector snapshot reloaded", args...)
	return &published, nil
}

// Snapshot returns the active snapshot.
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Loaded reports whether a snapshot has been published.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Search runs Snapshot.Search against the active snapshot.
func (s *Store) Search(q []float32, topK int) ([]core.VectorMatch, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Search(q, topK)
}

// SearchBatch runs Snapshot.SearchBatch against the active snapshot.
func (s *Store) SearchBatch(qs [][]float32, topK int) ([][]core.VectorMatch, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.SearchBatch(qs, topK)
}
