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


// Package vectorstore holds the in-memory vector index used for exact
// nearest-neighbor search over catalog embeddings.
//
// A Snapshot is built once by Load from a Source (the catalog repository or
// a bbolt cache file), then never modified. Store publishes snapshots
// atomically so searches and reloads can run concurrently.
//
// Search is exact brute force: one matrix product of the normalized queries
// against every stored row, followed by a bounded top-k selection. Results
// are ordered by descending cosine similarity with ties broken by ascending
// row index.
//
// # Usage
//
//	snap, err := vectorstore.Load(ctx, vectorstore.NewCatalogSource(catalog), 1536, logger)
//	if err != nil {
//	    return err
//	}
//	store := vectorstore.NewStore()
//	store.Reload(snap)
//
//	matches, err := store.SearchBatch(queries, 6)
package vectorstore
