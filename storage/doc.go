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


// Package storage provides the storage abstraction layer for skumatch.
//
// This package defines repository interfaces that decouple the ranking engine
// from the persistence engine. The BadgerDB implementation lives in
// storage/badger.
//
// # Architecture
//
//   - CatalogRepository: catalog items and their embeddings
//   - EmbeddingWriter: independent write handle used per ingestion batch
//   - HistoryRepository: requirement to SKU frequencies
//   - QuoteRepository: historical quotes, most recent first per SKU
//
// # Usage
//
//	catalog, history, quotes, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Concurrency
//
// All repository implementations must be thread-safe. Writes that lose a race
// with another writer fail with ErrStorageBusy and may be retried.
package storage
