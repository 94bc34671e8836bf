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


// Package ai provides the embedding service client used by skumatch.
//
// # Design
//
//   - Embedder: Generates vector embeddings from text
//   - IndexedEmbedder: Optional; reports the input index of each vector
//   - AIProvider: Aggregates AI services for convenient initialization
//   - Client: Timeout, pacing, chunking and response validation on top of
//     an Embedder
//
// Client.EmbedBatch sends exactly one request per chunk. A chunk whose request
// fails, or whose response has the wrong count, an out of range index or a
// vector of the wrong width, yields nil for every text in the chunk; the
// remaining chunks are still sent. Chunks are never retried.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(key), ai.WithRequestsPerSecond(5))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := ai.NewClient(provider.Embedder(), config)
//
//	vector, err := client.Embed(ctx, "Test Tube 10ml")
//	if errors.Is(err, ai.ErrEmbeddingService) {
//	    // degrade to history-only ranking
//	}
package ai
