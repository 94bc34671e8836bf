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


// Package search answers "which SKUs fit this requirement" queries.
//
// The Searcher combines two signals for every requirement:
//   - how often the exact requirement string was quoted as each SKU
//   - cosine similarity between the requirement embedding and catalog vectors
//
// Either signal may be unavailable; the searcher then ranks by the other one
// and still returns results. Ranked candidates are enriched with catalog
// metadata and recent quotes before being returned.
package search
