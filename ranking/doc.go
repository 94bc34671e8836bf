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


// Package ranking implements the hybrid scoring used to rank catalog SKUs
// against a requirement string.
//
// Two signals are combined additively: how often the exact requirement was
// resolved to a SKU before (HistoryScorer, normalized to [0, 1] by the most
// frequent SKU) and the cosine similarity of the requirement embedding to
// the SKU embedding. Combine is pure and performs no I/O.
package ranking
