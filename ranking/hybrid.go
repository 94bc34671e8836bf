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


package ranking

import (
	"cmp"
	"slices"

	"github.com/poiesic/skumatch/core"
)

// Weights scale the history and vector components of the final score.
type Weights struct {
	History float64
	Vector  float64
}

// DefaultWeights favors proven history over semantic similarity.
var DefaultWeights = Weights{History: 0.7, Vector: 0.3}

// Combine merges normalized history scores and vector matches into one ranked
// list of at most topK candidates.
//
// Every history SKU starts with HistoricalScore = normalized * weights.History.
// A vector match sets VectorScore = similarity * weights.Vector on the SKU's
// record, creating it if needed; a repeated match for the same SKU overwrites
// the earlier one. FinalScore is the sum of both components. Results are
// ordered by FinalScore descending, then SKU ascending. topK <= 0 yields an
// empty list.
func Combine(normalized map[string]float64, frequencies map[string]int, matches []core.VectorMatch, weights Weights, topK int) []*core.CandidateScore {
	if topK <= 0 {
		return []*core.CandidateScore{}
	}

	candidates := make(map[string]*core.CandidateScore, len(normalized)+len(matches))
	for sku, score := range normalized {
		candidates[sku] = &core.CandidateScore{
			SKU:                 sku,
			HistoricalScore:     score * weights.History,
			HistoricalFrequency: frequencies[sku],
		}
	}

	for _, m := range matches {
		candidate, ok := candidates[m.SKU]
		if !ok {
			candidate = &core.CandidateScore{SKU: m.SKU}
			candidates[m.SKU] = candidate
		}
		candidate.VectorScore = m.Similarity * weights.Vector
		candidate.VectorSimilarity = m.Similarity
	}

	ranked := make([]*core.CandidateScore, 0, len(candidates))
	for _, candidate := range candidates {
		candidate.FinalScore = candidate.HistoricalScore + candidate.VectorScore
		ranked = append(ranked, candidate)
	}

	slices.SortFunc(ranked, func(a, b *core.CandidateScore) int {
		if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.SKU, b.SKU)
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
