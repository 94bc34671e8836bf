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
	"context"
	"log/slog"

	"github.com/poiesic/skumatch/storage"
)

// HistoryScorer looks up how often a requirement string was resolved to each
// SKU in the past.
type HistoryScorer struct {
	history storage.HistoryRepository
	logger  *slog.Logger
}

// NewHistoryScorer creates a HistoryScorer over history.
func NewHistoryScorer(history storage.HistoryRepository) (*HistoryScorer, error) {
	if history == nil {
		return nil, ErrHistoryRequired
	}
	return &HistoryScorer{
		history: history,
		logger:  slog.Default().With("component", "history-scorer"),
	}, nil
}

// Lookup returns sku -> frequency for the exact requirement string. Case and
// whitespace are significant. No match yields an empty map; storage failures
// are returned so the caller can degrade to vector-only ranking.
func (h *HistoryScorer) Lookup(ctx context.Context, requirement string) (map[string]int, error) {
	freqs, err := h.history.FrequenciesFor(ctx, requirement)
	if err != nil {
		h.logger.Warn("history lookup failed", "err", err)
		return nil, err
	}
	if freqs == nil {
		freqs = map[string]int{}
	}
	return freqs, nil
}

// Normalize divides every frequency by the largest one, mapping the most
// frequent SKU to 1.0. An empty input yields an empty map and a maximum of
// zero maps every SKU to 0.0, so the result never contains NaN.
func Normalize(freqs map[string]int) map[string]float64 {
	normalized := make(map[string]float64, len(freqs))
	maxFreq := 0
	for _, f := range freqs {
		maxFreq = max(maxFreq, f)
	}
	for sku, f := range freqs {
		if maxFreq <= 0 {
			normalized[sku] = 0
			continue
		}
		normalized[sku] = float64(f) / float64(maxFreq)
	}
	return normalized
}
