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
	"fmt"
	"time"

	"github.com/poiesic/skumatch/core"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Snapshot is an immutable, fully built vector index. Row i of the matrix is
// the unit-normalized embedding of skus[i].
type Snapshot struct {
	matrix     []float32 // row-major, len(skus) x dimension
	skus       []string
	names      []string
	index      map[string]int
	dimension  int
	skipped    int
	generation uint64
	builtAt    time.Time
}

// Len returns the number of rows.
func (s *Snapshot) Len() int {
	return len(s.skus)
}

// Dimension returns the embedding width.
func (s *Snapshot) Dimension() int {
	return s.dimension
}

// Skipped returns how many source records were rejected during the load.
func (s *Snapshot) Skipped() int {
	return s.skipped
}

// Generation returns the number stamped by Store.Reload; zero if the
// snapshot was never published.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// BuiltAt returns when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Name returns the catalog name recorded for sku.
func (s *Snapshot) Name(sku string) (string, bool) {
	row, ok := s.index[sku]
	if !ok {
		return "", false
	}
	return s.names[row], true
}

// Row returns the row of sku.
func (s *Snapshot) Row(sku string) (int, bool) {
	row, ok := s.index[sku]
	return row, ok
}

// Vector returns a copy of the normalized embedding at row.
func (s *Snapshot) Vector(row int) []float32 {
	start := row * s.dimension
	return append([]float32(nil), s.matrix[start:start+s.dimension]...)
}

// Search returns the topK rows most similar to q, by descending cosine
// similarity with ties broken by ascending row. It runs the batch path with a
// single query so both always agree.
func (s *Snapshot) Search(q []float32, topK int) ([]core.VectorMatch, error) {
	results, err := s.SearchBatch([][]float32{q}, topK)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// SearchBatch scores every query against every row with a single matrix
// product and returns the topK matches per query, aligned with qs.
func (s *Snapshot) SearchBatch(qs [][]float32, topK int) ([][]core.VectorMatch, error) {
	n, m, d := len(qs), s.Len(), s.dimension
	results := make([][]core.VectorMatch, n)

	queries := make([]float32, n*d)
	for i, q := range qs {
		if len(q) != d {
			return nil, fmt.Errorf("%w: query %d has dimension %d, want %d", ErrInvalidQuery, i, len(q), d)
		}
		if !isFinite(q) {
			return nil, fmt.Errorf("%w: query %d has non-finite values", ErrInvalidQuery, i)
		}
		copy(queries[i*d:], NormalizeVector(q))
	}

	if n == 0 || m == 0 || topK <= 0 {
		for i := range results {
			results[i] = []core.VectorMatch{}
		}
		return results, nil
	}

	scores := blas32.General{Rows: n, Cols: m, Stride: m, Data: make([]float32, n*m)}
	blas32.Gemm(blas.NoTrans, blas.Trans, 1,
		blas32.General{Rows: n, Cols: d, Stride: d, Data: queries},
		blas32.General{Rows: m, Cols: d, Stride: d, Data: s.matrix},
		0, scores)

	for i := 0; i < n; i++ {
		results[i] = s.topMatches(scores.Data[i*m:(i+1)*m], topK)
	}
	return results, nil
}

// topMatches selects the k best rows with a bounded insertion sort.
// A row beats another when its score is higher, or equal with a lower row.
func (s *Snapshot) topMatches(scores []float32, k int) []core.VectorMatch {
	k = min(k, len(scores))
	best := make([]int, 0, k)

	for row, score := range scores {
		if len(best) == k && score <= scores[best[k-1]] {
			continue
		}
		// Rows arrive in ascending order, so an equal score never moves ahead
		pos := len(best)
		for pos > 0 && score > scores[best[pos-1]] {
			pos--
		}
		if len(best) < k {
			best = append(best, 0)
		}
		copy(best[pos+1:], best[pos:len(best)-1])
		best[pos] = row
	}

	matches := make([]core.VectorMatch, len(best))
	for i, row := range best {
		matches[i] = core.VectorMatch{
			SKU:        s.skus[row],
			Similarity: float64(scores[row]),
			Row:        row,
		}
	}
	return matches
}
