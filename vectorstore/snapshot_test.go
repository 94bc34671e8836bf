package vectorstore

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/poiesic/skumatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, dim int, records ...Record) *Snapshot {
	t.Helper()
	snap, err := Load(context.Background(), RecordsSource(records), dim, nil)
	require.NoError(t, err)
	return snap
}

func randomRecords(n, dim int, seed int64) []Record {
	rng := rand.New(rand.NewSource(seed))
	records := make([]Record, n)
	for i := range records {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		records[i] = Record{SKU: fmt.Sprintf("SKU-%03d", i), Name: fmt.Sprintf("item %d", i), Embedding: v}
	}
	return records
}

func TestSearch_OrderedAndBounded(t *testing.T) {
	snap := mustLoad(t, 8, randomRecords(50, 8, 1)...)

	matches, err := snap.Search(randomRecords(1, 8, 2)[0].Embedding, 10)
	require.NoError(t, err)
	require.Len(t, matches, 10)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
	for _, m := range matches {
		assert.LessOrEqual(t, m.Similarity, 1.0+1e-5)
		assert.GreaterOrEqual(t, m.Similarity, -1.0-1e-5)
	}
}

func TestSearch_TopKLargerThanIndex(t *testing.T) {
	snap := mustLoad(t, 2,
		Record{SKU: "SKU-A", Embedding: []float32{1, 0}},
		Record{SKU: "SKU-B", Embedding: []float32{0, 1}},
	)

	matches, err := snap.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "SKU-A", matches[0].SKU)
}

func TestSearch_NonPositiveTopK(t *testing.T) {
	snap := mustLoad(t, 2, Record{SKU: "SKU-A", Embedding: []float32{1, 0}})

	for _, k := range []int{0, -1} {
		matches, err := snap.Search([]float32{1, 0}, k)
		require.NoError(t, err)
		assert.Empty(t, matches)
	}
}

func TestSearch_TiesBrokenByRow(t *testing.T) {
	snap := mustLoad(t, 2,
		Record{SKU: "SKU-C", Embedding: []float32{0, 1}},
		Record{SKU: "SKU-B", Embedding: []float32{1, 1}},
		Record{SKU: "SKU-A", Embedding: []float32{1, 1}},
		Record{SKU: "SKU-D", Embedding: []float32{2, 2}},
	)

	matches, err := snap.Search([]float32{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{matches[0].Row, matches[1].Row, matches[2].Row})
	assert.Equal(t, "SKU-B", matches[0].SKU)
}

func TestSearch_SelfSimilarity(t *testing.T) {
	records := randomRecords(20, 16, 3)
	snap := mustLoad(t, 16, records...)

	for i, r := range records {
		matches, err := snap.Search(r.Embedding, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, r.SKU, matches[0].SKU)
		assert.Equal(t, i, matches[0].Row)
		assert.InDelta(t, 1.0, matches[0].Similarity, 1e-5)
	}
}

func TestSearch_MatchesCosineSimilarity(t *testing.T) {
	records := randomRecords(30, 8, 4)
	snap := mustLoad(t, 8, records...)
	query := randomRecords(1, 8, 5)[0].Embedding

	matches, err := snap.Search(query, 30)
	require.NoError(t, err)
	for _, m := range matches {
		assert.InDelta(t, CosineSimilarity(query, records[m.Row].Embedding), m.Similarity, 1e-5)
	}
}

func TestSearch_ZeroVectors(t *testing.T) {
	snap := mustLoad(t, 2,
		Record{SKU: "SKU-A", Embedding: []float32{1, 0}},
		Record{SKU: "SKU-Z", Embedding: []float32{0, 0}},
	)

	matches, err := snap.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	for _, m := range matches {
		assert.Zero(t, m.Similarity)
	}

	matches, err = snap.Search([]float32{0, 1}, 2)
	require.NoError(t, err)
	for _, m := range matches {
		if m.SKU == "SKU-Z" {
			assert.Zero(t, m.Similarity)
		}
	}
}

func TestSearch_InvalidQuery(t *testing.T) {
	snap := mustLoad(t, 2, Record{SKU: "SKU-A", Embedding: []float32{1, 0}})

	_, err := snap.Search([]float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = snap.Search([]float32{float32(math.NaN()), 0}, 1)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestSearchBatch_EqualsSearch(t *testing.T) {
	snap := mustLoad(t, 12, randomRecords(40, 12, 6)...)
	queries := randomRecords(7, 12, 7)

	qs := make([][]float32, len(queries))
	for i, q := range queries {
		qs[i] = q.Embedding
	}
	// Include an exact duplicate of an indexed row
	qs = append(qs, snap.Vector(5))

	batch, err := snap.SearchBatch(qs, 5)
	require.NoError(t, err)
	require.Len(t, batch, len(qs))

	for i, q := range qs {
		single, err := snap.Search(q, 5)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i], "query %d", i)
	}
}

func TestSearchBatch_Empty(t *testing.T) {
	snap := mustLoad(t, 2, Record{SKU: "SKU-A", Embedding: []float32{1, 0}})

	batch, err := snap.SearchBatch(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestEmptySnapshotSearch(t *testing.T) {
	snap := &Snapshot{dimension: 2, index: map[string]int{}}

	matches, err := snap.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []core.VectorMatch{}, matches)
}
