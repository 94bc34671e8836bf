package search

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/poiesic/skumatch/ai"
	"github.com/poiesic/skumatch/ai/mock"
	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/ranking"
	"github.com/poiesic/skumatch/storage/badger"
	"github.com/poiesic/skumatch/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 2

type fixture struct {
	repos    *badger.Repositories
	embedder *mock.MockEmbedder
	client   *ai.Client
	store    *vectorstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	embedder := mock.NewMockEmbedderWithDimension(testDimension)
	// Every query points along the first axis.
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}

	client, err := ai.NewClient(embedder, ai.NewConfig(ai.WithDimension(testDimension), ai.WithBatchSize(16)))
	require.NoError(t, err)

	return &fixture{
		repos:    repos,
		embedder: embedder,
		client:   client,
		store:    vectorstore.NewStore(),
	}
}

func (f *fixture) newSearcher(t *testing.T, opts ...Option) *Searcher {
	t.Helper()
	searcher, err := NewSearcher(f.repos.Catalog, f.repos.History, f.repos.Quotes, f.client, f.store, opts...)
	require.NoError(t, err)
	return searcher
}

// unitAt returns a unit vector whose cosine with {1, 0} is sim.
func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

// seedWorkedExample stores the "Test Tube 10ml" scenario: SKU-A quoted five
// times and similar at 0.9, SKU-B quoted once with no vector, SKU-C only
// similar at 0.5.
func (f *fixture) seedWorkedExample(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	price := 4.25
	_, err := f.repos.Catalog.AddItems(ctx,
		&core.CatalogItem{SKU: "SKU-A", Name: "Glass test tube 10ml", Price: &price, Image: "a.png"},
		&core.CatalogItem{SKU: "SKU-B", Name: "Plastic test tube"},
		&core.CatalogItem{SKU: "SKU-C", Name: "Test tube rack"},
	)
	require.NoError(t, err)

	require.NoError(t, f.repos.History.AddMappings(ctx,
		&core.HistoricalMapping{Requirement: "Test Tube 10ml", SKU: "SKU-A", Frequency: 5},
		&core.HistoricalMapping{Requirement: "Test Tube 10ml", SKU: "SKU-B", Frequency: 1},
	))

	_, err = f.repos.Quotes.AddQuotes(ctx,
		&core.Quote{SKU: "SKU-A", Requirement: "Test Tube 10ml", Customer: "lab-1", Quantity: 100, Price: 4.0, QuotedAt: time.Now().Add(-2 * time.Hour)},
		&core.Quote{SKU: "SKU-A", Requirement: "test tube", Customer: "lab-2", Quantity: 50, Price: 4.1, QuotedAt: time.Now().Add(-time.Hour)},
	)
	require.NoError(t, err)

	snap, err := vectorstore.Load(ctx, vectorstore.RecordsSource{
		{SKU: "SKU-A", Name: "Glass test tube 10ml", Embedding: unitAt(0.9)},
		{SKU: "SKU-C", Name: "Test tube rack", Embedding: unitAt(0.5)},
	}, testDimension, slog.Default())
	require.NoError(t, err)
	_, err = f.store.Reload(snap)
	require.NoError(t, err)
}

func suggestionSKUs(suggestions []*core.Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.SKU
	}
	return out
}

func TestNewSearcher(t *testing.T) {
	f := newFixture(t)
	r := f.repos

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(r.Catalog, r.History, r.Quotes, f.client, f.store)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(r.Catalog, r.History, r.Quotes, f.client, f.store, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("missing dependencies", func(t *testing.T) {
		_, err := NewSearcher(nil, r.History, r.Quotes, f.client, f.store)
		assert.Equal(t, ErrCatalogRepositoryRequired, err)

		_, err = NewSearcher(r.Catalog, nil, r.Quotes, f.client, f.store)
		assert.Equal(t, ErrHistoryRepositoryRequired, err)

		_, err = NewSearcher(r.Catalog, r.History, nil, f.client, f.store)
		assert.Equal(t, ErrQuoteRepositoryRequired, err)

		_, err = NewSearcher(r.Catalog, r.History, r.Quotes, nil, f.store)
		assert.Equal(t, ErrEmbeddingClientRequired, err)

		_, err = NewSearcher(r.Catalog, r.History, r.Quotes, f.client, nil)
		assert.Equal(t, ErrVectorStoreRequired, err)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewSearcher(r.Catalog, r.History, r.Quotes, f.client, f.store, WithWeights(ranking.Weights{History: -1}))
		assert.ErrorIs(t, err, ErrInvalidOption)

		_, err = NewSearcher(r.Catalog, r.History, r.Quotes, f.client, f.store, WithVectorCandidates(-1))
		assert.ErrorIs(t, err, ErrInvalidOption)

		_, err = NewSearcher(r.Catalog, r.History, r.Quotes, f.client, f.store, WithQueryTimeout(0))
		assert.ErrorIs(t, err, ErrInvalidOption)
	})
}

func TestSuggest_WorkedExample(t *testing.T) {
	f := newFixture(t)
	f.seedWorkedExample(t)
	searcher := f.newSearcher(t)

	results, err := searcher.Suggest(context.Background(), []string{"Test Tube 10ml"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	require.Len(t, got, 3)
	assert.Equal(t, []string{"SKU-A", "SKU-C", "SKU-B"}, suggestionSKUs(got))
	assert.InDelta(t, 0.97, got[0].FinalScore, 1e-6)
	assert.InDelta(t, 0.15, got[1].FinalScore, 1e-6)
	assert.InDelta(t, 0.14, got[2].FinalScore, 1e-6)

	a := got[0]
	assert.Equal(t, "Glass test tube 10ml", a.ItemName)
	require.NotNil(t, a.Price)
	assert.Equal(t, 4.25, *a.Price)
	assert.Equal(t, "a.png", a.Image)
	assert.Equal(t, 5, a.HistoricalFrequency)
	require.Len(t, a.RecentQuotes, 2)
	assert.Equal(t, "lab-2", a.RecentQuotes[0].Customer, "most recent quote first")

	assert.Empty(t, got[1].RecentQuotes)
	assert.NotNil(t, got[1].RecentQuotes)
}

func TestSuggest_AlignedWithInput(t *testing.T) {
	f := newFixture(t)
	f.seedWorkedExample(t)
	searcher := f.newSearcher(t)

	results, err := searcher.Suggest(context.Background(), []string{"", "Test Tube 10ml", "   "})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Empty(t, results[0])
	assert.NotNil(t, results[0])
	assert.Len(t, results[1], 3)
	assert.Empty(t, results[2])

	// Blank requirements are never sent for embedding.
	assert.Equal(t, 1, f.embedder.TextCount())
}

func TestSuggest_AllBlankMakesNoCalls(t *testing.T) {
	f := newFixture(t)
	searcher := f.newSearcher(t)

	results, err := searcher.Suggest(context.Background(), []string{"", "\t"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Zero(t, f.embedder.CallCount())
}

func TestSuggest_SingleEmbeddingRequest(t *testing.T) {
	f := newFixture(t)
	f.seedWorkedExample(t)
	searcher := f.newSearcher(t)

	_, err := searcher.Suggest(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.embedder.CallCount())
	assert.Equal(t, 4, f.embedder.TextCount())
}

func TestSuggest_TopK(t *testing.T) {
	f := newFixture(t)
	f.seedWorkedExample(t)

	results, err := f.newSearcher(t, WithTopK(1)).Suggest(context.Background(), []string{"Test Tube 10ml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU-A"}, suggestionSKUs(results[0]))

	results, err = f.newSearcher(t, WithTopK(0)).Suggest(context.Background(), []string{"Test Tube 10ml"})
	require.NoError(t, err)
	assert.Empty(t, results[0])
}

func TestSuggest_SnapshotNotLoaded(t *testing.T) {
	f := newFixture(t)
	f.seedWorkedExample(t)
	f.store = vectorstore.NewStore()
	searcher := f.newSearcher(t)

	results, err := searcher.Suggest(context.Background(), []string{"Test Tube 10ml"})
	require.NoError(t, err)
	got := results[0]
	assert.Equal(t, []string{"SKU-A", "SKU-B"}, suggestionSKUs(got))
	assert.InDelta(t, 0.7, got[0].FinalScore, 1e-9)
	assert.InDelta(t, 0.14, got[1].FinalScore, 1e-9)
	assert.Equal(t, "Glass test tube 10ml", got[0].ItemName)
}

func TestSuggest_EmbeddingFailure(t *testing.T) {
	f := newFixture(t)
	f.seedWorkedExample(t)
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service unavailable")
	}
	searcher := f.newSearcher(t)

	results, err := searcher.Suggest(context.Background(), []string{"Test Tube 10ml", "nothing known"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU-A", "SKU-B"}, suggestionSKUs(results[0]))
	for _, s := range results[0] {
		assert.Zero(t, s.VectorScore)
	}
	assert.Empty(t, results[1])
}

func TestSuggest_VectorOnly(t *testing.T) {
	f := newFixture(t)
	f.seedWorkedExample(t)
	searcher := f.newSearcher(t)

	results, err := searcher.Suggest(context.Background(), []string{"test tube 10ml"})
	require.NoError(t, err)
	got := results[0]
	assert.Equal(t, []string{"SKU-A", "SKU-C"}, suggestionSKUs(got), "history matches the exact string only")
	assert.InDelta(t, 0.27, got[0].FinalScore, 1e-6)
	assert.Zero(t, got[0].HistoricalScore)
}

func TestSuggest_NameFallsBackToSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := vectorstore.Load(ctx, vectorstore.RecordsSource{
		{SKU: "SKU-X", Name: "Snapshot only", Embedding: unitAt(0.8)},
	}, testDimension, slog.Default())
	require.NoError(t, err)
	_, err = f.store.Reload(snap)
	require.NoError(t, err)

	results, err := f.newSearcher(t).Suggest(ctx, []string{"anything"})
	require.NoError(t, err)
	require.Len(t, results[0], 1)
	assert.Equal(t, "Snapshot only", results[0][0].ItemName)
	assert.Nil(t, results[0][0].Price)
}

func TestSuggest_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.newSearcher(t).Suggest(ctx, []string{"Test Tube 10ml"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuggestWithMonitor_Timing(t *testing.T) {
	f := newFixture(t)
	f.seedWorkedExample(t)
	searcher := f.newSearcher(t)

	monitor := NewTimingMonitor()
	results, err := searcher.SuggestWithMonitor(context.Background(), []string{"Test Tube 10ml", ""}, monitor)
	require.NoError(t, err)
	require.Len(t, results, 2)

	report := monitor.Report()
	assert.Equal(t, 2, report.ItemsCount)
	for _, stage := range []string{StageEmbeddings, StageVectorSearch, StageHistory, StageRanking, StageEnrichment} {
		assert.Contains(t, report.Steps, stage)
	}
	assert.GreaterOrEqual(t, report.TotalMS, 0.0)

	assert.Contains(t, monitor.Header(), `"items_count":2`)
}
