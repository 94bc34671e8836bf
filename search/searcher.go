package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/skumatch/ai"
	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/ranking"
	"github.com/poiesic/skumatch/storage"
	"github.com/poiesic/skumatch/vectorstore"
)

const (
	// DefaultTopK is the number of suggestions returned per requirement.
	DefaultTopK = 3

	// DefaultQuoteLimit is the number of recent quotes attached per suggestion.
	DefaultQuoteLimit = 3

	// DefaultQueryTimeout bounds the embedding call of one Suggest.
	DefaultQueryTimeout = 30 * time.Second
)

// Searcher ranks catalog SKUs for free-text requirements by combining
// requirement history with embedding similarity.
type Searcher struct {
	catalog          storage.CatalogRepository
	quotes           storage.QuoteRepository
	history          *ranking.HistoryScorer
	client           *ai.Client
	store            *vectorstore.Store
	weights          ranking.Weights
	topK             int
	vectorCandidates int
	quoteLimit       int
	queryTimeout     time.Duration
	logger           *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights sets the history and vector weights.
// Default is ranking.DefaultWeights.
func WithWeights(weights ranking.Weights) Option {
	return func(s *Searcher) error {
		if weights.History < 0 || weights.Vector < 0 {
			return fmt.Errorf("%w: weights cannot be negative", ErrInvalidOption)
		}
		s.weights = weights
		return nil
	}
}

// WithTopK sets how many suggestions are returned per requirement.
// Zero or less returns no suggestions. Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		s.topK = k
		return nil
	}
}

// WithVectorCandidates sets how many nearest neighbors are fetched per
// requirement before ranking. Zero means twice the top-k.
func WithVectorCandidates(n int) Option {
	return func(s *Searcher) error {
		if n < 0 {
			return fmt.Errorf("%w: vector candidates cannot be negative", ErrInvalidOption)
		}
		s.vectorCandidates = n
		return nil
	}
}

// WithQuoteLimit sets how many recent quotes are attached per suggestion.
// Default is DefaultQuoteLimit.
func WithQuoteLimit(n int) Option {
	return func(s *Searcher) error {
		if n < 0 {
			return fmt.Errorf("%w: quote limit cannot be negative", ErrInvalidOption)
		}
		s.quoteLimit = n
		return nil
	}
}

// WithQueryTimeout bounds the embedding call of one Suggest.
// Default is DefaultQueryTimeout.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: query timeout must be positive", ErrInvalidOption)
		}
		s.queryTimeout = timeout
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	catalog storage.CatalogRepository,
	history storage.HistoryRepository,
	quotes storage.QuoteRepository,
	client *ai.Client,
	store *vectorstore.Store,
	opts ...Option,
) (*Searcher, error) {
	if catalog == nil {
		return nil, ErrCatalogRepositoryRequired
	}
	if history == nil {
		return nil, ErrHistoryRepositoryRequired
	}
	if quotes == nil {
		return nil, ErrQuoteRepositoryRequired
	}
	if client == nil {
		return nil, ErrEmbeddingClientRequired
	}
	if store == nil {
		return nil, ErrVectorStoreRequired
	}

	scorer, err := ranking.NewHistoryScorer(history)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		catalog:      catalog,
		quotes:       quotes,
		history:      scorer,
		client:       client,
		store:        store,
		weights:      ranking.DefaultWeights,
		topK:         DefaultTopK,
		quoteLimit:   DefaultQuoteLimit,
		queryTimeout: DefaultQueryTimeout,
		logger:       slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Suggest ranks catalog SKUs for every requirement. The result is aligned
// with requirements; blank requirements and requirements with no candidates
// get an empty list. Embedding or vector failures degrade a requirement to
// history-only ranking and history failures degrade it to vector-only, so
// the only error returned is the context's.
func (s *Searcher) Suggest(ctx context.Context, requirements []string) ([][]*core.Suggestion, error) {
	return s.SuggestWithMonitor(ctx, requirements, nil)
}

// SuggestWithMonitor is Suggest with per-stage monitor callbacks.
func (s *Searcher) SuggestWithMonitor(ctx context.Context, requirements []string, monitor SearchMonitor) ([][]*core.Suggestion, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	monitor.Start(requirements)

	results := make([][]*core.Suggestion, len(requirements))
	for i := range results {
		results[i] = []*core.Suggestion{}
	}

	active := make([]int, 0, len(requirements))
	for i, requirement := range requirements {
		if strings.TrimSpace(requirement) != "" {
			active = append(active, i)
		}
	}
	if len(active) == 0 || s.topK <= 0 {
		monitor.Finish(results)
		return results, nil
	}

	// 1. Embed every non-blank requirement in one batch
	vectors := s.embed(ctx, requirements, active)
	embedded := 0
	for _, v := range vectors {
		if v != nil {
			embedded++
		}
	}
	monitor.AfterEmbedding(embedded, len(active)-embedded)

	// 2. One vector search for every embedded requirement
	matches, snap := s.searchVectors(vectors)
	monitor.AfterVectorSearch(matches)

	// 3. Rank each requirement
	ranked := make([][]*core.CandidateScore, len(active))
	for j, i := range active {
		requirement := requirements[i]
		freqs, err := s.history.Lookup(ctx, requirement)
		if err != nil {
			s.logger.Warn("history unavailable, ranking by vectors only", "err", err)
			freqs = map[string]int{}
		}
		monitor.AfterHistoryLookup(requirement, freqs)

		ranked[j] = ranking.Combine(ranking.Normalize(freqs), freqs, matches[j], s.weights, s.topK)
		monitor.AfterRanking(requirement, ranked[j])
	}

	// 4. Enrich all candidates in one pass
	skus := uniqueSKUs(ranked)
	items, quotes := s.enrich(ctx, skus)
	monitor.AfterEnrichment(skus)

	for j, i := range active {
		suggestions := make([]*core.Suggestion, 0, len(ranked[j]))
		for _, candidate := range ranked[j] {
			suggestions = append(suggestions, buildSuggestion(candidate, items[candidate.SKU], quotes[candidate.SKU], snap))
		}
		results[i] = suggestions
	}

	monitor.Finish(results)
	return results, nil
}

// embed returns vectors aligned with active; nil marks a failure.
func (s *Searcher) embed(ctx context.Context, requirements []string, active []int) [][]float32 {
	texts := make([]string, len(active))
	for j, i := range active {
		texts[j] = requirements[i]
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	vectors := s.client.EmbedBatch(embedCtx, texts, 0)
	for j, v := range vectors {
		if v == nil {
			s.logger.Warn("requirement embedding failed, ranking by history only", "index", active[j])
		}
	}
	return vectors
}

// searchVectors returns matches aligned with vectors plus the snapshot that
// produced them. Missing vectors, a missing snapshot or a search failure
// yield no matches.
func (s *Searcher) searchVectors(vectors [][]float32) ([][]core.VectorMatch, *vectorstore.Snapshot) {
	matches := make([][]core.VectorMatch, len(vectors))

	snap, err := s.store.Snapshot()
	if err != nil {
		if errors.Is(err, vectorstore.ErrNotLoaded) {
			s.logger.Warn("vector snapshot not loaded, ranking by history only")
		}
		return matches, nil
	}

	queries := make([][]float32, 0, len(vectors))
	positions := make([]int, 0, len(vectors))
	for j, v := range vectors {
		if v != nil {
			queries = append(queries, v)
			positions = append(positions, j)
		}
	}
	if len(queries) == 0 {
		return matches, snap
	}

	candidates := s.vectorCandidates
	if candidates == 0 {
		candidates = 2 * s.topK
	}

	found, err := snap.SearchBatch(queries, candidates)
	if err != nil {
		s.logger.Warn("vector search failed, ranking by history only", "err", err)
		return matches, snap
	}
	for k, j := range positions {
		matches[j] = found[k]
	}
	return matches, snap
}

// enrich loads catalog metadata and recent quotes for skus. Failures are
// logged and leave the suggestions unenriched.
func (s *Searcher) enrich(ctx context.Context, skus []string) (map[string]*core.CatalogItem, map[string][]*core.Quote) {
	items := make(map[string]*core.CatalogItem, len(skus))
	if len(skus) == 0 {
		return items, nil
	}

	found, err := s.catalog.GetItems(ctx, skus...)
	if err != nil {
		s.logger.Warn("catalog lookup failed", "skus", len(skus), "err", err)
	}
	for _, item := range found {
		items[item.SKU] = item
	}

	if s.quoteLimit == 0 {
		return items, nil
	}
	quotes, err := s.quotes.RecentQuotes(ctx, skus, s.quoteLimit)
	if err != nil {
		s.logger.Warn("quote history lookup failed", "skus", len(skus), "err", err)
		return items, nil
	}
	return items, quotes
}

func buildSuggestion(candidate *core.CandidateScore, item *core.CatalogItem, quotes []*core.Quote, snap *vectorstore.Snapshot) *core.Suggestion {
	suggestion := &core.Suggestion{
		CandidateScore: *candidate,
		RecentQuotes:   quotes,
	}
	if suggestion.RecentQuotes == nil {
		suggestion.RecentQuotes = []*core.Quote{}
	}
	if item != nil {
		suggestion.ItemName = item.Name
		suggestion.Price = item.Price
		suggestion.Image = item.Image
	}
	if suggestion.ItemName == "" && snap != nil {
		suggestion.ItemName, _ = snap.Name(candidate.SKU)
	}
	return suggestion
}

func uniqueSKUs(ranked [][]*core.CandidateScore) []string {
	seen := make(map[string]struct{})
	var skus []string
	for _, candidates := range ranked {
		for _, c := range candidates {
			if _, ok := seen[c.SKU]; ok {
				continue
			}
			seen[c.SKU] = struct{}{}
			skus = append(skus, c.SKU)
		}
	}
	return skus
}
