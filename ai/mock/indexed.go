package mock

import (
	"context"

	"github.com/poiesic/skumatch/ai"
)

// ShuffledEmbedder wraps a MockEmbedder and reports its batch results in
// reverse order with their input indices, like a service that does not
// preserve request order.
type ShuffledEmbedder struct {
	*MockEmbedder

	// Mutate, if set, can corrupt the indexed response before it is returned.
	Mutate func(pairs []ai.IndexedVector) []ai.IndexedVector
}

var (
	_ ai.Embedder        = (*ShuffledEmbedder)(nil)
	_ ai.IndexedEmbedder = (*ShuffledEmbedder)(nil)
)

// NewShuffledEmbedder creates a ShuffledEmbedder over a default mock.
func NewShuffledEmbedder(dim int) *ShuffledEmbedder {
	return &ShuffledEmbedder{MockEmbedder: NewMockEmbedderWithDimension(dim)}
}

// EmbedTextsIndexed returns the mock's vectors reversed, tagged with indices.
func (s *ShuffledEmbedder) EmbedTextsIndexed(ctx context.Context, texts []string) ([]ai.IndexedVector, error) {
	vectors, err := s.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	pairs := make([]ai.IndexedVector, 0, len(vectors))
	for i := len(vectors) - 1; i >= 0; i-- {
		pairs = append(pairs, ai.IndexedVector{Index: i, Vector: vectors[i]})
	}
	if s.Mutate != nil {
		pairs = s.Mutate(pairs)
	}
	return pairs, nil
}
