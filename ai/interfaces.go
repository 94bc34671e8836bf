package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexedEmbedder is implemented by embedders whose service reports the input
// position of every returned vector instead of guaranteeing input order.
// Client prefers it over EmbedTexts when available.
type IndexedEmbedder interface {
	EmbedTextsIndexed(ctx context.Context, texts []string) ([]IndexedVector, error)
}

// IndexedVector is one embedding tagged with the position of its input text.
type IndexedVector struct {
	Index  int
	Vector []float32
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
