package storage

import (
	"context"

	"github.com/poiesic/skumatch/core"
)

// CatalogRepository provides operations for managing catalog items.
// Implementations must be thread-safe and support concurrent access.
type CatalogRepository interface {
	// AddItems inserts or replaces catalog items keyed by SKU.
	// Sets UpdatedAt on every item.
	// Returns the items with timestamps populated.
	AddItems(ctx context.Context, items ...*core.CatalogItem) ([]*core.CatalogItem, error)

	// GetItem retrieves a single catalog item by SKU.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, sku string) (*core.CatalogItem, error)

	// GetItems retrieves multiple catalog items by SKU.
	// Returns only the items that exist (no error for missing items).
	GetItems(ctx context.Context, skus ...string) ([]*core.CatalogItem, error)

	// ItemsNeedingEmbedding returns the items the ingestion pipeline should
	// process. With overwrite set every item is returned, otherwise only
	// items without an embedding.
	ItemsNeedingEmbedding(ctx context.Context, overwrite bool) ([]*core.CatalogItem, error)

	// ForEachEmbedded calls fn for every item carrying an embedding, in SKU
	// order. Records that cannot be decoded are passed with a nil item and the
	// decode error so the caller can skip them. Iteration stops at the first
	// error returned by fn.
	ForEachEmbedded(ctx context.Context, fn func(sku string, item *core.CatalogItem, err error) error) error

	// OpenWriter returns an independent handle for writing embeddings.
	// Each ingestion batch uses its own writer.
	OpenWriter(ctx context.Context) (EmbeddingWriter, error)

	// Close releases repository resources.
	Close() error
}

// EmbeddingWriter persists embeddings for existing catalog items.
type EmbeddingWriter interface {
	// WriteEmbedding replaces the embedding of the item with the given SKU.
	// Returns ErrNotFound if the item doesn't exist and ErrStorageBusy when a
	// concurrent writer holds the record; the latter is safe to retry.
	WriteEmbedding(ctx context.Context, sku string, vector []float32) error

	// Close releases the writer. Writes after Close fail with ErrStorageClosed.
	Close() error
}

// HistoryRepository provides operations for requirement to SKU frequencies.
type HistoryRepository interface {
	// FrequenciesFor returns sku -> frequency for the exact requirement string.
	// Returns an empty map when nothing matches.
	FrequenciesFor(ctx context.Context, requirement string) (map[string]int, error)

	// AddMappings stores mappings, replacing any existing frequency for the
	// same (requirement, sku) pair.
	AddMappings(ctx context.Context, mappings ...*core.HistoricalMapping) error

	// RecordSelection increments the frequency of (requirement, sku) by one,
	// creating the mapping if needed. Returns the new frequency.
	RecordSelection(ctx context.Context, requirement, sku string) (int, error)

	// RebuildFromQuotes discards all mappings and recomputes them from the
	// quote history, counting trimmed (requirement, sku) pairs.
	// Returns the number of distinct mappings written.
	RebuildFromQuotes(ctx context.Context, quotes QuoteRepository) (int, error)

	// Close releases repository resources.
	Close() error
}

// QuoteRepository provides operations for historical quotes.
type QuoteRepository interface {
	// AddQuotes stores quotes, assigning IDs from a sequence.
	// IDs increase with insertion order.
	AddQuotes(ctx context.Context, quotes ...*core.Quote) ([]*core.Quote, error)

	// RecentQuotes returns up to limit quotes per SKU, most recent first.
	// SKUs with no quotes are absent from the result.
	RecentQuotes(ctx context.Context, skus []string, limit int) (map[string][]*core.Quote, error)

	// ForEachQuote calls fn for every stored quote.
	ForEachQuote(ctx context.Context, fn func(quote *core.Quote) error) error

	// Close releases repository resources.
	Close() error
}
