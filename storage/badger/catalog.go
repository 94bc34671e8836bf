package badger

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/storage"
)

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
type CatalogRepository struct {
	backend *Backend
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend) (*CatalogRepository, error) {
	return &CatalogRepository{
		backend: backend,
	}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *CatalogRepository) Close() error {
	return nil
}

// AddItems inserts or replaces catalog items keyed by SKU.
func (r *CatalogRepository) AddItems(ctx context.Context, items ...*core.CatalogItem) ([]*core.CatalogItem, error) {
	keys := make([][]byte, 0, len(items))
	values := make([][]byte, 0, len(items))
	now := time.Now().UTC()

	for _, item := range items {
		if err := core.ValidateCatalogItem(item); err != nil {
			return nil, err
		}
		item.UpdatedAt = now
		keys = append(keys, makeCatalogItemKey(item.SKU))
		values = append(values, storage.MarshalCatalogItem(item))
	}

	if err := r.backend.WriteAll(ctx, keys, values); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem retrieves a single catalog item by SKU.
func (r *CatalogRepository) GetItem(ctx context.Context, sku string) (*core.CatalogItem, error) {
	var result *core.CatalogItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCatalogItem(tx, makeCatalogItemKey(sku))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetItems retrieves multiple catalog items by SKU, in request order.
func (r *CatalogRepository) GetItems(ctx context.Context, skus ...string) ([]*core.CatalogItem, error) {
	var result []*core.CatalogItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, sku := range skus {
			item, err := readCatalogItem(tx, makeCatalogItemKey(sku))
			if err != nil {
				return err
			}
			if item != nil {
				result = append(result, item)
			}
		}
		return nil
	}, false)
	return result, err
}

// ItemsNeedingEmbedding returns every item when overwrite is set, otherwise
// only items without an embedding. Undecodable records are skipped.
func (r *CatalogRepository) ItemsNeedingEmbedding(ctx context.Context, overwrite bool) ([]*core.CatalogItem, error) {
	var result []*core.CatalogItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(ctx, tx, []byte(catalogItemPrefix), func(suffix []byte, item *badger.Item) error {
			var catalogItem *core.CatalogItem
			err := item.Value(func(val []byte) error {
				var err error
				catalogItem, err = storage.UnmarshalCatalogItem(val)
				return err
			})
			if err != nil {
				r.backend.logger.Warn("skipping undecodable catalog item", "sku", string(suffix), "err", err)
				return nil
			}
			if overwrite || !catalogItem.HasEmbedding() {
				result = append(result, catalogItem)
			}
			return nil
		})
	}, false)
	return result, err
}

// ForEachEmbedded calls fn for every item carrying an embedding, in SKU order.
func (r *CatalogRepository) ForEachEmbedded(ctx context.Context, fn func(sku string, item *core.CatalogItem, err error) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(ctx, tx, []byte(catalogItemPrefix), func(suffix []byte, item *badger.Item) error {
			sku := string(suffix)
			var catalogItem *core.CatalogItem
			err := item.Value(func(val []byte) error {
				var err error
				catalogItem, err = storage.UnmarshalCatalogItem(val)
				return err
			})
			if err != nil {
				return fn(sku, nil, err)
			}
			if !catalogItem.HasEmbedding() {
				return nil
			}
			return fn(sku, catalogItem, nil)
		})
	}, false)
}

// OpenWriter returns an independent embedding writer.
func (r *CatalogRepository) OpenWriter(ctx context.Context) (storage.EmbeddingWriter, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &embeddingWriter{backend: r.backend}, nil
}

// embeddingWriter writes one embedding per transaction. Writers share the
// database but never a transaction, so concurrent batches only collide on
// the same record.
type embeddingWriter struct {
	backend *Backend
	closed  atomic.Bool
}

func (w *embeddingWriter) WriteEmbedding(ctx context.Context, sku string, vector []float32) error {
	if w.closed.Load() {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return w.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCatalogItemKey(sku)
		item, err := readCatalogItem(tx, key)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		item.Embedding = vector
		item.UpdatedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalCatalogItem(item)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

func (w *embeddingWriter) Close() error {
	w.closed.Store(true)
	return nil
}

// readCatalogItem reads an item from tx. Returns nil, nil if the key is absent.
func readCatalogItem(tx *badger.Txn, key []byte) (*core.CatalogItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var result *core.CatalogItem
	err = item.Value(func(val []byte) error {
		var err error
		result, err = storage.UnmarshalCatalogItem(val)
		return err
	})
	return result, err
}
