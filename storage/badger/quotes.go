package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/storage"
)

// QuoteRepository implements storage.QuoteRepository for BadgerDB.
type QuoteRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.QuoteRepository = (*QuoteRepository)(nil)

// NewQuoteRepository creates a new QuoteRepository.
func NewQuoteRepository(backend *Backend) (*QuoteRepository, error) {
	idSeq, err := backend.GetSequence(quoteIDSeq)
	if err != nil {
		return nil, err
	}

	return &QuoteRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *QuoteRepository) Close() error {
	return r.idSeq.Release()
}

// AddQuotes stores quotes with sequence-generated IDs.
func (r *QuoteRepository) AddQuotes(ctx context.Context, quotes ...*core.Quote) ([]*core.Quote, error) {
	keys := make([][]byte, 0, len(quotes))
	values := make([][]byte, 0, len(quotes))

	for _, quote := range quotes {
		if err := core.ValidateQuote(quote); err != nil {
			return nil, err
		}
		nextID, err := r.idSeq.Next()
		if err != nil {
			return nil, err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			if nextID, err = r.idSeq.Next(); err != nil {
				return nil, err
			}
		}
		quote.ID = core.ID(nextID)
		keys = append(keys, makeQuoteKey(quote.SKU, quote.ID))
		values = append(values, storage.MarshalQuote(quote))
	}

	if err := r.backend.WriteAll(ctx, keys, values); err != nil {
		return nil, err
	}
	return quotes, nil
}

// RecentQuotes returns up to limit quotes per SKU, newest first.
func (r *QuoteRepository) RecentQuotes(ctx context.Context, skus []string, limit int) (map[string][]*core.Quote, error) {
	result := make(map[string][]*core.Quote)
	if limit <= 0 || len(skus) == 0 {
		return result, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, sku := range skus {
			if _, seen := result[sku]; seen {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			quotes, err := r.recentForSKU(tx, sku, limit)
			if err != nil {
				return err
			}
			if len(quotes) > 0 {
				result[sku] = quotes
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *QuoteRepository) recentForSKU(tx *badger.Txn, sku string, limit int) ([]*core.Quote, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = makeQuoteSKUPrefix(sku)
	opts.PrefetchSize = limit
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var quotes []*core.Quote
	for iter.Seek(makeQuoteSeekKey(sku)); iter.Valid() && len(quotes) < limit; iter.Next() {
		var quote *core.Quote
		err := iter.Item().Value(func(val []byte) error {
			var err error
			quote, err = storage.UnmarshalQuote(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// ForEachQuote calls fn for every stored quote, grouped by SKU.
func (r *QuoteRepository) ForEachQuote(ctx context.Context, fn func(quote *core.Quote) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(ctx, tx, []byte(quotePrefix), func(suffix []byte, item *badger.Item) error {
			var quote *core.Quote
			err := item.Value(func(val []byte) error {
				var err error
				quote, err = storage.UnmarshalQuote(val)
				return err
			})
			if err != nil {
				if errors.Is(err, storage.ErrSerializationFailed) {
					r.backend.logger.Warn("skipping undecodable quote", "key", string(suffix), "err", err)
					return nil
				}
				return err
			}
			return fn(quote)
		})
	}, false)
}
