package badger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/storage"
)

// HistoryRepository implements storage.HistoryRepository for BadgerDB.
// Mappings are keyed by a hash of the requirement; the stored value keeps the
// full requirement so hash collisions are filtered out on read.
type HistoryRepository struct {
	backend *Backend
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(backend *Backend) (*HistoryRepository, error) {
	return &HistoryRepository{
		backend: backend,
	}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *HistoryRepository) Close() error {
	return nil
}

// FrequenciesFor returns sku -> frequency for the exact requirement string.
func (r *HistoryRepository) FrequenciesFor(ctx context.Context, requirement string) (map[string]int, error) {
	result := make(map[string]int)
	if requirement == "" {
		return result, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(ctx, tx, makeHistoryPrefix(requirement), func(suffix []byte, item *badger.Item) error {
			var mapping *core.HistoricalMapping
			err := item.Value(func(val []byte) error {
				var err error
				mapping, err = storage.UnmarshalMapping(val)
				return err
			})
			if err != nil {
				return err
			}
			if mapping.Requirement != requirement {
				return nil
			}
			result[mapping.SKU] = mapping.Frequency
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddMappings stores mappings, replacing existing frequencies.
func (r *HistoryRepository) AddMappings(ctx context.Context, mappings ...*core.HistoricalMapping) error {
	keys := make([][]byte, 0, len(mappings))
	values := make([][]byte, 0, len(mappings))
	now := time.Now().UTC()

	for _, mapping := range mappings {
		if err := core.ValidateMapping(mapping); err != nil {
			return err
		}
		mapping.UpdatedAt = now
		keys = append(keys, makeHistoryKey(mapping.Requirement, mapping.SKU))
		values = append(values, storage.MarshalMapping(mapping))
	}

	return r.backend.WriteAll(ctx, keys, values)
}

// RecordSelection increments the frequency of (requirement, sku).
func (r *HistoryRepository) RecordSelection(ctx context.Context, requirement, sku string) (int, error) {
	mapping := &core.HistoricalMapping{Requirement: requirement, SKU: sku, Frequency: 1}
	if err := core.ValidateMapping(mapping); err != nil {
		return 0, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeHistoryKey(requirement, sku)
		existing, err := readMapping(tx, key)
		if err != nil {
			return err
		}
		if existing != nil && existing.Requirement == requirement {
			mapping.Frequency = existing.Frequency + 1
		}
		mapping.UpdatedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalMapping(mapping)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
	if err != nil {
		return 0, err
	}
	return mapping.Frequency, nil
}

// RebuildFromQuotes recomputes all mappings from the quote history.
// Requirements and SKUs are trimmed; pairs with either side blank are ignored.
func (r *HistoryRepository) RebuildFromQuotes(ctx context.Context, quotes storage.QuoteRepository) (int, error) {
	counts := make(map[string]map[string]int)
	err := quotes.ForEachQuote(ctx, func(quote *core.Quote) error {
		requirement := strings.TrimSpace(quote.Requirement)
		sku := strings.TrimSpace(quote.SKU)
		if requirement == "" || sku == "" {
			return nil
		}
		bySKU, ok := counts[requirement]
		if !ok {
			bySKU = make(map[string]int)
			counts[requirement] = bySKU
		}
		bySKU[sku]++
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := r.backend.DropPrefix([]byte(historyPrefix)); err != nil {
		return 0, err
	}

	var mappings []*core.HistoricalMapping
	for requirement, bySKU := range counts {
		for sku, frequency := range bySKU {
			mappings = append(mappings, &core.HistoricalMapping{
				Requirement: requirement,
				SKU:         sku,
				Frequency:   frequency,
			})
		}
	}
	if err := r.AddMappings(ctx, mappings...); err != nil {
		return 0, err
	}

	r.backend.logger.Info("rebuilt history mappings", "requirements", len(counts), "mappings", len(mappings))
	return len(mappings), nil
}

// readMapping reads a mapping from tx. Returns nil, nil if the key is absent.
func readMapping(tx *badger.Txn, key []byte) (*core.HistoricalMapping, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var result *core.HistoricalMapping
	err = item.Value(func(val []byte) error {
		var err error
		result, err = storage.UnmarshalMapping(val)
		return err
	})
	return result, err
}
