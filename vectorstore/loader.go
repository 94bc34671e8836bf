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
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/storage"
)

// Record is one persisted (sku, name, embedding) entry delivered by a Source.
// Err is set when the entry exists but could not be decoded.
type Record struct {
	SKU       string
	Name      string
	Embedding []float32
	Err       error
}

// Source delivers the persisted records a snapshot is built from.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string

	// Each calls fn for every record. An error from Each itself means the
	// source is absent or unreadable.
	Each(ctx context.Context, fn func(Record) error) error
}

// Load builds a snapshot from src. Records with an empty or duplicate SKU,
// a decode error, the wrong dimension or non-finite values are skipped with a
// warning; the first record for a SKU wins. Embeddings are stored normalized.
//
// Returns a *LoadError if the source cannot be read and ErrEmptyIndex if no
// record survives validation.
func Load(ctx context.Context, src Source, dimension int, logger *slog.Logger) (*Snapshot, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "vector-loader", "source", src.Name())

	snap := &Snapshot{
		index:     make(map[string]int),
		dimension: dimension,
	}

	skip := func(sku, reason string, args ...any) {
		snap.skipped++
		logger.Warn("skipping vector record", append([]any{"sku", sku, "reason", reason}, args...)...)
	}

	err := src.Each(ctx, func(r Record) error {
		_, duplicate := snap.index[r.SKU]
		switch {
		case r.Err != nil:
			skip(r.SKU, "decode failed", "err", r.Err)
		case r.SKU == "":
			skip(r.SKU, "empty sku")
		case duplicate:
			skip(r.SKU, "duplicate sku")
		case len(r.Embedding) != dimension:
			skip(r.SKU, "dimension mismatch", "got", len(r.Embedding), "want", dimension)
		case !isFinite(r.Embedding):
			skip(r.SKU, "non-finite values")
		default:
			snap.index[r.SKU] = len(snap.skus)
			snap.skus = append(snap.skus, r.SKU)
			snap.names = append(snap.names, r.Name)
			snap.matrix = append(snap.matrix, NormalizeVector(r.Embedding)...)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Source: src.Name(), Err: err}
	}

	if snap.Len() == 0 {
		logger.Error("no valid vector records", "skipped", snap.skipped)
		return nil, ErrEmptyIndex
	}

	snap.builtAt = time.Now().UTC()
	logger.Info("vector snapshot built", "rows", snap.Len(), "skipped", snap.skipped, "dimension", dimension)
	return snap, nil
}

// RecordsSource is an in-memory Source.
type RecordsSource []Record

func (s RecordsSource) Name() string { return "memory" }

func (s RecordsSource) Each(ctx context.Context, fn func(Record) error) error {
	for _, r := range s {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// catalogSource reads embedded items from a catalog repository.
type catalogSource struct {
	catalog storage.CatalogRepository
}

// NewCatalogSource returns a Source over every embedded catalog item.
func NewCatalogSource(catalog storage.CatalogRepository) Source {
	return &catalogSource{catalog: catalog}
}

func (s *catalogSource) Name() string { return "catalog" }

func (s *catalogSource) Each(ctx context.Context, fn func(Record) error) error {
	return s.catalog.ForEachEmbedded(ctx, func(sku string, item *core.CatalogItem, err error) error {
		if err != nil {
			return fn(Record{SKU: sku, Err: err})
		}
		return fn(Record{SKU: item.SKU, Name: item.Name, Embedding: item.Embedding})
	})
}
