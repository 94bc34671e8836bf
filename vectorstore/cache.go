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
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/storage"
	"go.etcd.io/bbolt"
)

var (
	bucketMeta    = []byte("meta")
	bucketVectors = []byte("vectors")
	keyDimension  = []byte("dimension")
	keyBuiltAt    = []byte("built_at")
)

// WriteCache persists snap to a bbolt file at path so a query process can
// start without scanning the catalog. The file is written beside path and
// renamed into place, so readers never observe a partial cache.
func WriteCache(path string, snap *Snapshot) error {
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	db, err := bbolt.Open(tmp, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keyDimension, binary.BigEndian.AppendUint64(nil, uint64(snap.dimension))); err != nil {
			return err
		}
		if err := meta.Put(keyBuiltAt, binary.BigEndian.AppendUint64(nil, uint64(snap.builtAt.UnixMicro()))); err != nil {
			return err
		}

		vectors, err := tx.CreateBucketIfNotExists(bucketVectors)
		if err != nil {
			return err
		}
		for row, sku := range snap.skus {
			item := &core.CatalogItem{
				SKU:       sku,
				Name:      snap.names[row],
				Embedding: snap.Vector(row),
			}
			if err := vectors.Put([]byte(sku), storage.MarshalCatalogItem(item)); err != nil {
				return err
			}
		}
		return nil
	})
	if closeErr := db.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write cache: %w", err)
	}

	return os.Rename(tmp, path)
}

// cacheSource reads a snapshot cache file written by WriteCache.
type cacheSource struct {
	path string
}

// NewCacheSource returns a Source reading the cache file at path.
// A missing file is reported by Load as a LoadError wrapping ErrSourceNotFound.
func NewCacheSource(path string) Source {
	return &cacheSource{path: path}
}

func (s *cacheSource) Name() string { return s.path }

func (s *cacheSource) Each(ctx context.Context, fn func(Record) error) error {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrSourceNotFound
		}
		return err
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer db.Close()

	return db.View(func(tx *bbolt.Tx) error {
		vectors := tx.Bucket(bucketVectors)
		if vectors == nil {
			return fmt.Errorf("%w: cache has no %s bucket", ErrSourceNotFound, bucketVectors)
		}
		return vectors.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := storage.UnmarshalCatalogItem(v)
			if err != nil {
				return fn(Record{SKU: string(k), Err: err})
			}
			return fn(Record{SKU: item.SKU, Name: item.Name, Embedding: item.Embedding})
		})
	})
}
