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


// Package skumatch wires the SKU suggestion engine together: persistent
// catalog, history and quote repositories, the embedding client, the vector
// snapshot store, the query-path searcher and the ingestion pipeline.
package skumatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/poiesic/skumatch/ai"
	"github.com/poiesic/skumatch/ai/openai"
	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/ingestion"
	"github.com/poiesic/skumatch/notify"
	"github.com/poiesic/skumatch/search"
	"github.com/poiesic/skumatch/storage"
	"github.com/poiesic/skumatch/storage/badger"
	"github.com/poiesic/skumatch/vectorstore"
)

// Engine owns the storage, embedding and snapshot resources of one process.
type Engine struct {
	repos    *badger.Repositories
	provider ai.AIProvider
	client   *ai.Client
	store    *vectorstore.Store
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of an OpenAI-compatible provider built
// from the AI configuration. The engine closes it on Close.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory; the path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the database at path and prepares the embedding client.
// The vector store starts empty; call LoadSnapshot to serve vector results.
func NewEngine(path string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Provider first: a bad configuration must not leave a database open
	provider := options.provider
	if provider == nil {
		var err error
		if provider, err = openai.NewProvider(options.aiConfig); err != nil {
			return nil, err
		}
	}

	client, err := ai.NewClient(provider.Embedder(), options.aiConfig)
	if err != nil {
		provider.Close()
		return nil, err
	}

	repos, err := badger.OpenRepositories(path, options.inMemory)
	if err != nil {
		provider.Close()
		return nil, err
	}

	return &Engine{
		repos:    repos,
		provider: provider,
		client:   client,
		store:    vectorstore.NewStore(),
		logger:   options.logger.With("component", "engine"),
	}, nil
}

// Close releases the provider and the database.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.repos.Close(); err != nil {
		e.logger.Error("error closing repositories", "err", err)
		return err
	}
	return nil
}

func (e *Engine) CatalogRepository() storage.CatalogRepository {
	return e.repos.Catalog
}

func (e *Engine) HistoryRepository() storage.HistoryRepository {
	return e.repos.History
}

func (e *Engine) QuoteRepository() storage.QuoteRepository {
	return e.repos.Quotes
}

func (e *Engine) Store() *vectorstore.Store {
	return e.store
}

func (e *Engine) Client() *ai.Client {
	return e.client
}

func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(e.repos.Catalog, e.repos.History, e.repos.Quotes, e.client, e.store, opts...)
}

// NewIngestionPipeline creates a pipeline that publishes its rebuilt
// snapshots into this engine's store.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithVectorStore(e.store)}, opts...)
	return ingestion.NewPipeline(e.repos.Catalog, e.client, opts...)
}

// LoadSnapshot builds a snapshot and publishes it to the store. The cache
// file at cachePath is preferred; when it is absent or cachePath is empty the
// snapshot is built from the catalog. Returns the published generation.
func (e *Engine) LoadSnapshot(ctx context.Context, cachePath string) (uint64, error) {
	dimension := e.client.Dimension()

	var (
		snap *vectorstore.Snapshot
		err  error
	)
	if cachePath != "" {
		snap, err = vectorstore.Load(ctx, vectorstore.NewCacheSource(cachePath), dimension, e.logger)
		if err != nil && !errors.Is(err, vectorstore.ErrSourceNotFound) {
			return 0, err
		}
		if err != nil {
			e.logger.Info("snapshot cache not found, loading from catalog", "path", cachePath)
		}
	}
	if snap == nil {
		snap, err = vectorstore.Load(ctx, vectorstore.NewCatalogSource(e.repos.Catalog), dimension, e.logger)
		if err != nil {
			return 0, err
		}
	}
	return e.store.Reload(snap)
}

// WatchSnapshots reloads the store whenever a snapshot event arrives on
// subject. Failed reloads keep the current snapshot serving.
func (e *Engine) WatchSnapshots(conn *nats.Conn, subject, cachePath string) (*nats.Subscription, error) {
	sub, err := notify.Subscribe(conn, subject, func(event core.SnapshotEvent) {
		generation, err := e.LoadSnapshot(context.Background(), cachePath)
		if err != nil {
			e.logger.Error("failed to reload announced snapshot", "announced_generation", event.Generation, "err", err)
			return
		}
		e.logger.Info("reloaded announced snapshot", "announced_generation", event.Generation, "generation", generation)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch snapshots: %w", err)
	}
	return sub, nil
}
