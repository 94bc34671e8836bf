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


package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/poiesic/skumatch"
	"github.com/poiesic/skumatch/config"
	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/ingestion"
	"github.com/poiesic/skumatch/notify"
	"github.com/poiesic/skumatch/ranking"
	"github.com/poiesic/skumatch/search"
	"github.com/poiesic/skumatch/storage/badger"
	"github.com/poiesic/skumatch/vectorstore"
	"github.com/urfave/cli/v2"
)

func openRepositories(cfg *config.Config) (*badger.Repositories, error) {
	repos, err := badger.OpenRepositories(cfg.Database.Path, cfg.Database.InMemory)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repos, nil
}

func openEngine(cfg *config.Config) (*skumatch.Engine, error) {
	if err := cfg.RequireEmbeddings(); err != nil {
		return nil, err
	}
	opts := []skumatch.EngineOption{skumatch.WithAIConfig(cfg.AIConfig())}
	if cfg.Database.InMemory {
		opts = append(opts, skumatch.WithInMemory())
	}
	engine, err := skumatch.NewEngine(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

// openNotifier returns nil when NATS is not configured.
func openNotifier(cfg *config.Config) (*notify.Publisher, error) {
	if cfg.NATS.URL == "" {
		return nil, nil
	}
	return notify.Connect(cfg.NATS.URL, cfg.NATS.Subject)
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one seed file")
	}
	cfg := configFrom(c)

	f, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	seed, err := decodeSeed(f)
	if err != nil {
		return err
	}

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	counts, err := importSeed(c.Context, repos, seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d items, %d mappings, %d quotes\n", counts.Items, counts.Mappings, counts.Quotes)
	return nil
}

func generateVectorsCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("overwrite") {
		cfg.Ingestion.Overwrite = c.Bool("overwrite")
	}
	if c.IsSet("workers") {
		cfg.Ingestion.Workers = c.Int("workers")
	}
	if c.IsSet("batch-size") {
		cfg.Ingestion.BatchSize = c.Int("batch-size")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := []ingestion.Option{
		ingestion.WithPoolSize(cfg.Ingestion.Workers),
		ingestion.WithBatchSize(cfg.Ingestion.BatchSize),
		ingestion.WithRetryPolicy(ingestion.RetryPolicy{
			MaxAttempts: cfg.Ingestion.MaxAttempts,
			BaseDelay:   cfg.Ingestion.RetryBaseDelay,
			MaxDelay:    cfg.Ingestion.RetryMaxDelay,
		}),
		ingestion.WithProgress(c.App.ErrWriter, cfg.Ingestion.ProgressInterval),
		ingestion.WithCachePath(cfg.Cache.Path),
	}
	notifier, err := openNotifier(cfg)
	if err != nil {
		return err
	}
	if notifier != nil {
		defer notifier.Close()
		opts = append(opts, ingestion.WithNotifier(notifier))
	}

	pipeline, err := engine.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	// Ctrl-C stops dispatching new batches
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(c.App.ErrWriter)

	summary, runErr := pipeline.Run(ctx, cfg.Ingestion.Overwrite)
	if summary != nil {
		fmt.Fprintf(c.App.Writer, "total=%d attempted=%d succeeded=%d failed=%d not_attempted=%d batches=%d generation=%d duration=%s\n",
			summary.Total, summary.Attempted, summary.Succeeded, summary.Failed,
			summary.NotAttempted, summary.Batches, summary.Generation, summary.Duration)
	}
	if runErr != nil {
		return fmt.Errorf("vector generation failed: %w", runErr)
	}
	return nil
}

func rebuildCacheCommand(c *cli.Context) error {
	cfg := configFrom(c)
	out := cfg.Cache.Path
	if c.IsSet("out") {
		out = c.String("out")
	}
	if out == "" {
		return fmt.Errorf("%w: cache path is required (set cache.path or --out)", config.ErrConfiguration)
	}

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	snap, err := vectorstore.Load(c.Context, vectorstore.NewCatalogSource(repos.Catalog), cfg.Embedding.Dimension, nil)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	if err := vectorstore.WriteCache(out, snap); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d vectors (%d skipped) to %s\n", snap.Len(), snap.Skipped(), out)

	notifier, err := openNotifier(cfg)
	if err != nil {
		return err
	}
	if notifier != nil {
		defer notifier.Close()
		event := snapshotEvent(snap)
		if err := notifier.SnapshotReady(c.Context, event); err != nil {
			return err
		}
	}
	return nil
}

func rebuildHistoryCommand(c *cli.Context) error {
	repos, err := openRepositories(configFrom(c))
	if err != nil {
		return err
	}
	defer repos.Close()

	mappings, err := repos.History.RebuildFromQuotes(c.Context, repos.Quotes)
	if err != nil {
		return fmt.Errorf("failed to rebuild history: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Rebuilt %d historical mappings\n", mappings)
	return nil
}

func suggestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one requirement is required")
	}
	cfg := configFrom(c)
	if c.IsSet("top-k") {
		cfg.Ranking.TopK = c.Int("top-k")
	}

	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if _, err := engine.LoadSnapshot(c.Context, cfg.Cache.Path); err != nil {
		var loadErr *vectorstore.LoadError
		if !errors.Is(err, vectorstore.ErrEmptyIndex) && !errors.As(err, &loadErr) {
			return err
		}
		// History still answers without vectors
		fmt.Fprintf(c.App.ErrWriter, "warning: vector snapshot unavailable, ranking by history only: %v\n", err)
	}

	searcher, err := engine.NewSearcher(
		search.WithWeights(ranking.Weights{History: cfg.Ranking.HistoryWeight, Vector: cfg.Ranking.VectorWeight}),
		search.WithTopK(cfg.Ranking.TopK),
		search.WithVectorCandidates(cfg.Ranking.VectorCandidates),
		search.WithQuoteLimit(cfg.Ranking.QuoteLimit),
		search.WithQueryTimeout(cfg.Ranking.QueryTimeout),
	)
	if err != nil {
		return err
	}

	monitor := search.NewTimingMonitor()
	results, err := searcher.SuggestWithMonitor(c.Context, c.Args().Slice(), monitor)
	if err != nil {
		return err
	}
	if c.Bool("timing") {
		fmt.Fprintf(c.App.ErrWriter, "X-Suggest-Timing: %s\n", monitor.Header())
	}

	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func snapshotEvent(snap *vectorstore.Snapshot) core.SnapshotEvent {
	return core.SnapshotEvent{
		Generation: snap.Generation(),
		Items:      snap.Len(),
		Dimension:  snap.Dimension(),
		BuiltAt:    snap.BuiltAt(),
	}
}

