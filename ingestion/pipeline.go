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


package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/skumatch/ai"
	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/storage"
	"github.com/poiesic/skumatch/vectorstore"
)

// DefaultBatchSize is the number of catalog items embedded per batch.
const DefaultBatchSize = 100

// SnapshotNotifier is told when a rebuilt snapshot has been published.
type SnapshotNotifier interface {
	SnapshotReady(ctx context.Context, event core.SnapshotEvent) error
}

// RunSummary reports the outcome of one ingestion run.
// Succeeded + Failed always equals Attempted.
type RunSummary struct {
	Total        int
	Attempted    int
	Succeeded    int
	Failed       int
	NotAttempted int
	Batches      int
	Duration     time.Duration

	// Generation of the snapshot published after the run, zero if none.
	Generation uint64
}

// Pipeline embeds catalog items and writes the vectors back to the catalog.
// Batches run concurrently on a fixed-size worker pool, each with its own
// embedding writer.
type Pipeline struct {
	catalog   storage.CatalogRepository
	client    *ai.Client
	pool      *ants.Pool
	batchSize int
	retry     RetryPolicy
	store     *vectorstore.Store
	cachePath string
	notifier  SnapshotNotifier
	progress  io.Writer
	interval  int
	logger    *slog.Logger

	state   atomic.Int32
	running atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many items are embedded per batch.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size must be positive", ErrInvalidOption)
		}
		p.batchSize = size
		return nil
	}
}

// WithRetryPolicy sets the policy applied to every embedding write.
// Default is DefaultRetryPolicy().
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Pipeline) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.retry = policy
		return nil
	}
}

// WithVectorStore rebuilds and publishes a snapshot into store after every
// completed run.
func WithVectorStore(store *vectorstore.Store) Option {
	return func(p *Pipeline) error {
		p.store = store
		return nil
	}
}

// WithCachePath writes every rebuilt snapshot to a cache file at path.
func WithCachePath(path string) Option {
	return func(p *Pipeline) error {
		p.cachePath = path
		return nil
	}
}

// WithNotifier announces every published snapshot through notifier.
func WithNotifier(notifier SnapshotNotifier) Option {
	return func(p *Pipeline) error {
		p.notifier = notifier
		return nil
	}
}

// WithProgress reports progress to writer every interval items.
func WithProgress(writer io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		p.progress = writer
		p.interval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(catalog storage.CatalogRepository, client *ai.Client, opts ...Option) (*Pipeline, error) {
	if catalog == nil {
		return nil, ErrCatalogRepositoryRequired
	}
	if client == nil {
		return nil, ErrEmbeddingClientRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		catalog:   catalog,
		client:    client,
		pool:      pool,
		batchSize: DefaultBatchSize,
		retry:     DefaultRetryPolicy(),
		interval:  DefaultBatchSize,
		logger:    slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// State returns the phase of the current or most recent run.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
	p.logger.Debug("ingestion state", "state", s)
}

// Run embeds every catalog item needing a vector, or every item when
// overwrite is set. Per-item failures are counted in the summary and never
// fail the run. Cancelling ctx stops dispatching new batches; batches already
// running complete and the summary is returned together with ctx.Err().
// When a vector store is configured a completed run is followed by Rebuild.
func (p *Pipeline) Run(ctx context.Context, overwrite bool) (*RunSummary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)

	start := time.Now()
	summary := &RunSummary{}

	p.setState(StateFetching)
	items, err := p.catalog.ItemsNeedingEmbedding(ctx, overwrite)
	if err != nil {
		p.setState(StateFailed)
		return nil, fmt.Errorf("failed to fetch catalog items: %w", err)
	}
	summary.Total = len(items)

	p.setState(StateBatching)
	batches := partition(items, p.batchSize)
	p.logger.Info("starting ingestion run", "items", len(items), "batches", len(batches), "overwrite", overwrite)

	tracker := NewProgressTracker(p.progress, len(items), p.interval)
	tracker.Start()

	p.setState(StateParallelProcessing)
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		failed    atomic.Int64
		attempted int
	)
	// Batches keep running after ctx is cancelled.
	batchCtx := context.WithoutCancel(ctx)

	var runErr error
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			runErr = err
			p.logger.Warn("ingestion cancelled", "dispatched", i, "batches", len(batches))
			break
		}

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			result := p.processBatch(batchCtx, batch)
			succeeded.Add(int64(result.succeeded))
			failed.Add(int64(result.failed))
			tracker.Add(result.succeeded, result.failed)
		})
		if submitErr != nil {
			wg.Done()
			if i == 0 {
				p.setState(StateFailed)
				return nil, fmt.Errorf("failed to dispatch batch: %w", submitErr)
			}
			// Dispatched batches still count; this one fails as a whole.
			p.logger.Error("failed to dispatch batch", "batch", i, "err", submitErr)
			failed.Add(int64(len(batch)))
			tracker.Add(0, len(batch))
		}
		attempted += len(batch)
		summary.Batches++
	}
	wg.Wait()

	p.setState(StateAggregating)
	tracker.Finish()
	summary.Attempted = attempted
	summary.Succeeded = int(succeeded.Load())
	summary.Failed = int(failed.Load())
	summary.NotAttempted = summary.Total - summary.Attempted

	if runErr == nil && p.store != nil {
		snap, err := p.Rebuild(ctx)
		if err != nil {
			// The vectors are persisted; the next rebuild picks them up.
			p.logger.Error("snapshot rebuild failed", "err", err)
		} else {
			summary.Generation = snap.Generation()
		}
	}

	summary.Duration = time.Since(start)
	p.setState(StateDone)
	p.logger.Info("ingestion run complete",
		"total", summary.Total,
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"not_attempted", summary.NotAttempted,
		"duration", summary.Duration.Round(time.Millisecond))

	return summary, runErr
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func partition(items []*core.CatalogItem, size int) [][]*core.CatalogItem {
	batches := make([][]*core.CatalogItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
