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


package ai

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Client is the embedding service client used by the ingestion pipeline and
// the query path. It bounds every request with a timeout, paces requests with
// a token bucket and validates the width of every returned vector.
type Client struct {
	embedder  Embedder
	dimension int
	batchSize int
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewClient creates a Client over embedder using config.
func NewClient(embedder Embedder, config *Config) (*Client, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		embedder:  embedder,
		dimension: config.Dimension,
		batchSize: config.BatchSize,
		timeout:   config.Timeout,
		limiter:   limiter,
		logger:    slog.Default().With("component", "embedding-client"),
	}, nil
}

// Dimension returns the expected embedding width.
func (c *Client) Dimension() int {
	return c.dimension
}

// BatchSize returns the maximum number of texts per request.
func (c *Client) BatchSize() int {
	return c.batchSize
}

// Embed returns the embedding of a single text.
// Every failure wraps ErrEmbeddingService.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vector, err := c.embedder.EmbedText(callCtx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}
	if err := c.checkVector(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// EmbedBatch embeds texts in chunks of at most batchSize, sending exactly one
// request per chunk. The result is aligned with texts; a nil entry means that
// text's chunk failed. A failed chunk never aborts later chunks and is not
// retried. A batchSize of zero, or one above the configured maximum, uses the
// configured maximum.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, batchSize int) [][]float32 {
	results := make([][]float32, len(texts))
	if len(texts) == 0 {
		return results
	}
	if batchSize <= 0 || batchSize > c.batchSize {
		batchSize = c.batchSize
	}

	chunks := (len(texts) + batchSize - 1) / batchSize
	c.logger.Debug("embedding batch", "texts", len(texts), "batch_size", batchSize, "requests", chunks)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		vectors, err := c.embedChunk(ctx, texts[start:end])
		if err != nil {
			c.logger.Warn("embedding chunk failed",
				"chunk", start/batchSize+1,
				"of", chunks,
				"size", end-start,
				"err", err)
			continue
		}
		copy(results[start:end], vectors)
	}

	return results
}

// embedChunk sends one request and returns vectors in input order, or an
// error if any part of the response is unusable.
func (c *Client) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var vectors [][]float32
	if indexed, ok := c.embedder.(IndexedEmbedder); ok {
		pairs, err := indexed.EmbedTextsIndexed(callCtx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
		}
		if vectors, err = reorder(pairs, len(texts)); err != nil {
			return nil, err
		}
	} else {
		var err error
		vectors, err = c.embedder.EmbedTexts(callCtx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbeddingService, len(vectors), len(texts))
		}
	}

	for _, vector := range vectors {
		if err := c.checkVector(vector); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

// reorder places indexed vectors at their input positions. Every position
// must be filled exactly once.
func reorder(pairs []IndexedVector, n int) ([][]float32, error) {
	if len(pairs) != n {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbeddingService, len(pairs), n)
	}
	vectors := make([][]float32, n)
	for _, pair := range pairs {
		if pair.Index < 0 || pair.Index >= n {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingService, pair.Index)
		}
		if vectors[pair.Index] != nil {
			return nil, fmt.Errorf("%w: duplicate embedding index %d", ErrEmbeddingService, pair.Index)
		}
		vectors[pair.Index] = pair.Vector
	}
	return vectors, nil
}

func (c *Client) checkVector(vector []float32) error {
	if len(vector) != c.dimension {
		return fmt.Errorf("%w: %w: got %d, want %d", ErrEmbeddingService, ErrDimensionMismatch, len(vector), c.dimension)
	}
	for _, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite embedding value", ErrEmbeddingService)
		}
	}
	return nil
}
