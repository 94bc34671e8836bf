package ai_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/skumatch/ai"
	"github.com/poiesic/skumatch/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 4

func newTestClient(t *testing.T, embedder ai.Embedder, opts ...ai.ConfigOption) *ai.Client {
	t.Helper()
	opts = append([]ai.ConfigOption{ai.WithDimension(testDim), ai.WithBatchSize(2)}, opts...)
	client, err := ai.NewClient(embedder, ai.NewConfig(opts...))
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresEmbedder(t *testing.T) {
	_, err := ai.NewClient(nil, ai.DefaultConfig())
	assert.ErrorIs(t, err, ai.ErrEmbedderRequired)
}

func TestEmbed(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	client := newTestClient(t, embedder)

	vector, err := client.Embed(context.Background(), "Test Tube 10ml")
	require.NoError(t, err)
	assert.Equal(t, mock.GenerateDeterministicVector("Test Tube 10ml", testDim), vector)
}

func TestEmbed_Failures(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, text string) ([]float32, error)
	}{
		{
			name: "service error",
			fn: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("503 service unavailable")
			},
		},
		{
			name: "wrong dimension",
			fn: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{1, 0}, nil
			},
		},
		{
			name: "timeout",
			fn: func(ctx context.Context, text string) ([]float32, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := mock.NewMockEmbedderWithDimension(testDim)
			embedder.EmbedTextFunc = tt.fn
			client := newTestClient(t, embedder, ai.WithTimeout(20*time.Millisecond))

			_, err := client.Embed(context.Background(), "Beaker")
			assert.ErrorIs(t, err, ai.ErrEmbeddingService)
		})
	}
}

func TestEmbedBatch_OneRequestPerChunk(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	client := newTestClient(t, embedder)

	texts := []string{"a", "b", "c", "d", "e"}
	vectors := client.EmbedBatch(context.Background(), texts, 2)

	require.Len(t, vectors, 5)
	for i, text := range texts {
		assert.Equal(t, mock.GenerateDeterministicVector(text, testDim), vectors[i], "text %q", text)
	}
	assert.Equal(t, 3, embedder.CallCount())
}

func TestEmbedBatch_ClampsToConfiguredBatchSize(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	client := newTestClient(t, embedder)

	client.EmbedBatch(context.Background(), []string{"a", "b", "c", "d"}, 50)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestEmbedBatch_FailedChunkIsolated(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	var calls atomic.Int32
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("rate limited")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.GenerateDeterministicVector(text, testDim)
		}
		return out, nil
	}
	client := newTestClient(t, embedder)

	vectors := client.EmbedBatch(context.Background(), []string{"a", "b", "c"}, 2)

	require.Len(t, vectors, 3)
	assert.Nil(t, vectors[0])
	assert.Nil(t, vectors[1])
	assert.NotNil(t, vectors[2])
	assert.Equal(t, 2, embedder.CallCount())
}

func TestEmbedBatch_BadResponsesFailChunk(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, texts []string) ([][]float32, error)
	}{
		{
			name: "count mismatch",
			fn: func(ctx context.Context, texts []string) ([][]float32, error) {
				return [][]float32{{1, 0, 0, 0}}, nil
			},
		},
		{
			name: "wrong dimension",
			fn: func(ctx context.Context, texts []string) ([][]float32, error) {
				return [][]float32{{1, 0, 0, 0}, {1, 0}}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := mock.NewMockEmbedderWithDimension(testDim)
			embedder.EmbedTextsFunc = tt.fn
			client := newTestClient(t, embedder)

			vectors := client.EmbedBatch(context.Background(), []string{"a", "b"}, 2)
			assert.Equal(t, [][]float32{nil, nil}, vectors)
		})
	}
}

func TestEmbedBatch_ReordersIndexedResults(t *testing.T) {
	embedder := mock.NewShuffledEmbedder(testDim)
	client := newTestClient(t, embedder, ai.WithBatchSize(10))

	texts := []string{"Test Tube 10ml", "Beaker 250ml", "Pipette"}
	vectors := client.EmbedBatch(context.Background(), texts, 0)

	for i, text := range texts {
		assert.Equal(t, mock.GenerateDeterministicVector(text, testDim), vectors[i])
	}
}

func TestEmbedBatch_BadIndexFailsChunk(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(pairs []ai.IndexedVector) []ai.IndexedVector
	}{
		{
			name: "out of range",
			mutate: func(pairs []ai.IndexedVector) []ai.IndexedVector {
				pairs[0].Index = len(pairs)
				return pairs
			},
		},
		{
			name: "duplicate",
			mutate: func(pairs []ai.IndexedVector) []ai.IndexedVector {
				pairs[0].Index = pairs[1].Index
				return pairs
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := mock.NewShuffledEmbedder(testDim)
			embedder.Mutate = tt.mutate
			client := newTestClient(t, embedder)

			vectors := client.EmbedBatch(context.Background(), []string{"a", "b"}, 2)
			assert.Equal(t, [][]float32{nil, nil}, vectors)
		})
	}
}

func TestEmbedBatch_CancelledContextSendsNothing(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	client := newTestClient(t, embedder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vectors := client.EmbedBatch(ctx, []string{"a", "b", "c"}, 2)
	assert.Equal(t, [][]float32{nil, nil, nil}, vectors)
	assert.Zero(t, embedder.CallCount())
}

func TestEmbedBatch_Paced(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	client := newTestClient(t, embedder, ai.WithBatchSize(1), ai.WithRequestsPerSecond(20))

	start := time.Now()
	client.EmbedBatch(context.Background(), strings.Split("abcd", ""), 1)

	// Burst of one: three waits of 50ms after the first request
	assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
	assert.Equal(t, 4, embedder.CallCount())
}
