package openai

import (
	"testing"

	"github.com/poiesic/skumatch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_HostedRequiresAPIKey(t *testing.T) {
	_, err := NewProvider(ai.DefaultConfig())
	assert.ErrorIs(t, err, ai.ErrMissingAPIKey)
}

func TestNewProvider_LocalHostWithoutKey(t *testing.T) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost("http://localhost:11434"),
		ai.WithEmbeddingModel("nomic-embed-text"),
		ai.WithDimension(768),
	)

	provider, err := NewProvider(config)
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Embedder())
	assert.Equal(t, "http://localhost:11434/v1", config.EmbeddingHost)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithEmbeddingModel("")))
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}
