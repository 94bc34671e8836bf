package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultHost, cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.Dimension)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.RequestsPerSecond)
	assert.True(t, cfg.RequiresAPIKey())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://localhost:11434"),
		WithEmbeddingModel("nomic-embed-text"),
		WithAPIKey("secret"),
		WithDimension(768),
		WithBatchSize(16),
		WithTimeout(5*time.Second),
		WithRequestsPerSecond(2.5),
	)

	assert.Equal(t, "http://localhost:11434", cfg.EmbeddingHost)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 768, cfg.Dimension)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.False(t, cfg.RequiresAPIKey())
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trims trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing suffix", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"leaves empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr bool
	}{
		{"defaults", nil, false},
		{"empty host", []ConfigOption{WithEmbeddingHost("")}, true},
		{"empty model", []ConfigOption{WithEmbeddingModel("")}, true},
		{"zero dimension", []ConfigOption{WithDimension(0)}, true},
		{"zero batch size", []ConfigOption{WithBatchSize(0)}, true},
		{"zero timeout", []ConfigOption{WithTimeout(0)}, true},
		{"negative rate", []ConfigOption{WithRequestsPerSecond(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}
