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


// Package config loads process configuration for the skumatch commands from
// a YAML file, SKUMATCH_* environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/skumatch/ai"
	"github.com/poiesic/skumatch/notify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SKUMATCH_DATABASE_PATH.
const EnvPrefix = "SKUMATCH"

// ErrConfiguration is wrapped by every configuration failure.
var ErrConfiguration = errors.New("configuration error")

// Config holds all configuration for the skumatch commands.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Cache     CacheConfig     `mapstructure:"cache"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Log       LogConfig       `mapstructure:"log"`
}

// DatabaseConfig locates the BadgerDB directory.
type DatabaseConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	Host              string        `mapstructure:"host"`
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	Dimension         int           `mapstructure:"dimension"`
	BatchSize         int           `mapstructure:"batch_size"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// RankingConfig configures the query path.
type RankingConfig struct {
	HistoryWeight    float64       `mapstructure:"history_weight"`
	VectorWeight     float64       `mapstructure:"vector_weight"`
	TopK             int           `mapstructure:"top_k"`
	VectorCandidates int           `mapstructure:"vector_candidates"`
	QuoteLimit       int           `mapstructure:"quote_limit"`
	QueryTimeout     time.Duration `mapstructure:"query_timeout"`
}

// IngestionConfig configures vector generation runs.
type IngestionConfig struct {
	Workers          int           `mapstructure:"workers"`
	BatchSize        int           `mapstructure:"batch_size"`
	Overwrite        bool          `mapstructure:"overwrite"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay    time.Duration `mapstructure:"retry_max_delay"`
	ProgressInterval int           `mapstructure:"progress_interval"`
}

// CacheConfig locates the snapshot cache file. Empty disables the cache.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// NATSConfig configures snapshot notifications. Empty URL disables them.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// LogConfig configures the default logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from path, or from skumatch.yaml in the working
// directory or /etc/skumatch when path is empty. A missing search-path file
// is not an error; environment variables and defaults still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("skumatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/skumatch/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional OpenAI variable is honored as a fallback.
	if err := v.BindEnv("embedding.api_key", EnvPrefix+"_EMBEDDING_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: error reading config file: %w", ErrConfiguration, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: unable to decode config: %w", ErrConfiguration, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := ai.DefaultConfig()

	v.SetDefault("database.path", "skumatch.db")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("embedding.host", defaults.EmbeddingHost)
	v.SetDefault("embedding.model", defaults.EmbeddingModel)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.dimension", defaults.Dimension)
	v.SetDefault("embedding.batch_size", defaults.BatchSize)
	v.SetDefault("embedding.timeout", defaults.Timeout)
	v.SetDefault("embedding.requests_per_second", 0)

	v.SetDefault("ranking.history_weight", 0.7)
	v.SetDefault("ranking.vector_weight", 0.3)
	v.SetDefault("ranking.top_k", 3)
	v.SetDefault("ranking.vector_candidates", 0)
	v.SetDefault("ranking.quote_limit", 3)
	v.SetDefault("ranking.query_timeout", "30s")

	v.SetDefault("ingestion.workers", 4)
	v.SetDefault("ingestion.batch_size", 100)
	v.SetDefault("ingestion.overwrite", false)
	v.SetDefault("ingestion.max_attempts", 5)
	v.SetDefault("ingestion.retry_base_delay", "50ms")
	v.SetDefault("ingestion.retry_max_delay", "2s")
	v.SetDefault("ingestion.progress_interval", 100)

	v.SetDefault("cache.path", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", notify.DefaultSubject)
	v.SetDefault("log.level", "info")
}

// Validate checks values that are wrong for every command. Credentials are
// checked separately by RequireEmbeddings.
func (c *Config) Validate() error {
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrConfiguration)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if c.Ranking.HistoryWeight < 0 || c.Ranking.VectorWeight < 0 {
		return fmt.Errorf("%w: ranking weights cannot be negative", ErrConfiguration)
	}
	if c.Ranking.VectorCandidates < 0 || c.Ranking.QuoteLimit < 0 {
		return fmt.Errorf("%w: ranking.vector_candidates and ranking.quote_limit cannot be negative", ErrConfiguration)
	}
	if c.Ranking.QueryTimeout <= 0 {
		return fmt.Errorf("%w: ranking.query_timeout must be positive", ErrConfiguration)
	}
	if c.Ingestion.Workers < 1 || c.Ingestion.BatchSize < 1 {
		return fmt.Errorf("%w: ingestion.workers and ingestion.batch_size must be positive", ErrConfiguration)
	}
	if c.Ingestion.MaxAttempts < 1 {
		return fmt.Errorf("%w: ingestion.max_attempts must be positive", ErrConfiguration)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level must be debug, info, warn or error, got %q", ErrConfiguration, c.Log.Level)
	}
	return nil
}

// RequireEmbeddings fails when the embedding service cannot be called, for
// commands that need it.
func (c *Config) RequireEmbeddings() error {
	if c.AIConfig().RequiresAPIKey() && c.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding API key is required (set %s_EMBEDDING_API_KEY or OPENAI_API_KEY)", ErrConfiguration, EnvPrefix)
	}
	return nil
}

// AIConfig converts the embedding section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithDimension(c.Embedding.Dimension),
		ai.WithBatchSize(c.Embedding.BatchSize),
		ai.WithTimeout(c.Embedding.Timeout),
		ai.WithRequestsPerSecond(c.Embedding.RequestsPerSecond),
	)
}
