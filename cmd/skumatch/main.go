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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/skumatch/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "skumatch",
		Usage: "Hybrid history and embedding ranking of catalog SKUs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file (default: ./skumatch.yaml or /etc/skumatch/skumatch.yaml)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides database.path)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides log.level",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import catalog items, historical mappings and quotes from a YAML seed file",
				ArgsUsage: "<seed.yaml>",
				Action:    importCommand,
			},
			{
				Name:   "generate-vectors",
				Usage:  "Embed catalog items and publish a new vector snapshot",
				Action: generateVectorsCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Re-embed items that already have a vector (overrides ingestion.overwrite)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent batches (overrides ingestion.workers)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items per batch (overrides ingestion.batch_size)",
					},
				},
			},
			{
				Name:   "rebuild-cache",
				Usage:  "Write the snapshot cache file from the embedded catalog",
				Action: rebuildCacheCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Cache file to write (overrides cache.path)",
					},
				},
			},
			{
				Name:   "rebuild-history",
				Usage:  "Recompute requirement history from stored quotes",
				Action: rebuildHistoryCommand,
			},
			{
				Name:      "suggest",
				Usage:     "Suggest SKUs for one or more requirements",
				ArgsUsage: "<requirement> [requirement...]",
				Action:    suggestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Suggestions per requirement (overrides ranking.top_k)",
					},
					&cli.BoolFlag{
						Name:  "timing",
						Usage: "Print per-stage timings to stderr",
					},
				},
			},
		},
	}
}

// setup loads configuration and configures the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if db := c.String("db"); db != "" {
		cfg.Database.Path = db
	}
	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := setupLogger(cfg.Log.Level); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata[configKey].(*config.Config)
}

func setupLogger(levelStr string) error {
	// Map string to slog.Level
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
