// Copyright 2026 PetLog
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
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	healthrag "github.com/petlog/healthrag"
	"github.com/petlog/healthrag/config"
	"github.com/petlog/healthrag/index"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "healthrag",
		Usage: "Hybrid retrieval engine for pet health journals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "consume",
				Usage:  "Run the index synchronizer until interrupted",
				Action: consumeCommand,
			},
			{
				Name:   "query",
				Usage:  "Run a single retrieval and print the assembled context",
				Action: queryCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "owner",
						Usage: "Restrict the journal branch to this owner",
					},
					&cli.Int64Flag{
						Name:  "subject",
						Usage: "Restrict the journal branch to this pet",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Recompute embeddings for every indexed entry",
				Action: reindexCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func consumeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := healthrag.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Close()

	consumer, err := engine.NewConsumer()
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	defer consumer.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("consumer started", "group", cfg.Syncer.Group, "workers", cfg.Syncer.Workers)
	err = consumer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer stopped: %w", err)
	}

	stats := consumer.Stats()
	slog.Info("consumer stopped", "acked", stats.Acked, "skipped", stats.Skipped, "dropped", stats.Dropped)
	return nil
}

func queryCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := healthrag.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Close()

	orchestrator, err := engine.NewOrchestrator()
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	filter := index.Filter{
		OwnerID:   c.Int64("owner"),
		SubjectID: c.Int64("subject"),
	}
	fmt.Println(orchestrator.Retrieve(context.Background(), query, filter))
	return nil
}

func reindexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := healthrag.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Close()

	reindexer, err := engine.NewReindexer(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reindexer: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Index: %s\n", cfg.Index.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(context.Background()); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
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

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}
