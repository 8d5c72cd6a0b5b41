// Command ingest is the chel-data ingestion CLI.
//
// Usage:
//
//	chel-ingest sync
//	chel-ingest sync --match-type gameType5
//	chel-ingest file matches.json
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chelhq/chel-data/internal/config"
	"github.com/chelhq/chel-data/internal/db"
	"github.com/chelhq/chel-data/internal/ea"
	"github.com/chelhq/chel-data/internal/ingest"
	"github.com/chelhq/chel-data/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "chel-ingest",
		Short: "EA Pro Clubs stats ingestion CLI",
	}

	root.AddCommand(syncCmd())
	root.AddCommand(fileCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	var matchType string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch club stats, matches, and member stats from EA and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(ctx context.Context, runner *ingest.Runner) error {
				start := time.Now()
				result := runner.Sync(ctx, matchType)
				logger.Info("sync finished",
					"duration", time.Since(start).Round(time.Second),
					"summary", result.Summary())
				logErrors(result)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&matchType, "match-type", config.DefaultMatchType, "EA match type bucket")
	return cmd
}

// --------------------------------------------------------------------------
// file command
// --------------------------------------------------------------------------

func fileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file <matches.json>",
		Short: "Ingest matches and players from a saved EA matches JSON dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("file not found: %s", path)
			}
			return withRunner(func(ctx context.Context, runner *ingest.Runner) error {
				result, err := runner.IngestFile(ctx, path)
				if err != nil {
					return err
				}
				logErrors(result)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// Shared wiring
// --------------------------------------------------------------------------

// withRunner loads config, connects collaborators, and hands a ready runner
// to fn.
func withRunner(fn func(ctx context.Context, runner *ingest.Runner) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	client := ea.NewClient(cfg.EABaseURL, cfg.MaxAttempts, cfg.BaseBackoff, cfg.HTTPTimeout, logger)
	runner := ingest.NewRunner(client, store.New(pool.Pool), cfg.ClubID, cfg.Platform, logger)

	return fn(ctx, runner)
}

func logErrors(result store.IngestResult) {
	for _, e := range result.Errors {
		logger.Error("ingest error", "error", e)
	}
}
