package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glow.fit/glowscan/internal/cli"
	"glow.fit/glowscan/internal/config"
	"glow.fit/glowscan/internal/db"
	"glow.fit/glowscan/internal/ingest"
	"glow.fit/glowscan/internal/logging"
)

func runEnrich(args []string) int {
	fs := flag.NewFlagSet("enrich", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 50, "Enrich at most this many products (0 = all missing)")
	timeout := fs.Duration("timeout", 15*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	pool, err := buildReasoningPool(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build reasoning pool: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()
	store, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("enrich failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer store.Close()

	enricher, err := ingest.NewEnricher(pool, store, logger, cfg.CourtesyDelay)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build enricher: %v\n", err)
		return 1
	}

	stats, err := enricher.EnrichBatch(ctx, *limit)
	if err != nil {
		logger.Error().Err(err).Msg("enrichment aborted")
		fmt.Fprintf(os.Stderr, "Enrichment aborted: %v\n", err)
		return 1
	}

	fmt.Printf("ok: %d scanned, %d updated, %d failed\n", stats.Scanned, stats.Updated, stats.Failed)
	if stats.Failed > 0 {
		return 1
	}
	return 0
}
