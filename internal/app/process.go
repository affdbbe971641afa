package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"glow.fit/glowscan/internal/catalog"
	"glow.fit/glowscan/internal/cli"
	"glow.fit/glowscan/internal/config"
	"glow.fit/glowscan/internal/db"
	"glow.fit/glowscan/internal/extraction"
	"glow.fit/glowscan/internal/ingest"
	"glow.fit/glowscan/internal/logging"
	"glow.fit/glowscan/internal/relevance"
	"glow.fit/glowscan/internal/source"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	sourceFile := fs.String("source", "", "Path to a JSON dump of items to process")
	titleOnly := fs.Bool("title-only", false, "Accept items on the keyword gate alone")
	skipClassification := fs.Bool("skip-classification", false, "Skip the reasoning classification gate")
	maxItems := fs.Int("max-items", 0, "Process at most this many listed items (0 = all)")
	timeout := fs.Duration("timeout", 30*time.Minute, "Batch timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if strings.TrimSpace(*sourceFile) == "" {
		fmt.Fprintln(os.Stderr, "--source is required")
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

	contentSource, err := source.NewFileSource(*sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open source: %v\n", err)
		return 2
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
		logger.Error().Err(err).Msg("process failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer store.Close()

	pipeline := relevance.NewPipeline(relevance.Config{
		Keywords:         cfg.RelevanceKeywordList(),
		DomainTerms:      cfg.DomainTermList(),
		DensityThreshold: cfg.DensityThreshold,
	}, pool, logger)

	coordinator, err := ingest.NewCoordinator(ingest.Deps{
		Source:    contentSource,
		Store:     store,
		Pipeline:  pipeline,
		Extractor: extraction.NewService(pool, logger),
		Resolver: catalog.NewResolver(catalog.Tunables{
			SimilarityThreshold: cfg.SimilarityThreshold,
			BrandBonusThreshold: cfg.BrandBonusThreshold,
			BrandBonus:          cfg.BrandBonus,
		}),
		Logger:        logger,
		CourtesyDelay: cfg.CourtesyDelay,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build coordinator: %v\n", err)
		return 1
	}

	stats, err := coordinator.ProcessBatch(ctx, ingest.ProcessOptions{
		Relevance: relevance.Options{
			TitleOnly:          *titleOnly,
			SkipClassification: *skipClassification,
		},
		MaxItems: *maxItems,
	})
	if err != nil {
		logger.Error().Err(err).Msg("batch aborted")
		fmt.Fprintf(os.Stderr, "Batch aborted: %v\n", err)
		return 1
	}

	fmt.Printf("ok: %d listed, %d skipped, %d relevant, %d committed, %d new products, %d reviews, %d failed\n",
		stats.Listed, stats.Skipped, stats.Gates.Relevant, stats.Committed, stats.NewProducts, stats.Reviews, stats.Failed)
	if stats.Failed > 0 {
		return 1
	}
	return 0
}
