package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"glow.fit/glowscan/internal/catalog"
	"glow.fit/glowscan/internal/cli"
	"glow.fit/glowscan/internal/config"
	"glow.fit/glowscan/internal/db"
	"glow.fit/glowscan/internal/logging"
)

// runResolve is a debugging aid: it resolves one product name against the
// live catalog exactly the way the batch does, and prints the outcome.
func runResolve(args []string) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	name := fs.String("name", "", "Product name to resolve")
	brand := fs.String("brand", "", "Brand name, if known")
	timeout := fs.Duration("timeout", 10*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "--name is required")
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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("resolve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	products, err := pool.ListProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("catalog load failed")
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		return 1
	}

	entries := make([]catalog.Entry, 0, len(products))
	for _, product := range products {
		entry := catalog.Entry{ID: product.ProductID, Name: product.Name}
		if product.Brand != nil {
			entry.Brand = *product.Brand
		}
		entries = append(entries, entry)
	}

	resolver := catalog.NewResolver(catalog.Tunables{
		SimilarityThreshold: cfg.SimilarityThreshold,
		BrandBonusThreshold: cfg.BrandBonusThreshold,
		BrandBonus:          cfg.BrandBonus,
	})

	entry, matched := resolver.Resolve(*name, *brand, entries)
	if !matched {
		fmt.Printf("no match: %q would create a new product (normalized key %q, %d candidates)\n",
			*name, catalog.Normalize(*name), len(entries))
		return 0
	}

	fmt.Printf("match: %q resolves to product %s (%q)\n", *name, entry.ID, entry.Name)
	return 0
}
