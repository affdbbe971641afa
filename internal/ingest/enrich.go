package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"glow.fit/glowscan/internal/db"
	"glow.fit/glowscan/internal/reasoning"
)

// DetailStore is the persistence the enricher needs.
type DetailStore interface {
	ListProductsMissingDetails(ctx context.Context, limit int) ([]db.Product, error)
	UpdateProductDetails(ctx context.Context, productID string, details db.ProductDetails) error
}

// Generator routes enrichment prompts to the reasoning service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EnrichStats summarizes one enrichment run.
type EnrichStats struct {
	Scanned int
	Updated int
	Failed  int
}

// Enricher fills in catalog details the extraction pass could not know:
// descriptions, ingredients, volumes. It is a best-effort sweep over
// products with empty detail columns; nothing downstream depends on it.
type Enricher struct {
	gen           Generator
	store         DetailStore
	logger        zerolog.Logger
	courtesyDelay time.Duration
}

func NewEnricher(gen Generator, store DetailStore, logger zerolog.Logger, courtesyDelay time.Duration) (*Enricher, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if store == nil {
		return nil, fmt.Errorf("detail store is required")
	}
	return &Enricher{gen: gen, store: store, logger: logger, courtesyDelay: courtesyDelay}, nil
}

// EnrichBatch asks the reasoning service for details on up to limit products
// missing them. A malformed answer skips the product; a product failing never
// stops the sweep, except key exhaustion, which makes further calls pointless.
func (e *Enricher) EnrichBatch(ctx context.Context, limit int) (EnrichStats, error) {
	var stats EnrichStats

	products, err := e.store.ListProductsMissingDetails(ctx, limit)
	if err != nil {
		return stats, fmt.Errorf("list products missing details: %w", err)
	}

	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Scanned++

		details, err := e.lookupDetails(ctx, product)
		if err != nil {
			if errors.Is(err, reasoning.ErrKeysExhausted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stats, err
			}
			e.logger.Warn().Err(err).Str("product_id", product.ProductID).Msg("enrichment lookup failed, skipping product")
			stats.Failed++
			continue
		}
		if details == nil {
			stats.Failed++
			continue
		}

		if err := e.store.UpdateProductDetails(ctx, product.ProductID, *details); err != nil {
			e.logger.Warn().Err(err).Str("product_id", product.ProductID).Msg("persisting enrichment failed")
			stats.Failed++
			continue
		}
		stats.Updated++
		e.logger.Info().Str("product_id", product.ProductID).Str("name", product.Name).Msg("product enriched")

		if e.courtesyDelay > 0 {
			if err := sleepContext(ctx, e.courtesyDelay); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}

// lookupDetails returns nil details (without error) when the answer was
// malformed or carried nothing usable.
func (e *Enricher) lookupDetails(ctx context.Context, product db.Product) (*db.ProductDetails, error) {
	raw, err := e.gen.Generate(ctx, detailPrompt(product))
	if err != nil {
		return nil, err
	}

	details, err := parseDetails(raw)
	if err != nil {
		e.logger.Warn().Err(err).Str("product_id", product.ProductID).Msg("discarding malformed enrichment response")
		return nil, nil
	}
	return details, nil
}

func detailPrompt(product db.Product) string {
	brand := "(unknown)"
	if product.Brand != nil && *product.Brand != "" {
		brand = *product.Brand
	}
	return fmt.Sprintf(`You are a cosmetics product database curator. Provide known facts about the product below. Leave a field null when you are not sure; never invent.

Product name: %s
Brand: %s

Output only a JSON object, without Markdown code fences:

{
  "description": "one or two sentences describing the product" | null,
  "features": ["notable feature", ...] | null,
  "ingredients": "key ingredients" | null,
  "volume": "size or volume, e.g. 30ml" | null,
  "how_to_use": "short usage instructions" | null
}`, product.Name, brand)
}

func parseDetails(raw string) (*db.ProductDetails, error) {
	stripped := stripCodeFences(raw)
	if stripped == "" {
		return nil, fmt.Errorf("empty response")
	}

	var decoded struct {
		Description *string  `json:"description"`
		Features    []string `json:"features"`
		Ingredients *string  `json:"ingredients"`
		Volume      *string  `json:"volume"`
		HowToUse    *string  `json:"how_to_use"`
	}
	if err := json.Unmarshal([]byte(stripped), &decoded); err != nil {
		return nil, fmt.Errorf("decode details JSON: %w", err)
	}

	details := db.ProductDetails{
		Description: trimmedOrNil(decoded.Description),
		Ingredients: trimmedOrNil(decoded.Ingredients),
		Volume:      trimmedOrNil(decoded.Volume),
		HowToUse:    trimmedOrNil(decoded.HowToUse),
	}
	for _, feature := range decoded.Features {
		if trimmed := strings.TrimSpace(feature); trimmed != "" {
			details.Features = append(details.Features, trimmed)
		}
	}

	if details.Description == nil && details.Ingredients == nil && details.Volume == nil &&
		details.HowToUse == nil && len(details.Features) == 0 {
		return nil, fmt.Errorf("response carried no usable fields")
	}
	return &details, nil
}

// stripCodeFences removes an optional Markdown fence around the JSON object.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*p)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
