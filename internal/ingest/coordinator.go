// Package ingest drives a batch run: list items from the content source,
// gate them through relevance, extract product mentions, resolve them
// against the catalog and persist each item atomically.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"glow.fit/glowscan/internal/catalog"
	"glow.fit/glowscan/internal/db"
	"glow.fit/glowscan/internal/extraction"
	"glow.fit/glowscan/internal/langdetect"
	"glow.fit/glowscan/internal/relevance"
	"glow.fit/glowscan/internal/source"
)

// Store is the catalog persistence the coordinator needs.
type Store interface {
	HasVideo(ctx context.Context, videoID string) (bool, error)
	ListProducts(ctx context.Context) ([]db.Product, error)
	CommitItem(ctx context.Context, video db.Video, newProducts []db.Product, reviews []db.Review) error
}

// Extractor turns one relevant item into product mentions.
type Extractor interface {
	Extract(ctx context.Context, item source.Item, transcript []source.Segment) ([]extraction.Mention, error)
}

// Deps are the collaborators a Coordinator wires together.
type Deps struct {
	Source    source.ContentSource
	Store     Store
	Pipeline  *relevance.Pipeline
	Extractor Extractor
	Resolver  *catalog.Resolver
	Logger    zerolog.Logger
	// CourtesyDelay spaces out items that hit the reasoning service.
	CourtesyDelay time.Duration
}

// ProcessOptions tune one batch run.
type ProcessOptions struct {
	Relevance relevance.Options
	// MaxItems caps the number of listed items considered; zero means all.
	MaxItems int
}

// BatchStats summarizes one batch run.
type BatchStats struct {
	Listed            int
	Skipped           int
	Gates             relevance.Stats
	ExtractedMentions int
	NewProducts       int
	MatchedProducts   int
	Reviews           int
	Committed         int
	Failed            int
}

// Coordinator owns one batch run end to end.
type Coordinator struct {
	src           source.ContentSource
	store         Store
	pipeline      *relevance.Pipeline
	extractor     Extractor
	resolver      *catalog.Resolver
	logger        zerolog.Logger
	courtesyDelay time.Duration
	detect        func(text string) string
}

func NewCoordinator(deps Deps) (*Coordinator, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("content source is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("relevance pipeline is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	return &Coordinator{
		src:           deps.Source,
		store:         deps.Store,
		pipeline:      deps.Pipeline,
		extractor:     deps.Extractor,
		resolver:      deps.Resolver,
		logger:        deps.Logger,
		courtesyDelay: deps.CourtesyDelay,
		detect:        langdetect.DetectISO6391,
	}, nil
}

// ProcessBatch runs the full pipeline over the source's current listing.
// One item failing never aborts the batch; the error return covers only the
// initial listing, the catalog snapshot and cancellation. Items whose
// extraction produced no mentions are not marked processed, so a later run
// with a better transcript gets another shot at them.
func (c *Coordinator) ProcessBatch(ctx context.Context, opts ProcessOptions) (BatchStats, error) {
	var stats BatchStats

	items, err := c.src.ListItems(ctx)
	if err != nil {
		return stats, fmt.Errorf("list items: %w", err)
	}
	if opts.MaxItems > 0 && len(items) > opts.MaxItems {
		items = items[:opts.MaxItems]
	}
	stats.Listed = len(items)

	products, err := c.store.ListProducts(ctx)
	if err != nil {
		return stats, fmt.Errorf("load catalog snapshot: %w", err)
	}
	entries := make([]catalog.Entry, 0, len(products))
	for _, product := range products {
		entry := catalog.Entry{ID: product.ProductID, Name: product.Name}
		if product.Brand != nil {
			entry.Brand = *product.Brand
		}
		entries = append(entries, entry)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		entries, err = c.processItem(ctx, item, opts, entries, &stats)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stats, err
			}
			c.logger.Error().Err(err).Str("video_id", item.ID).Msg("item failed, continuing batch")
			stats.Failed++
		}

		if c.courtesyDelay > 0 {
			if err := sleepContext(ctx, c.courtesyDelay); err != nil {
				return stats, err
			}
		}
	}

	c.logger.Info().
		Int("listed", stats.Listed).
		Int("skipped", stats.Skipped).
		Int("relevant", stats.Gates.Relevant).
		Int("committed", stats.Committed).
		Int("new_products", stats.NewProducts).
		Int("reviews", stats.Reviews).
		Int("failed", stats.Failed).
		Msg("batch finished")
	return stats, nil
}

// processItem runs one item through the gates and, when relevant, extracts
// and commits it. It returns the catalog snapshot extended with any products
// the commit introduced, so later items in the batch resolve against them.
func (c *Coordinator) processItem(ctx context.Context, item source.Item, opts ProcessOptions, entries []catalog.Entry, stats *BatchStats) ([]catalog.Entry, error) {
	done, err := c.store.HasVideo(ctx, item.ID)
	if err != nil {
		return entries, fmt.Errorf("check processed state: %w", err)
	}
	if done {
		c.logger.Debug().Str("video_id", item.ID).Msg("already processed, skipping")
		stats.Skipped++
		return entries, nil
	}

	transcript, err := c.src.Transcript(ctx, item.ID)
	if err != nil {
		if !errors.Is(err, source.ErrNoTranscript) {
			return entries, fmt.Errorf("fetch transcript: %w", err)
		}
		transcript = nil
	}

	decision, err := c.pipeline.Evaluate(ctx, item, transcript, opts.Relevance)
	if err != nil {
		return entries, fmt.Errorf("evaluate relevance: %w", err)
	}
	stats.Gates.Record(decision)
	if !decision.Relevant {
		c.logger.Debug().Str("video_id", item.ID).Str("gate", decision.RejectedBy).Msg("item rejected")
		return entries, nil
	}

	mentions, err := c.extractor.Extract(ctx, item, transcript)
	if err != nil {
		return entries, fmt.Errorf("extract mentions: %w", err)
	}
	stats.ExtractedMentions += len(mentions)
	if len(mentions) == 0 {
		c.logger.Info().Str("video_id", item.ID).Msg("no mentions extracted, leaving item unprocessed")
		return entries, nil
	}

	pendingStart := len(entries)
	var newProducts []db.Product
	reviews := make([]db.Review, 0, len(mentions))
	matchedHere := 0

	for _, mention := range mentions {
		entry, matched := c.resolver.Resolve(mention.ProductName, mention.BrandName, entries)
		if matched {
			matchedHere++
		} else {
			product := db.Product{
				ProductID: uuid.NewString(),
				Name:      mention.ProductName,
				Brand:     optionalString(mention.BrandName),
				Category:  optionalString(mention.Category),
			}
			newProducts = append(newProducts, product)
			entry = catalog.Entry{ID: product.ProductID, Name: product.Name, Brand: mention.BrandName}
			entries = append(entries, entry)
			stats.NewProducts++
		}

		reviews = append(reviews, db.Review{
			ReviewID:         uuid.NewString(),
			ProductID:        entry.ID,
			VideoID:          item.ID,
			TimestampSeconds: mention.TimestampSeconds,
			Sentiment:        mention.Sentiment,
			Summary:          mention.Summary,
		})
	}

	video := db.Video{
		VideoID:      item.ID,
		Title:        item.Title,
		ChannelName:  item.ChannelName,
		PublishedAt:  item.PublishedAt,
		ThumbnailURL: optionalString(item.ThumbnailURL),
		Language:     optionalString(c.detect(item.Title + " " + item.Description)),
	}

	if err := c.store.CommitItem(ctx, video, newProducts, reviews); err != nil {
		// Roll the snapshot back so later items do not resolve against
		// products that never landed.
		stats.NewProducts -= len(newProducts)
		return entries[:pendingStart], fmt.Errorf("commit item: %w", err)
	}

	stats.MatchedProducts += matchedHere
	stats.Committed++
	stats.Reviews += len(reviews)
	c.logger.Info().
		Str("video_id", item.ID).
		Int("new_products", len(newProducts)).
		Int("reviews", len(reviews)).
		Msg("item committed")
	return entries, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
