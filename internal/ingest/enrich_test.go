package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"glow.fit/glowscan/internal/db"
	"glow.fit/glowscan/internal/reasoning"
)

type stubDetailStore struct {
	missing []db.Product
	updates map[string]db.ProductDetails
	failFor map[string]error
}

func (s *stubDetailStore) ListProductsMissingDetails(ctx context.Context, limit int) ([]db.Product, error) {
	if limit > 0 && len(s.missing) > limit {
		return s.missing[:limit], nil
	}
	return s.missing, nil
}

func (s *stubDetailStore) UpdateProductDetails(ctx context.Context, productID string, details db.ProductDetails) error {
	if err, ok := s.failFor[productID]; ok {
		return err
	}
	if s.updates == nil {
		s.updates = make(map[string]db.ProductDetails)
	}
	s.updates[productID] = details
	return nil
}

type stubGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	index := s.calls
	s.calls++
	if index < len(s.errs) && s.errs[index] != nil {
		return "", s.errs[index]
	}
	if index < len(s.responses) {
		return s.responses[index], nil
	}
	return "", errors.New("no scripted response")
}

func TestEnrichBatchUpdatesProductDetails(t *testing.T) {
	t.Parallel()

	store := &stubDetailStore{missing: []db.Product{{ProductID: "p1", Name: "Glow Serum"}}}
	gen := &stubGenerator{responses: []string{
		"```json\n{\"description\": \"A brightening serum.\", \"features\": [\"vitamin C\", \" \"], \"volume\": \"30ml\", \"ingredients\": null, \"how_to_use\": null}\n```",
	}}

	enricher, err := NewEnricher(gen, store, zerolog.Nop(), 0)
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}
	stats, err := enricher.EnrichBatch(context.Background(), 0)
	if err != nil {
		t.Fatalf("EnrichBatch: %v", err)
	}

	if stats.Updated != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	details, ok := store.updates["p1"]
	if !ok {
		t.Fatalf("p1 was not updated")
	}
	if details.Description == nil || *details.Description != "A brightening serum." {
		t.Fatalf("description = %v", details.Description)
	}
	if len(details.Features) != 1 || details.Features[0] != "vitamin C" {
		t.Fatalf("features = %v, blank entries should be dropped", details.Features)
	}
	if details.Volume == nil || *details.Volume != "30ml" {
		t.Fatalf("volume = %v", details.Volume)
	}
	if details.Ingredients != nil {
		t.Fatalf("null ingredient must stay nil, got %v", *details.Ingredients)
	}
}

func TestEnrichBatchSkipsMalformedAnswers(t *testing.T) {
	t.Parallel()

	store := &stubDetailStore{missing: []db.Product{
		{ProductID: "p1", Name: "Glow Serum"},
		{ProductID: "p2", Name: "Matte Lip"},
	}}
	gen := &stubGenerator{responses: []string{
		"I do not know this product.",
		`{"description": "A long-wear matte lip color."}`,
	}}

	enricher, err := NewEnricher(gen, store, zerolog.Nop(), 0)
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}
	stats, err := enricher.EnrichBatch(context.Background(), 0)
	if err != nil {
		t.Fatalf("EnrichBatch: %v", err)
	}

	if stats.Scanned != 2 || stats.Updated != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if _, ok := store.updates["p1"]; ok {
		t.Fatalf("p1 must not be updated from a malformed answer")
	}
	if _, ok := store.updates["p2"]; !ok {
		t.Fatalf("p2 should have been updated")
	}
}

func TestEnrichBatchAllNullAnswerCountsAsFailed(t *testing.T) {
	t.Parallel()

	store := &stubDetailStore{missing: []db.Product{{ProductID: "p1", Name: "Glow Serum"}}}
	gen := &stubGenerator{responses: []string{
		`{"description": null, "features": null, "ingredients": null, "volume": null, "how_to_use": null}`,
	}}

	enricher, err := NewEnricher(gen, store, zerolog.Nop(), 0)
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}
	stats, err := enricher.EnrichBatch(context.Background(), 0)
	if err != nil {
		t.Fatalf("EnrichBatch: %v", err)
	}

	if stats.Updated != 0 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(store.updates) != 0 {
		t.Fatalf("no update should have been written")
	}
}

func TestEnrichBatchStopsOnKeyExhaustion(t *testing.T) {
	t.Parallel()

	store := &stubDetailStore{missing: []db.Product{
		{ProductID: "p1", Name: "Glow Serum"},
		{ProductID: "p2", Name: "Matte Lip"},
	}}
	gen := &stubGenerator{errs: []error{reasoning.ErrKeysExhausted}}

	enricher, err := NewEnricher(gen, store, zerolog.Nop(), 0)
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}
	stats, err := enricher.EnrichBatch(context.Background(), 0)
	if !errors.Is(err, reasoning.ErrKeysExhausted) {
		t.Fatalf("expected key exhaustion error, got %v", err)
	}

	if gen.calls != 1 {
		t.Fatalf("no further calls should follow exhaustion, got %d", gen.calls)
	}
	if stats.Scanned != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestEnrichBatchPersistFailureContinues(t *testing.T) {
	t.Parallel()

	store := &stubDetailStore{
		missing: []db.Product{
			{ProductID: "p1", Name: "Glow Serum"},
			{ProductID: "p2", Name: "Matte Lip"},
		},
		failFor: map[string]error{"p1": errors.New("db down")},
	}
	gen := &stubGenerator{responses: []string{
		`{"description": "A brightening serum."}`,
		`{"description": "A long-wear matte lip color."}`,
	}}

	enricher, err := NewEnricher(gen, store, zerolog.Nop(), 0)
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}
	stats, err := enricher.EnrichBatch(context.Background(), 0)
	if err != nil {
		t.Fatalf("EnrichBatch: %v", err)
	}

	if stats.Updated != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
