package catalog

import "testing"

func TestResolveExactNormalizedMatch(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(DefaultTunables())
	entries := []Entry{
		{ID: "p1", Name: "foundation"},
		{ID: "p2", Name: "lip tint"},
	}

	entry, ok := resolver.Resolve("Foundation (Brand X)", "", entries)
	if !ok {
		t.Fatalf("expected exact normalized match")
	}
	if entry.ID != "p1" {
		t.Fatalf("expected p1, got %s", entry.ID)
	}
}

func TestResolveBelowThresholdReturnsNoMatch(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(DefaultTunables())
	entries := []Entry{
		{ID: "p1", Name: "completely different product"},
	}

	if _, ok := resolver.Resolve("ツヤ肌ファンデ", "", entries); ok {
		t.Fatalf("expected no match for dissimilar names")
	}
}

func TestResolveEmptyCandidate(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(DefaultTunables())
	entries := []Entry{{ID: "p1", Name: "foundation"}}

	if _, ok := resolver.Resolve("   ", "brand", entries); ok {
		t.Fatalf("expected no match for blank candidate name")
	}
}

func TestResolveBrandBonusLiftsNearMiss(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(DefaultTunables())
	// "alphax" vs "alphay" scores 2*5/12 ~ 0.833: below the 0.85 threshold on
	// its own, above it with the 0.1 brand bonus.
	entries := []Entry{
		{ID: "p1", Name: "alphay", Brand: "glowlab"},
	}

	if _, ok := resolver.Resolve("alphax", "", entries); ok {
		t.Fatalf("expected no match without brand corroboration")
	}
	if _, ok := resolver.Resolve("alphax", "unrelated house", entries); ok {
		t.Fatalf("expected no match with non-corroborating brand")
	}

	entry, ok := resolver.Resolve("alphax", "glowlab", entries)
	if !ok {
		t.Fatalf("expected brand bonus to lift score over the threshold")
	}
	if entry.ID != "p1" {
		t.Fatalf("expected p1, got %s", entry.ID)
	}
}

func TestResolveTieKeepsLastScanned(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(Tunables{SimilarityThreshold: 0.8, BrandBonusThreshold: 0.7, BrandBonus: 0.1})
	entries := []Entry{
		{ID: "p1", Name: "alphay"},
		{ID: "p2", Name: "alphaz"},
	}

	entry, ok := resolver.Resolve("alphax", "", entries)
	if !ok {
		t.Fatalf("expected a match at the lowered threshold")
	}
	if entry.ID != "p2" {
		t.Fatalf("tie should keep the last scanned entry, got %s", entry.ID)
	}
}
