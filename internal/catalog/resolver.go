package catalog

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Entry is one existing catalog product as seen by the resolver.
type Entry struct {
	ID    string
	Name  string
	Brand string
}

// Tunables holds the resolver's matching thresholds.
type Tunables struct {
	// SimilarityThreshold is the minimum similarity score for treating a
	// candidate as the same product as an existing entry.
	SimilarityThreshold float64
	// BrandBonusThreshold is the minimum brand similarity that earns the
	// candidate the brand corroboration bonus.
	BrandBonusThreshold float64
	// BrandBonus is added to the name score when brands corroborate.
	BrandBonus float64
}

// DefaultTunables returns the thresholds tuned against the initial catalog.
func DefaultTunables() Tunables {
	return Tunables{
		SimilarityThreshold: 0.85,
		BrandBonusThreshold: 0.7,
		BrandBonus:          0.1,
	}
}

// Resolver decides whether a newly extracted product name denotes an existing
// catalog entry or a new product. Two literal differing strings may denote
// the same product, so uniqueness lives here rather than in string equality.
type Resolver struct {
	tunables Tunables
}

func NewResolver(tunables Tunables) *Resolver {
	return &Resolver{tunables: tunables}
}

// Resolve scans the full catalog for the entry best matching the candidate
// name. An exact normalized-key match returns immediately; otherwise the
// entry with the highest similarity score wins if it reaches the similarity
// threshold. Ties resolve to the entry scanned last. Returns false when no
// entry qualifies or the candidate normalizes to an empty key.
//
// The scan is O(len(entries)) per call with no index. That is fine while the
// catalog is small; revisit if it grows past a few thousand products.
func (r *Resolver) Resolve(name, brand string, entries []Entry) (Entry, bool) {
	normKey := Normalize(name)
	if normKey == "" {
		return Entry{}, false
	}

	brandKey := Normalize(brand)

	var best Entry
	bestScore := 0.0
	found := false

	for _, entry := range entries {
		entryKey := Normalize(entry.Name)
		if entryKey == normKey {
			return entry, true
		}

		score := matchRatio(normKey, entryKey)

		if brandKey != "" && entry.Brand != "" {
			brandScore := matchRatio(brandKey, Normalize(entry.Brand))
			if brandScore > r.tunables.BrandBonusThreshold {
				score += r.tunables.BrandBonus
			}
		}

		if score >= bestScore {
			bestScore = score
			best = entry
			found = true
		}
	}

	if found && bestScore >= r.tunables.SimilarityThreshold {
		return best, true
	}
	return Entry{}, false
}

// matchRatio is the standard sequence-matching ratio 2*M/T over the two
// normalized keys, where M counts characters in matching blocks and T is the
// total length of both keys.
func matchRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	matcher := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return matcher.Ratio()
}

func splitRunes(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
