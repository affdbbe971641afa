package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// Full-width bracket pairs survive on some inputs where the compatibility
	// fold does not apply, so both forms are matched explicitly.
	parentheticalPattern = regexp.MustCompile(`[(（][^)）]*[)）]`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// Normalize converts a free-text product or brand name into its comparison
// key. The key is never displayed or persisted; it only exists so that two
// spellings of the same name compare equal.
//
// Steps, in order: NFKC compatibility fold (full-width/half-width and
// combining-mark variants), removal of balanced parenthetical spans and their
// contents, removal of all whitespace, and ASCII case-fold. Empty or blank
// input yields an empty key.
func Normalize(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	key := norm.NFKC.String(name)
	key = parentheticalPattern.ReplaceAllString(key, "")
	key = whitespacePattern.ReplaceAllString(key, "")
	return strings.ToLower(key)
}
