package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter language code for a text sample, or
// an empty string when the sample is too short to classify reliably.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		// The sources we ingest are beauty channels from Japan, Korea,
		// greater China and the anglosphere; restricting the set keeps the
		// model load small and the classifications sharper.
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.Japanese,
				lingua.English,
				lingua.Korean,
				lingua.Chinese,
			).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
