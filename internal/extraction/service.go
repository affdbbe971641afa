// Package extraction turns one relevant video into structured product
// mentions via a single reasoning-service call.
package extraction

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"glow.fit/glowscan/internal/source"
)

//go:embed mentions.schema.json
var mentionsSchemaJSON string

const (
	maxDescriptionChars = 5000
	maxTranscriptChars  = 25000
)

// Sentiment values attached to a mention. Anything else from the service is
// folded to neutral rather than guessed at.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Mention is one product the reasoning service found in a video. Optional
// fields stay empty when the service did not report them; they mean
// "unknown", never a default guess.
type Mention struct {
	ProductName      string `json:"product_name"`
	BrandName        string `json:"brand_name,omitempty"`
	Category         string `json:"category,omitempty"`
	TimestampSeconds int    `json:"timestamp_seconds"`
	Sentiment        string `json:"sentiment"`
	Summary          string `json:"summary,omitempty"`
}

// Generator routes the extraction prompt to the reasoning service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service builds the extraction prompt and parses the structured answer.
type Service struct {
	gen    Generator
	logger zerolog.Logger
}

func NewService(gen Generator, logger zerolog.Logger) *Service {
	return &Service{gen: gen, logger: logger}
}

// Extract asks the reasoning service for every product featured in the item
// and returns the parsed mentions. An empty slice is a valid success: not
// every relevant video names a product. Malformed responses are logged and
// yield an empty slice so one bad answer never aborts a batch; only the
// generate call itself can fail.
func (s *Service) Extract(ctx context.Context, item source.Item, transcript []source.Segment) ([]Mention, error) {
	raw, err := s.gen.Generate(ctx, extractionPrompt(item, transcript))
	if err != nil {
		return nil, fmt.Errorf("extraction call for %s: %w", item.ID, err)
	}

	mentions, err := parseMentions(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("video_id", item.ID).Msg("discarding malformed extraction response")
		return nil, nil
	}

	s.logger.Info().Str("video_id", item.ID).Int("mentions", len(mentions)).Msg("extracted product mentions")
	return mentions, nil
}

func extractionPrompt(item source.Item, transcript []source.Segment) string {
	description := truncateRunes(item.Description, maxDescriptionChars)
	if description == "" {
		description = "(no description)"
	}
	transcriptText := truncateRunes(transcriptWithOffsets(transcript), maxTranscriptChars)
	if transcriptText == "" {
		transcriptText = "(no transcript)"
	}

	var b strings.Builder
	b.WriteString(`You are a professional cosmetics review analyst. Extract every cosmetics product featured in the YouTube video below, accurately.

Rules, in order of importance:
1. When the description lists a product, use its official name from the description verbatim. The description is the most reliable source.
2. Automatic transcripts frequently misrecognize brand names. Only extract a product absent from the description when the transcript names it with very high confidence; never guess.
3. Keep product names short and official: shade numbers are fine, marketing copy and feature blurbs are not.

`)
	fmt.Fprintf(&b, "Title:\n%s\n\nDescription (likely contains the product list):\n%s\n\nTranscript (with start offsets in seconds):\n%s\n\n", item.Title, description, transcriptText)
	b.WriteString(`Output only a JSON array, without Markdown code fences:

[
  {
    "product_name": "short official product name, shade number allowed",
    "brand_name": "brand name",
    "category": "category such as foundation, lip, eyeshadow",
    "timestamp_seconds": 0,
    "sentiment": "positive" | "negative" | "neutral",
    "summary": "what is said about the product, about 50 characters"
  }
]

Steps: identify the product list from the description, locate where each product is discussed in the transcript for its timestamp, judge sentiment and summary from that part, and only then add high-confidence transcript-only products.`)
	return b.String()
}

func transcriptWithOffsets(transcript []source.Segment) string {
	if len(transcript) == 0 {
		return ""
	}
	var b strings.Builder
	for _, segment := range transcript {
		fmt.Fprintf(&b, "[%ds] %s\n", int(segment.StartSeconds), segment.Text)
	}
	return b.String()
}

// parseMentions validates the stripped response against the mentions schema,
// then decodes it. Unknown sentiment values fold to neutral; mentions with
// an empty product name are dropped.
func parseMentions(raw string) ([]Mention, error) {
	stripped := stripCodeFences(raw)
	if stripped == "" {
		return nil, fmt.Errorf("empty response")
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load mentions schema: %w", err)
	}

	var value any
	decoder := json.NewDecoder(bytes.NewReader([]byte(stripped)))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode response JSON: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var decoded []struct {
		ProductName      string   `json:"product_name"`
		BrandName        *string  `json:"brand_name"`
		Category         *string  `json:"category"`
		TimestampSeconds *float64 `json:"timestamp_seconds"`
		Sentiment        *string  `json:"sentiment"`
		Summary          *string  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripped), &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal mentions: %w", err)
	}

	mentions := make([]Mention, 0, len(decoded))
	for _, entry := range decoded {
		name := strings.TrimSpace(entry.ProductName)
		if name == "" {
			continue
		}
		mention := Mention{
			ProductName: name,
			BrandName:   derefTrimmed(entry.BrandName),
			Category:    derefTrimmed(entry.Category),
			Summary:     derefTrimmed(entry.Summary),
			Sentiment:   normalizeSentiment(entry.Sentiment),
		}
		if entry.TimestampSeconds != nil && *entry.TimestampSeconds > 0 {
			mention.TimestampSeconds = int(*entry.TimestampSeconds)
		}
		mentions = append(mentions, mention)
	}
	return mentions, nil
}

// stripCodeFences removes an optional Markdown fence the service sometimes
// wraps around the array despite instructions.
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

func normalizeSentiment(raw *string) string {
	if raw == nil {
		return SentimentNeutral
	}
	switch strings.ToLower(strings.TrimSpace(*raw)) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func derefTrimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("mentions.schema.json", strings.NewReader(mentionsSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("mentions.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}
