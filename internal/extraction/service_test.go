package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"glow.fit/glowscan/internal/source"
)

type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func TestExtractParsesFencedResponse(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "```json\n[{\"product_name\": \"Airy Change Liquid 01\", \"brand_name\": \"GlowLab\", \"category\": \"foundation\", \"timestamp_seconds\": 42, \"sentiment\": \"positive\", \"summary\": \"smooth finish\"}]\n```"}
	svc := NewService(gen, zerolog.Nop())

	mentions, err := svc.Extract(context.Background(), source.Item{ID: "v1", Title: "t"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mentions) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(mentions))
	}
	m := mentions[0]
	if m.ProductName != "Airy Change Liquid 01" || m.BrandName != "GlowLab" {
		t.Fatalf("unexpected mention: %+v", m)
	}
	if m.TimestampSeconds != 42 || m.Sentiment != SentimentPositive {
		t.Fatalf("unexpected mention fields: %+v", m)
	}
}

func TestExtractEmptyArrayIsSuccess(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "[]"}
	svc := NewService(gen, zerolog.Nop())

	mentions, err := svc.Extract(context.Background(), source.Item{ID: "v1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mentions) != 0 {
		t.Fatalf("expected no mentions, got %d", len(mentions))
	}
}

func TestExtractMalformedResponseYieldsEmpty(t *testing.T) {
	t.Parallel()

	for _, response := range []string{
		"I could not find any products, sorry!",
		`{"product_name": "not an array"}`,
		`[{"brand_name": "missing required name"}]`,
	} {
		gen := &stubGenerator{response: response}
		svc := NewService(gen, zerolog.Nop())

		mentions, err := svc.Extract(context.Background(), source.Item{ID: "v1"}, nil)
		if err != nil {
			t.Fatalf("response %q: parse failures must not error, got %v", response, err)
		}
		if len(mentions) != 0 {
			t.Fatalf("response %q: expected no mentions, got %d", response, len(mentions))
		}
	}
}

func TestExtractPropagatesGenerateError(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota spent")
	gen := &stubGenerator{err: boom}
	svc := NewService(gen, zerolog.Nop())

	if _, err := svc.Extract(context.Background(), source.Item{ID: "v1"}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected generate error to propagate, got %v", err)
	}
}

func TestExtractNormalizesUnknownFields(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: `[
		{"product_name": "Tint A", "sentiment": "ecstatic"},
		{"product_name": "  ", "sentiment": "positive"},
		{"product_name": "Tint B", "brand_name": null, "timestamp_seconds": null}
	]`}
	svc := NewService(gen, zerolog.Nop())

	mentions, err := svc.Extract(context.Background(), source.Item{ID: "v1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("blank names must be dropped, got %d mentions", len(mentions))
	}
	if mentions[0].Sentiment != SentimentNeutral {
		t.Fatalf("unknown sentiment must fold to neutral, got %q", mentions[0].Sentiment)
	}
	if mentions[1].BrandName != "" || mentions[1].TimestampSeconds != 0 {
		t.Fatalf("null optionals must stay unknown: %+v", mentions[1])
	}
}

func TestExtractionPromptPrefersDescriptionAndTruncates(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "[]"}
	svc := NewService(gen, zerolog.Nop())

	item := source.Item{
		ID:          "v1",
		Title:       "ベストコスメ 2024",
		Description: strings.Repeat("d", maxDescriptionChars+100),
	}
	transcript := []source.Segment{{StartSeconds: 12, Text: "この下地は良い"}}

	if _, err := svc.Extract(context.Background(), item, transcript); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompt, "[12s] この下地は良い") {
		t.Fatalf("transcript offsets missing from prompt")
	}
	if strings.Contains(gen.prompt, strings.Repeat("d", maxDescriptionChars+1)) {
		t.Fatalf("description not truncated to %d runes", maxDescriptionChars)
	}
	if !strings.Contains(gen.prompt, "most reliable source") {
		t.Fatalf("prompt must state the description-first rule")
	}
}

func TestStripCodeFences(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"```json\n[]\n```": "[]",
		"```\n[]\n```":     "[]",
		"  []  ":           "[]",
		"[]":               "[]",
	}
	for input, want := range cases {
		if got := stripCodeFences(input); got != want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", input, got, want)
		}
	}
}
