// Package relevance decides whether a video is worth expensive extraction.
// Three gates run in a fixed order, cheapest first: a keyword check on the
// metadata, a domain-term density check on the transcript, and a yes/no
// classification call to the reasoning service. All gates must pass.
package relevance

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"glow.fit/glowscan/internal/source"
)

// Gate names, as recorded on rejection decisions.
const (
	GateKeyword        = "keyword"
	GateDensity        = "density"
	GateClassification = "classification"
)

const (
	maxDescriptionSample = 1000
	maxTranscriptSample  = 1500
)

// Classifier answers the stage-3 yes/no prompt.
type Classifier interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the gate vocabulary and thresholds.
type Config struct {
	Keywords []string
	// DomainTerms feed the density gate.
	DomainTerms []string
	// DensityThreshold is the minimum percentage of domain-term hits per
	// transcript character for the density gate to pass.
	DensityThreshold float64
}

// Options bypass individual gates for one run.
type Options struct {
	// TitleOnly accepts items on the keyword gate alone, skipping the
	// density and classification gates as passes.
	TitleOnly bool
	// SkipClassification skips the stage-3 reasoning call.
	SkipClassification bool
}

// Decision is the outcome of one item's pass through the gates.
type Decision struct {
	Relevant bool
	// RejectedBy names the gate that rejected the item; empty when relevant.
	RejectedBy string
	// Density is the measured domain-term density when the gate ran.
	Density float64
}

// Stats aggregates gate outcomes across a run.
type Stats struct {
	Evaluated            int
	PassedKeyword        int
	PassedDensity        int
	PassedClassification int
	Relevant             int
}

// Record folds one decision into the counters.
func (s *Stats) Record(d Decision) {
	s.Evaluated++
	if d.RejectedBy == GateKeyword {
		return
	}
	s.PassedKeyword++
	if d.RejectedBy == GateDensity {
		return
	}
	s.PassedDensity++
	if d.RejectedBy == GateClassification {
		return
	}
	s.PassedClassification++
	if d.Relevant {
		s.Relevant++
	}
}

// Pipeline evaluates items against the three gates.
type Pipeline struct {
	cfg        Config
	classifier Classifier
	logger     zerolog.Logger
}

func NewPipeline(cfg Config, classifier Classifier, logger zerolog.Logger) *Pipeline {
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = DefaultKeywords
	}
	if len(cfg.DomainTerms) == 0 {
		cfg.DomainTerms = DefaultDomainTerms
	}
	return &Pipeline{cfg: cfg, classifier: classifier, logger: logger}
}

// Evaluate runs the gates in order. A nil transcript means the collaborator
// had none; the density gate then passes on the strength of the keyword
// match rather than rejecting on missing data. Classification errors also
// pass: an outage must not silently exclude content, only extraction
// failures downstream may. Cancellation is checked between gates.
func (p *Pipeline) Evaluate(ctx context.Context, item source.Item, transcript []source.Segment, opts Options) (Decision, error) {
	if !p.matchesKeywords(item.Title, item.Description) {
		p.logger.Debug().Str("video_id", item.ID).Msg("keyword gate rejected item")
		return Decision{RejectedBy: GateKeyword}, nil
	}

	if opts.TitleOnly {
		return Decision{Relevant: true}, nil
	}

	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	decision := Decision{}
	if transcript == nil {
		p.logger.Debug().Str("video_id", item.ID).Msg("no transcript, density gate passes on keyword evidence")
	} else {
		decision.Density = p.termDensity(transcript)
		if decision.Density < p.cfg.DensityThreshold {
			p.logger.Debug().
				Str("video_id", item.ID).
				Float64("density", decision.Density).
				Float64("threshold", p.cfg.DensityThreshold).
				Msg("density gate rejected item")
			decision.RejectedBy = GateDensity
			return decision, nil
		}
	}

	if opts.SkipClassification {
		decision.Relevant = true
		return decision, nil
	}

	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	if !p.classify(ctx, item, transcript) {
		decision.RejectedBy = GateClassification
		return decision, nil
	}

	decision.Relevant = true
	return decision, nil
}

// matchesKeywords passes when the case-folded title+description contains at
// least one configured keyword.
func (p *Pipeline) matchesKeywords(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, keyword := range p.cfg.Keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// termDensity is domain-term hits per transcript character, as a percentage.
func (p *Pipeline) termDensity(transcript []source.Segment) float64 {
	fullText := source.JoinText(transcript)
	totalChars := utf8.RuneCountInString(fullText)
	if totalChars == 0 {
		return 0
	}

	hits := 0
	for _, term := range p.cfg.DomainTerms {
		hits += strings.Count(fullText, term)
	}
	return float64(hits) / float64(totalChars) * 100
}

// classify asks the reasoning service for a yes/no verdict. Any answer
// containing "yes" is affirmative; errors fail open.
func (p *Pipeline) classify(ctx context.Context, item source.Item, transcript []source.Segment) bool {
	answer, err := p.classifier.Generate(ctx, classificationPrompt(item, transcript))
	if err != nil {
		p.logger.Warn().Err(err).Str("video_id", item.ID).Msg("classification call failed, passing item through")
		return true
	}

	folded := strings.ToLower(strings.TrimSpace(answer))
	return strings.HasPrefix(folded, "yes") || strings.Contains(folded, "yes")
}

func classificationPrompt(item source.Item, transcript []source.Segment) string {
	description := truncateRunes(item.Description, maxDescriptionSample)
	if description == "" {
		description = "(none)"
	}
	sample := truncateRunes(source.JoinText(transcript), maxTranscriptSample)
	if sample == "" {
		sample = "(none)"
	}

	return fmt.Sprintf(`Is the following YouTube video a review or showcase of cosmetics (makeup or skincare products)?
Answer with exactly one word: Yes or No.

Title:
%s

Description (beginning):
%s

Transcript (beginning):
%s
`, item.Title, description, sample)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
