package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"GS_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"GS_DB_MAX_CONNS" default:"8"`

	// Reasoning service. Keys are a comma-separated pool; a single
	// REASONING_API_KEY is accepted as a fallback for one-key setups.
	ReasoningProvider string `envconfig:"REASONING_PROVIDER" default:"openai"`
	ReasoningModel    string `envconfig:"REASONING_MODEL" default:"gpt-4o-mini"`
	ReasoningAPIKeys  string `envconfig:"REASONING_API_KEYS" default:""`
	ReasoningAPIKey   string `envconfig:"REASONING_API_KEY" default:""`

	// Key rotation. The backoff step and cooldown match the provider's
	// observed quota reset cadence; they are tuned values, not derived.
	RetryBackoffStep      time.Duration `envconfig:"RETRY_BACKOFF_STEP" default:"15s"`
	PoolCooldown          time.Duration `envconfig:"POOL_COOLDOWN" default:"60s"`
	RetryBudgetMultiplier int           `envconfig:"RETRY_BUDGET_MULTIPLIER" default:"2"`

	// Relevance gates. Empty lists fall back to the built-in vocabulary.
	RelevanceKeywords string  `envconfig:"RELEVANCE_KEYWORDS" default:""`
	DomainTerms       string  `envconfig:"DOMAIN_TERMS" default:""`
	DensityThreshold  float64 `envconfig:"DENSITY_THRESHOLD" default:"0.3"`

	// Identity resolution.
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.85"`
	BrandBonusThreshold float64 `envconfig:"BRAND_BONUS_THRESHOLD" default:"0.7"`
	BrandBonus          float64 `envconfig:"BRAND_BONUS" default:"0.1"`

	// CourtesyDelay spaces out consecutive reasoning calls inside a batch.
	CourtesyDelay time.Duration `envconfig:"COURTESY_DELAY" default:"1s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("GS_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("GS_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("GS_DB_MIN_CONNS (%d) cannot exceed GS_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RetryBudgetMultiplier < 1 {
		return fmt.Errorf("RETRY_BUDGET_MULTIPLIER must be >= 1")
	}
	if c.RetryBackoffStep < 0 || c.PoolCooldown < 0 {
		return fmt.Errorf("retry durations must not be negative")
	}
	if c.DensityThreshold < 0 {
		return fmt.Errorf("DENSITY_THRESHOLD must be >= 0")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.BrandBonusThreshold < 0 || c.BrandBonusThreshold > 1 {
		return fmt.Errorf("BRAND_BONUS_THRESHOLD must be in [0, 1]")
	}
	if c.BrandBonus < 0 {
		return fmt.Errorf("BRAND_BONUS must be >= 0")
	}
	return nil
}

// ReasoningAPIKeyList returns the configured key pool. The plural variable
// wins; the singular one is the one-key fallback.
func (c *Config) ReasoningAPIKeyList() []string {
	keys := splitTrimmed(c.ReasoningAPIKeys)
	if len(keys) > 0 {
		return keys
	}
	if single := strings.TrimSpace(c.ReasoningAPIKey); single != "" {
		return []string{single}
	}
	return nil
}

// RelevanceKeywordList returns the configured keyword overrides, nil when
// the built-in defaults should apply.
func (c *Config) RelevanceKeywordList() []string {
	return splitTrimmed(c.RelevanceKeywords)
}

// DomainTermList returns the configured domain-term overrides, nil when the
// built-in defaults should apply.
func (c *Config) DomainTermList() []string {
	return splitTrimmed(c.DomainTerms)
}

func splitTrimmed(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil
	}
	return values
}
