package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"glow.fit/glowscan/internal/config"
	"glow.fit/glowscan/internal/reasoning"
)

// buildReasoningPool assembles the provider registry and wraps the configured
// provider in a rotating key pool.
func buildReasoningPool(cfg *config.Config, logger zerolog.Logger) (*reasoning.KeyPool, error) {
	keys := cfg.ReasoningAPIKeyList()
	if len(keys) == 0 {
		return nil, fmt.Errorf("no reasoning API keys configured; set REASONING_API_KEYS")
	}

	registry := reasoning.NewRegistry(reasoning.DefaultProviderName)
	if err := registry.Register(reasoning.NewOpenAIProvider(cfg.ReasoningModel)); err != nil {
		return nil, err
	}
	if err := registry.Register(reasoning.NewAnthropicProvider(cfg.ReasoningModel)); err != nil {
		return nil, err
	}

	provider, err := registry.Provider(cfg.ReasoningProvider)
	if err != nil {
		return nil, fmt.Errorf("resolve reasoning provider: %w", err)
	}

	poolCfg := reasoning.DefaultPoolConfig(keys)
	poolCfg.BackoffStep = cfg.RetryBackoffStep
	poolCfg.Cooldown = cfg.PoolCooldown
	poolCfg.BudgetMultiplier = cfg.RetryBudgetMultiplier

	return reasoning.NewKeyPool(provider, poolCfg, logger), nil
}
