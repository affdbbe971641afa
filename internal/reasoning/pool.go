package reasoning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PoolConfig holds the rotation and backoff tunables. The backoff step and
// cooldown were tuned empirically against the provider's quota reset cadence;
// keep them configured, not inlined.
type PoolConfig struct {
	Keys []string
	// BackoffStep scales the linear backoff: attempt n sleeps n*BackoffStep
	// before rotating to the next key. Linear on purpose; the quota window
	// resets on a fixed cadence, so exponential growth only wastes time.
	BackoffStep time.Duration
	// Cooldown is the fixed sleep before a full-pool reset once every key is
	// rate limited.
	Cooldown time.Duration
	// BudgetMultiplier bounds total attempts at BudgetMultiplier*len(Keys).
	BudgetMultiplier int
}

// DefaultPoolConfig returns the production rotation tunables for keys.
func DefaultPoolConfig(keys []string) PoolConfig {
	return PoolConfig{
		Keys:             keys,
		BackoffStep:      15 * time.Second,
		Cooldown:         60 * time.Second,
		BudgetMultiplier: 2,
	}
}

// KeyPool routes reasoning calls through a rotating set of API keys. The
// active index and the exhausted set are shared by every caller in the
// process: a rotation decided by one caller must steer the next caller's
// first attempt. Both are guarded by a single mutex, and the pool never
// sleeps while holding it, so backoff blocks only the caller that hit the
// quota.
type KeyPool struct {
	provider Provider
	cfg      PoolConfig
	logger   zerolog.Logger

	mu        sync.Mutex
	active    int
	exhausted map[int]struct{}
}

func NewKeyPool(provider Provider, cfg PoolConfig, logger zerolog.Logger) *KeyPool {
	if cfg.BackoffStep < 0 {
		cfg.BackoffStep = 0
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.BudgetMultiplier < 1 {
		cfg.BudgetMultiplier = 1
	}
	return &KeyPool{
		provider:  provider,
		cfg:       cfg,
		logger:    logger.With().Str("provider", provider.Name()).Logger(),
		exhausted: make(map[int]struct{}, len(cfg.Keys)),
	}
}

// KeyCount returns the number of configured keys.
func (p *KeyPool) KeyCount() int {
	return len(p.cfg.Keys)
}

// Generate sends the prompt with the active key, rotating through the pool on
// rate-limit failures. A quota failure sleeps a linear backoff, marks the key
// exhausted and switches to the next free key; when every key is exhausted
// the pool cools down, clears the exhausted set and starts over from key 0.
// Non-quota provider errors propagate immediately without rotation. After
// BudgetMultiplier*len(Keys) quota failures the call fails with
// ErrKeysExhausted.
func (p *KeyPool) Generate(ctx context.Context, prompt string) (string, error) {
	if len(p.cfg.Keys) == 0 {
		return "", fmt.Errorf("no reasoning API keys configured")
	}

	budget := p.cfg.BudgetMultiplier * len(p.cfg.Keys)
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		index, key := p.activeKey()
		text, err := p.provider.Generate(ctx, key, prompt)
		if err == nil {
			p.markHealthy(index)
			return text, nil
		}
		if !IsQuota(err) {
			return "", err
		}

		attempts++
		if attempts >= budget {
			return "", fmt.Errorf("%w: %d attempts across %d keys", ErrKeysExhausted, attempts, len(p.cfg.Keys))
		}

		wait := time.Duration(attempts) * p.cfg.BackoffStep
		p.logger.Warn().
			Int("key_index", index).
			Int("attempt", attempts).
			Dur("backoff", wait).
			Msg("reasoning key rate limited, backing off before rotation")
		if err := sleepContext(ctx, wait); err != nil {
			return "", err
		}

		if !p.rotateFrom(index) {
			p.logger.Warn().
				Int("keys", len(p.cfg.Keys)).
				Dur("cooldown", p.cfg.Cooldown).
				Msg("every reasoning key is rate limited, cooling down before reset")
			if err := sleepContext(ctx, p.cfg.Cooldown); err != nil {
				return "", err
			}
			p.reset()
		}
	}
}

func (p *KeyPool) activeKey() (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active, p.cfg.Keys[p.active]
}

// markHealthy removes the key from the exhausted set; a key that just
// completed a call is assumed to be back under quota.
func (p *KeyPool) markHealthy(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.exhausted, index)
}

// rotateFrom marks the failing key exhausted and scans forward circularly for
// the first free key. Returns false when no free key remains.
func (p *KeyPool) rotateFrom(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.exhausted[index] = struct{}{}

	for offset := 1; offset <= len(p.cfg.Keys); offset++ {
		next := (index + offset) % len(p.cfg.Keys)
		if _, used := p.exhausted[next]; !used {
			if next != p.active {
				p.logger.Info().Int("from", p.active).Int("to", next).Msg("switching reasoning key")
			}
			p.active = next
			return true
		}
	}
	return false
}

// reset clears the exhausted set and starts over from the first key.
func (p *KeyPool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exhausted = make(map[int]struct{}, len(p.cfg.Keys))
	p.active = 0
}

// snapshot returns the shared rotation state for tests and diagnostics.
func (p *KeyPool) snapshot() (active int, exhausted map[int]struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	copied := make(map[int]struct{}, len(p.exhausted))
	for index := range p.exhausted {
		copied[index] = struct{}{}
	}
	return p.active, copied
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
