package confirm

import "time"

// Default polling budgets.
const (
	// DefaultInflightAttempts bounds Phase 1 polling of the engine's own view.
	DefaultInflightAttempts = 30

	// DefaultInflightInterval is the delay between Phase 1 attempts.
	DefaultInflightInterval = 2 * time.Second

	// DefaultFinalityAttempts bounds Phase 2 polling once a bundle landed.
	DefaultFinalityAttempts = 10

	// DefaultFinalityInterval is the delay between Phase 2 attempts.
	DefaultFinalityInterval = 2 * time.Second

	// DefaultSignatureAttempts bounds ledger polling of plain transactions.
	DefaultSignatureAttempts = 30

	// DefaultSignatureInterval is the delay between signature status attempts.
	DefaultSignatureInterval = 500 * time.Millisecond
)

// PhaseConfig is the attempt budget of one polling phase.
type PhaseConfig struct {
	// MaxAttempts is the number of status queries before giving up.
	MaxAttempts int

	// Interval is the delay after each unsuccessful attempt.
	Interval time.Duration

	// MaxInterval enables exponential backoff when larger than Interval:
	// the delay doubles after each attempt up to MaxInterval. Zero keeps a
	// fixed delay.
	MaxInterval time.Duration
}

// delay returns the wait after the given 1-based attempt.
func (c PhaseConfig) delay(attempt int) time.Duration {
	if c.MaxInterval <= c.Interval {
		return c.Interval
	}

	d := c.Interval
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.MaxInterval {
			return c.MaxInterval
		}
	}
	return d
}

func (c PhaseConfig) withDefaults(defaults PhaseConfig) PhaseConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	return c
}

// Config holds the budgets of every polling phase.
type Config struct {
	// Inflight is the Phase 1 budget for bundles.
	Inflight PhaseConfig

	// Finality is the Phase 2 budget for bundles.
	Finality PhaseConfig

	// Signature is the budget for plain transactions on the ledger.
	Signature PhaseConfig
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Inflight: PhaseConfig{
			MaxAttempts: DefaultInflightAttempts,
			Interval:    DefaultInflightInterval,
		},
		Finality: PhaseConfig{
			MaxAttempts: DefaultFinalityAttempts,
			Interval:    DefaultFinalityInterval,
		},
		Signature: PhaseConfig{
			MaxAttempts: DefaultSignatureAttempts,
			Interval:    DefaultSignatureInterval,
		},
	}
}

// WithDefaults applies default values for any unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	c.Inflight = c.Inflight.withDefaults(defaults.Inflight)
	c.Finality = c.Finality.withDefaults(defaults.Finality)
	c.Signature = c.Signature.withDefaults(defaults.Signature)

	return c
}
