package config

import "time"

// LLMConfig controls how generation jobs are fanned out to providers.
// Values are read with the LLM_ prefix (LLM_CONCURRENCY, LLM_RETRIES, ...).
type LLMConfig struct {
	// Concurrency caps in-flight provider calls per experiment.
	Concurrency int `env:"CONCURRENCY" envDefault:"4"`

	// Retries is the number of additional attempts after the first failure.
	Retries int `env:"RETRIES" envDefault:"2"`

	// BackoffFactor is the delay before the first retry; it doubles per attempt.
	BackoffFactor time.Duration `env:"BACKOFF_FACTOR" envDefault:"500ms"`

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `env:"MAX_BACKOFF" envDefault:"4s"`

	// Timeout is the hard deadline for a single provider call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`

	// MaxTokens is passed to every provider call.
	MaxTokens int `env:"MAX_TOKENS" envDefault:"1000"`

	// DefaultTemperature and DefaultTopP apply in multi-model mode when the
	// request omits them.
	DefaultTemperature float64 `env:"DEFAULT_TEMPERATURE" envDefault:"0.7"`
	DefaultTopP        float64 `env:"DEFAULT_TOP_P"       envDefault:"0.9"`
}

// Sanitize replaces out-of-range values with the defaults.
func (c *LLMConfig) Sanitize() {
	if c.Concurrency < 1 {
		c.Concurrency = 4
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 4 * time.Second
	}
	if c.MaxBackoff < c.BackoffFactor {
		c.MaxBackoff = c.BackoffFactor
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1000
	}
}
