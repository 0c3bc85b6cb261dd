package config

import (
	"strings"
	"time"
)

// ProviderEndpoint holds the connection settings for one upstream provider.
// An empty BaseURL selects the provider's public default.
type ProviderEndpoint struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`

	// RateLimit caps calls per second to the provider; 0 disables pacing.
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"0"`
	RateBurst int     `env:"RATE_BURST" envDefault:"1"`
}

func (p *ProviderEndpoint) sanitize() {
	p.APIKey = strings.TrimSpace(p.APIKey)
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.RateLimit < 0 {
		p.RateLimit = 0
	}
	if p.RateBurst < 1 {
		p.RateBurst = 1
	}
}

// MockProviderConfig tunes the built-in mock provider.
type MockProviderConfig struct {
	MinDelay    time.Duration `env:"MIN_DELAY"    envDefault:"500ms"`
	MaxDelay    time.Duration `env:"MAX_DELAY"    envDefault:"2s"`
	FailureRate float64       `env:"FAILURE_RATE" envDefault:"0.05"`
}

func (m *MockProviderConfig) sanitize() {
	if m.MinDelay < 0 {
		m.MinDelay = 0
	}
	if m.MaxDelay < m.MinDelay {
		m.MaxDelay = m.MinDelay
	}
	if m.FailureRate < 0 {
		m.FailureRate = 0
	}
	if m.FailureRate > 1 {
		m.FailureRate = 1
	}
}

// ProvidersConfig configures the upstream LLM providers.
type ProvidersConfig struct {
	OpenAI     ProviderEndpoint   `envPrefix:"OPENAI_"`
	Anthropic  ProviderEndpoint   `envPrefix:"ANTHROPIC_"`
	Google     ProviderEndpoint   `envPrefix:"GOOGLE_"`
	OpenRouter ProviderEndpoint   `envPrefix:"OPENROUTER_"`
	Ollama     ProviderEndpoint   `envPrefix:"OLLAMA_"`
	LlamaCPP   ProviderEndpoint   `envPrefix:"LLAMA_CPP_"`
	Mock       MockProviderConfig `envPrefix:"MOCK_PROVIDER_"`

	// HTTPTimeout bounds a single upstream HTTP exchange. Expiry is reported as
	// a timeout failure, like the per-job LLM timeout.
	HTTPTimeout time.Duration `env:"PROVIDER_HTTP_TIMEOUT" envDefault:"30s"`

	// ModelProviders extends the built-in model catalog, e.g.
	// PROVIDER_MODEL_MAP="llama3.1:8b=ollama,mistral-large=openrouter".
	ModelProviders map[string]string `env:"PROVIDER_MODEL_MAP" envKeyValSeparator:"="`

	// OllamaDiscovery resolves unknown models against the Ollama tag list.
	OllamaDiscovery bool `env:"PROVIDER_OLLAMA_DISCOVERY" envDefault:"true"`
}

// Sanitize trims endpoint values and clamps mock settings.
func (c *ProvidersConfig) Sanitize() {
	for _, p := range []*ProviderEndpoint{&c.OpenAI, &c.Anthropic, &c.Google, &c.OpenRouter, &c.Ollama, &c.LlamaCPP} {
		p.sanitize()
	}
	c.Mock.sanitize()
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	cleaned := make(map[string]string, len(c.ModelProviders))
	for model, provider := range c.ModelProviders {
		model = strings.TrimSpace(model)
		provider = strings.ToLower(strings.TrimSpace(provider))
		if model == "" || provider == "" {
			continue
		}
		cleaned[model] = provider
	}
	c.ModelProviders = cleaned
}
