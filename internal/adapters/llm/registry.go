package llm

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/core"
)

// Registry maps provider ids to gateways.
type Registry struct {
	gateways map[string]core.LLMGateway
}

// NewRegistry builds a registry from the given gateways, keyed by Provider().
func NewRegistry(gateways ...core.LLMGateway) *Registry {
	r := &Registry{gateways: make(map[string]core.LLMGateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Provider()] = g
	}
	return r
}

// NewRegistryFromConfig registers a gateway for every supported provider.
func NewRegistryFromConfig(cfg config.ProvidersConfig, logger *slog.Logger) *Registry {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	opts := func(p config.ProviderEndpoint) HTTPGatewayOptions {
		return HTTPGatewayOptions{
			APIKey:     p.APIKey,
			BaseURL:    p.BaseURL,
			HTTPClient: client,
			Logger:     logger,
			RateLimit:  p.RateLimit,
			RateBurst:  p.RateBurst,
		}
	}
	return NewRegistry(
		NewOpenAIGateway(opts(cfg.OpenAI)),
		NewAnthropicGateway(opts(cfg.Anthropic)),
		NewGoogleGateway(opts(cfg.Google)),
		NewOpenRouterGateway(opts(cfg.OpenRouter)),
		NewOllamaGateway(opts(cfg.Ollama)),
		NewLlamaCPPGateway(opts(cfg.LlamaCPP)),
		NewMockGateway(MockGatewayOptions{
			MinDelay:    cfg.Mock.MinDelay,
			MaxDelay:    cfg.Mock.MaxDelay,
			FailureRate: cfg.Mock.FailureRate,
		}),
	)
}

// Gateway returns the gateway for provider.
//
//nolint:ireturn // callers only need the capability
func (r *Registry) Gateway(provider string) (core.LLMGateway, error) {
	g, ok := r.gateways[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	return g, nil
}

// Providers returns the registered provider ids in sorted order.
func (r *Registry) Providers() []string {
	out := make([]string, 0, len(r.gateways))
	for p := range r.gateways {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
