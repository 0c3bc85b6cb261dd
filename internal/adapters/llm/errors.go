// Package llm provides the upstream provider gateways, the provider registry
// and the model catalog.
package llm

import "errors"

var (
	// ErrUnsupportedProvider is returned when no gateway is registered for a provider id.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrUnknownModel is returned when a model id cannot be mapped to a provider.
	ErrUnknownModel = errors.New("unknown model")
)

// Provider identifiers.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGoogle     = "google"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderLlamaCPP   = "llama_cpp"
	ProviderMock       = "mock"
)
