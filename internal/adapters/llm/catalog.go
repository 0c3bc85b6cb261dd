package llm

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/target/llmlab/internal/domain/model"
)

// maxDiscoveredModels limits how many Ollama models are advertised.
const maxDiscoveredModels = 2

// DefaultModels lists the models routed without configuration.
func DefaultModels() []model.ModelInfo {
	return []model.ModelInfo{
		{ID: "gpt-5", Name: "GPT-5", Provider: ProviderOpenAI},
		{ID: "gpt-4o", Name: "GPT-4o", Provider: ProviderOpenAI},
		{ID: "claude-4", Name: "Claude 4", Provider: ProviderAnthropic},
		{ID: "claude-3-7-sonnet-20250219", Name: "Claude 3.7 Sonnet", Provider: ProviderAnthropic},
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: ProviderGoogle},
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: ProviderGoogle},
		{
			ID:          "openai/gpt-oss-20b:free",
			Name:        "GPT-OSS (via OpenRouter)",
			Provider:    ProviderOpenRouter,
			Description: "OpenAI GPT-OSS through OpenRouter",
		},
		{
			ID:          model.MockModel,
			Name:        "Mock LLM (Testing)",
			Provider:    ProviderMock,
			Description: "Mock LLM for testing parameter variations without API calls",
		},
	}
}

// ModelLister returns model ids served by a discoverable backend.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// CatalogOptions configures NewCatalog.
type CatalogOptions struct {
	// Extra maps additional model ids to provider ids.
	Extra map[string]string
	// Ollama resolves models not found in the static table. Optional.
	Ollama ModelLister
	Logger *slog.Logger
}

// Catalog resolves model ids to provider ids.
type Catalog struct {
	models    []model.ModelInfo
	providers map[string]string
	ollama    ModelLister
	logger    *slog.Logger
}

// NewCatalog builds a catalog from DefaultModels plus opts.Extra.
func NewCatalog(opts CatalogOptions) *Catalog {
	models := DefaultModels()
	providers := make(map[string]string, len(models)+len(opts.Extra))
	for _, m := range models {
		providers[m.ID] = m.Provider
	}

	extraIDs := make([]string, 0, len(opts.Extra))
	for id := range opts.Extra {
		extraIDs = append(extraIDs, id)
	}
	slices.Sort(extraIDs)
	for _, id := range extraIDs {
		provider := opts.Extra[id]
		if _, known := providers[id]; !known {
			models = append(models, model.ModelInfo{ID: id, Name: id, Provider: provider})
		}
		providers[id] = provider
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		models:    models,
		providers: providers,
		ollama:    opts.Ollama,
		logger:    logger.With("component", "model_catalog"),
	}
}

// ProviderFor returns the provider id serving modelID.
func (c *Catalog) ProviderFor(ctx context.Context, modelID string) (string, error) {
	id := strings.TrimSpace(modelID)
	if p, ok := c.providers[id]; ok {
		return p, nil
	}
	if c.ollama != nil {
		names, err := c.ollama.ListModels(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "ollama model lookup failed", "model", id, "error", err)
		} else if slices.Contains(names, id) {
			return ProviderOllama, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
}

// Models lists routable models, including a few discovered Ollama models.
func (c *Catalog) Models(ctx context.Context) []model.ModelInfo {
	out := slices.Clone(c.models)
	if c.ollama == nil {
		return out
	}
	names, err := c.ollama.ListModels(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "ollama model discovery failed", "error", err)
		return out
	}
	for i, name := range names {
		if i == maxDiscoveredModels {
			break
		}
		if _, known := c.providers[name]; known {
			continue
		}
		out = append(out, model.ModelInfo{ID: name, Name: name, Provider: ProviderOllama})
	}
	return out
}
