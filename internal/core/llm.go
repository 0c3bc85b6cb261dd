package core

import (
	"context"
	"time"

	"github.com/target/llmlab/internal/domain/model"
)

// GenerateRequest is one generation call against an upstream provider.
type GenerateRequest struct {
	Prompt      string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Model       string
}

// GenerateResult is the provider-neutral outcome of a generation call. Upstream
// failures are reported with Success=false and Error set.
type GenerateResult struct {
	ResponseText  string
	TokensUsed    *int
	ExecutionTime time.Duration
	Success       bool
	Error         string
}

// LLMGateway performs generation calls against one upstream provider.
// Generate returns an error only when ctx is done.
type LLMGateway interface {
	Provider() string
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// GatewayRegistry looks up gateways by provider id.
type GatewayRegistry interface {
	Gateway(provider string) (LLMGateway, error)
}

// ModelCatalog maps model ids to provider ids.
type ModelCatalog interface {
	ProviderFor(ctx context.Context, modelID string) (string, error)
	Models(ctx context.Context) []model.ModelInfo
}

// ExperimentProcessor runs the generation jobs of one experiment and persists
// their results.
type ExperimentProcessor interface {
	Process(ctx context.Context, experimentID string, req *model.LLMRequest) (*model.LLMResponse, error)
}
