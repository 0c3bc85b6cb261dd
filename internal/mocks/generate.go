// Package mocks provides mock implementations for testing the llmlab service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the core interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockExperimentRepository(ctrl)
//	repo.EXPECT().GetByID(gomock.Any(), "exp-1").Return(exp, nil)
package mocks

// Experiment persistence: Create, GetByID, List, UpdateStatus, DeletePending
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=experiment_repository_mock.go github.com/target/llmlab/internal/core ExperimentRepository

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=experiment_reaper_repository_mock.go github.com/target/llmlab/internal/core ExperimentReaperRepository

// Result persistence: SaveResults, ListByExperiment
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=llm_response_repository_mock.go github.com/target/llmlab/internal/core LLMResponseRepository

// Provider routing: LLMGateway, GatewayRegistry, ModelCatalog
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=llm_gateway_mock.go github.com/target/llmlab/internal/core LLMGateway
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=gateway_registry_mock.go github.com/target/llmlab/internal/core GatewayRegistry
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=model_catalog_mock.go github.com/target/llmlab/internal/core ModelCatalog

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=experiment_processor_mock.go github.com/target/llmlab/internal/core ExperimentProcessor
