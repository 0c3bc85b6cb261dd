package data

import (
	"errors"

	apperrors "github.com/target/llmlab/internal/errors"
)

// Shared sentinel errors for data-layer repositories. Sentinels that callers
// surface to clients carry an apperrors code.
var (
	ErrExperimentNotFound      = apperrors.NotFound("experiment not found")
	ErrExperimentIDRequired    = apperrors.ValidationField("id", "experiment id is required")
	ErrOriginalMessageRequired = apperrors.ValidationField("original_message", "original_message is required")
	ErrInvalidStatusTransition = errors.New("invalid experiment status transition")

	ErrExperimentRepoNotReady  = errors.New("experiment repository not configured")
	ErrLLMResponseRepoNotReady = errors.New("llm response repository not configured")

	ErrEmptyCacheKey = errors.New("key cannot be empty")
)
