package core

import (
	"context"
	"time"

	"github.com/target/llmlab/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// ExperimentRepository defines the interface for experiment data operations.
type ExperimentRepository interface {
	Create(ctx context.Context, req *model.CreateExperimentRequest) (*model.Experiment, error)
	GetByID(ctx context.Context, id string) (*model.Experiment, error)
	List(ctx context.Context, opts model.ListExperimentsOptions) ([]*model.Experiment, error)
	// UpdateStatus applies a state machine transition. It returns false when the
	// experiment does not exist or is not in a status the transition allows.
	UpdateStatus(ctx context.Context, params UpdateExperimentStatusParams) (bool, error)
	// DeletePending removes an experiment that is still pending and reports
	// whether a row was deleted.
	DeletePending(ctx context.Context, id string) (bool, error)
}

// UpdateExperimentStatusParams groups parameters for ExperimentRepository.UpdateStatus.
type UpdateExperimentStatusParams struct {
	ID           string
	Status       model.ExperimentStatus
	ErrorMessage *string
}

// LLMResponseRepository defines the interface for persisted generation results.
type LLMResponseRepository interface {
	// SaveResults stores results in input order within a single transaction.
	SaveResults(ctx context.Context, experimentID string, results []model.JobResult) ([]*model.LLMResponseRecord, error)
	ListByExperiment(ctx context.Context, experimentID string) ([]*model.LLMResponseRecord, error)
}

// ExperimentReaperRepository defines cleanup operations for the background reaper.
type ExperimentReaperRepository interface {
	// FailStaleRunning marks running experiments that have not been updated
	// within MaxAge as failed and returns how many rows changed.
	FailStaleRunning(ctx context.Context, params FailStaleExperimentsParams) (int64, error)
	// DeleteOldExperiments removes experiments in one of Statuses that are older
	// than MaxAge. Their results are removed with them.
	DeleteOldExperiments(ctx context.Context, params DeleteOldExperimentsParams) (int64, error)
}

// FailStaleExperimentsParams groups parameters for ExperimentReaperRepository.FailStaleRunning.
type FailStaleExperimentsParams struct {
	MaxAge    time.Duration
	BatchSize int
	// ExcludeIDs are runs still live in this process.
	ExcludeIDs   []string
	ErrorMessage string
}

// DeleteOldExperimentsParams groups parameters for ExperimentReaperRepository.DeleteOldExperiments.
type DeleteOldExperimentsParams struct {
	Statuses  []model.ExperimentStatus
	MaxAge    time.Duration
	BatchSize int
}
