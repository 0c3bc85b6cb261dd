package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/domain/job"
	"github.com/target/llmlab/internal/domain/model"
	apperrors "github.com/target/llmlab/internal/errors"
	"github.com/target/llmlab/internal/observability/metrics"
	"github.com/target/llmlab/internal/observability/statsd"
)

// transitionTimeout bounds status writes made after a run's own context ended.
const transitionTimeout = 10 * time.Second

var (
	// ErrExperimentAlreadyRunning is returned when Start is called for an id with a live run.
	ErrExperimentAlreadyRunning = apperrors.Conflict("experiment is already running")
	// ErrExperimentNotPending is returned when an experiment cannot move to running.
	ErrExperimentNotPending = apperrors.Conflict("experiment is not pending")
	// ErrExperimentServiceStopped is the cancellation cause of runs interrupted by Shutdown.
	ErrExperimentServiceStopped = errors.New("experiment service stopped")
)

// ExperimentServiceOptions groups dependencies for ExperimentService.
type ExperimentServiceOptions struct {
	Experiments core.ExperimentRepository  // Required: experiment repository
	Responses   core.LLMResponseRepository // Required: persisted results for status views
	Processor   core.ExperimentProcessor   // Required: runs generation jobs
	Registry    *job.Registry              // Optional: live run registry, one is created when nil
	ViewCache   *core.ExperimentViewCache  // Optional: terminal status view cache
	Metrics     statsd.Sink                // Optional: metrics sink
	Logger      *slog.Logger               // Optional: structured logger
}

// ExperimentService drives experiments through
// pending -> running -> {completed, failed, cancelled} and runs them in the background.
type ExperimentService struct {
	experiments core.ExperimentRepository
	responses   core.LLMResponseRepository
	processor   core.ExperimentProcessor
	registry    *job.Registry
	viewCache   *core.ExperimentViewCache
	metrics     statsd.Sink
	logger      *slog.Logger

	// Background runs derive from this context instead of the request context.
	baseCtx  context.Context
	stopRuns context.CancelCauseFunc
}

// NewExperimentService constructs a new ExperimentService.
func NewExperimentService(opts ExperimentServiceOptions) (*ExperimentService, error) {
	if opts.Experiments == nil {
		return nil, errors.New("ExperimentRepository is required")
	}
	if opts.Responses == nil {
		return nil, errors.New("LLMResponseRepository is required")
	}
	if opts.Processor == nil {
		return nil, errors.New("ExperimentProcessor is required")
	}

	registry := opts.Registry
	if registry == nil {
		registry = job.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baseCtx, stop := context.WithCancelCause(context.Background())
	return &ExperimentService{
		experiments: opts.Experiments,
		responses:   opts.Responses,
		processor:   opts.Processor,
		registry:    registry,
		viewCache:   opts.ViewCache,
		metrics:     opts.Metrics,
		logger:      logger.With("component", "experiment_service"),
		baseCtx:     baseCtx,
		stopRuns:    stop,
	}, nil
}

// MustNewExperimentService is like NewExperimentService but panics on error.
func MustNewExperimentService(opts ExperimentServiceOptions) *ExperimentService {
	s, err := NewExperimentService(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Create stores a new pending experiment.
func (s *ExperimentService) Create(ctx context.Context, name, originalMessage string) (*model.Experiment, error) {
	exp, err := s.experiments.Create(ctx, &model.CreateExperimentRequest{
		Name:            name,
		OriginalMessage: originalMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("create experiment: %w", err)
	}
	s.logger.InfoContext(ctx, "experiment created", "experiment_id", exp.ID, "name", exp.Name)
	return exp, nil
}

// List returns experiments, newest first.
func (s *ExperimentService) List(ctx context.Context, opts model.ListExperimentsOptions) ([]*model.Experiment, error) {
	return s.experiments.List(ctx, opts)
}

// Start moves a pending experiment to running and processes req in the
// background. It returns as soon as the run is registered.
func (s *ExperimentService) Start(ctx context.Context, id string, req *model.LLMRequest) error {
	if req == nil {
		return ErrNilLLMRequest
	}
	if s.registry.Has(id) {
		return ErrExperimentAlreadyRunning
	}
	if err := s.baseCtx.Err(); err != nil {
		return context.Cause(s.baseCtx)
	}

	if err := s.viewCache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate experiment view", "experiment_id", id, "error", err)
	}
	if err := s.begin(ctx, id); err != nil {
		return err
	}

	err := s.registry.Go(s.baseCtx, id,
		func(runCtx context.Context) error {
			_, err := s.processor.Process(runCtx, id, req)
			return err
		},
		func(runCtx context.Context, err error) {
			s.finish(runCtx, id, err)
		},
	)
	if err != nil {
		if errors.Is(err, job.ErrTaskExists) {
			return ErrExperimentAlreadyRunning
		}
		return fmt.Errorf("register experiment run: %w", err)
	}

	s.logger.InfoContext(ctx, "experiment started", "experiment_id", id, "single_llm", req.SingleLLM)
	return nil
}

// Submit creates an experiment for req and starts it in the background. An
// experiment that could not be started is deleted rather than left pending.
func (s *ExperimentService) Submit(ctx context.Context, req *model.LLMRequest) (*model.Experiment, error) {
	if req == nil {
		return nil, ErrNilLLMRequest
	}
	exp, err := s.Create(ctx, req.ExperimentName, req.Prompt)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx, exp.ID, req); err != nil {
		s.discard(ctx, exp.ID, err)
		return nil, err
	}
	exp.Status = model.ExperimentStatusRunning
	return exp, nil
}

// SubmitSync creates an experiment for req and runs it on the caller's
// context. The experiment is returned whenever it was created; like Submit,
// one that could not move to running is deleted and nil is returned.
func (s *ExperimentService) SubmitSync(ctx context.Context, req *model.LLMRequest) (*model.Experiment, *model.LLMResponse, error) {
	if req == nil {
		return nil, nil, ErrNilLLMRequest
	}
	exp, err := s.Create(ctx, req.ExperimentName, req.Prompt)
	if err != nil {
		return nil, nil, err
	}
	if err := s.begin(ctx, exp.ID); err != nil {
		s.discard(ctx, exp.ID, err)
		return nil, nil, err
	}
	resp, err := s.process(ctx, exp.ID, req)
	return exp, resp, err
}

// RunSync moves a pending experiment to running, processes req on the
// caller's context and records the terminal status before returning.
func (s *ExperimentService) RunSync(ctx context.Context, id string, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, ErrNilLLMRequest
	}
	if err := s.begin(ctx, id); err != nil {
		return nil, err
	}
	return s.process(ctx, id, req)
}

func (s *ExperimentService) process(ctx context.Context, id string, req *model.LLMRequest) (*model.LLMResponse, error) {
	resp, err := s.processor.Process(ctx, id, req)
	s.finish(ctx, id, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Cancel stops the live run of id. It returns false, leaving the experiment
// untouched, when no run is registered.
func (s *ExperimentService) Cancel(ctx context.Context, id string) (bool, error) {
	if !s.registry.Cancel(id) {
		s.logger.InfoContext(ctx, "no live run to cancel", "experiment_id", id)
		return false, nil
	}

	if _, err := s.transition(ctx, id, model.ExperimentStatusCancelled, nil); err != nil {
		return true, err
	}
	s.logger.InfoContext(ctx, "experiment cancelled", "experiment_id", id)
	return true, nil
}

// Status returns the experiment with its results once completed, or nil when
// id is unknown.
func (s *ExperimentService) Status(ctx context.Context, id string) (*model.ExperimentView, error) {
	cached, err := s.viewCache.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "experiment view cache read failed", "experiment_id", id, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	exp, err := s.experiments.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get experiment: %w", err)
	}

	var results []model.LLMResponseRecord
	if exp.Status == model.ExperimentStatusCompleted {
		records, err := s.responses.ListByExperiment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list experiment results: %w", err)
		}
		results = make([]model.LLMResponseRecord, 0, len(records))
		for _, rec := range records {
			results = append(results, *rec)
		}
	}

	view := model.NewExperimentView(exp, results)
	if err := s.viewCache.Put(ctx, view); err != nil {
		s.logger.WarnContext(ctx, "experiment view cache write failed", "experiment_id", id, "error", err)
	}
	return view, nil
}

// IsRunning reports whether id has a live background run.
func (s *ExperimentService) IsRunning(id string) bool {
	return s.registry.Has(id)
}

// Shutdown cancels every live run and waits for them to record their final
// status or for ctx to end.
func (s *ExperimentService) Shutdown(ctx context.Context) error {
	s.stopRuns(ErrExperimentServiceStopped)
	s.registry.StopAll(ErrExperimentServiceStopped)
	if err := s.registry.Wait(ctx); err != nil {
		return fmt.Errorf("wait for experiment runs: %w", err)
	}
	return nil
}

func (s *ExperimentService) begin(ctx context.Context, id string) error {
	ok, err := s.transition(ctx, id, model.ExperimentStatusRunning, nil)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := s.experiments.GetByID(ctx, id); err != nil {
		return fmt.Errorf("start experiment: %w", err)
	}
	return ErrExperimentNotPending
}

// discard deletes an experiment that never left pending after cause stopped
// it from starting.
func (s *ExperimentService) discard(ctx context.Context, id string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), transitionTimeout)
	defer cancel()

	deleted, err := s.experiments.DeletePending(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to discard unstarted experiment",
			"experiment_id", id,
			"cause", cause,
			"error", err,
		)
		return
	}
	if deleted {
		s.logger.WarnContext(ctx, "discarded experiment that could not start", "experiment_id", id, "cause", cause)
	}
}

// finish records the terminal status of a run whose context may already be done.
func (s *ExperimentService) finish(runCtx context.Context, id string, runErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), transitionTimeout)
	defer cancel()

	status := model.ExperimentStatusCompleted
	var errMsg *string
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, ErrExperimentServiceStopped) || errors.Is(runErr, job.ErrTaskCancelled):
		status = model.ExperimentStatusCancelled
	default:
		status = model.ExperimentStatusFailed
		msg := runErr.Error()
		errMsg = &msg
	}

	if _, err := s.transition(ctx, id, status, errMsg); err != nil {
		s.logger.ErrorContext(ctx, "failed to record experiment result",
			"experiment_id", id,
			"status", status,
			"error", err,
		)
		return
	}
	if runErr != nil && status == model.ExperimentStatusFailed {
		s.logger.ErrorContext(ctx, "experiment failed", "experiment_id", id, "error", runErr)
		return
	}
	s.logger.InfoContext(ctx, "experiment finished", "experiment_id", id, "status", status)
}

func (s *ExperimentService) transition(ctx context.Context, id string, to model.ExperimentStatus, errMsg *string) (bool, error) {
	ok, err := s.experiments.UpdateStatus(ctx, core.UpdateExperimentStatusParams{
		ID:           id,
		Status:       to,
		ErrorMessage: errMsg,
	})

	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultError
	case !ok:
		result = metrics.ResultNoop
	}
	metrics.EmitTransition(s.metrics, metrics.TransitionMetric{To: string(to), Result: result})

	if err != nil {
		return false, fmt.Errorf("update experiment status to %s: %w", to, err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "experiment status transition skipped", "experiment_id", id, "to", to)
	}
	return ok, nil
}
