package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/domain/model"
	obserrors "github.com/target/llmlab/internal/observability/errors"
	"github.com/target/llmlab/internal/observability/metrics"
	"github.com/target/llmlab/internal/observability/statsd"
)

// LiveRuns reports the experiments currently executing in this process.
// *job.Registry satisfies it.
type LiveRuns interface {
	IDs() []string
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo     core.ExperimentReaperRepository // Required: cleanup queries
	Config   config.ReaperConfig             // Required: intervals and ages
	LiveRuns LiveRuns                        // Optional: runs that must never be reaped
	Logger   *slog.Logger                    // Optional: structured logger
	Metrics  statsd.Sink                     // Optional: metrics sink (StatsD-compatible)
}

// ReaperService periodically cleans up experiments.
//
// Each pass:
//   - fails running experiments that stopped updating, such as runs orphaned
//     by a crashed process;
//   - deletes finished experiments past the retention age, when one is set.
type ReaperService struct {
	repo     core.ExperimentReaperRepository
	config   config.ReaperConfig
	liveRuns LiveRuns
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ExperimentReaperRepository is required")
	}
	cfg := opts.Config
	cfg.Sanitize()

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", cfg.Interval,
			"running_max_age", cfg.RunningMaxAge,
			"retention_max_age", cfg.RetentionMaxAge,
		)
	}

	return &ReaperService{
		repo:     opts.Repo,
		config:   cfg,
		liveRuns: opts.LiveRuns,
		logger:   logger,
		metrics:  opts.Metrics,
	}, nil
}

// MustNewReaperService constructs a new ReaperService and panics on error.
func MustNewReaperService(opts ReaperServiceOptions) *ReaperService {
	svc, err := NewReaperService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create ReaperService: %v", err))
	}
	return svc
}

// Run performs cleanup at the configured interval until ctx is cancelled.
// It returns nil on cancellation.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Spread instances that start together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// RunOnce performs a single cleanup pass.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	return s.runCleanup(ctx)
}

// waitWithJitter sleeps for a random delay of up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.runCleanup(ctx); err != nil {
				s.logCleanupError(err, "cleanup")
			}
		}
	}
}

type cleanupFunc func(context.Context) (int64, error)

type cleanupStep struct {
	operation string
	label     string
	fn        cleanupFunc
}

type cleanupStepOutcome struct {
	operation string
	count     int64
	metricErr error
	canceled  bool
}

func (s *ReaperService) steps() []cleanupStep {
	steps := []cleanupStep{
		{operation: "fail_stale_running", label: "fail stale running experiments", fn: s.failStaleRunning},
	}
	if s.config.RetentionMaxAge > 0 {
		steps = append(steps, cleanupStep{
			operation: "delete_expired", label: "delete expired experiments", fn: s.deleteExpired,
		})
	}
	return steps
}

func (s *ReaperService) runCleanup(ctx context.Context) error {
	start := time.Now()
	var (
		errs               []error
		allContextCanceled = true
		outcomes           []cleanupStepOutcome
	)

	for _, step := range s.steps() {
		count, err := step.fn(ctx)
		outcomes = append(outcomes, cleanupStepOutcome{
			operation: step.operation,
			count:     count,
			metricErr: suppressContextCancellation(err),
			canceled:  isContextCancellation(err),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.label, err))
			allContextCanceled = allContextCanceled && isContextCancellation(err)
		}
	}

	s.emitCleanupMetrics(outcomes, time.Since(start))

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled {
			return context.Canceled
		}
		return fmt.Errorf("cleanup failed: %w", joined)
	}
	return nil
}

// drainBatches calls fn until it reports no affected rows.
func drainBatches(ctx context.Context, fn cleanupFunc) (int64, error) {
	var total int64
	for {
		count, err := fn(ctx)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			return total, nil
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}

func (s *ReaperService) failStaleRunning(ctx context.Context) (int64, error) {
	var exclude []string
	if s.liveRuns != nil {
		exclude = s.liveRuns.IDs()
	}

	total, err := drainBatches(ctx, func(ctx context.Context) (int64, error) {
		return s.repo.FailStaleRunning(ctx, core.FailStaleExperimentsParams{
			MaxAge:     s.config.RunningMaxAge,
			BatchSize:  s.config.BatchSize,
			ExcludeIDs: exclude,
		})
	})
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "failed stale running experiments",
			"count", total,
			"max_age", s.config.RunningMaxAge,
			"live", len(exclude),
		)
	}
	return total, err
}

func (s *ReaperService) deleteExpired(ctx context.Context) (int64, error) {
	total, err := drainBatches(ctx, func(ctx context.Context) (int64, error) {
		return s.repo.DeleteOldExperiments(ctx, core.DeleteOldExperimentsParams{
			Statuses: []model.ExperimentStatus{
				model.ExperimentStatusCompleted,
				model.ExperimentStatusFailed,
				model.ExperimentStatusCancelled,
			},
			MaxAge:    s.config.RetentionMaxAge,
			BatchSize: s.config.BatchSize,
		})
	})
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "deleted expired experiments",
			"count", total,
			"max_age", s.config.RetentionMaxAge,
		)
	}
	return total, err
}

func (s *ReaperService) emitCleanupMetrics(outcomes []cleanupStepOutcome, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}

	var (
		total    int64
		firstErr error
	)
	for _, o := range outcomes {
		total += o.count
		if firstErr == nil {
			firstErr = o.metricErr
		}
	}

	tags := map[string]string{"result": cleanupResult(total, firstErr)}
	if firstErr != nil {
		if class := obserrors.Classify(firstErr); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.cleanup", 1, tags)
	if elapsed > 0 {
		s.metrics.Timing("reaper.cleanup_duration", elapsed, metrics.CloneTags(tags))
	}

	for _, o := range outcomes {
		s.emitCleanupOperationMetric(o)
	}

	if firstErr == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *ReaperService) emitCleanupOperationMetric(o cleanupStepOutcome) {
	tags := map[string]string{
		"operation": o.operation,
		"result":    cleanupResult(o.count, o.metricErr),
	}
	if o.metricErr != nil {
		if class := obserrors.Classify(o.metricErr); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.cleanup_operation", 1, tags)
	if o.metricErr == nil && o.count > 0 {
		s.metrics.Count("reaper.experiments_processed", o.count, metrics.CloneTags(tags))
	}
}

func cleanupResult(count int64, err error) string {
	switch {
	case err != nil:
		return metrics.ResultError
	case count == 0:
		return metrics.ResultNoop
	default:
		return metrics.ResultSuccess
	}
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
