// Package reaper runs the experiment reaper in the background.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/data"
	"github.com/target/llmlab/internal/observability/statsd"
	"github.com/target/llmlab/internal/service"
)

// Runner owns the goroutine that drives a ReaperService.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB       *sql.DB
	Config   config.ReaperConfig
	LiveRuns service.LiveRuns
	Logger   *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo    core.ExperimentReaperRepository
	Metrics statsd.Sink
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Repo:     opts.Repo,
		Config:   opts.Config,
		LiveRuns: opts.LiveRuns,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{reaper: reaper, logger: opts.Logger}, nil
}

func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Repo == nil {
		if opts.DB == nil {
			return errors.New("database connection is required")
		}
		opts.Repo = data.NewExperimentRepo(opts.DB)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run blocks in the reaper loop until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}

// RunOnce performs a single cleanup pass in the calling goroutine.
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.reaper.RunOnce(ctx)
}

// Start runs the reaper loop in a new goroutine. Calling Start on a running
// Runner is a no-op.
func (r *Runner) Start(parent context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go func() {
		defer close(done)
		if err := r.Run(ctx); err != nil {
			r.logger.Error("reaper runner exited", "error", err)
		}
	}()
}

// Stop cancels the loop started by Start and waits for it to exit or for ctx
// to be done.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
