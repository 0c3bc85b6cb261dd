// Package job runs batches of independent jobs under a concurrency budget
// with per-job retry and exponential backoff.
package job

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrInvalidConcurrency indicates the configured concurrency is below one.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	// ErrInvalidRetries indicates a negative retry count.
	ErrInvalidRetries = errors.New("retries must be non-negative")
	// ErrInvalidBackoff indicates a non-positive backoff factor or cap.
	ErrInvalidBackoff = errors.New("backoff factor and max backoff must be positive")
)

// Config controls how a Runner schedules and retries jobs.
type Config struct {
	// Concurrency caps simultaneous worker calls.
	Concurrency int
	// Retries is the number of attempts after the first one.
	Retries int
	// BackoffFactor is the delay after the first failed attempt; it doubles per attempt.
	BackoffFactor time.Duration
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.BackoffFactor <= 0 || c.MaxBackoff <= 0 {
		return ErrInvalidBackoff
	}
	return nil
}

// RunnerOptions configures NewRunner.
type RunnerOptions struct {
	Config Config
	Logger *slog.Logger // optional
}

// Runner executes batches of jobs. It holds no per-batch state and is safe
// for concurrent use.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// NewRunner validates the configuration and builds a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    opts.Config,
		logger: logger.With("component", "job_runner"),
	}, nil
}

// MustNewRunner is like NewRunner but panics on invalid configuration.
func MustNewRunner(opts RunnerOptions) *Runner {
	r, err := NewRunner(opts)
	if err != nil {
		panic(err)
	}
	return r
}

// Config returns the runner configuration.
func (r *Runner) Config() Config { return r.cfg }

// Backoff returns the delay between failed attempt n (1-based) and the next one:
// min(BackoffFactor * 2^(n-1), MaxBackoff).
func (r *Runner) Backoff(attempt int) time.Duration {
	d := r.cfg.BackoffFactor
	for i := 1; i < attempt; i++ {
		if d >= r.cfg.MaxBackoff-d {
			return r.cfg.MaxBackoff
		}
		d *= 2
	}
	return min(d, r.cfg.MaxBackoff)
}

// Worker performs one attempt of a job. It must return promptly once ctx is done.
type Worker[J, R any] func(ctx context.Context, job J) (R, error)

// Settled is the final state of one job in a RunSettled batch.
type Settled[R any] struct {
	Value    R
	Err      error
	Attempts int
}

// Run executes worker for every job and returns the results in input order.
//
// The first job to exhaust its retries cancels every other job, queued,
// backing off or in flight, and its error is returned once all of them have
// unwound. Cancelling ctx aborts the batch with the context's cause; a worker
// failure observed after cancellation is never retried.
func Run[J, R any](ctx context.Context, r *Runner, jobs []J, worker Worker[J, R]) ([]R, error) {
	settled, err := execute(ctx, r, jobs, worker, true)
	if err != nil {
		return nil, err
	}
	out := make([]R, len(settled))
	for i := range settled {
		out[i] = settled[i].Value
	}
	return out, nil
}

// RunSettled is Run with a settle policy: a job that exhausts its retries
// records its last error in its own slot and its siblings keep running. Only
// cancellation of ctx aborts the batch.
func RunSettled[J, R any](ctx context.Context, r *Runner, jobs []J, worker Worker[J, R]) ([]Settled[R], error) {
	return execute(ctx, r, jobs, worker, false)
}

type batch[J, R any] struct {
	runner   *Runner
	worker   Worker[J, R]
	sem      *semaphore.Weighted
	failFast bool
	abort    context.CancelCauseFunc
	results  []Settled[R]
}

func execute[J, R any](ctx context.Context, r *Runner, jobs []J, worker Worker[J, R], failFast bool) ([]Settled[R], error) {
	results := make([]Settled[R], len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	runCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	b := &batch[J, R]{
		runner:   r,
		worker:   worker,
		sem:      semaphore.NewWeighted(int64(r.cfg.Concurrency)),
		failFast: failFast,
		abort:    abort,
		results:  results,
	}

	var g errgroup.Group
	for i := range jobs {
		// First attempts are dispatched in input order. The slot acquired here
		// is handed to the job's goroutine.
		if err := b.sem.Acquire(runCtx, 1); err != nil {
			break
		}
		if runCtx.Err() != nil {
			b.sem.Release(1)
			break
		}
		g.Go(func() error {
			return b.runJob(runCtx, i, jobs[i])
		})
	}

	if err := g.Wait(); err != nil {
		// Several jobs may exhaust concurrently; the one that aborted the batch first wins.
		return nil, context.Cause(runCtx)
	}
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	return results, nil
}

// runJob owns one acquired slot on entry. It returns a non-nil error only
// when the job exhausted its retries in fail-fast mode.
func (b *batch[J, R]) runJob(ctx context.Context, index int, job J) error {
	retries := b.runner.cfg.Retries
	for attempt := 1; ; attempt++ {
		last := attempt > retries
		value, cancelled, err := b.attempt(ctx, job, attempt == 1, last)
		switch {
		case cancelled:
			return nil
		case err == nil:
			b.results[index] = Settled[R]{Value: value, Attempts: attempt}
			return nil
		case last:
			b.results[index] = Settled[R]{Err: err, Attempts: attempt}
			b.runner.logger.ErrorContext(ctx, "job failed after retries",
				"job_index", index,
				"attempts", attempt,
				"error", err,
			)
			if b.failFast {
				return err
			}
			return nil
		}

		delay := b.runner.Backoff(attempt)
		b.runner.logger.WarnContext(ctx, "job attempt failed, retrying",
			"job_index", index,
			"attempt", attempt,
			"backoff", delay,
			"error", err,
		)
		if sleepContext(ctx, delay) != nil {
			return nil
		}
	}
}

// attempt runs the worker once while holding a concurrency slot. The slot is
// released before returning so a job never holds it while backing off.
func (b *batch[J, R]) attempt(ctx context.Context, job J, held, last bool) (R, bool, error) {
	var zero R
	if !held {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			return zero, true, err
		}
	}
	defer b.sem.Release(1)

	if err := ctx.Err(); err != nil {
		return zero, true, err
	}
	value, err := b.worker(ctx, job)
	if err == nil {
		return value, false, nil
	}
	if ctx.Err() != nil {
		return zero, true, err
	}
	if last && b.failFast {
		// Abort while the slot is still held so the dispatcher cannot start
		// another job in between.
		b.abort(err)
	}
	return zero, false, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
