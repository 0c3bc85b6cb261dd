package job

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrTaskExists is returned when a live task is already registered under an id.
	ErrTaskExists = errors.New("task already registered")
	// ErrTaskCancelled is the cancellation cause of a task removed by Cancel.
	ErrTaskCancelled = errors.New("task cancelled")
)

// TaskFunc is the body of a registered task.
type TaskFunc func(ctx context.Context) error

// FinishFunc runs after a TaskFunc returns, but only when the task still owned
// its registry entry at that point. ctx is the task context, so it may already
// be cancelled.
type FinishFunc func(ctx context.Context, err error)

type task struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// Registry tracks live background tasks by id. At most one task is
// registered per id; removing an entry (by completion or Cancel) is atomic,
// so exactly one side of a cancel/complete race observes ownership.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*task
	wg    sync.WaitGroup
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*task)}
}

// Go registers id and runs fn in its own goroutine with a context derived from
// parent. When fn returns, the entry is removed and finish is called if the
// entry was still present. Tasks removed by Cancel skip finish.
func (r *Registry) Go(parent context.Context, id string, fn TaskFunc, finish FinishFunc) error {
	ctx, cancel := context.WithCancelCause(parent)
	t := &task{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	if _, ok := r.tasks[id]; ok {
		r.mu.Unlock()
		cancel(nil)
		return ErrTaskExists
	}
	r.tasks[id] = t
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer close(t.done)
		defer cancel(nil)

		err := fn(ctx)
		if r.release(id, t) && finish != nil {
			finish(ctx, err)
		}
	}()
	return nil
}

// Cancel removes the task registered under id and cancels its context. It
// reports whether a live task was found; the caller then owns the task's
// terminal handling.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if ok {
		delete(r.tasks, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	t.cancel(ErrTaskCancelled)
	return true
}

// Has reports whether a live task is registered under id.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[id]
	return ok
}

// Len returns the number of live tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// IDs returns the ids of live tasks in no particular order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	return ids
}

// Done returns a channel closed when the task under id has fully returned,
// or nil if no task is registered.
func (r *Registry) Done(id string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		return t.done
	}
	return nil
}

// StopAll cancels every live task with cause. Entries stay registered so each
// task still runs its finish step.
func (r *Registry) StopAll(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		t.cancel(cause)
	}
}

// Wait blocks until every task started by Go has returned or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) release(id string, t *task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.tasks[id]; ok && cur == t {
		delete(r.tasks, id)
		return true
	}
	return false
}
