package job

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel")
	}
}

func TestRegistry_GoRunsFinishAndRemovesEntry(t *testing.T) {
	r := NewRegistry()
	release := make(chan struct{})
	finished := make(chan error, 1)

	err := r.Go(context.Background(), "exp-1",
		func(ctx context.Context) error {
			<-release
			return errors.New("boom")
		},
		func(_ context.Context, err error) { finished <- err },
	)
	require.NoError(t, err)
	assert.True(t, r.Has("exp-1"))
	assert.Equal(t, 1, r.Len())
	done := r.Done("exp-1")
	require.NotNil(t, done)

	close(release)
	waitClosed(t, done)

	require.EqualError(t, <-finished, "boom")
	assert.False(t, r.Has("exp-1"))
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Done("exp-1"))
}

func TestRegistry_GoRejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, r.Go(context.Background(), "exp-1", func(ctx context.Context) error {
		<-release
		return nil
	}, nil))

	err := r.Go(context.Background(), "exp-1", func(context.Context) error { return nil }, nil)
	require.ErrorIs(t, err, ErrTaskExists)
}

func TestRegistry_CancelOwnsTermination(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	var cause atomic.Value
	var finishCalls atomic.Int32

	require.NoError(t, r.Go(context.Background(), "exp-1",
		func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			cause.Store(context.Cause(ctx))
			return ctx.Err()
		},
		func(context.Context, error) { finishCalls.Add(1) },
	))
	<-started
	done := r.Done("exp-1")

	assert.True(t, r.Cancel("exp-1"))
	assert.False(t, r.Has("exp-1"))
	waitClosed(t, done)

	assert.Equal(t, ErrTaskCancelled, cause.Load())
	assert.Zero(t, finishCalls.Load(), "finish must not run for a cancelled task")
}

func TestRegistry_CancelUnknownID(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Cancel("missing"))
}

func TestRegistry_CancelAfterCompletion(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Go(context.Background(), "exp-1", func(context.Context) error { return nil }, nil))
	require.NoError(t, r.Wait(context.Background()))

	assert.False(t, r.Cancel("exp-1"))
}

func TestRegistry_CancelRacingCompletion(t *testing.T) {
	for i := range 100 {
		r := NewRegistry()
		var finishCalls atomic.Int32
		require.NoError(t, r.Go(context.Background(), "exp", func(context.Context) error { return nil },
			func(context.Context, error) { finishCalls.Add(1) }))

		cancelled := r.Cancel("exp")
		require.NoError(t, r.Wait(context.Background()))

		owners := int(finishCalls.Load())
		if cancelled {
			owners++
		}
		require.Equal(t, 1, owners, "iteration %d: exactly one side must own termination", i)
	}
}

func TestRegistry_StopAllKeepsFinish(t *testing.T) {
	r := NewRegistry()
	stop := errors.New("shutting down")
	var mu sync.Mutex
	var causes []error

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.Go(context.Background(), id,
			func(ctx context.Context) error {
				<-ctx.Done()
				return context.Cause(ctx)
			},
			func(_ context.Context, err error) {
				mu.Lock()
				causes = append(causes, err)
				mu.Unlock()
			},
		))
	}

	r.StopAll(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))

	assert.Len(t, causes, 3)
	for _, err := range causes {
		assert.ErrorIs(t, err, stop)
	}
	assert.Zero(t, r.Len())
}

func TestRegistry_WaitHonoursContext(t *testing.T) {
	r := NewRegistry()
	release := make(chan struct{})
	defer close(release)
	require.NoError(t, r.Go(context.Background(), "slow", func(context.Context) error {
		<-release
		return nil
	}, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestRegistry_IDs(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.IDs())

	release := make(chan struct{})
	for _, id := range []string{"exp-1", "exp-2"} {
		require.NoError(t, r.Go(context.Background(), id, func(ctx context.Context) error {
			<-release
			return nil
		}, nil))
	}
	assert.ElementsMatch(t, []string{"exp-1", "exp-2"}, r.IDs())

	close(release)
	require.NoError(t, r.Wait(context.Background()))
	assert.Empty(t, r.IDs())
}
