package reaper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/mocks"
)

func TestNewRunner_RequiresRepoOrDB(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.EqualError(t, err, "database connection is required")
}

func TestRunner_StartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockExperimentReaperRepository(ctrl)

	called := make(chan []string, 1)
	repo.EXPECT().FailStaleRunning(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p core.FailStaleExperimentsParams) (int64, error) {
			select {
			case called <- p.ExcludeIDs:
			default:
			}
			return 0, nil
		}).MinTimes(1)

	runner, err := NewRunner(RunnerOptions{
		Config:   config.ReaperConfig{Enabled: true, Interval: 10 * time.Millisecond},
		LiveRuns: liveRuns{"exp-1"},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Repo:     repo,
	})
	require.NoError(t, err)

	runner.Start(context.Background())
	runner.Start(context.Background())

	select {
	case ids := <-called:
		assert.Equal(t, []string{"exp-1"}, ids)
	case <-time.After(2 * time.Second):
		t.Fatal("reaper never ran")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Stop(ctx))
	require.NoError(t, runner.Stop(ctx), "second stop is a no-op")
}

type liveRuns []string

func (l liveRuns) IDs() []string { return l }
