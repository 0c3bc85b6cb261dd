package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/llmlab/internal/domain/model"
	"github.com/target/llmlab/internal/testutil"
)

func TestLLMResponseRepo_SaveAndList(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		exp, err := NewExperimentRepo(db).Create(ctx, testutil.NewExperimentRequest("sweep"))
		require.NoError(t, err)

		repo := NewLLMResponseRepo(db)
		results := []model.JobResult{
			testutil.SuccessResult("mock-model", 0.2, 0.5, "first answer"),
			testutil.FailureResult("mock-model", 0.2, 0.9, "LLM signalled failure: boom"),
			testutil.SuccessResult("mock-model", 1.0, 0.5, "third"),
		}

		saved, err := repo.SaveResults(ctx, exp.ID, results)
		require.NoError(t, err)
		require.Len(t, saved, 3)
		for i, rec := range saved {
			assert.Equal(t, i, rec.Position)
			assert.Equal(t, exp.ID, rec.ExperimentID)
		}

		listed, err := repo.ListByExperiment(ctx, exp.ID)
		require.NoError(t, err)
		require.Len(t, listed, 3)

		assert.Equal(t, "first answer", listed[0].ResponseText)
		require.NotNil(t, listed[0].TokensUsed)
		assert.Equal(t, 2, *listed[0].TokensUsed)

		assert.False(t, listed[1].Success)
		assert.Nil(t, listed[1].TokensUsed)
		require.NotNil(t, listed[1].Error)
		assert.Equal(t, "LLM signalled failure: boom", *listed[1].Error)
		assert.InDelta(t, 0.9, listed[1].TopP, 1e-9)

		assert.InDelta(t, 1.0, listed[2].Temperature, 1e-9)
	})
}

func TestLLMResponseRepo_UnknownExperiment(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewLLMResponseRepo(db)
		_, err := repo.SaveResults(context.Background(), uuid.NewString(), []model.JobResult{
			testutil.SuccessResult("mock-model", 0.1, 0.1, "x"),
		})
		require.ErrorIs(t, err, ErrExperimentNotFound)
	})
}

func TestLLMResponseRepo_EmptyResults(t *testing.T) {
	repo := NewLLMResponseRepo(&sql.DB{})
	saved, err := repo.SaveResults(context.Background(), uuid.NewString(), nil)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestLLMResponseRepo_RequiresExperimentID(t *testing.T) {
	repo := NewLLMResponseRepo(&sql.DB{})
	_, err := repo.SaveResults(context.Background(), " ", nil)
	require.ErrorIs(t, err, ErrExperimentIDRequired)
	_, err = repo.ListByExperiment(context.Background(), "")
	require.ErrorIs(t, err, ErrExperimentIDRequired)
}
