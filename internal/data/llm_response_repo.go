package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/target/llmlab/internal/data/pgxutil"
	"github.com/target/llmlab/internal/domain/model"
	apperrors "github.com/target/llmlab/internal/errors"
)

const llmResponseColumns = `id, experiment_id, position, provider, model, temperature, top_p,
	response_text, tokens_used, execution_time, success, error, created_at`

// LLMResponseRepo persists per-job generation results.
type LLMResponseRepo struct {
	DB *sql.DB
}

// NewLLMResponseRepo constructs an LLMResponseRepo.
func NewLLMResponseRepo(db *sql.DB) *LLMResponseRepo {
	return &LLMResponseRepo{DB: db}
}

// SaveResults inserts results in order, recording each one's input position.
// Either all rows are written or none are.
func (r *LLMResponseRepo) SaveResults(
	ctx context.Context,
	experimentID string,
	results []model.JobResult,
) ([]*model.LLMResponseRecord, error) {
	if r == nil || r.DB == nil {
		return nil, ErrLLMResponseRepoNotReady
	}
	if strings.TrimSpace(experimentID) == "" {
		return nil, ErrExperimentIDRequired
	}
	if _, err := uuid.Parse(experimentID); err != nil {
		return nil, ErrExperimentNotFound
	}
	if len(results) == 0 {
		return []*model.LLMResponseRecord{}, nil
	}

	out := make([]*model.LLMResponseRecord, 0, len(results))
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range results {
			res := &results[i]
			batch.Queue(`
				INSERT INTO llm_responses (
					id, experiment_id, position, provider, model, temperature, top_p,
					response_text, tokens_used, execution_time, success, error
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				RETURNING `+llmResponseColumns,
				uuid.NewString(), experimentID, i, res.Provider, res.Model, res.Temperature, res.TopP,
				res.ResponseText, res.TokensUsed, res.ExecutionTime, res.Success, res.Error,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range results {
			rows, err := br.Query()
			if err != nil {
				_ = br.Close()
				return err
			}
			rec, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.LLMResponseRecord])
			if err != nil {
				_ = br.Close()
				return err
			}
			out = append(out, &rec)
		}
		return br.Close()
	}})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsForeignKey(mapped) {
			return nil, ErrExperimentNotFound
		}
		return nil, fmt.Errorf("save llm responses: %w", mapped)
	}
	return out, nil
}

// ListByExperiment returns an experiment's results in their original order.
func (r *LLMResponseRepo) ListByExperiment(ctx context.Context, experimentID string) ([]*model.LLMResponseRecord, error) {
	if r == nil || r.DB == nil {
		return nil, ErrLLMResponseRepoNotReady
	}
	if strings.TrimSpace(experimentID) == "" {
		return nil, ErrExperimentIDRequired
	}
	if _, err := uuid.Parse(experimentID); err != nil {
		return []*model.LLMResponseRecord{}, nil
	}

	var rowsOut []model.LLMResponseRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+llmResponseColumns+`
			FROM llm_responses
			WHERE experiment_id = $1
			ORDER BY position`, experimentID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.LLMResponseRecord])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list llm responses: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.LLMResponseRecord, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
