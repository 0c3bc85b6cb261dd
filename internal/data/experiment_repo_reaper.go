package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/data/pgxutil"
	apperrors "github.com/target/llmlab/internal/errors"
)

// Advisory lock namespace for reaper operations, used with the two-argument
// pg_try_advisory_xact_lock(major, minor).
const (
	advisoryLockReaperMajor       = 1000
	advisoryLockReaperFailRunning = 1 // FailStaleRunning
	advisoryLockReaperDelete      = 2 // DeleteOldExperiments
)

// DefaultStaleRunMessage is recorded on experiments failed by FailStaleRunning
// when no message is given.
const DefaultStaleRunMessage = "experiment timed out in running status"

// FailStaleRunning marks running experiments whose updated_at is older than
// params.MaxAge as failed, up to params.BatchSize rows per call. Ids in
// params.ExcludeIDs are left alone. When another instance holds the reaper
// lock the call is a no-op.
func (r *ExperimentRepo) FailStaleRunning(ctx context.Context, params core.FailStaleExperimentsParams) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, ErrExperimentRepoNotReady
	}
	if params.BatchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}

	msg := params.ErrorMessage
	if msg == "" {
		msg = DefaultStaleRunMessage
	}
	// A NULL array would make the NOT ANY filter drop every row.
	exclude := params.ExcludeIDs
	if exclude == nil {
		exclude = []string{}
	}

	var rowsAffected int64
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			locked, err := tryReaperLock(ctx, tx, advisoryLockReaperFailRunning)
			if err != nil || !locked {
				return err
			}

			now := r.timeProvider.Now().UTC()
			tag, err := tx.Exec(ctx, `
				UPDATE experiments
				SET status = 'failed', error_message = $1, updated_at = $2
				WHERE id IN (
					SELECT id FROM experiments
					WHERE status = 'running'
					  AND updated_at < $3
					  AND NOT (id::text = ANY($4::text[]))
					ORDER BY updated_at
					LIMIT $5
				)`,
				msg, now, now.Add(-params.MaxAge), exclude, params.BatchSize,
			)
			if err != nil {
				return fmt.Errorf("fail stale running experiments: %w", err)
			}
			rowsAffected = tag.RowsAffected()
			return nil
		},
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return rowsAffected, nil
}

// DeleteOldExperiments deletes experiments in one of params.Statuses whose
// updated_at is older than params.MaxAge, up to params.BatchSize rows per
// call. Stored results go with them through the foreign key cascade.
func (r *ExperimentRepo) DeleteOldExperiments(ctx context.Context, params core.DeleteOldExperimentsParams) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, ErrExperimentRepoNotReady
	}
	if len(params.Statuses) == 0 {
		return 0, errors.New("at least one status is required")
	}
	statuses := make([]string, len(params.Statuses))
	for i, s := range params.Statuses {
		if !s.Terminal() {
			return 0, fmt.Errorf("refusing to delete experiments in non-terminal status %q", s)
		}
		statuses[i] = string(s)
	}
	if params.BatchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			locked, err := tryReaperLock(ctx, tx, advisoryLockReaperDelete)
			if err != nil || !locked {
				return err
			}

			cutoff := r.timeProvider.Now().UTC().Add(-params.MaxAge)
			tag, err := tx.Exec(ctx, `
				DELETE FROM experiments
				WHERE id IN (
					SELECT id FROM experiments
					WHERE status = ANY($1::text[])
					  AND updated_at < $2
					ORDER BY updated_at
					LIMIT $3
				)`,
				statuses, cutoff, params.BatchSize,
			)
			if err != nil {
				return fmt.Errorf("delete old experiments: %w", err)
			}
			rowsAffected = tag.RowsAffected()
			return nil
		},
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return rowsAffected, nil
}

func tryReaperLock(ctx context.Context, tx pgx.Tx, minor int) (bool, error) {
	var locked bool
	if err := tx.QueryRow(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockReaperMajor, minor).Scan(&locked); err != nil {
		return false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	return locked, nil
}

var _ core.ExperimentReaperRepository = (*ExperimentRepo)(nil)
