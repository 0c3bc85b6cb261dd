package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/data/pgxutil"
	"github.com/target/llmlab/internal/domain/model"
	apperrors "github.com/target/llmlab/internal/errors"
)

const (
	experimentColumns = `id, name, original_message, status, error_message, created_at, updated_at`

	defaultExperimentListLimit = 50
	maxExperimentListLimit     = 500
)

// ExperimentRepo provides database operations for experiments.
type ExperimentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewExperimentRepo creates a new ExperimentRepo with the system clock.
func NewExperimentRepo(db *sql.DB) *ExperimentRepo {
	return &ExperimentRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewExperimentRepoWithTimeProvider creates a new ExperimentRepo with a custom clock.
func NewExperimentRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ExperimentRepo {
	return &ExperimentRepo{DB: db, timeProvider: tp}
}

// Create inserts a pending experiment. An empty name defaults to exp_<unix seconds>.
func (r *ExperimentRepo) Create(ctx context.Context, req *model.CreateExperimentRequest) (*model.Experiment, error) {
	if r == nil || r.DB == nil {
		return nil, ErrExperimentRepoNotReady
	}
	if req == nil || strings.TrimSpace(req.OriginalMessage) == "" {
		return nil, ErrOriginalMessageRequired
	}

	now := r.timeProvider.Now().UTC()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = model.DefaultExperimentName(now)
	}

	var out model.Experiment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO experiments (id, name, original_message, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING `+experimentColumns,
			uuid.NewString(), name, req.OriginalMessage, string(model.ExperimentStatusPending), now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Experiment])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create experiment: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// GetByID retrieves an experiment. Malformed ids are reported as not found.
func (r *ExperimentRepo) GetByID(ctx context.Context, id string) (*model.Experiment, error) {
	if r == nil || r.DB == nil {
		return nil, ErrExperimentRepoNotReady
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrExperimentIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrExperimentNotFound
	}

	var out model.Experiment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Experiment])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExperimentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get experiment: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// List returns experiments newest first, optionally filtered by status.
func (r *ExperimentRepo) List(ctx context.Context, opts model.ListExperimentsOptions) ([]*model.Experiment, error) {
	if r == nil || r.DB == nil {
		return nil, ErrExperimentRepoNotReady
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultExperimentListLimit
	}
	limit = min(limit, maxExperimentListLimit)
	offset := max(opts.Offset, 0)

	var status *string
	if opts.Status != nil {
		s := string(*opts.Status)
		status = &s
	}

	var rowsOut []model.Experiment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+experimentColumns+`
			FROM experiments
			WHERE ($1::text IS NULL OR status = $1::text)
			ORDER BY created_at DESC, id
			LIMIT $2 OFFSET $3`,
			status, limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Experiment])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Experiment, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// UpdateStatus moves an experiment to params.Status if its current status
// allows the transition. The check and the write happen in one statement so
// concurrent updaters cannot both succeed.
func (r *ExperimentRepo) UpdateStatus(ctx context.Context, params core.UpdateExperimentStatusParams) (bool, error) {
	if r == nil || r.DB == nil {
		return false, ErrExperimentRepoNotReady
	}
	if strings.TrimSpace(params.ID) == "" {
		return false, ErrExperimentIDRequired
	}
	sources := params.Status.TransitionSources()
	if len(sources) == 0 {
		return false, fmt.Errorf("%w: to %q", ErrInvalidStatusTransition, params.Status)
	}
	if _, err := uuid.Parse(params.ID); err != nil {
		return false, nil
	}

	from := make([]string, len(sources))
	for i, s := range sources {
		from[i] = string(s)
	}

	var updated bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE experiments
			SET status = $2, error_message = $3, updated_at = $4
			WHERE id = $1 AND status = ANY($5)`,
			params.ID, string(params.Status), params.ErrorMessage, r.timeProvider.Now().UTC(), from,
		)
		if err != nil {
			return err
		}
		updated = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update experiment status: %w", apperrors.MapDBError(err))
	}
	return updated, nil
}

// DeletePending removes an experiment that never left pending. Rows in any
// other status are kept and false is returned.
func (r *ExperimentRepo) DeletePending(ctx context.Context, id string) (bool, error) {
	if r == nil || r.DB == nil {
		return false, ErrExperimentRepoNotReady
	}
	if strings.TrimSpace(id) == "" {
		return false, ErrExperimentIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	var deleted bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM experiments WHERE id = $1 AND status = $2`,
			id, string(model.ExperimentStatusPending))
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete pending experiment: %w", apperrors.MapDBError(err))
	}
	return deleted, nil
}

var _ core.ExperimentRepository = (*ExperimentRepo)(nil)
