package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lakeload/internal/domain"
)

var _ domain.RunRepository = (*RunRepo)(nil)

// RunRepo persists runs and their steps. Writes go to the single-connection
// write pool, reads to the read pool.
type RunRepo struct {
	write *sql.DB
	read  *sql.DB
	now   func() time.Time
}

// NewRunRepo creates a RunRepo. read may be nil to use write for everything.
func NewRunRepo(write, read *sql.DB) *RunRepo {
	if read == nil {
		read = write
	}
	return &RunRepo{write: write, read: read, now: time.Now}
}

const runColumns = `id, trigger_type, triggered_by, stages, status, started_at, finished_at, error_message, created_at`

const stepColumns = `id, run_id, stage, dataset, status, target, bytes, rows, checksum, error_message, started_at, finished_at`

// CreateRun inserts a new run. A missing ID or status is filled in.
func (r *RunRepo) CreateRun(ctx context.Context, run *domain.Run) (*domain.Run, error) {
	id := run.ID
	if id == "" {
		id = domain.NewID()
	}
	status := run.Status
	if status == "" {
		status = domain.RunStatusPending
	}
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO runs (id, trigger_type, triggered_by, stages, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, run.TriggerType, run.TriggeredBy, joinStages(run.Stages), status, formatTime(r.now()))
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.getRun(ctx, r.write, id)
}

// GetRun returns a run with its steps.
func (r *RunRepo) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	run, err := r.getRun(ctx, r.read, id)
	if err != nil {
		return nil, err
	}
	steps, err := r.ListSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Steps = steps
	return run, nil
}

func (r *RunRepo) getRun(ctx context.Context, db *sql.DB, id string) (*domain.Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("run %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first, with the total count matching the filter.
func (r *RunRepo) ListRuns(ctx context.Context, filter domain.RunFilter) ([]domain.Run, int64, error) {
	where := ""
	var args []any
	if filter.Status != nil {
		where = " WHERE status = ?"
		args = append(args, *filter.Status)
	}

	var total int64
	if err := r.read.QueryRowContext(ctx, `SELECT count(*) FROM runs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	args = append(args, filter.Page.Limit(), filter.Page.Start())
	rows, err := r.read.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	runs := make([]domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	return runs, total, rows.Err()
}

// UpdateRunStarted marks a run RUNNING and stamps its start time.
func (r *RunRepo) UpdateRunStarted(ctx context.Context, id string) error {
	return r.execOne(ctx, id,
		`UPDATE runs SET status = ?, started_at = ? WHERE id = ?`,
		domain.RunStatusRunning, formatTime(r.now()), id)
}

// UpdateRunFinished records a run's final status and optional error.
func (r *RunRepo) UpdateRunFinished(ctx context.Context, id string, status string, errorMsg *string) error {
	return r.execOne(ctx, id,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, nullStrFromPtr(errorMsg), formatTime(r.now()), id)
}

// CreateStep inserts a step for an existing run.
func (r *RunRepo) CreateStep(ctx context.Context, step *domain.RunStep) (*domain.RunStep, error) {
	out := *step
	if out.ID == "" {
		out.ID = domain.NewID()
	}
	if out.Status == "" {
		out.Status = domain.StepStatusRunning
	}
	if out.StartedAt.IsZero() {
		out.StartedAt = r.now()
	}
	out.StartedAt = out.StartedAt.UTC()

	_, err := r.write.ExecContext(ctx,
		`INSERT INTO run_steps (id, run_id, stage, dataset, status, target, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.RunID, string(out.Stage), out.Dataset, out.Status, out.Target, formatTime(out.StartedAt))
	if err != nil {
		if isForeignKeyError(err) {
			return nil, domain.ErrNotFound("run %q not found", out.RunID)
		}
		return nil, mapDBError(err)
	}
	return &out, nil
}

// UpdateStepFinished records a step's outcome. FinishedAt defaults to now.
func (r *RunRepo) UpdateStepFinished(ctx context.Context, step *domain.RunStep) error {
	finished := r.now()
	if step.FinishedAt != nil {
		finished = *step.FinishedAt
	}
	return r.execOne(ctx, step.ID,
		`UPDATE run_steps SET status = ?, target = ?, bytes = ?, rows = ?, checksum = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		step.Status, step.Target, step.Bytes, step.Rows, step.Checksum, nullStrFromPtr(step.ErrorMessage), formatTime(finished), step.ID)
}

// ListSteps returns the steps of a run in start order.
func (r *RunRepo) ListSteps(ctx context.Context, runID string) ([]domain.RunStep, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT `+stepColumns+` FROM run_steps WHERE run_id = ? ORDER BY started_at, stage, dataset`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	steps := make([]domain.RunStep, 0)
	for rows.Next() {
		var (
			s                domain.RunStep
			stage, started   string
			errMsg, finished sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.RunID, &stage, &s.Dataset, &s.Status, &s.Target,
			&s.Bytes, &s.Rows, &s.Checksum, &errMsg, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		s.Stage = domain.Stage(stage)
		s.ErrorMessage = nullStringPtr(errMsg)
		s.StartedAt = parseTime(started)
		s.FinishedAt = nullTimePtr(finished)
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (r *RunRepo) execOne(ctx context.Context, id, query string, args ...any) error {
	res, err := r.write.ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("%q not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var (
		run                         domain.Run
		stages, created             string
		started, finished, errorMsg sql.NullString
	)
	if err := row.Scan(&run.ID, &run.TriggerType, &run.TriggeredBy, &stages, &run.Status,
		&started, &finished, &errorMsg, &created); err != nil {
		return nil, err
	}
	run.Stages = splitStages(stages)
	run.StartedAt = nullTimePtr(started)
	run.FinishedAt = nullTimePtr(finished)
	run.ErrorMessage = nullStringPtr(errorMsg)
	run.CreatedAt = parseTime(created)
	return &run, nil
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
