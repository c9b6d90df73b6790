package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roach88/converge/internal/solver"
)

// ErrRunNotFound is returned when a run ID does not exist in the store.
var ErrRunNotFound = errors.New("store: run not found")

// ReadRun loads a run and its full iteration trace.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, function, derivative, x0, eps, max_iter,
		       root, iterations, converged, stop_reason
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	trace, err := s.ReadTrace(ctx, id)
	if err != nil {
		return Run{}, err
	}
	run.Result.Trace = trace
	return run, nil
}

// ReadTrace loads the ordered iteration records for a run. NULL cells
// (faulting steps) come back as NaN.
func (s *Store) ReadTrace(ctx context.Context, runID string) (solver.Trace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT k, xn, fxn, step_error
		FROM iterations WHERE run_id = ?
		ORDER BY k
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", runID, err)
	}
	defer rows.Close()

	var trace solver.Trace
	for rows.Next() {
		var (
			rec  solver.IterationRecord
			fxn  sql.NullFloat64
			serr sql.NullFloat64
		)
		if err := rows.Scan(&rec.K, &rec.Xn, &fxn, &serr); err != nil {
			return nil, fmt.Errorf("read trace %s: scan: %w", runID, err)
		}
		rec.FXn = nanIfNull(fxn)
		rec.Err = nanIfNull(serr)
		trace = append(trace, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trace %s: %w", runID, err)
	}
	return trace, nil
}

// ListRuns returns up to limit runs, newest first, without their traces.
// A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, function, derivative, x0, eps, max_iter,
		       root, iterations, converged, stop_reason
		FROM runs
		ORDER BY created_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		createdAt string
		converged int
		reason    string
	)
	err := sc.Scan(
		&run.ID,
		&createdAt,
		&run.Function,
		&run.Derivative,
		&run.Config.X0,
		&run.Config.Eps,
		&run.Config.MaxIter,
		&run.Result.Root,
		&run.Result.Iterations,
		&converged,
		&reason,
	)
	if err != nil {
		return Run{}, err
	}

	// RFC3339Nano parses the fixed-width timeFormat strings too.
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = ts
	run.Result.Converged = converged != 0
	run.Result.Reason = solver.StopReason(reason)
	return run, nil
}

func nanIfNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
