package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/roach88/converge/internal/solver"
)

// timeFormat is RFC 3339 with fixed-width nanoseconds. RFC3339Nano
// drops trailing zeros, which breaks the lexicographic ordering the
// created_at index relies on.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one persisted solver invocation: the textual inputs, the
// configuration, and the full result including the trace.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Function   string
	Derivative string
	Config     solver.Config
	Result     solver.Result
}

// WriteRun inserts a run and its complete iteration trace in a single
// transaction: either everything commits or nothing does, so a crash can
// never leave a run without its trace.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same run
// ID twice is a silent no-op, iterations included.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, function, derivative, x0, eps, max_iter, root, iterations, converged, stop_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.CreatedAt.UTC().Format(timeFormat),
		run.Function,
		run.Derivative,
		run.Config.X0,
		run.Config.Eps,
		run.Config.MaxIter,
		run.Result.Root,
		run.Result.Iterations,
		boolToInt(run.Result.Converged),
		string(run.Result.Reason),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if inserted == 0 {
		// Run already stored; its trace is too.
		return nil
	}

	for _, rec := range run.Result.Trace {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO iterations (run_id, k, xn, fxn, step_error)
			VALUES (?, ?, ?, ?, ?)
		`,
			run.ID,
			rec.K,
			rec.Xn,
			nullIfNaN(rec.FXn),
			nullIfNaN(rec.Err),
		)
		if err != nil {
			return fmt.Errorf("write iteration %d: %w", rec.K, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullIfNaN maps NaN to NULL; SQLite REAL has no NaN representation.
func nullIfNaN(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
