package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/converge/internal/expr"
	"github.com/roach88/converge/internal/problem"
	"github.com/roach88/converge/internal/solver"
	"github.com/roach88/converge/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// IDGenerator allows overriding run ID generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.RunIDGenerator
}

// ProblemResult holds the outcome of one problem in a batch.
type ProblemResult struct {
	Name       string  `json:"name"`
	Function   string  `json:"function"`
	Root       float64 `json:"root"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	Reason     string  `json:"reason"`
	RunID      string  `json:"run_id,omitempty"`
}

// RunResult holds the overall batch outcome.
type RunResult struct {
	Problems  []ProblemResult `json:"problems"`
	Converged int             `json:"converged"`
	Failed    int             `json:"failed"`
	Total     int             `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <problems-dir>",
		Short: "Solve a directory of CUE problem definitions",
		Long: `Solve every problem defined in a directory of CUE files.

Each problem names a function, an initial guess, a tolerance, and an
iteration cap; the derivative is computed symbolically when omitted.
With --db, every run is recorded in the history database.

Exit codes:
  0 - All problems converged
  1 - One or more problems did not converge
  2 - Command error (bad directory, invalid definitions)

Examples:
  converge run ./problems
  converge run ./problems --db ./runs.db
  converge run ./problems --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProblems(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to record runs in")

	return cmd
}

func runProblems(opts *RunOptions, problemsDir string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	slog.Info("loading problems", "dir", problemsDir)
	loadResult, loadErrors := LoadProblems(problemsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to load problems", loadErrors[0])
	}
	slog.Info("problems loaded", "count", len(loadResult.Problems))

	for _, p := range loadResult.Problems {
		if errs := problem.Validate(p); len(errs) > 0 {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("problem %s is invalid", p.Name), errs[0])
		}
	}

	var st *store.Store
	if opts.Database != "" {
		var err error
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
	}

	gen := opts.IDGenerator
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := RunResult{Total: len(loadResult.Problems)}
	for _, p := range loadResult.Problems {
		pr, err := solveProblem(ctx, p, st, gen)
		if err != nil {
			return err
		}
		result.Problems = append(result.Problems, pr)
		if pr.Converged {
			result.Converged++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		formatter := newFormatter(opts.RootOptions, cmd)
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printRunResult(cmd, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) did not converge", result.Failed))
	}
	return nil
}

func solveProblem(ctx context.Context, p *problem.Problem, st *store.Store, gen store.RunIDGenerator) (ProblemResult, error) {
	f, fp, _, err := parseProblem(p)
	if err != nil {
		return ProblemResult{}, err
	}

	res := solver.Solve(expr.Compile(f), expr.Compile(fp), p.Config(), p.Options()...)
	slog.Info("problem solved",
		"name", p.Name, "reason", res.Reason, "iterations", res.Iterations)

	pr := ProblemResult{
		Name:       p.Name,
		Function:   p.Function,
		Root:       res.Root,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Reason:     string(res.Reason),
	}

	if st != nil {
		run := store.Run{
			ID:         gen.Generate(),
			CreatedAt:  nowUTC(),
			Function:   p.Function,
			Derivative: fp.String(),
			Config:     p.Config(),
			Result:     res,
		}
		if err := st.WriteRun(ctx, run); err != nil {
			return ProblemResult{}, WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to record run for %s", p.Name), err)
		}
		pr.RunID = run.ID
	}

	return pr, nil
}

func printRunResult(cmd *cobra.Command, result RunResult) {
	w := cmd.OutOrStdout()
	for _, pr := range result.Problems {
		if pr.Converged {
			fmt.Fprintf(w, "✓ %-20s root=%.15f iterations=%d\n", pr.Name, pr.Root, pr.Iterations)
		} else {
			fmt.Fprintf(w, "✗ %-20s %s after %d iteration(s)\n", pr.Name, pr.Reason, pr.Iterations)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d converged, %d failed, %d total\n",
		result.Converged, result.Failed, result.Total)
}
