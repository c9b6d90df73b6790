package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/converge/internal/expr"
	"github.com/roach88/converge/internal/problem"
	"github.com/roach88/converge/internal/report"
	"github.com/roach88/converge/internal/solver"
	"github.com/roach88/converge/internal/store"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions

	Derivative       string
	X0               float64
	Eps              float64
	MaxIter          int
	Database         string
	ReportPath       string
	DivergenceFactor float64
	DivergenceAfter  int
	NoDivergence     bool

	// IDGenerator allows overriding run ID generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.RunIDGenerator
}

// SolveResponse is the JSON payload for a completed solve.
type SolveResponse struct {
	Function    string     `json:"function"`
	Derivative  string     `json:"derivative"`
	AutoDerived bool       `json:"auto_derived"`
	Root        float64    `json:"root"`
	Iterations  int        `json:"iterations"`
	Converged   bool       `json:"converged"`
	Reason      string     `json:"reason"`
	RunID       string     `json:"run_id,omitempty"`
	Trace       []TraceRow `json:"trace"`
}

// TraceRow is the JSON form of one iteration record. FXn and Err are
// null for faulting steps; encoding/json rejects NaN.
type TraceRow struct {
	K   int      `json:"k"`
	Xn  float64  `json:"xn"`
	FXn *float64 `json:"fxn"`
	Err *float64 `json:"err"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve [expression]",
		Short: "Find a root of a function",
		Long: `Find a root of f(x) with the Newton-Raphson method.

With an expression argument, parameters come from flags. Without one,
the command prompts for the function, derivative, and parameters
interactively, re-asking on invalid input.

The derivative is computed symbolically when --dfx is omitted.

Exit codes:
  0 - Converged to a root
  1 - Did not converge (budget exhausted, singular derivative, divergence)
  2 - Command error (invalid expression or parameters)

Examples:
  converge solve "x^2 - 2" --x0 1
  converge solve "cos(x) - x" --x0 0.5 --eps 1e-12
  converge solve "x^3 - 2*x + 2" --x0 0 --no-divergence-check
  converge solve "x^2 - 2" --x0 1 --db ./runs.db --report result.txt
  converge solve`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Derivative, "dfx", "", "derivative expression (derived symbolically when omitted)")
	cmd.Flags().Float64Var(&opts.X0, "x0", 0, "initial guess")
	cmd.Flags().Float64Var(&opts.Eps, "eps", 1e-10, "convergence tolerance")
	cmd.Flags().IntVar(&opts.MaxIter, "max-iter", 100, "iteration cap")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to record the run in")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "write the text report to this file")
	cmd.Flags().Float64Var(&opts.DivergenceFactor, "divergence-factor", solver.DefaultDivergenceFactor, "error growth factor that stops the run")
	cmd.Flags().IntVar(&opts.DivergenceAfter, "divergence-after", solver.DefaultDivergenceMinIteration, "iterations to run before the divergence check")
	cmd.Flags().BoolVar(&opts.NoDivergence, "no-divergence-check", false, "disable the divergence heuristic")

	return cmd
}

func runSolve(opts *SolveOptions, args []string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)
	applyConfigDefaults(opts, cmd)

	p := &problem.Problem{
		Derivative: opts.Derivative,
		X0:         opts.X0,
		Eps:        opts.Eps,
		MaxIter:    opts.MaxIter,
	}
	if len(args) == 1 {
		p.Function = args[0]
	} else {
		if err := promptProblem(p, cmd); err != nil {
			return WrapExitError(ExitCommandError, "interactive input", err)
		}
	}

	if errs := problem.Validate(p); len(errs) > 0 {
		formatter := newFormatter(opts.RootOptions, cmd)
		_ = formatter.Error(errs[0].Code, errs[0].Message, errs)
		return NewExitError(ExitCommandError, errs[0].Error())
	}

	f, fp, autoDerived, err := parseProblem(p)
	if err != nil {
		return err
	}
	if autoDerived {
		slog.Debug("derivative derived symbolically", "dfx", fp.String())
	}

	res := solver.Solve(expr.Compile(f), expr.Compile(fp), p.Config(), solveOptions(opts, cmd)...)
	slog.Info("solve finished",
		"reason", res.Reason, "iterations", res.Iterations, "root", res.Root)

	runID, err := persistRun(opts, p, fp.String(), res, cmd)
	if err != nil {
		return err
	}

	rep := &report.Report{
		Function:    p.Function,
		Derivative:  fp.String(),
		AutoDerived: autoDerived,
		Config:      p.Config(),
		Result:      res,
		RunID:       runID,
	}

	if opts.ReportPath != "" {
		if err := rep.WriteFile(opts.ReportPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to write report", err)
		}
		slog.Info("report written", "path", opts.ReportPath)
	}

	if opts.Format == "json" {
		formatter := newFormatter(opts.RootOptions, cmd)
		if err := formatter.Success(solveResponse(rep)); err != nil {
			return err
		}
	} else if err := rep.Render(cmd.OutOrStdout()); err != nil {
		return err
	}

	if !res.Converged {
		return NewExitError(ExitFailure, fmt.Sprintf("did not converge: %s", res.Reason))
	}
	return nil
}

// parseProblem compiles the problem's expressions. A blank derivative
// (empty or whitespace only) selects symbolic derivation. Validation has
// already run, but parse failures still come back as command errors, not
// panics.
func parseProblem(p *problem.Problem) (f, fp expr.Expr, autoDerived bool, err error) {
	f, err = expr.Parse(p.Function)
	if err != nil {
		return nil, nil, false, WrapExitError(ExitCommandError, "invalid function", err)
	}
	if strings.TrimSpace(p.Derivative) == "" {
		return f, f.Diff(), true, nil
	}
	fp, err = expr.Parse(p.Derivative)
	if err != nil {
		return nil, nil, false, WrapExitError(ExitCommandError, "invalid derivative", err)
	}
	return f, fp, false, nil
}

// solveOptions maps flags to solver options. Verbose text runs also get
// a progress observer on stderr.
func solveOptions(opts *SolveOptions, cmd *cobra.Command) []solver.Option {
	var sopts []solver.Option
	if opts.NoDivergence {
		sopts = append(sopts, solver.WithoutDivergenceGuard())
	} else {
		sopts = append(sopts, solver.WithDivergenceGuard(solver.DivergencePolicy{
			Factor:       opts.DivergenceFactor,
			MinIteration: opts.DivergenceAfter,
		}))
	}

	if opts.Verbose && opts.Format != "json" {
		w := cmd.ErrOrStderr()
		sopts = append(sopts, solver.WithObserver(func(rec solver.IterationRecord) {
			fmt.Fprintf(w, "k=%-4d xn=%-22.15g f(xn)=%-22.15g err=%.15g\n",
				rec.K, rec.Xn, rec.FXn, rec.Err)
		}))
	}
	return sopts
}

// persistRun writes the run to the history database when --db is set.
// Returns the assigned run ID, or empty when persistence is off.
func persistRun(opts *SolveOptions, p *problem.Problem, derivative string, res solver.Result, cmd *cobra.Command) (string, error) {
	if opts.Database == "" {
		return "", nil
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	gen := opts.IDGenerator
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}

	run := store.Run{
		ID:         gen.Generate(),
		CreatedAt:  nowUTC(),
		Function:   p.Function,
		Derivative: derivative,
		Config:     p.Config(),
		Result:     res,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return "", WrapExitError(ExitCommandError, "failed to record run", err)
	}
	slog.Info("run recorded", "id", run.ID, "db", opts.Database)
	return run.ID, nil
}

// applyConfigDefaults overlays config-file values onto flags the user did
// not set explicitly.
func applyConfigDefaults(opts *SolveOptions, cmd *cobra.Command) {
	cfg := opts.Config
	if cfg == nil {
		return
	}
	flags := cmd.Flags()

	if cfg.Eps > 0 && !flags.Changed("eps") {
		opts.Eps = cfg.Eps
	}
	if cfg.MaxIter > 0 && !flags.Changed("max-iter") {
		opts.MaxIter = cfg.MaxIter
	}
	if cfg.Database != "" && !flags.Changed("db") {
		opts.Database = cfg.Database
	}
	if d := cfg.Divergence; d != nil {
		if d.Disabled && !flags.Changed("no-divergence-check") {
			opts.NoDivergence = true
		}
		if d.Factor > 0 && !flags.Changed("divergence-factor") {
			opts.DivergenceFactor = d.Factor
		}
		if d.MinIteration > 0 && !flags.Changed("divergence-after") {
			opts.DivergenceAfter = d.MinIteration
		}
	}
}

func solveResponse(rep *report.Report) SolveResponse {
	return SolveResponse{
		Function:    rep.Function,
		Derivative:  rep.Derivative,
		AutoDerived: rep.AutoDerived,
		Root:        rep.Result.Root,
		Iterations:  rep.Result.Iterations,
		Converged:   rep.Result.Converged,
		Reason:      string(rep.Result.Reason),
		RunID:       rep.RunID,
		Trace:       traceRows(rep.Result.Trace),
	}
}

func traceRows(trace solver.Trace) []TraceRow {
	rows := make([]TraceRow, len(trace))
	for i, rec := range trace {
		rows[i] = TraceRow{
			K:   rec.K,
			Xn:  rec.Xn,
			FXn: nilIfNaN(rec.FXn),
			Err: nilIfNaN(rec.Err),
		}
	}
	return rows
}

func nilIfNaN(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// setupLogging configures the process-wide slog handler.
func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if !verbose {
		logLevel = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
