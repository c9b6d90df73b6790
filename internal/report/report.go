// Package report renders the outcome of a solver run into a
// human-readable report: the inputs, the final result, and the full
// iteration history. The exact text layout is pinned by golden tests.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/roach88/converge/internal/solver"
)

const lineWidth = 60

// Report bundles everything the reporter needs: the textual forms of the
// function and its derivative, the run configuration, and the result.
type Report struct {
	Function    string
	Derivative  string
	AutoDerived bool // derivative was computed symbolically, not supplied
	Config      solver.Config
	Result      solver.Result
	RunID       string // optional; printed when the run was persisted
}

// Render writes the formatted report.
func (r *Report) Render(w io.Writer) error {
	heavy := strings.Repeat("=", lineWidth)
	light := strings.Repeat("-", lineWidth)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", heavy)
	fmt.Fprintf(&b, "NEWTON-RAPHSON METHOD - RESULTS\n")
	fmt.Fprintf(&b, "%s\n\n", heavy)

	fmt.Fprintf(&b, "Function:   f(x) = %s\n", r.Function)
	if r.AutoDerived {
		fmt.Fprintf(&b, "Derivative: f'(x) = %s (derived automatically)\n", r.Derivative)
	} else {
		fmt.Fprintf(&b, "Derivative: f'(x) = %s\n", r.Derivative)
	}
	fmt.Fprintf(&b, "Initial guess (x0):  %g\n", r.Config.X0)
	fmt.Fprintf(&b, "Tolerance (eps):     %g\n", r.Config.Eps)
	fmt.Fprintf(&b, "Iteration cap:       %d\n", r.Config.MaxIter)
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run ID:              %s\n", r.RunID)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s\n", light)
	fmt.Fprintf(&b, "FINAL RESULT\n")
	fmt.Fprintf(&b, "%s\n", light)
	fmt.Fprintf(&b, "Root approximation:  %.15f\n", r.Result.Root)
	fmt.Fprintf(&b, "Iterations used:     %d\n", r.Result.Iterations)
	fmt.Fprintf(&b, "Status:              %s\n", status(r.Result))
	fmt.Fprintf(&b, "Stop reason:         %s\n\n", r.Result.Reason)

	fmt.Fprintf(&b, "%s\n", light)
	fmt.Fprintf(&b, "ITERATION HISTORY\n")
	fmt.Fprintf(&b, "%s\n", light)
	fmt.Fprintf(&b, "%4s %18s %18s %18s\n", "k", "xn", "f(xn)", "error")
	fmt.Fprintf(&b, "%s\n", light)
	for _, rec := range r.Result.Trace {
		fmt.Fprintf(&b, "%4d %18.10f %s %s\n", rec.K, rec.Xn, cell(rec.FXn), cell(rec.Err))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders the report to a file, replacing any existing one.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func status(res solver.Result) string {
	if res.Converged {
		return "converged"
	}
	return "did not converge"
}

// cell formats a table value, spelling out NaN for steps that terminated
// before the value could be computed.
func cell(v float64) string {
	if math.IsNaN(v) {
		return fmt.Sprintf("%18s", "NaN")
	}
	return fmt.Sprintf("%18.10e", v)
}
