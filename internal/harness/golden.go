package harness

import (
	"bytes"
	"fmt"
	"math"
)

// Snapshot renders a run result in a stable textual form suitable for
// golden-file comparison. All floats use fixed-width formats and NaN
// cells are spelled out, so the bytes are deterministic across runs.
func Snapshot(r *Result) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "scenario: %s\n", r.ScenarioName)
	fmt.Fprintf(&buf, "derivative: %s", r.Derivative)
	if r.AutoDerived {
		buf.WriteString(" (derived)")
	}
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "reason: %s\n", r.Solver.Reason)
	fmt.Fprintf(&buf, "converged: %t\n", r.Solver.Converged)
	fmt.Fprintf(&buf, "iterations: %d\n", r.Solver.Iterations)
	fmt.Fprintf(&buf, "root: %s\n", cell15f(r.Solver.Root))
	buf.WriteByte('\n')

	fmt.Fprintf(&buf, "%4s %18s %18s %18s\n", "k", "xn", "f(xn)", "err")
	for _, rec := range r.Solver.Trace {
		fmt.Fprintf(&buf, "%4d %18s %18s %18s\n",
			rec.K, cell10f(rec.Xn), cell10e(rec.FXn), cell10e(rec.Err))
	}

	return buf.Bytes()
}

func cell10f(v float64) string {
	if math.IsNaN(v) {
		return fmt.Sprintf("%18s", "NaN")
	}
	return fmt.Sprintf("%18.10f", v)
}

func cell10e(v float64) string {
	if math.IsNaN(v) {
		return fmt.Sprintf("%18s", "NaN")
	}
	return fmt.Sprintf("%18.10e", v)
}

func cell15f(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.15f", v)
}
