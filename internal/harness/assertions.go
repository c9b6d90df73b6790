package harness

import (
	"fmt"
	"math"

	"github.com/roach88/converge/internal/solver"
)

const defaultRootTolerance = 1e-9

// checkExpectations compares a run outcome against the scenario's
// expectations and returns one message per mismatch.
func checkExpectations(e Expectations, res solver.Result) []string {
	var failures []string

	if e.Converged != nil && res.Converged != *e.Converged {
		failures = append(failures, fmt.Sprintf(
			"converged: got %t, want %t", res.Converged, *e.Converged))
	}

	if e.Root != nil {
		tol := e.RootTolerance
		if tol == 0 {
			tol = defaultRootTolerance
		}
		diff := math.Abs(res.Root - *e.Root)
		if math.IsNaN(diff) || diff > tol {
			failures = append(failures, fmt.Sprintf(
				"root: got %.15g, want %.15g within %g", res.Root, *e.Root, tol))
		}
	}

	if e.MaxIterations != nil && res.Iterations > *e.MaxIterations {
		failures = append(failures, fmt.Sprintf(
			"iterations: got %d, want at most %d", res.Iterations, *e.MaxIterations))
	}

	if e.StopReason != "" && res.Reason != solver.StopReason(e.StopReason) {
		failures = append(failures, fmt.Sprintf(
			"stop reason: got %s, want %s", res.Reason, e.StopReason))
	}

	return failures
}
