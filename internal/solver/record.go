package solver

import "math"

// IterationRecord captures the numeric state of one Newton step.
//
// Xn is the iterate the step started from, FXn the function value there,
// and Err the absolute difference between the next and current iterate.
// Err (and FXn, for evaluation faults) is NaN when the step terminated
// before the value could be computed.
type IterationRecord struct {
	K   int     `json:"k"`
	Xn  float64 `json:"xn"`
	FXn float64 `json:"fxn"`
	Err float64 `json:"err"`
}

// Trace is the ordered, append-only history of a single run.
//
// INVARIANTS:
//   - len(trace) <= Config.MaxIter
//   - K values are unique and strictly increasing by 1, starting at 1
//   - records are never mutated after being appended
type Trace []IterationRecord

// Last returns the final record and true, or a zero record and false
// when the trace is empty.
func (tr Trace) Last() (IterationRecord, bool) {
	if len(tr) == 0 {
		return IterationRecord{}, false
	}
	return tr[len(tr)-1], true
}

// StopReason categorizes why a run terminated.
type StopReason string

const (
	// StopConverged indicates the successive-iterate error dropped below Eps.
	StopConverged StopReason = "CONVERGED"

	// StopMaxIterations indicates the iteration budget was exhausted
	// (including the MaxIter <= 0 case, which runs zero iterations).
	StopMaxIterations StopReason = "MAX_ITERATIONS"

	// StopSingularDerivative indicates |f'(xn)| fell below the stability
	// floor, making the Newton step numerically meaningless.
	StopSingularDerivative StopReason = "SINGULAR_DERIVATIVE"

	// StopEvalFailed indicates f or f' reported a fault (or produced a
	// non-finite value) at the current iterate.
	StopEvalFailed StopReason = "EVAL_FAILED"

	// StopDiverging indicates the divergence guard flagged a growing
	// error trend. This is a heuristic exit, not a proof of divergence.
	StopDiverging StopReason = "DIVERGING"
)

// Result is the outcome of one Solve call. Immutable once returned.
//
// Root is the best iterate available at termination: the freshly computed
// iterate on convergence and divergence exits, the last iterate the loop
// stood on otherwise. Iterations is the index of the terminating step, or
// zero when no step ran.
type Result struct {
	Root       float64    `json:"root"`
	Iterations int        `json:"iterations"`
	Converged  bool       `json:"converged"`
	Reason     StopReason `json:"reason"`
	Trace      Trace      `json:"trace"`
}

// LastError returns the final recorded step error. Returns NaN when the
// trace is empty or the final step could not compute one.
func (r Result) LastError() float64 {
	last, ok := r.Trace.Last()
	if !ok {
		return math.NaN()
	}
	return last.Err
}
