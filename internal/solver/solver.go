package solver

import "math"

// Func evaluates a scalar function at x. A non-nil error marks the point
// as an evaluation fault (domain error, division by zero, overflow); the
// solver converts it into a terminal unconverged Result rather than
// propagating it.
type Func func(x float64) (float64, error)

// Config holds the numeric parameters for one run. The solver never
// mutates it and does not re-validate Eps/MaxIter positivity; that is the
// caller's boundary responsibility. A MaxIter <= 0 is defined behavior
// (zero iterations, empty trace), not a precondition violation.
type Config struct {
	X0      float64 `json:"x0" yaml:"x0"`
	Eps     float64 `json:"eps" yaml:"eps"`
	MaxIter int     `json:"max_iter" yaml:"max_iter"`
}

// DerivativeFloor is the near-singular derivative threshold: a step whose
// |f'(xn)| falls below it terminates the run instead of dividing by a
// number too small to trust.
const DerivativeFloor = 1e-15

// Solve runs the Newton-Raphson recurrence x_{k+1} = x_k - f(x_k)/f'(x_k)
// from cfg.X0 until the successive-iterate error drops below cfg.Eps, a
// numeric fault occurs, the divergence guard trips, or cfg.MaxIter steps
// have run.
//
// Every step appends exactly one IterationRecord to the result trace and
// reports it to the observer, faulting steps included. Numeric faults are
// reported outcomes (Converged=false with a StopReason), never panics or
// errors; only a nil f or fp is a caller-contract violation and panics.
//
// Solve is deterministic: identical arguments with pure f and fp yield
// identical Results.
func Solve(f, fp Func, cfg Config, opts ...Option) Result {
	set := newSettings(opts)

	xn := cfg.X0
	trace := make(Trace, 0, max(cfg.MaxIter, 0))
	prevErr := math.Inf(1)

	emit := func(rec IterationRecord) {
		trace = append(trace, rec)
		if set.observer != nil {
			set.observer(rec)
		}
	}

	for k := 1; k <= cfg.MaxIter; k++ {
		fxn, errF := f(xn)
		fpxn, errFp := fp(xn)
		if errF != nil || errFp != nil || !finite(fxn) || !finite(fpxn) {
			emit(IterationRecord{K: k, Xn: xn, FXn: math.NaN(), Err: math.NaN()})
			return Result{Root: xn, Iterations: k, Reason: StopEvalFailed, Trace: trace}
		}

		if math.Abs(fpxn) < DerivativeFloor {
			emit(IterationRecord{K: k, Xn: xn, FXn: fxn, Err: math.NaN()})
			return Result{Root: xn, Iterations: k, Reason: StopSingularDerivative, Trace: trace}
		}

		xn1 := xn - fxn/fpxn
		stepErr := math.Abs(xn1 - xn)
		emit(IterationRecord{K: k, Xn: xn, FXn: fxn, Err: stepErr})

		// The converged root is the new iterate, one step past the xn
		// recorded above.
		if stepErr < cfg.Eps {
			return Result{Root: xn1, Iterations: k, Converged: true, Reason: StopConverged, Trace: trace}
		}

		if set.guardEnabled && k > set.guard.MinIteration && stepErr > set.guard.Factor*prevErr {
			return Result{Root: xn1, Iterations: k, Reason: StopDiverging, Trace: trace}
		}

		prevErr = stepErr
		xn = xn1
	}

	return Result{Root: xn, Iterations: max(cfg.MaxIter, 0), Reason: StopMaxIterations, Trace: trace}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
