package solver

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/converge/internal/testutil"
)

func pure(f func(float64) float64) Func {
	return func(x float64) (float64, error) { return f(x), nil }
}

var (
	sqrt2F  = pure(func(x float64) float64 { return x*x - 2 })
	sqrt2FP = pure(func(x float64) float64 { return 2 * x })

	noRootF  = pure(func(x float64) float64 { return x*x + 1 })
	noRootFP = pure(func(x float64) float64 { return 2 * x })
)

func TestSolve_SqrtTwo(t *testing.T) {
	cfg := Config{X0: 1.0, Eps: 1e-10, MaxIter: 50}
	res := Solve(sqrt2F, sqrt2FP, cfg)

	require.True(t, res.Converged)
	assert.Equal(t, StopConverged, res.Reason)
	assert.LessOrEqual(t, res.Iterations, 6)
	assert.InDelta(t, math.Sqrt2, res.Root, 1e-10)
	assert.Len(t, res.Trace, res.Iterations)
}

func TestSolve_SqrtTwo_ExactTrajectory(t *testing.T) {
	cfg := Config{X0: 1.0, Eps: 1e-10, MaxIter: 50}
	res := Solve(sqrt2F, sqrt2FP, cfg)

	require.Equal(t, 5, res.Iterations)
	assert.Equal(t, 1.4142135623730951, res.Root)

	// First two steps are exact in float64.
	require.GreaterOrEqual(t, len(res.Trace), 2)
	assert.Equal(t, IterationRecord{K: 1, Xn: 1.0, FXn: -1.0, Err: 0.5}, res.Trace[0])
	assert.Equal(t, 1.5, res.Trace[1].Xn)
	assert.Equal(t, 0.25, res.Trace[1].FXn)
}

func TestSolve_ConvergedRootIsNewIterate(t *testing.T) {
	// The returned root must be the iterate computed by the converging
	// step, not the Xn recorded in that step's trace entry.
	cfg := Config{X0: 1.0, Eps: 1e-10, MaxIter: 50}
	res := Solve(sqrt2F, sqrt2FP, cfg)

	last, ok := res.Trace.Last()
	require.True(t, ok)
	assert.NotEqual(t, last.Xn, res.Root)
	assert.Less(t, last.Err, cfg.Eps)
}

func TestSolve_Linear(t *testing.T) {
	// f(x) = x - c with f' = 1 lands exactly on c in one step; the
	// following step measures a zero error and confirms convergence.
	for _, c := range []float64{-3.5, 0, 7, 1e6} {
		t.Run(fmt.Sprintf("c=%g", c), func(t *testing.T) {
			f := pure(func(x float64) float64 { return x - c })
			fp := pure(func(float64) float64 { return 1 })

			res := Solve(f, fp, Config{X0: 100, Eps: 1e-12, MaxIter: 10})
			require.True(t, res.Converged)
			assert.Equal(t, c, res.Root)
			assert.LessOrEqual(t, res.Iterations, 2)
		})
	}
}

func TestSolve_QuadraticConvergenceIsSuperlinear(t *testing.T) {
	res := Solve(sqrt2F, sqrt2FP, Config{X0: 1.0, Eps: 1e-14, MaxIter: 50})
	require.True(t, res.Converged)

	// Once near the root, each step error is roughly the square of the
	// previous one (up to the floating-point floor).
	for i := 2; i < len(res.Trace); i++ {
		prev, cur := res.Trace[i-1].Err, res.Trace[i].Err
		if prev < 1e-7 {
			break // at the float64 floor, the ratio is noise
		}
		assert.Less(t, cur, prev*prev*10,
			"step %d error %g not superlinear vs %g", res.Trace[i].K, cur, prev)
	}
}

func TestSolve_SingularDerivative(t *testing.T) {
	// x^2+1 from 1.0 steps to exactly 0, where the derivative vanishes.
	res := Solve(noRootF, noRootFP, Config{X0: 1.0, Eps: 1e-10, MaxIter: 50})

	require.False(t, res.Converged)
	assert.Equal(t, StopSingularDerivative, res.Reason)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 0.0, res.Root)

	last, ok := res.Trace.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last.K)
	assert.Equal(t, 0.0, last.Xn)
	assert.Equal(t, 1.0, last.FXn)
	assert.True(t, math.IsNaN(last.Err), "singular step records a NaN error")
}

func TestSolve_DivergenceGuard(t *testing.T) {
	// x^2+1 from 1.1 oscillates with a growing error and trips the
	// default guard at iteration 6.
	res := Solve(noRootF, noRootFP, Config{X0: 1.1, Eps: 1e-10, MaxIter: 60})

	require.False(t, res.Converged)
	assert.Equal(t, StopDiverging, res.Reason)
	assert.Equal(t, 6, res.Iterations)
	assert.Len(t, res.Trace, 6)
}

func TestSolve_GuardDisabled_ExhaustsIterations(t *testing.T) {
	res := Solve(noRootF, noRootFP,
		Config{X0: 1.1, Eps: 1e-10, MaxIter: 60},
		WithoutDivergenceGuard())

	require.False(t, res.Converged)
	assert.Equal(t, StopMaxIterations, res.Reason)
	assert.Equal(t, 60, res.Iterations)
	assert.Len(t, res.Trace, 60)
}

func TestSolve_GuardNeverFiresBeforeMinIteration(t *testing.T) {
	// A wildly growing error in the first steps must not trip the guard
	// while k <= MinIteration.
	step := 0
	f := pure(func(x float64) float64 {
		return x // irrelevant; fp drives the step size
	})
	fp := func(x float64) (float64, error) {
		step++
		return 1.0 / math.Pow(100, float64(step)), nil // steps grow 100x each time
	}

	res := Solve(f, fp, Config{X0: 1, Eps: 1e-10, MaxIter: 5},
		WithDivergenceGuard(DivergencePolicy{Factor: 10, MinIteration: 3}))

	require.Equal(t, StopDiverging, res.Reason)
	assert.Equal(t, 4, res.Iterations, "first eligible step is MinIteration+1")
}

func TestSolve_EvaluationFault(t *testing.T) {
	faultAt := 1.5
	f := func(x float64) (float64, error) {
		if x == faultAt {
			return 0, errors.New("domain error")
		}
		return x*x - 2, nil
	}

	res := Solve(f, sqrt2FP, Config{X0: 1.0, Eps: 1e-10, MaxIter: 50})

	require.False(t, res.Converged)
	assert.Equal(t, StopEvalFailed, res.Reason)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, faultAt, res.Root, "root is the iterate the fault occurred at")

	last, ok := res.Trace.Last()
	require.True(t, ok)
	assert.True(t, math.IsNaN(last.FXn))
	assert.True(t, math.IsNaN(last.Err))
}

func TestSolve_NonFiniteValueIsAFault(t *testing.T) {
	f := pure(func(x float64) float64 { return math.Inf(1) })
	res := Solve(f, sqrt2FP, Config{X0: 1.0, Eps: 1e-10, MaxIter: 5})

	require.False(t, res.Converged)
	assert.Equal(t, StopEvalFailed, res.Reason)
	assert.Equal(t, 1, res.Iterations)
}

func TestSolve_ZeroMaxIter(t *testing.T) {
	for _, maxIter := range []int{0, -3} {
		t.Run(fmt.Sprintf("max_iter=%d", maxIter), func(t *testing.T) {
			res := Solve(sqrt2F, sqrt2FP, Config{X0: 1.0, Eps: 1e-10, MaxIter: maxIter})

			assert.False(t, res.Converged)
			assert.Equal(t, 0, res.Iterations)
			assert.Equal(t, 1.0, res.Root, "root falls back to X0")
			assert.Empty(t, res.Trace)
			assert.Equal(t, StopMaxIterations, res.Reason)
		})
	}
}

func TestSolve_TraceInvariants(t *testing.T) {
	res := Solve(noRootF, noRootFP,
		Config{X0: 0.5, Eps: 1e-10, MaxIter: 40},
		WithoutDivergenceGuard())

	assert.LessOrEqual(t, len(res.Trace), 40)
	for i, rec := range res.Trace {
		assert.Equal(t, i+1, rec.K, "K values start at 1 and increase by 1")
	}
}

func TestSolve_ObserverSeesEveryRecord(t *testing.T) {
	var seen []IterationRecord
	res := Solve(noRootF, noRootFP,
		Config{X0: 1.0, Eps: 1e-10, MaxIter: 50},
		WithObserver(func(rec IterationRecord) { seen = append(seen, rec) }))

	// The faulting (singular) record is observed too.
	require.Len(t, seen, len(res.Trace))
	for i := range seen {
		assert.Equal(t, res.Trace[i].K, seen[i].K)
		assert.Equal(t, res.Trace[i].Xn, seen[i].Xn)
	}
}

func TestSolve_Idempotent(t *testing.T) {
	cfg := Config{X0: 1.0, Eps: 1e-10, MaxIter: 50}
	a := Solve(sqrt2F, sqrt2FP, cfg)
	b := Solve(sqrt2F, sqrt2FP, cfg)

	assert.Equal(t, a, b, "pure inputs must yield bit-identical results")
}

func TestSolve_OneEvaluationPerIteration(t *testing.T) {
	var cf, cfp testutil.EvalCounter
	res := Solve(cf.Wrap(sqrt2F), cfp.Wrap(sqrt2FP),
		Config{X0: 1.0, Eps: 1e-10, MaxIter: 50})

	require.True(t, res.Converged)
	assert.Equal(t, res.Iterations, cf.Count())
	assert.Equal(t, res.Iterations, cfp.Count())
}

func TestDefaultDivergencePolicy(t *testing.T) {
	p := DefaultDivergencePolicy()
	assert.Equal(t, 10.0, p.Factor)
	assert.Equal(t, 3, p.MinIteration)
}

func TestTrace_Last_Empty(t *testing.T) {
	_, ok := Trace{}.Last()
	assert.False(t, ok)
}

func TestResult_LastError_Empty(t *testing.T) {
	assert.True(t, math.IsNaN(Result{}.LastError()))
}
