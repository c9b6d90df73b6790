package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/converge/internal/expr"
	"github.com/roach88/converge/internal/solver"
)

// Result is the outcome of executing one scenario.
type Result struct {
	ScenarioName string

	// Derivative is the textual f'(x) actually used; AutoDerived marks
	// it as symbolically computed rather than scenario-supplied.
	Derivative  string
	AutoDerived bool

	// Solver is the raw run result.
	Solver solver.Result

	// Failures lists unmet expectations. Empty means the scenario passed.
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes a scenario: parse the function (and derivative, deriving
// it symbolically when blank), solve, then evaluate expectations.
//
// A returned error means the scenario itself is unusable (unparseable
// expressions); expectation mismatches are reported via Failures, not
// errors.
func Run(s *Scenario) (*Result, error) {
	f, err := expr.Parse(s.Function)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: function: %w", s.Name, err)
	}

	var (
		fp          expr.Expr
		autoDerived bool
	)
	if strings.TrimSpace(s.Derivative) == "" {
		fp = f.Diff()
		autoDerived = true
	} else {
		fp, err = expr.Parse(s.Derivative)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: derivative: %w", s.Name, err)
		}
	}

	cfg := solver.Config{X0: s.X0, Eps: s.Eps, MaxIter: s.MaxIter}
	res := solver.Solve(expr.Compile(f), expr.Compile(fp), cfg, s.options()...)

	result := &Result{
		ScenarioName: s.Name,
		Derivative:   fp.String(),
		AutoDerived:  autoDerived,
		Solver:       res,
		Failures:     checkExpectations(s.Expect, res),
	}
	return result, nil
}

func (s *Scenario) options() []solver.Option {
	if s.Divergence == nil {
		return nil
	}
	if s.Divergence.Disabled {
		return []solver.Option{solver.WithoutDivergenceGuard()}
	}
	guard := solver.DefaultDivergencePolicy()
	if s.Divergence.Factor != 0 {
		guard.Factor = s.Divergence.Factor
	}
	if s.Divergence.MinIteration != 0 {
		guard.MinIteration = s.Divergence.MinIteration
	}
	return []solver.Option{solver.WithDivergenceGuard(guard)}
}
