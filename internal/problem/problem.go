// Package problem defines root-finding problems declared in CUE files
// and compiles them into solver inputs.
//
// A problem names the function text, an optional derivative (empty means
// derive symbolically), the initial guess, tolerance, iteration cap, and
// an optional divergence-guard override. Validation happens here, once,
// at the boundary; the solver core assumes validated inputs.
package problem

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/converge/internal/expr"
	"github.com/roach88/converge/internal/solver"
)

// Problem is a compiled root-finding problem definition.
type Problem struct {
	Name       string
	Function   string
	Derivative string // empty: derive symbolically from Function
	X0         float64
	Eps        float64
	MaxIter    int
	Divergence *DivergenceSpec
}

// DivergenceSpec overrides the default divergence guard for one problem.
type DivergenceSpec struct {
	Disabled     bool
	Factor       float64
	MinIteration int
}

// Config returns the solver configuration for this problem.
func (p *Problem) Config() solver.Config {
	return solver.Config{X0: p.X0, Eps: p.Eps, MaxIter: p.MaxIter}
}

// Options returns the solver options implied by the divergence spec.
func (p *Problem) Options() []solver.Option {
	if p.Divergence == nil {
		return nil
	}
	if p.Divergence.Disabled {
		return []solver.Option{solver.WithoutDivergenceGuard()}
	}
	guard := solver.DefaultDivergencePolicy()
	if p.Divergence.Factor != 0 {
		guard.Factor = p.Divergence.Factor
	}
	if p.Divergence.MinIteration != 0 {
		guard.MinIteration = p.Divergence.MinIteration
	}
	return []solver.Option{solver.WithDivergenceGuard(guard)}
}

// Validation error codes (E101-E199).
const (
	ErrFunctionEmpty          = "E101" // function is required
	ErrFunctionSyntax         = "E102" // function does not parse
	ErrDerivativeSyntax       = "E103" // derivative does not parse
	ErrEpsNotPositive         = "E104" // eps must be > 0
	ErrMaxIterNotPositive     = "E105" // max_iter must be > 0
	ErrDivergenceFactor       = "E106" // guard factor must be > 1
	ErrDivergenceMinIteration = "E107" // guard min_iteration must be >= 0
	ErrX0NotFinite            = "E108" // x0 must be finite
)

// ValidationError represents a problem validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled problem against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(p *Problem) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(p.Function) == "" {
		errs = append(errs, ValidationError{
			Field:   "function",
			Message: "function is required and must be non-empty",
			Code:    ErrFunctionEmpty,
		})
	} else if _, err := expr.Parse(p.Function); err != nil {
		errs = append(errs, ValidationError{
			Field:   "function",
			Message: err.Error(),
			Code:    ErrFunctionSyntax,
		})
	}

	if strings.TrimSpace(p.Derivative) != "" {
		if _, err := expr.Parse(p.Derivative); err != nil {
			errs = append(errs, ValidationError{
				Field:   "derivative",
				Message: err.Error(),
				Code:    ErrDerivativeSyntax,
			})
		}
	}

	if math.IsNaN(p.X0) || math.IsInf(p.X0, 0) {
		errs = append(errs, ValidationError{
			Field:   "x0",
			Message: "initial guess must be a finite number",
			Code:    ErrX0NotFinite,
		})
	}

	if p.Eps <= 0 {
		errs = append(errs, ValidationError{
			Field:   "eps",
			Message: fmt.Sprintf("tolerance must be positive, got %g", p.Eps),
			Code:    ErrEpsNotPositive,
		})
	}

	if p.MaxIter <= 0 {
		errs = append(errs, ValidationError{
			Field:   "max_iter",
			Message: fmt.Sprintf("iteration cap must be positive, got %d", p.MaxIter),
			Code:    ErrMaxIterNotPositive,
		})
	}

	if d := p.Divergence; d != nil && !d.Disabled {
		if d.Factor != 0 && d.Factor <= 1 {
			errs = append(errs, ValidationError{
				Field:   "divergence.factor",
				Message: fmt.Sprintf("growth factor must be > 1, got %g", d.Factor),
				Code:    ErrDivergenceFactor,
			})
		}
		if d.MinIteration < 0 {
			errs = append(errs, ValidationError{
				Field:   "divergence.min_iteration",
				Message: fmt.Sprintf("min_iteration must be >= 0, got %d", d.MinIteration),
				Code:    ErrDivergenceMinIteration,
			})
		}
	}

	return errs
}
