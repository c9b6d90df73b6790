package problem

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"
)

// CompileError represents a failure turning a CUE value into a Problem.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile parses a CUE value into a Problem.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the problem struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`problem: sqrt2: { function: "x^2 - 2", ... }`)
//	p, err := problem.Compile(v.LookupPath(cue.ParsePath("problem.sqrt2")))
func Compile(v cue.Value) (*Problem, error) {
	if err := v.Err(); err != nil {
		return nil, &CompileError{Field: "problem", Message: err.Error(), Pos: v.Pos()}
	}

	p := &Problem{}

	// Problem name comes from the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Name = labels[len(labels)-1].String()
	}

	var err error
	if p.Function, err = requiredString(v, "function"); err != nil {
		return nil, err
	}
	if p.Derivative, err = optionalString(v, "derivative"); err != nil {
		return nil, err
	}
	if p.X0, err = requiredFloat(v, "x0"); err != nil {
		return nil, err
	}
	if p.Eps, err = requiredFloat(v, "eps"); err != nil {
		return nil, err
	}
	if p.MaxIter, err = requiredInt(v, "max_iter"); err != nil {
		return nil, err
	}

	divVal := v.LookupPath(cue.ParsePath("divergence"))
	if divVal.Exists() {
		div, err := compileDivergence(divVal)
		if err != nil {
			return nil, err
		}
		p.Divergence = div
	}

	return p, nil
}

func compileDivergence(v cue.Value) (*DivergenceSpec, error) {
	spec := &DivergenceSpec{}

	if dis := v.LookupPath(cue.ParsePath("disabled")); dis.Exists() {
		b, err := dis.Bool()
		if err != nil {
			return nil, &CompileError{Field: "divergence.disabled", Message: err.Error(), Pos: dis.Pos()}
		}
		spec.Disabled = b
	}
	if f := v.LookupPath(cue.ParsePath("factor")); f.Exists() {
		val, err := f.Float64()
		if err != nil {
			return nil, &CompileError{Field: "divergence.factor", Message: err.Error(), Pos: f.Pos()}
		}
		spec.Factor = val
	}
	if m := v.LookupPath(cue.ParsePath("min_iteration")); m.Exists() {
		val, err := m.Int64()
		if err != nil {
			return nil, &CompileError{Field: "divergence.min_iteration", Message: err.Error(), Pos: m.Pos()}
		}
		spec.MinIteration = int(val)
	}

	return spec, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: err.Error(), Pos: fv.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: err.Error(), Pos: fv.Pos()}
	}
	return s, nil
}

func requiredFloat(v cue.Value, field string) (float64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, &CompileError{Field: field, Message: err.Error(), Pos: fv.Pos()}
	}
	return f, nil
}

func requiredInt(v cue.Value, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	i, err := fv.Int64()
	if err != nil {
		return 0, &CompileError{Field: field, Message: err.Error(), Pos: fv.Pos()}
	}
	return int(i), nil
}
