package problem

import (
	"math"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/converge/internal/solver"
)

func compileString(t *testing.T, src, path string) cue.Value {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath(path))
}

const sqrt2CUE = `
problem: sqrt2: {
	function: "x^2 - 2"
	x0:       1.0
	eps:      1e-10
	max_iter: 50
}
`

func TestCompile_Minimal(t *testing.T) {
	v := compileString(t, sqrt2CUE, "problem.sqrt2")

	p, err := Compile(v)
	require.NoError(t, err)

	assert.Equal(t, "sqrt2", p.Name)
	assert.Equal(t, "x^2 - 2", p.Function)
	assert.Empty(t, p.Derivative)
	assert.Equal(t, 1.0, p.X0)
	assert.Equal(t, 1e-10, p.Eps)
	assert.Equal(t, 50, p.MaxIter)
	assert.Nil(t, p.Divergence)
}

func TestCompile_FullySpecified(t *testing.T) {
	src := `
problem: osc: {
	function:   "x^2 + 1"
	derivative: "2*x"
	x0:         0.5
	eps:        1e-8
	max_iter:   100
	divergence: {
		factor:        20.0
		min_iteration: 5
	}
}
`
	p, err := Compile(compileString(t, src, "problem.osc"))
	require.NoError(t, err)

	assert.Equal(t, "2*x", p.Derivative)
	require.NotNil(t, p.Divergence)
	assert.Equal(t, 20.0, p.Divergence.Factor)
	assert.Equal(t, 5, p.Divergence.MinIteration)
	assert.False(t, p.Divergence.Disabled)
}

func TestCompile_MissingField(t *testing.T) {
	src := `
problem: broken: {
	function: "x^2 - 2"
	x0:       1.0
	eps:      1e-10
}
`
	_, err := Compile(compileString(t, src, "problem.broken"))
	require.Error(t, err)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "max_iter", cerr.Field)
}

func TestCompile_WrongType(t *testing.T) {
	src := `
problem: broken: {
	function: 42
	x0:       1.0
	eps:      1e-10
	max_iter: 50
}
`
	_, err := Compile(compileString(t, src, "problem.broken"))
	require.Error(t, err)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "function", cerr.Field)
}

func TestProblem_ConfigAndOptions(t *testing.T) {
	p := &Problem{X0: 2, Eps: 1e-6, MaxIter: 30}
	assert.Equal(t, solver.Config{X0: 2, Eps: 1e-6, MaxIter: 30}, p.Config())
	assert.Nil(t, p.Options())

	p.Divergence = &DivergenceSpec{Disabled: true}
	assert.Len(t, p.Options(), 1)

	p.Divergence = &DivergenceSpec{Factor: 50}
	assert.Len(t, p.Options(), 1)
}

func TestValidate_OK(t *testing.T) {
	p := &Problem{Function: "x^2 - 2", X0: 1, Eps: 1e-10, MaxIter: 50}
	assert.Empty(t, Validate(p))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	p := &Problem{
		Function:   "",
		Derivative: "2*)",
		X0:         math.Inf(1),
		Eps:        0,
		MaxIter:    -1,
		Divergence: &DivergenceSpec{Factor: 0.5, MinIteration: -2},
	}

	errs := Validate(p)
	codes := make([]string, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	assert.ElementsMatch(t, []string{
		ErrFunctionEmpty,
		ErrDerivativeSyntax,
		ErrX0NotFinite,
		ErrEpsNotPositive,
		ErrMaxIterNotPositive,
		ErrDivergenceFactor,
		ErrDivergenceMinIteration,
	}, codes)
}

func TestValidate_FunctionSyntax(t *testing.T) {
	p := &Problem{Function: "foo(x)", X0: 1, Eps: 1e-10, MaxIter: 50}

	errs := Validate(p)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrFunctionSyntax, errs[0].Code)
	assert.Contains(t, errs[0].Error(), "[E102] function:")
}

func TestValidate_DisabledGuardSkipsGuardChecks(t *testing.T) {
	p := &Problem{
		Function:   "x",
		X0:         0,
		Eps:        1e-10,
		MaxIter:    10,
		Divergence: &DivergenceSpec{Disabled: true, Factor: 0.5},
	}
	assert.Empty(t, Validate(p))
}
