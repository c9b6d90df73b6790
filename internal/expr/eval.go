package expr

import (
	"fmt"
	"math"
)

// EvalError reports a domain fault while evaluating an expression at a
// concrete point: log of a non-positive number, division by zero, a
// negative base under a fractional exponent, or a non-finite result.
type EvalError struct {
	Op  string  // operator or function that faulted
	Arg float64 // the offending operand value
	Msg string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s: %s (argument %g)", e.Op, e.Msg, e.Arg)
}

// Named constants recognized by the parser.
const (
	piVal = math.Pi
	eVal  = math.E
)

// function describes a supported unary function.
type function struct {
	eval   func(float64) float64
	domain func(float64) error // nil when defined everywhere
}

var functions = map[string]function{
	"sin":  {eval: math.Sin},
	"cos":  {eval: math.Cos},
	"tan":  {eval: math.Tan},
	"asin": {eval: math.Asin, domain: unitInterval("asin")},
	"acos": {eval: math.Acos, domain: unitInterval("acos")},
	"atan": {eval: math.Atan},
	"sinh": {eval: math.Sinh},
	"cosh": {eval: math.Cosh},
	"tanh": {eval: math.Tanh},
	"exp":  {eval: math.Exp},
	"ln":   {eval: math.Log, domain: positive("ln")},
	"log":  {eval: math.Log, domain: positive("log")}, // natural log, sympy-style
	"sqrt": {eval: math.Sqrt, domain: nonNegative("sqrt")},
	"abs":  {eval: math.Abs},
}

func positive(op string) func(float64) error {
	return func(v float64) error {
		if v <= 0 {
			return &EvalError{Op: op, Arg: v, Msg: "argument must be positive"}
		}
		return nil
	}
}

func nonNegative(op string) func(float64) error {
	return func(v float64) error {
		if v < 0 {
			return &EvalError{Op: op, Arg: v, Msg: "argument must be non-negative"}
		}
		return nil
	}
}

func unitInterval(op string) func(float64) error {
	return func(v float64) error {
		if v < -1 || v > 1 {
			return &EvalError{Op: op, Arg: v, Msg: "argument must be in [-1, 1]"}
		}
		return nil
	}
}

func evalCall(name string, arg float64) (float64, error) {
	fn, ok := functions[name]
	if !ok {
		return 0, &EvalError{Op: name, Arg: arg, Msg: "unknown function"}
	}
	if fn.domain != nil {
		if err := fn.domain(arg); err != nil {
			return 0, err
		}
	}
	return checkFinite(name, arg, fn.eval(arg))
}

func evalPow(base, exp, at float64) (float64, error) {
	if base == 0 && exp < 0 {
		return 0, &EvalError{Op: "^", Arg: base, Msg: "zero base with negative exponent"}
	}
	if base < 0 && exp != math.Trunc(exp) {
		return 0, &EvalError{Op: "^", Arg: base, Msg: "negative base with fractional exponent"}
	}
	return checkFinite("^", at, math.Pow(base, exp))
}

// checkFinite converts silent float overflow into an explicit fault so
// the solver records it instead of iterating on garbage.
func checkFinite(op string, arg, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &EvalError{Op: op, Arg: arg, Msg: "result is not finite"}
	}
	return v, nil
}

func (n Num) Eval(float64) (float64, error) { return n.Val, nil }

func (Var) Eval(x float64) (float64, error) { return x, nil }

func (n Neg) Eval(x float64) (float64, error) {
	v, err := n.X.Eval(x)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (a Add) Eval(x float64) (float64, error) { return binaryEval(a.L, a.R, x, "+") }
func (s Sub) Eval(x float64) (float64, error) { return binaryEval(s.L, s.R, x, "-") }
func (m Mul) Eval(x float64) (float64, error) { return binaryEval(m.L, m.R, x, "*") }

func (d Div) Eval(x float64) (float64, error) {
	l, err := d.L.Eval(x)
	if err != nil {
		return 0, err
	}
	r, err := d.R.Eval(x)
	if err != nil {
		return 0, err
	}
	if r == 0 {
		return 0, &EvalError{Op: "/", Arg: l, Msg: "division by zero"}
	}
	return checkFinite("/", x, l/r)
}

func (p Pow) Eval(x float64) (float64, error) {
	base, err := p.Base.Eval(x)
	if err != nil {
		return 0, err
	}
	exp, err := p.Exp.Eval(x)
	if err != nil {
		return 0, err
	}
	return evalPow(base, exp, x)
}

func (c Call) Eval(x float64) (float64, error) {
	arg, err := c.Arg.Eval(x)
	if err != nil {
		return 0, err
	}
	return evalCall(c.Name, arg)
}

func binaryEval(le, re Expr, x float64, op string) (float64, error) {
	l, err := le.Eval(x)
	if err != nil {
		return 0, err
	}
	r, err := re.Eval(x)
	if err != nil {
		return 0, err
	}
	var v float64
	switch op {
	case "+":
		v = l + r
	case "-":
		v = l - r
	default:
		v = l * r
	}
	return checkFinite(op, x, v)
}

// Compile turns an expression into the numeric callable consumed by the
// solver. The callable is pure and safe for concurrent use.
func Compile(e Expr) func(float64) (float64, error) {
	return e.Eval
}
