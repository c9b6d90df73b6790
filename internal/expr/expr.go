package expr

import (
	"fmt"
	"strconv"
)

// Expr is a parsed expression in the single variable x.
//
// Implementations are immutable: Diff returns a new tree and Eval never
// mutates the receiver, so an Expr may be shared across goroutines.
type Expr interface {
	// Eval evaluates the expression at x. Domain faults return *EvalError.
	Eval(x float64) (float64, error)

	// Diff returns the symbolic derivative with respect to x.
	Diff() Expr

	// String renders the expression with minimal parenthesization.
	String() string

	// prec reports the node's precedence for String rendering.
	prec() int
}

// Node precedences, loosest first.
const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

// Num is a numeric literal.
type Num struct{ Val float64 }

// Var is the variable x.
type Var struct{}

// Neg is unary negation.
type Neg struct{ X Expr }

// Add, Sub, Mul, Div and Pow are the binary operators.
type (
	Add struct{ L, R Expr }
	Sub struct{ L, R Expr }
	Mul struct{ L, R Expr }
	Div struct{ L, R Expr }
	Pow struct{ Base, Exp Expr }
)

// Call applies a named unary function (sin, cos, exp, ...).
type Call struct {
	Name string
	Arg  Expr
}

func (Num) prec() int  { return precAtom }
func (Var) prec() int  { return precAtom }
func (Neg) prec() int  { return precNeg }
func (Add) prec() int  { return precAdd }
func (Sub) prec() int  { return precAdd }
func (Mul) prec() int  { return precMul }
func (Div) prec() int  { return precMul }
func (Pow) prec() int  { return precPow }
func (Call) prec() int { return precAtom }

func (n Num) String() string {
	if n.Val < 0 {
		return "-" + strconv.FormatFloat(-n.Val, 'g', -1, 64)
	}
	return strconv.FormatFloat(n.Val, 'g', -1, 64)
}

func (Var) String() string { return "x" }

func (n Neg) String() string { return "-" + child(n.X, precNeg) }

func (a Add) String() string { return child(a.L, precAdd) + " + " + child(a.R, precAdd) }
func (s Sub) String() string { return child(s.L, precAdd) + " - " + childRight(s.R, precAdd) }
func (m Mul) String() string { return child(m.L, precMul) + "*" + child(m.R, precMul) }
func (d Div) String() string { return child(d.L, precMul) + "/" + childRight(d.R, precMul) }

func (p Pow) String() string {
	// Exponentiation is right-associative; the base needs parens even at
	// equal precedence.
	return childRight(p.Base, precPow) + "^" + child(p.Exp, precPow)
}

func (c Call) String() string { return c.Name + "(" + c.Arg.String() + ")" }

// child parenthesizes e when it binds looser than the parent.
func child(e Expr, parent int) string {
	if e.prec() < parent {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// childRight parenthesizes e when it binds looser than or equal to the
// parent, for the non-associative side of - / ^.
func childRight(e Expr, parent int) string {
	if e.prec() <= parent {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// Smart constructors. They fold constant operands and strip algebraic
// identities (x+0, x*1, x^1, ...) so derivative trees stay readable.

// NewNum builds a literal.
func NewNum(v float64) Expr { return Num{Val: v} }

// X builds the variable.
func X() Expr { return Var{} }

// NewNeg negates e, folding literals and double negation.
func NewNeg(e Expr) Expr {
	switch v := e.(type) {
	case Num:
		return Num{Val: -v.Val}
	case Neg:
		return v.X
	}
	return Neg{X: e}
}

// NewAdd builds l + r.
func NewAdd(l, r Expr) Expr {
	ln, lok := l.(Num)
	rn, rok := r.(Num)
	switch {
	case lok && rok:
		return Num{Val: ln.Val + rn.Val}
	case lok && ln.Val == 0:
		return r
	case rok && rn.Val == 0:
		return l
	}
	if neg, ok := r.(Neg); ok {
		return NewSub(l, neg.X)
	}
	return Add{L: l, R: r}
}

// NewSub builds l - r.
func NewSub(l, r Expr) Expr {
	ln, lok := l.(Num)
	rn, rok := r.(Num)
	switch {
	case lok && rok:
		return Num{Val: ln.Val - rn.Val}
	case rok && rn.Val == 0:
		return l
	case lok && ln.Val == 0:
		return NewNeg(r)
	}
	return Sub{L: l, R: r}
}

// NewMul builds l * r.
func NewMul(l, r Expr) Expr {
	ln, lok := l.(Num)
	rn, rok := r.(Num)
	switch {
	case lok && rok:
		return Num{Val: ln.Val * rn.Val}
	case lok && ln.Val == 0, rok && rn.Val == 0:
		return Num{Val: 0}
	case lok && ln.Val == 1:
		return r
	case rok && rn.Val == 1:
		return l
	case lok && ln.Val == -1:
		return NewNeg(r)
	case rok && rn.Val == -1:
		return NewNeg(l)
	}
	return Mul{L: l, R: r}
}

// NewDiv builds l / r. Literal folding is skipped for a zero divisor so
// the fault surfaces at evaluation time, not silently at build time.
func NewDiv(l, r Expr) Expr {
	ln, lok := l.(Num)
	rn, rok := r.(Num)
	switch {
	case lok && rok && rn.Val != 0:
		return Num{Val: ln.Val / rn.Val}
	case lok && ln.Val == 0 && !(rok && rn.Val == 0):
		return Num{Val: 0}
	case rok && rn.Val == 1:
		return l
	}
	return Div{L: l, R: r}
}

// NewPow builds base ^ exp.
func NewPow(base, exp Expr) Expr {
	if en, ok := exp.(Num); ok {
		switch en.Val {
		case 0:
			return Num{Val: 1}
		case 1:
			return base
		}
		if bn, ok := base.(Num); ok {
			if v, err := evalPow(bn.Val, en.Val, 0); err == nil {
				return Num{Val: v}
			}
		}
	}
	return Pow{Base: base, Exp: exp}
}

// NewCall builds name(arg), folding literal arguments when the function
// is defined there.
func NewCall(name string, arg Expr) Expr {
	if _, ok := functions[name]; !ok {
		panic(fmt.Sprintf("expr: unknown function %q", name))
	}
	if n, ok := arg.(Num); ok {
		if v, err := evalCall(name, n.Val); err == nil {
			return Num{Val: v}
		}
	}
	return Call{Name: name, Arg: arg}
}
