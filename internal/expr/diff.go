package expr

// Symbolic differentiation with respect to x. Every rule goes through the
// smart constructors so constant subtrees fold and identity factors drop
// out of the printed derivative.

func (Num) Diff() Expr { return Num{Val: 0} }

func (Var) Diff() Expr { return Num{Val: 1} }

func (n Neg) Diff() Expr { return NewNeg(n.X.Diff()) }

func (a Add) Diff() Expr { return NewAdd(a.L.Diff(), a.R.Diff()) }

func (s Sub) Diff() Expr { return NewSub(s.L.Diff(), s.R.Diff()) }

// Product rule: (l*r)' = l'*r + l*r'.
func (m Mul) Diff() Expr {
	return NewAdd(
		NewMul(m.L.Diff(), m.R),
		NewMul(m.L, m.R.Diff()),
	)
}

// Quotient rule: (l/r)' = (l'*r - l*r') / r^2.
func (d Div) Diff() Expr {
	num := NewSub(
		NewMul(d.L.Diff(), d.R),
		NewMul(d.L, d.R.Diff()),
	)
	return NewDiv(num, NewPow(d.R, NewNum(2)))
}

// Power rule. For a constant exponent c: c * base^(c-1) * base'.
// For a general exponent: base^exp * (exp' * ln(base) + exp * base'/base).
func (p Pow) Diff() Expr {
	if c, ok := p.Exp.(Num); ok {
		return NewMul(
			NewMul(NewNum(c.Val), NewPow(p.Base, NewNum(c.Val-1))),
			p.Base.Diff(),
		)
	}
	inner := NewAdd(
		NewMul(p.Exp.Diff(), NewCall("ln", p.Base)),
		NewMul(p.Exp, NewDiv(p.Base.Diff(), p.Base)),
	)
	return NewMul(NewPow(p.Base, p.Exp), inner)
}

// Chain rule: f(u)' = f'(u) * u'.
func (c Call) Diff() Expr {
	u := c.Arg
	du := u.Diff()

	var outer Expr
	switch c.Name {
	case "sin":
		outer = NewCall("cos", u)
	case "cos":
		outer = NewNeg(NewCall("sin", u))
	case "tan":
		// 1 / cos(u)^2
		outer = NewDiv(NewNum(1), NewPow(NewCall("cos", u), NewNum(2)))
	case "asin":
		outer = NewDiv(NewNum(1), NewCall("sqrt", NewSub(NewNum(1), NewPow(u, NewNum(2)))))
	case "acos":
		outer = NewNeg(NewDiv(NewNum(1), NewCall("sqrt", NewSub(NewNum(1), NewPow(u, NewNum(2))))))
	case "atan":
		outer = NewDiv(NewNum(1), NewAdd(NewNum(1), NewPow(u, NewNum(2))))
	case "sinh":
		outer = NewCall("cosh", u)
	case "cosh":
		outer = NewCall("sinh", u)
	case "tanh":
		outer = NewSub(NewNum(1), NewPow(NewCall("tanh", u), NewNum(2)))
	case "exp":
		outer = NewCall("exp", u)
	case "ln", "log":
		outer = NewDiv(NewNum(1), u)
	case "sqrt":
		outer = NewDiv(NewNum(1), NewMul(NewNum(2), NewCall("sqrt", u)))
	case "abs":
		// d|u|/du = u/|u|; undefined at zero, which evaluation reports
		// as a division-by-zero fault.
		outer = NewDiv(u, NewCall("abs", u))
	default:
		panic("expr: no derivative rule for " + c.Name)
	}

	return NewMul(outer, du)
}
