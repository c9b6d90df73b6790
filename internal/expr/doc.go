// Package expr parses textual math expressions in a single variable x
// into an AST that can be symbolically differentiated and compiled into a
// numeric callable.
//
// The package is the boundary between user-supplied text and the numeric
// solver: parse failures surface as *ParseError before any iteration
// runs, while domain faults during evaluation (log of a non-positive
// number, division by zero, non-finite results) surface as *EvalError
// from the compiled callable and are absorbed by the solver as terminal
// run outcomes.
package expr
