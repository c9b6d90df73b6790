// Package solver implements the Newton-Raphson iteration for finding a
// real root of a scalar function.
//
// The solver is a pure numeric loop: it performs no I/O, holds no shared
// state, and converts every in-loop numeric fault (evaluation failure,
// near-singular derivative, divergence, iteration exhaustion) into a
// terminal Result with a StopReason code instead of returning an error.
// Per-iteration progress is exposed through an observer callback so the
// loop stays silent and testable.
//
// Concurrency model: a single call to Solve is synchronous and owns its
// trace and loop variables exclusively. Independent calls may run in
// parallel without coordination.
package solver
