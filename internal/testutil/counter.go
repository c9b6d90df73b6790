// Package testutil provides instrumented function wrappers for solver
// tests.
package testutil

import "sync"

// EvalCounter counts evaluations of a wrapped scalar function.
//
// It backs tests that pin the evaluation budget: one f and one f' call
// per iteration, never more. Counts can be reset so one counter serves
// several runs of the same scenario.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type EvalCounter struct {
	mu sync.Mutex
	n  int
}

// Wrap returns fn with call counting. The numeric behavior of fn is
// unchanged, errors included.
func (c *EvalCounter) Wrap(fn func(float64) (float64, error)) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		c.mu.Lock()
		c.n++
		c.mu.Unlock()
		return fn(x)
	}
}

// Count returns the number of evaluations so far.
func (c *EvalCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset sets the count back to 0.
func (c *EvalCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
