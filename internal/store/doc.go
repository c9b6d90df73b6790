// Package store persists solver runs and their iteration traces to a
// SQLite database so past runs can be listed and replayed as reports.
//
// The schema keeps one row per run plus one row per iteration record.
// NaN values (faulting steps record NaN for f(xn) and the step error)
// are stored as NULL and restored as NaN on read. Writes are atomic: a
// run and its full trace commit in a single transaction, and duplicate
// run IDs are ignored for idempotency.
package store
