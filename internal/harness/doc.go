// Package harness runs declarative solver scenarios: YAML files that
// name a function, the run parameters, and expectations about the
// outcome (convergence, root value, iteration budget, stop reason).
//
// Scenarios back two surfaces: the `converge suite` command, which runs
// a directory of them as a conformance suite, and golden-trace tests,
// which pin the exact iteration history of a scenario to a fixture file.
package harness
