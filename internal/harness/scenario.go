package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario for the solver.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Function is the textual f(x) to find a root of.
	Function string `yaml:"function"`

	// Derivative is the textual f'(x). Empty means derive symbolically.
	Derivative string `yaml:"derivative,omitempty"`

	X0      float64 `yaml:"x0"`
	Eps     float64 `yaml:"eps"`
	MaxIter int     `yaml:"max_iter"`

	// Divergence optionally overrides the default divergence guard.
	Divergence *DivergenceSpec `yaml:"divergence,omitempty"`

	// Expect holds the outcome assertions. All set fields must match.
	Expect Expectations `yaml:"expect"`
}

// DivergenceSpec mirrors the solver's guard policy in YAML form.
type DivergenceSpec struct {
	Disabled     bool    `yaml:"disabled,omitempty"`
	Factor       float64 `yaml:"factor,omitempty"`
	MinIteration int     `yaml:"min_iteration,omitempty"`
}

// Expectations are subset assertions on a run outcome: nil pointer
// fields are not checked.
type Expectations struct {
	// Converged asserts the convergence flag.
	Converged *bool `yaml:"converged,omitempty"`

	// Root asserts the final root, within RootTolerance.
	Root *float64 `yaml:"root,omitempty"`

	// RootTolerance is the |got-want| bound for Root. Defaults to 1e-9.
	RootTolerance float64 `yaml:"root_tolerance,omitempty"`

	// MaxIterations asserts an upper bound on iterations used.
	MaxIterations *int `yaml:"max_iterations,omitempty"`

	// StopReason asserts the terminal reason code.
	StopReason string `yaml:"stop_reason,omitempty"`
}

// LoadScenario reads and parses a scenario file. Unknown YAML fields are
// rejected so expectation typos fail loudly instead of silently passing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}

	if s.Name == "" {
		return nil, fmt.Errorf("load scenario %s: name is required", path)
	}
	if s.Function == "" {
		return nil, fmt.Errorf("load scenario %s: function is required", path)
	}

	return &s, nil
}
