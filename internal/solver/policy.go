package solver

// DivergencePolicy configures the heuristic early-exit for growing error
// trends: once more than MinIteration steps have run, a step error larger
// than Factor times the previous step error stops the run with
// StopDiverging.
//
// The guard can false-positive on functions whose error legitimately
// oscillates before settling, so it is a tunable policy rather than a
// correctness guarantee. Disable it with WithoutDivergenceGuard for such
// functions.
type DivergencePolicy struct {
	// Factor is the growth multiplier that trips the guard. Must be > 1.
	Factor float64 `json:"factor" yaml:"factor"`

	// MinIteration is the last iteration the guard ignores. The guard
	// only fires for steps with k > MinIteration, giving the iteration a
	// few steps to settle.
	MinIteration int `json:"min_iteration" yaml:"min_iteration"`
}

// Default divergence guard parameters.
const (
	DefaultDivergenceFactor       = 10.0
	DefaultDivergenceMinIteration = 3
)

// DefaultDivergencePolicy returns the guard configuration used when no
// option overrides it.
func DefaultDivergencePolicy() DivergencePolicy {
	return DivergencePolicy{
		Factor:       DefaultDivergenceFactor,
		MinIteration: DefaultDivergenceMinIteration,
	}
}

// Option configures a Solve call.
type Option func(*settings)

// settings holds per-call configuration assembled from options.
type settings struct {
	guard        DivergencePolicy
	guardEnabled bool
	observer     func(IterationRecord)
}

// WithDivergenceGuard replaces the default divergence policy.
func WithDivergenceGuard(p DivergencePolicy) Option {
	return func(s *settings) {
		s.guard = p
		s.guardEnabled = true
	}
}

// WithoutDivergenceGuard disables the divergence heuristic entirely; the
// run then terminates only on convergence, a fault, or MaxIter.
func WithoutDivergenceGuard() Option {
	return func(s *settings) {
		s.guardEnabled = false
	}
}

// WithObserver registers a callback invoked once per appended iteration
// record, in iteration order, including the partial record of a faulting
// step. The observer must not retain or mutate solver state; it is the
// extension point for progress printing and wall-clock cancellation
// wrappers.
func WithObserver(fn func(IterationRecord)) Option {
	return func(s *settings) {
		s.observer = fn
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		guard:        DefaultDivergencePolicy(),
		guardEnabled: true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
