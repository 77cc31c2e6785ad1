package elements

import "github.com/san-kum/beamsim/internal/beam"

// Element is a single-pass transport map through one beamline element.
// Track mutates exactly one particle's phase-space coordinates and
// must not touch its lifecycle fields. Implementations are stateless
// with respect to the particle stream and safe for concurrent use
// across particles, provided the element parameters are not mutated
// during a pass.
type Element interface {
	Track(p *beam.Particle)
}

// Configurable exposes element parameters for interactive tuning.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// nonzero tests strict inequality against exact zero. The degenerate
// drift branches of the thick maps are selected on exact equality, not
// on a tolerance.
func nonzero(v float64) bool {
	return v < 0 || v > 0
}
