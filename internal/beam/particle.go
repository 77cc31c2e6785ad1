package beam

import "math"

// Particle state codes. A positive state means the particle is alive;
// a dead particle carries the (negative) reason it was lost. Killing a
// particle never raises its state, so reapplying a kill is a no-op.
const (
	StateAlive int64 = 1

	// StateLostNotTracking marks particles evaluated outside genuine
	// multi-turn tracking (at_turn < 0), e.g. during an optics pass.
	StateLostNotTracking int64 = -30

	// StateLostNonFinite marks particles whose coordinates became NaN
	// or Inf during a pass.
	StateLostNonFinite int64 = -31
)

// Particle holds canonical phase-space coordinates, per-particle
// kinematic constants and lifecycle fields for one tracked particle.
// Positions are in metres, momenta are normalized by the reference
// momentum p0.
type Particle struct {
	X    float64
	Px   float64
	Y    float64
	Py   float64
	Zeta float64 // path-length-like longitudinal coordinate, accumulated
	S    float64 // total arc length traveled, accumulated

	Delta float64 // (p - p0) / p0
	Ptau  float64 // (E - E0) / (p0 c)
	Beta0 float64 // reference velocity / c
	Rvv   float64 // particle velocity / reference velocity

	State  int64
	AtTurn int64
}

// NewParticle builds a particle at the given transverse coordinates and
// momentum deviation, closing the kinematic relations so that Ptau and
// Rvv are consistent with Delta and Beta0. Delta and Ptau remain
// independently stored afterwards; element maps read both and never
// re-derive one from the other.
func NewParticle(x, px, y, py, delta, beta0 float64) (*Particle, error) {
	if beta0 <= 0 || beta0 > 1 {
		return nil, ErrBadBeta0
	}
	if delta+1 <= 0 {
		return nil, ErrBadDelta
	}

	// E/(p0 c) from the mass-shell relation; 1/(beta0*gamma0)^2 = 1/beta0^2 - 1.
	dp1 := delta + 1
	erel := math.Sqrt(dp1*dp1 + 1/(beta0*beta0) - 1)
	ptau := erel - 1/beta0
	rvv := dp1 / erel / beta0

	return &Particle{
		X: x, Px: px, Y: y, Py: py,
		Delta: delta,
		Ptau:  ptau,
		Beta0: beta0,
		Rvv:   rvv,
		State: StateAlive,
	}, nil
}

// Alive reports whether the particle has not been killed.
func (p *Particle) Alive() bool { return p.State > 0 }

// Kill marks the particle dead with the given reason code. It is
// idempotent: a particle already dead with an equal or lower code keeps
// its original reason.
func (p *Particle) Kill(code int64) {
	if p.State > code {
		p.State = code
	}
}

// Finite reports whether all phase-space coordinates are finite.
func (p *Particle) Finite() bool {
	for _, v := range [...]float64{p.X, p.Px, p.Y, p.Py, p.Zeta, p.Delta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
