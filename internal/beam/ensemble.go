package beam

import (
	"math"
	"math/rand"
)

// Ensemble exclusively owns the contiguous particle storage for one
// bunch. Element maps receive a pointer to exactly one particle at a
// time and can never reach another particle through it.
type Ensemble struct {
	particles []Particle
}

// NewEnsemble wraps a pre-built particle slice, taking ownership of it.
func NewEnsemble(particles []Particle) *Ensemble {
	return &Ensemble{particles: particles}
}

// Len returns the number of particles, alive or dead.
func (e *Ensemble) Len() int { return len(e.particles) }

// At returns a pointer to particle i. The pointer stays valid for the
// lifetime of the ensemble.
func (e *Ensemble) At(i int) *Particle { return &e.particles[i] }

// AliveCount returns how many particles have not been killed.
func (e *Ensemble) AliveCount() int {
	n := 0
	for i := range e.particles {
		if e.particles[i].Alive() {
			n++
		}
	}
	return n
}

// KillAll marks every particle in the ensemble dead with the given
// reason code. Idempotent under reapplication.
func (e *Ensemble) KillAll(code int64) {
	for i := range e.particles {
		e.particles[i].Kill(code)
	}
}

// AssertTracking checks that a particle is in genuine multi-turn
// tracking. Whenever it is not (e.g. during an optics analysis pass)
// the turn counter is negative; the particle is then killed with the
// given code and false is returned. Callers are expected to skip the
// particle when this returns false.
func AssertTracking(p *Particle, code int64) bool {
	if p.AtTurn < 0 {
		p.Kill(code)
		return false
	}
	return true
}

// Moments holds per-coordinate first and second moments over the alive
// particles of an ensemble.
type Moments struct {
	Alive               int
	MeanX, MeanY        float64
	RMSX, RMSY          float64
	MeanZeta, MeanDelta float64
}

// Moments computes ensemble statistics over alive particles only.
func (e *Ensemble) Moments() Moments {
	var m Moments
	var sx, sy, sxx, syy, sz, sd float64
	for i := range e.particles {
		p := &e.particles[i]
		if !p.Alive() {
			continue
		}
		m.Alive++
		sx += p.X
		sy += p.Y
		sxx += p.X * p.X
		syy += p.Y * p.Y
		sz += p.Zeta
		sd += p.Delta
	}
	if m.Alive == 0 {
		return m
	}
	n := float64(m.Alive)
	m.MeanX = sx / n
	m.MeanY = sy / n
	m.RMSX = math.Sqrt(sxx / n)
	m.RMSY = math.Sqrt(syy / n)
	m.MeanZeta = sz / n
	m.MeanDelta = sd / n
	return m
}

// BunchConfig describes a Gaussian bunch.
type BunchConfig struct {
	Particles  int
	Beta0      float64
	Delta      float64
	SigmaX     float64
	SigmaPx    float64
	SigmaY     float64
	SigmaPy    float64
	SigmaZeta  float64
	SigmaDelta float64
	Seed       int64
}

// GaussianBunch generates a seeded Gaussian bunch around the reference
// orbit. Each particle gets its own consistent Ptau/Rvv closure.
func GaussianBunch(cfg BunchConfig) (*Ensemble, error) {
	if cfg.Particles <= 0 {
		return nil, ErrEmptyEnsemble
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	particles := make([]Particle, 0, cfg.Particles)
	for i := 0; i < cfg.Particles; i++ {
		delta := cfg.Delta + r.NormFloat64()*cfg.SigmaDelta
		p, err := NewParticle(
			r.NormFloat64()*cfg.SigmaX,
			r.NormFloat64()*cfg.SigmaPx,
			r.NormFloat64()*cfg.SigmaY,
			r.NormFloat64()*cfg.SigmaPy,
			delta,
			cfg.Beta0,
		)
		if err != nil {
			return nil, err
		}
		p.Zeta = r.NormFloat64() * cfg.SigmaZeta
		particles = append(particles, *p)
	}
	return NewEnsemble(particles), nil
}
