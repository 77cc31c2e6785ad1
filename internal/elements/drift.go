package elements

import (
	"fmt"

	"github.com/san-kum/beamsim/internal/beam"
)

// Drift is a field-free straight section of the given length in metres.
type Drift struct {
	Length float64
}

func NewDrift(length float64) *Drift {
	return &Drift{Length: length}
}

// Track applies the exact paraxial drift map: straight-line transverse
// motion with the second-order path-length correction folded into zeta.
func (d *Drift) Track(p *beam.Particle) {
	rpp := 1.0 / (p.Delta + 1)
	xp := p.Px * rpp
	yp := p.Py * rpp
	dzeta := p.Rvv - (1.0 + (xp*xp+yp*yp)/2.0)

	p.X += xp * d.Length
	p.Y += yp * d.Length
	p.Zeta += d.Length * dzeta
	p.S += d.Length
}

func (d *Drift) GetParams() map[string]float64 {
	return map[string]float64{"length": d.Length}
}

func (d *Drift) SetParam(name string, value float64) error {
	if name != "length" {
		return fmt.Errorf("unknown param: %s", name)
	}
	d.Length = value
	return nil
}
