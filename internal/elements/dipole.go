package elements

import (
	"fmt"
	"math"

	"github.com/san-kum/beamsim/internal/beam"
)

// CombinedFunctionDipole is a thick magnet that simultaneously bends
// and focuses the beam. Length is the design arc length in metres, K0
// the normalized dipole strength [1/m], K1 the normalized quadrupole
// gradient [1/m^2] and H the curvature of the reference trajectory
// [1/m]. H may differ from K0, e.g. for a combined-function magnet on
// a straight reference.
type CombinedFunctionDipole struct {
	Length float64
	K0     float64
	K1     float64
	H      float64
}

func NewCombinedFunctionDipole(length, k0, k1, h float64) *CombinedFunctionDipole {
	return &CombinedFunctionDipole{Length: length, K0: k0, K1: k1, H: h}
}

// Track applies the exact thick combined-function map to one particle,
// following the closed-form solution of the linearized equations of
// motion (MAD-X ttcfd). The effective focusing strengths
// Kx = k0*h + k1 and Ky = -k1, scaled by the particle momentum, select
// between circular, hyperbolic and straight basis functions per axis;
// the K == 0 branches are the analytic limits of the general formulas,
// so the map stays continuous and symplectic across the sign change.
func (d *CombinedFunctionDipole) Track(p *beam.Particle) {
	length := d.Length

	beti := 1.0 / (p.Rvv * p.Beta0)
	deltaPlus1 := p.Delta + 1
	bet := deltaPlus1 / (beti + p.Ptau)

	k0 := d.K0 / deltaPlus1
	k1 := d.K1 / deltaPlus1
	kx := k0*d.H + k1
	ky := -k1

	var sx, cx, sy, cy float64

	switch {
	case kx > 0:
		sqrtKx := math.Sqrt(kx)
		sx = math.Sin(sqrtKx*length) / sqrtKx
		cx = math.Cos(sqrtKx * length)
	case kx < 0:
		// sin(ix) = i sinh(x), cos(ix) = cosh(x)
		sqrtKx := math.Sqrt(-kx)
		sx = math.Sinh(sqrtKx*length) / sqrtKx
		cx = math.Cosh(sqrtKx * length)
	default:
		sx = length
		cx = 1.0
	}

	switch {
	case ky > 0:
		sqrtKy := math.Sqrt(ky)
		sy = math.Sin(sqrtKy*length) / sqrtKy
		cy = math.Cos(sqrtKy * length)
	case ky < 0:
		sqrtKy := math.Sqrt(-ky)
		sy = math.Sinh(sqrtKy*length) / sqrtKy
		cy = math.Cosh(sqrtKy * length)
	default:
		sy = length
		cy = 1.0
	}

	// Normalized slopes and per-axis drive terms. The vertical pair
	// gets its own names so nothing shadows the cosine-like terms.
	xp := p.Px / deltaPlus1
	yp := p.Py / deltaPlus1
	ax := -kx*p.X - k0 + d.H
	bx := xp
	ay := -ky * p.Y
	by := yp

	// transverse map
	xNew := p.X*cx + xp*sx
	yNew := p.Y*cy + yp*sy
	pxNew := (ax*sx + bx*cx) * deltaPlus1
	pyNew := (ay*sy + by*cy) * deltaPlus1

	if nonzero(kx) {
		xNew += (k0 - d.H) * (cx - 1.0) / kx
	} else {
		xNew -= (k0 - d.H) * 0.5 * length * length
	}

	// Longitudinal map: total path length traveled to second order in
	// the transverse amplitudes.
	pathLength := length
	if nonzero(kx) {
		pathLength -= d.H * ((cx-1.0)*xp + sx*ax + length*(k0-d.H)) / kx
		pathLength += 0.5 * (-(ax*ax*cx*sx)/(2.0*kx) +
			(bx*bx*cx*sx)/2.0 +
			(ax*ax*length)/(2.0*kx) +
			(bx*bx*length)/2.0 -
			(ax*bx*cx*cx)/kx +
			(ax*bx)/kx)
	} else {
		pathLength += d.H * length * (3.0*length*xp + 6.0*p.X - (k0-d.H)*length*length) / 6.0
		pathLength += 0.5 * bx * bx * length
	}

	// No vertical bending, hence no zeroth-order vertical term.
	if nonzero(ky) {
		pathLength += 0.5 * (-(ay*ay*cy*sy)/(2.0*ky) +
			(by*by*cy*sy)/2.0 +
			(ay*ay*length)/(2.0*ky) +
			(by*by*length)/2.0 -
			(ay*by*cy*cy)/ky +
			(ay*by)/ky)
	} else {
		pathLength += 0.5 * by * by * length
	}

	zNew := length*beti - pathLength/bet

	p.X = xNew
	p.Px = pxNew
	p.Y = yNew
	p.Py = pyNew
	p.Zeta += zNew * p.Beta0
	p.S += length
}

func (d *CombinedFunctionDipole) GetParams() map[string]float64 {
	return map[string]float64{
		"length": d.Length,
		"k0":     d.K0,
		"k1":     d.K1,
		"h":      d.H,
	}
}

func (d *CombinedFunctionDipole) SetParam(name string, value float64) error {
	switch name {
	case "length":
		d.Length = value
	case "k0":
		d.K0 = value
	case "k1":
		d.K1 = value
	case "h":
		d.H = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
