package elements_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/beamsim/internal/beam"
	"github.com/san-kum/beamsim/internal/elements"
)

func mustParticle(x, px, y, py, delta, beta0 float64) *beam.Particle {
	p, err := beam.NewParticle(x, px, y, py, delta, beta0)
	Expect(err).NotTo(HaveOccurred())
	return p
}

// expectClose checks a relative tolerance with a tiny absolute floor so
// exact-zero expectations do not divide by zero.
func expectClose(actual, expected, rel float64) {
	ExpectWithOffset(1, math.Abs(actual-expected)).To(
		BeNumerically("<=", rel*math.Abs(expected)+1e-18))
}

var _ = Describe("CombinedFunctionDipole", func() {
	Describe("zero length", func() {
		It("is the identity map", func() {
			d := elements.NewCombinedFunctionDipole(0, 0.02, 0.05, 0.02)
			p := mustParticle(1e-3, 2e-5, -5e-4, 1e-5, 0.01, 0.999)
			before := *p
			d.Track(p)

			Expect(p.X).To(Equal(before.X))
			Expect(p.Px).To(Equal(before.Px))
			Expect(p.Y).To(Equal(before.Y))
			Expect(p.Py).To(Equal(before.Py))
			Expect(p.Zeta).To(Equal(before.Zeta))
			Expect(p.S).To(Equal(before.S))
		})
	})

	Describe("drift limit", func() {
		It("moves transversely like a field-free section when all strengths vanish", func() {
			length := 3.0
			d := elements.NewCombinedFunctionDipole(length, 0, 0, 0)
			p := mustParticle(1e-3, 2e-5, -5e-4, 1e-5, 0.01, 0.999)
			dp1 := p.Delta + 1
			xp := p.Px / dp1
			yp := p.Py / dp1
			beti := 1.0 / (p.Rvv * p.Beta0)
			bet := dp1 / (beti + p.Ptau)

			xExp := p.X + xp*length
			yExp := p.Y + yp*length
			pxExp := p.Px
			pyExp := p.Py
			pathLen := length * (1 + (xp*xp+yp*yp)/2)
			zetaExp := (length*beti - pathLen/bet) * p.Beta0

			d.Track(p)

			expectClose(p.X, xExp, 1e-12)
			expectClose(p.Y, yExp, 1e-12)
			expectClose(p.Px, pxExp, 1e-12)
			expectClose(p.Py, pyExp, 1e-12)
			expectClose(p.Zeta, zetaExp, 1e-12)
			Expect(p.S).To(Equal(length))
		})
	})

	Describe("sector bend with vanishing gradient", func() {
		// length=2, k0=h=0.02, k1=0: Kx = 4e-4 selects the circular
		// branch horizontally, Ky = 0 the straight branch vertically.
		It("matches the closed-form sine-branch evaluation", func() {
			length, k0, h := 2.0, 0.02, 0.02
			d := elements.NewCombinedFunctionDipole(length, k0, 0, h)
			p := mustParticle(1e-3, 0, 5e-4, 0, 0, 1)

			kx := k0 * h
			sqrtKx := math.Sqrt(kx)
			sx := math.Sin(sqrtKx*length) / sqrtKx
			cx := math.Cos(sqrtKx * length)
			ax := -kx * p.X // k0 == h, so the dipole drive term drops out

			xExp := p.X * cx
			pxExp := ax * sx
			yExp := p.Y
			pyExp := 0.0
			pathLen := length -
				h*(sx*ax)/kx +
				0.5*(-(ax*ax*cx*sx)/(2*kx)+(ax*ax*length)/(2*kx))
			zetaExp := length - pathLen // beta0 = 1, on momentum

			d.Track(p)

			expectClose(p.X, xExp, 1e-12)
			expectClose(p.Px, pxExp, 1e-12)
			expectClose(p.Y, yExp, 1e-12)
			expectClose(p.Py, pyExp, 1e-12)
			expectClose(p.Zeta, zetaExp, 1e-12)
			Expect(p.S).To(Equal(length))
		})
	})

	Describe("combined-function bend", func() {
		// Adding k1=0.05 keeps Kx > 0 and makes Ky = -0.05, so the
		// vertical plane follows the hyperbolic branch.
		It("defocuses vertically along the cosh basis", func() {
			length, k0, k1, h := 2.0, 0.02, 0.05, 0.02
			d := elements.NewCombinedFunctionDipole(length, k0, k1, h)
			p := mustParticle(1e-3, 0, 5e-4, 0, 0, 1)
			y0 := p.Y

			sqrtKy := math.Sqrt(k1)
			syh := math.Sinh(sqrtKy*length) / sqrtKy
			cyh := math.Cosh(sqrtKy * length)
			yExp := y0 * cyh
			pyExp := k1 * y0 * syh

			d.Track(p)

			expectClose(p.Y, yExp, 1e-12)
			expectClose(p.Py, pyExp, 1e-12)
			Expect(p.Y).To(BeNumerically(">", y0))
			Expect(p.Py).To(BeNumerically(">", 0.0))
		})
	})

	Describe("continuity across K = 0", func() {
		track := func(k0, k1, h float64) *beam.Particle {
			d := elements.NewCombinedFunctionDipole(2.0, k0, k1, h)
			p := mustParticle(1e-3, 1e-5, 1e-3, -1e-5, 0, 1)
			d.Track(p)
			return p
		}
		expectNear := func(a, b *beam.Particle) {
			ExpectWithOffset(1, a.X).To(BeNumerically("~", b.X, 1e-9))
			ExpectWithOffset(1, a.Px).To(BeNumerically("~", b.Px, 1e-9))
			ExpectWithOffset(1, a.Y).To(BeNumerically("~", b.Y, 1e-9))
			ExpectWithOffset(1, a.Py).To(BeNumerically("~", b.Py, 1e-9))
			// The longitudinal terms divide near-cancelling sums by K,
			// so rounding noise grows as K approaches zero.
			ExpectWithOffset(1, a.Zeta).To(BeNumerically("~", b.Zeta, 1e-8))
		}

		It("is continuous in the horizontal plane", func() {
			// h = -k0 makes Kx = k1 - k0*k0 cross zero exactly at
			// k1 = k0*k0 while Ky stays on one branch.
			k0, h := 0.02, -0.02
			k1Zero := -k0 * h
			below := track(k0, k1Zero-1e-9, h)
			at := track(k0, k1Zero, h)
			above := track(k0, k1Zero+1e-9, h)

			expectNear(below, at)
			expectNear(above, at)
		})

		It("is continuous in the vertical plane", func() {
			k0, h := 0.02, 0.02
			below := track(k0, -1e-9, h)
			at := track(k0, 0, h)
			above := track(k0, 1e-9, h)

			expectNear(below, at)
			expectNear(above, at)
		})
	})

	Describe("weak pure dipole", func() {
		// With h = 0 and k1 = 0 the horizontal branch is straight and
		// the map reduces to the small-angle expansion of a circular
		// arc of bend angle theta = k0 * length.
		DescribeTable("agrees with circular-arc geometry",
			func(length float64) {
				k0 := 0.01
				theta := k0 * length
				d := elements.NewCombinedFunctionDipole(length, k0, 0, 0)
				p := mustParticle(0, 0, 0, 0, 0, 1)
				d.Track(p)

				expectClose(math.Abs(p.X), (1-math.Cos(theta))/k0, 1e-3)
				expectClose(p.Px, -math.Sin(theta), 1e-3)
			},
			Entry("1 m", 1.0),
			Entry("2 m", 2.0),
			Entry("5 m", 5.0),
		)
	})

	Describe("symplecticity", func() {
		It("has a unit Jacobian determinant in each transverse plane", func() {
			d := elements.NewCombinedFunctionDipole(2.0, 0.02, 0.05, 0.02)
			eps := 1e-6
			col := func(dx, dpx, dy, dpy float64) *beam.Particle {
				p := mustParticle(1e-3+dx, 1e-5+dpx, 5e-4+dy, -1e-5+dpy, 0.01, 0.999)
				d.Track(p)
				return p
			}
			base := col(0, 0, 0, 0)

			// The map is exactly linear in the transverse coordinates
			// at fixed momentum, so finite differences are exact.
			ex := col(eps, 0, 0, 0)
			epx := col(0, eps, 0, 0)
			detX := ((ex.X-base.X)*(epx.Px-base.Px) -
				(epx.X-base.X)*(ex.Px-base.Px)) / (eps * eps)
			Expect(detX).To(BeNumerically("~", 1.0, 1e-6))

			ey := col(0, 0, eps, 0)
			epy := col(0, 0, 0, eps)
			detY := ((ey.Y-base.Y)*(epy.Py-base.Py) -
				(epy.Y-base.Y)*(ey.Py-base.Py)) / (eps * eps)
			Expect(detY).To(BeNumerically("~", 1.0, 1e-6))
		})
	})

	Describe("bookkeeping", func() {
		It("leaves momentum and lifecycle fields alone", func() {
			d := elements.NewCombinedFunctionDipole(2.0, 0.02, 0.05, 0.02)
			p := mustParticle(1e-3, 1e-5, 5e-4, -1e-5, 0.01, 0.999)
			p.AtTurn = 7
			before := *p
			d.Track(p)

			Expect(p.Delta).To(Equal(before.Delta))
			Expect(p.Ptau).To(Equal(before.Ptau))
			Expect(p.Beta0).To(Equal(before.Beta0))
			Expect(p.Rvv).To(Equal(before.Rvv))
			Expect(p.State).To(Equal(beam.StateAlive))
			Expect(p.AtTurn).To(Equal(int64(7)))
		})
	})
})
