package metrics

import (
	"math"

	"github.com/san-kum/beamsim/internal/beam"
)

// Centroid records the largest excursion of the bunch centroid along
// one transverse plane across the whole run.
type Centroid struct {
	name     string
	vertical bool
	maxAbs   float64
}

func NewCentroid(vertical bool) *Centroid {
	name := "x_centroid_max"
	if vertical {
		name = "y_centroid_max"
	}
	return &Centroid{name: name, vertical: vertical}
}

func (c *Centroid) Name() string { return c.name }

func (c *Centroid) Observe(e *beam.Ensemble, turn int) {
	mo := e.Moments()
	mean := mo.MeanX
	if c.vertical {
		mean = mo.MeanY
	}
	c.maxAbs = math.Max(c.maxAbs, math.Abs(mean))
}

func (c *Centroid) Value() float64 { return c.maxAbs }

func (c *Centroid) Reset() { c.maxAbs = 0 }

// RMSSize averages the rms beam size of one transverse plane over the
// observed turns.
type RMSSize struct {
	name     string
	vertical bool
	total    float64
	samples  int
}

func NewRMSSize(vertical bool) *RMSSize {
	name := "x_rms_mean"
	if vertical {
		name = "y_rms_mean"
	}
	return &RMSSize{name: name, vertical: vertical}
}

func (r *RMSSize) Name() string { return r.name }

func (r *RMSSize) Observe(e *beam.Ensemble, turn int) {
	mo := e.Moments()
	rms := mo.RMSX
	if r.vertical {
		rms = mo.RMSY
	}
	r.total += rms
	r.samples++
}

func (r *RMSSize) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.total / float64(r.samples)
}

func (r *RMSSize) Reset() {
	r.total = 0
	r.samples = 0
}
