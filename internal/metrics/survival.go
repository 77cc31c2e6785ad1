package metrics

import "github.com/san-kum/beamsim/internal/beam"

// Survival reports the alive fraction at the last observed turn.
type Survival struct {
	total    int
	lastSeen int
}

func NewSurvival() *Survival {
	return &Survival{}
}

func (s *Survival) Name() string { return "survival" }

func (s *Survival) Observe(e *beam.Ensemble, turn int) {
	s.total = e.Len()
	s.lastSeen = e.AliveCount()
}

func (s *Survival) Value() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.lastSeen) / float64(s.total)
}

func (s *Survival) Reset() {
	s.total = 0
	s.lastSeen = 0
}
