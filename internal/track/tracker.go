package track

import (
	"context"
	"fmt"

	"github.com/san-kum/beamsim/internal/beam"
	"github.com/san-kum/beamsim/internal/elements"
)

// minChunk is the smallest per-goroutine particle batch worth the
// dispatch overhead.
const minChunk = 64

// Metric observes the ensemble once per turn and reduces to a scalar.
type Metric interface {
	Name() string
	Observe(e *beam.Ensemble, turn int)
	Value() float64
	Reset()
}

// Config controls a tracking run.
type Config struct {
	Turns int

	// CheckFinite kills particles whose coordinates became non-finite
	// at the end of each turn. The element maps themselves never
	// detect or mask invalid kinematics.
	CheckFinite bool
}

// TurnRecord is one row of turn-by-turn ensemble statistics.
type TurnRecord struct {
	Turn      int
	Alive     int
	MeanX     float64
	RMSX      float64
	MeanY     float64
	RMSY      float64
	MeanZeta  float64
	MeanDelta float64
}

// Result collects the outcome of a tracking run.
type Result struct {
	Records   []TurnRecord
	Metrics   map[string]float64
	TurnsDone int
}

// Tracker drives an ensemble through a fixed element sequence, one
// turn at a time. The sequence is read-only during a pass; particles
// are fully independent of each other, so each turn is dispatched in
// parallel across the ensemble.
type Tracker struct {
	line    []elements.Element
	metrics []Metric
}

func New(line []elements.Element) *Tracker {
	return &Tracker{line: line}
}

func (t *Tracker) AddMetric(m Metric) { t.metrics = append(t.metrics, m) }

// TrackTurn advances every alive particle through the full element
// sequence once. Dead particles are skipped; particles outside genuine
// tracking mode are killed and skipped. Turn counters advance only for
// particles that were tracked.
func (t *Tracker) TrackTurn(e *beam.Ensemble) {
	ParallelFor(e.Len(), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := e.At(i)
			if !p.Alive() {
				continue
			}
			if !beam.AssertTracking(p, beam.StateLostNotTracking) {
				continue
			}
			for _, el := range t.line {
				el.Track(p)
			}
			p.AtTurn++
		}
	})
}

// Run tracks the ensemble for cfg.Turns turns, recording per-turn
// statistics and feeding metrics. Cancellation is honored between
// turns; a canceled run returns the partial result alongside the
// context error.
func (t *Tracker) Run(ctx context.Context, e *beam.Ensemble, cfg Config) (*Result, error) {
	if err := t.validate(e, cfg); err != nil {
		return nil, err
	}

	for _, m := range t.metrics {
		m.Reset()
	}

	result := &Result{
		Records: make([]TurnRecord, 0, cfg.Turns),
		Metrics: make(map[string]float64),
	}

	for turn := 0; turn < cfg.Turns; turn++ {
		select {
		case <-ctx.Done():
			t.finish(result)
			return result, ctx.Err()
		default:
		}

		t.TrackTurn(e)

		if cfg.CheckFinite {
			ParallelFor(e.Len(), minChunk, func(start, end int) {
				for i := start; i < end; i++ {
					p := e.At(i)
					if p.Alive() && !p.Finite() {
						p.Kill(beam.StateLostNonFinite)
					}
				}
			})
		}

		for _, m := range t.metrics {
			m.Observe(e, turn)
		}

		result.Records = append(result.Records, record(e, turn))
		result.TurnsDone++

		if e.AliveCount() == 0 {
			break
		}
	}

	t.finish(result)
	return result, nil
}

func (t *Tracker) validate(e *beam.Ensemble, cfg Config) error {
	if e == nil || e.Len() == 0 {
		return beam.ErrEmptyEnsemble
	}
	if cfg.Turns <= 0 {
		return fmt.Errorf("turns must be positive, got %d", cfg.Turns)
	}
	return nil
}

func (t *Tracker) finish(result *Result) {
	for _, m := range t.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func record(e *beam.Ensemble, turn int) TurnRecord {
	mo := e.Moments()
	return TurnRecord{
		Turn:      turn,
		Alive:     mo.Alive,
		MeanX:     mo.MeanX,
		RMSX:      mo.RMSX,
		MeanY:     mo.MeanY,
		RMSY:      mo.RMSY,
		MeanZeta:  mo.MeanZeta,
		MeanDelta: mo.MeanDelta,
	}
}
