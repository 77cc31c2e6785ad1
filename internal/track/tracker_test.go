package track

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/beamsim/internal/beam"
	"github.com/san-kum/beamsim/internal/elements"
)

func testEnsemble(t *testing.T, n int) *beam.Ensemble {
	t.Helper()
	e, err := beam.GaussianBunch(beam.BunchConfig{
		Particles: n,
		Beta0:     1.0,
		SigmaX:    1e-3,
		SigmaPx:   1e-5,
		SigmaY:    1e-3,
		SigmaPy:   1e-5,
		Seed:      42,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func fodoLine() []elements.Element {
	return []elements.Element{
		elements.NewCombinedFunctionDipole(1.0, 0, 0.1, 0),
		elements.NewDrift(2.0),
		elements.NewCombinedFunctionDipole(1.0, 0, -0.1, 0),
		elements.NewDrift(2.0),
	}
}

func TestTrackTurnAdvancesS(t *testing.T) {
	e := testEnsemble(t, 10)
	tr := New(fodoLine())

	turns := 3
	for i := 0; i < turns; i++ {
		tr.TrackTurn(e)
	}

	const lineLength = 6.0
	for i := 0; i < e.Len(); i++ {
		p := e.At(i)
		if p.S != float64(turns)*lineLength {
			t.Errorf("particle %d: s = %v, want %v", i, p.S, float64(turns)*lineLength)
		}
		if p.AtTurn != int64(turns) {
			t.Errorf("particle %d: at_turn = %v, want %v", i, p.AtTurn, turns)
		}
	}
}

func TestTrackTurnSkipsDead(t *testing.T) {
	e := testEnsemble(t, 4)
	dead := e.At(2)
	dead.Kill(beam.StateLostNonFinite)
	before := *dead

	New(fodoLine()).TrackTurn(e)

	if *dead != before {
		t.Errorf("dead particle mutated: %+v", dead)
	}
	if e.At(0).AtTurn != 1 {
		t.Errorf("alive particle not advanced: at_turn = %v", e.At(0).AtTurn)
	}
}

func TestTrackTurnKillsNonTracking(t *testing.T) {
	e := testEnsemble(t, 4)
	probe := e.At(1)
	probe.AtTurn = -1
	x0 := probe.X

	New(fodoLine()).TrackTurn(e)

	if probe.State != beam.StateLostNotTracking {
		t.Errorf("state = %v, want %v", probe.State, beam.StateLostNotTracking)
	}
	if probe.X != x0 {
		t.Error("non-tracking particle was still pushed through the line")
	}
	if probe.AtTurn != -1 {
		t.Errorf("at_turn = %v, want -1", probe.AtTurn)
	}
}

func TestRunRecords(t *testing.T) {
	e := testEnsemble(t, 50)
	tr := New(fodoLine())

	res, err := tr.Run(context.Background(), e, Config{Turns: 8})
	if err != nil {
		t.Fatal(err)
	}
	if res.TurnsDone != 8 {
		t.Errorf("turns done = %d, want 8", res.TurnsDone)
	}
	if len(res.Records) != 8 {
		t.Fatalf("records = %d, want 8", len(res.Records))
	}
	for i, r := range res.Records {
		if r.Turn != i {
			t.Errorf("record %d has turn %d", i, r.Turn)
		}
		if r.Alive != 50 {
			t.Errorf("record %d alive = %d, want 50", i, r.Alive)
		}
	}
}

func TestRunValidation(t *testing.T) {
	tr := New(fodoLine())
	if _, err := tr.Run(context.Background(), nil, Config{Turns: 4}); err == nil {
		t.Error("expected error for nil ensemble")
	}
	e := testEnsemble(t, 2)
	if _, err := tr.Run(context.Background(), e, Config{Turns: 0}); err == nil {
		t.Error("expected error for zero turns")
	}
}

func TestRunCanceled(t *testing.T) {
	e := testEnsemble(t, 10)
	tr := New(fodoLine())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := tr.Run(ctx, e, Config{Turns: 100})
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil {
		t.Fatal("want partial result on cancellation")
	}
	if res.TurnsDone != 0 {
		t.Errorf("turns done = %d, want 0 for immediate cancel", res.TurnsDone)
	}
}

func TestRunStopsWhenAllDead(t *testing.T) {
	e := testEnsemble(t, 10)
	tr := New(fodoLine())
	e.KillAll(beam.StateLostNonFinite)

	res, err := tr.Run(context.Background(), e, Config{Turns: 100})
	if err != nil {
		t.Fatal(err)
	}
	if res.TurnsDone != 1 {
		t.Errorf("turns done = %d, want 1", res.TurnsDone)
	}
}

func TestRunCheckFinite(t *testing.T) {
	e := testEnsemble(t, 4)
	e.At(3).X = math.NaN()

	res, err := New(fodoLine()).Run(context.Background(), e, Config{Turns: 2, CheckFinite: true})
	if err != nil {
		t.Fatal(err)
	}
	if e.At(3).State != beam.StateLostNonFinite {
		t.Errorf("state = %v, want %v", e.At(3).State, beam.StateLostNonFinite)
	}
	if got := res.Records[len(res.Records)-1].Alive; got != 3 {
		t.Errorf("alive = %d, want 3", got)
	}
}
