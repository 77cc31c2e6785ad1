package track

import (
	"sync/atomic"
	"testing"
)

func TestParallelForCoversRange(t *testing.T) {
	const n = 1000
	var hits [n]int32
	ParallelFor(n, 64, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}

func TestParallelForSmallN(t *testing.T) {
	var count int32
	ParallelFor(3, 64, func(start, end int) {
		atomic.AddInt32(&count, int32(end-start))
	})
	if count != 3 {
		t.Errorf("visited %d indices, want 3", count)
	}
}

func TestParallelForZero(t *testing.T) {
	called := false
	ParallelFor(0, 64, func(start, end int) { called = called || end > start })
	if called {
		t.Error("callback ran for an empty range")
	}
}
