package pricing

import (
	"context"
	"reflect"
	"testing"
)

func TestAdvanceAppendsInWriteOrder(t *testing.T) {
	window := []float64{}
	avg := 0.0
	var prev float64
	for _, p := range []float64{10, 12, 14} {
		window, avg, prev = advance(window, avg, p)
	}
	if !reflect.DeepEqual(window, []float64{10, 12, 14}) {
		t.Errorf("window = %v, want [10 12 14]", window)
	}
	if avg != 12 {
		t.Errorf("avg = %v, want 12", avg)
	}
	if prev != 11 {
		t.Errorf("prev = %v, want 11 (mean of [10 12])", prev)
	}
}

func TestAdvanceEvictsOldestAtCapacity(t *testing.T) {
	// Window [10,12,14,16,18] (avg 14, built from a previous avg of 14)
	// plus price 20 must become [12,14,16,18,20] with avg 16 and
	// previous average 14.
	window := []float64{10, 12, 14, 16, 18}
	next, avg, prev := advance(window, 14, 20)

	if !reflect.DeepEqual(next, []float64{12, 14, 16, 18, 20}) {
		t.Errorf("window = %v, want [12 14 16 18 20]", next)
	}
	if avg != 16 {
		t.Errorf("avg = %v, want 16", avg)
	}
	if prev != 14 {
		t.Errorf("prev = %v, want 14", prev)
	}
	if !reflect.DeepEqual(window, []float64{10, 12, 14, 16, 18}) {
		t.Errorf("input window mutated: %v", window)
	}
}

func TestAdvanceNeverExceedsCapacity(t *testing.T) {
	window := []float64{}
	avg := 0.0
	for i := 1; i <= 20; i++ {
		window, avg, _ = advance(window, avg, float64(i))
		if len(window) > windowSize {
			t.Fatalf("window grew to %d entries after %d writes", len(window), i)
		}
	}
	if !reflect.DeepEqual(window, []float64{16, 17, 18, 19, 20}) {
		t.Errorf("window = %v, want the five most recent prices", window)
	}
	if avg != 18 {
		t.Errorf("avg = %v, want 18", avg)
	}
}

func TestAdvanceMeanMatchesWindow(t *testing.T) {
	window := []float64{}
	avg := 0.0
	for _, p := range []float64{3.5, 7, 0, 11.25, 2, 9.5, 4} {
		window, avg, _ = advance(window, avg, p)
		var total float64
		for _, v := range window {
			total += v
		}
		want := total / float64(len(window))
		if avg != want {
			t.Fatalf("avg = %v, want %v for window %v", avg, want, window)
		}
	}
}

func TestUpdateAverageNilPriceIsNoOp(t *testing.T) {
	// A nil price must return before any store access; an aggregator
	// with no repository would panic otherwise.
	a := &Aggregator{}
	avg, prev, err := a.UpdateAverage(context.Background(), "ev_1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avg != 0 || prev != 0 {
		t.Errorf("expected zero results for no-op, got avg=%v prev=%v", avg, prev)
	}
}
