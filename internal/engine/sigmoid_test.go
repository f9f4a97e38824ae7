package engine

import (
	"math"
	"testing"
)

func TestSigmoidMidpointExact(t *testing.T) {
	tests := []Sigmoid{
		{Midpoint: 0.65, Steepness: 8},
		{Midpoint: 0.02, Steepness: 100},
		{Midpoint: 1.2, Steepness: 5},
	}
	for _, s := range tests {
		if got := s.Evaluate(s.Midpoint); got != 0.5 {
			t.Errorf("Evaluate(midpoint=%v) = %v, want exactly 0.5", s.Midpoint, got)
		}
	}
}

func TestSigmoidOpenRange(t *testing.T) {
	s := Sigmoid{Midpoint: 0.5, Steepness: 20}
	for _, x := range []float64{0, 0.1, 0.5, 0.9, 1.0, 5.0, 10.0} {
		got := s.Evaluate(x)
		if got <= 0 || got >= 1 {
			t.Errorf("Evaluate(%v) = %v, want in open (0,1)", x, got)
		}
	}
}

func TestSigmoidSaturationStaysInside(t *testing.T) {
	// Inputs deep in the saturated tails, where the raw float64 expression
	// rounds to exactly 0 or 1. All of these are reachable: the load ratio
	// is capped at 10 and a fully lossy link reports a drop ratio of 1.0.
	tests := []struct {
		s Sigmoid
		x float64
	}{
		{Sigmoid{Midpoint: 1.2, Steepness: 5}, 10.0},
		{Sigmoid{Midpoint: 0.02, Steepness: 100}, 1.0},
		{Sigmoid{Midpoint: 0.5, Steepness: 20}, 5.0},
	}
	for _, tt := range tests {
		got := tt.s.Evaluate(tt.x)
		if got >= 1 {
			t.Errorf("Evaluate(%v) with %+v = %v, want < 1", tt.x, tt.s, got)
		}
	}

	// The opposite tail underflows toward zero.
	low := Sigmoid{Midpoint: 10, Steepness: 100}
	if got := low.Evaluate(0); got <= 0 {
		t.Errorf("Evaluate(0) with %+v = %v, want > 0", low, got)
	}
}

func TestSigmoidMonotonic(t *testing.T) {
	s := Sigmoid{Midpoint: 0.65, Steepness: 8}
	prev := math.Inf(-1)
	for x := 0.0; x <= 2.0; x += 0.05 {
		got := s.Evaluate(x)
		if got <= prev {
			t.Fatalf("Evaluate(%v) = %v, not strictly increasing (prev %v)", x, got, prev)
		}
		prev = got
	}
}

func TestSigmoidSteepnessSharpensTransition(t *testing.T) {
	gentle := Sigmoid{Midpoint: 0.5, Steepness: 5}
	sharp := Sigmoid{Midpoint: 0.5, Steepness: 50}

	// Just past the midpoint, the steeper curve must be further along.
	x := 0.55
	if sharp.Evaluate(x) <= gentle.Evaluate(x) {
		t.Errorf("steepness 50 at %v = %v, should exceed steepness 5 = %v",
			x, sharp.Evaluate(x), gentle.Evaluate(x))
	}
	// And symmetrically, just before the midpoint it must be further behind.
	x = 0.45
	if sharp.Evaluate(x) >= gentle.Evaluate(x) {
		t.Errorf("steepness 50 at %v = %v, should undercut steepness 5 = %v",
			x, sharp.Evaluate(x), gentle.Evaluate(x))
	}
}

func TestSigmoidMidpointShiftsCurve(t *testing.T) {
	early := Sigmoid{Midpoint: 0.3, Steepness: 10}
	late := Sigmoid{Midpoint: 0.7, Steepness: 10}

	// At the same pressure, the earlier midpoint reports more pressure.
	if early.Evaluate(0.5) <= late.Evaluate(0.5) {
		t.Errorf("midpoint 0.3 at 0.5 = %v, should exceed midpoint 0.7 = %v",
			early.Evaluate(0.5), late.Evaluate(0.5))
	}
}

func TestSigmoidDeterministic(t *testing.T) {
	s := Sigmoid{Midpoint: 0.85, Steepness: 18}
	first := s.Evaluate(0.42)
	for i := 0; i < 100; i++ {
		if got := s.Evaluate(0.42); got != first {
			t.Fatalf("Evaluate(0.42) varied: %v vs %v", got, first)
		}
	}
}
