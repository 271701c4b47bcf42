package dsp

import (
	"fmt"
	"math"
	"testing"
)

func TestSmoothedConvergesWithinBound(t *testing.T) {
	coeffs := []float32{1, 0.5, 0.1, 0.01, 0.001, 1e-4}
	targets := []float32{-1, -0.25, 0.3, 1}

	for _, f := range coeffs {
		for _, target := range targets {
			t.Run(fmt.Sprintf("f=%g/target=%g", f, target), func(t *testing.T) {
				s := NewSmoothed(0, 0, 48000)
				s.SetCoefficient(f)
				s.SetTarget(target)

				steps := int(math.Ceil(-math.Log(SmoothTolerance) / float64(f)))
				for i := 0; i < steps; i++ {
					s.Next()
				}
				if d := math.Abs(float64(s.Value() - target)); d > SmoothTolerance {
					t.Errorf("expected value within %g of %g after %d steps, got %g", SmoothTolerance, target, steps, s.Value())
				}
				if !s.Done() {
					t.Errorf("expected smoother to report done after %d steps", steps)
				}
			})
		}
	}
}

func TestSmoothedMonotonic(t *testing.T) {
	s := NewSmoothed(0, 10, 48000)
	s.SetTarget(1)
	prev := s.Value()
	for i := 0; i < 5000; i++ {
		v := s.Next()
		if v < prev {
			t.Fatalf("step %d: expected monotonic rise, got %g after %g", i, v, prev)
		}
		if v > 1 {
			t.Fatalf("step %d: overshoot %g", i, v)
		}
		prev = v
	}
	if s.Value() != 1 {
		t.Errorf("expected snap to target 1, got %g", s.Value())
	}
}

func TestSmoothingCoefficientRegimes(t *testing.T) {
	if c := SmoothingCoefficient(0, 48000); c != 1 {
		t.Errorf("zero time: expected 1, got %g", c)
	}
	// 1 ms at 48 kHz is 48 samples: exponential regime.
	want := -math.Expm1(-1.0 / 48)
	if c := SmoothingCoefficient(1, 48000); math.Abs(float64(c)-want) > 1e-7 {
		t.Errorf("1 ms: expected %g, got %g", want, c)
	}
	// 100 ms is 4800 samples: linear regime.
	if c := SmoothingCoefficient(100, 48000); math.Abs(float64(c)-1.0/4800) > 1e-9 {
		t.Errorf("100 ms: expected %g, got %g", 1.0/4800, c)
	}
}

func TestSmoothedSetImmediate(t *testing.T) {
	s := NewSmoothed(0, 50, 48000)
	s.SetTarget(1)
	s.Next()
	s.SetImmediate(0.25)
	if s.Value() != 0.25 || s.Target() != 0.25 || !s.Done() {
		t.Errorf("expected resting at 0.25, got value=%g target=%g done=%v", s.Value(), s.Target(), s.Done())
	}
}
