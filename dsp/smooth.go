package dsp

import "math"

// SmoothTolerance is the distance to the target at which a Smoothed value
// snaps and reports done.
const SmoothTolerance = 1e-4

// linearRegimeSamples is the time constant (in samples) above which the
// coefficient switches from 1-exp(-1/n) to 1/n.
const linearRegimeSamples = 1000

// SmoothingCoefficient derives the per-sample one-pole coefficient for a
// time constant given in milliseconds.
func SmoothingCoefficient(timeMs, sampleRate float64) float32 {
	n := MsToSamples(timeMs, sampleRate)
	switch {
	case n <= 1 || math.IsNaN(n):
		return 1
	case n < linearRegimeSamples:
		return float32(-math.Expm1(-1 / n))
	default:
		return float32(1 / n)
	}
}

// Smoothed is a parameter value that glides toward its target one sample
// at a time. State is kept in float64 so slow glides do not stall on
// float32 rounding near the target.
type Smoothed struct {
	value  float64
	target float64
	coeff  float64
	done   bool
}

// NewSmoothed creates a smoother resting at initial.
func NewSmoothed(initial float32, timeMs, sampleRate float64) Smoothed {
	return Smoothed{
		value:  float64(initial),
		target: float64(initial),
		coeff:  float64(SmoothingCoefficient(timeMs, sampleRate)),
		done:   true,
	}
}

// SetCoefficient sets f directly. Values outside (0,1] are clamped.
func (s *Smoothed) SetCoefficient(f float32) {
	if !(f > 0) {
		f = 1e-6
	}
	if f > 1 {
		f = 1
	}
	s.coeff = float64(f)
}

// SetTime recomputes the coefficient from a time constant.
func (s *Smoothed) SetTime(timeMs, sampleRate float64) {
	s.coeff = float64(SmoothingCoefficient(timeMs, sampleRate))
}

// SetTarget starts a glide toward target.
func (s *Smoothed) SetTarget(target float32) {
	s.target = float64(target)
	s.done = math.Abs(s.target-s.value) < SmoothTolerance
	if s.done {
		s.value = s.target
	}
}

// SetImmediate jumps to v without gliding.
func (s *Smoothed) SetImmediate(v float32) {
	s.value = float64(v)
	s.target = s.value
	s.done = true
}

// Next advances one sample and returns the new value.
func (s *Smoothed) Next() float32 {
	if s.done {
		return float32(s.value)
	}
	s.value += s.coeff * (s.target - s.value)
	if math.Abs(s.target-s.value) < SmoothTolerance {
		s.value = s.target
		s.done = true
	}
	return float32(s.value)
}

// Value returns the current value without advancing.
func (s *Smoothed) Value() float32 { return float32(s.value) }

// Target returns the value being approached.
func (s *Smoothed) Target() float32 { return float32(s.target) }

// Done reports whether the value has reached its target.
func (s *Smoothed) Done() bool { return s.done }

// Coefficient returns f.
func (s *Smoothed) Coefficient() float32 { return float32(s.coeff) }

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
