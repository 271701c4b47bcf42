package dsp

import (
	"math"

	"github.com/cwbudde/algo-approx"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

const ln2 = 0.69314718055994530942

// PitchToFreq converts a fractional MIDI pitch (69 = A4 = 440 Hz) to Hz.
func PitchToFreq(pitch float32) float32 {
	return 440 * Pow2((pitch-69)/12)
}

// Pow2 returns 2^x using the fast exponential approximation.
func Pow2(x float32) float32 {
	return approx.FastExp(x * ln2)
}

// DBToGain converts decibels to linear amplitude.
func DBToGain(db float32) float32 {
	return float32(dspcore.DBToLinear(float64(db)))
}

// FlushDenormal converts denormal-range values to zero.
func FlushDenormal(x float32) float32 {
	return float32(dspcore.FlushDenormals(float64(x)))
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// MsToSamples converts a duration in milliseconds to a sample count.
func MsToSamples(ms, sampleRate float64) float64 {
	return ms * 0.001 * sampleRate
}
