// Package irsynth generates deterministic stereo impulse responses for the
// convolver: a modal plate with a diffuse tail, or a room made of early
// reflections and a two-band noise tail.
package irsynth

import "math"

// addDecayingMode adds an exponentially decaying cosine to out using the
// Chebyshev recurrence, so no trig call happens per sample.
func addDecayingMode(out []float64, amp, freq, phase, decay float64, sampleRate int) {
	if len(out) == 0 {
		return
	}
	w := 2.0 * math.Pi * freq / float64(sampleRate)
	cw := math.Cos(w)
	x0 := math.Cos(phase)
	x1 := math.Cos(phase + w)
	env := 1.0

	out[0] += amp * x0
	env *= decay
	if len(out) == 1 {
		return
	}
	out[1] += amp * env * x1
	env *= decay
	for i := 2; i < len(out); i++ {
		x2 := 2.0*cw*x1 - x0
		x0, x1 = x1, x2
		out[i] += amp * env * x2
		env *= decay
	}
}

// removeDC runs a one-pole DC blocker with pole r in place.
func removeDC(x []float64, r float64) {
	prevIn, prevOut := 0.0, 0.0
	for i := range x {
		y := x[i] - prevIn + r*prevOut
		prevIn = x[i]
		prevOut = y
		x[i] = y
	}
}

func peakAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// fadeOut applies a raised-cosine fade over the last fadeS seconds.
func fadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	n := min(int(math.Round(fadeS*float64(sampleRate))), len(buf))
	start := len(buf) - n
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		buf[start+i] *= 0.5 * (1.0 + math.Cos(t*math.Pi))
	}
}

// normalizeStereo scales both channels by a common factor so the louder one
// peaks at target, and converts to float32.
func normalizeStereo(left, right []float64, target float64) ([]float32, []float32) {
	peak := math.Max(peakAbs(left), peakAbs(right))
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := target / peak
	outL := make([]float32, len(left))
	outR := make([]float32, len(right))
	for i := range left {
		outL[i] = float32(left[i] * s)
	}
	for i := range right {
		outR[i] = float32(right[i] * s)
	}
	return outL, outR
}

func lerp(a, b, t float64) float64 {
	t = math.Min(math.Max(t, 0), 1)
	return a + (b-a)*t
}

func samples(durationS float64, sampleRate int) int {
	return max(int(math.Round(durationS*float64(sampleRate))), 1)
}
