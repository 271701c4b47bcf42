package dsp

import "math"

// sineBlock returns n samples of a unit sine at freq Hz.
func sineBlock(n int, freq, sampleRate float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return out
}

func maxAbs(x []float32) float32 {
	var m float32
	for _, v := range x {
		if a := absf(v); a > m {
			m = a
		}
	}
	return m
}

func mean(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += float64(v)
	}
	return sum / float64(len(x))
}
