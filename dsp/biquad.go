package dsp

import "math"

// Biquad implements a second-order IIR filter in direct form I.
type Biquad struct {
	b0, b1, b2 float32
	a1, a2     float32

	x1, x2 float32
	y1, y2 float32
}

// NewBiquad creates a biquad from normalized coefficients (a0 = 1).
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// Process filters one sample.
func (b *Biquad) Process(input float32) float32 {
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = FlushDenormal(output)
	return output
}

// Reset clears the filter state.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// NewLowpass creates an RBJ cookbook low-pass.
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetLowpass(cutoff, sampleRate, q)
	return b
}

// NewHighpass creates an RBJ cookbook high-pass.
func NewHighpass(cutoff, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetHighpass(cutoff, sampleRate, q)
	return b
}

// SetLowpass recomputes the coefficients in place and keeps the state, so
// it is safe to call on the audio thread.
func (b *Biquad) SetLowpass(cutoff, sampleRate, q float32) {
	cosw0, alpha := rbj(cutoff, sampleRate, q)
	b.set((1-cosw0)/2, 1-cosw0, (1-cosw0)/2, 1+alpha, -2*cosw0, 1-alpha)
}

// SetHighpass is SetLowpass for the high-pass response.
func (b *Biquad) SetHighpass(cutoff, sampleRate, q float32) {
	cosw0, alpha := rbj(cutoff, sampleRate, q)
	b.set((1+cosw0)/2, -(1 + cosw0), (1+cosw0)/2, 1+alpha, -2*cosw0, 1-alpha)
}

func rbj(cutoff, sampleRate, q float32) (cosw0, alpha float64) {
	w0 := 2 * math.Pi * float64(cutoff) / float64(sampleRate)
	return math.Cos(w0), math.Sin(w0) / (2 * float64(q))
}

func (b *Biquad) set(b0, b1, b2, a0, a1, a2 float64) {
	b.b0 = float32(b0 / a0)
	b.b1 = float32(b1 / a0)
	b.b2 = float32(b2 / a0)
	b.a1 = float32(a1 / a0)
	b.a2 = float32(a2 / a0)
}
