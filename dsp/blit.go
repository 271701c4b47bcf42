package dsp

import "math"

// BLIT generates a band-limited impulse train in closed form:
//
//	y(φ) = sin(Mπφ) / (P·sin(πφ)),  P = fs/f,  M = 2⌊P/2⌋+1
//
// M is the odd harmonic count that keeps every partial below Nyquist. The
// train has a mean of 1/P per sample, i.e. unit area per period.
type BLIT struct {
	sampleRate float64
	freq       float64
	period     float64
	m          float64
	phase      float64
	inc        float64
}

// NewBLIT creates an impulse train at freq Hz.
func NewBLIT(sampleRate, freq float64) BLIT {
	b := BLIT{sampleRate: sampleRate}
	b.SetFrequency(freq)
	return b
}

// SetFrequency changes the fundamental and the implied harmonic count.
func (b *BLIT) SetFrequency(freq float64) {
	if freq < 1 {
		freq = 1
	}
	if freq > 0.45*b.sampleRate {
		freq = 0.45 * b.sampleRate
	}
	if freq == b.freq {
		return
	}
	b.freq = freq
	b.period = b.sampleRate / freq
	b.m = 2*math.Floor(b.period/2) + 1
	b.inc = freq / b.sampleRate
}

// Harmonics returns M.
func (b *BLIT) Harmonics() int { return int(b.m) }

// Period returns P in samples.
func (b *BLIT) Period() float64 { return b.period }

// Phase returns the normalized phase in [0,1).
func (b *BLIT) Phase() float64 { return b.phase }

// SetPhase moves the phase, wrapping into [0,1).
func (b *BLIT) SetPhase(p float64) {
	b.phase = p - math.Floor(p)
}

// ImpulseAt evaluates the train at an arbitrary phase.
func (b *BLIT) ImpulseAt(phase float64) float64 {
	phase -= math.Floor(phase)
	den := math.Sin(math.Pi * phase)
	if math.Abs(den) < 1e-9 {
		return b.m / b.period
	}
	return math.Sin(math.Pi*b.m*phase) / (b.period * den)
}

// Next returns the impulse value at the current phase and advances.
func (b *BLIT) Next() float64 {
	y := b.ImpulseAt(b.phase)
	b.advance()
	return y
}

func (b *BLIT) advance() {
	b.phase += b.inc
	if b.phase >= 1 {
		b.phase -= 1
	}
}

// Waveform is a BLIT-derived oscillator shape.
type Waveform int

const (
	WaveSaw Waveform = iota
	WavePulse
)

// BLITOscillator integrates a BLIT (or a bipolar BLIT pair) with a leaky
// integrator to form saw and pulse waves without per-harmonic summation.
type BLITOscillator struct {
	blit  BLIT
	shape Waveform
	width float64
	leak  float64
	state float64
}

// NewBLITOscillator creates an oscillator; width is used by WavePulse.
func NewBLITOscillator(sampleRate, freq float64, shape Waveform) BLITOscillator {
	return BLITOscillator{
		blit:  NewBLIT(sampleRate, freq),
		shape: shape,
		width: 0.5,
		leak:  math.Exp(-2 * math.Pi * 5 / sampleRate),
	}
}

// SetFrequency changes the fundamental.
func (o *BLITOscillator) SetFrequency(freq float64) { o.blit.SetFrequency(freq) }

// SetWidth sets the pulse duty cycle, limited to [0.02, 0.98].
func (o *BLITOscillator) SetWidth(w float64) {
	o.width = math.Min(math.Max(w, 0.02), 0.98)
}

// Reset restarts the waveform at phase 0 with an empty integrator.
func (o *BLITOscillator) Reset() {
	o.blit.phase = 0
	o.state = 0
}

// Next returns one sample in roughly [-1, 1].
func (o *BLITOscillator) Next() float32 {
	b := &o.blit
	var x float64
	switch o.shape {
	case WavePulse:
		x = b.ImpulseAt(b.phase) - b.ImpulseAt(b.phase-o.width)
		o.state = o.leak*o.state + x
		b.advance()
		return float32(2*o.state - (1 - 2*o.width))
	default:
		x = b.ImpulseAt(b.phase) - 1/b.period
		o.state = o.leak*o.state + x
		b.advance()
		return float32(-2 * o.state)
	}
}
