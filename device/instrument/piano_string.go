package instrument

import "github.com/cwbudde/algo-synth/dsp"

// pianoMinFreq bounds the longest string a slot can hold.
const pianoMinFreq = 20

// pianoString is a digital waveguide string: one fractional delay loop with
// a one-pole loss filter, an optional dispersion all-pass pair and a
// damper that lowers the loop gain on release.
type pianoString struct {
	line  *dsp.DelayLine
	delay float32

	reflection       float32
	baseReflection   float32
	damperReflection float32
	damperEngaged    bool

	lowpassCoeff float32
	loopState    float32

	dispersionCoeff float32
	apX1, apY1      float32
	apX2, apY2      float32
}

func newPianoString(sampleRate float64) pianoString {
	return pianoString{
		line:             dsp.NewDelayLineSamples(int(sampleRate/pianoMinFreq) + 2),
		delay:            100,
		reflection:       0.9998,
		baseReflection:   0.9998,
		damperReflection: 0.92,
	}
}

// tune clears the loop and sets the fundamental.
func (s *pianoString) tune(sampleRate float64, f0 float32) {
	s.retune(sampleRate, f0)
	s.line.Reset()
	s.loopState = 0
	s.apX1, s.apY1, s.apX2, s.apY2 = 0, 0, 0, 0
	s.setDamper(false)
}

// retune changes the loop length without clearing it.
func (s *pianoString) retune(sampleRate float64, f0 float32) {
	s.delay = dsp.Clamp(float32(sampleRate)/f0, 2, s.line.MaxDelay())
}

func (s *pianoString) process() float32 {
	delayed := s.line.ReadLinear(s.delay)
	s.line.Push(s.loopLoss(s.disperse(delayed)))
	return delayed
}

// exciteAt adds a ramp-shaped displacement at a fractional position.
func (s *pianoString) exciteAt(force, strikePos float32) {
	strikePos = dsp.Clamp(strikePos, 0.01, 0.99)
	n := int(s.delay)
	start := 1 + int(float32(n)*strikePos)
	width := int(float32(n) * (0.04 + 0.22*strikePos))
	if width < 4 {
		width = 4
	}
	if width > n-1 {
		width = n - 1
	}
	for i := 0; i < width; i++ {
		lag := start + i
		if lag > n {
			lag -= n
		}
		amp := force * (float32(i)/float32(width-1) - 0.5) * 2
		s.line.AddAt(lag, amp)
	}
}

// injectAt adds a single-sample force at a fractional position.
func (s *pianoString) injectAt(force, strikePos float32) {
	strikePos = dsp.Clamp(strikePos, 0.01, 0.99)
	lag := 1 + int(float32(int(s.delay))*strikePos)
	s.line.AddAt(lag, force)
}

func (s *pianoString) setLoopLoss(gain, highFreqDamping float32) {
	s.baseReflection = dsp.Clamp(gain, 0.0001, 1)
	s.lowpassCoeff = dsp.Clamp(highFreqDamping, 0, 0.99)
	if !s.damperEngaged {
		s.reflection = s.baseReflection
	}
}

func (s *pianoString) setDamper(engaged bool) {
	s.damperEngaged = engaged
	if engaged {
		s.reflection = s.damperReflection
		return
	}
	s.reflection = s.baseReflection
}

// setDispersion maps an inharmonicity amount in [0,1] onto the all-pass
// coefficient.
func (s *pianoString) setDispersion(amount float32) {
	s.dispersionCoeff = -0.85 * dsp.Clamp(amount, 0, 1)
}

func (s *pianoString) loopLoss(x float32) float32 {
	lp := dsp.FlushDenormal((1-s.lowpassCoeff)*x + s.lowpassCoeff*s.loopState)
	s.loopState = lp
	return dsp.FlushDenormal(lp * s.reflection)
}

func (s *pianoString) disperse(x float32) float32 {
	a := s.dispersionCoeff
	if a == 0 {
		return x
	}
	y := -a*x + s.apX1 + a*s.apY1
	s.apX1 = x
	s.apY1 = y
	z := -a*y + s.apX2 + a*s.apY2
	s.apX2 = y
	s.apY2 = z
	return z
}
