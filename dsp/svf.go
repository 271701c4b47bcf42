package dsp

import "math"

// FilterMode selects the SVF output mix.
type FilterMode int

const (
	LowPass FilterMode = iota
	HighPass
	BandPass
	Notch
	AllPassMode
	Bell
	LowShelf
	HighShelf
	Tilt
	numFilterModes
)

// ParseFilterMode maps an integer parameter onto a mode, clamping.
func ParseFilterMode(v float32) FilterMode {
	m := FilterMode(int(v + 0.5))
	if m < LowPass {
		return LowPass
	}
	if m >= numFilterModes {
		return numFilterModes - 1
	}
	return m
}

// SVF is a topology-preserving (trapezoidal) state-variable filter. All
// modes share one process routine and differ only in (m0, m1, m2).
type SVF struct {
	sampleRate float64
	mode       FilterMode
	cutoff     float64
	q          float64
	gainDB     float64

	a1, a2, a3 float32
	m0, m1, m2 float32
	s1, s2     float32
}

// NewSVF creates a filter and computes its coefficients.
func NewSVF(sampleRate float64, mode FilterMode, cutoff, q, gainDB float64) *SVF {
	f := &SVF{}
	f.Init(sampleRate, mode, cutoff, q, gainDB)
	return f
}

// Init configures a zero-value SVF in place.
func (f *SVF) Init(sampleRate float64, mode FilterMode, cutoff, q, gainDB float64) {
	f.sampleRate = sampleRate
	f.mode = mode
	f.cutoff = cutoff
	f.q = q
	f.gainDB = gainDB
	f.update()
}

// Set changes all design parameters; coefficients are only recomputed when
// something actually changed.
func (f *SVF) Set(mode FilterMode, cutoff, q, gainDB float64) {
	if mode == f.mode && cutoff == f.cutoff && q == f.q && gainDB == f.gainDB {
		return
	}
	f.mode = mode
	f.cutoff = cutoff
	f.q = q
	f.gainDB = gainDB
	f.update()
}

// SetCutoff changes only the cutoff frequency.
func (f *SVF) SetCutoff(cutoff float64) {
	f.Set(f.mode, cutoff, f.q, f.gainDB)
}

// Mode returns the current output mix.
func (f *SVF) Mode() FilterMode { return f.mode }

// Cutoff returns the current cutoff in Hz.
func (f *SVF) Cutoff() float64 { return f.cutoff }

func (f *SVF) update() {
	fc := f.cutoff
	if fc < 1 {
		fc = 1
	}
	if fc > 0.49*f.sampleRate {
		fc = 0.49 * f.sampleRate
	}
	q := f.q
	if q < 0.025 {
		q = 0.025
	}

	g := math.Tan(math.Pi * fc / f.sampleRate)
	k := 1 / q
	a := math.Pow(10, f.gainDB/40)

	var m0, m1, m2 float64
	switch f.mode {
	case LowPass:
		m0, m1, m2 = 0, 0, 1
	case HighPass:
		m0, m1, m2 = 1, -k, -1
	case BandPass:
		m0, m1, m2 = 0, 1, 0
	case Notch:
		m0, m1, m2 = 1, -k, 0
	case AllPassMode:
		m0, m1, m2 = 1, -2*k, 0
	case Bell:
		k = 1 / (q * a)
		m0, m1, m2 = 1, k*(a*a-1), 0
	case LowShelf:
		g /= math.Sqrt(a)
		m0, m1, m2 = 1, k*(a-1), a*a-1
	case HighShelf:
		g *= math.Sqrt(a)
		m0, m1, m2 = a*a, k*(1-a)*a, 1-a*a
	case Tilt:
		// High shelf by +gain with the whole response pulled down by gain/2.
		g *= math.Sqrt(a)
		m0, m1, m2 = a, k*(1-a), (1-a*a)/a
	}

	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2
	f.a1, f.a2, f.a3 = float32(a1), float32(a2), float32(a3)
	f.m0, f.m1, f.m2 = float32(m0), float32(m1), float32(m2)
}

// Process filters one sample.
func (f *SVF) Process(x float32) float32 {
	v3 := x - f.s2
	v1 := f.a1*f.s1 + f.a2*v3
	v2 := f.s2 + f.a2*f.s1 + f.a3*v3
	f.s1 = FlushDenormal(2*v1 - f.s1)
	f.s2 = FlushDenormal(2*v2 - f.s2)
	return f.m0*x + f.m1*v1 + f.m2*v2
}

// Reset clears both integrator states.
func (f *SVF) Reset() {
	f.s1, f.s2 = 0, 0
}
