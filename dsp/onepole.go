package dsp

import "math"

// ShelfMode selects how the one-pole filter blends its low and high paths.
type ShelfMode int

const (
	ShelfLow ShelfMode = iota
	ShelfHigh
	ShelfTilt
)

// OnePoleShelf is a first-order TPT low-pass whose low and high parts are
// re-weighted to form a shelf or a tilt.
type OnePoleShelf struct {
	sampleRate float64
	mode       ShelfMode
	cutoff     float64
	gainDB     float64

	g     float32
	wLow  float32
	wHigh float32
	s     float32
}

// NewOnePoleShelf creates a configured shelf.
func NewOnePoleShelf(sampleRate float64, mode ShelfMode, cutoff, gainDB float64) *OnePoleShelf {
	f := &OnePoleShelf{sampleRate: sampleRate, mode: mode, cutoff: cutoff, gainDB: gainDB}
	f.update()
	return f
}

// Set changes the design; coefficients only update on change.
func (f *OnePoleShelf) Set(mode ShelfMode, cutoff, gainDB float64) {
	if mode == f.mode && cutoff == f.cutoff && gainDB == f.gainDB {
		return
	}
	f.mode = mode
	f.cutoff = cutoff
	f.gainDB = gainDB
	f.update()
}

func (f *OnePoleShelf) update() {
	fc := math.Min(math.Max(f.cutoff, 1), 0.49*f.sampleRate)
	g := math.Tan(math.Pi * fc / f.sampleRate)
	f.g = float32(g / (1 + g))

	a := math.Pow(10, f.gainDB/20)
	switch f.mode {
	case ShelfLow:
		f.wLow, f.wHigh = float32(a), 1
	case ShelfHigh:
		f.wLow, f.wHigh = 1, float32(a)
	default:
		r := math.Sqrt(a)
		f.wLow, f.wHigh = float32(1/r), float32(r)
	}
}

// Process filters one sample.
func (f *OnePoleShelf) Process(x float32) float32 {
	v := (x - f.s) * f.g
	lp := v + f.s
	f.s = FlushDenormal(lp + v)
	hp := x - lp
	return f.wLow*lp + f.wHigh*hp
}

// Reset clears the integrator.
func (f *OnePoleShelf) Reset() { f.s = 0 }
