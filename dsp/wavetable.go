package dsp

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// TableSize is the length of one wavetable cycle.
const TableSize = 2048

// maxTableHarmonics caps the band-limit bucket.
const maxTableHarmonics = TableSize / 2

// tableFadeMs is the crossfade length used when the band-limit changes.
const tableFadeMs = 50

// HarmonicBucket returns the largest power of two not exceeding the number
// of partials below Nyquist at freq, capped at TableSize/2.
func HarmonicBucket(freq, sampleRate float64) int {
	if freq <= 0 {
		return maxTableHarmonics
	}
	n := int(0.5 * sampleRate / freq)
	if n < 1 {
		return 1
	}
	b := 1
	for b*2 <= n && b < maxTableHarmonics {
		b *= 2
	}
	return b
}

// Wavetable plays one single-cycle table with linear interpolation and
// re-band-limits it whenever the harmonic bucket changes.
type Wavetable struct {
	sampleRate float64
	source     []float64
	sourcePeak float64

	plan *algofft.Plan[complex128]
	spec []complex128
	tmp  []complex128

	cur  []float32
	prev []float32
	fade float32
	step float32

	bucket int
	phase  float64
	inc    float64
}

// NewWavetable prepares a player for source, which must hold TableSize
// samples. The source slice is read only and may be shared.
func NewWavetable(source []float32, sampleRate float64) (*Wavetable, error) {
	if len(source) != TableSize {
		return nil, fmt.Errorf("wavetable source must have %d samples: got %d", TableSize, len(source))
	}
	plan, err := algofft.NewPlan64(TableSize)
	if err != nil {
		return nil, fmt.Errorf("wavetable fft plan: %w", err)
	}
	w := &Wavetable{
		sampleRate: sampleRate,
		source:     make([]float64, TableSize),
		plan:       plan,
		spec:       make([]complex128, TableSize),
		tmp:        make([]complex128, TableSize),
		cur:        make([]float32, TableSize+1),
		prev:       make([]float32, TableSize+1),
		fade:       1,
		step:       float32(1 / math.Max(1, MsToSamples(tableFadeMs, sampleRate))),
	}
	w.loadSource(source)
	w.bucket = maxTableHarmonics
	if err := w.rebuild(w.cur); err != nil {
		return nil, err
	}
	copy(w.prev, w.cur)
	return w, nil
}

// Bucket returns the harmonic limit of the active table.
func (w *Wavetable) Bucket() int { return w.bucket }

// Fading reports whether a table crossfade is in progress.
func (w *Wavetable) Fading() bool { return w.fade < 1 }

// SetFrequency sets the playback pitch. When the safe harmonic bucket
// changes the table is rebuilt and crossfaded in.
func (w *Wavetable) SetFrequency(freq float64) {
	w.inc = freq / w.sampleRate
	b := HarmonicBucket(freq, w.sampleRate)
	if b == w.bucket {
		return
	}
	w.bucket = b
	w.prev, w.cur = w.cur, w.prev
	if err := w.rebuild(w.cur); err != nil {
		// Keep playing the previous table.
		w.prev, w.cur = w.cur, w.prev
		return
	}
	w.fade = 0
}

// SetSource swaps in a new single-cycle shape and crossfades to it at the
// current band limit. It does not allocate.
func (w *Wavetable) SetSource(source []float32) error {
	if len(source) != TableSize {
		return fmt.Errorf("wavetable source must have %d samples: got %d", TableSize, len(source))
	}
	w.loadSource(source)
	w.prev, w.cur = w.cur, w.prev
	if err := w.rebuild(w.cur); err != nil {
		w.prev, w.cur = w.cur, w.prev
		return err
	}
	w.fade = 0
	return nil
}

func (w *Wavetable) loadSource(source []float32) {
	w.sourcePeak = 0
	for i, v := range source {
		w.source[i] = float64(v)
		if a := math.Abs(float64(v)); a > w.sourcePeak {
			w.sourcePeak = a
		}
	}
}

// Reset restarts at phase 0 without a pending crossfade.
func (w *Wavetable) Reset() {
	w.phase = 0
	w.fade = 1
}

// rebuild band-limits the source into dst: forward FFT, zero every bin above
// the bucket, inverse FFT, renormalize to the source peak.
func (w *Wavetable) rebuild(dst []float32) error {
	for i, v := range w.source {
		w.tmp[i] = complex(v, 0)
	}
	if err := w.plan.Forward(w.spec, w.tmp); err != nil {
		return err
	}
	limit := w.bucket
	for k := limit + 1; k <= TableSize-limit-1; k++ {
		w.spec[k] = 0
	}
	if err := w.plan.Inverse(w.tmp, w.spec); err != nil {
		return err
	}
	peak := 0.0
	for i := range w.tmp {
		if a := math.Abs(real(w.tmp[i])); a > peak {
			peak = a
		}
	}
	scale := 1.0
	if peak > 0 {
		scale = w.sourcePeak / peak
	}
	for i := range w.tmp {
		dst[i] = float32(real(w.tmp[i]) * scale)
	}
	dst[TableSize] = dst[0]
	return nil
}

func lookup(t []float32, pos float64) float32 {
	i := int(pos)
	frac := float32(pos - float64(i))
	return t[i] + frac*(t[i+1]-t[i])
}

// Next returns one sample and advances the phase.
func (w *Wavetable) Next() float32 {
	pos := w.phase * TableSize
	y := lookup(w.cur, pos)
	if w.fade < 1 {
		y = w.fade*y + (1-w.fade)*lookup(w.prev, pos)
		w.fade += w.step
	}
	w.phase += w.inc
	if w.phase >= 1 {
		w.phase -= math.Floor(w.phase)
	}
	return y
}
