package instrument

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

const wavetablePolyphony = 8

// Wavetable parameter indices.
const (
	WavetableShape = iota
	WavetableAttack
	WavetableDecay
	WavetableSustain
	WavetableRelease
	WavetableGain
	wavetableParamCount
)

// Wavetable shapes.
const (
	ShapeSaw = iota
	ShapeSquare
	ShapeTriangle
	ShapeOrgan
	numShapes
)

// shapeTables are generated once and shared read-only by every instance.
var shapeTables = buildShapes()

func buildShapes() [numShapes][]float32 {
	var out [numShapes][]float32
	for s := range out {
		out[s] = make([]float32, dsp.TableSize)
	}
	for i := 0; i < dsp.TableSize; i++ {
		ph := float64(i) / dsp.TableSize
		out[ShapeSaw][i] = float32(2*ph - 1)
		if ph < 0.5 {
			out[ShapeSquare][i] = 1
		} else {
			out[ShapeSquare][i] = -1
		}
		out[ShapeTriangle][i] = float32(1 - 4*math.Abs(ph-0.5))
		w := 2 * math.Pi * ph
		out[ShapeOrgan][i] = float32((math.Sin(w) + 0.5*math.Sin(2*w) + 0.25*math.Sin(4*w) + 0.125*math.Sin(8*w)) / 1.875)
	}
	return out
}

type wavetableVoice struct {
	osc      *dsp.Wavetable
	amp      dsp.ADSR
	pitch    float32
	pressure float32
}

// Wavetable plays band-limited single-cycle shapes.
type Wavetable struct {
	sampleRate float64
	voices     [wavetablePolyphony]wavetableVoice
	shape      int
	gain       dsp.Smoothed

	attack, decay, release float64
	sustain                float32
}

// NewWavetable builds a wavetable instrument. Every voice owns its own
// band-limited copy of the active shape.
func NewWavetable(cfg device.Config) (*Wavetable, error) {
	w := &Wavetable{
		sampleRate: cfg.SampleRate,
		gain:       dsp.NewSmoothed(0.5, paramSmoothMs, cfg.SampleRate),
		attack:     10,
		decay:      400,
		sustain:    0.7,
		release:    300,
	}
	for i := range w.voices {
		osc, err := dsp.NewWavetable(shapeTables[ShapeSaw], cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("wavetable voice %d: %w", i, err)
		}
		w.voices[i].osc = osc
		w.voices[i].amp = dsp.NewADSR(cfg.SampleRate, w.attack, w.decay, w.sustain, w.release)
	}
	return w, nil
}

func (w *Wavetable) Name() string    { return "wavetable" }
func (w *Wavetable) VoiceCount() int { return wavetablePolyphony }

func (w *Wavetable) SetParameter(index int, value float32) bool {
	switch index {
	case WavetableShape:
		shape := device.ClampIndex(value, numShapes)
		if shape == w.shape {
			return true
		}
		w.shape = shape
		for i := range w.voices {
			// The source length is fixed, so this cannot fail.
			_ = w.voices[i].osc.SetSource(shapeTables[shape])
		}
	case WavetableAttack:
		w.attack = float64(dsp.Clamp(value, 0, 10000))
	case WavetableDecay:
		w.decay = float64(dsp.Clamp(value, 0, 10000))
	case WavetableSustain:
		w.sustain = dsp.Clamp(value, 0, 1)
	case WavetableRelease:
		w.release = float64(dsp.Clamp(value, 0, 20000))
	case WavetableGain:
		w.gain.SetTarget(dsp.Clamp(value, 0, 2))
		return true
	default:
		return false
	}
	for i := range w.voices {
		w.voices[i].amp.Set(w.attack, w.decay, w.sustain, w.release)
	}
	return true
}

func (w *Wavetable) NoteOn(slot int, pitch, velocity float32) {
	v := &w.voices[slot]
	if !v.amp.Active() {
		v.osc.Reset()
	}
	v.pitch = pitch
	v.pressure = 0
	v.osc.SetFrequency(float64(dsp.PitchToFreq(pitch)))
	v.amp.NoteOn(velocity)
}

func (w *Wavetable) NoteOff(slot int) { w.voices[slot].amp.NoteOff() }

func (w *Wavetable) SetPitch(slot int, pitch float32) {
	v := &w.voices[slot]
	v.pitch = pitch
	v.osc.SetFrequency(float64(dsp.PitchToFreq(pitch)))
}

func (w *Wavetable) SetPressure(slot int, value float32) {
	w.voices[slot].pressure = dsp.Clamp(value, 0, 1)
}

func (w *Wavetable) VoiceActive(slot int) bool { return w.voices[slot].amp.Active() }

func (w *Wavetable) Process(buf []float32) {
	frames := len(buf) / 2
	for i := 0; i < frames; i++ {
		gain := w.gain.Next()
		var sum float32
		for j := range w.voices {
			v := &w.voices[j]
			if !v.amp.Active() {
				continue
			}
			sum += v.osc.Next() * v.amp.Next() * (1 + v.pressure)
		}
		y := sum * gain
		buf[2*i] += y
		buf[2*i+1] += y
	}
}

func (w *Wavetable) Flush() {
	for i := range w.voices {
		w.voices[i].amp.Reset()
		w.voices[i].osc.Reset()
	}
}
