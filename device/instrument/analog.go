// Package instrument holds the sound generators a channel can host.
package instrument

import (
	"math"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

const (
	analogPolyphony = 8
	// controlInterval is the number of samples between filter and
	// oscillator retuning.
	controlInterval = 16
	paramSmoothMs   = 20
)

// Analog parameter indices.
const (
	AnalogSaw = iota
	AnalogPulse
	AnalogWidth
	AnalogSub
	AnalogCutoff
	AnalogResonance
	AnalogEnvAmount
	AnalogAttack
	AnalogDecay
	AnalogSustain
	AnalogRelease
	AnalogGain
	AnalogGlide
	analogParamCount
)

type analogVoice struct {
	saw   dsp.BLITOscillator
	pulse dsp.BLITOscillator
	sub   dsp.BLITOscillator

	filter dsp.SVF
	amp    dsp.ADSR
	fenv   dsp.ADSR

	pitch    dsp.Smoothed
	pressure float32
	fenvOut  float32
	tick     int
}

// Analog is a subtractive voice: BLIT saw, pulse and sub oscillators into
// a resonant low-pass with its own envelope.
type Analog struct {
	sampleRate float64
	voices     [analogPolyphony]analogVoice

	saw, pulse, width, sub dsp.Smoothed
	cutoff, envAmount      dsp.Smoothed
	gain                   dsp.Smoothed
	resonance              float64

	attack, decay, release float64
	sustain                float32
	glide                  float64
}

// NewAnalog builds an analog instrument with all voices allocated.
func NewAnalog(cfg device.Config) (*Analog, error) {
	sr := cfg.SampleRate
	a := &Analog{
		sampleRate: sr,
		saw:        dsp.NewSmoothed(0.6, paramSmoothMs, sr),
		pulse:      dsp.NewSmoothed(0, paramSmoothMs, sr),
		width:      dsp.NewSmoothed(0.5, paramSmoothMs, sr),
		sub:        dsp.NewSmoothed(0.2, paramSmoothMs, sr),
		cutoff:     dsp.NewSmoothed(2400, paramSmoothMs, sr),
		envAmount:  dsp.NewSmoothed(2, paramSmoothMs, sr),
		gain:       dsp.NewSmoothed(0.5, paramSmoothMs, sr),
		resonance:  0.9,
		attack:     5,
		decay:      300,
		sustain:    0.6,
		release:    250,
	}
	for i := range a.voices {
		v := &a.voices[i]
		v.saw = dsp.NewBLITOscillator(sr, 440, dsp.WaveSaw)
		v.pulse = dsp.NewBLITOscillator(sr, 440, dsp.WavePulse)
		v.sub = dsp.NewBLITOscillator(sr, 220, dsp.WavePulse)
		v.filter.Init(sr, dsp.LowPass, 2400, a.resonance, 0)
		v.amp = dsp.NewADSR(sr, a.attack, a.decay, a.sustain, a.release)
		v.fenv = dsp.NewADSR(sr, a.attack, a.decay, 0, a.release)
		v.pitch = dsp.NewSmoothed(69, 1, sr)
	}
	return a, nil
}

func (a *Analog) Name() string    { return "analog" }
func (a *Analog) VoiceCount() int { return analogPolyphony }

func (a *Analog) SetParameter(index int, value float32) bool {
	switch index {
	case AnalogSaw:
		a.saw.SetTarget(dsp.Clamp(value, 0, 1))
	case AnalogPulse:
		a.pulse.SetTarget(dsp.Clamp(value, 0, 1))
	case AnalogWidth:
		a.width.SetTarget(dsp.Clamp(value, 0.02, 0.98))
	case AnalogSub:
		a.sub.SetTarget(dsp.Clamp(value, 0, 1))
	case AnalogCutoff:
		a.cutoff.SetTarget(dsp.Clamp(value, 20, 20000))
	case AnalogResonance:
		a.resonance = float64(dsp.Clamp(value, 0.3, 20))
	case AnalogEnvAmount:
		a.envAmount.SetTarget(dsp.Clamp(value, -6, 6))
	case AnalogAttack:
		a.attack = float64(dsp.Clamp(value, 0, 10000))
		a.updateEnvelopes()
	case AnalogDecay:
		a.decay = float64(dsp.Clamp(value, 0, 10000))
		a.updateEnvelopes()
	case AnalogSustain:
		a.sustain = dsp.Clamp(value, 0, 1)
		a.updateEnvelopes()
	case AnalogRelease:
		a.release = float64(dsp.Clamp(value, 0, 20000))
		a.updateEnvelopes()
	case AnalogGain:
		a.gain.SetTarget(dsp.Clamp(value, 0, 2))
	case AnalogGlide:
		a.glide = float64(dsp.Clamp(value, 0, 5000))
		for i := range a.voices {
			a.voices[i].pitch.SetTime(math.Max(a.glide, 1), a.sampleRate)
		}
	default:
		return false
	}
	return true
}

func (a *Analog) updateEnvelopes() {
	for i := range a.voices {
		v := &a.voices[i]
		v.amp.Set(a.attack, a.decay, a.sustain, a.release)
		v.fenv.Set(a.attack, a.decay, 0, a.release)
	}
}

func (a *Analog) NoteOn(slot int, pitch, velocity float32) {
	v := &a.voices[slot]
	if a.glide > 0 && v.amp.Active() {
		v.pitch.SetTarget(pitch)
	} else {
		v.pitch.SetImmediate(pitch)
		v.saw.Reset()
		v.pulse.Reset()
		v.sub.Reset()
		v.filter.Reset()
	}
	v.pressure = 0
	v.tick = 0
	v.amp.NoteOn(velocity)
	v.fenv.NoteOn(1)
}

func (a *Analog) NoteOff(slot int) {
	a.voices[slot].amp.NoteOff()
	a.voices[slot].fenv.NoteOff()
}

func (a *Analog) SetPitch(slot int, pitch float32) {
	a.voices[slot].pitch.SetTarget(pitch)
}

func (a *Analog) SetPressure(slot int, value float32) {
	a.voices[slot].pressure = dsp.Clamp(value, 0, 1)
}

func (a *Analog) VoiceActive(slot int) bool { return a.voices[slot].amp.Active() }

func (a *Analog) Process(buf []float32) {
	frames := len(buf) / 2
	nyquistLimit := float32(0.45 * a.sampleRate)
	for i := 0; i < frames; i++ {
		sawLevel := a.saw.Next()
		pulseLevel := a.pulse.Next()
		width := float64(a.width.Next())
		subLevel := a.sub.Next()
		cutoff := a.cutoff.Next()
		envAmount := a.envAmount.Next()
		gain := a.gain.Next()

		var sum float32
		for j := range a.voices {
			v := &a.voices[j]
			if !v.amp.Active() {
				continue
			}
			pitch := v.pitch.Next()
			if v.tick == 0 {
				freq := float64(dsp.PitchToFreq(pitch))
				v.saw.SetFrequency(freq)
				v.pulse.SetFrequency(freq)
				v.pulse.SetWidth(width)
				v.sub.SetFrequency(freq / 2)
				fc := cutoff * dsp.Pow2(envAmount*v.fenvOut+2*v.pressure)
				fc = dsp.Clamp(fc, 20, nyquistLimit)
				v.filter.Set(dsp.LowPass, float64(fc), a.resonance, 0)
			}
			v.tick++
			if v.tick == controlInterval {
				v.tick = 0
			}
			v.fenvOut = v.fenv.Next()

			osc := sawLevel*v.saw.Next() + pulseLevel*v.pulse.Next() + subLevel*v.sub.Next()
			sum += v.filter.Process(osc) * v.amp.Next()
		}
		y := sum * gain
		buf[2*i] += y
		buf[2*i+1] += y
	}
}

func (a *Analog) Flush() {
	for i := range a.voices {
		v := &a.voices[i]
		v.amp.Reset()
		v.fenv.Reset()
		v.filter.Reset()
		v.saw.Reset()
		v.pulse.Reset()
		v.sub.Reset()
		v.fenvOut = 0
	}
}
