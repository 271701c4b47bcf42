package instrument

import (
	"math"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

const (
	pianoPolyphony  = 16
	pianoMaxStrings = 3
	// pianoSilence is the release level below which a voice is freed.
	pianoSilence = 1e-4
	// pianoMaxRelease caps how long a released voice may ring, in seconds.
	pianoMaxRelease = 2.0
	// bodyLowCut is the soundboard's low-frequency roll-off in Hz.
	bodyLowCut = 35
	bodyQ      = 0.707
)

// Piano parameter indices.
const (
	PianoGain = iota
	PianoHardness
	PianoLoss
	PianoStrikePosition
	PianoReleaseDamping
	PianoBrightness
	pianoParamCount
)

type pianoVoice struct {
	strings  [pianoMaxStrings]pianoString
	gains    [pianoMaxStrings]float32
	detune   [pianoMaxStrings]float32
	nStrings int

	hammer    pianoHammer
	strikePos float32
	pitch     float32
	panL      float32
	panR      float32

	active   bool
	released bool
	// age counts samples since release.
	age  int
	peak float32
}

// Piano is a waveguide piano: one to three detuned strings per note,
// struck by a nonlinear hammer.
type Piano struct {
	sampleRate float64
	voices     [pianoPolyphony]pianoVoice

	gain       dsp.Smoothed
	hardness   float32
	loss       float32
	strikePos  float32
	damping    float32
	crossfeed  float32
	maxRelease int

	// The soundboard body colours the summed strings: a low cut and a
	// brightness low-pass per output side.
	brightness float32
	bodyLow    [2]dsp.Biquad
	bodyHigh   [2]dsp.Biquad
}

// NewPiano builds a piano with every string delay line preallocated.
func NewPiano(cfg device.Config) (*Piano, error) {
	p := &Piano{
		sampleRate: cfg.SampleRate,
		gain:       dsp.NewSmoothed(1, paramSmoothMs, cfg.SampleRate),
		hardness:   1,
		loss:       0.9998,
		strikePos:  0.18,
		damping:    0.92,
		crossfeed:  0.0008,
		maxRelease: int(pianoMaxRelease * cfg.SampleRate),
		brightness: 9000,
	}
	sr := float32(cfg.SampleRate)
	for i := range p.bodyLow {
		p.bodyLow[i].SetHighpass(bodyLowCut, sr, bodyQ)
		p.bodyHigh[i].SetLowpass(p.brightness, sr, bodyQ)
	}
	for i := range p.voices {
		for j := range p.voices[i].strings {
			p.voices[i].strings[j] = newPianoString(cfg.SampleRate)
		}
	}
	return p, nil
}

func (p *Piano) Name() string    { return "piano" }
func (p *Piano) VoiceCount() int { return pianoPolyphony }

func (p *Piano) SetParameter(index int, value float32) bool {
	switch index {
	case PianoGain:
		p.gain.SetTarget(dsp.Clamp(value, 0, 4))
	case PianoHardness:
		p.hardness = dsp.Clamp(value, 0.5, 1.2)
	case PianoLoss:
		p.loss = dsp.Clamp(value, 0.99, 0.99999)
		for i := range p.voices {
			v := &p.voices[i]
			for j := 0; j < v.nStrings; j++ {
				v.strings[j].setLoopLoss(p.loss, 0.05)
			}
		}
	case PianoStrikePosition:
		p.strikePos = dsp.Clamp(value, 0.05, 0.5)
	case PianoReleaseDamping:
		p.damping = dsp.Clamp(value, 0.5, 0.99)
		for i := range p.voices {
			for j := range p.voices[i].strings {
				s := &p.voices[i].strings[j]
				s.damperReflection = p.damping
				s.setDamper(s.damperEngaged)
			}
		}
	case PianoBrightness:
		sr := float32(p.sampleRate)
		p.brightness = dsp.Clamp(value, 500, 0.45*sr)
		for i := range p.bodyHigh {
			p.bodyHigh[i].SetLowpass(p.brightness, sr, bodyQ)
		}
	default:
		return false
	}
	return true
}

// unisonForPitch returns the detune in cents and gain of each string. Bass
// notes get a single string, the middle two and the treble three.
func unisonForPitch(pitch float32) (int, [pianoMaxStrings]float32, [pianoMaxStrings]float32) {
	switch {
	case pitch < 40:
		return 1, [3]float32{0}, [3]float32{1}
	case pitch < 70:
		return 2, [3]float32{-1.8, 1.8}, [3]float32{0.52, 0.48}
	default:
		return 3, [3]float32{-3, 0, 3}, [3]float32{0.34, 0.33, 0.33}
	}
}

func (p *Piano) NoteOn(slot int, pitch, velocity float32) {
	v := &p.voices[slot]
	v.pitch = pitch
	v.nStrings, v.detune, v.gains = unisonForPitch(pitch)
	f0 := dsp.PitchToFreq(pitch)
	for j := 0; j < v.nStrings; j++ {
		s := &v.strings[j]
		s.tune(p.sampleRate, f0*dsp.Pow2(v.detune[j]/1200))
		s.damperReflection = p.damping
		s.setLoopLoss(p.loss, 0.05)
		s.exciteAt(0.3*velocity, p.strikePos)
	}
	v.hammer.strike(float32(p.sampleRate), velocity, p.hardness)
	v.strikePos = p.strikePos

	pan := dsp.Clamp((pitch-64)/64, -1, 1) * 0.35
	angle := float64(pan+1) * math.Pi / 4
	v.panL = float32(math.Cos(angle))
	v.panR = float32(math.Sin(angle))

	v.active = true
	v.released = false
	v.age = 0
	v.peak = 0
}

func (p *Piano) NoteOff(slot int) {
	v := &p.voices[slot]
	v.released = true
	v.age = 0
	v.peak = 0
	for j := 0; j < v.nStrings; j++ {
		v.strings[j].setDamper(true)
	}
}

func (p *Piano) SetPitch(slot int, pitch float32) {
	v := &p.voices[slot]
	f0 := dsp.PitchToFreq(pitch)
	for j := 0; j < v.nStrings; j++ {
		v.strings[j].retune(p.sampleRate, f0*dsp.Pow2(v.detune[j]/1200))
	}
	v.pitch = pitch
}

// SetPressure has no effect on a struck string.
func (p *Piano) SetPressure(slot int, value float32) {}

func (p *Piano) VoiceActive(slot int) bool { return p.voices[slot].active }

func (p *Piano) Process(buf []float32) {
	frames := len(buf) / 2
	checkEvery := int(0.05 * p.sampleRate)
	for i := 0; i < frames; i++ {
		gain := p.gain.Next()
		var l, r float32
		for k := range p.voices {
			v := &p.voices[k]
			if !v.active {
				continue
			}
			y := v.render(p.crossfeed)
			l += y * v.panL
			r += y * v.panR

			if !v.released {
				continue
			}
			if a := absf32(y); a > v.peak {
				v.peak = a
			}
			v.age++
			if v.age%checkEvery == 0 {
				if v.peak < pianoSilence || v.age >= p.maxRelease {
					v.active = false
				}
				v.peak = 0
			}
		}
		l = p.bodyHigh[0].Process(p.bodyLow[0].Process(l))
		r = p.bodyHigh[1].Process(p.bodyLow[1].Process(r))
		buf[2*i] += l * gain
		buf[2*i+1] += r * gain
	}
}

func (v *pianoVoice) render(crossfeed float32) float32 {
	if v.hammer.inContact {
		force := v.hammer.step(0) * 0.002
		for j := 0; j < v.nStrings; j++ {
			v.strings[j].injectAt(force, v.strikePos)
		}
	}
	var y float32
	for j := 0; j < v.nStrings; j++ {
		y += v.strings[j].process() * v.gains[j]
	}
	if v.nStrings > 1 {
		cross := y * crossfeed
		for j := 0; j < v.nStrings; j++ {
			v.strings[j].injectAt(cross, 0.92)
		}
	}
	return y
}

func (p *Piano) Flush() {
	for i := range p.voices {
		v := &p.voices[i]
		v.active = false
		for j := range v.strings {
			v.strings[j].line.Reset()
			v.strings[j].loopState = 0
		}
	}
	for i := range p.bodyLow {
		p.bodyLow[i].Reset()
		p.bodyHigh[i].Reset()
	}
}

func absf32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
