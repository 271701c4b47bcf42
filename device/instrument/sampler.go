package instrument

import (
	"github.com/cwbudde/algo-dsp/dsp/interp"

	"github.com/cwbudde/algo-synth/asset"
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

const samplerPolyphony = 16

// Sampler parameter indices.
const (
	SamplerRoot = iota
	SamplerAttack
	SamplerRelease
	SamplerGain
	SamplerPreset
	SamplerInterpolation
	samplerParamCount
)

const (
	samplerLinear = iota
	samplerHermite
)

type samplerVoice struct {
	pos   float64
	rate  float64
	pitch float32
	amp   dsp.ADSR
	// playing is cleared when the read position runs off the sample end.
	playing  bool
	pressure float32
}

// Sampler plays a stereo recording repitched around a root note. The
// recording is loaded by the asset worker; until it arrives the sampler is
// silent.
type Sampler struct {
	sampleRate float64
	voices     [samplerPolyphony]samplerVoice

	sample  *asset.Sample
	presets []string
	preset  int
	// pending is set when the selected preset has not been requested yet.
	pending bool

	root    float32
	gain    dsp.Smoothed
	attack  float64
	release float64
	interp  int
}

// NewSampler builds a sampler over the preset list in cfg.Samples.
func NewSampler(cfg device.Config) (*Sampler, error) {
	s := &Sampler{
		sampleRate: cfg.SampleRate,
		presets:    cfg.Samples,
		pending:    len(cfg.Samples) > 0,
		root:       60,
		gain:       dsp.NewSmoothed(1, paramSmoothMs, cfg.SampleRate),
		attack:     2,
		release:    200,
		interp:     samplerHermite,
	}
	for i := range s.voices {
		s.voices[i].amp = dsp.NewADSR(cfg.SampleRate, s.attack, 0, 1, s.release)
	}
	return s, nil
}

func (s *Sampler) Name() string    { return "sampler" }
func (s *Sampler) VoiceCount() int { return samplerPolyphony }

// Loaded reports whether a recording has been adopted.
func (s *Sampler) Loaded() bool { return s.sample != nil }

func (s *Sampler) SetParameter(index int, value float32) bool {
	switch index {
	case SamplerRoot:
		s.root = dsp.Clamp(value, 0, 127)
	case SamplerAttack:
		s.attack = float64(dsp.Clamp(value, 0, 10000))
		s.updateEnvelopes()
	case SamplerRelease:
		s.release = float64(dsp.Clamp(value, 0, 20000))
		s.updateEnvelopes()
	case SamplerGain:
		s.gain.SetTarget(dsp.Clamp(value, 0, 4))
	case SamplerPreset:
		if len(s.presets) == 0 {
			return true
		}
		p := device.ClampIndex(value, len(s.presets))
		if p != s.preset {
			s.preset = p
			s.pending = true
		}
	case SamplerInterpolation:
		s.interp = device.ClampIndex(value, 2)
	default:
		return false
	}
	return true
}

func (s *Sampler) updateEnvelopes() {
	for i := range s.voices {
		s.voices[i].amp.Set(s.attack, 0, 1, s.release)
	}
}

func (s *Sampler) AssetRequest() (asset.Request, bool) {
	if !s.pending {
		return asset.Request{}, false
	}
	s.pending = false
	return asset.Request{Kind: asset.KindSample, Path: s.presets[s.preset]}, true
}

func (s *Sampler) Adopt(resp asset.Response) (asset.Request, bool) {
	if resp.Err != nil || resp.Sample == nil {
		// Stay on whatever is loaded; there is no retry.
		return asset.Request{}, false
	}
	s.sample = resp.Sample
	for i := range s.voices {
		s.voices[i].playing = false
		s.voices[i].amp.Reset()
	}
	if len(s.presets) > 0 && resp.Request.Path != s.presets[s.preset] {
		// The preset changed while this one was loading.
		s.pending = false
		return asset.Request{Kind: asset.KindSample, Path: s.presets[s.preset]}, true
	}
	return asset.Request{}, false
}

func (s *Sampler) rateFor(pitch float32) float64 {
	r := float64(dsp.Pow2((pitch - s.root) / 12))
	if s.sample != nil && s.sample.SampleRate > 0 {
		r *= s.sample.SampleRate / s.sampleRate
	}
	return r
}

func (s *Sampler) NoteOn(slot int, pitch, velocity float32) {
	v := &s.voices[slot]
	if s.sample == nil {
		return
	}
	v.pos = 0
	v.pitch = pitch
	v.rate = s.rateFor(pitch)
	v.playing = true
	v.pressure = 0
	v.amp.NoteOn(velocity)
}

func (s *Sampler) NoteOff(slot int) { s.voices[slot].amp.NoteOff() }

func (s *Sampler) SetPitch(slot int, pitch float32) {
	v := &s.voices[slot]
	v.pitch = pitch
	v.rate = s.rateFor(pitch)
}

func (s *Sampler) SetPressure(slot int, value float32) {
	s.voices[slot].pressure = dsp.Clamp(value, 0, 1)
}

func (s *Sampler) VoiceActive(slot int) bool {
	v := &s.voices[slot]
	return v.playing && v.amp.Active()
}

func tap(ch []float32, k int) float32 {
	if k < 0 || k >= len(ch) {
		return 0
	}
	return ch[k]
}

func (s *Sampler) read(ch []float32, pos float64) float32 {
	i := int(pos)
	t := pos - float64(i)
	if s.interp == samplerLinear {
		a, b := tap(ch, i), tap(ch, i+1)
		return a + float32(t)*(b-a)
	}
	return float32(interp.Hermite4(t, float64(tap(ch, i-1)), float64(tap(ch, i)), float64(tap(ch, i+1)), float64(tap(ch, i+2))))
}

func (s *Sampler) Process(buf []float32) {
	smp := s.sample
	if smp == nil {
		return
	}
	frames := len(buf) / 2
	end := float64(smp.Len() - 1)
	for i := 0; i < frames; i++ {
		gain := s.gain.Next()
		var l, r float32
		for j := range s.voices {
			v := &s.voices[j]
			if !v.playing || !v.amp.Active() {
				continue
			}
			if v.pos >= end {
				v.playing = false
				continue
			}
			env := v.amp.Next() * (1 + 0.5*v.pressure)
			l += s.read(smp.Left, v.pos) * env
			r += s.read(smp.Right, v.pos) * env
			v.pos += v.rate
		}
		buf[2*i] += l * gain
		buf[2*i+1] += r * gain
	}
}

func (s *Sampler) Flush() {
	for i := range s.voices {
		s.voices[i].playing = false
		s.voices[i].amp.Reset()
	}
}
