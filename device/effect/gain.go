package effect

import (
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Gain parameter indices.
const (
	GainLevel = iota
	GainPan
)

// Gain scales the signal and balances it between the two channels.
type Gain struct {
	gain dsp.Smoothed
	pan  dsp.Smoothed
}

func NewGain(cfg device.Config) (*Gain, error) {
	return &Gain{
		gain: dsp.NewSmoothed(1, paramSmoothMs, cfg.SampleRate),
		pan:  dsp.NewSmoothed(0, paramSmoothMs, cfg.SampleRate),
	}, nil
}

func (g *Gain) Name() string    { return "gain" }
func (g *Gain) VoiceCount() int { return 0 }

func (g *Gain) SetParameter(index int, value float32) bool {
	switch index {
	case GainLevel:
		g.gain.SetTarget(dsp.Clamp(value, 0, 4))
	case GainPan:
		g.pan.SetTarget(dsp.Clamp(value, -1, 1))
	default:
		return false
	}
	return true
}

func (g *Gain) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		gain := g.gain.Next()
		pan := g.pan.Next()
		// Balance: the far side is attenuated, the near side is untouched.
		l, r := gain, gain
		if pan > 0 {
			l *= 1 - pan
		} else if pan < 0 {
			r *= 1 + pan
		}
		buf[i] *= l
		buf[i+1] *= r
	}
}

func (g *Gain) Flush() {
	g.gain.SetImmediate(g.gain.Target())
	g.pan.SetImmediate(g.pan.Target())
}

