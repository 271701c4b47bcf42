package effect

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects/modulation"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Chorus parameter indices.
const (
	ChorusRate = iota
	ChorusMix
	ChorusStages
)

const (
	chorusDepthSeconds = 0.003
	chorusBaseSeconds  = 0.012
	// chorusRightSpread detunes the right LFO against the left one.
	chorusRightSpread = 1.1
)

// Chorus runs one modulated multi-voice chorus per channel. Depth and base
// delay size the internal delay lines and are therefore fixed.
type Chorus struct {
	left  *modulation.Chorus
	right *modulation.Chorus

	rate   float64
	mix    float64
	stages int
}

func NewChorus(cfg device.Config) (*Chorus, error) {
	c := &Chorus{rate: 0.4, mix: 0.5, stages: 3}
	var err error
	if c.left, err = newChorusChannel(cfg.SampleRate, c.rate, c.mix, c.stages); err != nil {
		return nil, fmt.Errorf("chorus left: %w", err)
	}
	if c.right, err = newChorusChannel(cfg.SampleRate, c.rate*chorusRightSpread, c.mix, c.stages); err != nil {
		return nil, fmt.Errorf("chorus right: %w", err)
	}
	return c, nil
}

func newChorusChannel(sampleRate, rate, mix float64, stages int) (*modulation.Chorus, error) {
	ch, err := modulation.NewChorus()
	if err != nil {
		return nil, err
	}
	if err := ch.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if err := ch.SetBaseDelay(chorusBaseSeconds); err != nil {
		return nil, err
	}
	if err := ch.SetDepth(chorusDepthSeconds); err != nil {
		return nil, err
	}
	if err := ch.SetSpeedHz(rate); err != nil {
		return nil, err
	}
	if err := ch.SetStages(stages); err != nil {
		return nil, err
	}
	if err := ch.SetMix(mix); err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *Chorus) Name() string    { return "chorus" }
func (c *Chorus) VoiceCount() int { return 0 }

// SetParameter clamps into the ranges the chorus validates, so the setters
// below cannot fail.
func (c *Chorus) SetParameter(index int, value float32) bool {
	switch index {
	case ChorusRate:
		c.rate = f64(dsp.Clamp(value, 0.01, 10))
		_ = c.left.SetSpeedHz(c.rate)
		_ = c.right.SetSpeedHz(c.rate * chorusRightSpread)
	case ChorusMix:
		c.mix = f64(dsp.Clamp(value, 0, 1))
		_ = c.left.SetMix(c.mix)
		_ = c.right.SetMix(c.mix)
	case ChorusStages:
		c.stages = device.ClampIndex(value, 7)
		if c.stages < 1 {
			c.stages = 1
		}
		_ = c.left.SetStages(c.stages)
		_ = c.right.SetStages(c.stages)
	default:
		return false
	}
	return true
}

func (c *Chorus) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = float32(c.left.ProcessSample(float64(buf[i])))
		buf[i+1] = float32(c.right.ProcessSample(float64(buf[i+1])))
	}
}

func (c *Chorus) Flush() {
	c.left.Reset()
	c.right.Reset()
}
