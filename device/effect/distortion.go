package effect

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Distortion parameter indices.
const (
	DistortionDrive = iota
	DistortionMix
	DistortionOutput
	DistortionMode
)

var distortionModes = [3]effects.DistortionMode{
	effects.DistortionModeSoftClip,
	effects.DistortionModeHardClip,
	effects.DistortionModeTanh,
}

type distortionChannel struct {
	shaper *effects.Distortion
	up     dsp.Upsampler2x
	down   dsp.Downsampler2x
}

func (c *distortionChannel) process(x float32) float32 {
	a, b := c.up.Up(x)
	a = float32(c.shaper.ProcessSample(float64(a)))
	b = float32(c.shaper.ProcessSample(float64(b)))
	return c.down.Down(a, b)
}

func (c *distortionChannel) set(index int, value float32) bool {
	switch index {
	case DistortionDrive:
		_ = c.shaper.SetDrive(f64(dsp.Clamp(value, 0.01, 20)))
	case DistortionMix:
		_ = c.shaper.SetMix(f64(dsp.Clamp(value, 0, 1)))
	case DistortionOutput:
		_ = c.shaper.SetOutputLevel(f64(dsp.Clamp(value, 0, 4)))
	case DistortionMode:
		_ = c.shaper.SetMode(distortionModes[device.ClampIndex(value, len(distortionModes))])
	default:
		return false
	}
	return true
}

// Distortion is a waveshaper run at twice the sample rate so the new
// harmonics it creates are filtered before folding back.
type Distortion struct {
	left  distortionChannel
	right distortionChannel
}

func NewDistortion(cfg device.Config) (*Distortion, error) {
	d := &Distortion{}
	for _, ch := range []*distortionChannel{&d.left, &d.right} {
		shaper, err := effects.NewDistortion(2*cfg.SampleRate,
			effects.WithDistortionMode(effects.DistortionModeSoftClip),
			effects.WithDistortionDrive(2),
			effects.WithDistortionMix(1),
			effects.WithDistortionOutputLevel(0.8),
		)
		if err != nil {
			return nil, fmt.Errorf("distortion: %w", err)
		}
		ch.shaper = shaper
	}
	return d, nil
}

func (d *Distortion) Name() string    { return "distortion" }
func (d *Distortion) VoiceCount() int { return 0 }

func (d *Distortion) SetParameter(index int, value float32) bool {
	return d.left.set(index, value) && d.right.set(index, value)
}

func (d *Distortion) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = d.left.process(buf[i])
		buf[i+1] = d.right.process(buf[i+1])
	}
}

func (d *Distortion) Flush() {
	for _, ch := range []*distortionChannel{&d.left, &d.right} {
		ch.shaper.Reset()
		ch.up.Reset()
		ch.down.Reset()
	}
}
