package effect

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Compressor parameter indices.
const (
	CompressorThreshold = iota
	CompressorRatio
	CompressorAttack
	CompressorRelease
	CompressorMakeup
)

// Compressor is a soft-knee feed-forward compressor with independent
// detectors per channel.
type Compressor struct {
	left  *dynamics.Compressor
	right *dynamics.Compressor
}

func NewCompressor(cfg device.Config) (*Compressor, error) {
	c := &Compressor{}
	var err error
	if c.left, err = newCompressorChannel(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("compressor left: %w", err)
	}
	if c.right, err = newCompressorChannel(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("compressor right: %w", err)
	}
	return c, nil
}

func newCompressorChannel(sampleRate float64) (*dynamics.Compressor, error) {
	comp, err := dynamics.NewCompressor(sampleRate)
	if err != nil {
		return nil, err
	}
	// Makeup is an explicit parameter here.
	if err := comp.SetAutoMakeup(false); err != nil {
		return nil, err
	}
	if err := comp.SetMakeupGain(0); err != nil {
		return nil, err
	}
	return comp, nil
}

func (c *Compressor) Name() string    { return "compressor" }
func (c *Compressor) VoiceCount() int { return 0 }

func (c *Compressor) SetParameter(index int, value float32) bool {
	var set func(*dynamics.Compressor, float64) error
	var v float64
	switch index {
	case CompressorThreshold:
		set, v = (*dynamics.Compressor).SetThreshold, f64(dsp.Clamp(value, -60, 0))
	case CompressorRatio:
		set, v = (*dynamics.Compressor).SetRatio, f64(dsp.Clamp(value, 1, 100))
	case CompressorAttack:
		set, v = (*dynamics.Compressor).SetAttack, f64(dsp.Clamp(value, 0.1, 1000))
	case CompressorRelease:
		set, v = (*dynamics.Compressor).SetRelease, f64(dsp.Clamp(value, 1, 5000))
	case CompressorMakeup:
		set, v = (*dynamics.Compressor).SetMakeupGain, f64(dsp.Clamp(value, 0, 24))
	default:
		return false
	}
	_ = set(c.left, v)
	_ = set(c.right, v)
	return true
}

func (c *Compressor) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = float32(c.left.ProcessSample(float64(buf[i])))
		buf[i+1] = float32(c.right.ProcessSample(float64(buf[i+1])))
	}
}

func (c *Compressor) Flush() {
	c.left.Reset()
	c.right.Reset()
}
