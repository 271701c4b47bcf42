package effect

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects/reverb"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Reverb parameter indices.
const (
	ReverbWet = iota
	ReverbRT60
	ReverbDamp
	ReverbDry
)

// reverbRightPreDelay offsets the right tank so the two mono FDNs do not
// produce identical tails.
const reverbRightPreDelay = 0.007

// Reverb is a stereo pair of feedback delay network reverbs.
type Reverb struct {
	left  *reverb.FDNReverb
	right *reverb.FDNReverb
}

func NewReverb(cfg device.Config) (*Reverb, error) {
	left, err := reverb.NewFDNReverb(cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("reverb left: %w", err)
	}
	right, err := reverb.NewFDNReverb(cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("reverb right: %w", err)
	}
	if err := right.SetPreDelay(reverbRightPreDelay); err != nil {
		return nil, fmt.Errorf("reverb right: %w", err)
	}
	r := &Reverb{left: left, right: right}
	for _, t := range []*reverb.FDNReverb{left, right} {
		if err := t.SetWet(0.3); err != nil {
			return nil, err
		}
		if err := t.SetDry(1); err != nil {
			return nil, err
		}
		if err := t.SetRT60(1.8); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Reverb) Name() string    { return "reverb" }
func (r *Reverb) VoiceCount() int { return 0 }

func (r *Reverb) SetParameter(index int, value float32) bool {
	switch index {
	case ReverbWet:
		v := f64(dsp.Clamp(value, 0, 2))
		_ = r.left.SetWet(v)
		_ = r.right.SetWet(v)
	case ReverbRT60:
		v := f64(dsp.Clamp(value, 0.05, 30))
		_ = r.left.SetRT60(v)
		_ = r.right.SetRT60(v)
	case ReverbDamp:
		v := f64(dsp.Clamp(value, 0, 1))
		_ = r.left.SetDamp(v)
		_ = r.right.SetDamp(v)
	case ReverbDry:
		v := f64(dsp.Clamp(value, 0, 2))
		_ = r.left.SetDry(v)
		_ = r.right.SetDry(v)
	default:
		return false
	}
	return true
}

func (r *Reverb) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = dsp.FlushDenormal(float32(r.left.ProcessSample(float64(buf[i]))))
		buf[i+1] = dsp.FlushDenormal(float32(r.right.ProcessSample(float64(buf[i+1]))))
	}
}

func (r *Reverb) Flush() {
	r.left.Reset()
	r.right.Reset()
}
