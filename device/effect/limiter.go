package effect

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Limiter parameter indices.
const (
	LimiterThreshold = iota
	LimiterRelease
)

// Limiter is a fast peak limiter per channel.
type Limiter struct {
	left  *dynamics.Limiter
	right *dynamics.Limiter
}

func NewLimiter(cfg device.Config) (*Limiter, error) {
	l := &Limiter{}
	var err error
	if l.left, err = dynamics.NewLimiter(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("limiter left: %w", err)
	}
	if l.right, err = dynamics.NewLimiter(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("limiter right: %w", err)
	}
	for _, ch := range [2]*dynamics.Limiter{l.left, l.right} {
		if err := ch.SetThreshold(-1); err != nil {
			return nil, err
		}
		if err := ch.SetRelease(80); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Limiter) Name() string    { return "limiter" }
func (l *Limiter) VoiceCount() int { return 0 }

func (l *Limiter) SetParameter(index int, value float32) bool {
	switch index {
	case LimiterThreshold:
		v := f64(dsp.Clamp(value, -40, 0))
		_ = l.left.SetThreshold(v)
		_ = l.right.SetThreshold(v)
	case LimiterRelease:
		v := f64(dsp.Clamp(value, 1, 5000))
		_ = l.left.SetRelease(v)
		_ = l.right.SetRelease(v)
	default:
		return false
	}
	return true
}

func (l *Limiter) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = float32(l.left.ProcessSample(float64(buf[i])))
		buf[i+1] = float32(l.right.ProcessSample(float64(buf[i+1])))
	}
}

func (l *Limiter) Flush() {
	l.left.Reset()
	l.right.Reset()
}
