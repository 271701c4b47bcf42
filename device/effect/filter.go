package effect

import (
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Filter parameter indices.
const (
	FilterMode = iota
	FilterCutoff
	FilterQ
	FilterGain
)

// Filter is a stereo state-variable filter. Cutoff is smoothed and the
// coefficients follow it at control rate.
type Filter struct {
	sampleRate float64
	left       dsp.SVF
	right      dsp.SVF

	mode   dsp.FilterMode
	cutoff dsp.Smoothed
	q      float64
	gainDB float64
	tick   int
}

func NewFilter(cfg device.Config) (*Filter, error) {
	f := &Filter{
		sampleRate: cfg.SampleRate,
		mode:       dsp.LowPass,
		cutoff:     dsp.NewSmoothed(1000, paramSmoothMs, cfg.SampleRate),
		q:          0.707,
	}
	f.left.Init(cfg.SampleRate, f.mode, 1000, f.q, 0)
	f.right.Init(cfg.SampleRate, f.mode, 1000, f.q, 0)
	return f, nil
}

func (f *Filter) Name() string    { return "filter" }
func (f *Filter) VoiceCount() int { return 0 }

func (f *Filter) SetParameter(index int, value float32) bool {
	switch index {
	case FilterMode:
		f.mode = dsp.ParseFilterMode(value)
	case FilterCutoff:
		f.cutoff.SetTarget(dsp.Clamp(value, 20, float32(0.45*f.sampleRate)))
	case FilterQ:
		f.q = f64(dsp.Clamp(value, 0.1, 40))
	case FilterGain:
		f.gainDB = f64(dsp.Clamp(value, -36, 36))
	default:
		return false
	}
	// Force a coefficient update on the next frame.
	f.tick = 0
	return true
}

func (f *Filter) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		fc := f.cutoff.Next()
		if f.tick == 0 {
			f.left.Set(f.mode, f64(fc), f.q, f.gainDB)
			f.right.Set(f.mode, f64(fc), f.q, f.gainDB)
		}
		if f.tick++; f.tick == controlInterval {
			f.tick = 0
		}
		buf[i] = f.left.Process(buf[i])
		buf[i+1] = f.right.Process(buf[i+1])
	}
}

func (f *Filter) Flush() {
	f.left.Reset()
	f.right.Reset()
	f.cutoff.SetImmediate(f.cutoff.Target())
	f.tick = 0
}
