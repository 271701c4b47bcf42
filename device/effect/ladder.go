package effect

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/filter/moog"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Ladder parameter indices.
const (
	LadderCutoff = iota
	LadderResonance
	LadderDrive
)

// Ladder is a nonlinear four-pole Moog ladder low-pass.
type Ladder struct {
	sampleRate float64
	filter     *moog.Stereo
	cutoff     dsp.Smoothed
	tick       int
}

func NewLadder(cfg device.Config) (*Ladder, error) {
	f, err := moog.NewStereo(cfg.SampleRate,
		moog.WithCutoffHz(1200),
		moog.WithResonance(1),
		moog.WithDrive(1),
	)
	if err != nil {
		return nil, fmt.Errorf("ladder: %w", err)
	}
	return &Ladder{
		sampleRate: cfg.SampleRate,
		filter:     f,
		cutoff:     dsp.NewSmoothed(1200, paramSmoothMs, cfg.SampleRate),
	}, nil
}

func (l *Ladder) Name() string    { return "ladder" }
func (l *Ladder) VoiceCount() int { return 0 }

func (l *Ladder) SetParameter(index int, value float32) bool {
	switch index {
	case LadderCutoff:
		l.cutoff.SetTarget(dsp.Clamp(value, 20, float32(0.45*l.sampleRate)))
	case LadderResonance:
		v := f64(dsp.Clamp(value, 0, 4))
		_ = l.filter.Left().SetResonance(v)
		_ = l.filter.Right().SetResonance(v)
	case LadderDrive:
		v := f64(dsp.Clamp(value, 0.1, 24))
		_ = l.filter.Left().SetDrive(v)
		_ = l.filter.Right().SetDrive(v)
	default:
		return false
	}
	return true
}

func (l *Ladder) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		fc := l.cutoff.Next()
		if l.tick == 0 && f64(fc) != l.filter.Left().CutoffHz() {
			_ = l.filter.Left().SetCutoffHz(f64(fc))
			_ = l.filter.Right().SetCutoffHz(f64(fc))
		}
		if l.tick++; l.tick == controlInterval {
			l.tick = 0
		}
		yl, yr := l.filter.ProcessSample(float64(buf[i]), float64(buf[i+1]))
		buf[i] = dsp.FlushDenormal(float32(yl))
		buf[i+1] = dsp.FlushDenormal(float32(yr))
	}
}

func (l *Ladder) Flush() {
	l.filter.Reset()
	l.cutoff.SetImmediate(l.cutoff.Target())
	l.tick = 0
}
