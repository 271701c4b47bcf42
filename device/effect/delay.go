package effect

import (
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Delay parameter indices.
const (
	DelayTime = iota
	DelayFeedback
	DelayMix
	DelayInterpolation
)

// delayMaxSeconds bounds the delay time; the lines are allocated for it up
// front.
const delayMaxSeconds = 2.0

// Delay is a stereo feedback delay with a smoothed, fractional time.
type Delay struct {
	sampleRate float64
	left       *dsp.DelayLine
	right      *dsp.DelayLine

	time     dsp.Smoothed // samples
	feedback dsp.Smoothed
	mix      dsp.Smoothed
	interp   dsp.Interpolation
}

func NewDelay(cfg device.Config) (*Delay, error) {
	sr := cfg.SampleRate
	d := &Delay{
		sampleRate: sr,
		left:       dsp.NewDelayLine(delayMaxSeconds, sr),
		right:      dsp.NewDelayLine(delayMaxSeconds, sr),
		time:       dsp.NewSmoothed(float32(dsp.MsToSamples(350, sr)), 100, sr),
		feedback:   dsp.NewSmoothed(0.35, paramSmoothMs, sr),
		mix:        dsp.NewSmoothed(0.3, paramSmoothMs, sr),
		interp:     dsp.InterpCubic,
	}
	return d, nil
}

func (d *Delay) Name() string    { return "delay" }
func (d *Delay) VoiceCount() int { return 0 }

func (d *Delay) SetParameter(index int, value float32) bool {
	switch index {
	case DelayTime:
		ms := dsp.Clamp(value, 1, delayMaxSeconds*1000)
		d.time.SetTarget(dsp.Clamp(float32(dsp.MsToSamples(f64(ms), d.sampleRate)), 2, d.left.MaxDelay()))
	case DelayFeedback:
		d.feedback.SetTarget(dsp.Clamp(value, 0, 0.98))
	case DelayMix:
		d.mix.SetTarget(dsp.Clamp(value, 0, 1))
	case DelayInterpolation:
		d.interp = dsp.Interpolation(device.ClampIndex(value, 3))
	default:
		return false
	}
	return true
}

func (d *Delay) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		t := d.time.Next()
		fb := d.feedback.Next()
		mix := d.mix.Next()

		xl, xr := buf[i], buf[i+1]
		yl := d.left.Read(t, d.interp)
		yr := d.right.Read(t, d.interp)
		d.left.Push(dsp.FlushDenormal(xl + fb*yl))
		d.right.Push(dsp.FlushDenormal(xr + fb*yr))
		buf[i] = xl + mix*(yl-xl)
		buf[i+1] = xr + mix*(yr-xr)
	}
}

func (d *Delay) Flush() {
	d.left.Reset()
	d.right.Reset()
	d.time.SetImmediate(d.time.Target())
}
