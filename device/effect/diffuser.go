package effect

import (
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Diffuser parameter indices.
const (
	DiffuserAmount = iota
	DiffuserMix
	DiffuserSize
)

const diffuserMaxSize = 2

// Mutually prime stage lengths in milliseconds at size 1. The right channel
// uses a slightly longer set for decorrelation.
var (
	diffuserLeftMs  = [4]float64{4.771, 3.595, 2.734, 1.987}
	diffuserRightMs = [4]float64{5.019, 3.811, 2.903, 2.111}
)

// Diffuser smears transients through a chain of Schroeder all-pass stages.
type Diffuser struct {
	sampleRate float64
	left       [4]*dsp.DelayLine
	right      [4]*dsp.DelayLine

	amount dsp.Smoothed
	mix    dsp.Smoothed
	size   dsp.Smoothed
}

func NewDiffuser(cfg device.Config) (*Diffuser, error) {
	sr := cfg.SampleRate
	d := &Diffuser{
		sampleRate: sr,
		amount:     dsp.NewSmoothed(0.6, paramSmoothMs, sr),
		mix:        dsp.NewSmoothed(0.5, paramSmoothMs, sr),
		size:       dsp.NewSmoothed(1, 200, sr),
	}
	for k := range d.left {
		d.left[k] = dsp.NewDelayLine(diffuserMaxSize*diffuserLeftMs[k]/1000, sr)
		d.right[k] = dsp.NewDelayLine(diffuserMaxSize*diffuserRightMs[k]/1000, sr)
	}
	return d, nil
}

func (d *Diffuser) Name() string    { return "diffuser" }
func (d *Diffuser) VoiceCount() int { return 0 }

func (d *Diffuser) SetParameter(index int, value float32) bool {
	switch index {
	case DiffuserAmount:
		d.amount.SetTarget(dsp.Clamp(value, 0, 0.9))
	case DiffuserMix:
		d.mix.SetTarget(dsp.Clamp(value, 0, 1))
	case DiffuserSize:
		d.size.SetTarget(dsp.Clamp(value, 0.1, diffuserMaxSize))
	default:
		return false
	}
	return true
}

func (d *Diffuser) Process(buf []float32) {
	msToSamples := float32(d.sampleRate / 1000)
	for i := 0; i+1 < len(buf); i += 2 {
		g := d.amount.Next()
		mix := d.mix.Next()
		scale := d.size.Next() * msToSamples

		xl, xr := buf[i], buf[i+1]
		yl, yr := xl, xr
		for k := range d.left {
			yl = dsp.AllPass(d.left[k], max(float32(diffuserLeftMs[k])*scale, 1), g, yl)
			yr = dsp.AllPass(d.right[k], max(float32(diffuserRightMs[k])*scale, 1), g, yr)
		}
		buf[i] = xl + mix*(yl-xl)
		buf[i+1] = xr + mix*(yr-xr)
	}
}

func (d *Diffuser) Flush() {
	for k := range d.left {
		d.left[k].Reset()
		d.right[k].Reset()
	}
	d.size.SetImmediate(d.size.Target())
}
