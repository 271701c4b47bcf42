package effect

import (
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

// Tilt parameter indices.
const (
	TiltMode = iota
	TiltCutoff
	TiltGain
)

// Tilt is a first-order shelf or tilt equalizer.
type Tilt struct {
	sampleRate float64
	left       *dsp.OnePoleShelf
	right      *dsp.OnePoleShelf

	mode   dsp.ShelfMode
	cutoff float64
	gainDB float64
}

func NewTilt(cfg device.Config) (*Tilt, error) {
	t := &Tilt{
		sampleRate: cfg.SampleRate,
		mode:       dsp.ShelfTilt,
		cutoff:     800,
	}
	t.left = dsp.NewOnePoleShelf(cfg.SampleRate, t.mode, t.cutoff, t.gainDB)
	t.right = dsp.NewOnePoleShelf(cfg.SampleRate, t.mode, t.cutoff, t.gainDB)
	return t, nil
}

func (t *Tilt) Name() string    { return "tilt" }
func (t *Tilt) VoiceCount() int { return 0 }

func (t *Tilt) SetParameter(index int, value float32) bool {
	switch index {
	case TiltMode:
		t.mode = dsp.ShelfMode(device.ClampIndex(value, 3))
	case TiltCutoff:
		t.cutoff = f64(dsp.Clamp(value, 20, float32(0.45*t.sampleRate)))
	case TiltGain:
		t.gainDB = f64(dsp.Clamp(value, -24, 24))
	default:
		return false
	}
	t.left.Set(t.mode, t.cutoff, t.gainDB)
	t.right.Set(t.mode, t.cutoff, t.gainDB)
	return true
}

func (t *Tilt) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = t.left.Process(buf[i])
		buf[i+1] = t.right.Process(buf[i+1])
	}
}

func (t *Tilt) Flush() {
	t.left.Reset()
	t.right.Reset()
}
