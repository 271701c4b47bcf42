package effect

import (
	"fmt"

	"github.com/cwbudde/algo-synth/asset"
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/irsynth"
)

// Convolver parameter indices.
const (
	ConvolverMix = iota
	ConvolverGain
)

// Convolver applies a stereo impulse response. It starts on a generated
// small room and switches to the file IR once the asset worker has
// prepared it.
type Convolver struct {
	conv *dsp.Convolver
	path string
	// pending is set until the file IR has been requested.
	pending bool
	loaded  bool

	mix  dsp.Smoothed
	gain dsp.Smoothed
}

func NewConvolver(cfg device.Config) (*Convolver, error) {
	l, r, err := irsynth.GenerateRoom(irsynth.SmallRoomConfig(int(cfg.SampleRate)))
	if err != nil {
		return nil, fmt.Errorf("convolver default ir: %w", err)
	}
	conv, err := dsp.NewConvolver(l, r, cfg.PartitionSize)
	if err != nil {
		return nil, fmt.Errorf("convolver: %w", err)
	}
	return &Convolver{
		conv:    conv,
		path:    cfg.ImpulseResponse,
		pending: cfg.ImpulseResponse != "",
		mix:     dsp.NewSmoothed(0.3, paramSmoothMs, cfg.SampleRate),
		gain:    dsp.NewSmoothed(1, paramSmoothMs, cfg.SampleRate),
	}, nil
}

func (c *Convolver) Name() string    { return "convolver" }
func (c *Convolver) VoiceCount() int { return 0 }

// Loaded reports whether the file IR replaced the generated one.
func (c *Convolver) Loaded() bool { return c.loaded }

// Latency returns the delay of the wet path in samples.
func (c *Convolver) Latency() int { return c.conv.Latency() }

func (c *Convolver) SetParameter(index int, value float32) bool {
	switch index {
	case ConvolverMix:
		c.mix.SetTarget(dsp.Clamp(value, 0, 1))
	case ConvolverGain:
		c.gain.SetTarget(dsp.Clamp(value, 0, 4))
	default:
		return false
	}
	return true
}

func (c *Convolver) AssetRequest() (asset.Request, bool) {
	if !c.pending {
		return asset.Request{}, false
	}
	c.pending = false
	return asset.Request{Kind: asset.KindImpulseResponse, Path: c.path}, true
}

func (c *Convolver) Adopt(resp asset.Response) (asset.Request, bool) {
	if resp.Err != nil || resp.Convolver == nil {
		return asset.Request{}, false
	}
	c.conv = resp.Convolver
	c.conv.Reset()
	c.loaded = true
	return asset.Request{}, false
}

func (c *Convolver) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		mix := c.mix.Next()
		gain := c.gain.Next()
		xl, xr := buf[i], buf[i+1]
		yl, yr := c.conv.ProcessSample(xl, xr)
		buf[i] = gain * (xl + mix*(yl-xl))
		buf[i+1] = gain * (xr + mix*(yr-xr))
	}
}

func (c *Convolver) Flush() { c.conv.Reset() }
