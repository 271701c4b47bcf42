package engine

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/device/instrument"
)

// ErrOutOfRange is returned by structural operations given an invalid
// channel or effect index.
var ErrOutOfRange = errors.New("index out of range")

// Config holds the engine settings and the initial channel layout.
type Config struct {
	SampleRate float64
	// MaxBlock is the largest chunk rendered at once; longer callbacks are
	// split.
	MaxBlock int

	ControlQueue  int
	FeedbackQueue int

	AssetRequests  int
	AssetResponses int

	PartitionSize int

	Channels []ChannelConfig
}

// ChannelConfig describes one channel.
type ChannelConfig struct {
	Instrument string
	Steal      StealPolicy
	Muted      bool
	Params     map[int]float32
	// Samples are the sampler presets, if the instrument is a sampler.
	Samples []string
	Effects []EffectConfig
}

// EffectConfig describes one effect stage.
type EffectConfig struct {
	Name            string
	Bypass          bool
	Params          map[int]float32
	ImpulseResponse string
}

// NewDefaultConfig returns a 48 kHz engine with one analog channel.
func NewDefaultConfig() Config {
	return Config{
		SampleRate:     48000,
		MaxBlock:       256,
		ControlQueue:   1024,
		FeedbackQueue:  256,
		AssetRequests:  16,
		AssetResponses: 16,
		PartitionSize:  128,
		Channels: []ChannelConfig{
			{Instrument: instrument.Default},
		},
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 384000 {
		return fmt.Errorf("sample rate must be in [8000,384000]: %g", c.SampleRate)
	}
	if c.MaxBlock < 1 || c.MaxBlock > 8192 {
		return fmt.Errorf("max block must be in [1,8192]: %d", c.MaxBlock)
	}
	if c.ControlQueue < 1 || c.FeedbackQueue < 1 {
		return fmt.Errorf("queue capacities must be >= 1")
	}
	if c.AssetRequests < 1 || c.AssetResponses < 1 {
		return fmt.Errorf("asset queue sizes must be >= 1")
	}
	if c.PartitionSize < 16 || c.PartitionSize&(c.PartitionSize-1) != 0 {
		return fmt.Errorf("partition size must be a power of two >= 16: %d", c.PartitionSize)
	}
	for i, ch := range c.Channels {
		if ch.Steal != StealOldest && ch.Steal != StealNearestPitch {
			return fmt.Errorf("channel %d: unknown steal policy %d", i, ch.Steal)
		}
	}
	return nil
}

func (c *Config) deviceConfig() device.Config {
	return device.Config{
		SampleRate:    c.SampleRate,
		MaxBlock:      c.MaxBlock,
		PartitionSize: c.PartitionSize,
	}
}
