package engine

import (
	"github.com/cwbudde/algo-synth/device"
)

type effectSlot struct {
	fx     device.Effect
	id     uint64
	bypass bool
}

// Channel is one instrument with its voice manager, an ordered effect chain
// and a meter. Bypassed effects keep their state.
type Channel struct {
	name    string
	instID  uint64
	voices  *VoiceManager
	effects []effectSlot
	buf     []float32
	meter   Meter
}

// Name returns the instrument name.
func (c *Channel) Name() string { return c.name }

// Voices returns the channel's voice manager.
func (c *Channel) Voices() *VoiceManager { return c.voices }

// Meter returns the channel's peak levels.
func (c *Channel) Meter() (float32, float32) { return c.meter.Peak() }

// EffectCount returns the length of the chain.
func (c *Channel) EffectCount() int { return len(c.effects) }

// Effect returns the effect at index and whether it is bypassed.
func (c *Channel) Effect(index int) (device.Effect, bool, error) {
	if index < 0 || index >= len(c.effects) {
		return nil, false, ErrOutOfRange
	}
	return c.effects[index].fx, c.effects[index].bypass, nil
}

// EffectNames lists the chain in processing order.
func (c *Channel) EffectNames() []string {
	names := make([]string, len(c.effects))
	for i, e := range c.effects {
		names[i] = e.fx.Name()
	}
	return names
}

// device returns device index d: 0 is the instrument, d >= 1 is effect d-1.
func (c *Channel) device(d int) (device.Device, bool) {
	if d == 0 {
		return c.voices.Instrument(), true
	}
	if d < 1 || d > len(c.effects) {
		return nil, false
	}
	return c.effects[d-1].fx, true
}

func (c *Channel) setBypass(d int, bypass bool) bool {
	if d < 1 || d > len(c.effects) {
		return false
	}
	c.effects[d-1].bypass = bypass
	return true
}

func (c *Channel) reorder(from, to int) bool {
	n := len(c.effects)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	e := c.effects[from]
	if from < to {
		copy(c.effects[from:to], c.effects[from+1:to+1])
	} else {
		copy(c.effects[to+1:from+1], c.effects[to:from])
	}
	c.effects[to] = e
	return true
}

// process renders frames into the channel buffer and returns it.
func (c *Channel) process(frames int) []float32 {
	buf := c.buf[:2*frames]
	clear(buf)
	c.voices.Process(buf)
	for i := range c.effects {
		if !c.effects[i].bypass {
			c.effects[i].fx.Process(buf)
		}
	}
	c.meter.Update(buf)
	return buf
}

func (c *Channel) flush() {
	c.voices.Flush()
	for i := range c.effects {
		c.effects[i].fx.Flush()
	}
	c.meter.Reset()
}
