// Package realtime is the glue between an audio driver callback and the
// engine: denormal handling, transport control and the non-blocking render
// step.
package realtime

import (
	"github.com/cwbudde/algo-synth/engine"
	"github.com/cwbudde/algo-synth/internal/rtcheck"
	"github.com/cwbudde/algo-synth/protocol"
)

// Transport is the playback state of a Callback.
type Transport uint8

const (
	Rendering Transport = iota
	Paused
)

func (t Transport) String() string {
	if t == Paused {
		return "paused"
	}
	return "rendering"
}

const transportQueueSize = 16

// Callback fills driver buffers from a shared Render. Fill is the only
// method the audio thread calls; SetTransport belongs to the control
// thread.
type Callback struct {
	shared    *engine.Shared
	transport *protocol.Queue[Transport]
	state     Transport

	blocks    uint64
	contended uint64
}

// NewCallback creates a callback in the Rendering state.
func NewCallback(shared *engine.Shared) *Callback {
	return &Callback{
		shared:    shared,
		transport: protocol.NewQueue[Transport](transportQueueSize),
	}
}

// SetTransport asks the audio thread to pause or resume. It never blocks
// and returns protocol.ErrDropped if too many changes are pending.
func (c *Callback) SetTransport(t Transport) error {
	return c.transport.Push(t)
}

// Fill renders len(out)/2 interleaved stereo frames. When paused, or when
// the control thread holds the render lock, out is silenced instead.
func (c *Callback) Fill(out []float32) {
	guard := enterDenormalGuard()
	defer guard.exit()
	trap := rtcheck.Arm()

	for {
		t, ok := c.transport.Pop()
		if !ok {
			break
		}
		c.state = t
	}

	c.blocks++
	if c.state == Paused {
		clear(out)
	} else if !c.shared.TryProcess(out) {
		c.contended++
		clear(out)
	}
	trap.Check("callback")
}

// State returns the transport state seen by the last Fill. Read it only
// from the audio thread or after the driver stopped.
func (c *Callback) State() Transport { return c.state }

// Blocks returns the number of Fill calls and how many of them were
// silenced because the render lock was held elsewhere.
func (c *Callback) Blocks() (total, contended uint64) { return c.blocks, c.contended }
