// Package device defines the contracts shared by every instrument and
// effect the render graph can host.
package device

import (
	"errors"

	"github.com/cwbudde/algo-synth/asset"
)

// ErrUnknown is returned when a device name is not registered.
var ErrUnknown = errors.New("unknown device")

// Config carries the engine settings a device is built for.
type Config struct {
	SampleRate float64
	// MaxBlock is the largest number of frames passed to Process.
	MaxBlock int
	// PartitionSize is the convolver block length.
	PartitionSize int
	// Samples lists the sample files a sampler can switch between.
	Samples []string
	// ImpulseResponse is an optional IR file for the convolver.
	ImpulseResponse string
}

// Device is the part of the contract common to instruments and effects.
//
// Process works on interleaved stereo. Instruments add their output to
// buf; effects transform buf in place. Process must not allocate.
type Device interface {
	Name() string
	// SetParameter sets parameter index to value and reports whether the
	// index exists. Values are clamped to the parameter range.
	SetParameter(index int, value float32) bool
	Process(buf []float32)
	// Flush silences the device and clears its internal state.
	Flush()
	// VoiceCount is the polyphony of an instrument and 0 for effects.
	VoiceCount() int
}

// Instrument generates sound for VoiceCount voice slots. The caller owns
// voice allocation; the instrument only renders the slot it is told to.
type Instrument interface {
	Device
	NoteOn(slot int, pitch, velocity float32)
	NoteOff(slot int)
	// SetPitch retunes a sounding slot to an absolute fractional pitch.
	SetPitch(slot int, pitch float32)
	SetPressure(slot int, value float32)
	// VoiceActive reports whether the slot still produces sound.
	VoiceActive(slot int) bool
}

// Effect processes the channel signal in place.
type Effect interface {
	Device
}

// AssetConsumer is implemented by devices that need files loaded by the
// asset worker.
type AssetConsumer interface {
	// AssetRequest returns the pending request, if any. Target is filled
	// in by the caller.
	AssetRequest() (asset.Request, bool)
	// Adopt installs a response and may return a follow-up request.
	Adopt(resp asset.Response) (asset.Request, bool)
}

// ClampIndex maps a float parameter onto an integer choice in [0, n).
func ClampIndex(v float32, n int) int {
	i := int(v + 0.5)
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
