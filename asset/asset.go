// Package asset loads samples and impulse responses off the audio thread.
package asset

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-synth/dsp"
)

var (
	// ErrQueueFull is returned by Submit when the request queue is full.
	ErrQueueFull = errors.New("asset request queue full")
	// ErrUnsupported is returned for a request kind the worker cannot load.
	ErrUnsupported = errors.New("unsupported asset kind")
)

// Kind selects what a Request loads.
type Kind uint8

const (
	KindSample Kind = iota + 1
	KindImpulseResponse
)

func (k Kind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindImpulseResponse:
		return "impulse-response"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Request asks the worker for one file. Target identifies the device that
// will adopt the result; it is opaque to the worker.
type Request struct {
	Kind   Kind
	Path   string
	Target uint64
}

// Sample is a decoded stereo recording at the engine sample rate. It is
// immutable once delivered and may be shared between devices.
type Sample struct {
	Path       string
	Left       []float32
	Right      []float32
	SampleRate float64
}

// Len returns the length in frames.
func (s *Sample) Len() int { return len(s.Left) }

// Response carries the result of one Request. Exactly one of Sample,
// Convolver or Err is set.
type Response struct {
	Request   Request
	Sample    *Sample
	Convolver *dsp.Convolver
	Err       error
}
