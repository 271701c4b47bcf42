package instrument

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp"
)

// pianoHammer is a nonlinear felt-hammer contact model with bounded
// contact duration. It is a value type so a voice can restrike it without
// allocating.
type pianoHammer struct {
	sampleRate float32
	mass       float32
	stiffness  float32
	exponent   float32
	damping    float32

	contactMaxSamples int
	contactMinSamples int
	contactSamples    int
	inContact         bool

	pos float32
	vel float32
}

// strike resets the hammer for a new note. velocity is in [0,1]; hardness
// scales the felt stiffness around its nominal value.
func (h *pianoHammer) strike(sampleRate float32, velocity, hardness float32) {
	v := dsp.Clamp(velocity, 1.0/127, 1)
	hardness = dsp.Clamp(hardness, 0.5, 1.2)
	stiffness := float32(1.1e6) * (0.5 + 2.5*v)
	*h = pianoHammer{
		sampleRate:        sampleRate,
		mass:              0.010,
		stiffness:         stiffness * hardness,
		exponent:          2.3 * (0.90 + 0.10*hardness),
		damping:           0.10 + 0.20*v,
		contactMaxSamples: int(sampleRate * (0.0040 - 0.0030*v)),
		contactMinSamples: int(sampleRate * 0.00025),
		inContact:         true,
		pos:               0.00012,
		vel:               0.6 + 3.0*v,
	}
}

// step advances the contact model and returns the contact force.
func (h *pianoHammer) step(stringDisp float32) float32 {
	if !h.inContact {
		return 0
	}
	dt := 1 / h.sampleRate
	indentation := h.pos - stringDisp

	var force float32
	if indentation > 0 {
		indPow := float32(math.Pow(float64(indentation), float64(h.exponent)))
		force = h.stiffness * indPow * (1 + h.damping*max(h.vel, 0))
	}
	if !dsp.IsFinite(force) {
		h.inContact = false
		return 0
	}

	h.vel += -force / h.mass * dt
	h.pos += h.vel * dt

	h.contactSamples++
	if h.contactSamples >= h.contactMaxSamples {
		h.inContact = false
	}
	if h.contactSamples > h.contactMinSamples && indentation <= 0 && h.vel <= 0 {
		h.inContact = false
	}
	return force
}
