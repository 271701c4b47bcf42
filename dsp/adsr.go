package dsp

import "math"

// EnvPhase is the current stage of an ADSR.
type EnvPhase int

const (
	EnvIdle EnvPhase = iota
	EnvAttack
	EnvDecaySustain
	EnvRelease
)

// envFloor is the level below which a releasing envelope goes idle (-100 dB).
const envFloor = 1e-5

// ADSR is a linear-attack, exponential decay/release envelope.
type ADSR struct {
	sampleRate float64

	attackMs  float64
	decayMs   float64
	sustain   float32
	releaseMs float64

	attackSamples float32
	decayCoeff    float32
	releaseRatio  float32

	phase    EnvPhase
	level    float32
	peak     float32
	step     float32
	velocity float32
}

// NewADSR creates an idle envelope.
func NewADSR(sampleRate float64, attackMs, decayMs float64, sustain float32, releaseMs float64) ADSR {
	e := ADSR{sampleRate: sampleRate}
	e.Set(attackMs, decayMs, sustain, releaseMs)
	return e
}

// Set updates all four stage parameters.
func (e *ADSR) Set(attackMs, decayMs float64, sustain float32, releaseMs float64) {
	e.attackMs = attackMs
	e.decayMs = decayMs
	e.sustain = Clamp(sustain, 0, 1)
	e.releaseMs = releaseMs

	e.attackSamples = float32(math.Max(1, MsToSamples(attackMs, e.sampleRate)))
	e.decayCoeff = SmoothingCoefficient(decayMs/5, e.sampleRate)
	rel := math.Max(1, MsToSamples(releaseMs, e.sampleRate))
	e.releaseRatio = float32(math.Pow(envFloor, 1/rel))
	if e.phase == EnvAttack {
		e.step = e.peak / e.attackSamples
	}
}

// SetAttack changes only the attack time.
func (e *ADSR) SetAttack(ms float64) { e.Set(ms, e.decayMs, e.sustain, e.releaseMs) }

// SetDecay changes only the decay time.
func (e *ADSR) SetDecay(ms float64) { e.Set(e.attackMs, ms, e.sustain, e.releaseMs) }

// SetSustain changes only the sustain level.
func (e *ADSR) SetSustain(level float32) { e.Set(e.attackMs, e.decayMs, level, e.releaseMs) }

// SetRelease changes only the release time.
func (e *ADSR) SetRelease(ms float64) { e.Set(e.attackMs, e.decayMs, e.sustain, ms) }

// NoteOn enters Attack toward velocity. The step scales with velocity so the
// attack always takes the same time.
func (e *ADSR) NoteOn(velocity float32) {
	e.velocity = Clamp(velocity, 0, 1)
	e.peak = e.velocity
	e.step = (e.peak - e.level) / e.attackSamples
	if e.step <= 0 {
		e.step = e.peak / e.attackSamples
	}
	e.phase = EnvAttack
}

// NoteOff enters Release from the current level.
func (e *ADSR) NoteOff() {
	if e.phase != EnvIdle {
		e.phase = EnvRelease
	}
}

// Next advances one sample.
func (e *ADSR) Next() float32 {
	switch e.phase {
	case EnvAttack:
		e.level += e.step
		if e.level >= e.peak {
			e.level = e.peak
			e.phase = EnvDecaySustain
		}
	case EnvDecaySustain:
		e.level += e.decayCoeff * (e.sustain*e.velocity - e.level)
	case EnvRelease:
		e.level *= e.releaseRatio
		if e.level < envFloor {
			e.level = 0
			e.phase = EnvIdle
		}
	}
	return e.level
}

// Phase returns the current stage.
func (e *ADSR) Phase() EnvPhase { return e.phase }

// Level returns the current output without advancing.
func (e *ADSR) Level() float32 { return e.level }

// Active reports whether the envelope is producing output.
func (e *ADSR) Active() bool { return e.phase != EnvIdle }

// Reset forces the envelope idle.
func (e *ADSR) Reset() {
	e.phase = EnvIdle
	e.level = 0
}
