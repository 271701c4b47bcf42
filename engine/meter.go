package engine

import (
	"math"
	"time"

	"github.com/cwbudde/algo-approx"
)

const (
	meterAttackMs  = 1
	meterReleaseMs = 300
	cpuSmoothing   = 0.2
)

// Meter is a stereo peak follower updated once per block from the block's
// absolute maximum.
type Meter struct {
	sampleRate  float64
	left, right float32
}

// NewMeter creates a meter at rest.
func NewMeter(sampleRate float64) Meter { return Meter{sampleRate: sampleRate} }

// Update folds one interleaved stereo block into the follower.
func (m *Meter) Update(buf []float32) {
	var pl, pr float32
	for i := 0; i+1 < len(buf); i += 2 {
		pl = max(pl, absf(buf[i]))
		pr = max(pr, absf(buf[i+1]))
	}
	frames := float32(len(buf) / 2)
	attack := blockCoeff(frames, meterAttackMs, m.sampleRate)
	release := blockCoeff(frames, meterReleaseMs, m.sampleRate)
	m.left = follow(m.left, pl, attack, release)
	m.right = follow(m.right, pr, attack, release)
}

// Peak returns the current left and right levels.
func (m *Meter) Peak() (float32, float32) { return m.left, m.right }

// Reset drops the levels to zero.
func (m *Meter) Reset() { m.left, m.right = 0, 0 }

func follow(level, peak, attack, release float32) float32 {
	if peak > level {
		return level + attack*(peak-level)
	}
	return level + release*(peak-level)
}

// blockCoeff is the one-pole coefficient covering frames samples of a
// follower with time constant ms.
func blockCoeff(frames float32, ms, sampleRate float64) float32 {
	n := float32(ms * 0.001 * sampleRate)
	if n <= 0 {
		return 1
	}
	return 1 - approx.FastExp(-frames/n)
}

// cpuMeter estimates processing time over real time per block.
type cpuMeter struct {
	sampleRate float64
	start      time.Time
	load       float32
}

func (c *cpuMeter) begin() { c.start = time.Now() }

// end returns the smoothed load for a block of frames.
func (c *cpuMeter) end(frames int) float32 {
	if frames <= 0 {
		return c.load
	}
	elapsed := time.Since(c.start).Seconds()
	budget := float64(frames) / c.sampleRate
	load := float32(elapsed / budget)
	if math.IsInf(float64(load), 0) || math.IsNaN(float64(load)) {
		return c.load
	}
	c.load += cpuSmoothing * (load - c.load)
	return c.load
}
