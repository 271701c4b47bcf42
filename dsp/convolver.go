package dsp

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
)

// DefaultPartitionSize is the convolver block length; it is also the
// convolver latency in samples.
const DefaultPartitionSize = 128

// Convolver is a stereo streaming FFT convolver. Input is collected into
// partition-sized blocks so callers may feed any number of samples; no
// allocations happen after construction.
type Convolver struct {
	partSize int
	irLen    int

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	inL, inR   []float32
	outL, outR []float32
	fill       int
}

// NewConvolver prepares a convolver for a stereo impulse response. An empty
// channel becomes a unit impulse.
func NewConvolver(leftIR, rightIR []float32, partSize int) (*Convolver, error) {
	if partSize <= 0 {
		partSize = DefaultPartitionSize
	}
	if len(leftIR) == 0 {
		leftIR = []float32{1.0}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1.0}
	}

	leftOLA, err := dspconv.NewStreamingOverlapAdd32(leftIR, partSize)
	if err != nil {
		return nil, fmt.Errorf("left ir convolver: %w", err)
	}
	rightOLA, err := dspconv.NewStreamingOverlapAdd32(rightIR, partSize)
	if err != nil {
		return nil, fmt.Errorf("right ir convolver: %w", err)
	}

	c := &Convolver{
		partSize: partSize,
		irLen:    max(len(leftIR), len(rightIR)),
		leftOLA:  leftOLA,
		rightOLA: rightOLA,
		inL:      make([]float32, partSize),
		inR:      make([]float32, partSize),
		outL:     make([]float32, partSize),
		outR:     make([]float32, partSize),
	}
	return c, nil
}

// Len returns the longer impulse response length.
func (c *Convolver) Len() int { return c.irLen }

// Latency returns the delay introduced by block collection.
func (c *Convolver) Latency() int { return c.partSize }

// ProcessSample feeds one stereo frame and returns the convolved frame
// from one partition earlier.
func (c *Convolver) ProcessSample(l, r float32) (float32, float32) {
	yl, yr := c.outL[c.fill], c.outR[c.fill]
	c.inL[c.fill] = l
	c.inR[c.fill] = r
	c.fill++
	if c.fill == c.partSize {
		c.fill = 0
		errL := c.leftOLA.ProcessBlockTo(c.outL, c.inL)
		errR := c.rightOLA.ProcessBlockTo(c.outR, c.inR)
		if errL != nil || errR != nil {
			// Pass the block through unchanged.
			copy(c.outL, c.inL)
			copy(c.outR, c.inR)
		}
	}
	return yl, yr
}

// Reset clears convolver history and the partition FIFOs.
func (c *Convolver) Reset() {
	c.leftOLA.Reset()
	c.rightOLA.Reset()
	clear(c.inL)
	clear(c.inR)
	clear(c.outL)
	clear(c.outR)
	c.fill = 0
}
