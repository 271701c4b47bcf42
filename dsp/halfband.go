package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/window"
)

// HalfbandTaps is the length of the half-band prototype. It has the form
// 4k+3: the centre tap sits on an odd index and every odd-index tap other
// than the centre is zero.
const HalfbandTaps = 31

const halfbandCenter = HalfbandTaps / 2

const halfbandBranchLen = (HalfbandTaps + 1) / 2

// halfbandBranch holds the non-zero even-index taps h[0], h[2], ... h[30].
// The centre tap is exactly 0.5 and is applied as a pure delay.
var halfbandBranch = designHalfband()

func designHalfband() [halfbandBranchLen]float32 {
	var out [halfbandBranchLen]float64
	w := window.Generate(window.TypeBlackman, HalfbandTaps)
	sum := 0.0
	for j := range out {
		n := 2 * j
		x := math.Pi * float64(n-halfbandCenter) / 2
		out[j] = 0.5 * math.Sin(x) / x * w[n]
		sum += out[j]
	}
	// Each polyphase branch must have a DC gain of 0.5.
	var taps [halfbandBranchLen]float32
	for j := range out {
		taps[j] = float32(out[j] * 0.5 / sum)
	}
	return taps
}

// Upsampler2x doubles the sample rate of a stream with a polyphase
// half-band interpolator. One phase is the FIR branch, the other a delay.
type Upsampler2x struct {
	hist [halfbandBranchLen]float32
	pos  int
}

// Up consumes one input sample and returns the two output samples in time
// order, each at the doubled rate.
func (u *Upsampler2x) Up(x float32) (float32, float32) {
	u.pos--
	if u.pos < 0 {
		u.pos = halfbandBranchLen - 1
	}
	u.hist[u.pos] = x
	var acc float32
	for j := 0; j < halfbandBranchLen; j++ {
		acc += halfbandBranch[j] * u.hist[(u.pos+j)%halfbandBranchLen]
	}
	// Centre tap 0.5, times the interpolation gain of 2.
	delayed := u.hist[(u.pos+halfbandCenter/2)%halfbandBranchLen]
	return 2 * acc, delayed
}

// Process upsamples in into out; len(out) must be 2*len(in).
func (u *Upsampler2x) Process(in, out []float32) {
	for i, x := range in {
		out[2*i], out[2*i+1] = u.Up(x)
	}
}

// Reset clears the history.
func (u *Upsampler2x) Reset() { *u = Upsampler2x{} }

// Downsampler2x halves the sample rate with the matching half-band
// decimator.
type Downsampler2x struct {
	late  [halfbandBranchLen]float32
	early [halfbandBranchLen]float32
	pos   int
}

// Down consumes two input samples (a first, then b) and returns one output.
func (d *Downsampler2x) Down(a, b float32) float32 {
	d.pos--
	if d.pos < 0 {
		d.pos = halfbandBranchLen - 1
	}
	d.early[d.pos] = a
	d.late[d.pos] = b
	var acc float32
	for j := 0; j < halfbandBranchLen; j++ {
		acc += halfbandBranch[j] * d.early[(d.pos+j)%halfbandBranchLen]
	}
	// The centre tap lands on the odd sample one pair older than the
	// branch midpoint, which keeps the round-trip latency integral.
	return acc + 0.5*d.late[(d.pos+halfbandCenter/2+1)%halfbandBranchLen]
}

// Process decimates in into out; len(in) must be 2*len(out).
func (d *Downsampler2x) Process(in, out []float32) {
	for i := range out {
		out[i] = d.Down(in[2*i], in[2*i+1])
	}
}

// Reset clears the history.
func (d *Downsampler2x) Reset() { *d = Downsampler2x{} }

// Latency2x returns the group delay of an up/down pair in base-rate samples.
func Latency2x() int { return halfbandCenter }
