package dsp

import "math"

// Interpolation selects the look-back quality of a DelayLine read.
type Interpolation int

const (
	InterpNearest Interpolation = iota
	InterpLinear
	InterpCubic
)

// delayGuard is the number of extra samples kept for interpolation taps.
const delayGuard = 4

// DelayLine is a circular buffer with fractional look-back.
//
// Read(d) returns x[n-d] where x[n] is the sample the next Push will store,
// so d = 1 is the most recently pushed sample and read-then-push yields a
// delay of exactly d samples.
type DelayLine struct {
	buffer   []float32
	writePos int
	maxDelay float32
}

// NewDelayLine sizes a delay line for maxSeconds at sampleRate.
func NewDelayLine(maxSeconds, sampleRate float64) *DelayLine {
	n := int(math.Ceil(maxSeconds * sampleRate))
	return NewDelayLineSamples(n)
}

// NewDelayLineSamples sizes a delay line for a maximum delay in samples.
func NewDelayLineSamples(maxDelay int) *DelayLine {
	if maxDelay < 2 {
		maxDelay = 2
	}
	return &DelayLine{
		buffer:   make([]float32, maxDelay+delayGuard),
		maxDelay: float32(maxDelay),
	}
}

// MaxDelay returns the longest supported delay in samples.
func (d *DelayLine) MaxDelay() float32 { return d.maxDelay }

// Push stores one sample and advances the write cursor.
func (d *DelayLine) Push(x float32) {
	d.buffer[d.writePos] = x
	d.writePos++
	if d.writePos == len(d.buffer) {
		d.writePos = 0
	}
}

// At returns the sample pushed lag pushes ago (lag >= 1).
func (d *DelayLine) At(lag int) float32 {
	n := len(d.buffer)
	i := d.writePos - lag
	for i < 0 {
		i += n
	}
	return d.buffer[i]
}

// AddAt adds x to the sample pushed lag pushes ago. It is used to inject
// energy part-way along a waveguide.
func (d *DelayLine) AddAt(lag int, x float32) {
	n := len(d.buffer)
	i := d.writePos - lag
	for i < 0 {
		i += n
	}
	d.buffer[i] += x
}

// Read looks back delay samples with the given interpolation quality.
func (d *DelayLine) Read(delay float32, q Interpolation) float32 {
	switch q {
	case InterpNearest:
		return d.ReadNearest(delay)
	case InterpLinear:
		return d.ReadLinear(delay)
	default:
		return d.ReadCubic(delay)
	}
}

// ReadNearest truncates the delay to whole samples.
func (d *DelayLine) ReadNearest(delay float32) float32 {
	delay = Clamp(delay, 1, d.maxDelay)
	return d.At(int(delay))
}

// ReadLinear interpolates between the two neighbouring samples.
func (d *DelayLine) ReadLinear(delay float32) float32 {
	delay = Clamp(delay, 1, d.maxDelay)
	i := int(delay)
	frac := delay - float32(i)
	a := d.At(i)
	b := d.At(i + 1)
	return a + frac*(b-a)
}

// ReadCubic uses 4-point Lagrange interpolation over lags i-1..i+2.
// Delays below 2 samples are clamped since lag 0 is not yet written.
func (d *DelayLine) ReadCubic(delay float32) float32 {
	delay = Clamp(delay, 2, d.maxDelay)
	i := int(delay)
	frac := delay - float32(i)
	return lagrange3(d.At(i-1), d.At(i), d.At(i+1), d.At(i+2), frac)
}

// Reset clears the buffer.
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// lagrange3 evaluates the cubic through (-1,xm1), (0,x0), (1,x1), (2,x2) at t.
func lagrange3(xm1, x0, x1, x2, t float32) float32 {
	c0 := x0
	c1 := x1 - xm1/3.0 - x0/2.0 - x2/6.0
	c2 := xm1/2.0 - x0 + x1/2.0
	c3 := x0/2.0 - x1/2.0 + (x2-xm1)/6.0
	return c0 + t*(c1+t*(c2+t*c3))
}

// AllPass runs one Schroeder all-pass section on line: the transfer function
// is (z^-D - g) / (1 - g z^-D) with D = delay samples.
func AllPass(line *DelayLine, delay, g, x float32) float32 {
	delayed := line.ReadLinear(delay)
	w := x + g*delayed
	line.Push(FlushDenormal(w))
	return delayed - g*w
}
