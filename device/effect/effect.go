// Package effect holds the processors a channel can chain after its
// instrument. Every effect works in place on interleaved stereo and never
// allocates once constructed.
package effect

const (
	paramSmoothMs = 20
	// controlInterval is the number of frames between coefficient updates
	// for parameters that are expensive to recompute.
	controlInterval = 16
)

func f64(v float32) float64 { return float64(v) }
