package dsp

import (
	"math"
	"testing"
)

func fillDelay(d *DelayLine, n int) []float32 {
	pushed := make([]float32, n)
	for k := 0; k < n; k++ {
		x := float32(math.Sin(0.37*float64(k)) + 0.01*float64(k))
		pushed[k] = x
		d.Push(x)
	}
	return pushed
}

func TestDelayLineAtReturnsPushedHistory(t *testing.T) {
	d := NewDelayLineSamples(32)
	pushed := fillDelay(d, 100)
	for lag := 1; lag <= 32; lag++ {
		want := pushed[len(pushed)-lag]
		if got := d.At(lag); got != want {
			t.Errorf("lag %d: expected %g, got %g", lag, want, got)
		}
	}
}

func TestDelayLineIntegerReadsAreExact(t *testing.T) {
	d := NewDelayLineSamples(64)
	fillDelay(d, 200)
	for lag := 2; lag <= 60; lag++ {
		want := d.At(lag)
		if got := d.ReadNearest(float32(lag)); got != want {
			t.Errorf("nearest lag %d: expected %g, got %g", lag, want, got)
		}
		if got := d.ReadLinear(float32(lag)); got != want {
			t.Errorf("linear lag %d: expected %g, got %g", lag, want, got)
		}
		if got := d.ReadCubic(float32(lag)); math.Abs(float64(got-want)) > 1e-6 {
			t.Errorf("cubic lag %d: expected %g, got %g", lag, want, got)
		}
	}
}

// The cubic through four neighbours must pass through all of them.
func TestLagrangeHitsSupportPoints(t *testing.T) {
	xm1, x0, x1, x2 := float32(0.3), float32(-0.7), float32(1.1), float32(0.25)
	cases := []struct {
		t    float32
		want float32
	}{{-1, xm1}, {0, x0}, {1, x1}, {2, x2}}
	for _, c := range cases {
		if got := lagrange3(xm1, x0, x1, x2, c.t); math.Abs(float64(got-c.want)) > 1e-5 {
			t.Errorf("t=%g: expected %g, got %g", c.t, c.want, got)
		}
	}
}

func TestDelayLineCubicContinuousAcrossIntegers(t *testing.T) {
	d := NewDelayLineSamples(64)
	fillDelay(d, 200)
	for lag := 3; lag < 60; lag++ {
		at := d.ReadCubic(float32(lag))
		below := d.ReadCubic(float32(lag) - 1e-3)
		above := d.ReadCubic(float32(lag) + 1e-3)
		if math.Abs(float64(at-below)) > 5e-3 || math.Abs(float64(at-above)) > 5e-3 {
			t.Errorf("lag %d: discontinuity below=%g at=%g above=%g", lag, below, at, above)
		}
	}
}

func TestDelayLineClampsOutOfRange(t *testing.T) {
	d := NewDelayLineSamples(16)
	fillDelay(d, 40)
	if got, want := d.ReadLinear(1000), d.At(16); got != want {
		t.Errorf("expected delay clamped to max (%g), got %g", want, got)
	}
	if got, want := d.ReadLinear(-3), d.At(1); got != want {
		t.Errorf("expected delay clamped to 1 (%g), got %g", want, got)
	}
}

func TestDelayLineReadThenPushDelaysExactly(t *testing.T) {
	const delay = 7
	d := NewDelayLineSamples(16)
	out := make([]float32, 20)
	for n := range out {
		var x float32
		if n == 0 {
			x = 1
		}
		out[n] = d.ReadLinear(delay)
		d.Push(x)
	}
	for n, v := range out {
		want := float32(0)
		if n == delay {
			want = 1
		}
		if v != want {
			t.Errorf("sample %d: expected %g, got %g", n, want, v)
		}
	}
}

func TestAllPassPreservesEnergy(t *testing.T) {
	line := NewDelayLineSamples(16)
	energy := 0.0
	for n := 0; n < 4000; n++ {
		var x float32
		if n == 0 {
			x = 1
		}
		y := AllPass(line, 7, 0.5, x)
		energy += float64(y) * float64(y)
	}
	if math.Abs(energy-1) > 1e-3 {
		t.Errorf("expected unit impulse energy, got %g", energy)
	}
}
