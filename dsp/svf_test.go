package dsp

import (
	"fmt"
	"math"
	"testing"
)

// Impulse response of a 6 kHz, Q=0.707 low-pass at 48 kHz, computed in
// double precision from the trapezoidal SVF recurrence.
var svfLowpassReference = []float64{
	0.097626158, 0.287290507, 0.335937110, 0.220964382,
	0.096360242, 0.017204771, -0.015893615, -0.020717659,
	-0.014235008, -0.006515723, -0.001398726, 0.000852805,
	0.001270140, 0.000913228, 0.000437662, 0.000108262,
}

func TestSVFLowpassImpulseMatchesReference(t *testing.T) {
	f := NewSVF(48000, LowPass, 6000, 0.707, 0)
	for n, want := range svfLowpassReference {
		var x float32
		if n == 0 {
			x = 1
		}
		got := f.Process(x)
		if math.Abs(float64(got)-want) > 1e-5 {
			t.Errorf("sample %d: expected %.9f, got %.9f", n, want, got)
		}
	}
}

// The trapezoidal SVF and the RBJ biquad are both bilinear transforms of the
// same analog prototype, so their outputs must agree.
func TestSVFAgreesWithBiquad(t *testing.T) {
	for _, mode := range []FilterMode{LowPass, HighPass} {
		t.Run(fmt.Sprintf("mode %d", mode), func(t *testing.T) {
			svf := NewSVF(48000, mode, 1200, 0.9, 0)
			bq := NewLowpass(1200, 48000, 0.9)
			if mode == HighPass {
				bq = NewHighpass(1200, 48000, 0.9)
			}
			in := sineBlock(512, 3100, 48000)
			in[0] += 1
			for n, x := range in {
				a := svf.Process(x)
				b := bq.Process(x)
				if math.Abs(float64(a-b)) > 1e-4 {
					t.Fatalf("sample %d: svf %g, biquad %g", n, a, b)
				}
			}
		})
	}
}

func TestSVFDCResponse(t *testing.T) {
	cases := []struct {
		mode FilterMode
		want float32
	}{
		{LowPass, 1},
		{HighPass, 0},
		{BandPass, 0},
		{Notch, 1},
		{AllPassMode, 1},
	}
	for _, c := range cases {
		f := NewSVF(48000, c.mode, 1000, 0.707, 0)
		var y float32
		for i := 0; i < 20000; i++ {
			y = f.Process(1)
		}
		if math.Abs(float64(y-c.want)) > 1e-3 {
			t.Errorf("mode %d: expected DC gain %g, got %g", c.mode, c.want, y)
		}
	}
}

func TestSVFShelfDCGain(t *testing.T) {
	f := NewSVF(48000, LowShelf, 500, 0.707, 6)
	var y float32
	for i := 0; i < 20000; i++ {
		y = f.Process(1)
	}
	want := math.Pow(10, 6.0/20)
	if math.Abs(float64(y)-want) > 1e-2 {
		t.Errorf("expected low shelf DC gain %g, got %g", want, y)
	}
}

func TestSVFBellAtZeroGainIsIdentity(t *testing.T) {
	f := NewSVF(48000, Bell, 1000, 2, 0)
	in := sineBlock(256, 900, 48000)
	for n, x := range in {
		if y := f.Process(x); math.Abs(float64(y-x)) > 1e-6 {
			t.Fatalf("sample %d: expected %g, got %g", n, x, y)
		}
	}
}

func TestParseFilterModeClamps(t *testing.T) {
	if m := ParseFilterMode(-3); m != LowPass {
		t.Errorf("expected LowPass, got %d", m)
	}
	if m := ParseFilterMode(99); m != Tilt {
		t.Errorf("expected Tilt, got %d", m)
	}
	if m := ParseFilterMode(2.2); m != BandPass {
		t.Errorf("expected BandPass, got %d", m)
	}
}

func TestOnePoleShelf(t *testing.T) {
	flat := NewOnePoleShelf(48000, ShelfTilt, 800, 0)
	for n, x := range sineBlock(256, 2000, 48000) {
		if y := flat.Process(x); math.Abs(float64(y-x)) > 1e-6 {
			t.Fatalf("flat tilt sample %d: expected %g, got %g", n, x, y)
		}
	}

	low := NewOnePoleShelf(48000, ShelfLow, 800, 6)
	var y float32
	for i := 0; i < 20000; i++ {
		y = low.Process(1)
	}
	want := math.Pow(10, 6.0/20)
	if math.Abs(float64(y)-want) > 1e-3 {
		t.Errorf("expected low shelf DC gain %g, got %g", want, y)
	}
}

func TestBiquadRetuneKeepsState(t *testing.T) {
	bq := NewLowpass(500, 48000, 0.707)
	for range 64 {
		bq.Process(1)
	}
	y1 := bq.y1
	bq.SetLowpass(4000, 48000, 0.707)
	if bq.y1 != y1 {
		t.Fatalf("state after retune: got=%g want=%g", bq.y1, y1)
	}
	want := NewLowpass(4000, 48000, 0.707)
	if bq.b0 != want.b0 || bq.a1 != want.a1 || bq.a2 != want.a2 {
		t.Fatalf("coefficients: got=(%g,%g,%g) want=(%g,%g,%g)", bq.b0, bq.a1, bq.a2, want.b0, want.a1, want.a2)
	}
	allocs := testing.AllocsPerRun(10, func() { bq.SetLowpass(3000, 48000, 0.707) })
	if allocs != 0 {
		t.Fatalf("SetLowpass allocations: got=%.1f want=0", allocs)
	}
}
