package dsp

import (
	"math"
	"testing"
)

func TestHalfbandBranchDCGain(t *testing.T) {
	sum := float32(0)
	for _, h := range halfbandBranch {
		sum += h
	}
	if math.Abs(float64(sum)-0.5) > 1e-6 {
		t.Errorf("expected branch DC gain 0.5, got %g", sum)
	}
	// Symmetric prototype.
	for j := 0; j < halfbandBranchLen/2; j++ {
		a, b := halfbandBranch[j], halfbandBranch[halfbandBranchLen-1-j]
		if math.Abs(float64(a-b)) > 1e-7 {
			t.Errorf("tap %d: expected symmetry, got %g vs %g", j, a, b)
		}
	}
}

func TestOversampleRoundTripLatency(t *testing.T) {
	var up Upsampler2x
	var down Downsampler2x
	in := sineBlock(2048, 1000, 48000)
	out := make([]float32, len(in))
	for i, x := range in {
		a, b := up.Up(x)
		out[i] = down.Down(a, b)
	}
	lat := Latency2x()
	for i := 4 * HalfbandTaps; i < len(in); i++ {
		if d := math.Abs(float64(out[i] - in[i-lat])); d > 1e-2 {
			t.Fatalf("sample %d: expected %g, got %g", i, in[i-lat], out[i])
		}
	}
}

func TestOversampleDCPassesThrough(t *testing.T) {
	var up Upsampler2x
	var down Downsampler2x
	var y float32
	for i := 0; i < 200; i++ {
		a, b := up.Up(1)
		if i > 40 && (math.Abs(float64(a-1)) > 1e-5 || math.Abs(float64(b-1)) > 1e-5) {
			t.Fatalf("sample %d: expected upsampled DC 1, got %g, %g", i, a, b)
		}
		y = down.Down(a, b)
	}
	if math.Abs(float64(y-1)) > 1e-5 {
		t.Errorf("expected DC 1 after round trip, got %g", y)
	}
}

func TestUpsamplerBlockMatchesSampleAPI(t *testing.T) {
	var a, b Upsampler2x
	in := sineBlock(64, 3000, 48000)
	blk := make([]float32, 128)
	a.Process(in, blk)
	for i, x := range in {
		p, q := b.Up(x)
		if p != blk[2*i] || q != blk[2*i+1] {
			t.Fatalf("frame %d: block and sample paths diverge", i)
		}
	}
}
