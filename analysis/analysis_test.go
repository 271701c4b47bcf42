package analysis

import (
	"math"
	"math/rand"
	"testing"
)

func makeDecaySine(sr int, freq, durationSec, decaySec float64) []float64 {
	n := max(1, int(float64(sr)*durationSec))
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sr)
		out[i] = math.Exp(-t/decaySec) * math.Sin(2*math.Pi*freq*t)
	}
	return out
}

func randomSignal(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func stereoSine(sr, frames int, freq, amp float64) []float32 {
	out := make([]float32, 2*frames)
	for i := range frames {
		v := float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr)))
		out[2*i], out[2*i+1] = v, v
	}
	return out
}

func TestAnalyzeSine(t *testing.T) {
	const sr = 48000
	r := Analyze(stereoSine(sr, sr, 1000, 0.5), sr)
	if r.Frames != sr {
		t.Fatalf("frames mismatch: got=%d want=%d", r.Frames, sr)
	}
	if math.Abs(r.PeakLeft-0.5) > 1e-3 || math.Abs(r.PeakRight-0.5) > 1e-3 {
		t.Fatalf("peak mismatch: got=(%f,%f) want=0.5", r.PeakLeft, r.PeakRight)
	}
	if math.Abs(r.RMS-0.5/math.Sqrt2) > 1e-3 {
		t.Fatalf("rms mismatch: got=%f want=%f", r.RMS, 0.5/math.Sqrt2)
	}
	if math.Abs(r.CentroidHz-1000) > 60 {
		t.Fatalf("centroid mismatch: got=%f want≈1000", r.CentroidHz)
	}
	if r.Clipped != 0 || math.Abs(r.DCOffset) > 1e-3 {
		t.Fatalf("unexpected clip/dc: %+v", r)
	}
}

func TestAnalyzeCountsClipping(t *testing.T) {
	r := Analyze([]float32{1, -1, 0.5, 0}, 48000)
	if r.Clipped != 2 {
		t.Fatalf("clip count mismatch: got=%d want=2", r.Clipped)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	r := Analyze(make([]float32, 2048), 48000)
	if r.CentroidHz != 0 || r.PeakDB > -200 {
		t.Fatalf("unexpected silent report: %+v", r)
	}
	if r := Analyze(nil, 48000); r.Frames != 0 {
		t.Fatalf("unexpected empty report: %+v", r)
	}
}

func TestCompareIdenticalSignalsHasLowDistance(t *testing.T) {
	const sr = 48000
	x := makeDecaySine(sr, 440, 1.5, 0.7)
	m := Compare(x, x, sr)
	if m.LagSamples != 0 {
		t.Fatalf("unexpected lag: got=%d want=0", m.LagSamples)
	}
	if m.Score > 0.05 || m.Similarity < 0.8 {
		t.Fatalf("expected near-identical: score=%f similarity=%f", m.Score, m.Similarity)
	}
}

func TestCompareDifferentSignalsHasHigherDistance(t *testing.T) {
	const sr = 48000
	a := makeDecaySine(sr, 261.63, 1.8, 0.8)
	b := makeDecaySine(sr, 330, 0.8, 0.25)
	if m := Compare(a, b, sr); m.Score < 0.25 {
		t.Fatalf("expected higher score for different signals: got=%f", m.Score)
	}
}

func TestCompareTooShort(t *testing.T) {
	if m := Compare([]float64{1, 0.5}, []float64{1}, 48000); m.Score != 1 || m.AlignedFrames != 0 {
		t.Fatalf("short input should score as maximally distant: %+v", m)
	}
}

func TestEstimateLag(t *testing.T) {
	const n = 8192
	ref := randomSignal(n, 7)

	later := make([]float64, n)
	copy(later, ref[237:])
	if got := estimateLag(ref, later, 600); got != 237 {
		t.Fatalf("positive shift: got=%d want=237", got)
	}

	earlier := make([]float64, n)
	copy(earlier[191:], ref)
	if got := estimateLag(ref, earlier, 600); got != -191 {
		t.Fatalf("negative shift: got=%d want=-191", got)
	}
}

func BenchmarkCompare(b *testing.B) {
	const sr = 48000
	ref := makeDecaySine(sr, 220, 3, 1)
	cand := makeDecaySine(sr, 221, 3, 0.9)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compare(ref, cand, sr)
	}
}

func TestCompareBandsFindsLevelDifference(t *testing.T) {
	const sr = 48000
	ref := makeDecaySine(sr, 440, 1.0, 2.0)
	cand := make([]float64, len(ref))
	for i, v := range ref {
		cand[i] = 0.5 * v
	}
	diffs, err := CompareBands(ref, cand, sr, DefaultWindows, DefaultBands)
	if err != nil {
		t.Fatalf("compare bands: %v", err)
	}
	found := false
	for _, d := range diffs {
		if d.Window == "late" {
			t.Fatalf("late window should be skipped for a 1s signal")
		}
		if d.Window == "sustain" && d.Band == "low-mid" {
			found = true
			if math.Abs(d.DiffDB()+6.02) > 0.2 {
				t.Fatalf("sustain low-mid diff: got=%.2f want=-6.02", d.DiffDB())
			}
			if d.Frames < 1 {
				t.Fatalf("frames: got=%d want>=1", d.Frames)
			}
		}
	}
	if !found {
		t.Fatalf("missing sustain/low-mid entry in %d diffs", len(diffs))
	}
}

func TestCompareBandsRejectsBadRate(t *testing.T) {
	if _, err := CompareBands([]float64{1}, []float64{1}, 0, DefaultWindows, DefaultBands); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}
