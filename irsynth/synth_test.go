package irsynth

import (
	"math"
	"testing"
)

func checkStereo(t *testing.T, l, r []float32, wantLen int, peak float64) {
	t.Helper()
	if len(l) != wantLen || len(r) != wantLen {
		t.Fatalf("unexpected output lengths: L=%d R=%d want=%d", len(l), len(r), wantLen)
	}
	maxAbs := 0.0
	energy := 0.0
	for i := range l {
		if math.IsNaN(float64(l[i])) || math.IsInf(float64(l[i]), 0) || math.IsNaN(float64(r[i])) || math.IsInf(float64(r[i]), 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(float64(l[i])), math.Abs(float64(r[i]))))
		energy += float64(l[i]*l[i] + r[i]*r[i])
	}
	if energy <= 1e-8 {
		t.Fatalf("expected non-zero energy")
	}
	if math.Abs(maxAbs-peak) > 1e-4 {
		t.Fatalf("unexpected normalization peak: got=%.6f want=%.6f", maxAbs, peak)
	}
}

func TestGenerateStereoBasic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DurationS = 0.5
	cfg.Modes = 32
	cfg.Seed = 42
	cfg.NormalizePeak = 0.8

	l, r, err := GenerateStereo(cfg)
	if err != nil {
		t.Fatalf("GenerateStereo: %v", err)
	}
	checkStereo(t, l, r, int(0.5*48000), 0.8)
}

func TestGenerateStereoDeterministicForSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 32000
	cfg.DurationS = 0.2
	cfg.Modes = 24
	cfg.Seed = 99

	l1, r1, err := GenerateStereo(cfg)
	if err != nil {
		t.Fatalf("first GenerateStereo: %v", err)
	}
	l2, r2, err := GenerateStereo(cfg)
	if err != nil {
		t.Fatalf("second GenerateStereo: %v", err)
	}
	for i := range l1 {
		if l1[i] != l2[i] || r1[i] != r2[i] {
			t.Fatalf("non-deterministic output at index %d", i)
		}
	}

	cfg.Seed = 100
	l3, _, err := GenerateStereo(cfg)
	if err != nil {
		t.Fatalf("third GenerateStereo: %v", err)
	}
	same := true
	for i := range l1 {
		if l1[i] != l3[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical output")
	}
}

func TestPlateModesSortedAndBounded(t *testing.T) {
	modes := PlateModes(50, 8000, 64, 1.4, 2)
	if len(modes) != 64 {
		t.Fatalf("mode count: got=%d want=64", len(modes))
	}
	if math.Abs(modes[0]-50) > 1e-9 {
		t.Fatalf("fundamental: got=%g want=50", modes[0])
	}
	for i := 1; i < len(modes); i++ {
		if modes[i] < modes[i-1] {
			t.Fatalf("modes not sorted at %d: %g < %g", i, modes[i], modes[i-1])
		}
		if modes[i] > 8000 {
			t.Fatalf("mode %d above limit: %g", i, modes[i])
		}
	}
}

func TestPlateModesSquareIsotropicSpectrum(t *testing.T) {
	// A square isotropic plate has ω ∝ λx+λy, so the (1,2) and (2,1) modes
	// coincide and sit near 2.5 times the fundamental.
	modes := PlateModes(100, 20000, 3, 1, 1)
	if len(modes) != 3 {
		t.Fatalf("mode count: got=%d want=3", len(modes))
	}
	if math.Abs(modes[1]-modes[2]) > 1e-9 {
		t.Fatalf("degenerate pair split: %g vs %g", modes[1], modes[2])
	}
	if math.Abs(modes[1]/modes[0]-2.5) > 0.01 {
		t.Fatalf("second mode ratio: got=%.4f want≈2.5", modes[1]/modes[0])
	}
}

func TestPlateModesRejectsBadRange(t *testing.T) {
	if m := PlateModes(100, 50, 8, 1, 1); m != nil {
		t.Fatalf("expected no modes when maxF < fundamental, got %d", len(m))
	}
	if m := PlateModes(100, 1000, 0, 1, 1); m != nil {
		t.Fatalf("expected no modes for maxModes=0, got %d", len(m))
	}
}

func TestValidate(t *testing.T) {
	mutations := map[string]func(*Config){
		"sample rate":  func(c *Config) { c.SampleRate = 4000 },
		"duration":     func(c *Config) { c.DurationS = 0 },
		"modes":        func(c *Config) { c.Modes = 0 },
		"fundamental":  func(c *Config) { c.FundamentalHz = 0 },
		"plate ratio":  func(c *Config) { c.PlateRatio = -1 },
		"stiffness":    func(c *Config) { c.StiffnessRatio = 0 },
		"late level":   func(c *Config) { c.LateLevel = -0.1 },
		"decay":        func(c *Config) { c.HighDecayS = 0 },
		"normalize":    func(c *Config) { c.NormalizePeak = 0 },
		"stereo width": func(c *Config) { c.StereoWidth = -1 },
	}
	for name, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
