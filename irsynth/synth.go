package irsynth

import (
	"fmt"
	"math"
	"math/rand"
)

// Config controls the modal plate IR.
type Config struct {
	SampleRate int
	DurationS  float64
	Modes      int
	Seed       int64

	// FundamentalHz is the lowest plate mode.
	FundamentalHz  float64
	PlateRatio     float64 // Lx/Ly
	StiffnessRatio float64 // Dx/Dy

	Brightness  float64
	StereoWidth float64
	DirectLevel float64
	EarlyCount  int
	LateLevel   float64

	LowDecayS  float64
	HighDecayS float64

	NormalizePeak float64
}

func DefaultConfig() Config {
	return Config{
		SampleRate:     48000,
		DurationS:      2.0,
		Modes:          128,
		Seed:           1,
		FundamentalHz:  40,
		PlateRatio:     1.4,
		StiffnessRatio: 2.0,
		Brightness:     1.0,
		StereoWidth:    0.6,
		DirectLevel:    0.6,
		EarlyCount:     16,
		LateLevel:      0.045,
		LowDecayS:      2.4,
		HighDecayS:     0.35,
		NormalizePeak:  0.9,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.Modes < 1 {
		return fmt.Errorf("modes must be >= 1")
	}
	if c.FundamentalHz <= 0 || c.FundamentalHz >= 0.47*float64(c.SampleRate) {
		return fmt.Errorf("fundamental must be in (0, %.0f): %g", 0.47*float64(c.SampleRate), c.FundamentalHz)
	}
	if c.PlateRatio <= 0 {
		return fmt.Errorf("plate ratio must be > 0")
	}
	if c.StiffnessRatio <= 0 {
		return fmt.Errorf("stiffness ratio must be > 0")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.StereoWidth < 0 {
		return fmt.Errorf("stereo width must be >= 0")
	}
	if c.DirectLevel < 0 {
		return fmt.Errorf("direct level must be >= 0")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.LateLevel < 0 {
		return fmt.Errorf("late level must be >= 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// GenerateStereo synthesizes a plate IR: a direct impulse, the plate modes
// with frequency-dependent decay, an early cluster and a diffuse tail.
func GenerateStereo(cfg Config) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	n := samples(cfg.DurationS, cfg.SampleRate)
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	left[0] += cfg.DirectLevel * (1.0 - 0.05*cfg.StereoWidth)
	right[0] += cfg.DirectLevel * (1.0 + 0.05*cfg.StereoWidth)

	maxF := 0.47 * float64(cfg.SampleRate)
	freqs := PlateModes(cfg.FundamentalHz, maxF, cfg.Modes, cfg.PlateRatio, cfg.StiffnessRatio)
	brightnessExp := 0.7 + 0.9*cfg.Brightness
	for _, f := range freqs {
		amp := 0.9 / math.Pow(1.0+f/120.0, brightnessExp)
		amp *= 0.7 + 0.6*rng.Float64()

		tau := lerp(cfg.LowDecayS, cfg.HighDecayS, math.Sqrt(f/maxF))
		decay := math.Exp(-1.0 / (tau * float64(cfg.SampleRate)))

		// Slight per-side detune widens the image without a second mode set.
		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		skew := 0.004 * pan
		phi := rng.Float64() * 2.0 * math.Pi
		addDecayingMode(left, amp*(1.0-0.45*pan), f*(1.0-skew), phi, decay, cfg.SampleRate)
		addDecayingMode(right, amp*(1.0+0.45*pan), f*(1.0+skew), phi+0.01*pan, decay, cfg.SampleRate)
	}

	addEarly(left, right, rng, cfg.EarlyCount, 0.030, 28.0, 1.0, cfg.StereoWidth, cfg.SampleRate)

	if cfg.LateLevel > 0 {
		lpL, lpR := 0.0, 0.0
		for i := 0; i < n; i++ {
			t := float64(i) / float64(cfg.SampleRate)
			env := math.Exp(-t / (0.75 * cfg.LowDecayS))
			lpL = 0.985*lpL + 0.015*rng.NormFloat64()
			lpR = 0.985*lpR + 0.015*rng.NormFloat64()
			left[i] += cfg.LateLevel * env * lpL
			right[i] += cfg.LateLevel * env * lpR
		}
	}

	removeDC(left, 0.995)
	removeDC(right, 0.995)
	l, r := normalizeStereo(left, right, cfg.NormalizePeak)
	return l, r, nil
}

// addEarly scatters count panned reflections over 1 ms to 1 ms+spanS.
func addEarly(left, right []float64, rng *rand.Rand, count int, spanS, falloff, brightness, width float64, sampleRate int) {
	for i := 0; i < count; i++ {
		t := 0.001 + spanS*rng.Float64()
		idx := int(t * float64(sampleRate))
		if idx <= 0 || idx >= len(left) {
			continue
		}
		amp := (0.10 + 0.35*rng.Float64()) * math.Exp(-t*falloff)
		if brightness != 1 {
			amp *= math.Pow(0.5+0.5*rng.Float64(), 1.0/brightness)
		}
		pan := (rng.Float64()*2.0 - 1.0) * width
		left[idx] += amp * (1.0 - 0.5*pan)
		right[idx] += amp * (1.0 + 0.5*pan)
	}
}
