package irsynth

import (
	"fmt"
	"math"
	"math/rand"
)

// RoomConfig controls room IR generation.
type RoomConfig struct {
	SampleRate  int
	DurationS   float64
	Seed        int64
	EarlyCount  int
	LateLevel   float64
	StereoWidth float64
	Brightness  float64
	LowDecayS   float64
	HighDecayS  float64
	FadeOutS    float64 // raised-cosine fade at the end; 0 disables it

	NormalizePeak float64
}

// DefaultRoomConfig returns a medium room.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		SampleRate:    48000,
		DurationS:     1.0,
		Seed:          1,
		EarlyCount:    24,
		LateLevel:     0.06,
		StereoWidth:   0.6,
		Brightness:    0.8,
		LowDecayS:     1.2,
		HighDecayS:    0.2,
		FadeOutS:      0.01,
		NormalizePeak: 0.9,
	}
}

// SmallRoomConfig returns the short room the convolver starts with before
// a file IR has been loaded.
func SmallRoomConfig(sampleRate int) RoomConfig {
	cfg := DefaultRoomConfig()
	cfg.SampleRate = sampleRate
	cfg.DurationS = 0.35
	cfg.EarlyCount = 16
	cfg.LowDecayS = 0.3
	cfg.HighDecayS = 0.08
	cfg.FadeOutS = 0.02
	cfg.NormalizePeak = 0.5
	return cfg
}

func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.LateLevel < 0 {
		return fmt.Errorf("late level must be >= 0")
	}
	if c.StereoWidth < 0 {
		return fmt.Errorf("stereo width must be >= 0")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// GenerateRoom synthesizes early reflections and a tail whose low band
// decays with LowDecayS and whose high band decays with HighDecayS.
func GenerateRoom(cfg RoomConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	n := samples(cfg.DurationS, cfg.SampleRate)
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	addEarly(left, right, rng, cfg.EarlyCount, 0.049, 20.0, cfg.Brightness, cfg.StereoWidth, cfg.SampleRate)

	if cfg.LateLevel > 0 {
		air := math.Max(0.3*(cfg.Brightness-0.3), 0)
		lpL, lpR := 0.0, 0.0
		hpL, hpR := 0.0, 0.0
		for i := 0; i < n; i++ {
			t := float64(i) / float64(cfg.SampleRate)
			lowEnv := math.Exp(-t / (0.75 * cfg.LowDecayS))
			highEnv := math.Exp(-t / (0.75 * cfg.HighDecayS))
			nL := rng.NormFloat64()
			nR := rng.NormFloat64()
			lpL = 0.985*lpL + 0.015*nL
			lpR = 0.985*lpR + 0.015*nR
			hpL = 0.15*nL - 0.15*hpL
			hpR = 0.15*nR - 0.15*hpR
			left[i] += cfg.LateLevel * (lowEnv*lpL + air*highEnv*hpL)
			right[i] += cfg.LateLevel * (lowEnv*lpR + air*highEnv*hpR)
		}
	}

	removeDC(left, 0.995)
	removeDC(right, 0.995)
	fadeOut(left, cfg.FadeOutS, cfg.SampleRate)
	fadeOut(right, cfg.FadeOutS, cfg.SampleRate)
	l, r := normalizeStereo(left, right, cfg.NormalizePeak)
	return l, r, nil
}
