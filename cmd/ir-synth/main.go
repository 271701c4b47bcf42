package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/irsynth"
)

func main() {
	plate := irsynth.DefaultConfig()
	room := irsynth.DefaultRoomConfig()

	kind := flag.String("kind", "plate", "IR model: plate or room")
	output := flag.String("output", "assets/ir/plate_48k.wav", "Output WAV path")
	sampleRate := flag.Int("sample-rate", plate.SampleRate, "Output sample rate")
	duration := flag.Float64("duration", plate.DurationS, "IR length in seconds")
	seed := flag.Int64("seed", plate.Seed, "Random seed")
	brightness := flag.Float64("brightness", plate.Brightness, "Spectral brightness control (>0)")
	width := flag.Float64("stereo-width", plate.StereoWidth, "Stereo decorrelation width")
	early := flag.Int("early", plate.EarlyCount, "Number of early reflections")
	late := flag.Float64("late", plate.LateLevel, "Diffuse late-tail level")
	lowDecay := flag.Float64("low-decay", plate.LowDecayS, "Low-frequency decay time (s)")
	highDecay := flag.Float64("high-decay", plate.HighDecayS, "High-frequency decay time (s)")
	normalize := flag.Float64("normalize", plate.NormalizePeak, "Peak normalization target")
	flag.IntVar(&plate.Modes, "modes", plate.Modes, "Number of plate modes (plate)")
	flag.Float64Var(&plate.FundamentalHz, "fundamental", plate.FundamentalHz, "Lowest plate mode in Hz (plate)")
	flag.Float64Var(&plate.PlateRatio, "plate-ratio", plate.PlateRatio, "Plate aspect ratio Lx/Ly (plate)")
	flag.Float64Var(&plate.StiffnessRatio, "stiffness-ratio", plate.StiffnessRatio, "Stiffness ratio Dx/Dy (plate)")
	flag.Float64Var(&plate.DirectLevel, "direct", plate.DirectLevel, "Direct impulse level (plate)")
	flag.Float64Var(&room.FadeOutS, "fade", room.FadeOutS, "Fade-out length in seconds (room)")
	flag.Parse()

	var left, right []float32
	var err error
	switch *kind {
	case "plate":
		plate.SampleRate, plate.DurationS, plate.Seed = *sampleRate, *duration, *seed
		plate.Brightness, plate.StereoWidth = *brightness, *width
		plate.EarlyCount, plate.LateLevel = *early, *late
		plate.LowDecayS, plate.HighDecayS, plate.NormalizePeak = *lowDecay, *highDecay, *normalize
		left, right, err = irsynth.GenerateStereo(plate)
	case "room":
		room.SampleRate, room.DurationS, room.Seed = *sampleRate, *duration, *seed
		room.Brightness, room.StereoWidth = *brightness, *width
		room.EarlyCount, room.LateLevel = *early, *late
		room.LowDecayS, room.HighDecayS, room.NormalizePeak = *lowDecay, *highDecay, *normalize
		left, right, err = irsynth.GenerateRoom(room)
	default:
		err = fmt.Errorf("kind must be plate or room: %q", *kind)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(1)
	}

	if err := wavio.WriteStereo(*output, left, right, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	interleaved := make([]float32, 2*len(left))
	for i := range left {
		interleaved[2*i], interleaved[2*i+1] = left[i], right[i]
	}
	rep := analysis.Analyze(interleaved, *sampleRate)
	fmt.Printf("Wrote %s (%s)\n", *output, *kind)
	fmt.Printf("SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", *sampleRate, *duration, len(left))
	fmt.Printf("Peak: %.6f, RMS: %.6f, Centroid: %.1f Hz\n", max(rep.PeakLeft, rep.PeakRight), rep.RMS, rep.CentroidHz)
}
