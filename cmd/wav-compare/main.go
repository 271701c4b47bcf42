package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/internal/wavio"
)

type result struct {
	Metrics analysis.Metrics    `json:"metrics"`
	Bands   []analysis.BandDiff `json:"bands,omitempty"`
}

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	bands := flag.Bool("bands", true, "Print per-band levels for each time window")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	if *referencePath == "" || *candidatePath == "" {
		die("both -reference and -candidate are required")
	}
	ref, err := readMono(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	cand, err := readMono(*candidatePath, *sampleRate)
	if err != nil {
		die("failed to read candidate: %v", err)
	}

	res := result{Metrics: analysis.Compare(ref, cand, *sampleRate)}
	if *bands {
		res.Bands, err = analysis.CompareBands(ref, cand, *sampleRate, analysis.DefaultWindows, analysis.DefaultBands)
		if err != nil {
			die("band analysis failed: %v", err)
		}
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			die("failed to encode json: %v", err)
		}
		return
	}

	m := res.Metrics
	fmt.Printf("Reference: %d frames  Candidate: %d frames @ %d Hz\n", m.ReferenceFrames, m.CandidateFrames, m.SampleRate)
	fmt.Printf("Lag: %d samples  Aligned: %d frames\n", m.LagSamples, m.AlignedFrames)
	fmt.Printf("Time RMSE: %.5f\n", m.TimeRMSE)
	fmt.Printf("Envelope RMSE: %.2f dB\n", m.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE: %.2f dB\n", m.SpectralRMSEDB)
	fmt.Printf("Decay: ref=%.2f cand=%.2f diff=%.2f dB/s\n", m.RefDecayDBPerS, m.CandDecayDBPerS, m.DecayDiffDBPerS)
	fmt.Printf("Score: %.4f  Similarity: %.4f\n", m.Score, m.Similarity)

	window := ""
	for _, d := range res.Bands {
		if d.Window != window {
			window = d.Window
			fmt.Printf("\n--- %s (%d STFT frames) ---\n", d.Window, d.Frames)
		}
		marker := ""
		if d.RMSEDB > 15 {
			marker = " <<<"
		}
		if d.RMSEDB > 25 {
			marker = " <<< !!!"
		}
		fmt.Printf("  %-10s RMSE=%5.1fdB  ref=%6.1fdB  cand=%6.1fdB  diff=%+5.1fdB%s\n",
			d.Band, d.RMSEDB, d.RefDB, d.CandDB, d.DiffDB(), marker)
	}
}

// readMono loads a WAV, folds it to mono and resamples it to sampleRate.
func readMono(path string, sampleRate int) ([]float64, error) {
	left, right, rate, err := wavio.ReadStereo(path)
	if err != nil {
		return nil, err
	}
	mono := make([]float32, len(left))
	for i := range left {
		mono[i] = 0.5 * (left[i] + right[i])
	}
	if mono, err = dsp.ResampleOffline(mono, rate, sampleRate); err != nil {
		return nil, err
	}
	out := make([]float64, len(mono))
	for i, v := range mono {
		out[i] = float64(v)
	}
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
