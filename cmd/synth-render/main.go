package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/asset"
	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/engine"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/realtime"
)

var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
	slog.SetDefault(logger)
}

func main() {
	note := flag.Float64("note", 69, "MIDI pitch, fractional allowed (69 = A4)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds")
	midiPath := flag.String("midi", "", "Standard MIDI File to render instead of a single note")
	tail := flag.Float64("tail", 2.0, "Seconds rendered after the last MIDI event")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when stereo block RMS falls below this dBFS after all events (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	maxDuration := flag.Float64("max-duration", 60.0, "Hard limit on the render length in seconds")
	presetPath := flag.String("preset", "", "Session preset JSON (optional)")
	instrumentName := flag.String("instrument", "", "Instrument override for channel 0")
	blockSize := flag.Int("block", 128, "Callback block size in frames")
	output := flag.String("output", "output.wav", "Output WAV file path")
	reference := flag.String("reference", "", "Reference WAV to compare against (optional)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	initLogger(*debug)

	cfg := engine.NewDefaultConfig()
	if *presetPath != "" {
		loaded, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	if *instrumentName != "" {
		if len(cfg.Channels) == 0 {
			cfg.Channels = append(cfg.Channels, engine.ChannelConfig{})
		}
		cfg.Channels[0].Instrument = *instrumentName
	}
	if *blockSize < 1 {
		fmt.Fprintf(os.Stderr, "Error: block must be >= 1\n")
		os.Exit(1)
	}
	sr := cfg.SampleRate

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker := asset.NewWorker(asset.Config{
		SampleRate:    sr,
		PartitionSize: cfg.PartitionSize,
		Requests:      cfg.AssetRequests,
		Responses:     cfg.AssetResponses,
		Logger:        logger,
	})
	go func() { _ = worker.Run(ctx) }()

	host, err := engine.NewHost(cfg, worker, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	waitCtx, waitCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := host.WaitAssets(waitCtx); err != nil {
		logger.Warn("assets not ready, rendering with defaults", "err", err)
	}
	waitCancel()

	var sc *score
	if *midiPath != "" {
		var dropped int
		sc, dropped, err = readSMF(*midiPath, sr, len(cfg.Channels))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading MIDI file: %v\n", err)
			os.Exit(1)
		}
		if dropped > 0 {
			logger.Warn("notes on channels outside the session were dropped", "count", dropped, "channels", len(cfg.Channels))
		}
		*duration = float64(sc.end)/sr + *tail
	} else {
		vel := float32(max(0, min(127, *velocity))) / 127
		sc = singleNote(float32(*note), vel, int64(*releaseAfter*sr))
	}

	total := int64(math.Min(*duration, *maxDuration) * sr)
	limit := int64(*maxDuration * sr)
	autoStop := !math.IsInf(*decayDBFS, 1)
	threshold := math.Pow(10, *decayDBFS/20)

	logger.Info("rendering",
		"channels", len(cfg.Channels),
		"sample_rate", sr,
		"events", len(sc.events),
		"seconds", float64(total)/sr,
	)

	cb := realtime.NewCallback(host.Shared())
	samples := render(host, cb, sc, renderOptions{
		total:     total,
		limit:     limit,
		block:     *blockSize,
		autoStop:  autoStop,
		threshold: threshold,
		hold:      max(1, *decayHoldBlocks),
	})

	if err := wavio.WriteStereoInterleaved(*output, samples, int(sr)); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	frames := len(samples) / 2
	fmt.Printf("Successfully wrote %s (%d frames, %.3fs)\n", *output, frames, float64(frames)/sr)

	rep := analysis.Analyze(samples, int(sr))
	fmt.Printf("Peak: %.2f dBFS, RMS: %.2f dBFS, Centroid: %.1f Hz, Clipped: %d\n", rep.PeakDB, rep.RMSDB, rep.CentroidHz, rep.Clipped)

	if *reference != "" {
		if err := compareReference(*reference, samples, int(sr)); err != nil {
			fmt.Fprintf(os.Stderr, "Error comparing reference: %v\n", err)
			os.Exit(1)
		}
	}
}

type renderOptions struct {
	total     int64
	limit     int64
	block     int
	autoStop  bool
	threshold float64
	hold      int
}

// render drives the host and callback exactly like a live driver would,
// splitting blocks at event frames.
func render(host *engine.Host, cb *realtime.Callback, sc *score, opt renderOptions) []float32 {
	out := make([]float32, 0, 2*opt.total)
	buf := make([]float32, 2*opt.block)
	next := 0
	below := 0
	var frame int64
	for frame < opt.limit {
		if !opt.autoStop && frame >= opt.total {
			break
		}
		for next < len(sc.events) && sc.events[next].frame <= frame {
			if err := host.Send(sc.events[next].msg); err != nil {
				logger.Warn("event dropped", "frame", frame, "err", err)
			}
			next++
		}
		n := int64(opt.block)
		if next < len(sc.events) {
			n = min(n, sc.events[next].frame-frame)
		}
		if !opt.autoStop {
			n = min(n, opt.total-frame)
		}
		n = min(n, opt.limit-frame)
		block := buf[:2*n]
		cb.Fill(block)
		out = append(out, block...)
		frame += n
		host.DrainFeedback()

		if opt.autoStop && next == len(sc.events) && frame >= opt.total {
			if wavio.StereoRMS(block) < opt.threshold {
				below++
				if below >= opt.hold {
					break
				}
			} else {
				below = 0
			}
		}
	}
	return out
}

func compareReference(path string, samples []float32, sampleRate int) error {
	left, right, rate, err := wavio.ReadStereo(path)
	if err != nil {
		return err
	}
	mono := make([]float32, len(left))
	for i := range left {
		mono[i] = 0.5 * (left[i] + right[i])
	}
	if mono, err = dsp.ResampleOffline(mono, rate, sampleRate); err != nil {
		return err
	}
	ref := make([]float64, len(mono))
	for i, v := range mono {
		ref[i] = float64(v)
	}
	m := analysis.Compare(ref, analysis.Mono(samples), sampleRate)
	fmt.Printf("Reference: score=%.4f similarity=%.4f lag=%d time_rmse=%.4f env_db=%.2f spec_db=%.2f decay_diff=%.2f dB/s\n",
		m.Score, m.Similarity, m.LagSamples, m.TimeRMSE, m.EnvelopeRMSEDB, m.SpectralRMSEDB, m.DecayDiffDBPerS)
	return nil
}
