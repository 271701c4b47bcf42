package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cwbudde/algo-synth/asset"
	"github.com/cwbudde/algo-synth/engine"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/protocol"
	"github.com/cwbudde/algo-synth/realtime"
)

// bendRange is the pitch wheel range in semitones.
const bendRange = 2

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

func framesToDuration(frames, sampleRate int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

func main() {
	presetPath := flag.String("preset", "", "Session preset JSON (optional)")
	midiName := flag.String("midi", "", "MIDI input port name (empty: first available)")
	listPorts := flag.Bool("list-midi", false, "List MIDI inputs and exit")
	bufferFrames := flag.Int("buffer", 512, "Output buffer size in frames")
	statsEvery := flag.Duration("stats", 2*time.Second, "Interval between CPU and meter log lines (0 disables)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	initLogger(*debug)

	drv, err := rtmididrv.New()
	if err != nil {
		logger.Error("failed to open MIDI driver", "err", err)
		os.Exit(1)
	}
	defer drv.Close()

	if *listPorts {
		ins, err := drv.Ins()
		if err != nil {
			logger.Error("failed to list MIDI inputs", "err", err)
			os.Exit(1)
		}
		for _, in := range ins {
			fmt.Println(in.String())
		}
		return
	}

	cfg := engine.NewDefaultConfig()
	if *presetPath != "" {
		loaded, err := preset.LoadJSON(*presetPath)
		if err != nil {
			logger.Error("failed to load preset", "path", *presetPath, "err", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := asset.NewWorker(asset.Config{
		SampleRate:    cfg.SampleRate,
		PartitionSize: cfg.PartitionSize,
		Requests:      cfg.AssetRequests,
		Responses:     cfg.AssetResponses,
		Logger:        logger,
	})
	go func() { _ = worker.Run(ctx) }()

	host, err := engine.NewHost(cfg, worker, logger)
	if err != nil {
		logger.Error("failed to create engine", "err", err)
		os.Exit(1)
	}

	cb := realtime.NewCallback(host.Shared())
	out, err := openOutput(int(cfg.SampleRate), *bufferFrames, newStreamReader(cb, *bufferFrames))
	if err != nil {
		logger.Error("failed to open audio output", "err", err)
		os.Exit(1)
	}
	defer out.Close()

	p := &player{host: host, channels: len(cfg.Channels)}
	in, err := openInput(drv, *midiName)
	if err != nil {
		logger.Error("failed to open MIDI input", "err", err)
		os.Exit(1)
	}
	defer in.Close()
	stopListen, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		p.handle(msg)
	}, midi.HandleError(func(err error) {
		logger.Warn("MIDI listener error", "port", in.String(), "err", err)
	}))
	if err != nil {
		logger.Error("failed to start MIDI listener", "port", in.String(), "err", err)
		os.Exit(1)
	}
	defer stopListen()

	logger.Info("playing",
		"port", in.String(),
		"channels", len(cfg.Channels),
		"sample_rate", cfg.SampleRate,
		"latency", framesToDuration(*bufferFrames, int(cfg.SampleRate)),
	)

	p.loop(ctx, *statsEvery)

	p.mu.Lock()
	_ = host.Panic()
	p.mu.Unlock()
	logger.Info("stopped")
}

func openInput(drv *rtmididrv.Driver, name string) (drivers.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	if len(ins) == 0 {
		return nil, fmt.Errorf("no MIDI inputs")
	}
	var found drivers.In
	if name == "" {
		found = ins[0]
	}
	for _, in := range ins {
		if name != "" && in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("MIDI input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return nil, err
	}
	return found, nil
}

// player maps MIDI input onto the host. The host is not safe for
// concurrent use, so every call is made under mu.
type player struct {
	mu       sync.Mutex
	host     *engine.Host
	channels int
	// held tracks the sounding keys per channel for pitch bend.
	held [16][128]bool
}

func noteToken(channel, key uint8) protocol.Token {
	return protocol.Token(channel)<<8 | protocol.Token(key)
}

func (p *player) handle(msg midi.Message) {
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if int(ch) >= p.channels {
			return
		}
		p.held[ch][key] = true
		_ = p.host.NoteOn(int(ch), float32(key), float32(vel)/127, noteToken(ch, key))
	case msg.GetNoteEnd(&ch, &key):
		if int(ch) >= p.channels {
			return
		}
		p.held[ch][key] = false
		_ = p.host.NoteOff(int(ch), noteToken(ch, key))
	case msg.GetControlChange(&ch, &cc, &val):
		if int(ch) >= p.channels {
			return
		}
		switch cc {
		case 64:
			_ = p.host.Sustain(int(ch), val >= 64)
		case 120, 123:
			p.held = [16][128]bool{}
			_ = p.host.Panic()
		}
	case msg.GetPitchBend(&ch, &rel, &abs):
		if int(ch) >= p.channels {
			return
		}
		b := bendRange * float32(rel) / 8192
		for k, on := range p.held[ch] {
			if on {
				_ = p.host.Pitch(int(ch), b, noteToken(ch, uint8(k)))
			}
		}
	case msg.GetAfterTouch(&ch, &val):
		if int(ch) >= p.channels {
			return
		}
		for k, on := range p.held[ch] {
			if on {
				_ = p.host.Pressure(int(ch), float32(val)/127, noteToken(ch, uint8(k)))
			}
		}
	}
}

// loop services the non-realtime side until ctx is done.
func (p *player) loop(ctx context.Context, statsEvery time.Duration) {
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	var stats <-chan time.Time
	if statsEvery > 0 {
		t := time.NewTicker(statsEvery)
		defer t.Stop()
		stats = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			p.mu.Lock()
			p.host.Service()
			p.mu.Unlock()
		case <-stats:
			p.mu.Lock()
			s := p.host.Stats()
			p.mu.Unlock()
			logger.Info("engine",
				"cpu", fmt.Sprintf("%.1f%%", 100*s.Load),
				"peak_left", s.Left,
				"peak_right", s.Right,
				"dropped", s.Dropped,
			)
		}
	}
}
