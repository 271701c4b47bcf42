package asset

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/algo-synth/internal/wavio"
)

func writeTestWAV(t *testing.T, left, right []float32, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	if err := wavio.WriteStereo(path, left, right, rate); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func ramp(n int, scale float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = scale * float32(i) / float32(n)
	}
	return out
}

func TestWorkerLoadsAndCachesSample(t *testing.T) {
	path := writeTestWAV(t, ramp(256, 0.5), ramp(256, -0.5), 48000)
	w := NewWorker(Config{SampleRate: 48000})

	a := w.Handle(Request{Kind: KindSample, Path: path, Target: 3})
	if a.Err != nil {
		t.Fatalf("load: %v", a.Err)
	}
	if a.Request.Target != 3 {
		t.Fatalf("target not echoed: got=%d want=3", a.Request.Target)
	}
	if a.Sample.Len() != 256 {
		t.Fatalf("unexpected length: got=%d want=256", a.Sample.Len())
	}
	if d := math.Abs(float64(a.Sample.Right[128] + 0.25)); d > 1e-3 {
		t.Fatalf("right channel mismatch: got=%f want=-0.25", a.Sample.Right[128])
	}

	b := w.Handle(Request{Kind: KindSample, Path: path, Target: 4})
	if b.Sample != a.Sample {
		t.Fatalf("expected the cached sample to be shared")
	}
}

func TestWorkerResamplesToEngineRate(t *testing.T) {
	path := writeTestWAV(t, make([]float32, 2205), make([]float32, 2205), 44100)
	w := NewWorker(Config{SampleRate: 48000})
	resp := w.Handle(Request{Kind: KindSample, Path: path})
	if resp.Err != nil {
		t.Fatalf("load: %v", resp.Err)
	}
	if n := resp.Sample.Len(); n < 2200 || n > 2600 {
		t.Fatalf("unexpected resampled length: got=%d want≈2400", n)
	}
	if resp.Sample.SampleRate != 48000 {
		t.Fatalf("unexpected rate: got=%f", resp.Sample.SampleRate)
	}
}

func TestWorkerFailureIsReported(t *testing.T) {
	w := NewWorker(Config{SampleRate: 48000})
	resp := w.Handle(Request{Kind: KindSample, Path: filepath.Join(t.TempDir(), "missing.wav")})
	if resp.Err == nil || resp.Sample != nil {
		t.Fatalf("expected an error response: %+v", resp)
	}
	resp = w.Handle(Request{Kind: Kind(99), Path: "x"})
	if !errors.Is(resp.Err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported: got=%v", resp.Err)
	}
}

func TestWorkerImpulseResponseNormalized(t *testing.T) {
	w := NewWorker(Config{SampleRate: 48000, PartitionSize: 64})
	w.SetLoader(func(path string, rate int) (*Sample, error) {
		return &Sample{Path: path, Left: []float32{4, 0, 0}, Right: []float32{2, 0, 0}, SampleRate: float64(rate)}, nil
	})
	resp := w.Handle(Request{Kind: KindImpulseResponse, Path: "loud.wav"})
	if resp.Err != nil {
		t.Fatalf("load: %v", resp.Err)
	}
	conv := resp.Convolver
	var l, r float32
	for i := 0; i <= conv.Latency(); i++ {
		x := float32(0)
		if i == 0 {
			x = 1
		}
		l, r = conv.ProcessSample(x, x)
	}
	if math.Abs(float64(l)-1) > 1e-4 || math.Abs(float64(r)-0.5) > 1e-4 {
		t.Fatalf("expected unit-peak IR: got=(%f,%f) want=(1,0.5)", l, r)
	}
	if cached, _ := w.sample("loud.wav"); cached.Left[0] != 4 {
		t.Fatalf("normalization must not modify the cached sample")
	}
}

func TestWorkerSubmitFull(t *testing.T) {
	w := NewWorker(Config{SampleRate: 48000, Requests: 1})
	if err := w.Submit(Request{Kind: KindSample, Path: "a"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := w.Submit(Request{Kind: KindSample, Path: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull: got=%v", err)
	}
}

func TestWorkerRun(t *testing.T) {
	w := NewWorker(Config{SampleRate: 48000})
	w.SetLoader(func(path string, rate int) (*Sample, error) {
		return &Sample{Path: path, Left: []float32{1}, Right: []float32{1}, SampleRate: float64(rate)}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := w.Submit(Request{Kind: KindSample, Path: "p", Target: 9}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case resp := <-w.Responses():
		if resp.Err != nil || resp.Request.Target != 9 {
			t.Fatalf("unexpected response: %+v", resp)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for response")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled: got=%v", err)
	}
}
