package effect

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/asset"
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
)

const testRate = 48000

func testConfig() device.Config {
	return device.Config{SampleRate: testRate, MaxBlock: 256, PartitionSize: 64}
}

func newAll(t *testing.T) []device.Effect {
	t.Helper()
	var out []device.Effect
	for _, name := range Names() {
		e, err := New(name, testConfig())
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if e.Name() != name {
			t.Fatalf("name mismatch: got=%q want=%q", e.Name(), name)
		}
		out = append(out, e)
	}
	return out
}

func impulse(frames int) []float32 {
	buf := make([]float32, 2*frames)
	buf[0], buf[1] = 1, 1
	return buf
}

func process(e device.Effect, buf []float32) {
	const block = 128
	for off := 0; off < len(buf); off += 2 * block {
		e.Process(buf[off:min(off+2*block, len(buf))])
	}
}

func TestRegistry(t *testing.T) {
	if len(Names()) != 12 {
		t.Fatalf("registered effects: got=%d want=12", len(Names()))
	}
	if _, err := New("flanger", testConfig()); !errors.Is(err, device.ErrUnknown) {
		t.Fatalf("unknown effect: got=%v want ErrUnknown", err)
	}
	if _, err := New(Default, testConfig()); err != nil {
		t.Fatalf("default effect: %v", err)
	}
}

func TestSilenceInSilenceOut(t *testing.T) {
	for _, e := range newAll(t) {
		t.Run(e.Name(), func(t *testing.T) {
			buf := make([]float32, 2*4096)
			process(e, buf)
			for i, v := range buf {
				if v != 0 {
					t.Fatalf("sample %d: got=%g want=0", i, v)
				}
			}
		})
	}
}

func TestImpulseStaysFinite(t *testing.T) {
	for _, e := range newAll(t) {
		t.Run(e.Name(), func(t *testing.T) {
			buf := impulse(testRate / 2)
			process(e, buf)
			for i, v := range buf {
				if !dsp.IsFinite(v) || math.Abs(float64(v)) > 8 {
					t.Fatalf("sample %d out of bounds: %g", i, v)
				}
			}
		})
	}
}

func TestUnknownParameterRejected(t *testing.T) {
	for _, e := range newAll(t) {
		if e.SetParameter(99, 1) {
			t.Fatalf("%s accepted parameter 99", e.Name())
		}
		if e.SetParameter(-1, 1) {
			t.Fatalf("%s accepted parameter -1", e.Name())
		}
		if !e.SetParameter(0, 0.5) {
			t.Fatalf("%s rejected parameter 0", e.Name())
		}
		if e.VoiceCount() != 0 {
			t.Fatalf("%s voice count: got=%d want=0", e.Name(), e.VoiceCount())
		}
	}
}

func TestFlushClearsTails(t *testing.T) {
	for _, e := range newAll(t) {
		t.Run(e.Name(), func(t *testing.T) {
			buf := impulse(2048)
			process(e, buf)
			e.Flush()
			silent := make([]float32, 2*2048)
			process(e, silent)
			for i, v := range silent {
				if v != 0 {
					t.Fatalf("tail after flush at %d: %g", i, v)
				}
			}
		})
	}
}

func TestOwnEffectsDoNotAllocate(t *testing.T) {
	cfg := testConfig()
	for _, name := range []string{"gain", "filter", "tilt", "delay", "diffuser", "convolver"} {
		e, err := New(name, cfg)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		buf := make([]float32, 2*256)
		allocs := testing.AllocsPerRun(50, func() {
			buf[0] = 0.5
			e.Process(buf)
			e.SetParameter(0, 0.7)
		})
		if allocs != 0 {
			t.Fatalf("%s allocates: %v per block", name, allocs)
		}
	}
}

func TestGainPan(t *testing.T) {
	g, _ := NewGain(testConfig())
	g.SetParameter(GainPan, 1)
	g.SetParameter(GainLevel, 0.5)
	g.Flush()
	buf := []float32{1, 1, 1, 1}
	g.Process(buf)
	if buf[0] != 0 || buf[1] != 0.5 {
		t.Fatalf("pan right: got=(%g,%g) want=(0,0.5)", buf[0], buf[1])
	}
}

func TestDelayTimeIsExact(t *testing.T) {
	d, _ := NewDelay(testConfig())
	d.SetParameter(DelayTime, 10)
	d.SetParameter(DelayFeedback, 0)
	d.SetParameter(DelayMix, 1)
	d.Flush()
	d.mix.SetImmediate(1)
	d.feedback.SetImmediate(0)

	buf := impulse(1024)
	process(d, buf)
	want := 480
	for i := 0; i < 1024; i++ {
		v := buf[2*i]
		if i == want {
			if math.Abs(float64(v)-1) > 1e-6 {
				t.Fatalf("echo amplitude: got=%g want=1", v)
			}
			continue
		}
		if math.Abs(float64(v)) > 1e-6 {
			t.Fatalf("unexpected output at %d: %g", i, v)
		}
	}
}

func TestDelayFeedbackRepeats(t *testing.T) {
	d, _ := NewDelay(testConfig())
	d.SetParameter(DelayTime, 5)
	d.SetParameter(DelayFeedback, 0.5)
	d.Flush()
	d.mix.SetImmediate(1)
	d.feedback.SetImmediate(0.5)

	buf := impulse(1024)
	process(d, buf)
	if got := buf[2*480]; math.Abs(float64(got)-0.5) > 1e-6 {
		t.Fatalf("second echo: got=%g want=0.5", got)
	}
}

func TestTiltShelfDC(t *testing.T) {
	f, _ := NewTilt(testConfig())
	f.SetParameter(TiltMode, 0)
	f.SetParameter(TiltGain, 6)
	buf := make([]float32, 2*8192)
	for i := range buf {
		buf[i] = 0.1
	}
	f.Process(buf)
	want := 0.1 * math.Pow(10, 6.0/20)
	if got := float64(buf[len(buf)-1]); math.Abs(got-want) > 1e-3 {
		t.Fatalf("low shelf DC: got=%g want=%g", got, want)
	}
}

func TestDistortionKeepsLatency(t *testing.T) {
	d, _ := NewDistortion(testConfig())
	d.SetParameter(DistortionDrive, 0.01)
	d.SetParameter(DistortionOutput, 1)
	// At minimal drive the soft clipper is linear, so only the
	// oversampling latency and gain remain.
	buf := impulse(64)
	d.Process(buf)
	peakAt := 0
	for i := 0; i < 64; i++ {
		if math.Abs(float64(buf[2*i])) > math.Abs(float64(buf[2*peakAt])) {
			peakAt = i
		}
	}
	if peakAt != dsp.Latency2x() {
		t.Fatalf("peak position: got=%d want=%d", peakAt, dsp.Latency2x())
	}
}

func TestConvolverAssetProtocol(t *testing.T) {
	cfg := testConfig()
	cfg.ImpulseResponse = "hall.wav"
	c, err := NewConvolver(cfg)
	if err != nil {
		t.Fatalf("NewConvolver: %v", err)
	}
	req, ok := c.AssetRequest()
	if !ok || req.Kind != asset.KindImpulseResponse || req.Path != "hall.wav" {
		t.Fatalf("request: got=%+v ok=%v", req, ok)
	}
	if _, ok := c.AssetRequest(); ok {
		t.Fatal("request issued twice")
	}

	if _, ok := c.Adopt(asset.Response{Request: req, Err: errors.New("missing")}); ok || c.Loaded() {
		t.Fatal("failed load must keep the generated room")
	}

	unit, err := dsp.NewConvolver([]float32{1}, []float32{1}, cfg.PartitionSize)
	if err != nil {
		t.Fatalf("NewConvolver unit: %v", err)
	}
	if _, ok := c.Adopt(asset.Response{Request: req, Convolver: unit}); ok || !c.Loaded() {
		t.Fatal("adopt did not install the impulse response")
	}
	c.mix.SetImmediate(1)
	buf := impulse(256)
	c.Process(buf)
	lat := c.Latency()
	if math.Abs(float64(buf[2*lat])-1) > 1e-4 || math.Abs(float64(buf[2*lat+1])-1) > 1e-4 {
		t.Fatalf("unit ir output at latency %d: got=(%g,%g)", lat, buf[2*lat], buf[2*lat+1])
	}
}

func TestConvolverWithoutFileIsReady(t *testing.T) {
	c, err := NewConvolver(testConfig())
	if err != nil {
		t.Fatalf("NewConvolver: %v", err)
	}
	if _, ok := c.AssetRequest(); ok {
		t.Fatal("no file configured, no request expected")
	}
}

func BenchmarkFilterBlock(b *testing.B) {
	f, _ := NewFilter(testConfig())
	buf := make([]float32, 2*256)
	for i := range buf {
		buf[i] = float32(i%7) * 0.1
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Process(buf)
	}
}

func BenchmarkConvolverBlock(b *testing.B) {
	c, _ := NewConvolver(testConfig())
	buf := make([]float32, 2*256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Process(buf)
	}
}
