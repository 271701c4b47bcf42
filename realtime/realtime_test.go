package realtime

import (
	"runtime"
	"testing"

	"github.com/cwbudde/algo-synth/engine"
)

var tiny = []float32{1e-38}

func TestDenormalGuardFlushesAndRestores(t *testing.T) {
	if !FlushSupported() {
		t.Skip("no hardware flush on this platform")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	before := readFPU()
	g := enterDenormalGuard()
	if !readFPU().flushing() {
		t.Fatalf("expected flush mode inside the guard")
	}
	if y := tiny[0] * 1e-3; y != 0 {
		t.Fatalf("expected denormal result flushed: got=%g", y)
	}
	g.exit()
	if got := readFPU(); got != before {
		t.Fatalf("control word not restored: got=%v want=%v", got, before)
	}
}

func TestDenormalGuardRestoresOnPanic(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	before := readFPU()

	func() {
		defer func() { _ = recover() }()
		g := enterDenormalGuard()
		defer g.exit()
		panic("boom")
	}()
	if got := readFPU(); got != before {
		t.Fatalf("control word not restored after panic: got=%v want=%v", got, before)
	}
}

func newTestCallback(t testing.TB) (*Callback, *engine.Host) {
	t.Helper()
	h, err := engine.NewHost(engine.NewDefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	return NewCallback(h.Shared()), h
}

func nonZero(buf []float32) bool {
	for _, v := range buf {
		if v != 0 {
			return true
		}
	}
	return false
}

func TestCallbackRendersAndPauses(t *testing.T) {
	cb, h := newTestCallback(t)
	if err := h.NoteOn(0, 60, 1, 1); err != nil {
		t.Fatalf("NoteOn: %v", err)
	}
	out := make([]float32, 1024)
	cb.Fill(out)
	cb.Fill(out)
	if !nonZero(out) {
		t.Fatalf("expected sound while rendering")
	}

	if err := cb.SetTransport(Paused); err != nil {
		t.Fatalf("SetTransport: %v", err)
	}
	cb.Fill(out)
	if nonZero(out) || cb.State() != Paused {
		t.Fatalf("expected silence while paused: state=%s", cb.State())
	}

	_ = cb.SetTransport(Rendering)
	cb.Fill(out)
	if !nonZero(out) {
		t.Fatalf("expected sound after resuming")
	}
}

func TestCallbackSilentWhenContended(t *testing.T) {
	cb, h := newTestCallback(t)
	_ = h.NoteOn(0, 60, 1, 1)
	out := make([]float32, 512)
	cb.Fill(out)
	for i := range out {
		out[i] = 1
	}
	_ = h.Shared().With(func(*engine.Render) error {
		cb.Fill(out)
		return nil
	})
	if nonZero(out) {
		t.Fatalf("contended block must be silent")
	}
	if total, contended := cb.Blocks(); total != 2 || contended != 1 {
		t.Fatalf("unexpected block counts: total=%d contended=%d", total, contended)
	}
}

func TestCallbackDoesNotAllocate(t *testing.T) {
	cb, h := newTestCallback(t)
	for tok := engine.Token(1); tok <= 4; tok++ {
		_ = h.NoteOn(0, 48+3*float32(tok), 0.8, tok)
	}
	out := make([]float32, 512)
	cb.Fill(out)
	allocs := testing.AllocsPerRun(50, func() {
		cb.Fill(out)
		h.DrainFeedback()
	})
	if allocs != 0 {
		t.Fatalf("Fill allocated: got=%f want=0", allocs)
	}
}

func BenchmarkCallbackFill(b *testing.B) {
	cb, h := newTestCallback(b)
	for tok := engine.Token(1); tok <= 8; tok++ {
		_ = h.NoteOn(0, 40+3*float32(tok), 0.8, tok)
	}
	out := make([]float32, 512)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cb.Fill(out)
		h.DrainFeedback()
	}
}
