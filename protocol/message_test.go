package protocol

import (
	"log/slog"
	"strings"
	"testing"
)

func TestConstructorsFillFields(t *testing.T) {
	m := NoteOn(2, 61.5, 0.8, 42)
	if m.Kind != KindNoteOn || m.Channel != 2 || m.Value != 61.5 || m.Velocity != 0.8 || m.Token != 42 {
		t.Errorf("unexpected note-on message: %+v", m)
	}
	p := Parameter(1, 3, 4, 0.25)
	if p.Kind != KindParameter || p.Channel != 1 || p.Device != 3 || p.Param != 4 || p.Value != 0.25 {
		t.Errorf("unexpected parameter message: %+v", p)
	}
	r := ReorderEffect(0, 2, 0)
	if r.Param != 2 || r.Index != 0 {
		t.Errorf("expected from=2 to=0, got from=%d to=%d", r.Param, r.Index)
	}
	if s := Sustain(3, true); s.Kind != KindSustain || !s.Flag || s.Channel != 3 {
		t.Errorf("unexpected sustain message: %+v", s)
	}
}

func TestKindString(t *testing.T) {
	if KindReorderEffect.String() != "reorder-effect" {
		t.Errorf("expected reorder-effect, got %s", KindReorderEffect)
	}
	if Kind(200).String() != "kind(200)" {
		t.Errorf("expected kind(200), got %s", Kind(200))
	}
}

func TestLogText(t *testing.T) {
	m := Log(LevelWarn, "channel out of range")
	if m.Kind != FeedbackLog || m.Level != LevelWarn {
		t.Fatalf("unexpected log message: %+v", m)
	}
	if m.Text() != "channel out of range" {
		t.Errorf("expected text preserved, got %q", m.Text())
	}

	long := strings.Repeat("x", 200)
	if got := Log(LevelInfo, long).Text(); len(got) != LogTextSize {
		t.Errorf("expected truncation to %d bytes, got %d", LogTextSize, len(got))
	}
}

func TestLogIntKeepsValue(t *testing.T) {
	if got := LogInt(LevelWarn, "no such channel", -7).Text(); got != "no such channel -7" {
		t.Errorf("expected %q, got %q", "no such channel -7", got)
	}
	long := strings.Repeat("y", 200)
	got := LogInt(LevelWarn, long, 123456).Text()
	if !strings.HasSuffix(got, " 123456") {
		t.Errorf("expected value suffix, got %q", got)
	}
	if len(got) > LogTextSize {
		t.Errorf("expected at most %d bytes, got %d", LogTextSize, len(got))
	}
}

func TestLogIntDoesNotAllocate(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		m := LogInt(LevelWarn, "effect out of range", 12)
		_ = m.Kind
	})
	if allocs != 0 {
		t.Errorf("expected zero allocations, got %.1f", allocs)
	}
}

func TestLevelSlog(t *testing.T) {
	if LevelWarn.Slog() != slog.LevelWarn || LevelDebug.Slog() != slog.LevelDebug {
		t.Error("unexpected slog level mapping")
	}
}

func TestFeedbackTextAfterQueueRoundTrip(t *testing.T) {
	q := NewQueue[FeedbackMessage](4)
	if err := q.Push(LogInt(LevelWarn, "device out of range:", 3)); err != nil {
		t.Fatalf("push: %v", err)
	}
	msg, ok := q.Pop()
	if !ok {
		t.Fatalf("expected a message")
	}
	if got := msg.Text(); got != "device out of range: 3" {
		t.Fatalf("text: got=%q want=%q", got, "device out of range: 3")
	}
}
