package engine

import (
	"testing"

	"github.com/cwbudde/algo-synth/protocol"
)

const testRate = 48000

// stubInstrument records what the voice manager asks of it. Each sounding
// slot adds a constant to the left channel.
type stubInstrument struct {
	poly     int
	sounding []bool
	pitch    []float32
	velocity []float32
	noteOns  int
	noteOffs int
	level    float32
	flushed  int
}

func newStub(poly int) *stubInstrument {
	return &stubInstrument{
		poly:     poly,
		sounding: make([]bool, poly),
		pitch:    make([]float32, poly),
		velocity: make([]float32, poly),
		level:    0.1,
	}
}

func (s *stubInstrument) Name() string    { return "stub" }
func (s *stubInstrument) VoiceCount() int { return s.poly }

func (s *stubInstrument) SetParameter(index int, value float32) bool {
	if index != 0 {
		return false
	}
	s.level = value
	return true
}

func (s *stubInstrument) Process(buf []float32) {
	for _, on := range s.sounding {
		if !on {
			continue
		}
		for i := 0; i+1 < len(buf); i += 2 {
			buf[i] += s.level
			buf[i+1] += s.level
		}
	}
}

func (s *stubInstrument) Flush() {
	clear(s.sounding)
	s.flushed++
}

func (s *stubInstrument) NoteOn(slot int, pitch, velocity float32) {
	s.sounding[slot] = true
	s.pitch[slot] = pitch
	s.velocity[slot] = velocity
	s.noteOns++
}

func (s *stubInstrument) NoteOff(slot int) {
	s.sounding[slot] = false
	s.noteOffs++
}

func (s *stubInstrument) SetPitch(slot int, pitch float32)    { s.pitch[slot] = pitch }
func (s *stubInstrument) SetPressure(slot int, value float32) {}
func (s *stubInstrument) VoiceActive(slot int) bool           { return s.sounding[slot] }

// residentTokens returns the set of tokens held in voice slots.
func residentTokens(m *VoiceManager) map[Token]bool {
	out := make(map[Token]bool)
	for _, v := range m.Voices() {
		if v.Active {
			out[v.Token] = true
		}
	}
	return out
}

func slotOf(m *VoiceManager, token Token) int {
	for i, v := range m.Voices() {
		if v.Active && v.Token == token {
			return i
		}
	}
	return -1
}

func newTestRender(t testing.TB, cfg Config) (*Render, *protocol.Queue[protocol.AudioMessage], *protocol.Queue[protocol.FeedbackMessage]) {
	t.Helper()
	control := protocol.NewQueue[protocol.AudioMessage](cfg.ControlQueue)
	feedback := protocol.NewQueue[protocol.FeedbackMessage](cfg.FeedbackQueue)
	r, err := NewRender(cfg, control, feedback, nil)
	if err != nil {
		t.Fatalf("NewRender: %v", err)
	}
	for i, cc := range cfg.Channels {
		if err := r.InsertChannelConfig(i, cc); err != nil {
			t.Fatalf("insert channel %d: %v", i, err)
		}
	}
	return r, control, feedback
}

// drainLogs returns the text of every Log feedback message, discarding the
// rest.
func drainLogs(q *protocol.Queue[protocol.FeedbackMessage]) []string {
	var out []string
	for {
		m, ok := q.Pop()
		if !ok {
			return out
		}
		if m.Kind == protocol.FeedbackLog {
			out = append(out, m.Text())
		}
	}
}
