package engine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/protocol"
)

// Token correlates the events of one note. The caller keeps it unique among
// the notes that are sounding or queued on an instrument.
type Token = protocol.Token

// StealPolicy picks the key-down voice to pre-empt when every slot is held.
type StealPolicy int

const (
	// StealOldest takes the earliest triggered held voice.
	StealOldest StealPolicy = iota
	// StealNearestPitch takes the held voice closest in pitch to the new note.
	StealNearestPitch
)

func (p StealPolicy) String() string {
	switch p {
	case StealOldest:
		return "oldest"
	case StealNearestPitch:
		return "nearest"
	default:
		return fmt.Sprintf("steal(%d)", int(p))
	}
}

// ParseStealPolicy maps a config name onto a policy. The empty string is
// StealOldest.
func ParseStealPolicy(s string) (StealPolicy, error) {
	switch s {
	case "", "oldest":
		return StealOldest, nil
	case "nearest", "nearest-pitch":
		return StealNearestPitch, nil
	default:
		return StealOldest, fmt.Errorf("steal policy must be oldest or nearest: %q", s)
	}
}

// Voice is the allocation record of one instrument slot.
type Voice struct {
	Token    Token
	Pitch    float32
	Bend     float32
	Velocity float32
	KeyDown  bool
	Active   bool
	// Age is stamped at note-on and at release; lower is older.
	Age uint64
}

// PreemptCapacity bounds the queue of held voices that were stolen and can
// be revived.
const PreemptCapacity = 8

// MuteState is the state of the mute gain ramp.
type MuteState int

const (
	MuteActive MuteState = iota
	MuteTransition
	MuteOff
)

func (s MuteState) String() string {
	switch s {
	case MuteActive:
		return "active"
	case MuteTransition:
		return "transition"
	default:
		return "off"
	}
}

const (
	muteRampMs  = 5
	muteEpsilon = 1e-4
)

// VoiceManager maps tokens onto the slots of one instrument.
type VoiceManager struct {
	inst   device.Instrument
	voices []Voice
	policy StealPolicy

	// queue is a ring of pre-empted held voices, newest at head-1.
	queue [PreemptCapacity]Voice
	head  int
	count int

	sustain bool
	clock   uint64

	mute      MuteState
	muted     bool
	muteGain  float32
	muteCoeff float32
}

// NewVoiceManager sizes the voice array to the instrument's polyphony.
func NewVoiceManager(inst device.Instrument, sampleRate float64, policy StealPolicy) *VoiceManager {
	return &VoiceManager{
		inst:      inst,
		voices:    make([]Voice, inst.VoiceCount()),
		policy:    policy,
		muteGain:  1,
		muteCoeff: float32(1 - math.Exp(-1/dsp.MsToSamples(muteRampMs, sampleRate))),
	}
}

// Instrument returns the managed instrument.
func (m *VoiceManager) Instrument() device.Instrument { return m.inst }

// Voices exposes the slot records for inspection.
func (m *VoiceManager) Voices() []Voice { return m.voices }

// Queued returns the number of pre-empted voices awaiting revival.
func (m *VoiceManager) Queued() int { return m.count }

// Policy returns the steal policy.
func (m *VoiceManager) Policy() StealPolicy { return m.policy }

// SetPolicy changes the steal policy for subsequent note-ons.
func (m *VoiceManager) SetPolicy(p StealPolicy) { m.policy = p }

// MuteState returns the state of the mute ramp.
func (m *VoiceManager) MuteState() MuteState { return m.mute }

func (m *VoiceManager) tick() uint64 {
	m.clock++
	return m.clock
}

func (m *VoiceManager) resident(token Token) int {
	for i := range m.voices {
		if m.voices[i].Active && m.voices[i].Token == token {
			return i
		}
	}
	return -1
}

// NoteOn starts a note, stealing a slot if needed.
func (m *VoiceManager) NoteOn(token Token, pitch, velocity float32) {
	if m.muted {
		return
	}
	if s := m.resident(token); s >= 0 {
		m.install(s, Voice{Token: token, Pitch: pitch, Velocity: velocity})
		return
	}
	m.unqueue(token)

	held, released := -1, -1
	for i := range m.voices {
		v := &m.voices[i]
		if v.KeyDown {
			if held < 0 || m.better(i, held, pitch) {
				held = i
			}
			continue
		}
		if released < 0 || m.freer(i, released) {
			released = i
		}
	}
	slot := released
	if slot < 0 {
		slot = held
		m.enqueue(m.voices[slot])
	}
	m.install(slot, Voice{Token: token, Pitch: pitch, Velocity: velocity})
}

// better reports whether held slot i is a better steal candidate than j.
// Ties keep j, the lower index.
func (m *VoiceManager) better(i, j int, pitch float32) bool {
	a, b := &m.voices[i], &m.voices[j]
	if m.policy == StealNearestPitch {
		return absf(a.Pitch-pitch) < absf(b.Pitch-pitch)
	}
	return a.Age < b.Age
}

// freer reports whether released slot i should be reused before j: silent
// slots first, then the oldest release.
func (m *VoiceManager) freer(i, j int) bool {
	si, sj := !m.inst.VoiceActive(i), !m.inst.VoiceActive(j)
	if si != sj {
		return si
	}
	return m.voices[i].Age < m.voices[j].Age
}

func (m *VoiceManager) install(slot int, v Voice) {
	v.KeyDown = true
	v.Active = true
	v.Bend = 0
	v.Age = m.tick()
	m.voices[slot] = v
	m.inst.NoteOn(slot, v.Pitch, v.Velocity)
}

func (m *VoiceManager) enqueue(v Voice) {
	if m.count == PreemptCapacity {
		m.count--
	}
	m.queue[m.head] = v
	m.head = (m.head + 1) % PreemptCapacity
	m.count++
}

func (m *VoiceManager) pop() (Voice, bool) {
	if m.count == 0 {
		return Voice{}, false
	}
	m.head = (m.head + PreemptCapacity - 1) % PreemptCapacity
	m.count--
	return m.queue[m.head], true
}

// unqueue drops token from the pre-emption queue, keeping the order of the
// remaining entries.
func (m *VoiceManager) unqueue(token Token) bool {
	n := m.count
	oldest := (m.head + PreemptCapacity - n) % PreemptCapacity
	kept := 0
	found := false
	for k := 0; k < n; k++ {
		v := m.queue[(oldest+k)%PreemptCapacity]
		if v.Token == token && !found {
			found = true
			continue
		}
		m.queue[(oldest+kept)%PreemptCapacity] = v
		kept++
	}
	if found {
		m.count = kept
		m.head = (oldest + kept) % PreemptCapacity
	}
	return found
}

// NoteOff releases the note, or revives the most recently pre-empted voice
// in its slot.
func (m *VoiceManager) NoteOff(token Token) {
	s := m.resident(token)
	if s < 0 {
		m.unqueue(token)
		return
	}
	if v, ok := m.pop(); ok {
		m.install(s, v)
		return
	}
	v := &m.voices[s]
	v.KeyDown = false
	v.Age = m.tick()
	if !m.sustain {
		v.Active = false
		m.inst.NoteOff(s)
	}
}

// Pitch applies a pitch offset in semitones to a sounding note.
func (m *VoiceManager) Pitch(token Token, offset float32) {
	if s := m.resident(token); s >= 0 {
		v := &m.voices[s]
		v.Bend = offset
		m.inst.SetPitch(s, v.Pitch+offset)
	}
}

// Pressure forwards aftertouch to a sounding note.
func (m *VoiceManager) Pressure(token Token, value float32) {
	if s := m.resident(token); s >= 0 {
		m.inst.SetPressure(s, value)
	}
}

// Sustain sets the pedal. Releasing it ends every note whose key is up.
func (m *VoiceManager) Sustain(down bool) {
	m.sustain = down
	if down {
		return
	}
	for i := range m.voices {
		v := &m.voices[i]
		if v.Active && !v.KeyDown {
			v.Active = false
			m.inst.NoteOff(i)
		}
	}
}

// AllNotesOff releases every active voice and forgets all state.
func (m *VoiceManager) AllNotesOff() {
	for i := range m.voices {
		if m.voices[i].Active {
			m.inst.NoteOff(i)
		}
		m.voices[i] = Voice{}
	}
	m.head, m.count = 0, 0
	m.sustain = false
}

// Flush is AllNotesOff plus an instrument reset.
func (m *VoiceManager) Flush() {
	m.AllNotesOff()
	m.inst.Flush()
}

// SetMute starts a ramp toward silence or back to full level.
func (m *VoiceManager) SetMute(muted bool) {
	if muted == m.muted {
		return
	}
	m.muted = muted
	m.mute = MuteTransition
}

// Process renders the instrument into buf and applies the mute ramp.
func (m *VoiceManager) Process(buf []float32) {
	if m.mute == MuteOff {
		return
	}
	m.inst.Process(buf)
	if m.mute == MuteTransition {
		target := float32(1)
		if m.muted {
			target = 0
		}
		for i := 0; i+1 < len(buf); i += 2 {
			if m.mute == MuteTransition {
				m.muteGain += m.muteCoeff * (target - m.muteGain)
				if absf(m.muteGain-target) < muteEpsilon {
					m.muteGain = target
					m.mute = MuteActive
					if m.muted {
						m.mute = MuteOff
					}
				}
			}
			buf[i] *= m.muteGain
			buf[i+1] *= m.muteGain
		}
		if m.mute == MuteOff {
			m.Flush()
			// Resuming starts the ramp from silence.
			m.muteGain = 0
		}
	}
	for i := range m.voices {
		v := &m.voices[i]
		if v.Active && !m.inst.VoiceActive(i) {
			v.Active = false
			v.KeyDown = false
		}
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
