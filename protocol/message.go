package protocol

import "fmt"

// Token correlates the events of one note. It is chosen by the caller and
// must be unique among the notes currently live on a channel.
type Token uint64

// Kind tags an AudioMessage.
type Kind uint8

const (
	KindNone Kind = iota
	KindNoteOn
	KindNoteOff
	KindPitch
	KindPressure
	KindParameter
	KindMute
	KindBypass
	KindReorderEffect
	KindPanic
	KindSustain
)

var kindNames = [...]string{
	KindNone:          "none",
	KindNoteOn:        "note-on",
	KindNoteOff:       "note-off",
	KindPitch:         "pitch",
	KindPressure:      "pressure",
	KindParameter:     "parameter",
	KindMute:          "mute",
	KindBypass:        "bypass",
	KindReorderEffect: "reorder-effect",
	KindPanic:         "panic",
	KindSustain:       "sustain",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// AudioMessage is a control-to-audio event. It is a flat value with no
// pointers, so queueing it never allocates. Which fields are meaningful
// depends on Kind:
//
//	NoteOn         Channel, Token, Value (pitch), Velocity
//	NoteOff        Channel, Token
//	Pitch          Channel, Token, Value (semitone offset)
//	Pressure       Channel, Token, Value
//	Parameter      Channel, Device, Param, Value
//	Mute, Sustain  Channel, Flag
//	Bypass         Channel, Device, Flag
//	ReorderEffect  Channel, Param (old index), Index (new index)
type AudioMessage struct {
	Kind     Kind
	Flag     bool
	Channel  int32
	Device   int32
	Param    int32
	Index    int32
	Token    Token
	Value    float32
	Velocity float32
}

// NoteOn starts a note at a fractional MIDI pitch with velocity in [0,1].
func NoteOn(channel int, pitch, velocity float32, token Token) AudioMessage {
	return AudioMessage{Kind: KindNoteOn, Channel: int32(channel), Value: pitch, Velocity: velocity, Token: token}
}

// NoteOff releases the note identified by token.
func NoteOff(channel int, token Token) AudioMessage {
	return AudioMessage{Kind: KindNoteOff, Channel: int32(channel), Token: token}
}

// Pitch bends a sounding note by offset semitones.
func Pitch(channel int, offset float32, token Token) AudioMessage {
	return AudioMessage{Kind: KindPitch, Channel: int32(channel), Value: offset, Token: token}
}

// Pressure sends per-note aftertouch.
func Pressure(channel int, value float32, token Token) AudioMessage {
	return AudioMessage{Kind: KindPressure, Channel: int32(channel), Value: value, Token: token}
}

// Parameter sets a device parameter. Device 0 is the channel instrument,
// device N >= 1 is effect N-1.
func Parameter(channel, device, param int, value float32) AudioMessage {
	return AudioMessage{Kind: KindParameter, Channel: int32(channel), Device: int32(device), Param: int32(param), Value: value}
}

// Mute starts a fade out (true) or in (false) of a channel.
func Mute(channel int, muted bool) AudioMessage {
	return AudioMessage{Kind: KindMute, Channel: int32(channel), Flag: muted}
}

// Bypass toggles an effect stage without resetting it.
func Bypass(channel, device int, bypassed bool) AudioMessage {
	return AudioMessage{Kind: KindBypass, Channel: int32(channel), Device: int32(device), Flag: bypassed}
}

// ReorderEffect moves the effect at from to position to.
func ReorderEffect(channel, from, to int) AudioMessage {
	return AudioMessage{Kind: KindReorderEffect, Channel: int32(channel), Param: int32(from), Index: int32(to)}
}

// Panic silences every channel.
func Panic() AudioMessage {
	return AudioMessage{Kind: KindPanic}
}

// Sustain sets the sustain pedal of a channel.
func Sustain(channel int, down bool) AudioMessage {
	return AudioMessage{Kind: KindSustain, Channel: int32(channel), Flag: down}
}
