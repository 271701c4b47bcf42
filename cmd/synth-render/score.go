package main

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-synth/protocol"
)

// bendRange is the pitch wheel range in semitones.
const bendRange = 2

// event is a control message scheduled at an absolute frame.
type event struct {
	frame int64
	msg   protocol.AudioMessage
}

// score is a time-ordered list of events.
type score struct {
	events []event
	// end is the frame of the last event.
	end int64
}

func (s *score) add(frame int64, msg protocol.AudioMessage) {
	s.events = append(s.events, event{frame: frame, msg: msg})
	s.end = max(s.end, frame)
}

func (s *score) sort() {
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].frame < s.events[j].frame })
}

// noteToken identifies a MIDI key on a channel.
func noteToken(channel, key uint8) protocol.Token {
	return protocol.Token(channel)<<8 | protocol.Token(key)
}

// singleNote plays one note on channel 0 and releases it after hold frames.
func singleNote(pitch, velocity float32, hold int64) *score {
	s := &score{}
	tok := noteToken(0, uint8(pitch))
	s.add(0, protocol.NoteOn(0, pitch, velocity, tok))
	s.add(hold, protocol.NoteOff(0, tok))
	return s
}

// readSMF converts a Standard MIDI File into a score. MIDI channels map 1:1
// onto engine channels; events for channels >= channels are dropped.
func readSMF(path string, sampleRate float64, channels int) (*score, int, error) {
	s := &score{}
	dropped := 0
	// held tracks the sounding keys per channel for pitch bend.
	held := make(map[uint8]map[uint8]bool)
	bend := make(map[uint8]float32)

	rd := smf.ReadTracks(path).Do(func(te smf.TrackEvent) {
		msg := midi.Message(te.Message)
		frame := te.AbsMicroSeconds * int64(sampleRate) / 1e6
		var ch, key, vel, cc, val uint8
		var rel int16
		var abs uint16
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			if int(ch) >= channels {
				dropped++
				return
			}
			if held[ch] == nil {
				held[ch] = make(map[uint8]bool)
			}
			held[ch][key] = true
			tok := noteToken(ch, key)
			s.add(frame, protocol.NoteOn(int(ch), float32(key), float32(vel)/127, tok))
			if b := bend[ch]; b != 0 {
				s.add(frame, protocol.Pitch(int(ch), b, tok))
			}
		case msg.GetNoteEnd(&ch, &key):
			if int(ch) >= channels {
				return
			}
			delete(held[ch], key)
			s.add(frame, protocol.NoteOff(int(ch), noteToken(ch, key)))
		case msg.GetControlChange(&ch, &cc, &val):
			if int(ch) >= channels {
				return
			}
			switch cc {
			case 64:
				s.add(frame, protocol.Sustain(int(ch), val >= 64))
			case 120, 123:
				s.add(frame, protocol.Panic())
			}
		case msg.GetPitchBend(&ch, &rel, &abs):
			if int(ch) >= channels {
				return
			}
			b := bendRange * float32(rel) / 8192
			bend[ch] = b
			for k := range held[ch] {
				s.add(frame, protocol.Pitch(int(ch), b, noteToken(ch, k)))
			}
		}
	})
	if err := rd.Error(); err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	s.sort()
	return s, dropped, nil
}
