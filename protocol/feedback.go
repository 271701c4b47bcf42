package protocol

import (
	"log/slog"
	"strconv"
)

// FeedbackKind tags a FeedbackMessage.
type FeedbackKind uint8

const (
	FeedbackCpu FeedbackKind = iota + 1
	FeedbackMeter
	FeedbackLog
)

// Level is the severity of a Log feedback message.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Slog maps the level onto the slog scale.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogTextSize is the longest log text a FeedbackMessage carries. Longer
// text is truncated.
const LogTextSize = 96

// FeedbackMessage is an audio-to-control report. Log text is stored inline
// so building a message on the audio thread does not allocate.
type FeedbackMessage struct {
	Kind  FeedbackKind
	Level Level

	// Load is the CPU load of the last block (Cpu).
	Load float32
	// Left and Right are peak levels (Meter).
	Left, Right float32

	n    uint8
	text [LogTextSize]byte
}

// Cpu reports the ratio of processing time to real time for one block.
func Cpu(load float32) FeedbackMessage {
	return FeedbackMessage{Kind: FeedbackCpu, Load: load}
}

// Meter reports master peak levels.
func Meter(left, right float32) FeedbackMessage {
	return FeedbackMessage{Kind: FeedbackMeter, Left: left, Right: right}
}

// Log builds a log line.
func Log(level Level, text string) FeedbackMessage {
	m := FeedbackMessage{Kind: FeedbackLog, Level: level}
	m.n = uint8(copy(m.text[:], text))
	return m
}

// LogInt builds a log line of the form "text v". The integer is always
// kept; the text is truncated to make room for it.
func LogInt(level Level, text string, v int) FeedbackMessage {
	m := FeedbackMessage{Kind: FeedbackLog, Level: level}
	const room = 21 // separator plus the widest int64
	n := copy(m.text[:LogTextSize-room], text)
	m.text[n] = ' '
	n++
	out := strconv.AppendInt(m.text[n:n:LogTextSize], int64(v), 10)
	m.n = uint8(n + len(out))
	return m
}

// Text returns the log text. It allocates and is meant for the control
// thread.
func (m FeedbackMessage) Text() string {
	return string(m.text[:m.n])
}
