// Package midi wraps gitlab.com/gomidi/midi/v2 with the tagged message
// variant, port pair, and panic primitive the sequencer engine depends on.
package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind tags the variant carried by a Message.
type Kind int

const (
	KindOther Kind = iota
	KindNoteOn
	KindNoteOff
	KindControlChange
	KindProgramChange
	KindPitchWheel
)

// Message is the tagged variant the engine operates on in place of
// gomidi's duck-typed midi.Message. Raw is retained so a Message can
// always be re-sent even if it doesn't match one of the known kinds.
type Message struct {
	Kind    Kind
	Channel uint8
	Note    uint8 // NoteOn/NoteOff
	Velocity uint8 // NoteOn/NoteOff
	Control uint8 // ControlChange
	Value   uint8 // ControlChange
	Program uint8 // ProgramChange
	Pitch   int16 // PitchWheel

	Raw gomidi.Message
}

// NoteOn builds a Note On message.
func NoteOn(channel, note, velocity uint8) Message {
	return Message{Kind: KindNoteOn, Channel: channel, Note: note, Velocity: velocity, Raw: gomidi.NoteOn(channel, note, velocity)}
}

// NoteOff builds a Note Off message.
func NoteOff(channel, note uint8) Message {
	return Message{Kind: KindNoteOff, Channel: channel, Note: note, Raw: gomidi.NoteOff(channel, note)}
}

// ControlChange builds a Control Change message.
func ControlChange(channel, control, value uint8) Message {
	return Message{Kind: KindControlChange, Channel: channel, Control: control, Value: value, Raw: gomidi.ControlChange(channel, control, value)}
}

// ProgramChange builds a Program Change message.
func ProgramChange(channel, program uint8) Message {
	return Message{Kind: KindProgramChange, Channel: channel, Program: program, Raw: gomidi.ProgramChange(channel, program)}
}

// PitchWheel builds a Pitch Wheel message. pitch is the relative value,
// -8192..8191, matching gomidi's Pitchbend signature.
func PitchWheel(channel uint8, pitch int16) Message {
	return Message{Kind: KindPitchWheel, Channel: channel, Pitch: pitch, Raw: gomidi.Pitchbend(channel, pitch)}
}

// WithChannel returns a copy of m rewritten to channel ch. Used by the
// Recorder to remap inbound events onto a track's assigned channel.
// KindOther messages are returned unchanged.
func (m Message) WithChannel(ch uint8) Message {
	switch m.Kind {
	case KindNoteOn:
		return NoteOn(ch, m.Note, m.Velocity)
	case KindNoteOff:
		return NoteOff(ch, m.Note)
	case KindControlChange:
		return ControlChange(ch, m.Control, m.Value)
	case KindProgramChange:
		return ProgramChange(ch, m.Program)
	case KindPitchWheel:
		return PitchWheel(ch, m.Pitch)
	default:
		return m
	}
}

// FromGoMidi decodes a gomidi.Message into our tagged variant. Messages
// that don't match one of the known kinds come back as KindOther with
// Raw populated so they can still be forwarded unmodified.
func FromGoMidi(raw gomidi.Message) Message {
	var ch, note, vel, ctrl, val, prog uint8
	var relPitch, absPitch int16

	switch {
	case raw.GetNoteOn(&ch, &note, &vel):
		if vel == 0 {
			return NoteOff(ch, note)
		}
		return NoteOn(ch, note, vel)
	case raw.GetNoteOff(&ch, &note, &vel):
		return NoteOff(ch, note)
	case raw.GetControlChange(&ch, &ctrl, &val):
		return ControlChange(ch, ctrl, val)
	case raw.GetProgramChange(&ch, &prog):
		return ProgramChange(ch, prog)
	case raw.GetPitchBend(&ch, &relPitch, &absPitch):
		return PitchWheel(ch, relPitch)
	default:
		return Message{Kind: KindOther, Raw: raw}
	}
}
