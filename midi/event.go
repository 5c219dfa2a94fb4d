package midi

import gomidi "gitlab.com/gomidi/midi/v2"

// MIDI message types
const (
	NoteOn    uint8 = 0x90
	NoteOff   uint8 = 0x80
	CC        uint8 = 0xB0
	PitchBend uint8 = 0xE0
)

// Expression is the controller that carries a voice's amplitude
const Expression uint8 = 11

// Event is one outgoing channel message
type Event struct {
	Type       uint8 // NoteOn, NoteOff, CC, PitchBend
	Channel    uint8 // 0-15
	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
	Bend       int16
}

// Message encodes e for the wire
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Controller, e.Value)
	case PitchBend:
		return gomidi.Pitchbend(e.Channel, e.Bend)
	}
	return nil
}
