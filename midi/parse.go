// Package midi maps raw MIDI input onto drum voices: a stateless message
// parser, swappable kit tables for the note numbers of common electronic
// kits, and a hub that broadcasts voice hits to any number of listeners.
package midi

type (
	// EventKind classifies a parsed MIDI message.
	EventKind int

	// Event is a parsed 3-byte MIDI message. For note events Note is the raw
	// note number and Value the velocity; for control changes Note is the
	// controller number and Value the controller value.
	Event struct {
		Kind    EventKind
		Channel byte
		Note    byte
		Value   byte
	}
)

const (
	NoteOn EventKind = iota
	NoteOff
	ControlChange
)

const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusControlChange = 0xB0
)

// Parse classifies a raw MIDI message by the high nibble of its status byte.
// Note-on with velocity zero is reinterpreted as note-off, per the MIDI
// running status convention. Messages that are too short or of any other
// class return ok false; real-time input is full of messages the pipeline
// does not care about, so this is not an error condition.
func Parse(msg []byte) (event Event, ok bool) {
	if len(msg) < 3 {
		return Event{}, false
	}
	status := msg[0] & 0xF0
	channel := msg[0] & 0x0F
	switch status {
	case statusNoteOn:
		kind := NoteOn
		if msg[2] == 0 {
			kind = NoteOff
		}
		return Event{Kind: kind, Channel: channel, Note: msg[1], Value: msg[2]}, true
	case statusNoteOff:
		return Event{Kind: NoteOff, Channel: channel, Note: msg[1], Value: msg[2]}, true
	case statusControlChange:
		return Event{Kind: ControlChange, Channel: channel, Note: msg[1], Value: msg[2]}, true
	}
	return Event{}, false
}
