package midi

import (
	"sync"

	groovekit "github.com/groovekit/groovekit"
)

type (
	// Hit is a logical drum voice event produced from external input. The
	// timestamp is in milliseconds, in whatever clock domain the input
	// collaborator uses; consumers only ever compare hit timestamps against
	// reference points from the same domain.
	Hit struct {
		Voice     groovekit.Voice
		Velocity  float64 // 0..1
		Timestamp float64 // milliseconds
	}

	// Hub turns raw MIDI messages into voice hits and broadcasts them to any
	// number of listeners. Visual feedback and performance tracking both
	// consume the same hits, so this is a listener list, not a single
	// callback slot. With through mode enabled, hits additionally trigger
	// the synth as soon as possible; external input is inherently real-time
	// and bypasses the pattern scheduler's look-ahead window.
	Hub struct {
		mutex     sync.Mutex
		kit       Kit
		through   bool
		synth     groovekit.Synth
		listeners map[int]func(Hit)
		nextID    int
	}
)

// NewHub creates a hub with the given kit name. synth may be nil if through
// playback is never used.
func NewHub(kitName string, synth groovekit.Synth) *Hub {
	return &Hub{
		kit:       KitByName(kitName),
		synth:     synth,
		listeners: make(map[int]func(Hit)),
	}
}

// SetKit atomically replaces the note table. Messages fed after the call use
// the new table; no event straddles the switch.
func (h *Hub) SetKit(name string) {
	kit := KitByName(name)
	h.mutex.Lock()
	h.kit = kit
	h.mutex.Unlock()
}

// Kit returns the name of the active kit.
func (h *Hub) Kit() string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.kit.Name
}

// SetThrough enables or disables direct synth playback of incoming hits.
func (h *Hub) SetThrough(through bool) {
	h.mutex.Lock()
	h.through = through
	h.mutex.Unlock()
}

func (h *Hub) Through() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.through
}

// OnHit subscribes to voice hits. Returns an unsubscribe function.
func (h *Hub) OnHit(fn func(Hit)) func() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mutex.Lock()
		delete(h.listeners, id)
		h.mutex.Unlock()
	}
}

// Feed processes one raw MIDI message stamped with a millisecond timestamp.
// Note-ons that map to a voice become hits; everything else (note-offs,
// control changes, unknown statuses, unmapped notes, short messages) is
// dropped silently. Messages are processed in arrival order; there is no
// batching or reordering.
func (h *Hub) Feed(msg []byte, timestamp float64) {
	event, ok := Parse(msg)
	if !ok || event.Kind != NoteOn {
		return
	}
	h.mutex.Lock()
	voice, mapped := h.kit.Notes[event.Note]
	through := h.through
	synth := h.synth
	fns := make([]func(Hit), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mutex.Unlock()
	if !mapped {
		return
	}
	hit := Hit{Voice: voice, Velocity: float64(event.Value) / 127, Timestamp: timestamp}
	if through && synth != nil {
		synth.Trigger(hit.Voice, hit.Velocity, 0)
	}
	for _, fn := range fns {
		fn(hit)
	}
}
