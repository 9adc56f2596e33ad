package engine

import (
	"sync"

	groovekit "github.com/groovekit/groovekit"
)

type (
	// Broker fans engine notifications out to any number of subscribers. The
	// same event legitimately has several independent consumers (a playhead
	// display and a performance tracker, for example), so every notification
	// is a listener list with subscribe/unsubscribe, not a single callback
	// slot. Callbacks run on the engine goroutine and must return promptly;
	// a late callback delays scheduling and causes audible glitches.
	Broker struct {
		mutex     sync.Mutex
		nextID    int
		playback  map[int]func(playing bool)
		positions map[int]func(index int)
		grooves   map[int]func(groove groovekit.Groove)
		alerts    map[int]func(alert Alert)
	}

	// Alert is a non-fatal diagnostic from the engine: a rejected edit, a
	// playback problem, a staged groove swap. Nothing in the engine aborts
	// the process; the host decides whether to surface alerts to a user.
	Alert struct {
		Name     string
		Message  string
		Priority AlertPriority
	}

	AlertPriority int
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

func NewBroker() *Broker {
	return &Broker{
		playback:  make(map[int]func(bool)),
		positions: make(map[int]func(int)),
		grooves:   make(map[int]func(groovekit.Groove)),
		alerts:    make(map[int]func(Alert)),
	}
}

// OnPlaybackState subscribes to playback-state-changed notifications, fired
// on every start and stop. Returns an unsubscribe function.
func (b *Broker) OnPlaybackState(fn func(playing bool)) func() {
	return subscribe(b, b.playback, fn)
}

// OnPosition subscribes to position-changed notifications. The index is the
// current logical step of the playhead, or -1 when nothing is playing.
func (b *Broker) OnPosition(fn func(index int)) func() {
	return subscribe(b, b.positions, fn)
}

// OnGroove subscribes to groove-changed notifications, fired when a hot-swap
// has completed and the given groove is the one being scheduled.
func (b *Broker) OnGroove(fn func(groove groovekit.Groove)) func() {
	return subscribe(b, b.grooves, fn)
}

// OnAlert subscribes to engine diagnostics.
func (b *Broker) OnAlert(fn func(alert Alert)) func() {
	return subscribe(b, b.alerts, fn)
}

// Alert broadcasts a diagnostic to all alert subscribers.
func (b *Broker) Alert(name, message string, priority AlertPriority) {
	for _, fn := range snapshot(b, b.alerts) {
		fn(Alert{Name: name, Message: message, Priority: priority})
	}
}

func (b *Broker) notifyPlayback(playing bool) {
	for _, fn := range snapshot(b, b.playback) {
		fn(playing)
	}
}

func (b *Broker) notifyPosition(index int) {
	for _, fn := range snapshot(b, b.positions) {
		fn(index)
	}
}

func (b *Broker) notifyGroove(groove groovekit.Groove) {
	for _, fn := range snapshot(b, b.grooves) {
		fn(groove)
	}
}

func subscribe[T any](b *Broker, m map[int]T, fn T) func() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	id := b.nextID
	b.nextID++
	m[id] = fn
	return func() {
		b.mutex.Lock()
		delete(m, id)
		b.mutex.Unlock()
	}
}

// snapshot copies the current listeners so notifications run without holding
// the broker mutex; a listener may subscribe or unsubscribe from within its
// callback.
func snapshot[T any](b *Broker, m map[int]T) []T {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	fns := make([]T, 0, len(m))
	for _, fn := range m {
		fns = append(fns, fn)
	}
	return fns
}
