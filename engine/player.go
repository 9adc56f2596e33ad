// Package engine contains the playback engine: the play/stop lifecycle, the
// look-ahead scheduling loop that turns a groove into sample-accurate synth
// triggers, the metronome overlay and the notification broker.
package engine

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	groovekit "github.com/groovekit/groovekit"
)

type (
	State int

	// SyncMode picks the reference point of a note within its sixteenth note
	// cell. It shifts the audio trigger only, never the logical grid
	// position.
	SyncMode int

	// Player is the playback engine. It owns the play/stop lifecycle and the
	// look-ahead scheduling loop: a high-frequency pass converts upcoming
	// hits into absolute synth-clock triggers a short window ahead of the
	// clock, and a separate lower-frequency pass walks backward from the
	// clock to derive the playhead position for the host. Both run on one
	// goroutine started by Play; all methods are safe to call from the host
	// goroutine.
	Player struct {
		mutex  sync.Mutex
		broker *Broker
		synth  groovekit.Synth

		state   State
		groove  groovekit.Groove
		pending *groovekit.Groove // staged hot-swap, applied at the loop boundary
		loop    bool

		// startTime is the synth-clock time of the first note of the
		// repetition being scheduled. On a loop boundary it advances by
		// exactly one repetition duration, never resets to "now", so
		// repetitions stay drift-free. It runs up to a look-ahead window
		// ahead of what is audible.
		startTime      float64
		nextNote       int
		clicks         []click
		nextClick      int
		countIn        []click
		countInBase    float64
		nextCountIn    int
		rotation       int // measures played since Play, for the rotating click offset
		scheduledUntil float64

		// audibleStart and audibleGroove are the playhead's reference: the
		// start time and content of the repetition currently sounding. They
		// trail startTime, advancing only when the clock actually crosses a
		// repetition boundary, so position indices run to the last step
		// before wrapping. swapNotify holds a completed groove swap until
		// that crossing makes it audible.
		audibleStart  float64
		audibleGroove groovekit.Groove
		swapNotify    *groovekit.Groove

		syncMode SyncMode
		met      MetronomeConfig

		lastPos  int
		done     chan struct{}
		noTicker bool // tests drive schedulePass/positionPass manually
	}
)

const (
	StateStopped State = iota
	StatePlaying
	StateDisposed
)

const (
	SyncStart SyncMode = iota
	SyncMiddle
	SyncEnd
)

const (
	// scheduleInterval is how often the look-ahead pass runs; scheduleAhead
	// is how far past the clock it schedules. The window must comfortably
	// exceed the interval or late passes cause audible gaps.
	scheduleInterval = 25 * time.Millisecond
	scheduleAhead    = 0.12

	// positionInterval paces the playhead notifications. It is deliberately
	// coarser than scheduleInterval; UI frame rate must not dictate audio
	// precision.
	positionInterval = 50 * time.Millisecond

	// startDelay is the gap between Play and the first scheduled note, so
	// the first look-ahead pass never schedules into the past.
	startDelay = 0.06
)

func NewPlayer(broker *Broker, synth groovekit.Synth) *Player {
	return &Player{
		broker:  broker,
		synth:   synth,
		met:     MetronomeConfig{Frequency: 0, OffsetClick: OffsetClick1, Volume: 75},
		lastPos: -1,
	}
}

// Play starts playing the groove from its first note, optionally looping.
// Returns false, leaving the player stopped, when the groove is invalid or
// the audio output cannot be resumed; the host should retry after a
// qualifying user gesture. Calling Play while already playing stops the
// current playback first and restarts cleanly.
func (p *Player) Play(groove *groovekit.Groove, loop bool) bool {
	p.mutex.Lock()
	if p.state == StateDisposed {
		p.mutex.Unlock()
		return false
	}
	wasPlaying := p.state == StatePlaying
	var superseded *groovekit.Groove
	if wasPlaying {
		superseded = p.stopLocked()
	}
	if err := groove.Validate(); err != nil {
		p.mutex.Unlock()
		if wasPlaying {
			p.notifyStopped()
			if superseded != nil {
				p.broker.notifyGroove(*superseded)
			}
		}
		p.broker.Alert("InvalidGroove", fmt.Sprintf("cannot play groove: %v", err), Error)
		return false
	}
	if err := p.synth.Resume(); err != nil {
		p.mutex.Unlock()
		if wasPlaying {
			p.notifyStopped()
			if superseded != nil {
				p.broker.notifyGroove(*superseded)
			}
		}
		p.broker.Alert("AudioUnavailable", fmt.Sprintf("cannot resume audio: %v", err), Error)
		return false
	}
	p.groove = groove.Copy()
	p.pending = nil
	p.loop = loop
	p.rotation = 0
	now := p.synth.Now()
	p.scheduledUntil = now
	p.startTime = now + startDelay
	p.countIn = nil
	p.nextCountIn = 0
	if p.met.CountIn {
		p.countInBase = p.startTime
		p.countIn = countInClicks(&p.groove)
		ts := p.groove.Measures[0].Effective(p.groove.TimeSignature)
		p.startTime += groovekit.MeasureDuration(p.groove.Tempo, ts)
	}
	p.clicks = metronomeClicks(&p.groove, p.met, p.rotation)
	p.nextNote = 0
	p.nextClick = 0
	p.audibleStart = p.startTime
	p.audibleGroove = p.groove.Copy()
	p.swapNotify = nil
	p.lastPos = 0
	p.state = StatePlaying
	p.done = make(chan struct{})
	if !p.noTicker {
		go p.run(p.done)
	}
	p.mutex.Unlock()
	if wasPlaying {
		p.broker.notifyPlayback(false)
		if superseded != nil {
			p.broker.Alert("GrooveUpdateSuperseded", "staged groove update superseded by a new playback", Info)
		}
	}
	p.broker.notifyPlayback(true)
	p.broker.notifyPosition(0)
	return true
}

// Stop stops playback, cancels every scheduled-but-unfired hit and resets
// the position to -1. Hits already sounding decay naturally. A staged groove
// update is applied immediately, as there is no running loop to wait for.
func (p *Player) Stop() {
	p.mutex.Lock()
	if p.state != StatePlaying {
		p.mutex.Unlock()
		return
	}
	swapped := p.stopLocked()
	p.mutex.Unlock()
	p.notifyStopped()
	if swapped != nil {
		p.broker.notifyGroove(*swapped)
	}
}

// stopLocked does the state transition and returns the newly applied groove
// if a staged update completed. Notifications are the caller's job, outside
// the lock.
func (p *Player) stopLocked() (swapped *groovekit.Groove) {
	p.state = StateStopped
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	p.synth.CancelScheduled()
	p.lastPos = -1
	if p.pending != nil {
		p.groove = *p.pending
		p.pending = nil
		g := p.groove.Copy()
		swapped = &g
	} else if p.swapNotify != nil {
		// swapped at a scheduler boundary that never became audible
		swapped = p.swapNotify
	}
	p.swapNotify = nil
	return swapped
}

func (p *Player) notifyStopped() {
	p.broker.notifyPosition(-1)
	p.broker.notifyPlayback(false)
}

// UpdateGroove replaces the groove being played. When stopped the swap is
// immediate. When playing the new groove is staged and applied atomically at
// the start of the next repetition, so notes already scheduled within the
// current repetition are never altered and nothing snaps audibly mid-bar.
func (p *Player) UpdateGroove(groove *groovekit.Groove) error {
	if err := groove.Validate(); err != nil {
		p.broker.Alert("InvalidGroove", fmt.Sprintf("groove update rejected: %v", err), Error)
		return fmt.Errorf("groove update rejected: %w", err)
	}
	p.mutex.Lock()
	if p.state == StateDisposed {
		p.mutex.Unlock()
		return fmt.Errorf("player is disposed")
	}
	g := groove.Copy()
	if p.state == StatePlaying {
		p.pending = &g
		p.mutex.Unlock()
		p.broker.Alert("GrooveUpdatePending", "groove update staged for the next repetition", Info)
		return nil
	}
	p.groove = g
	notify := g.Copy()
	p.mutex.Unlock()
	p.broker.notifyGroove(notify)
	return nil
}

// Dispose permanently shuts the player down: playback stops, the audio
// output is released if the synth owns one, and every later call is a no-op.
func (p *Player) Dispose() {
	p.mutex.Lock()
	if p.state == StateDisposed {
		p.mutex.Unlock()
		return
	}
	wasPlaying := p.state == StatePlaying
	if wasPlaying {
		p.stopLocked()
	}
	p.state = StateDisposed
	p.mutex.Unlock()
	if wasPlaying {
		p.notifyStopped()
	}
	if closer, ok := p.synth.(io.Closer); ok {
		closer.Close()
	}
}

// PlayPreview plays a single one-shot hit of the voice as soon as possible,
// independent of the scheduling loop and of the playback state.
func (p *Player) PlayPreview(voice groovekit.Voice) {
	p.mutex.Lock()
	disposed := p.state == StateDisposed
	p.mutex.Unlock()
	if disposed {
		return
	}
	p.synth.Trigger(voice, voice.DefaultVelocity(), 0)
}

func (p *Player) State() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.state
}

func (p *Player) SetSyncMode(mode SyncMode) {
	p.mutex.Lock()
	p.syncMode = mode
	p.mutex.Unlock()
}

func (p *Player) SyncMode() SyncMode {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.syncMode
}

// SetMetronomeConfig replaces the whole metronome configuration.
func (p *Player) SetMetronomeConfig(cfg MetronomeConfig) {
	p.mutex.Lock()
	if !ValidFrequency(cfg.Frequency) {
		p.mutex.Unlock()
		p.broker.Alert("InvalidMetronome", fmt.Sprintf("unsupported metronome frequency %d", cfg.Frequency), Warning)
		return
	}
	cfg.Volume = clampInt(cfg.Volume, 0, 100)
	p.met = cfg
	p.refreshClicksLocked()
	p.mutex.Unlock()
}

func (p *Player) MetronomeConfig() MetronomeConfig {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.met
}

func (p *Player) SetMetronomeFrequency(f int) {
	cfg := p.MetronomeConfig()
	cfg.Frequency = f
	p.SetMetronomeConfig(cfg)
}

func (p *Player) SetMetronomeSolo(solo bool) {
	cfg := p.MetronomeConfig()
	cfg.Solo = solo
	p.SetMetronomeConfig(cfg)
}

func (p *Player) SetMetronomeCountIn(countIn bool) {
	cfg := p.MetronomeConfig()
	cfg.CountIn = countIn
	p.SetMetronomeConfig(cfg)
}

func (p *Player) SetMetronomeOffsetClick(oc OffsetClick) {
	cfg := p.MetronomeConfig()
	cfg.OffsetClick = oc
	p.SetMetronomeConfig(cfg)
}

func (p *Player) SetMetronomeVolume(volume int) {
	cfg := p.MetronomeConfig()
	cfg.Volume = volume
	p.SetMetronomeConfig(cfg)
}

// refreshClicksLocked rebuilds the click stream after a metronome change
// mid-playback, skipping clicks at or before the already-scheduled horizon
// so nothing fires twice.
func (p *Player) refreshClicksLocked() {
	if p.state != StatePlaying {
		return
	}
	p.clicks = metronomeClicks(&p.groove, p.met, p.rotation)
	p.nextClick = 0
	for p.nextClick < len(p.clicks) && p.startTime+p.clicks[p.nextClick].offset <= p.scheduledUntil {
		p.nextClick++
	}
}

// run drives the two periodic passes until the done channel closes. The
// scheduling tick and the position tick are separate so that audio precision
// and UI pacing stay decoupled.
func (p *Player) run(done chan struct{}) {
	scheduleTicker := time.NewTicker(scheduleInterval)
	positionTicker := time.NewTicker(positionInterval)
	defer scheduleTicker.Stop()
	defer positionTicker.Stop()
	for {
		select {
		case <-done:
			return
		case <-scheduleTicker.C:
			p.schedulePass(p.synth.Now())
		case <-positionTicker.C:
			p.positionPass(p.synth.Now())
		}
	}
}

// schedulePass converts every hit falling inside the look-ahead window into
// an absolute-time synth trigger. Events are scheduled in ascending time
// order, merging the count-in, metronome and groove streams. At the loop
// boundary the start reference advances by exactly one repetition duration
// and a staged groove update, if any, is applied.
func (p *Player) schedulePass(now float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	horizon := now + scheduleAhead
	for p.state == StatePlaying {
		kind, t := p.nextEventLocked()
		if kind == eventNone || t > horizon {
			break
		}
		switch kind {
		case eventCountIn:
			c := p.countIn[p.nextCountIn]
			p.synth.Trigger(clickVoice(c.accent), clickVelocity(p.met, c.accent), t)
			p.nextCountIn++
		case eventClick:
			c := p.clicks[p.nextClick]
			p.synth.Trigger(clickVoice(c.accent), clickVelocity(p.met, c.accent), t)
			p.nextClick++
		case eventNote:
			if !p.met.Solo {
				for v := groovekit.Voice(0); int(v) < groovekit.NumVoices; v++ {
					if p.groove.Hit(v, p.nextNote) {
						p.synth.Trigger(v, v.DefaultVelocity(), t)
					}
				}
			}
			p.nextNote++
		}
		if t > p.scheduledUntil {
			p.scheduledUntil = t
		}
		if p.repetitionDoneLocked() {
			if !p.loop {
				break
			}
			p.advanceRepetitionLocked()
		}
	}
}

type eventKind int

const (
	eventNone eventKind = iota
	eventCountIn
	eventClick
	eventNote
)

// nextEventLocked returns the earliest unscheduled event across the three
// streams and its absolute synth-clock time.
func (p *Player) nextEventLocked() (eventKind, float64) {
	kind := eventNone
	best := math.Inf(1)
	if p.nextCountIn < len(p.countIn) {
		if t := p.countInBase + p.countIn[p.nextCountIn].offset; t < best {
			kind, best = eventCountIn, t
		}
	}
	if p.nextClick < len(p.clicks) {
		if t := p.startTime + p.clicks[p.nextClick].offset; t < best {
			kind, best = eventClick, t
		}
	}
	if p.nextNote < p.groove.TotalNotes() {
		if t := p.startTime + p.groove.NoteTime(p.nextNote) + p.syncOffsetLocked(); t < best {
			kind, best = eventNote, t
		}
	}
	return kind, best
}

func (p *Player) repetitionDoneLocked() bool {
	return p.nextNote >= p.groove.TotalNotes() &&
		p.nextClick >= len(p.clicks) &&
		p.nextCountIn >= len(p.countIn)
}

// advanceRepetitionLocked moves the scheduling reference one repetition
// forward and applies a staged groove swap. The swap is parked in swapNotify
// until the position side observes the clock crossing the boundary; the
// scheduler runs a look-ahead window early and must not announce swaps
// before they are audible.
func (p *Player) advanceRepetitionLocked() {
	duration := p.groove.Duration()
	p.rotation += len(p.groove.Measures)
	if p.pending != nil {
		p.groove = *p.pending
		p.pending = nil
		g := p.groove.Copy()
		p.swapNotify = &g
	}
	p.startTime += duration
	p.clicks = metronomeClicks(&p.groove, p.met, p.rotation)
	p.nextNote = 0
	p.nextClick = 0
}

// positionPass derives the current logical step by walking backward from the
// synth clock against the audible repetition and notifies listeners when it
// advances. The audible reference trails the scheduler's: it steps one
// repetition forward only when the clock actually crosses the boundary, so
// every index up to the last step is reported before the wrap to 0. It also
// ends a non-looping playback once the clock passes the last repetition.
func (p *Player) positionPass(now float64) {
	p.mutex.Lock()
	if p.state != StatePlaying {
		p.mutex.Unlock()
		return
	}
	elapsed := now - p.audibleStart
	if elapsed < 0 { // still counting in
		p.mutex.Unlock()
		return
	}
	duration := p.audibleGroove.Duration()
	if !p.loop && elapsed >= duration {
		swapped := p.stopLocked()
		p.mutex.Unlock()
		p.notifyStopped()
		if swapped != nil {
			p.broker.notifyGroove(*swapped)
		}
		return
	}
	var swapped *groovekit.Groove
	for elapsed >= duration {
		// the repetition the scheduler moved to is audible now
		p.audibleStart += duration
		p.audibleGroove = p.groove.Copy()
		if p.swapNotify != nil {
			swapped = p.swapNotify
			p.swapNotify = nil
		}
		elapsed -= duration
		duration = p.audibleGroove.Duration()
	}
	pos := p.positionAtLocked(elapsed)
	notify := pos != p.lastPos
	p.lastPos = pos
	p.mutex.Unlock()
	if swapped != nil {
		p.broker.notifyGroove(*swapped)
	}
	if notify {
		p.broker.notifyPosition(pos)
	}
}

// positionAtLocked returns the last step whose scheduled time is at or
// before the given offset within the audible repetition.
func (p *Player) positionAtLocked(offset float64) int {
	const epsilon = 1e-9
	pos := 0
	for note := p.audibleGroove.TotalNotes() - 1; note > 0; note-- {
		if p.audibleGroove.NoteTime(note) <= offset+epsilon {
			pos = note
			break
		}
	}
	return pos
}

// syncOffsetLocked returns the audio trigger offset of the active sync mode
// relative to the start of a sixteenth note cell.
func (p *Player) syncOffsetLocked() float64 {
	cell := groovekit.BeatDuration(p.groove.Tempo) / 4
	switch p.syncMode {
	case SyncMiddle:
		return cell / 2
	case SyncEnd:
		return cell
	}
	return 0
}

func clickVoice(accent bool) groovekit.Voice {
	if accent {
		return groovekit.ClickAccent
	}
	return groovekit.Click
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
