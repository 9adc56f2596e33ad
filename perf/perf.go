// Package perf grades external drum hits against a reference groove: how
// close each hit lands to the nearest beat boundary and whether the played
// voice belongs to the pattern at all.
package perf

import (
	"fmt"
	"math"
	"strings"
	"sync"

	groovekit "github.com/groovekit/groovekit"
)

type (
	// Tracker accumulates hit analyses for one practice run. Enable replaces
	// all tracked state; Disable freezes it, keeping the statistics readable
	// until the next Enable.
	Tracker struct {
		mutex   sync.Mutex
		enabled bool
		groove  *groovekit.Groove
		tempo   int
		start   float64 // milliseconds, same clock domain as hit timestamps
		stats   Stats
	}

	// HitAnalysis grades a single hit. All accuracies are 0..100.
	HitAnalysis struct {
		TimingAccuracy float64
		NoteAccuracy   float64
		Overall        float64
		Feedback       string
	}

	// Stats are the running statistics of a practice run.
	Stats struct {
		TotalHits    int
		AccurateHits int // hits with Overall above the accuracy threshold
		TimingErrors []float64
		AverageScore float64
	}
)

// accurateThreshold is the Overall score above which a hit counts as
// accurate.
const accurateThreshold = 70

// Enable starts a practice run against the given groove and tempo, zeroing
// all statistics. start is the run's beat reference in milliseconds; hit
// timestamps are measured against it. groove may be nil, in which case note
// accuracy cannot be verified and grades neutrally.
func (t *Tracker) Enable(groove *groovekit.Groove, tempo int, start float64) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabled = true
	t.groove = nil
	if groove != nil {
		g := groove.Copy()
		t.groove = &g
	}
	t.tempo = tempo
	t.start = start
	t.stats = Stats{}
}

// Disable stops accepting hits. Statistics remain readable until the next
// Enable.
func (t *Tracker) Disable() {
	t.mutex.Lock()
	t.enabled = false
	t.mutex.Unlock()
}

func (t *Tracker) Enabled() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.enabled
}

// AnalyzeHit grades a hit of the given voice at the given millisecond
// timestamp. Returns nil, never an error, when the tracker is disabled or
// the voice is not a known drum voice.
func (t *Tracker) AnalyzeHit(voice groovekit.Voice, timestamp float64) *HitAnalysis {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.enabled || !voice.Valid() {
		return nil
	}
	timing := t.timingAccuracy(timestamp)
	note := t.noteAccuracy(voice)
	overall := (timing + note) / 2
	analysis := &HitAnalysis{
		TimingAccuracy: timing,
		NoteAccuracy:   note,
		Overall:        overall,
		Feedback:       feedback(overall),
	}
	t.stats.TotalHits++
	if overall > accurateThreshold {
		t.stats.AccurateHits++
	}
	n := float64(t.stats.TotalHits)
	t.stats.AverageScore = (t.stats.AverageScore*(n-1) + overall) / n
	return analysis
}

// timingAccuracy measures the deviation from the nearest beat boundary.
// Accuracy falls linearly to zero across a quarter beat window; anything
// further off scores zero.
func (t *Tracker) timingAccuracy(timestamp float64) float64 {
	beatDuration := 60000 / float64(t.tempo)
	elapsed := timestamp - t.start
	nearest := math.Round(elapsed/beatDuration) * beatDuration
	errMs := math.Abs(elapsed - nearest)
	accuracy := 100 - errMs/(beatDuration/4)*100
	t.stats.TimingErrors = append(t.stats.TimingErrors, errMs)
	return math.Max(0, accuracy)
}

// noteAccuracy grades whether the played voice belongs to the reference
// groove: 80 when the voice has hits in the pattern, 30 when it does not,
// and a neutral 50 when no pattern is loaded and nothing can be verified.
func (t *Tracker) noteAccuracy(voice groovekit.Voice) float64 {
	if t.groove == nil {
		return 50
	}
	if t.groove.VoiceHasHits(voice) {
		return 80
	}
	return 30
}

func feedback(overall float64) string {
	switch {
	case overall >= 90:
		return "Perfect!"
	case overall >= 75:
		return "Great!"
	case overall >= 60:
		return "Good"
	case overall >= 40:
		return "Keep trying"
	default:
		return "Miss"
	}
}

// Stats returns a copy of the running statistics.
func (t *Tracker) Stats() Stats {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	stats := t.stats
	stats.TimingErrors = append([]float64(nil), t.stats.TimingErrors...)
	return stats
}

// Report formats the run statistics as readable text.
func (t *Tracker) Report() string {
	stats := t.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "Hits: %d\n", stats.TotalHits)
	if stats.TotalHits == 0 {
		b.WriteString("No hits analyzed.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Accurate: %d (%.0f%%)\n", stats.AccurateHits, float64(stats.AccurateHits)/float64(stats.TotalHits)*100)
	fmt.Fprintf(&b, "Average score: %.1f\n", stats.AverageScore)
	sum := 0.0
	for _, e := range stats.TimingErrors {
		sum += e
	}
	fmt.Fprintf(&b, "Average timing error: %.1f ms\n", sum/float64(len(stats.TimingErrors)))
	return b.String()
}
