package perf

import (
	"math"
	"strings"
	"testing"

	groovekit "github.com/groovekit/groovekit"
)

// 120 bpm: one beat every 500 ms, full credit fades out across 125 ms.
const (
	tempo   = 120
	beatMs  = 500.0
	start   = 1000.0
	epsilon = 1e-9
)

func enabledTracker() (*Tracker, groovekit.Groove) {
	groove := groovekit.DefaultGroove()
	tracker := &Tracker{}
	tracker.Enable(&groove, tempo, start)
	return tracker, groove
}

func TestAnalyzeHitDisabled(t *testing.T) {
	tracker := &Tracker{}
	if analysis := tracker.AnalyzeHit(groovekit.Kick, start); analysis != nil {
		t.Fatalf("disabled tracker should return nil, got %+v", analysis)
	}
	tracker, _ = enabledTracker()
	tracker.Disable()
	if analysis := tracker.AnalyzeHit(groovekit.Kick, start); analysis != nil {
		t.Fatalf("tracker disabled again should return nil, got %+v", analysis)
	}
	if tracker.Enabled() {
		t.Errorf("Enabled() should be false after Disable")
	}
}

func TestAnalyzeHitInvalidVoice(t *testing.T) {
	tracker, _ := enabledTracker()
	if analysis := tracker.AnalyzeHit(groovekit.Voice(-1), start); analysis != nil {
		t.Fatalf("invalid voice should return nil, got %+v", analysis)
	}
	if tracker.Stats().TotalHits != 0 {
		t.Errorf("invalid hits must not count")
	}
}

func TestTimingAccuracy(t *testing.T) {
	tests := []struct {
		offset   float64 // ms from the nearest beat
		expected float64
	}{
		{0, 100},
		{beatMs / 8, 50},  // half the window off
		{beatMs / 4, 0},   // a full quarter beat off
		{beatMs / 2, 0},   // clamps at zero, never negative
		{-beatMs / 8, 50}, // early hits grade like late ones
	}
	for _, test := range tests {
		tracker, _ := enabledTracker()
		analysis := tracker.AnalyzeHit(groovekit.Kick, start+2*beatMs+test.offset)
		if analysis == nil {
			t.Fatalf("offset %v: no analysis", test.offset)
		}
		if math.Abs(analysis.TimingAccuracy-test.expected) > epsilon {
			t.Errorf("offset %v: timing = %v, expected %v", test.offset, analysis.TimingAccuracy, test.expected)
		}
	}
}

func TestNoteAccuracy(t *testing.T) {
	tracker, _ := enabledTracker()
	inPattern := tracker.AnalyzeHit(groovekit.Kick, start)
	if inPattern.NoteAccuracy != 80 {
		t.Errorf("voice in the pattern should grade 80, got %v", inPattern.NoteAccuracy)
	}
	outOfPattern := tracker.AnalyzeHit(groovekit.Cowbell, start)
	if outOfPattern.NoteAccuracy != 30 {
		t.Errorf("voice outside the pattern should grade 30, got %v", outOfPattern.NoteAccuracy)
	}

	unverified := &Tracker{}
	unverified.Enable(nil, tempo, start)
	if analysis := unverified.AnalyzeHit(groovekit.Kick, start); analysis.NoteAccuracy != 50 {
		t.Errorf("no reference groove should grade a neutral 50, got %v", analysis.NoteAccuracy)
	}
}

func TestOverallAndFeedback(t *testing.T) {
	tracker, _ := enabledTracker()
	perfect := tracker.AnalyzeHit(groovekit.Kick, start) // timing 100, note 80
	if math.Abs(perfect.Overall-90) > epsilon || perfect.Feedback != "Perfect!" {
		t.Errorf("on-beat pattern hit = %+v, expected overall 90 Perfect!", perfect)
	}
	miss := tracker.AnalyzeHit(groovekit.Cowbell, start+beatMs/4) // timing 0, note 30
	if math.Abs(miss.Overall-15) > epsilon || miss.Feedback != "Miss" {
		t.Errorf("off-beat stray hit = %+v, expected overall 15 Miss", miss)
	}
	great := tracker.AnalyzeHit(groovekit.Kick, start+beatMs/16) // timing 75, note 80
	if math.Abs(great.Overall-77.5) > epsilon || great.Feedback != "Great!" {
		t.Errorf("slightly late hit = %+v, expected overall 77.5 Great!", great)
	}
}

func TestStats(t *testing.T) {
	tracker, _ := enabledTracker()
	tracker.AnalyzeHit(groovekit.Kick, start)             // overall 90, accurate
	tracker.AnalyzeHit(groovekit.Cowbell, start+beatMs/4) // overall 15
	stats := tracker.Stats()
	if stats.TotalHits != 2 || stats.AccurateHits != 1 {
		t.Errorf("stats = %+v, expected 2 hits, 1 accurate", stats)
	}
	if math.Abs(stats.AverageScore-52.5) > epsilon {
		t.Errorf("average = %v, expected 52.5", stats.AverageScore)
	}
	if len(stats.TimingErrors) != 2 || math.Abs(stats.TimingErrors[1]-beatMs/4) > epsilon {
		t.Errorf("timing errors = %v", stats.TimingErrors)
	}

	// a new run zeroes everything
	groove := groovekit.DefaultGroove()
	tracker.Enable(&groove, tempo, start)
	if stats := tracker.Stats(); stats.TotalHits != 0 || stats.AverageScore != 0 {
		t.Errorf("Enable should reset statistics, got %+v", stats)
	}
}

func TestReport(t *testing.T) {
	tracker, _ := enabledTracker()
	if report := tracker.Report(); !strings.Contains(report, "No hits") {
		t.Errorf("empty report = %q", report)
	}
	tracker.AnalyzeHit(groovekit.Kick, start)
	report := tracker.Report()
	for _, expected := range []string{"Hits: 1", "Accurate: 1", "Average score: 90.0"} {
		if !strings.Contains(report, expected) {
			t.Errorf("report missing %q:\n%s", expected, report)
		}
	}
}
