package engine

import (
	"math"
	"testing"

	groovekit "github.com/groovekit/groovekit"
)

func clickOffsets(clicks []click) []float64 {
	offsets := make([]float64, len(clicks))
	for i, c := range clicks {
		offsets[i] = c.offset
	}
	return offsets
}

func expectOffsets(t *testing.T, clicks []click, expected []float64) {
	t.Helper()
	if len(clicks) != len(expected) {
		t.Fatalf("expected %d clicks, got %v", len(expected), clickOffsets(clicks))
	}
	for i, c := range clicks {
		if math.Abs(c.offset-expected[i]) > 1e-9 {
			t.Fatalf("click %d at %v, expected %v", i, c.offset, expected[i])
		}
	}
}

func TestMetronomeClicks(t *testing.T) {
	groove := groovekit.DefaultGroove() // one 4/4 measure at 120 bpm
	cfg := MetronomeConfig{Frequency: 4, OffsetClick: OffsetClick1, Volume: 100}

	quarters := metronomeClicks(&groove, cfg, 0)
	expectOffsets(t, quarters, []float64{0, 0.5, 1.0, 1.5})
	if !quarters[0].accent || quarters[1].accent {
		t.Errorf("only the measure start should accent")
	}

	cfg.Frequency = 8
	eighths := metronomeClicks(&groove, cfg, 0)
	expectOffsets(t, eighths, []float64{0, 0.25, 0.5, 0.75, 1.0, 1.25, 1.5, 1.75})

	cfg.Frequency = 16
	if got := len(metronomeClicks(&groove, cfg, 0)); got != 16 {
		t.Errorf("expected 16 clicks, got %d", got)
	}

	cfg.Frequency = 0
	if clicks := metronomeClicks(&groove, cfg, 0); clicks != nil {
		t.Errorf("frequency 0 should produce no clicks, got %v", clickOffsets(clicks))
	}
}

func TestMetronomeOffsetClick(t *testing.T) {
	groove := groovekit.DefaultGroove()
	cfg := MetronomeConfig{Frequency: 4, OffsetClick: OffsetClickAnd, Volume: 100}
	shifted := metronomeClicks(&groove, cfg, 0)
	expectOffsets(t, shifted, []float64{0.25, 0.75, 1.25, 1.75})
	for _, c := range shifted {
		if c.accent {
			t.Errorf("shifted clicks never accent")
		}
	}
	cfg.OffsetClick = OffsetClickTi
	triplet := metronomeClicks(&groove, cfg, 0)
	if math.Abs(triplet[0].offset-0.5/3) > 1e-9 {
		t.Errorf("ti click at %v, expected %v", triplet[0].offset, 0.5/3)
	}
}

func TestMetronomeRotation(t *testing.T) {
	groove := groovekit.DefaultGroove()
	if err := groove.AddMeasure(); err != nil {
		t.Fatalf("AddMeasure failed: %v", err)
	}
	cfg := MetronomeConfig{Frequency: 4, OffsetClick: OffsetClickRotate, Volume: 100}

	// first repetition: measure 0 on the beat, measure 1 a quarter beat late
	first := metronomeClicks(&groove, cfg, 0)
	expectOffsets(t, first, []float64{0, 0.5, 1.0, 1.5, 2.125, 2.625, 3.125, 3.625})

	// second repetition continues the cycle with AND and A
	second := metronomeClicks(&groove, cfg, 2)
	expectOffsets(t, second, []float64{0.25, 0.75, 1.25, 1.75, 2.375, 2.875, 3.375, 3.875})
}

func TestCountInClicks(t *testing.T) {
	groove := groovekit.DefaultGroove()
	clicks := countInClicks(&groove)
	expectOffsets(t, clicks, []float64{0, 0.5, 1.0, 1.5})
	if !clicks[0].accent || clicks[1].accent {
		t.Errorf("count-in accents only the first beat")
	}
	waltz := groovekit.TimeSignature{Beats: 3, NoteValue: 4}
	groove.Measures[0].TimeSignature = &waltz
	expectOffsets(t, countInClicks(&groove), []float64{0, 0.5, 1.0})
}

func TestClickVelocity(t *testing.T) {
	cfg := MetronomeConfig{Volume: 50}
	if got := clickVelocity(cfg, false); math.Abs(got-groovekit.Click.DefaultVelocity()/2) > 1e-9 {
		t.Errorf("click velocity at half volume = %v", got)
	}
	if got := clickVelocity(cfg, true); math.Abs(got-groovekit.ClickAccent.DefaultVelocity()/2) > 1e-9 {
		t.Errorf("accent velocity at half volume = %v", got)
	}
	cfg.Volume = 0
	if clickVelocity(cfg, false) != 0 {
		t.Errorf("zero volume should silence clicks")
	}
}
