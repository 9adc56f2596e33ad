package engine

import (
	groovekit "github.com/groovekit/groovekit"
)

type (
	// MetronomeConfig controls the click overlay. The host may mutate it at
	// any time through the player's setters; the scheduling loop reads it on
	// each pass.
	MetronomeConfig struct {
		Frequency   int  // clicks per whole note: 0 (off), 4, 8 or 16
		Solo        bool // schedule only clicks, mute the groove voices
		CountIn     bool // prepend one measure of clicks on a fresh Play
		OffsetClick OffsetClick
		Volume      int // 0..100
	}

	// OffsetClick shifts the click train within the beat.
	OffsetClick int

	// click is one scheduled metronome tick, as an offset in seconds from the
	// start of a repetition.
	click struct {
		offset float64
		accent bool
	}
)

const (
	OffsetClick1 OffsetClick = iota // on the beat
	OffsetClickE                    // a quarter beat late
	OffsetClickAnd                  // half a beat late
	OffsetClickA                    // three quarter beats late
	OffsetClickTi                   // a third of a beat late
	OffsetClickTa                   // two thirds of a beat late
	OffsetClickRotate               // cycle 1, E, AND, A; advancing every measure
)

var offsetClickFractions = map[OffsetClick]float64{
	OffsetClick1:   0,
	OffsetClickE:   0.25,
	OffsetClickAnd: 0.5,
	OffsetClickA:   0.75,
	OffsetClickTi:  1.0 / 3,
	OffsetClickTa:  2.0 / 3,
}

// ValidFrequency reports whether f is a supported metronome frequency.
func ValidFrequency(f int) bool {
	return f == 0 || f == 4 || f == 8 || f == 16
}

// clickVelocity is the trigger velocity of a click given the metronome
// volume setting.
func clickVelocity(cfg MetronomeConfig, accent bool) float64 {
	voice := groovekit.Click
	if accent {
		voice = groovekit.ClickAccent
	}
	return voice.DefaultVelocity() * float64(cfg.Volume) / 100
}

// metronomeClicks computes the click stream for one repetition of the
// groove. rotation is the number of measures played since Play, used by the
// rotating offset to pick the next shift for each measure.
func metronomeClicks(g *groovekit.Groove, cfg MetronomeConfig, rotation int) []click {
	if cfg.Frequency == 0 {
		return nil
	}
	clicksPerBeat := cfg.Frequency / 4
	var clicks []click
	base := 0.0
	for i := range g.Measures {
		ts := g.Measures[i].Effective(g.TimeSignature)
		beatDur := groovekit.BeatDuration(g.Tempo)
		shift := offsetFraction(cfg.OffsetClick, rotation+i) * beatDur
		interval := beatDur / float64(clicksPerBeat)
		for beat := 0; beat < ts.Beats; beat++ {
			for k := 0; k < clicksPerBeat; k++ {
				clicks = append(clicks, click{
					offset: base + float64(beat)*beatDur + shift + float64(k)*interval,
					accent: beat == 0 && k == 0 && shift == 0,
				})
			}
		}
		base += groovekit.MeasureDuration(g.Tempo, ts)
	}
	return clicks
}

func offsetFraction(oc OffsetClick, measure int) float64 {
	if oc == OffsetClickRotate {
		rotation := [...]OffsetClick{OffsetClick1, OffsetClickE, OffsetClickAnd, OffsetClickA}
		oc = rotation[measure%len(rotation)]
	}
	return offsetClickFractions[oc]
}

// countInClicks computes one measure of quarter note clicks matching the
// groove's first measure, as offsets from the start of the count-in.
func countInClicks(g *groovekit.Groove) []click {
	ts := g.Measures[0].Effective(g.TimeSignature)
	beatDur := groovekit.BeatDuration(g.Tempo)
	clicks := make([]click, ts.Beats)
	for beat := 0; beat < ts.Beats; beat++ {
		clicks[beat] = click{offset: float64(beat) * beatDur, accent: beat == 0}
	}
	return clicks
}
