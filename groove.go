package groovekit

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	MinTempo    = 30
	MaxTempo    = 300
	MaxBeats    = 16
	MaxMeasures = 16
)

type (
	// TimeSignature is the number of beats in a measure and the note value of
	// one beat. Only quarter, eighth and sixteenth note pulses are supported.
	TimeSignature struct {
		Beats     int `yaml:"beats"`
		NoteValue int `yaml:"noteValue"`
	}

	// Measure holds one hit row per voice. Every row has exactly
	// NotesPerMeasure(division, beats, noteValue) steps, using the measure's
	// own time signature when it overrides the groove default.
	Measure struct {
		TimeSignature *TimeSignature   `yaml:"timeSignature,omitempty"`
		Notes         map[Voice][]bool `yaml:"notes"`
	}

	// Groove is the full declarative description of a drum pattern. The
	// playback engine treats a Groove as a value: it reads it, never writes
	// it, and edits replace the whole reference.
	Groove struct {
		Title         string        `yaml:"title,omitempty"`
		Author        string        `yaml:"author,omitempty"`
		Comments      string        `yaml:"comments,omitempty"`
		TimeSignature TimeSignature `yaml:"timeSignature"`
		Division      int           `yaml:"division"`
		Tempo         int           `yaml:"tempo"`
		Swing         int           `yaml:"swing"`
		Measures      []Measure     `yaml:"measures"`
	}
)

func (ts TimeSignature) Valid() bool {
	if ts.Beats < 1 || ts.Beats > MaxBeats {
		return false
	}
	return ts.NoteValue == 4 || ts.NoteValue == 8 || ts.NoteValue == 16
}

// Effective returns the measure's own time signature, or def when the measure
// does not override it.
func (m *Measure) Effective(def TimeSignature) TimeSignature {
	if m.TimeSignature != nil {
		return *m.TimeSignature
	}
	return def
}

// Copy makes a deep copy of a Measure.
func (m *Measure) Copy() Measure {
	notes := make(map[Voice][]bool, len(m.Notes))
	for v, row := range m.Notes {
		newRow := make([]bool, len(row))
		copy(newRow, row)
		notes[v] = newRow
	}
	var ts *TimeSignature
	if m.TimeSignature != nil {
		c := *m.TimeSignature
		ts = &c
	}
	return Measure{TimeSignature: ts, Notes: notes}
}

// Copy makes a deep copy of a Groove.
func (g *Groove) Copy() Groove {
	measures := make([]Measure, len(g.Measures))
	for i := range g.Measures {
		measures[i] = g.Measures[i].Copy()
	}
	ret := *g
	ret.Measures = measures
	return ret
}

// Validate checks that the groove is one the engine can schedule: tempo and
// swing in range, a compatible division/time signature pairing in every
// measure, and every hit row exactly as long as the measure's note count.
func (g *Groove) Validate() error {
	if g.Tempo < MinTempo || g.Tempo > MaxTempo {
		return fmt.Errorf("tempo %d outside the range %d..%d", g.Tempo, MinTempo, MaxTempo)
	}
	if g.Swing < 0 || g.Swing > 100 {
		return fmt.Errorf("swing %d outside the range 0..100", g.Swing)
	}
	if g.Swing > 0 && !CanSwing(g.Division) {
		return fmt.Errorf("division %d does not support swing", g.Division)
	}
	if !g.TimeSignature.Valid() {
		return fmt.Errorf("invalid time signature %d/%d", g.TimeSignature.Beats, g.TimeSignature.NoteValue)
	}
	if len(g.Measures) < 1 || len(g.Measures) > MaxMeasures {
		return fmt.Errorf("groove must have 1..%d measures, has %d", MaxMeasures, len(g.Measures))
	}
	for i := range g.Measures {
		m := &g.Measures[i]
		ts := m.Effective(g.TimeSignature)
		if !ts.Valid() {
			return fmt.Errorf("measure %d: invalid time signature %d/%d", i, ts.Beats, ts.NoteValue)
		}
		n := NotesPerMeasure(g.Division, ts.Beats, ts.NoteValue)
		if n == 0 {
			return fmt.Errorf("measure %d: division %d is incompatible with %d/%d", i, g.Division, ts.Beats, ts.NoteValue)
		}
		for v, row := range m.Notes {
			if !v.Valid() {
				return fmt.Errorf("measure %d: unknown voice %d", i, int(v))
			}
			if len(row) != n {
				return fmt.Errorf("measure %d: voice %v has %d steps, expected %d", i, v, len(row), n)
			}
		}
	}
	return nil
}

// MeasureNotes returns the number of subdivision steps in measure i.
func (g *Groove) MeasureNotes(i int) int {
	ts := g.Measures[i].Effective(g.TimeSignature)
	return NotesPerMeasure(g.Division, ts.Beats, ts.NoteValue)
}

// TotalNotes returns the number of subdivision steps across all measures.
func (g *Groove) TotalNotes() int {
	total := 0
	for i := range g.Measures {
		total += g.MeasureNotes(i)
	}
	return total
}

// Duration returns the length of one repetition of the groove in seconds.
func (g *Groove) Duration() float64 {
	total := 0.0
	for i := range g.Measures {
		total += MeasureDuration(g.Tempo, g.Measures[i].Effective(g.TimeSignature))
	}
	return total
}

// NotePosition maps a global step index to its measure and the step within
// that measure. Returns -1, -1 when the index is out of range.
func (g *Groove) NotePosition(index int) (measure, note int) {
	if index < 0 {
		return -1, -1
	}
	for i := range g.Measures {
		n := g.MeasureNotes(i)
		if index < n {
			return i, index
		}
		index -= n
	}
	return -1, -1
}

// NoteTime returns the scheduled offset of a global step index from the start
// of the groove, in seconds, including the swing skew.
func (g *Groove) NoteTime(index int) float64 {
	measure, note := g.NotePosition(index)
	if measure < 0 {
		return 0
	}
	offset := 0.0
	for i := 0; i < measure; i++ {
		offset += MeasureDuration(g.Tempo, g.Measures[i].Effective(g.TimeSignature))
	}
	ts := g.Measures[measure].Effective(g.TimeSignature)
	return offset + NoteOffset(g.Tempo, ts, g.Division, g.Swing, note)
}

// Hit reports whether the voice has a hit at the global step index.
func (g *Groove) Hit(voice Voice, index int) bool {
	measure, note := g.NotePosition(index)
	if measure < 0 {
		return false
	}
	row, ok := g.Measures[measure].Notes[voice]
	if !ok || note >= len(row) {
		return false
	}
	return row[note]
}

// VoiceHasHits reports whether the voice appears anywhere in the groove with
// at least one hit.
func (g *Groove) VoiceHasHits(voice Voice) bool {
	for i := range g.Measures {
		for v, row := range g.Measures[i].Notes {
			if v != voice {
				continue
			}
			for _, hit := range row {
				if hit {
					return true
				}
			}
		}
	}
	return false
}

// AddMeasure appends an empty measure with the same voices as the last one.
// No-op with an error when the groove is already at MaxMeasures.
func (g *Groove) AddMeasure() error {
	if len(g.Measures) >= MaxMeasures {
		return fmt.Errorf("groove already has the maximum of %d measures", MaxMeasures)
	}
	last := &g.Measures[len(g.Measures)-1]
	ts := last.Effective(g.TimeSignature)
	n := NotesPerMeasure(g.Division, ts.Beats, ts.NoteValue)
	notes := make(map[Voice][]bool, len(last.Notes))
	for v := range last.Notes {
		notes[v] = make([]bool, n)
	}
	var override *TimeSignature
	if last.TimeSignature != nil {
		c := *last.TimeSignature
		override = &c
	}
	g.Measures = append(g.Measures, Measure{TimeSignature: override, Notes: notes})
	return nil
}

// RemoveMeasure deletes measure i. No-op with an error when it is the last
// remaining measure or i is out of bounds.
func (g *Groove) RemoveMeasure(i int) error {
	if len(g.Measures) <= 1 {
		return errors.New("cannot remove the last remaining measure")
	}
	if i < 0 || i >= len(g.Measures) {
		return fmt.Errorf("measure index %d out of bounds", i)
	}
	g.Measures = append(g.Measures[:i], g.Measures[i+1:]...)
	return nil
}

// SetDivision changes the groove's division, rescaling every hit row to the
// new step count. The resample is lossy on the way down. Swing is forced to
// zero when the new division cannot swing. The groove is left unchanged when
// the division is incompatible with any measure's time signature.
func (g *Groove) SetDivision(division int) error {
	for i := range g.Measures {
		ts := g.Measures[i].Effective(g.TimeSignature)
		if NotesPerMeasure(division, ts.Beats, ts.NoteValue) == 0 {
			return fmt.Errorf("division %d is incompatible with measure %d (%d/%d)", division, i, ts.Beats, ts.NoteValue)
		}
	}
	for i := range g.Measures {
		ts := g.Measures[i].Effective(g.TimeSignature)
		n := NotesPerMeasure(division, ts.Beats, ts.NoteValue)
		for v, row := range g.Measures[i].Notes {
			g.Measures[i].Notes[v] = ResizeNotes(row, n)
		}
	}
	g.Division = division
	if !CanSwing(division) {
		g.Swing = 0
	}
	return nil
}

// SetTimeSignature changes the groove's default time signature, rescaling the
// hit rows of every measure that does not override it. The groove is left
// unchanged when the division is incompatible with the new signature.
func (g *Groove) SetTimeSignature(ts TimeSignature) error {
	if !ts.Valid() {
		return fmt.Errorf("invalid time signature %d/%d", ts.Beats, ts.NoteValue)
	}
	n := NotesPerMeasure(g.Division, ts.Beats, ts.NoteValue)
	if n == 0 {
		return fmt.Errorf("division %d is incompatible with %d/%d", g.Division, ts.Beats, ts.NoteValue)
	}
	for i := range g.Measures {
		if g.Measures[i].TimeSignature != nil {
			continue
		}
		for v, row := range g.Measures[i].Notes {
			g.Measures[i].Notes[v] = ResizeNotes(row, n)
		}
	}
	g.TimeSignature = ts
	return nil
}

// MarshalYAML writes voices by their identifier so groove files stay
// readable.
func (v Voice) MarshalYAML() (interface{}, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("cannot marshal unknown voice %d", int(v))
	}
	return v.String(), nil
}

func (v *Voice) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	voice, ok := VoiceByName(name)
	if !ok {
		return fmt.Errorf("unknown voice %q", name)
	}
	*v = voice
	return nil
}

// DefaultGroove returns a one measure 4/4 sixteenth note rock beat: eighth
// note hi-hats, kick on 1 and 3, snare on 2 and 4.
func DefaultGroove() Groove {
	hihat := make([]bool, 16)
	kick := make([]bool, 16)
	snare := make([]bool, 16)
	for i := 0; i < 16; i += 2 {
		hihat[i] = true
	}
	kick[0], kick[8] = true, true
	snare[4], snare[12] = true, true
	return Groove{
		Title:         "Basic rock beat",
		TimeSignature: TimeSignature{Beats: 4, NoteValue: 4},
		Division:      16,
		Tempo:         120,
		Swing:         0,
		Measures: []Measure{{Notes: map[Voice][]bool{
			HiHatClosed: hihat,
			Kick:        kick,
			Snare:       snare,
		}}},
	}
}
