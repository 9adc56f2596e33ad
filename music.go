package groovekit

import "strconv"

// Divisions are the supported subdivisions per whole-note reference. 12, 24
// and 48 are the triplet divisions.
var Divisions = [...]int{4, 8, 12, 16, 24, 32, 48}

// IsTriplet reports whether the division is one of the triplet divisions.
func IsTriplet(division int) bool {
	return division == 12 || division == 24 || division == 48
}

// ValidDivision reports whether division is one of the supported divisions.
func ValidDivision(division int) bool {
	for _, d := range Divisions {
		if d == division {
			return true
		}
	}
	return false
}

// IsDivisionCompatible reports whether a division can be paired with a note
// value. Triplet divisions only work against a quarter-note pulse; straight
// divisions must divide evenly into the note value so that NotesPerMeasure
// stays an integer.
func IsDivisionCompatible(division, noteValue int) bool {
	if !ValidDivision(division) {
		return false
	}
	if IsTriplet(division) {
		return noteValue == 4
	}
	return division%noteValue == 0
}

// NotesPerMeasure returns the number of subdivision steps in one measure, or
// 0 if the division and note value are incompatible. Callers must pre-filter
// with IsDivisionCompatible; a measure never holds a fractional note count.
func NotesPerMeasure(division, beats, noteValue int) int {
	if !IsDivisionCompatible(division, noteValue) {
		return 0
	}
	return division / noteValue * beats
}

// CanSwing reports whether swing applies to the division. Triplet divisions
// already have the triplet feel and plain quarter notes have no upbeats to
// delay, so both force swing to zero.
func CanSwing(division int) bool {
	return ValidDivision(division) && !IsTriplet(division) && division != 4
}

// SwingDelay returns the number of seconds a subdivision step is delayed by
// swing. Only upbeat (odd) positions within a beat are shifted; a full swing
// of 100 delays them by half a step, giving the triplet feel.
func SwingDelay(swing int, stepDuration float64, positionInBeat int) float64 {
	if swing <= 0 || positionInBeat%2 == 0 {
		return 0
	}
	return float64(swing) / 100 * stepDuration / 2
}

// BeatDuration returns the duration of one time signature beat in seconds.
func BeatDuration(tempo int) float64 {
	return 60 / float64(tempo)
}

// MeasureDuration returns the duration of one measure in seconds.
func MeasureDuration(tempo int, ts TimeSignature) float64 {
	return float64(ts.Beats) * BeatDuration(tempo)
}

// NoteOffset returns the scheduled offset of a subdivision step from the
// start of its measure, in seconds, including the swing skew. Downbeats are
// never shifted.
func NoteOffset(tempo int, ts TimeSignature, division, swing, note int) float64 {
	notesPerBeat := division / ts.NoteValue
	beatDur := BeatDuration(tempo)
	stepDur := beatDur / float64(notesPerBeat)
	beat := note / notesPerBeat
	pos := note % notesPerBeat
	return float64(beat)*beatDur + float64(pos)*stepDur + SwingDelay(swing, stepDur, pos)
}

// ResizeNotes rescales a hit row to a new length by linear position scaling.
// Collisions drop silently (last write wins) and positions nothing maps to
// stay false, so scaling down is lossy by design.
func ResizeNotes(old []bool, newLen int) []bool {
	if newLen < 0 {
		newLen = 0
	}
	notes := make([]bool, newLen)
	if len(old) == 0 || newLen == 0 {
		return notes
	}
	for i, hit := range old {
		if !hit {
			continue
		}
		j := (2*i*newLen + len(old)) / (2 * len(old)) // round(i * newLen / oldLen)
		if j >= newLen {
			j = newLen - 1
		}
		notes[j] = hit
	}
	return notes
}

// CountLabels returns the count label of every subdivision step in a measure:
// beat numbers on downbeats, "e & a" style syllables on straight upbeats and
// "ti ta" on triplet upbeats. Steps between syllables get a dash.
func CountLabels(division, beats, noteValue int) []string {
	n := NotesPerMeasure(division, beats, noteValue)
	if n == 0 {
		return nil
	}
	notesPerBeat := division / noteValue
	labels := make([]string, n)
	for i := range labels {
		beat := i / notesPerBeat
		pos := i % notesPerBeat
		labels[i] = countSyllable(notesPerBeat, IsTriplet(division), beat, pos)
	}
	return labels
}

func countSyllable(notesPerBeat int, triplet bool, beat, pos int) string {
	if pos == 0 {
		return strconv.Itoa(beat + 1)
	}
	if triplet {
		switch pos * 3 / notesPerBeat {
		case 1:
			if pos*3%notesPerBeat == 0 {
				return "ti"
			}
		case 2:
			if pos*3%notesPerBeat == 0 {
				return "ta"
			}
		}
		return "-"
	}
	switch pos * 4 / notesPerBeat {
	case 1:
		if pos*4%notesPerBeat == 0 {
			return "e"
		}
	case 2:
		if pos*4%notesPerBeat == 0 {
			return "&"
		}
	case 3:
		if pos*4%notesPerBeat == 0 {
			return "a"
		}
	}
	return "-"
}
