package groovekit

import "fmt"

// Renderer is a Synth whose audio can be pulled directly, without a platform
// audio output. Used for offline rendering.
type Renderer interface {
	Synth
	AudioSource
}

// Render renders the given number of repetitions of the groove into a stereo
// interleaved float32 buffer, scheduling every hit at its exact sample
// position. A little tail is rendered after the last repetition so the final
// hits can decay.
func Render(r Renderer, g *Groove, repetitions int) ([]float32, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("cannot render groove: %w", err)
	}
	if repetitions < 1 {
		repetitions = 1
	}
	start := r.Now()
	duration := g.Duration()
	total := g.TotalNotes()
	for rep := 0; rep < repetitions; rep++ {
		base := start + float64(rep)*duration
		for note := 0; note < total; note++ {
			at := base + g.NoteTime(note)
			for v := Voice(0); int(v) < NumVoices; v++ {
				if g.Hit(v, note) {
					r.Trigger(v, v.DefaultVelocity(), at)
				}
			}
		}
	}
	const tail = 1.0 // seconds, so the last hits decay naturally
	samples := int((duration*float64(repetitions) + tail) * SampleRate)
	buffer := make([]float32, 0, samples*2)
	chunk := make([]float32, 8192)
	for len(buffer) < samples*2 {
		n, err := r.ReadAudio(chunk)
		if err != nil {
			return nil, fmt.Errorf("ReadAudio failed: %w", err)
		}
		if n == 0 {
			break
		}
		buffer = append(buffer, chunk[:n]...)
	}
	if len(buffer) > samples*2 {
		buffer = buffer[:samples*2]
	}
	return buffer, nil
}
