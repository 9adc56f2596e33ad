// Package synth renders the drum voices. Every hit is an independent
// one-shot: a pitched tone with an exponential decay, a filtered noise
// burst, or a mix of both, parameterized per voice. Hits are scheduled at
// absolute times on the synth's own sample clock and started at the exact
// frame inside the output buffer.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	groovekit "github.com/groovekit/groovekit"
	"github.com/viterin/vek/vek32"
)

type (
	// Synth is the drum voice synthesizer. It implements groovekit.Synth for
	// scheduling and groovekit.AudioSource for rendering; the rendering side
	// is pulled by the platform audio output from its own goroutine, so all
	// shared state is guarded by the mutex.
	Synth struct {
		mutex   sync.Mutex
		frame   int64 // frames rendered so far; the sample clock
		pending []event
		active  []oneshot
		volume  float32
		peak    float32
		scratch []float32
		rng     *rand.Rand
		output  groovekit.AudioContext
	}

	event struct {
		frame    int64
		voice    groovekit.Voice
		velocity float64
	}

	// oneshot is a single sounding hit. phase/sweep drive the tone, noise is
	// low-passed white noise, env decays exponentially.
	oneshot struct {
		params     voiceParams
		gain       float32
		env        float32
		decay      float32
		phase      float64
		freq       float64
		noiseState float32
		age        int
		limit      int
	}

	// voiceParams is the fixed synthesis recipe of one drum voice.
	voiceParams struct {
		toneFreq   float64 // starting tone frequency, Hz
		toneEnd    float64 // tone frequency at the end of the sweep, Hz
		toneAmp    float32
		noiseAmp   float32
		noiseColor float32 // one-pole low-pass coefficient, 0 = white
		duration   float64 // seconds until the hit is dropped
		pan        float32 // -1 left .. 1 right
	}
)

// voiceTable holds the synthesis recipe for each drum voice.
var voiceTable = [groovekit.NumVoices]voiceParams{
	groovekit.HiHatClosed: {toneFreq: 6000, toneEnd: 6000, toneAmp: 0.05, noiseAmp: 0.5, noiseColor: 0.05, duration: 0.07, pan: 0.25},
	groovekit.HiHatOpen:   {toneFreq: 6000, toneEnd: 6000, toneAmp: 0.05, noiseAmp: 0.5, noiseColor: 0.05, duration: 0.45, pan: 0.25},
	groovekit.HiHatAccent: {toneFreq: 6500, toneEnd: 6500, toneAmp: 0.08, noiseAmp: 0.65, noiseColor: 0.03, duration: 0.18, pan: 0.25},
	groovekit.HiHatFoot:   {toneFreq: 5500, toneEnd: 5500, toneAmp: 0.03, noiseAmp: 0.35, noiseColor: 0.1, duration: 0.05, pan: 0.25},
	groovekit.Snare:       {toneFreq: 190, toneEnd: 160, toneAmp: 0.4, noiseAmp: 0.5, noiseColor: 0.25, duration: 0.18},
	groovekit.SnareAccent: {toneFreq: 190, toneEnd: 150, toneAmp: 0.5, noiseAmp: 0.6, noiseColor: 0.2, duration: 0.22},
	groovekit.SnareGhost:  {toneFreq: 190, toneEnd: 170, toneAmp: 0.25, noiseAmp: 0.4, noiseColor: 0.3, duration: 0.09},
	groovekit.CrossStick:  {toneFreq: 850, toneEnd: 820, toneAmp: 0.5, noiseAmp: 0.1, noiseColor: 0.5, duration: 0.05},
	groovekit.SnareFlam:   {toneFreq: 190, toneEnd: 150, toneAmp: 0.45, noiseAmp: 0.55, noiseColor: 0.25, duration: 0.25},
	groovekit.SnareDrag:   {toneFreq: 190, toneEnd: 160, toneAmp: 0.35, noiseAmp: 0.5, noiseColor: 0.35, duration: 0.2},
	groovekit.SnareBuzz:   {toneFreq: 190, toneEnd: 180, toneAmp: 0.2, noiseAmp: 0.55, noiseColor: 0.45, duration: 0.16},
	groovekit.Kick:        {toneFreq: 120, toneEnd: 48, toneAmp: 0.9, noiseAmp: 0.08, noiseColor: 0.9, duration: 0.25},
	groovekit.Tom1:        {toneFreq: 300, toneEnd: 220, toneAmp: 0.7, noiseAmp: 0.1, noiseColor: 0.6, duration: 0.3, pan: -0.2},
	groovekit.Tom2:        {toneFreq: 240, toneEnd: 170, toneAmp: 0.7, noiseAmp: 0.1, noiseColor: 0.65, duration: 0.32, pan: -0.05},
	groovekit.Tom3:        {toneFreq: 190, toneEnd: 130, toneAmp: 0.7, noiseAmp: 0.1, noiseColor: 0.7, duration: 0.35, pan: 0.1},
	groovekit.FloorTom:    {toneFreq: 140, toneEnd: 90, toneAmp: 0.75, noiseAmp: 0.12, noiseColor: 0.75, duration: 0.4, pan: 0.3},
	groovekit.Ride:        {toneFreq: 3400, toneEnd: 3400, toneAmp: 0.15, noiseAmp: 0.25, noiseColor: 0.1, duration: 1.4, pan: 0.4},
	groovekit.RideBell:    {toneFreq: 820, toneEnd: 820, toneAmp: 0.5, noiseAmp: 0.1, noiseColor: 0.2, duration: 0.6, pan: 0.4},
	groovekit.Crash:       {toneFreq: 4200, toneEnd: 4000, toneAmp: 0.12, noiseAmp: 0.55, noiseColor: 0.04, duration: 1.6, pan: -0.35},
	groovekit.Splash:      {toneFreq: 5200, toneEnd: 5000, toneAmp: 0.1, noiseAmp: 0.5, noiseColor: 0.04, duration: 0.8, pan: -0.15},
	groovekit.China:       {toneFreq: 3000, toneEnd: 2800, toneAmp: 0.15, noiseAmp: 0.6, noiseColor: 0.08, duration: 1.2, pan: 0.45},
	groovekit.Cowbell:     {toneFreq: 560, toneEnd: 560, toneAmp: 0.55, noiseAmp: 0.02, noiseColor: 0.4, duration: 0.3},
	groovekit.Clap:        {toneFreq: 1100, toneEnd: 1000, toneAmp: 0.1, noiseAmp: 0.6, noiseColor: 0.3, duration: 0.12},
	groovekit.Tambourine:  {toneFreq: 7000, toneEnd: 7000, toneAmp: 0.08, noiseAmp: 0.45, noiseColor: 0.02, duration: 0.25, pan: -0.3},
	groovekit.Stacker:     {toneFreq: 3600, toneEnd: 3400, toneAmp: 0.12, noiseAmp: 0.6, noiseColor: 0.12, duration: 0.3, pan: 0.2},
	groovekit.Click:       {toneFreq: 1000, toneEnd: 1000, toneAmp: 0.8, noiseAmp: 0, noiseColor: 0, duration: 0.03},
	groovekit.ClickAccent: {toneFreq: 1600, toneEnd: 1600, toneAmp: 0.9, noiseAmp: 0, noiseColor: 0, duration: 0.04},
}

func New() *Synth {
	return &Synth{
		volume: 0.8,
		rng:    rand.New(rand.NewSource(1)),
	}
}

// AttachOutput starts pulling the synth's audio through the given context.
func (s *Synth) AttachOutput(ctx groovekit.AudioContext) error {
	s.mutex.Lock()
	s.output = ctx
	s.mutex.Unlock()
	if err := ctx.Play(s); err != nil {
		return fmt.Errorf("could not start audio output: %w", err)
	}
	return nil
}

// Trigger schedules a one-shot hit at an absolute time on the sample clock.
// A when at or before Now plays as soon as possible. Implements
// groovekit.Synth.
func (s *Synth) Trigger(voice groovekit.Voice, velocity float64, when float64) {
	if !voice.Valid() || velocity <= 0 {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	frame := int64(math.Round(when * groovekit.SampleRate))
	if frame < s.frame {
		frame = s.frame
	}
	i := sort.Search(len(s.pending), func(i int) bool { return s.pending[i].frame > frame })
	s.pending = append(s.pending, event{})
	copy(s.pending[i+1:], s.pending[i:])
	s.pending[i] = event{frame: frame, voice: voice, velocity: velocity}
}

// CancelScheduled drops all hits that have not started sounding yet. Hits
// already sounding decay naturally.
func (s *Synth) CancelScheduled() {
	s.mutex.Lock()
	s.pending = s.pending[:0]
	s.mutex.Unlock()
}

// Now returns the current time of the sample clock, in seconds.
func (s *Synth) Now() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return float64(s.frame) / groovekit.SampleRate
}

// Resume makes the synth audible. Fails when no audio output is attached or
// the output cannot be resumed; the caller decides how to surface that.
func (s *Synth) Resume() error {
	s.mutex.Lock()
	out := s.output
	s.mutex.Unlock()
	if out == nil {
		return errors.New("no audio output attached")
	}
	return out.Resume()
}

// Close releases the attached audio output. Safe to call with no output
// attached, and safe to call more than once.
func (s *Synth) Close() error {
	s.mutex.Lock()
	out := s.output
	s.output = nil
	s.pending = s.pending[:0]
	s.mutex.Unlock()
	if out == nil {
		return nil
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not close audio output: %w", err)
	}
	return nil
}

// SetVolume sets the master volume, 0..1.
func (s *Synth) SetVolume(volume float64) {
	s.mutex.Lock()
	s.volume = float32(math.Max(0, math.Min(1, volume)))
	s.mutex.Unlock()
}

// Peak returns the peak absolute sample value of the most recently rendered
// buffer. Reported alongside playback positions for level metering.
func (s *Synth) Peak() float32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.peak
}

// ReadAudio renders stereo interleaved audio, starting pending hits at their
// exact frame offsets. Implements groovekit.AudioSource; always fills the
// whole buffer.
func (s *Synth) ReadAudio(buffer []float32) (int, error) {
	if len(buffer)%2 != 0 {
		return 0, errors.New("buffer length must be even for stereo audio")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	frames := len(buffer) / 2
	for i := range buffer {
		buffer[i] = 0
	}
	rendered := 0
	for rendered < frames {
		segment := frames - rendered
		for len(s.pending) > 0 && s.pending[0].frame <= s.frame {
			s.start(s.pending[0])
			s.pending = s.pending[1:]
		}
		if len(s.pending) > 0 {
			if until := int(s.pending[0].frame - s.frame); until < segment {
				segment = until
			}
		}
		s.render(buffer[rendered*2 : (rendered+segment)*2])
		rendered += segment
		s.frame += int64(segment)
	}
	vek32.MulNumber_Inplace(buffer, s.volume)
	if cap(s.scratch) < len(buffer) {
		s.scratch = make([]float32, len(buffer))
	}
	abs := vek32.Abs_Into(s.scratch[:len(buffer)], buffer)
	s.peak = vek32.Max(abs)
	return len(buffer), nil
}

func (s *Synth) start(e event) {
	params := voiceTable[e.voice]
	limit := int(params.duration * groovekit.SampleRate)
	if limit < 1 {
		limit = 1
	}
	// decay so that the envelope has fallen to roughly -60 dB at the limit
	decay := float32(math.Exp(-6.9 / float64(limit)))
	s.active = append(s.active, oneshot{
		params: params,
		gain:   float32(e.velocity),
		env:    1,
		decay:  decay,
		freq:   params.toneFreq,
		limit:  limit,
	})
}

func (s *Synth) render(buffer []float32) {
	frames := len(buffer) / 2
	for v := 0; v < len(s.active); {
		o := &s.active[v]
		sweep := math.Pow(o.params.toneEnd/o.params.toneFreq, 1/float64(o.limit))
		left := (1 - o.params.pan) / 2 * o.gain
		right := (1 + o.params.pan) / 2 * o.gain
		for i := 0; i < frames && o.age < o.limit; i++ {
			tone := float32(math.Sin(o.phase*2*math.Pi)) * o.params.toneAmp
			noise := s.rng.Float32()*2 - 1
			o.noiseState += o.params.noiseColor * (noise - o.noiseState)
			if o.params.noiseColor > 0 {
				noise = o.noiseState
			}
			sample := (tone + noise*o.params.noiseAmp) * o.env
			buffer[i*2] += sample * left
			buffer[i*2+1] += sample * right
			o.phase += o.freq / groovekit.SampleRate
			o.freq *= sweep
			o.env *= o.decay
			o.age++
		}
		if o.age >= o.limit {
			s.active[v] = s.active[len(s.active)-1]
			s.active = s.active[:len(s.active)-1]
			continue
		}
		v++
	}
}
