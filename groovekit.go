package groovekit

// SampleRate is the fixed playback sample rate of the whole engine. All
// absolute times handed to a Synth are in seconds on a clock advancing at
// this rate.
const SampleRate = 44100

type (
	// Voice is one of the drum voices a groove can trigger. The set of voices
	// is fixed at process start; VoiceInfo carries the per-voice metadata.
	Voice int

	// StemGroup tells whether a voice is played by the hands or the feet.
	// The notation layer uses it to decide stem direction; the engine only
	// passes it through.
	StemGroup int

	// VoiceInfo is the fixed metadata of a single drum voice.
	VoiceInfo struct {
		Name     string    // display name
		Velocity float64   // default trigger velocity, 0..1
		Group    StemGroup // hands or feet
	}

	// Synth produces one-shot drum sounds at absolute times on its own sample
	// clock. Each triggered hit is an independent sound event; implementations
	// must allow Trigger to be called from a different goroutine than the one
	// rendering audio.
	Synth interface {
		// Trigger schedules a one-shot hit of the given voice at an absolute
		// time in seconds on the synth clock. A when at or before Now() plays
		// as soon as possible.
		Trigger(voice Voice, velocity float64, when float64)
		// CancelScheduled drops all scheduled hits that have not started
		// sounding yet. Hits already sounding decay naturally.
		CancelScheduled()
		// Now returns the current time of the synth clock, in seconds.
		Now() float64
		// Resume makes the synth audible, acquiring the audio output if it is
		// suspended. Returns an error if no audio output is available.
		Resume() error
	}
)

const (
	GroupHands StemGroup = iota
	GroupFeet
)

const (
	HiHatClosed Voice = iota
	HiHatOpen
	HiHatAccent
	HiHatFoot
	Snare
	SnareAccent
	SnareGhost
	CrossStick
	SnareFlam
	SnareDrag
	SnareBuzz
	Kick
	Tom1
	Tom2
	Tom3
	FloorTom
	Ride
	RideBell
	Crash
	Splash
	China
	Cowbell
	Clap
	Tambourine
	Stacker
	Click       // metronome tick
	ClickAccent // metronome tick on the first count of a measure

	NumVoices int = iota
)

// Voices documents all drum voices and their fixed metadata.
var Voices = [NumVoices]VoiceInfo{
	HiHatClosed: {Name: "Hi-hat", Velocity: 0.75, Group: GroupHands},
	HiHatOpen:   {Name: "Open hi-hat", Velocity: 0.8, Group: GroupHands},
	HiHatAccent: {Name: "Accented hi-hat", Velocity: 1, Group: GroupHands},
	HiHatFoot:   {Name: "Hi-hat foot", Velocity: 0.6, Group: GroupFeet},
	Snare:       {Name: "Snare", Velocity: 0.8, Group: GroupHands},
	SnareAccent: {Name: "Accented snare", Velocity: 1, Group: GroupHands},
	SnareGhost:  {Name: "Ghost snare", Velocity: 0.35, Group: GroupHands},
	CrossStick:  {Name: "Cross stick", Velocity: 0.7, Group: GroupHands},
	SnareFlam:   {Name: "Flam", Velocity: 0.9, Group: GroupHands},
	SnareDrag:   {Name: "Drag", Velocity: 0.8, Group: GroupHands},
	SnareBuzz:   {Name: "Buzz stroke", Velocity: 0.7, Group: GroupHands},
	Kick:        {Name: "Kick", Velocity: 0.9, Group: GroupFeet},
	Tom1:        {Name: "Tom 1", Velocity: 0.8, Group: GroupHands},
	Tom2:        {Name: "Tom 2", Velocity: 0.8, Group: GroupHands},
	Tom3:        {Name: "Tom 3", Velocity: 0.8, Group: GroupHands},
	FloorTom:    {Name: "Floor tom", Velocity: 0.85, Group: GroupHands},
	Ride:        {Name: "Ride", Velocity: 0.7, Group: GroupHands},
	RideBell:    {Name: "Ride bell", Velocity: 0.85, Group: GroupHands},
	Crash:       {Name: "Crash", Velocity: 0.95, Group: GroupHands},
	Splash:      {Name: "Splash", Velocity: 0.85, Group: GroupHands},
	China:       {Name: "China", Velocity: 0.9, Group: GroupHands},
	Cowbell:     {Name: "Cowbell", Velocity: 0.8, Group: GroupHands},
	Clap:        {Name: "Clap", Velocity: 0.8, Group: GroupHands},
	Tambourine:  {Name: "Tambourine", Velocity: 0.7, Group: GroupHands},
	Stacker:     {Name: "Stacker", Velocity: 0.85, Group: GroupHands},
	Click:       {Name: "Click", Velocity: 0.7, Group: GroupHands},
	ClickAccent: {Name: "Accented click", Velocity: 0.9, Group: GroupHands},
}

// voiceNames are the identifiers voices use in groove files.
var voiceNames = [NumVoices]string{
	HiHatClosed: "hihat",
	HiHatOpen:   "hihat-open",
	HiHatAccent: "hihat-accent",
	HiHatFoot:   "hihat-foot",
	Snare:       "snare",
	SnareAccent: "snare-accent",
	SnareGhost:  "snare-ghost",
	CrossStick:  "cross-stick",
	SnareFlam:   "flam",
	SnareDrag:   "drag",
	SnareBuzz:   "buzz",
	Kick:        "kick",
	Tom1:        "tom1",
	Tom2:        "tom2",
	Tom3:        "tom3",
	FloorTom:    "floor-tom",
	Ride:        "ride",
	RideBell:    "ride-bell",
	Crash:       "crash",
	Splash:      "splash",
	China:       "china",
	Cowbell:     "cowbell",
	Clap:        "clap",
	Tambourine:  "tambourine",
	Stacker:     "stacker",
	Click:       "click",
	ClickAccent: "click-accent",
}

func (v Voice) String() string {
	if v < 0 || int(v) >= NumVoices {
		return "unknown"
	}
	return voiceNames[v]
}

// Valid reports whether v is one of the defined drum voices.
func (v Voice) Valid() bool {
	return v >= 0 && int(v) < NumVoices
}

// DefaultVelocity returns the default trigger velocity of the voice, or 0.8
// for out of range values.
func (v Voice) DefaultVelocity() float64 {
	if !v.Valid() {
		return 0.8
	}
	return Voices[v].Velocity
}

// VoiceByName returns the voice with the given groove file identifier.
func VoiceByName(name string) (Voice, bool) {
	for i, n := range voiceNames {
		if n == name {
			return Voice(i), true
		}
	}
	return 0, false
}
