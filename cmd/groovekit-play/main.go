// Command groovekit-play plays groove files through the platform audio
// device, renders them to .wav or .raw, and optionally grades MIDI drum
// input against the groove being played.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v3"

	groovekit "github.com/groovekit/groovekit"
	"github.com/groovekit/groovekit/engine"
	"github.com/groovekit/groovekit/gomidi"
	groovemidi "github.com/groovekit/groovekit/midi"
	"github.com/groovekit/groovekit/oto"
	"github.com/groovekit/groovekit/perf"
	"github.com/groovekit/groovekit/synth"
	"github.com/groovekit/groovekit/version"
)

type arguments struct {
	File        string  `arg:"positional" help:"groove file (.yml)"`
	Loop        bool    `arg:"-l,--loop" help:"loop until interrupted"`
	Tempo       int     `arg:"-t,--tempo" help:"override the tempo of the file"`
	Swing       int     `arg:"--swing" default:"-1" help:"override the swing percentage of the file"`
	Volume      float64 `arg:"--volume" default:"0.8" help:"master volume, 0..1"`
	Wav         string  `arg:"-w,--wav" help:"render to a .wav file instead of playing"`
	Raw         string  `arg:"-r,--raw" help:"render to a raw float32 file instead of playing"`
	PCM         bool    `arg:"-c,--pcm" help:"convert exported audio to 16-bit signed PCM"`
	Repetitions int     `arg:"-n,--repetitions" default:"1" help:"repetitions to render when exporting"`
	Metronome   int     `arg:"-m,--metronome" help:"clicks per measure: 0, 4, 8 or 16"`
	Solo        bool    `arg:"--solo" help:"play only the metronome, muting the groove"`
	CountIn     bool    `arg:"--count-in" help:"play one measure of count-in clicks before the groove"`
	OffsetClick string  `arg:"--offset-click" default:"1" help:"click placement: 1, e, and, a, ti, ta or rotate"`
	ClickVolume int     `arg:"--click-volume" default:"75" help:"metronome volume, 0..100"`
	Sync        string  `arg:"--sync" default:"start" help:"note anchor within its cell: start, middle or end"`
	ListMIDI    bool    `arg:"--list-midi" help:"list MIDI input devices and exit"`
	MIDI        string  `arg:"--midi" help:"open the first MIDI input starting with this prefix"`
	Kit         string  `arg:"-k,--kit" help:"MIDI drum kit note mapping"`
	Through     bool    `arg:"--through" help:"play incoming MIDI hits through the synth"`
	Practice    bool    `arg:"--practice" help:"grade incoming MIDI hits against the groove"`
}

func (arguments) Version() string {
	return "groovekit-play " + version.VersionOrHash
}

var offsetClicks = map[string]engine.OffsetClick{
	"1":      engine.OffsetClick1,
	"e":      engine.OffsetClickE,
	"and":    engine.OffsetClickAnd,
	"a":      engine.OffsetClickA,
	"ti":     engine.OffsetClickTi,
	"ta":     engine.OffsetClickTa,
	"rotate": engine.OffsetClickRotate,
}

var syncModes = map[string]engine.SyncMode{
	"start":  engine.SyncStart,
	"middle": engine.SyncMiddle,
	"end":    engine.SyncEnd,
}

func main() {
	var args arguments
	args.Kit = groovemidi.DefaultKit
	parser := arg.MustParse(&args)

	if args.ListMIDI {
		midiContext := gomidi.NewContext(groovemidi.NewHub(args.Kit, nil))
		defer midiContext.Close()
		names := midiContext.InputNames()
		if len(names) == 0 {
			fmt.Println("no MIDI input devices found")
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}
	if args.File == "" {
		parser.Fail("a groove file is required")
	}

	groove, err := loadGroove(args.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if args.Tempo != 0 {
		groove.Tempo = args.Tempo
	}
	if args.Swing >= 0 {
		groove.Swing = args.Swing
	}
	if err := groove.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid groove: %v\n", err)
		os.Exit(1)
	}

	offsetClick, ok := offsetClicks[strings.ToLower(args.OffsetClick)]
	if !ok {
		parser.Fail(fmt.Sprintf("unknown offset click %q", args.OffsetClick))
	}
	syncMode, ok := syncModes[strings.ToLower(args.Sync)]
	if !ok {
		parser.Fail(fmt.Sprintf("unknown sync mode %q", args.Sync))
	}

	drums := synth.New()
	drums.SetVolume(args.Volume)

	if args.Wav != "" || args.Raw != "" {
		if err := export(drums, groove, args); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	audioContext, err := oto.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not acquire audio device: %v\n", err)
		os.Exit(1)
	}
	defer audioContext.Close()
	if err := drums.AttachOutput(audioContext); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	broker := engine.NewBroker()
	player := engine.NewPlayer(broker, drums)
	defer player.Dispose()
	player.SetSyncMode(syncMode)
	player.SetMetronomeConfig(engine.MetronomeConfig{
		Frequency:   args.Metronome,
		Solo:        args.Solo,
		CountIn:     args.CountIn,
		OffsetClick: offsetClick,
		Volume:      args.ClickVolume,
	})

	broker.OnAlert(func(alert engine.Alert) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", alert.Name, alert.Message)
	})
	labels := groovekit.CountLabels(groove.Division, groove.TimeSignature.Beats, groove.TimeSignature.NoteValue)
	broker.OnPosition(func(index int) {
		if index < 0 {
			return
		}
		_, note := groove.NotePosition(index)
		if note >= 0 && note < len(labels) {
			fmt.Printf("\r%-4s peak %4.2f", labels[note], drums.Peak())
		}
	})
	finished := make(chan struct{})
	broker.OnPlaybackState(func(playing bool) {
		if !playing {
			close(finished)
		}
	})

	tracker := &perf.Tracker{}
	midiContext, err := setupMIDI(drums, tracker, groove, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if midiContext != nil {
		defer midiContext.Close()
	}

	if !player.Play(groove, args.Loop) {
		os.Exit(1)
	}

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	select {
	case <-finished:
	case <-interrupted:
		player.Stop()
	}
	fmt.Println()
	if args.Practice {
		tracker.Disable()
		fmt.Print(tracker.Report())
	}
}

func loadGroove(filename string) (*groovekit.Groove, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read file %v: %w", filename, err)
	}
	var groove groovekit.Groove
	if err := yaml.Unmarshal(contents, &groove); err != nil {
		return nil, fmt.Errorf("could not parse groove file %v: %w", filename, err)
	}
	return &groove, nil
}

func export(drums *synth.Synth, groove *groovekit.Groove, args arguments) error {
	buffer, err := groovekit.Render(drums, groove, args.Repetitions)
	if err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}
	if args.Wav != "" {
		wav, err := groovekit.Wav(buffer, args.PCM)
		if err != nil {
			return fmt.Errorf("could not generate .wav: %w", err)
		}
		if err := os.WriteFile(args.Wav, wav, 0644); err != nil {
			return fmt.Errorf("could not write %v: %w", args.Wav, err)
		}
	}
	if args.Raw != "" {
		raw, err := groovekit.Raw(buffer, args.PCM)
		if err != nil {
			return fmt.Errorf("could not generate .raw: %w", err)
		}
		if err := os.WriteFile(args.Raw, raw, 0644); err != nil {
			return fmt.Errorf("could not write %v: %w", args.Raw, err)
		}
	}
	return nil
}

// setupMIDI opens the requested input device and wires incoming hits to the
// synth and the performance tracker. The tracker's beat reference anchors on
// the first hit, so the player does not have to share a clock with the MIDI
// driver.
func setupMIDI(drums *synth.Synth, tracker *perf.Tracker, groove *groovekit.Groove, args arguments) (*gomidi.Context, error) {
	if args.MIDI == "" && !args.Practice && !args.Through {
		return nil, nil
	}
	hub := groovemidi.NewHub(args.Kit, drums)
	hub.SetThrough(args.Through)
	hub.OnHit(func(hit groovemidi.Hit) {
		if !args.Practice {
			return
		}
		if !tracker.Enabled() {
			tracker.Enable(groove, groove.Tempo, hit.Timestamp)
		}
		analysis := tracker.AnalyzeHit(hit.Voice, hit.Timestamp)
		if analysis != nil {
			fmt.Printf("\r%v: timing %.0f, note %.0f, overall %.0f (%s)\n",
				hit.Voice, analysis.TimingAccuracy, analysis.NoteAccuracy, analysis.Overall, analysis.Feedback)
		}
	})
	midiContext := gomidi.NewContext(hub)
	if err := midiContext.OpenBy(args.MIDI, args.MIDI == ""); err != nil {
		midiContext.Close()
		return nil, fmt.Errorf("could not open MIDI input: %w", err)
	}
	return midiContext, nil
}
