package midi

import groovekit "github.com/groovekit/groovekit"

// Kit maps the raw note numbers a drum module sends to logical drum voices.
// Several raw notes may alias to the same voice; rim and edge zones usually
// land on the voice of their parent pad. Notes absent from the table produce
// no event at all.
type Kit struct {
	Name  string
	Notes map[byte]groovekit.Voice
}

// DefaultKit is the kit used when an unknown name is requested.
const DefaultKit = "GM"

// Kits contains the built-in note tables.
var Kits = map[string]Kit{
	"GM": {
		Name: "General MIDI",
		Notes: map[byte]groovekit.Voice{
			35: groovekit.Kick,
			36: groovekit.Kick,
			37: groovekit.CrossStick,
			38: groovekit.Snare,
			39: groovekit.Clap,
			40: groovekit.SnareAccent,
			41: groovekit.FloorTom,
			42: groovekit.HiHatClosed,
			43: groovekit.FloorTom,
			44: groovekit.HiHatFoot,
			45: groovekit.Tom3,
			46: groovekit.HiHatOpen,
			47: groovekit.Tom2,
			48: groovekit.Tom1,
			49: groovekit.Crash,
			50: groovekit.Tom1,
			51: groovekit.Ride,
			52: groovekit.China,
			53: groovekit.RideBell,
			54: groovekit.Tambourine,
			55: groovekit.Splash,
			56: groovekit.Cowbell,
			57: groovekit.Crash,
			59: groovekit.Ride,
		},
	},
	"TD-17": {
		Name: "Roland TD-17",
		Notes: map[byte]groovekit.Voice{
			36: groovekit.Kick,
			38: groovekit.Snare,
			37: groovekit.CrossStick,
			40: groovekit.Snare, // snare rim
			48: groovekit.Tom1,
			50: groovekit.Tom1, // tom 1 rim
			45: groovekit.Tom2,
			47: groovekit.Tom2, // tom 2 rim
			43: groovekit.FloorTom,
			58: groovekit.FloorTom, // tom 3 rim
			46: groovekit.HiHatOpen,
			26: groovekit.HiHatOpen, // open edge
			42: groovekit.HiHatClosed,
			22: groovekit.HiHatClosed, // closed edge
			44: groovekit.HiHatFoot,
			49: groovekit.Crash,
			55: groovekit.Crash, // crash 1 edge
			57: groovekit.Crash, // crash 2
			52: groovekit.China, // crash 2 edge
			51: groovekit.Ride,
			53: groovekit.RideBell,
			59: groovekit.Ride, // ride edge
		},
	},
	"TD-11": {
		Name: "Roland TD-11",
		Notes: map[byte]groovekit.Voice{
			36: groovekit.Kick,
			38: groovekit.Snare,
			37: groovekit.CrossStick,
			40: groovekit.Snare,
			48: groovekit.Tom1,
			45: groovekit.Tom2,
			43: groovekit.FloorTom,
			46: groovekit.HiHatOpen,
			42: groovekit.HiHatClosed,
			44: groovekit.HiHatFoot,
			49: groovekit.Crash,
			55: groovekit.Splash,
			51: groovekit.Ride,
			53: groovekit.RideBell,
		},
	},
	"Alesis Nitro": {
		Name: "Alesis Nitro",
		Notes: map[byte]groovekit.Voice{
			36: groovekit.Kick,
			38: groovekit.Snare,
			37: groovekit.CrossStick,
			48: groovekit.Tom1,
			45: groovekit.Tom2,
			43: groovekit.FloorTom,
			46: groovekit.HiHatOpen,
			42: groovekit.HiHatClosed,
			44: groovekit.HiHatFoot,
			49: groovekit.Crash,
			51: groovekit.Ride,
		},
	},
}

// KitNames returns the built-in kit names.
func KitNames() []string {
	return []string{"GM", "TD-17", "TD-11", "Alesis Nitro"}
}

// KitByName returns a kit by name, falling back to the default kit for
// unknown names.
func KitByName(name string) Kit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}
