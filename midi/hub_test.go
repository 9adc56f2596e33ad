package midi

import (
	"math"
	"testing"

	groovekit "github.com/groovekit/groovekit"
)

type (
	fakeSynth struct {
		triggers []trigger
	}

	trigger struct {
		voice    groovekit.Voice
		velocity float64
		when     float64
	}
)

func (s *fakeSynth) Trigger(voice groovekit.Voice, velocity float64, when float64) {
	s.triggers = append(s.triggers, trigger{voice, velocity, when})
}
func (s *fakeSynth) CancelScheduled() {}
func (s *fakeSynth) Now() float64     { return 0 }
func (s *fakeSynth) Resume() error    { return nil }

func TestFeed(t *testing.T) {
	hub := NewHub("TD-17", nil)
	var hits []Hit
	hub.OnHit(func(hit Hit) { hits = append(hits, hit) })

	hub.Feed([]byte{0x90, 36, 127}, 10)
	hub.Feed([]byte{0x90, 38, 64}, 20)
	hub.Feed([]byte{0x80, 36, 0}, 30)    // note off
	hub.Feed([]byte{0x90, 38, 0}, 40)    // note on with zero velocity
	hub.Feed([]byte{0x90, 127, 100}, 50) // unmapped note
	hub.Feed([]byte{0xB0, 4, 90}, 60)    // control change
	hub.Feed([]byte{0x90}, 70)           // truncated

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].Voice != groovekit.Kick || hits[0].Timestamp != 10 {
		t.Errorf("first hit = %+v, expected a kick at 10", hits[0])
	}
	if math.Abs(hits[0].Velocity-1.0) > 1e-9 {
		t.Errorf("velocity 127 should map to 1.0, got %v", hits[0].Velocity)
	}
	if hits[1].Voice != groovekit.Snare || math.Abs(hits[1].Velocity-64.0/127) > 1e-9 {
		t.Errorf("second hit = %+v, expected a snare at velocity 64/127", hits[1])
	}
}

func TestThrough(t *testing.T) {
	synth := &fakeSynth{}
	hub := NewHub("GM", synth)
	hub.Feed([]byte{0x90, 36, 127}, 0)
	if len(synth.triggers) != 0 {
		t.Fatalf("through disabled, nothing should trigger")
	}
	hub.SetThrough(true)
	hub.Feed([]byte{0x90, 36, 127}, 0)
	if len(synth.triggers) != 1 {
		t.Fatalf("expected one trigger, got %d", len(synth.triggers))
	}
	tr := synth.triggers[0]
	if tr.voice != groovekit.Kick || tr.when != 0 {
		t.Errorf("through trigger = %+v, expected an immediate kick", tr)
	}
}

func TestSetKit(t *testing.T) {
	hub := NewHub("GM", nil)
	var hits []Hit
	hub.OnHit(func(hit Hit) { hits = append(hits, hit) })

	hub.Feed([]byte{0x90, 55, 100}, 0) // splash in GM
	hub.SetKit("TD-17")
	if hub.Kit() != "Roland TD-17" {
		t.Errorf("Kit() = %q", hub.Kit())
	}
	hub.Feed([]byte{0x90, 55, 100}, 0) // crash edge on the TD-17

	if len(hits) != 2 || hits[0].Voice != groovekit.Splash || hits[1].Voice != groovekit.Crash {
		t.Fatalf("kit swap not applied: %+v", hits)
	}
}

func TestKitByNameFallback(t *testing.T) {
	if kit := KitByName("no such module"); kit.Name != Kits[DefaultKit].Name {
		t.Errorf("unknown kit should fall back to the default, got %q", kit.Name)
	}
	for _, name := range KitNames() {
		if _, ok := Kits[name]; !ok {
			t.Errorf("KitNames lists %q which does not exist", name)
		}
	}
}

func TestOnHitUnsubscribe(t *testing.T) {
	hub := NewHub("GM", nil)
	count := 0
	unsubscribe := hub.OnHit(func(Hit) { count++ })
	hub.Feed([]byte{0x90, 36, 100}, 0)
	unsubscribe()
	hub.Feed([]byte{0x90, 36, 100}, 0)
	if count != 1 {
		t.Errorf("expected 1 delivery after unsubscribe, got %d", count)
	}
}
