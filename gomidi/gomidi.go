// Package gomidi connects external MIDI devices to the input hub using
// gitlab.com/gomidi/midi/v2 with the rtmidi driver. Device enumeration and
// connection live here; the hub neither knows nor cares where its raw
// messages come from.
package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	groovemidi "github.com/groovekit/groovekit/midi"
)

// Context owns the MIDI driver and at most one open input device. Incoming
// messages are fed to the hub in arrival order, stamped with the driver's
// millisecond timestamps.
type Context struct {
	driver    *rtmididrv.Driver
	currentIn drivers.In
	hub       *groovemidi.Hub
}

// NewContext opens the MIDI driver. A nil driver just means no MIDI is
// available on this system; the context stays usable and every open attempt
// reports failure.
func NewContext(hub *groovemidi.Hub) *Context {
	c := &Context{hub: hub}
	c.driver, _ = rtmididrv.New()
	return c
}

// InputNames lists the connected input devices.
func (c *Context) InputNames() []string {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names
}

// OpenBy opens the first input device whose name starts with namePrefix, or
// simply the first device when takeFirst is set. A previously open device is
// closed first.
func (c *Context) OpenBy(namePrefix string, takeFirst bool) error {
	if c.driver == nil {
		return errors.New("no MIDI driver available")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return fmt.Errorf("cannot list MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if takeFirst || strings.HasPrefix(in.String(), namePrefix) {
			return c.open(in)
		}
	}
	if takeFirst {
		return errors.New("no MIDI input devices found")
	}
	return fmt.Errorf("no MIDI input starting with %q", namePrefix)
}

func (c *Context) open(in drivers.In) error {
	if c.currentIn == in {
		return nil
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.currentIn = in
	if err := in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	_, err := midi.ListenTo(in, c.handleMessage)
	if err != nil {
		in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (c *Context) handleMessage(msg midi.Message, timestampms int32) {
	c.hub.Feed(msg, float64(timestampms))
}

func (c *Context) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *Context) Close() {
	if c.driver == nil {
		return
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}
