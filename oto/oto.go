// Package oto outputs audio through github.com/ebitengine/oto/v3. It adapts
// the platform audio device to the groovekit.AudioContext interface; the
// ready channel of the underlying context backs the Resume semantics, since
// some platforms keep the device suspended until the process is allowed to
// make noise.
package oto

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	groovekit "github.com/groovekit/groovekit"
)

type (
	// Context is the platform audio output.
	Context struct {
		context *oto.Context
		ready   chan struct{}
		mutex   sync.Mutex
		players []*oto.Player
	}

	// sourceReader adapts a groovekit.AudioSource to the io.Reader the oto
	// player pulls from.
	sourceReader struct {
		source    groovekit.AudioSource
		buffer    []float32
		converted []byte
		leftover  []byte
	}
)

const readyTimeout = 2 * time.Second

// NewContext opens the platform audio device at the engine sample rate,
// stereo, 32-bit float samples.
func NewContext() (*Context, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   groovekit.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	return &Context{context: context, ready: ready}, nil
}

// Play starts pulling the source. The underlying player buffers ahead on its
// own goroutine; playback becomes audible once the device is ready.
func (c *Context) Play(source groovekit.AudioSource) error {
	player := c.context.NewPlayer(&sourceReader{source: source})
	c.mutex.Lock()
	c.players = append(c.players, player)
	c.mutex.Unlock()
	player.Play()
	return nil
}

// Resume waits for the audio device to become ready and resumes a suspended
// context. Returns an error when the device does not come up, so the caller
// can report playback failure instead of playing into the void.
func (c *Context) Resume() error {
	select {
	case <-c.ready:
	case <-time.After(readyTimeout):
		return errors.New("audio device not ready")
	}
	if err := c.context.Resume(); err != nil {
		return fmt.Errorf("cannot resume audio context: %w", err)
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, p := range c.players {
		if !p.IsPlaying() {
			p.Play()
		}
	}
	return nil
}

// Close stops all players and suspends the device. The oto context itself
// has no close; suspending releases the hardware.
func (c *Context) Close() error {
	c.mutex.Lock()
	players := c.players
	c.players = nil
	c.mutex.Unlock()
	var firstErr error
	for _, p := range players {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("cannot close oto player: %w", err)
		}
	}
	if err := c.context.Suspend(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return firstErr
}

// Read pulls audio from the source and converts it to little-endian float32
// bytes. Unaligned reads keep the remainder for the next call so no samples
// are dropped.
func (r *sourceReader) Read(p []byte) (int, error) {
	if len(r.leftover) > 0 {
		n := copy(p, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}
	frames := len(p) / 8 // 2 channels x 4 bytes
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buffer) < frames*2 {
		r.buffer = make([]float32, frames*2)
	}
	n, err := r.source.ReadAudio(r.buffer[:frames*2])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	r.converted = floatBufferToBytesLE(r.buffer[:n], r.converted[:0])
	copied := copy(p, r.converted)
	r.leftover = r.converted[copied:]
	return copied, nil
}
