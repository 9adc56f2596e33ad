package synth

import (
	"math"
	"testing"

	groovekit "github.com/groovekit/groovekit"
)

func readFrames(t *testing.T, s *Synth, frames int) []float32 {
	t.Helper()
	buffer := make([]float32, frames*2)
	n, err := s.ReadAudio(buffer)
	if err != nil {
		t.Fatalf("ReadAudio failed: %v", err)
	}
	if n != len(buffer) {
		t.Fatalf("ReadAudio returned %d samples, expected %d", n, len(buffer))
	}
	return buffer
}

func firstAudibleFrame(buffer []float32) int {
	for i := 0; i < len(buffer); i += 2 {
		if buffer[i] != 0 || buffer[i+1] != 0 {
			return i / 2
		}
	}
	return -1
}

func TestSilenceWithoutTriggers(t *testing.T) {
	s := New()
	buffer := readFrames(t, s, 512)
	if frame := firstAudibleFrame(buffer); frame != -1 {
		t.Errorf("expected silence, heard audio at frame %d", frame)
	}
	if got := s.Now(); math.Abs(got-512.0/groovekit.SampleRate) > 1e-12 {
		t.Errorf("Now() = %v after 512 frames", got)
	}
}

func TestTriggerStartsAtExactFrame(t *testing.T) {
	s := New()
	const when = 100.0 / groovekit.SampleRate
	s.Trigger(groovekit.Kick, 1, when)
	buffer := readFrames(t, s, 512)
	if frame := firstAudibleFrame(buffer); frame != 100 {
		t.Errorf("hit starts at frame %d, expected 100", frame)
	}
}

func TestTriggerAcrossBuffers(t *testing.T) {
	s := New()
	// 1.5 buffers into the future, lands mid-buffer on the second read
	s.Trigger(groovekit.Snare, 1, 768.0/groovekit.SampleRate)
	if frame := firstAudibleFrame(readFrames(t, s, 512)); frame != -1 {
		t.Fatalf("hit sounded a buffer early, at frame %d", frame)
	}
	if frame := firstAudibleFrame(readFrames(t, s, 512)); frame != 256 {
		t.Errorf("hit starts at frame %d of the second buffer, expected 256", frame)
	}
}

func TestTriggerInThePastPlaysImmediately(t *testing.T) {
	s := New()
	readFrames(t, s, 512) // advance the clock
	s.Trigger(groovekit.Kick, 1, 0)
	if frame := firstAudibleFrame(readFrames(t, s, 512)); frame != 0 {
		t.Errorf("past-due hit starts at frame %d, expected 0", frame)
	}
}

func TestCancelScheduled(t *testing.T) {
	s := New()
	s.Trigger(groovekit.Kick, 1, 100.0/groovekit.SampleRate)
	s.CancelScheduled()
	if frame := firstAudibleFrame(readFrames(t, s, 512)); frame != -1 {
		t.Errorf("cancelled hit still sounded at frame %d", frame)
	}
}

func TestIgnoredTriggers(t *testing.T) {
	s := New()
	s.Trigger(groovekit.Voice(-1), 1, 0)
	s.Trigger(groovekit.Kick, 0, 0)
	if frame := firstAudibleFrame(readFrames(t, s, 512)); frame != -1 {
		t.Errorf("invalid trigger sounded at frame %d", frame)
	}
}

func TestVolume(t *testing.T) {
	s := New()
	s.SetVolume(1)
	s.Trigger(groovekit.Kick, 1, 0)
	loud := readFrames(t, s, 2048)
	s2 := New()
	s2.SetVolume(0.5)
	s2.Trigger(groovekit.Kick, 1, 0)
	quiet := readFrames(t, s2, 2048)
	for i := range loud {
		if math.Abs(float64(quiet[i]-loud[i]/2)) > 1e-6 {
			t.Fatalf("sample %d: %v at half volume, %v at full", i, quiet[i], loud[i])
		}
	}
	if peak := s.Peak(); peak <= 0 {
		t.Errorf("peak meter should read above zero, got %v", peak)
	}
}

type fakeOutput struct {
	resumed int
	closed  int
}

func (o *fakeOutput) Play(source groovekit.AudioSource) error { return nil }
func (o *fakeOutput) Resume() error                           { o.resumed++; return nil }
func (o *fakeOutput) Close() error                            { o.closed++; return nil }

func TestClose(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close without an output failed: %v", err)
	}
	output := &fakeOutput{}
	if err := s.AttachOutput(output); err != nil {
		t.Fatalf("AttachOutput failed: %v", err)
	}
	if err := s.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if output.resumed != 1 {
		t.Errorf("expected one resume, got %d", output.resumed)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if output.closed != 1 {
		t.Errorf("expected the output to be closed once, got %d", output.closed)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if output.closed != 1 {
		t.Errorf("Close must be idempotent, output closed %d times", output.closed)
	}
	if err := s.Resume(); err == nil {
		t.Errorf("Resume after Close should fail")
	}
}

func TestOddBufferRejected(t *testing.T) {
	s := New()
	if _, err := s.ReadAudio(make([]float32, 11)); err == nil {
		t.Errorf("odd buffer length should be rejected")
	}
}
