package groovekit

type (
	// AudioSource produces stereo interleaved float32 audio when pulled.
	// ReadAudio should fill the whole buffer; n is the number of float32
	// values written.
	AudioSource interface {
		ReadAudio(buffer []float32) (n int, err error)
	}

	// AudioContext is the platform audio output. Play starts pulling the
	// given source from a platform-owned goroutine and keeps pulling until
	// the context is closed.
	AudioContext interface {
		Play(source AudioSource) error
		Resume() error
		Close() error
	}
)
