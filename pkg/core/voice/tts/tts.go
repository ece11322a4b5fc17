// Package tts provides text-to-speech functionality.
package tts

import (
	"context"
	"sync"
	"sync/atomic"
)

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to a hosted audio file and returns its URL.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)

	// NewStreamingContext creates a context for incremental text streaming.
	// Text is sent in chunks and appended server-side to one utterance;
	// audio chunks stream back as they are generated.
	NewStreamingContext(ctx context.Context, opts StreamingContextOptions) (*StreamingContext, error)
}

// SynthesizeOptions configures one-shot synthesis.
type SynthesizeOptions struct {
	Voice  string // Voice identifier
	Format string // Output format, e.g. "mp3"
}

// Synthesis is the result of one-shot synthesis.
type Synthesis struct {
	AudioURL string // Hosted audio file URL
}

// StreamingContextOptions configures a streaming context.
type StreamingContextOptions struct {
	Voice      string // Voice identifier
	Format     string // Output format
	SampleRate int    // Sample rate
	ContextID  string // Server-side accumulation context; generated when empty
}

// StreamingContext manages an incremental TTS session. Text is sent in
// chunks via SendText; audio chunks are received via Audio. The audio
// channel is closed when the utterance is fully synthesized.
type StreamingContext struct {
	audio     chan []byte
	err       error
	errMu     sync.Mutex
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	finOnce   sync.Once

	// Hooks for implementations.
	SendFunc  func(text string, isFinal bool) error
	CloseFunc func() error
}

// NewStreamingContext creates a new streaming context shell for a
// provider implementation to wire up.
func NewStreamingContext() *StreamingContext {
	return &StreamingContext{
		audio: make(chan []byte, 100),
		done:  make(chan struct{}),
	}
}

// SendText sends a text chunk to be appended to the utterance.
func (sc *StreamingContext) SendText(text string) error {
	return sc.send(text, false)
}

// Flush signals that all text has been sent and synthesis of the
// remaining buffered text should complete.
func (sc *StreamingContext) Flush() error {
	return sc.send("", true)
}

func (sc *StreamingContext) send(text string, isFinal bool) error {
	if sc.closed.Load() {
		return ErrContextClosed
	}
	if sc.SendFunc != nil {
		return sc.SendFunc(text, isFinal)
	}
	return nil
}

// Audio returns the channel of audio chunks.
func (sc *StreamingContext) Audio() <-chan []byte {
	return sc.audio
}

// Err returns any error that occurred.
func (sc *StreamingContext) Err() error {
	sc.errMu.Lock()
	defer sc.errMu.Unlock()
	return sc.err
}

// Done returns a channel that's closed when the context is closed.
func (sc *StreamingContext) Done() <-chan struct{} {
	return sc.done
}

// Close closes the streaming context.
func (sc *StreamingContext) Close() error {
	var err error
	sc.closeOnce.Do(func() {
		sc.closed.Store(true)
		if sc.CloseFunc != nil {
			err = sc.CloseFunc()
		}
		close(sc.done)
	})
	return err
}

// PushAudio delivers an audio chunk. Returns false if the context is done.
func (sc *StreamingContext) PushAudio(chunk []byte) bool {
	select {
	case sc.audio <- chunk:
		return true
	case <-sc.done:
		return false
	}
}

// SetError records the context error.
func (sc *StreamingContext) SetError(err error) {
	sc.errMu.Lock()
	sc.err = err
	sc.errMu.Unlock()
}

// FinishAudio closes the audio channel. Safe to call more than once.
func (sc *StreamingContext) FinishAudio() {
	sc.finOnce.Do(func() { close(sc.audio) })
}

// ErrContextClosed is returned when sending to a closed context.
var ErrContextClosed = &contextClosedError{}

type contextClosedError struct{}

func (e *contextClosedError) Error() string { return "streaming context closed" }
