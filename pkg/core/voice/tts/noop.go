package tts

import "context"

// NoopProvider is used when no synthesis backend is configured. Sessions
// run text-only: streaming contexts accept text and complete without
// producing audio, and one-shot synthesis returns a fixed fallback URL.
type NoopProvider struct {
	// FallbackURL is returned from Synthesize so callers still get a
	// playable asset reference.
	FallbackURL string
}

// NewNoop creates a no-op TTS provider.
func NewNoop(fallbackURL string) *NoopProvider {
	return &NoopProvider{FallbackURL: fallbackURL}
}

// Name returns the provider identifier.
func (n *NoopProvider) Name() string { return "noop" }

// Synthesize returns the configured fallback URL.
func (n *NoopProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	return &Synthesis{AudioURL: n.FallbackURL}, nil
}

// NewStreamingContext returns a context that accepts text and finishes
// with no audio when flushed.
func (n *NoopProvider) NewStreamingContext(ctx context.Context, opts StreamingContextOptions) (*StreamingContext, error) {
	sc := NewStreamingContext()
	sc.SendFunc = func(text string, isFinal bool) error {
		if isFinal {
			sc.FinishAudio()
		}
		return nil
	}
	return sc, nil
}
