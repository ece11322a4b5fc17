// Package stt provides streaming speech-to-text functionality.
package stt

// EventKind classifies a recognition event.
type EventKind int

const (
	// EventPartial is an interim hypothesis for the current utterance.
	EventPartial EventKind = iota
	// EventFinal is a settled transcript for an utterance.
	EventFinal
	// EventTurnEnd signals that the speaker's turn is over. It always
	// follows a final transcript.
	EventTurnEnd
	// EventError reports a terminal recognizer failure. At most one is
	// emitted per session.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventPartial:
		return "partial"
	case EventFinal:
		return "final"
	case EventTurnEnd:
		return "turn_end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one recognition event. Text carries the transcript for
// Partial, Final, and TurnEnd events; Err is set only for Error events.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// SessionOptions configures a streaming recognition session.
type SessionOptions struct {
	// SampleRate of the inbound PCM audio in Hz. Defaults to 16000.
	SampleRate int

	// Encoding of the inbound audio. Defaults to pcm_s16le.
	Encoding string

	// FormatTurns requests punctuated, formatted final transcripts.
	FormatTurns bool
}
