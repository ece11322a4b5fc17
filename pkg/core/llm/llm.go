// Package llm provides streaming text generation for voice agent turns.
package llm

import "context"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation context sent to a generator.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes one generation pass.
type Request struct {
	// Messages is the ordered conversation so far, ending with the user
	// turn that should be answered.
	Messages []Message

	// Persona selects the system directive. Unknown values fall back to
	// the default persona.
	Persona string

	// Model overrides the generator's default model when non-empty.
	Model string
}

// TokenStream yields generated text increments in order. Next returns
// io.EOF after the last token.
type TokenStream interface {
	Next() (string, error)
	Close() error
}

// Generator is the interface for text generation backends.
type Generator interface {
	// Name returns the provider identifier.
	Name() string

	// Stream starts a streaming generation pass.
	Stream(ctx context.Context, req Request) (TokenStream, error)

	// Generate runs a non-streaming generation pass and returns the
	// full reply.
	Generate(ctx context.Context, req Request) (string, error)
}
