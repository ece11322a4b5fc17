// Package history stores per-session conversation state.
package history

import (
	"context"
	"time"
)

// Message is one stored conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the stored state for one session ID.
type Conversation struct {
	ID        string    `json:"id"`
	Persona   string    `json:"persona,omitempty"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return &out
}

// Store persists conversations keyed by session ID.
type Store interface {
	// Get returns the conversation for id, or (nil, nil) when absent.
	Get(ctx context.Context, id string) (*Conversation, error)

	// Save stores the conversation under its ID.
	Save(ctx context.Context, conv *Conversation) error

	// Delete removes the conversation for id. Deleting an absent
	// conversation is not an error.
	Delete(ctx context.Context, id string) error
}
