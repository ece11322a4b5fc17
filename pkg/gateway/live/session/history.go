package session

import (
	"sync"
	"time"

	"github.com/voxkit-go/voxkit/pkg/core/llm"
	"github.com/voxkit-go/voxkit/pkg/gateway/history"
)

// conversation is the session's mutable view of its stored history. The
// forward loop and the turn goroutine both touch it, so access is
// mutex-guarded.
type conversation struct {
	mu       sync.Mutex
	id       string
	persona  string
	messages []history.Message
}

func newConversation(id string, stored *history.Conversation) *conversation {
	c := &conversation{id: id}
	if stored != nil {
		c.persona = stored.Persona
		c.messages = append(c.messages, stored.Messages...)
	}
	return c
}

func (c *conversation) appendUser(content string) {
	c.append(string(llm.RoleUser), content)
}

func (c *conversation) appendAssistant(content string) {
	c.append(string(llm.RoleAssistant), content)
}

func (c *conversation) append(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, history.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// snapshot returns the conversation in generator request form.
func (c *conversation) snapshot() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Message, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	return out
}

func (c *conversation) getPersona() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persona
}

// export returns the conversation in storable form.
func (c *conversation) export() *history.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &history.Conversation{
		ID:        c.id,
		Persona:   c.persona,
		Messages:  append([]history.Message(nil), c.messages...),
		UpdatedAt: time.Now(),
	}
}

func (c *conversation) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
