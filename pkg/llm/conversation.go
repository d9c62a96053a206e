package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Conversation is a provider-side conversation handle: an ordered,
// role-tagged message list plus the provider used to generate from it.
type Conversation struct {
	provider LLMProvider
	options  []Option

	mu       sync.Mutex
	messages []Message
}

// NewConversation creates an empty conversation bound to provider
func NewConversation(provider LLMProvider, options ...Option) *Conversation {
	return &Conversation{
		provider: provider,
		options:  options,
	}
}

// AddMessage appends a message; unknown roles are rejected
func (c *Conversation) AddMessage(role Role, text string) error {
	if !role.Valid() {
		return fmt.Errorf("invalid message role %q", role)
	}
	c.mu.Lock()
	c.messages = append(c.messages, Message{Role: role, Content: text})
	c.mu.Unlock()
	return nil
}

// Messages returns a copy of the message list
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages held
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Stream generates a response from the current message list.
// The response is not appended; callers decide whether to keep it.
func (c *Conversation) Stream(ctx context.Context, onChunk ChunkHandler) (string, error) {
	history := c.Messages()
	var full strings.Builder
	text, err := c.provider.ChatStream(ctx, history, func(chunk string) error {
		full.WriteString(chunk)
		if onChunk != nil {
			return onChunk(chunk)
		}
		return nil
	}, c.options...)
	if err != nil {
		return "", err
	}
	if text == "" {
		text = full.String()
	}
	return text, nil
}

// Send performs a single non-streaming completion over the current message list
func (c *Conversation) Send(ctx context.Context) (string, error) {
	return c.provider.Chat(ctx, c.Messages(), c.options...)
}
