package session

import (
	"context"
	"sync"

	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/store"
)

// Session is one live tutoring conversation: the provider-side conversation
// and the caller-visible turn log. Once removed from the Store it is closed and
// rejects further appends with store.ErrNotFound.
type Session struct {
	ChatID     string
	UserID     string
	CourseName string

	conv *llm.Conversation

	mu      sync.Mutex
	turnLog []store.ChatMessage
	title   string
	closed  bool
}

// TurnLog returns a copy of the caller-visible history
func (s *Session) TurnLog() []store.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.ChatMessage, len(s.turnLog))
	copy(out, s.turnLog)
	return out
}

// TurnCount is the number of turn-log entries
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turnLog)
}

// Messages returns a snapshot of the provider conversation
func (s *Session) Messages() []llm.Message {
	return s.conv.Messages()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// AppendUserTurn adds the assembled prompt to the conversation and the raw message to the turn log
func (s *Session) AppendUserTurn(prompt string, msg store.ChatMessage) error {
	return s.append(llm.RoleUser, prompt, msg)
}

// AppendBotTurn adds a finalized response to both the conversation and the turn log
func (s *Session) AppendBotTurn(msg store.ChatMessage) error {
	return s.append(llm.RoleAssistant, msg.Text, msg)
}

func (s *Session) append(role llm.Role, convText string, msg store.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrNotFound
	}
	if err := s.conv.AddMessage(role, convText); err != nil {
		return err
	}
	s.turnLog = append(s.turnLog, msg)
	return nil
}

// Stream generates the next response from the conversation without holding the session lock
func (s *Session) Stream(ctx context.Context, onChunk llm.ChunkHandler) (string, error) {
	return s.conv.Stream(ctx, onChunk)
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) greeting() store.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.turnLog {
		if m.Sender == store.SenderBot {
			return m
		}
	}
	return store.ChatMessage{}
}
