package session

import "ai-tutor-be/pkg/tutor/title"

// Title is the chat title as last persisted
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// NeedsTitle reports whether the chat still carries its placeholder title
func (s *Session) NeedsTitle() bool {
	return title.IsSentinel(s.Title())
}

// SetTitle records a title that has been persisted
func (s *Session) SetTitle(t string) {
	s.mu.Lock()
	s.title = t
	s.mu.Unlock()
}
