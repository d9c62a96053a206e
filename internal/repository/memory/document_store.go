package memory

import (
	"context"
	"sync"
	"time"

	"ai-tutor-be/pkg/store"
)

// DocumentStore is an in-process store.DocumentStore used by dev mode and tests.
// The *Err fields inject failures into the matching write paths.
type DocumentStore struct {
	mu          sync.Mutex
	courses     map[string]*store.Course
	objectives  map[string][]string
	enrollments map[string]*store.Enrollment
	profiles    map[string]*store.StruggleProfile
	chats       map[string]*store.PersistedChat
	chatOrder   []string

	titleWrites int

	TitleUpdateErr   error
	ProfileUpdateErr error
	AppendErr        error
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		courses:     make(map[string]*store.Course),
		objectives:  make(map[string][]string),
		enrollments: make(map[string]*store.Enrollment),
		profiles:    make(map[string]*store.StruggleProfile),
		chats:       make(map[string]*store.PersistedChat),
	}
}

func ownerKey(courseName, userID string) string {
	return courseName + "\x1f" + userID
}

// SeedCourse registers a course with its learning objectives
func (s *DocumentStore) SeedCourse(course store.Course, objectives []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := course
	c.Items = append([]store.CourseItem(nil), course.Items...)
	s.courses[c.Name] = &c
	s.objectives[c.ID] = append([]string(nil), objectives...)
}

func (s *DocumentStore) Enroll(enrollment store.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := enrollment
	s.enrollments[ownerKey(e.CourseName, e.UserID)] = &e
}

// SeedChat stores a persisted chat as is, including soft-deleted ones
func (s *DocumentStore) SeedChat(chat store.PersistedChat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := chat
	c.Messages = append([]store.ChatMessage(nil), chat.Messages...)
	if _, ok := s.chats[c.ID]; !ok {
		s.chatOrder = append(s.chatOrder, c.ID)
	}
	s.chats[c.ID] = &c
}

// Chat returns a copy of a stored chat
func (s *DocumentStore) Chat(chatID string) (store.PersistedChat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return store.PersistedChat{}, false
	}
	return copyChat(c), true
}

// TitleWrites counts successful title updates
func (s *DocumentStore) TitleWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titleWrites
}

func (s *DocumentStore) GetCourseByName(_ context.Context, name string) (*store.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[name]
	if !ok {
		return nil, nil
	}
	out := *c
	out.Items = append([]store.CourseItem(nil), c.Items...)
	return &out, nil
}

func (s *DocumentStore) GetAllLearningObjectives(_ context.Context, courseID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.objectives[courseID]...), nil
}

func (s *DocumentStore) GetUserChats(_ context.Context, courseName, userID string) ([]*store.PersistedChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*store.PersistedChat
	for _, id := range s.chatOrder {
		c := s.chats[id]
		if c.CourseName == courseName && c.UserID == userID {
			cp := copyChat(c)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *DocumentStore) EnsureChat(_ context.Context, chat *store.PersistedChat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chat.ID]; ok {
		return nil
	}
	c := copyChat(chat)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.chats[c.ID] = &c
	s.chatOrder = append(s.chatOrder, c.ID)
	return nil
}

func (s *DocumentStore) AppendChatMessages(_ context.Context, chatID string, messages ...store.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	c, ok := s.chats[chatID]
	if !ok {
		return store.ErrNotFound
	}
	seen := make(map[string]bool, len(c.Messages))
	for _, m := range c.Messages {
		seen[m.ID] = true
	}
	for _, m := range messages {
		if seen[m.ID] {
			continue
		}
		c.Messages = append(c.Messages, m)
		seen[m.ID] = true
	}
	return nil
}

func (s *DocumentStore) UpdateChatTitle(_ context.Context, chatID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TitleUpdateErr != nil {
		return s.TitleUpdateErr
	}
	c, ok := s.chats[chatID]
	if !ok {
		return store.ErrNotFound
	}
	c.Title = title
	s.titleWrites++
	return nil
}

func (s *DocumentStore) GetStruggleProfile(_ context.Context, courseName, userID string) (*store.StruggleProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[ownerKey(courseName, userID)]
	if !ok {
		return nil, nil
	}
	out := *p
	out.StruggleWords = append([]string(nil), p.StruggleWords...)
	return &out, nil
}

func (s *DocumentStore) InitializeStruggleProfile(_ context.Context, enrollment *store.Enrollment) (*store.StruggleProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey(enrollment.CourseName, enrollment.UserID)
	if p, ok := s.profiles[key]; ok {
		out := *p
		out.StruggleWords = append([]string(nil), p.StruggleWords...)
		return &out, nil
	}
	p := &store.StruggleProfile{
		UserID:        enrollment.UserID,
		CourseName:    enrollment.CourseName,
		StruggleWords: []string{},
		UpdatedAt:     time.Now().UTC(),
	}
	s.profiles[key] = p
	out := *p
	out.StruggleWords = []string{}
	return &out, nil
}

func (s *DocumentStore) UpdateStruggleProfile(_ context.Context, courseName, userID string, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ProfileUpdateErr != nil {
		return s.ProfileUpdateErr
	}
	p, ok := s.profiles[ownerKey(courseName, userID)]
	if !ok {
		return store.ErrNotFound
	}
	p.StruggleWords = append([]string(nil), words...)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *DocumentStore) GetEnrollment(_ context.Context, courseName, userID string) (*store.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[ownerKey(courseName, userID)]
	if !ok {
		return nil, nil
	}
	out := *e
	return &out, nil
}

func copyChat(c *store.PersistedChat) store.PersistedChat {
	out := *c
	out.Messages = append([]store.ChatMessage(nil), c.Messages...)
	return out
}

var _ store.DocumentStore = (*DocumentStore)(nil)
