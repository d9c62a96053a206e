package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/idgen"
	"ai-tutor-be/pkg/tutor/prompt"
)

// DefaultInactivityWindow is how long a session may sit idle before eviction
const DefaultInactivityWindow = 5 * time.Minute

type RemovalReason string

const (
	RemovedEvicted RemovalReason = "evicted"
	RemovedDeleted RemovalReason = "deleted"
)

// RemovalHook observes sessions leaving the registry. It runs outside the registry lock.
type RemovalHook func(s *Session, reason RemovalReason)

type entry struct {
	session *Session
	timer   *time.Timer
	gen     uint64
}

// Store is the registry of live sessions. Every registry mutation (insert,
// remove, timer swap) happens under one mutex; no I/O runs while it is held.
type Store struct {
	docs     store.DocumentStore
	provider llm.LLMProvider
	ids      idgen.Generator
	window   time.Duration
	logger   logger.ILogger
	now      func() time.Time
	onRemove RemovalHook

	mu      sync.Mutex
	entries map[string]*entry
}

type Option func(*Store)

// WithClock replaces time.Now for message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(ids idgen.Generator) Option {
	return func(s *Store) { s.ids = ids }
}

func WithRemovalHook(hook RemovalHook) Option {
	return func(s *Store) { s.onRemove = hook }
}

func NewStore(docs store.DocumentStore, provider llm.LLMProvider, window time.Duration, log logger.ILogger, opts ...Option) *Store {
	if window <= 0 {
		window = DefaultInactivityWindow
	}
	s := &Store{
		docs:     docs,
		provider: provider,
		ids:      idgen.Deterministic{},
		window:   window,
		logger:   log,
		now:      time.Now,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitializeSession creates the session for (user, course, date), or rearms and
// returns the live one. The greeting is the first bot entry of the turn log.
func (s *Store) InitializeSession(ctx context.Context, userID, courseName string, date time.Time) (string, store.ChatMessage, error) {
	chatID := s.ids.ChatID(userID, courseName, date)

	if existing, ok := s.rearmExisting(chatID); ok {
		return chatID, existing.greeting(), nil
	}

	conv, err := s.newConversation(ctx, userID, courseName)
	if err != nil {
		return "", store.ChatMessage{}, err
	}

	text := prompt.Greeting(courseName)
	ts := s.now().UnixMilli()
	greeting := store.ChatMessage{
		ID:          s.ids.MessageID(text, chatID, ts),
		Sender:      store.SenderBot,
		UserID:      userID,
		CourseName:  courseName,
		Text:        text,
		TimestampMs: ts,
	}
	if err := conv.AddMessage(llm.RoleAssistant, text); err != nil {
		return "", store.ChatMessage{}, err
	}

	sess := &Session{
		ChatID:     chatID,
		UserID:     userID,
		CourseName: courseName,
		conv:       conv,
		turnLog:    []store.ChatMessage{greeting},
		title:      store.DefaultChatTitle,
	}

	registered, fresh := s.register(sess)
	if !fresh {
		return chatID, registered.greeting(), nil
	}

	s.logger.Info("SESSION_STORE", "Session initialized", map[string]interface{}{
		"chat_id":     chatID,
		"user_id":     userID,
		"course_name": courseName,
	})

	s.persistNewChat(ctx, sess, greeting)
	return chatID, greeting, nil
}

// RestoreSession rebuilds a persisted chat into a live session. The session is
// registered only after the whole history has been replayed.
func (s *Store) RestoreSession(ctx context.Context, chatID, courseName, userID string) (bool, error) {
	if _, ok := s.rearmExisting(chatID); ok {
		return true, nil
	}

	chats, err := s.docs.GetUserChats(ctx, courseName, userID)
	if err != nil {
		return false, fmt.Errorf("load chats: %w", err)
	}

	var persisted *store.PersistedChat
	for _, c := range chats {
		if c.ID == chatID {
			persisted = c
			break
		}
	}
	if persisted == nil || persisted.IsDeleted {
		return false, store.ErrNotFound
	}

	conv, err := s.newConversation(ctx, userID, courseName)
	if err != nil {
		return false, err
	}
	for _, m := range persisted.Messages {
		role, err := roleFor(m.Sender)
		if err != nil {
			return false, fmt.Errorf("replay message %s: %w", m.ID, err)
		}
		if err := conv.AddMessage(role, m.Text); err != nil {
			return false, fmt.Errorf("replay message %s: %w", m.ID, err)
		}
	}

	sess := &Session{
		ChatID:     chatID,
		UserID:     userID,
		CourseName: courseName,
		conv:       conv,
		turnLog:    append([]store.ChatMessage(nil), persisted.Messages...),
		title:      persisted.Title,
	}
	s.register(sess)

	s.logger.Info("SESSION_STORE", "Session restored", map[string]interface{}{
		"chat_id":  chatID,
		"messages": len(persisted.Messages),
	})
	return true, nil
}

// DeleteSession cancels the timer and removes the session. False when nothing was live.
func (s *Store) DeleteSession(chatID string) bool {
	s.mu.Lock()
	e, ok := s.entries[chatID]
	if ok {
		s.removeLocked(chatID, e)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.logger.Info("SESSION_STORE", "Session deleted", map[string]interface{}{"chat_id": chatID})
	s.notify(e.session, RemovedDeleted)
	return true
}

// Get returns the live session for chatID
func (s *Store) Get(chatID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[chatID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Touch rearms the inactivity timer; false when the session is not live
func (s *Store) Touch(chatID string) bool {
	_, ok := s.rearmExisting(chatID)
	return ok
}

// Len is the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Shutdown cancels every timer and drops all sessions without firing removal hooks
func (s *Store) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		s.removeLocked(id, e)
	}
}

func (s *Store) rearmExisting(chatID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[chatID]
	if !ok {
		return nil, false
	}
	s.armLocked(chatID, e)
	return e.session, true
}

// register inserts sess unless another caller won the race, in which case the
// live session is rearmed and returned with fresh=false.
func (s *Store) register(sess *Session) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sess.ChatID]; ok {
		s.armLocked(sess.ChatID, e)
		return e.session, false
	}
	e := &entry{session: sess}
	s.entries[sess.ChatID] = e
	s.armLocked(sess.ChatID, e)
	return sess, true
}

// armLocked replaces the entry's timer. The generation bump turns any timer that
// already fired and is waiting on the lock into a no-op.
func (s *Store) armLocked(chatID string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(s.window, func() {
		s.evict(chatID, gen)
	})
}

func (s *Store) removeLocked(chatID string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	delete(s.entries, chatID)
	e.session.close()
}

func (s *Store) evict(chatID string, gen uint64) {
	s.mu.Lock()
	e, ok := s.entries[chatID]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	s.removeLocked(chatID, e)
	s.mu.Unlock()

	s.logger.Info("SESSION_STORE", "Session evicted after inactivity", map[string]interface{}{
		"chat_id": chatID,
		"window":  s.window.String(),
	})
	s.notify(e.session, RemovedEvicted)
}

func (s *Store) notify(sess *Session, reason RemovalReason) {
	if s.onRemove != nil {
		s.onRemove(sess, reason)
	}
}

// newConversation seeds a conversation with the system prompt. Load failures
// degrade to empty objective and struggle lists.
func (s *Store) newConversation(ctx context.Context, userID, courseName string) (*llm.Conversation, error) {
	objectives := s.loadObjectives(ctx, courseName)
	struggles := s.loadStruggles(ctx, userID, courseName)

	conv := llm.NewConversation(s.provider)
	if err := conv.AddMessage(llm.RoleSystem, prompt.SystemPrompt(courseName, objectives, struggles)); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Store) loadObjectives(ctx context.Context, courseName string) []string {
	course, err := s.docs.GetCourseByName(ctx, courseName)
	if err != nil || course == nil {
		s.logger.Warn("SESSION_STORE", "Learning objectives unavailable", map[string]interface{}{
			"course_name": courseName,
			"error":       errString(err),
		})
		return nil
	}
	objectives, err := s.docs.GetAllLearningObjectives(ctx, course.ID)
	if err != nil {
		s.logger.Warn("SESSION_STORE", "Learning objectives unavailable", map[string]interface{}{
			"course_name": courseName,
			"error":       err.Error(),
		})
		return nil
	}
	return objectives
}

func (s *Store) loadStruggles(ctx context.Context, userID, courseName string) []string {
	profile, err := s.docs.GetStruggleProfile(ctx, courseName, userID)
	if err != nil {
		s.logger.Warn("SESSION_STORE", "Struggle topics unavailable", map[string]interface{}{
			"user_id":     userID,
			"course_name": courseName,
			"error":       err.Error(),
		})
		return nil
	}
	if profile == nil {
		return nil
	}
	return profile.StruggleWords
}

func (s *Store) persistNewChat(ctx context.Context, sess *Session, greeting store.ChatMessage) {
	err := s.docs.EnsureChat(ctx, &store.PersistedChat{
		ID:         sess.ChatID,
		UserID:     sess.UserID,
		CourseName: sess.CourseName,
		Title:      store.DefaultChatTitle,
		CreatedAt:  s.now().UTC(),
	})
	if err == nil {
		err = s.docs.AppendChatMessages(ctx, sess.ChatID, greeting)
	}
	if err != nil {
		s.logger.Warn("SESSION_STORE", "Failed to persist new chat", map[string]interface{}{
			"chat_id": sess.ChatID,
			"error":   err.Error(),
		})
	}
}

func roleFor(sender store.Sender) (llm.Role, error) {
	switch sender {
	case store.SenderUser:
		return llm.RoleUser, nil
	case store.SenderBot:
		return llm.RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown sender %q", sender)
	}
}

func errString(err error) string {
	if err == nil {
		return "course not found"
	}
	return err.Error()
}
