package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/llm/mock"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/idgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 9, 3, 10, 0, 0, 0, time.UTC)

func seededDocs() *memory.DocumentStore {
	docs := memory.NewDocumentStore()
	docs.SeedCourse(store.Course{
		ID:    "course-1",
		Name:  "CHBE241",
		Items: []store.CourseItem{{ID: "i1", Title: "Week 1", Published: true}},
	}, []string{"Apply the first law of thermodynamics"})
	docs.Enroll(store.Enrollment{UserID: "u1", CourseName: "CHBE241", Role: "student"})
	return docs
}

func newStore(t *testing.T, docs store.DocumentStore, window time.Duration, opts ...Option) *Store {
	t.Helper()
	s := NewStore(docs, mock.NewProvider(), window, logger.NewNopLogger(), opts...)
	t.Cleanup(s.Shutdown)
	return s
}

type failingDocs struct {
	*memory.DocumentStore
}

func (f failingDocs) GetCourseByName(context.Context, string) (*store.Course, error) {
	return nil, errors.New("db unreachable")
}

func (f failingDocs) GetStruggleProfile(context.Context, string, string) (*store.StruggleProfile, error) {
	return nil, errors.New("db unreachable")
}

func TestInitializeSession(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a live session with a bot greeting", func(t *testing.T) {
		docs := seededDocs()
		s := newStore(t, docs, time.Minute)

		chatID, greeting, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
		require.NoError(t, err)
		assert.Equal(t, idgen.ChatID("u1", "CHBE241", day), chatID)
		assert.Equal(t, store.SenderBot, greeting.Sender)
		assert.NotEmpty(t, greeting.Text)

		sess, ok := s.Get(chatID)
		require.True(t, ok)
		assert.Equal(t, []store.ChatMessage{greeting}, sess.TurnLog())

		msgs := sess.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, llm.RoleSystem, msgs[0].Role)
		assert.Contains(t, msgs[0].Content, "Apply the first law of thermodynamics")
		assert.Equal(t, llm.RoleAssistant, msgs[1].Role)

		persisted, ok := docs.Chat(chatID)
		require.True(t, ok)
		assert.Equal(t, store.DefaultChatTitle, persisted.Title)
		assert.Len(t, persisted.Messages, 1)
	})

	t.Run("re-initializing a live id is a no-op", func(t *testing.T) {
		s := newStore(t, seededDocs(), time.Minute)

		id1, g1, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
		require.NoError(t, err)
		id2, g2, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
		require.NoError(t, err)

		assert.Equal(t, id1, id2)
		assert.Equal(t, g1, g2)
		assert.Equal(t, 1, s.Len())
		sess, _ := s.Get(id1)
		assert.Equal(t, 1, sess.TurnCount())
	})

	t.Run("load failures degrade to an empty system prompt", func(t *testing.T) {
		s := newStore(t, failingDocs{seededDocs()}, time.Minute)

		chatID, _, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
		require.NoError(t, err)
		sess, ok := s.Get(chatID)
		require.True(t, ok)
		assert.NotContains(t, sess.Messages()[0].Content, "<learning_objectives>")
	})
}

func TestRestoreSession(t *testing.T) {
	ctx := context.Background()

	history := []store.ChatMessage{
		{ID: "m1", Sender: store.SenderBot, Text: "Hi!"},
		{ID: "m2", Sender: store.SenderUser, Text: "What is entropy?"},
		{ID: "m3", Sender: store.SenderBot, Text: "A measure of disorder."},
	}

	t.Run("replays persisted messages in order", func(t *testing.T) {
		docs := seededDocs()
		docs.SeedChat(store.PersistedChat{ID: "chat-1", UserID: "u1", CourseName: "CHBE241", Messages: history})
		s := newStore(t, docs, time.Minute)

		ok, err := s.RestoreSession(ctx, "chat-1", "CHBE241", "u1")
		require.NoError(t, err)
		require.True(t, ok)

		sess, live := s.Get("chat-1")
		require.True(t, live)
		assert.Equal(t, history, sess.TurnLog())

		msgs := sess.Messages()
		require.Len(t, msgs, 4)
		assert.Equal(t, llm.RoleSystem, msgs[0].Role)
		assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "Hi!"}, msgs[1])
		assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "What is entropy?"}, msgs[2])
		assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "A measure of disorder."}, msgs[3])
	})

	t.Run("restoring a live session leaves the turn log alone", func(t *testing.T) {
		s := newStore(t, seededDocs(), time.Minute)
		chatID, _, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
		require.NoError(t, err)

		ok, err := s.RestoreSession(ctx, chatID, "CHBE241", "u1")
		require.NoError(t, err)
		assert.True(t, ok)

		sess, _ := s.Get(chatID)
		assert.Equal(t, 1, sess.TurnCount())
	})

	t.Run("missing chat is not found", func(t *testing.T) {
		s := newStore(t, seededDocs(), time.Minute)
		ok, err := s.RestoreSession(ctx, "nope", "CHBE241", "u1")
		assert.False(t, ok)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("soft-deleted chat is not found", func(t *testing.T) {
		docs := seededDocs()
		docs.SeedChat(store.PersistedChat{ID: "gone", UserID: "u1", CourseName: "CHBE241", IsDeleted: true, Messages: history})
		s := newStore(t, docs, time.Minute)

		ok, err := s.RestoreSession(ctx, "gone", "CHBE241", "u1")
		assert.False(t, ok)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("a bad message aborts without registering", func(t *testing.T) {
		docs := seededDocs()
		bad := append(append([]store.ChatMessage(nil), history...), store.ChatMessage{ID: "m4", Sender: "system", Text: "?"})
		docs.SeedChat(store.PersistedChat{ID: "bad", UserID: "u1", CourseName: "CHBE241", Messages: bad})
		s := newStore(t, docs, time.Minute)

		ok, err := s.RestoreSession(ctx, "bad", "CHBE241", "u1")
		assert.False(t, ok)
		assert.Error(t, err)
		_, live := s.Get("bad")
		assert.False(t, live)
	})
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	var removed []RemovalReason
	s := newStore(t, seededDocs(), time.Minute, WithRemovalHook(func(_ *Session, r RemovalReason) {
		removed = append(removed, r)
	}))

	chatID, _, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
	require.NoError(t, err)
	sess, _ := s.Get(chatID)

	assert.True(t, s.DeleteSession(chatID))
	assert.False(t, s.DeleteSession(chatID))
	assert.Equal(t, []RemovalReason{RemovedDeleted}, removed)

	_, live := s.Get(chatID)
	assert.False(t, live)
	assert.ErrorIs(t, sess.AppendBotTurn(store.ChatMessage{Text: "late"}), store.ErrNotFound)
}

func TestEviction(t *testing.T) {
	ctx := context.Background()

	t.Run("idle sessions are evicted and reject late appends", func(t *testing.T) {
		evicted := make(chan string, 1)
		s := newStore(t, seededDocs(), 30*time.Millisecond, WithRemovalHook(func(sess *Session, r RemovalReason) {
			if r == RemovedEvicted {
				evicted <- sess.ChatID
			}
		}))

		chatID, _, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
		require.NoError(t, err)
		sess, _ := s.Get(chatID)

		select {
		case id := <-evicted:
			assert.Equal(t, chatID, id)
		case <-time.After(2 * time.Second):
			t.Fatal("session was not evicted")
		}

		_, live := s.Get(chatID)
		assert.False(t, live)
		assert.True(t, sess.Closed())
		assert.ErrorIs(t, sess.AppendUserTurn("hello?", store.ChatMessage{Text: "hello?"}), store.ErrNotFound)
		assert.Equal(t, 1, sess.TurnCount())
	})

	t.Run("touch postpones eviction", func(t *testing.T) {
		s := newStore(t, seededDocs(), 80*time.Millisecond)
		chatID, _, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			time.Sleep(30 * time.Millisecond)
			require.True(t, s.Touch(chatID))
		}
		_, live := s.Get(chatID)
		assert.True(t, live)

		assert.Eventually(t, func() bool {
			_, live := s.Get(chatID)
			return !live
		}, 2*time.Second, 10*time.Millisecond)
		assert.False(t, s.Touch(chatID))
	})

	t.Run("eviction racing delete has exactly one winner", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			var removals int32
			s := NewStore(seededDocs(), mock.NewProvider(), time.Millisecond, logger.NewNopLogger(),
				WithRemovalHook(func(*Session, RemovalReason) { atomic.AddInt32(&removals, 1) }))

			chatID, _, err := s.InitializeSession(ctx, "u1", "CHBE241", day)
			require.NoError(t, err)

			var wg sync.WaitGroup
			var deleted bool
			wg.Add(1)
			go func() {
				defer wg.Done()
				time.Sleep(time.Millisecond)
				deleted = s.DeleteSession(chatID)
			}()
			wg.Wait()

			assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, time.Millisecond)
			time.Sleep(5 * time.Millisecond)
			assert.Equal(t, int32(1), atomic.LoadInt32(&removals), "iteration %d deleted=%v", i, deleted)
			s.Shutdown()
		}
	})
}

func TestShutdown(t *testing.T) {
	var removals int32
	s := NewStore(seededDocs(), mock.NewProvider(), 20*time.Millisecond, logger.NewNopLogger(),
		WithRemovalHook(func(*Session, RemovalReason) { atomic.AddInt32(&removals, 1) }))

	_, _, err := s.InitializeSession(context.Background(), "u1", "CHBE241", day)
	require.NoError(t, err)

	s.Shutdown()
	assert.Equal(t, 0, s.Len())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&removals))
}
