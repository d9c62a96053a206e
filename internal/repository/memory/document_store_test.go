package memory

import (
	"context"
	"errors"
	"testing"

	"ai-tutor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore_Chats(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	require.NoError(t, s.EnsureChat(ctx, &store.PersistedChat{ID: "c1", UserID: "u", CourseName: "CS101", Title: store.DefaultChatTitle}))
	require.NoError(t, s.EnsureChat(ctx, &store.PersistedChat{ID: "c1", UserID: "u", CourseName: "CS101", Title: "ignored"}))

	msg := store.ChatMessage{ID: "m1", Sender: store.SenderUser, Text: "hi"}
	require.NoError(t, s.AppendChatMessages(ctx, "c1", msg))
	require.NoError(t, s.AppendChatMessages(ctx, "c1", msg))

	chats, err := s.GetUserChats(ctx, "CS101", "u")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, store.DefaultChatTitle, chats[0].Title)
	assert.Len(t, chats[0].Messages, 1)

	assert.ErrorIs(t, s.AppendChatMessages(ctx, "missing", msg), store.ErrNotFound)

	s.TitleUpdateErr = errors.New("disk full")
	assert.Error(t, s.UpdateChatTitle(ctx, "c1", "x"))
	assert.Equal(t, 0, s.TitleWrites())
}

func TestDocumentStore_StruggleProfile(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	p, err := s.GetStruggleProfile(ctx, "CS101", "u")
	require.NoError(t, err)
	assert.Nil(t, p)

	assert.ErrorIs(t, s.UpdateStruggleProfile(ctx, "CS101", "u", []string{"x"}), store.ErrNotFound)

	p, err = s.InitializeStruggleProfile(ctx, &store.Enrollment{UserID: "u", CourseName: "CS101"})
	require.NoError(t, err)
	assert.Empty(t, p.StruggleWords)

	require.NoError(t, s.UpdateStruggleProfile(ctx, "CS101", "u", []string{"recursion"}))
	p, err = s.InitializeStruggleProfile(ctx, &store.Enrollment{UserID: "u", CourseName: "CS101"})
	require.NoError(t, err)
	assert.Equal(t, []string{"recursion"}, p.StruggleWords)
}
