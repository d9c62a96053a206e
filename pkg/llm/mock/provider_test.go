package mock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-tutor-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStream_StreamsWordByWord(t *testing.T) {
	p := NewProvider()
	p.Reply = "Entropy is a state function"

	var chunks []string
	out, err := p.ChatStream(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "entropy?"}}, func(c string) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Entropy is a state function", out)
	assert.Equal(t, out, strings.Join(chunks, ""))
	assert.Len(t, chunks, 5)
	assert.Len(t, p.StreamedHistories(), 1)
}

func TestChatStream_DefaultReplyEchoesQuestion(t *testing.T) {
	out, err := NewProvider().ChatStream(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "What is enthalpy?"},
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "turn 1")
	assert.Contains(t, out, "What is enthalpy?")
}

func TestChatStream_Error(t *testing.T) {
	p := NewProvider()
	p.StreamErr = errors.New("upstream down")

	var chunks int
	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "x"}}, func(string) error {
		chunks++
		return nil
	})
	assert.ErrorIs(t, err, p.StreamErr)
	assert.Equal(t, 1, chunks)
}

func TestChat_AnalysisRequests(t *testing.T) {
	p := NewProvider()
	history := []llm.Message{{Role: llm.RoleUser, Content: AnalysisMarker + "\nrecent turns"}}

	out, err := p.Chat(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "NONE", out)

	p.AnalysisReply = "entropy"
	out, err = p.Chat(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "entropy", out)
	assert.Len(t, p.CompletedHistories(), 2)
}

func TestChatStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProvider().ChatStream(ctx, []llm.Message{{Role: llm.RoleUser, Content: "x"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
