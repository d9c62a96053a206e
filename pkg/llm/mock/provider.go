// Package mock provides a deterministic offline LLM backend.
// It is used in developer mode and as a test double.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/tutor/prompt"
)

// AnalysisMarker lets the mock recognise a struggle-analysis request
const AnalysisMarker = prompt.AnalysisMarker

// Provider streams a canned, input-derived response word by word
type Provider struct {
	// ChunkDelay slows the stream down to mimic a live model
	ChunkDelay time.Duration
	// Reply overrides the generated response when non-empty
	Reply string
	// AnalysisReply is returned for struggle-analysis requests (default "NONE")
	AnalysisReply string
	// StreamErr makes ChatStream fail after emitting the first chunk
	StreamErr error
	// ChatErr makes Chat fail
	ChatErr error

	mu        sync.Mutex
	streamed  [][]llm.Message
	completed [][]llm.Message
}

var _ llm.LLMProvider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.record(&p.completed, history)
	if p.ChatErr != nil {
		return "", p.ChatErr
	}
	if last := lastUser(history); strings.Contains(last, AnalysisMarker) {
		if p.AnalysisReply != "" {
			return p.AnalysisReply, nil
		}
		return "NONE", nil
	}
	return p.reply(history), nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, onChunk llm.ChunkHandler, options ...llm.Option) (string, error) {
	p.record(&p.streamed, history)

	words := strings.Fields(p.reply(history))
	var full strings.Builder
	for i, w := range words {
		if i > 0 {
			w = " " + w
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if p.ChunkDelay > 0 {
			time.Sleep(p.ChunkDelay)
		}
		full.WriteString(w)
		if onChunk != nil {
			if err := onChunk(w); err != nil {
				return "", err
			}
		}
		if p.StreamErr != nil {
			return "", p.StreamErr
		}
	}
	return full.String(), nil
}

// StreamedHistories returns every history passed to ChatStream
func (p *Provider) StreamedHistories() [][]llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]llm.Message(nil), p.streamed...)
}

// CompletedHistories returns every history passed to Chat
func (p *Provider) CompletedHistories() [][]llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]llm.Message(nil), p.completed...)
}

func (p *Provider) record(dst *[][]llm.Message, history []llm.Message) {
	cp := make([]llm.Message, len(history))
	copy(cp, history)
	p.mu.Lock()
	*dst = append(*dst, cp)
	p.mu.Unlock()
}

func (p *Provider) reply(history []llm.Message) string {
	if p.Reply != "" {
		return p.Reply
	}
	turns := 0
	for _, m := range history {
		if m.Role == llm.RoleUser {
			turns++
		}
	}
	question := lastUser(history)
	if len(question) > 80 {
		question = question[:80]
	}
	return fmt.Sprintf("[offline tutor, turn %d] Let's work through this together. You asked: %q. Start by stating what you already know, then we can build on it step by step.", turns, strings.TrimSpace(question))
}

func lastUser(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			return history[i].Content
		}
	}
	return ""
}
