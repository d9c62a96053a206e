package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-tutor-be/pkg/llm"
)

const defaultTemperature = 0.7

// OllamaProvider talks to a local Ollama server through /api/chat
type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = (*OllamaProvider)(nil)

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Client:    &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  modelOptions  `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// chatFrame is one NDJSON line when streaming, or the whole body otherwise
type chatFrame struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return o.do(ctx, history, false, nil, opts...)
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (o *OllamaProvider) ChatStream(ctx context.Context, history []llm.Message, onChunk llm.ChunkHandler, opts ...llm.Option) (string, error) {
	return o.do(ctx, history, true, onChunk, opts...)
}

// do posts the chat and folds every frame of the reply into one string.
// A non-streamed reply is simply a single frame.
func (o *OllamaProvider) do(ctx context.Context, history []llm.Message, stream bool, onChunk llm.ChunkHandler, opts ...llm.Option) (string, error) {
	body, err := json.Marshal(o.buildRequest(history, stream, opts))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var full strings.Builder
	dec := json.NewDecoder(resp.Body)
	for {
		var frame chatFrame
		if err := dec.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("decode response: %w", err)
		}
		if frame.Error != "" {
			return "", fmt.Errorf("ollama error: %s", frame.Error)
		}

		if piece := frame.Message.Content; piece != "" {
			full.WriteString(piece)
			if onChunk != nil {
				if err := onChunk(piece); err != nil {
					return "", err
				}
			}
		}
		if frame.Done {
			break
		}
	}

	return full.String(), nil
}

func (o *OllamaProvider) buildRequest(history []llm.Message, stream bool, opts []llm.Option) chatRequest {
	options := llm.Options{Temperature: defaultTemperature}
	for _, opt := range opts {
		opt(&options)
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]chatMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	return chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Options:  modelOptions{Temperature: options.Temperature, NumPredict: options.MaxTokens},
	}
}
