package factory

import (
	"errors"
	"fmt"
	"strings"

	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/llm/mock"
	"ai-tutor-be/pkg/llm/ollama"
	"ai-tutor-be/pkg/llm/openai"
)

const defaultOllamaURL = "http://localhost:11434"

// NewLLMProvider picks the chat backend named by providerType (case-insensitive)
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch strings.ToLower(strings.TrimSpace(providerType)) {
	case "ollama", "":
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		// a custom base URL may point at a keyless OpenAI-compatible server
		if apiKey == "" && baseURL == "" {
			return nil, errors.New("openai provider requires LLM_API_KEY")
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	case "mock":
		return mock.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
