package factory

import (
	"testing"

	"ai-tutor-be/pkg/llm/mock"
	"ai-tutor-be/pkg/llm/ollama"
	"ai-tutor-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llama3", "", "")
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)
	assert.Equal(t, defaultOllamaURL, p.(*ollama.OllamaProvider).BaseURL)

	p, err = NewLLMProvider(" OpenAI ", "gpt-4o-mini", "", "key")
	require.NoError(t, err)
	assert.IsType(t, &openai.Provider{}, p)

	p, err = NewLLMProvider("mock", "", "", "")
	require.NoError(t, err)
	assert.IsType(t, &mock.Provider{}, p)

	p, err = NewLLMProvider("", "llama3", "", "")
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)
}

func TestNewLLMProviderRejects(t *testing.T) {
	_, err := NewLLMProvider("gemini", "", "", "")
	assert.ErrorContains(t, err, "unsupported LLM provider")

	_, err = NewLLMProvider("openai", "gpt-4o-mini", "", "")
	assert.ErrorContains(t, err, "LLM_API_KEY")

	p, err := NewLLMProvider("openai", "local", "http://localhost:8000/v1", "")
	require.NoError(t, err)
	assert.IsType(t, &openai.Provider{}, p)
}
