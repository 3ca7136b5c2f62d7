package llm

import "strings"

// NewOllama uses the OpenAI compatible endpoint served by Ollama under /v1.
func NewOllama(baseURL, model string, opts Options) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		Name:    "ollama",
		BaseURL: strings.TrimSuffix(baseURL, "/") + "/v1",
		Model:   model,
		Options: opts,
	})
}
