package llm

import "strings"

// NewCustomOpenAI targets any server that speaks the chat completions protocol.
func NewCustomOpenAI(baseURL, apiKey, model string, opts Options) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		Name:       "custom",
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
		Options:    opts,
	})
}
