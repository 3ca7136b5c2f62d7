package llm

import "github.com/sandevgo/riskmon/internal/core"

const repositoryURL = "https://github.com/sandevgo/riskmon"

func NewOpenRouter(apiKey, model string, opts Options) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		Name:       "openrouter",
		BaseURL:    "https://openrouter.ai/api/v1",
		APIKey:     apiKey,
		Model:      model,
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
		ExtraHeaders: map[string]string{
			"HTTP-Referer": repositoryURL,
			"X-Title":      core.AppName,
		},
		Options: opts,
	})
}
