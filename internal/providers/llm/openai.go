package llm

// NewOpenAI talks to the OpenAI chat completions API.
func NewOpenAI(baseURL, apiKey, model string, opts Options) *OpenAICompatible {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return NewOpenAICompatible(OpenAICompatibleConfig{
		Name:       "openai",
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
		Options:    opts,
	})
}
