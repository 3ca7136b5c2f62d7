package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/riskmon/internal/core"
)

type OpenAICompatible struct {
	baseProvider
	name         string
	opts         Options
	authHeader   string
	authPrefix   string
	extraHeaders map[string]string
}

type OpenAICompatibleConfig struct {
	Name         string
	BaseURL      string // including the version segment, e.g. https://api.openai.com/v1
	APIKey       string
	Model        string
	AuthHeader   string // e.g., "Authorization"
	AuthPrefix   string // e.g., "Bearer "
	ExtraHeaders map[string]string
	Options      Options
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Options),
		name:         cfg.Name,
		opts:         cfg.Options,
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		extraHeaders: cfg.ExtraHeaders,
	}
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message core.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (o *OpenAICompatible) Generate(ctx context.Context, messages []core.Message) (core.Generation, error) {
	payload := map[string]any{
		"model":       o.model,
		"messages":    messages,
		"temperature": o.opts.Temperature,
	}
	if o.opts.MaxTokens > 0 {
		payload["max_tokens"] = o.opts.MaxTokens
	}

	headers := make(map[string]string)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}

	var result chatResponse
	if err := o.postJSON(ctx, "/chat/completions", payload, headers, &result); err != nil {
		return core.Generation{}, fmt.Errorf("%s chat: %w", o.name, err)
	}
	if len(result.Choices) == 0 {
		return core.Generation{}, fmt.Errorf("%s chat: empty choices", o.name)
	}

	text := result.Choices[0].Message.Content
	gen := core.Generation{
		Text:     text,
		Provider: o.name,
		Model:    o.model,
	}
	if result.Usage != nil {
		gen.TokensPrompt = result.Usage.PromptTokens
		gen.TokensCompletion = result.Usage.CompletionTokens
		gen.CostUSD = Cost(o.model, gen.TokensPrompt, gen.TokensCompletion)
	} else {
		gen.TokensPrompt, gen.TokensCompletion, gen.CostUSD = Estimate(o.model, joinContent(messages), text)
	}
	return gen, nil
}
