package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/riskmon/internal/core"
)

type Anthropic struct {
	baseProvider
	opts Options
}

func NewAnthropic(apiKey, model string, opts Options) *Anthropic {
	return &Anthropic{
		baseProvider: newBaseProvider("https://api.anthropic.com", apiKey, model, opts),
		opts:         opts,
	}
}

func (a *Anthropic) Generate(ctx context.Context, history []core.Message) (core.Generation, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	var (
		system   []string
		messages []msg
	)
	for _, m := range history {
		if m.Role == core.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		messages = append(messages, msg{Role: m.Role, Content: m.Content})
	}

	maxTokens := a.opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	payload := map[string]any{
		"model":       a.model,
		"max_tokens":  maxTokens,
		"messages":    messages,
		"temperature": a.opts.Temperature,
	}
	if len(system) > 0 {
		payload["system"] = strings.Join(system, "\n\n")
	}

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := a.postJSON(ctx, "/v1/messages", payload, headers, &result); err != nil {
		return core.Generation{}, fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	return core.Generation{
		Text:             text.String(),
		Provider:         "anthropic",
		Model:            a.model,
		TokensPrompt:     result.Usage.InputTokens,
		TokensCompletion: result.Usage.OutputTokens,
		CostUSD:          Cost(a.model, result.Usage.InputTokens, result.Usage.OutputTokens),
	}, nil
}
