package llm

import (
	"context"
	"strings"

	"github.com/sandevgo/riskmon/internal/core"
)

const (
	StubName   = "stub"
	stubPrefix = "[stub] This is a deterministic offline response. "
	stubEcho   = 200
)

// Stub answers without any network call. The text depends only on the prompt.
type Stub struct {
	model string
}

func NewStub(model string) *Stub {
	if model == "" {
		model = StubName
	}
	return &Stub{model: model}
}

func (s *Stub) Generate(_ context.Context, messages []core.Message) (core.Generation, error) {
	prompt := joinContent(messages)
	text := stubPrefix + firstRunes(prompt, stubEcho)

	tp, tc, _ := Estimate(StubName, prompt, text)
	return core.Generation{
		Text:             text,
		Provider:         StubName,
		Model:            s.model,
		TokensPrompt:     tp,
		TokensCompletion: tc,
	}, nil
}

func joinContent(messages []core.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
