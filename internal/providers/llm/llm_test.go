package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
)

type mockGenerator struct {
	GenerateFunc func(ctx context.Context, messages []core.Message) (core.Generation, error)
}

func (m *mockGenerator) Generate(ctx context.Context, messages []core.Message) (core.Generation, error) {
	return m.GenerateFunc(ctx, messages)
}

func userMsg(s string) []core.Message {
	return []core.Message{{Role: core.RoleUser, Content: s}}
}

func TestStub_Deterministic(t *testing.T) {
	s := NewStub("")
	a, err := s.Generate(context.Background(), userMsg("hello there"))
	require.NoError(t, err)
	b, _ := s.Generate(context.Background(), userMsg("hello there"))

	assert.Equal(t, a, b)
	assert.Equal(t, stubPrefix+"hello there", a.Text)
	assert.Equal(t, StubName, a.Provider)
	assert.Zero(t, a.CostUSD)
	assert.GreaterOrEqual(t, a.TokensPrompt, 1)
	assert.GreaterOrEqual(t, a.TokensCompletion, 1)
}

func TestStub_EchoIsBounded(t *testing.T) {
	gen, _ := NewStub("").Generate(context.Background(), userMsg(strings.Repeat("x", 500)))
	assert.Equal(t, len(stubPrefix)+stubEcho, len(gen.Text))
}

func TestCost(t *testing.T) {
	assert.InDelta(t, 0.15+0.60, Cost("gpt-4o-mini", 1000, 1000), 1e-9)
	assert.InDelta(t, 5.0+15.0, Cost("gpt-4.1", 1000, 1000), 1e-9)
	assert.Zero(t, Cost(StubName, 1000, 1000))
	assert.Equal(t, Cost("gpt-4o-mini", 10, 20), Cost("no-such-model", 10, 20))
}

func TestEstimate_MinimumOne(t *testing.T) {
	tp, tc, _ := Estimate("gpt-4o-mini", "", "")
	assert.Equal(t, 1, tp)
	assert.Equal(t, 1, tc)
}

func TestOpenAICompatible_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}],"usage":{"prompt_tokens":1000,"completion_tokens":1000}}`))
	}))
	defer srv.Close()

	p := NewOpenAI(srv.URL+"/v1", "secret", "gpt-4o-mini", Options{})
	gen, err := p.Generate(context.Background(), userMsg("hello"))
	require.NoError(t, err)

	assert.Equal(t, "hi", gen.Text)
	assert.Equal(t, "openai", gen.Provider)
	assert.Equal(t, 1000, gen.TokensPrompt)
	assert.InDelta(t, 0.75, gen.CostUSD, 1e-9)
}

func TestOpenAICompatible_EstimatesWithoutUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"answer"}}]}`))
	}))
	defer srv.Close()

	gen, err := NewCustomOpenAI(srv.URL, "", "local", Options{}).Generate(context.Background(), userMsg("q"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, gen.TokensPrompt, 1)
	assert.GreaterOrEqual(t, gen.TokensCompletion, 1)
}

func TestOpenAICompatible_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewCustomOpenAI(srv.URL, "k", "m", Options{MaxRetries: 3}).Generate(context.Background(), userMsg("q"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAICompatible_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	gen, err := NewCustomOpenAI(srv.URL, "", "m", Options{MaxRetries: 1}).Generate(context.Background(), userMsg("q"))
	require.NoError(t, err)
	assert.Equal(t, "ok", gen.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropic_SystemMessagesLifted(t *testing.T) {
	p := NewAnthropic("key", "claude", Options{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			System   string           `json:"system"`
			Messages []map[string]any `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "be brief", body.System)
		assert.Len(t, body.Messages, 1)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"done"}],"usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer srv.Close()
	p.baseURL = srv.URL

	gen, err := p.Generate(context.Background(), []core.Message{
		{Role: core.RoleSystem, Content: "be brief"},
		{Role: core.RoleUser, Content: "q"},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", gen.Text)
	assert.Equal(t, 3, gen.TokensPrompt)
	assert.Equal(t, 4, gen.TokensCompletion)
}

func TestFallback_DegradesToStub(t *testing.T) {
	boom := errors.New("boom")
	f := NewFallback(&mockGenerator{
		GenerateFunc: func(context.Context, []core.Message) (core.Generation, error) {
			return core.Generation{}, boom
		},
	}, "gpt-4o-mini")

	out := Try(context.Background(), f, userMsg("q"))
	assert.Equal(t, core.StatusDegraded, out.Status)
	assert.ErrorIs(t, out.Reason, boom)
	assert.Equal(t, StubName, out.Value.Provider)

	gen, err := f.Generate(context.Background(), userMsg("q"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gen.Text, "[stub]"))
}

func TestTry_PlainGeneratorFailure(t *testing.T) {
	out := Try(context.Background(), &mockGenerator{
		GenerateFunc: func(context.Context, []core.Message) (core.Generation, error) {
			return core.Generation{}, errors.New("down")
		},
	}, userMsg("q"))
	assert.True(t, out.IsFailed())
}

func TestTry_ProviderPanic(t *testing.T) {
	panicky := &mockGenerator{
		GenerateFunc: func(context.Context, []core.Message) (core.Generation, error) {
			panic("nil response body")
		},
	}

	out := Try(context.Background(), panicky, userMsg("q"))
	require.True(t, out.IsFailed())
	assert.Contains(t, out.Reason.Error(), "nil response body")

	out = Try(context.Background(), NewFallback(panicky, "gpt-4o-mini"), userMsg("q"))
	assert.Equal(t, core.StatusDegraded, out.Status)
	assert.Equal(t, StubName, out.Value.Provider)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      config.LLMConfig
		keys     config.ProvidersConfig
		wantStub bool
	}{
		{name: "stub", cfg: config.LLMConfig{Provider: "stub"}, wantStub: true},
		{name: "unknown", cfg: config.LLMConfig{Provider: "nope"}, wantStub: true},
		{name: "openai without key", cfg: config.LLMConfig{Provider: "openai"}, wantStub: true},
		{name: "openai with key", cfg: config.LLMConfig{Provider: "openai"}, keys: config.ProvidersConfig{OpenAIKey: "k"}},
		{name: "ollama", cfg: config.LLMConfig{Provider: "ollama"}, keys: config.ProvidersConfig{OllamaBaseURL: "http://x"}},
		{name: "custom without url", cfg: config.LLMConfig{Provider: "custom"}, wantStub: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(ctx, tt.cfg, tt.keys)
			_, isStub := g.(*Stub)
			assert.Equal(t, tt.wantStub, isStub)
			if !tt.wantStub {
				assert.IsType(t, &Fallback{}, g)
			}
		})
	}
}
