package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/service/conversation"
)

// mockRunner answers with text and citations and records the request.
type mockRunner struct {
	text      string
	citations []core.Citation
	got       conversation.Request
	shaped    conversation.Shaped
}

func (m *mockRunner) Run(_ context.Context, req conversation.Request) conversation.Result {
	m.got = req
	text := m.text
	if req.SkipGenerate {
		text = ""
	}
	m.shaped = req.Shape(text, m.citations)
	return conversation.Result{Answer: text, Citations: m.citations, Audit: conversation.Audit{}}
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantSummary string
		wantSteps   []string
	}{
		{
			name:        "plain json",
			text:        `{"summary":"Do it","suggested_steps":["a"," ","b"]}`,
			wantSummary: "Do it",
			wantSteps:   []string{"a", "b"},
		},
		{
			name:        "json inside prose",
			text:        "Here is the plan:\n```json\n{\"summary\":\"Plan\",\"suggested_steps\":[\"x\"]}\n```",
			wantSummary: "Plan",
			wantSteps:   []string{"x"},
		},
		{
			name:        "not json",
			text:        "\n  First line wins  \nsecond",
			wantSummary: "First line wins",
			wantSteps:   []string{},
		},
		{
			name:        "bad object then good object",
			text:        `{"summary": 5} {"summary":"ok"}`,
			wantSummary: "ok",
			wantSteps:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ParsePlan(tt.text)
			assert.Equal(t, tt.wantSummary, plan.Summary)
			assert.Equal(t, tt.wantSteps, plan.SuggestedSteps)
		})
	}

	long := strings.Repeat("y", 300)
	assert.Len(t, ParsePlan(long).Summary, summaryLineChars)
}

func TestArchitect_GuideFallbacksWithoutLLM(t *testing.T) {
	runner := &mockRunner{citations: []core.Citation{{Source: "a.md"}, {Source: "b.md"}}}
	a := NewArchitect(runner, Options{MinFactChars: 50})

	res := a.Run(context.Background(), Request{Question: "How do I start?", Mode: ModeGuide})

	assert.True(t, runner.got.Grounded, "guide mode always grounds")
	assert.True(t, runner.got.SkipGenerate)
	assert.Equal(t, "Found 2 citations; see references below.", res.Summary)
	assert.Equal(t, guideSteps, res.Steps)
	assert.Equal(t, guideFlags, res.EnvFlags)
	assert.True(t, strings.HasPrefix(res.Answer, "**Summary**\nFound 2 citations"))
	assert.Contains(t, res.Answer, "\n\n**Steps**\n- Use the /query endpoint")
	assert.True(t, strings.HasSuffix(res.Answer, "**Relevant Env Flags**\nPROJECT_GUIDE_ENABLED, DOCS_PATH, ROUTER_ENABLED, MEMORY_SHORT_ENABLED, MEMORY_LONG_ENABLED"))
	assert.Equal(t, "guide", res.Audit["architect_mode"])
	assert.Equal(t, "project_guide:v1", res.Audit["prompt_version"])

	// every guide step is longer than the fact threshold
	assert.Len(t, runner.shaped.Facts, len(guideSteps))
}

func TestArchitect_GuideWithoutCitations(t *testing.T) {
	a := NewArchitect(&mockRunner{}, Options{})
	res := a.Run(context.Background(), Request{Question: "overview please", Mode: ModeGuide})
	assert.Equal(t, "No direct citations found; here's an overview.", res.Summary)
}

func TestArchitect_BrainstormFallbacks(t *testing.T) {
	a := NewArchitect(&mockRunner{}, Options{Endpoints: []string{"/query", "/architect"}})

	res := a.Run(context.Background(), Request{Question: "ideas for dashboards", Mode: ModeBrainstorm})

	assert.Equal(t, "Brainstorming suggestions based on available service endpoints.", res.Summary)
	assert.Equal(t, []string{
		"Map your business use case to existing endpoints/services:",
		"  • /query",
		"  • /architect",
		"Outline components to customize, flags to toggle, and files to update.",
	}, res.Steps)
	assert.Equal(t, brainstormFlags, res.EnvFlags)
	assert.Equal(t, "project_guide_brainstorm:v1", res.Audit["prompt_version"])
}

func TestArchitect_LLMPlan(t *testing.T) {
	runner := &mockRunner{
		text: `{"summary":"Enable the router and route PII questions to detection.","suggested_steps":["Set ROUTER_ENABLED=true and load the rule table from a JSON file on disk."],"suggested_env_flags":["ROUTER_ENABLED"]}`,
		citations: []core.Citation{{Source: "router.md"}},
	}
	a := NewArchitect(runner, Options{LLMEnabled: true, MinFactChars: 50})

	res := a.Run(context.Background(), Request{Question: "How do I route?", Mode: ModeBrainstorm})

	assert.False(t, runner.got.SkipGenerate)
	assert.True(t, runner.got.RetrieveAlways)
	assert.False(t, runner.got.Grounded)
	require.Len(t, runner.got.System, 2)
	assert.Equal(t, []string{"ROUTER_ENABLED"}, res.EnvFlags)
	assert.Empty(t, res.FeatureRequest)
	assert.Equal(t, "Enable the router and route PII questions to detection.", runner.shaped.Reply)
	assert.Len(t, runner.shaped.Facts, 2)
}

func TestArchitect_FeatureRequestHeuristic(t *testing.T) {
	runner := &mockRunner{text: "I cannot help with that."}
	a := NewArchitect(runner, Options{LLMEnabled: true, MinFactChars: 50})

	q := "Can you add support for integrating our ticketing system with the audit log stream?"
	res := a.Run(context.Background(), Request{Question: q, Mode: ModeBrainstorm})

	assert.Equal(t, "Request: "+q[:60], res.FeatureRequest)
	assert.Equal(t, "I cannot help with that.", res.Summary)
	assert.Equal(t, true, res.Audit["suggest_feature"])
	assert.Contains(t, runner.shaped.Facts, res.FeatureRequest)
}

func TestFormatAnswer_Empty(t *testing.T) {
	assert.Equal(t, "**Summary**\n\n\n**Steps**\n\n\n**Relevant Env Flags**\n", FormatAnswer("", nil, nil))
}
