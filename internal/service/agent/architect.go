// Package agent implements the architect planning assistant on top of the
// conversation orchestrator.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/service/conversation"
)

type Mode string

const (
	ModeGuide      Mode = "guide"
	ModeBrainstorm Mode = "brainstorm"
)

func (m Mode) Valid() bool {
	return m == ModeGuide || m == ModeBrainstorm
}

const (
	systemPrompt = "You are the solution architect assistant for the riskmon compliance service. " +
		"Respond ONLY with a JSON object that matches the provided schema. " +
		"Your JSON MUST include both 'summary' (string) and 'suggested_steps' (array of strings). " +
		"If you cannot provide a value, set summary to an empty string and suggested_steps to an empty array. " +
		"Do not include any fields outside the schema; do not include explanations outside JSON."

	formatPrompt = `The output must be a JSON object of the form:
{"summary": string, "suggested_steps": [string], "suggested_env_flags": [string], "feature_request": string}`

	defaultReply = "Generated architecture plan."
	promptRev    = "v1"
)

var (
	guideSteps = []string{
		"Use the /query endpoint with grounded=true to ask targeted questions.",
		"Explore the docs/ folder and README.md for deep dives on each component.",
		"Set PROJECT_GUIDE_ENABLED=true in your env to enable Architect mode.",
	}
	guideFlags = []string{
		"PROJECT_GUIDE_ENABLED",
		"DOCS_PATH",
		"ROUTER_ENABLED",
		"MEMORY_SHORT_ENABLED",
		"MEMORY_LONG_ENABLED",
	}
	brainstormFlags = []string{
		"PROJECT_GUIDE_ENABLED",
		"RAG_MULTI_QUERY_ENABLED",
		"RAG_MULTI_QUERY_COUNT",
		"RAG_HYDE_ENABLED",
	}
	featureWords = []string{"feature", "support", "integrate", "add", "roadmap"}
)

type Runner interface {
	Run(ctx context.Context, req conversation.Request) conversation.Result
}

type Options struct {
	// LLMEnabled turns on plan generation. Without it the answer is built
	// from deterministic defaults.
	LLMEnabled   bool
	MinFactChars int
	// Endpoints are listed by brainstorm mode.
	Endpoints []string
}

type Request struct {
	UserID    string
	SessionID string
	Question  string
	Mode      Mode
	Grounded  bool
}

type Result struct {
	Answer         string
	Summary        string
	Steps          []string
	EnvFlags       []string
	FeatureRequest string
	Citations      []core.Citation
	Generation     core.Generation
	Audit          conversation.Audit
}

type Architect struct {
	runner Runner
	opts   Options
}

func NewArchitect(runner Runner, opts Options) *Architect {
	return &Architect{
		runner: runner,
		opts:   opts,
	}
}

// Run produces a plan for question. Guide mode always retrieves.
func (a *Architect) Run(ctx context.Context, req Request) Result {
	mode := req.Mode
	if !mode.Valid() {
		mode = ModeGuide
	}
	grounded := req.Grounded || mode == ModeGuide

	var plan Plan
	shape := func(text string, citations []core.Citation) conversation.Shaped {
		plan = a.complete(ParsePlan(text), mode, req.Question, citations)

		reply := plan.Summary
		if reply == "" {
			reply = defaultReply
		}
		candidates := append([]string{plan.Summary}, plan.SuggestedSteps...)
		candidates = append(candidates, plan.FeatureRequest)

		return conversation.Shaped{
			Reply: reply,
			Facts: conversation.FactCandidates(candidates, a.opts.MinFactChars),
		}
	}

	out := a.runner.Run(ctx, conversation.Request{
		UserID:         req.UserID,
		SessionID:      req.SessionID,
		Question:       req.Question,
		Grounded:       grounded,
		RetrieveAlways: a.opts.LLMEnabled,
		System:         []string{systemPrompt, formatPrompt},
		SkipGenerate:   !a.opts.LLMEnabled,
		Shape:          shape,
	})

	out.Audit.Set("architect_mode", string(mode))
	out.Audit.Set("prompt_version", promptName(mode)+":"+promptRev)
	out.Audit.Set("suggest_feature", plan.FeatureRequest != "")

	return Result{
		Answer:         FormatAnswer(plan.Summary, plan.SuggestedSteps, plan.SuggestedEnvFlags),
		Summary:        plan.Summary,
		Steps:          plan.SuggestedSteps,
		EnvFlags:       plan.SuggestedEnvFlags,
		FeatureRequest: plan.FeatureRequest,
		Citations:      out.Citations,
		Generation:     out.Generation,
		Audit:          out.Audit,
	}
}

// complete fills the plan with mode defaults and the feature request heuristic.
func (a *Architect) complete(plan Plan, mode Mode, question string, citations []core.Citation) Plan {
	llmOff := !a.opts.LLMEnabled

	switch mode {
	case ModeGuide:
		if plan.Summary == "" {
			if len(citations) > 0 {
				plan.Summary = fmt.Sprintf("Found %d citations; see references below.", len(citations))
			} else {
				plan.Summary = "No direct citations found; here's an overview."
			}
		}
		if len(plan.SuggestedSteps) == 0 && llmOff {
			plan.SuggestedSteps = append([]string(nil), guideSteps...)
		}
		if len(plan.SuggestedEnvFlags) == 0 && llmOff {
			plan.SuggestedEnvFlags = append([]string(nil), guideFlags...)
		}
	case ModeBrainstorm:
		if len(plan.SuggestedSteps) == 0 && llmOff {
			plan.SuggestedSteps = a.brainstormSteps()
		}
		if len(plan.SuggestedEnvFlags) == 0 && llmOff {
			plan.SuggestedEnvFlags = append([]string(nil), brainstormFlags...)
		}
		if plan.Summary == "" {
			plan.Summary = "Brainstorming suggestions based on available service endpoints."
		}
	}

	grounded := len(citations) > 0
	sparse := len(plan.SuggestedSteps) == 0 && len(plan.SuggestedEnvFlags) == 0
	if plan.FeatureRequest == "" && (sparse || !grounded) && wantsFeature(question) {
		plan.FeatureRequest = "Request: " + firstRunes(question, 60)
	}
	return plan
}

func (a *Architect) brainstormSteps() []string {
	steps := []string{"Map your business use case to existing endpoints/services:"}
	for _, e := range a.opts.Endpoints {
		steps = append(steps, "  • "+e)
	}
	return append(steps, "Outline components to customize, flags to toggle, and files to update.")
}

// FormatAnswer renders the plan as markdown sections.
func FormatAnswer(summary string, steps, flags []string) string {
	var b strings.Builder
	b.WriteString("**Summary**\n")
	b.WriteString(summary)
	b.WriteString("\n\n**Steps**\n")
	for i, s := range steps {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- " + s)
	}
	b.WriteString("\n\n**Relevant Env Flags**\n")
	b.WriteString(strings.Join(flags, ", "))
	return b.String()
}

func wantsFeature(question string) bool {
	q := strings.ToLower(question)
	for _, w := range featureWords {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func promptName(mode Mode) string {
	if mode == ModeBrainstorm {
		return "project_guide_brainstorm"
	}
	return "project_guide"
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
