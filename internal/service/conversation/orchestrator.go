// Package conversation sequences memory, routing, retrieval and generation
// for a single request.
package conversation

import (
	"context"
	"strings"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/providers/llm"
	"github.com/sandevgo/riskmon/internal/service/rag"
	"github.com/sandevgo/riskmon/internal/service/router"
	"github.com/sandevgo/riskmon/pkg/log"
	"github.com/sandevgo/riskmon/pkg/tokens"
)

const (
	DefaultUserID    = "anonymous"
	DefaultSessionID = "default"
)

type IntentRouter interface {
	Enabled() bool
	Classify(ctx context.Context, question string, grounded bool) core.Intent
}

type Retriever interface {
	AnswerWithCitations(ctx context.Context, question string, k int) rag.Answer
}

type ShortMemory interface {
	AppendTurn(ctx context.Context, userID, sessionID, role, content string) error
	LoadTurns(ctx context.Context, userID, sessionID string) core.TurnsResult
	LoadSummary(ctx context.Context, userID, sessionID string) string
	UpdateSummaryIfNeeded(ctx context.Context, userID, sessionID string) bool
}

type LongMemory interface {
	IngestFact(ctx context.Context, userID, text string, metadata map[string]string) core.IngestResult
	RetrieveFacts(ctx context.Context, userID, query string, topK int) core.FactsResult
}

// Shaped is what a request keeps from the generated text: the assistant
// turn and the fact candidates for long-term memory.
type Shaped struct {
	Reply string
	Facts []string
}

type Request struct {
	UserID         string
	SessionID      string
	Question       string
	Grounded       bool
	RetrieveAlways bool
	K              int

	// System overrides the default system prompt.
	System []string
	// SkipGenerate leaves the answer empty without calling the generator.
	SkipGenerate bool
	// Shape post-processes the generated text. Defaults to DefaultShape.
	Shape func(text string, citations []core.Citation) Shaped
}

type Result struct {
	Answer     string
	Intent     core.Intent
	Citations  []core.Citation
	Generation core.Generation
	Audit      Audit
}

// Orchestrator wires the memory tiers, the router and retrieval around a
// generator. A nil short or long memory disables that tier.
type Orchestrator struct {
	cfg       config.MemoryConfig
	intents   IntentRouter
	retriever Retriever
	short     ShortMemory
	long      LongMemory
	generator core.Generator
	counters  *Counters
}

func NewOrchestrator(
	cfg config.MemoryConfig,
	intents IntentRouter,
	retriever Retriever,
	short ShortMemory,
	long LongMemory,
	generator core.Generator,
	counters *Counters,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		intents:   intents,
		retriever: retriever,
		short:     short,
		long:      long,
		generator: generator,
		counters:  counters,
	}
}

func (o *Orchestrator) ShortEnabled() bool { return o.short != nil }
func (o *Orchestrator) LongEnabled() bool  { return o.long != nil }

// Run never fails. Collaborator errors are logged and their steps degrade.
func (o *Orchestrator) Run(ctx context.Context, req Request) Result {
	logger := log.FromCtx(ctx)

	userID := firstNonEmpty(req.UserID, DefaultUserID)
	sessionID := firstNonEmpty(req.SessionID, DefaultSessionID)
	shape := req.Shape
	if shape == nil {
		shape = o.DefaultShape
	}

	res := Result{Audit: Audit{}}

	// read short
	var (
		summary string
		turns   []core.Turn
	)
	if o.short != nil {
		tr := o.short.LoadTurns(ctx, userID, sessionID)
		turns = tr.Turns
		summary = o.short.LoadSummary(ctx, userID, sessionID)

		res.Audit.Set(CounterShortReads, len(turns))
		res.Audit.Set(CounterShortPruned, tr.Pruned)
		o.counters.Add(CounterShortReads, len(turns))
		o.counters.Add(CounterShortPruned, tr.Pruned)
	}

	// read long
	var facts []core.Fact
	longPruned := 0
	if o.long != nil {
		fr := o.long.RetrieveFacts(ctx, userID, req.Question, o.cfg.LongTopK)
		facts = fr.Facts
		longPruned = fr.Pruned

		res.Audit.Set(CounterLongReads, len(facts))
		o.counters.Add(CounterLongReads, len(facts))
		if fr.Degraded {
			res.Audit.Set("memory_long_degraded", true)
		}
	}

	// route
	res.Intent = core.IntentQA
	if o.intents != nil && o.intents.Enabled() {
		res.Intent = o.intents.Classify(ctx, req.Question, req.Grounded)
		res.Audit.Set("router_intent", string(res.Intent))
		res.Audit.Set("router_backend", router.BackendMeta)
	}

	// retrieve
	if o.retriever != nil && (req.Grounded || req.RetrieveAlways) {
		ans := o.retriever.AnswerWithCitations(ctx, req.Question, req.K)
		res.Citations = ans.Citations
		res.Audit.Merge(ans.Meta.Fields())
	}

	// generate
	if !req.SkipGenerate && o.generator != nil {
		blocks := ContextBlocks(summary, turns, o.cfg.ShortContextTurns, facts, res.Citations)
		out := llm.Try(ctx, o.generator, BuildMessages(req.System, blocks, req.Question))
		switch {
		case out.IsFailed():
			logger.Error().Err(out.Reason).Msg("generation failed")
		default:
			res.Generation = out.Value
			res.Answer = out.Value.Text
		}
		res.Audit.Set("llm_status", out.Status.String())
		res.Audit.Set("llm_provider", res.Generation.Provider)
		res.Audit.Set("llm_model", res.Generation.Model)
		res.Audit.Set("llm_tokens_prompt", res.Generation.TokensPrompt)
		res.Audit.Set("llm_tokens_completion", res.Generation.TokensCompletion)
		res.Audit.Set("llm_cost_usd", res.Generation.CostUSD)
	}

	shaped := shape(res.Answer, res.Citations)

	// write short
	if o.short != nil {
		writes := 0
		reply := shaped.Reply
		if reply == "" {
			reply = "No answer text available."
		}
		for _, t := range []core.Message{
			{Role: core.RoleUser, Content: req.Question},
			{Role: core.RoleAssistant, Content: reply},
		} {
			if err := o.short.AppendTurn(ctx, userID, sessionID, t.Role, t.Content); err != nil {
				logger.Warn().Err(err).Msg("short memory write failed")
				continue
			}
			writes++
		}
		updated := o.short.UpdateSummaryIfNeeded(ctx, userID, sessionID)

		res.Audit.Set(CounterShortWrites, writes)
		res.Audit.Set(CounterSummaryUpdated, updated)
		o.counters.Add(CounterShortWrites, writes)
		if updated {
			o.counters.Add(CounterSummaryUpdated, 1)
		}
	}

	// write long
	if o.long != nil {
		writes := 0
		for _, text := range shaped.Facts {
			ir := o.long.IngestFact(ctx, userID, text, map[string]string{"session_id": sessionID})
			if ir.Stored {
				writes++
			}
			longPruned += ir.Evicted
		}

		res.Audit.Set(CounterLongWrites, writes)
		res.Audit.Set(CounterLongPruned, longPruned)
		o.counters.Add(CounterLongWrites, writes)
		o.counters.Add(CounterLongPruned, longPruned)
	}

	logger.Debug().
		Str("intent", string(res.Intent)).
		Int("citations", len(res.Citations)).
		Int("facts", len(facts)).
		Msg("conversation turn finished")

	return res
}

// DefaultShape keeps the full text as the reply and every sentence longer
// than the configured minimum as a fact candidate.
func (o *Orchestrator) DefaultShape(text string, _ []core.Citation) Shaped {
	return Shaped{
		Reply: text,
		Facts: FactCandidates(tokens.SplitSentences(text), o.cfg.MinFactChars),
	}
}

// FactCandidates keeps trimmed texts longer than minChars.
func FactCandidates(texts []string, minChars int) []string {
	var out []string
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t != "" && len([]rune(t)) > minChars {
			out = append(out, t)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
