package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/providers/llm"
	"github.com/sandevgo/riskmon/internal/service/audit"
	"github.com/sandevgo/riskmon/internal/service/conversation"
)

const minQuestionChars = 3

type queryRequest struct {
	Question  string `json:"question"`
	Grounded  bool   `json:"grounded"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string             `json:"answer"`
	Intent    core.Intent        `json:"intent"`
	Citations []core.Citation    `json:"citations"`
	Audit     conversation.Audit `json:"audit"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := s.now()

	var req queryRequest
	if err := decodeBody(w, r, s.cfg.HTTP.MaxBodyBytes, &req); err != nil {
		validationError(w, r, err.Error())
		return
	}
	if !validQuestion(req.Question) {
		validationError(w, r, "question must be at least 3 characters")
		return
	}
	if req.Grounded && !AllowGroundedQuery(ParseRole(r)) {
		writeError(w, r, http.StatusForbidden, "grounded query not allowed", "grounded query not allowed")
		return
	}

	res := s.deps.Conversation.Run(r.Context(), conversation.Request{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Question:  req.Question,
		Grounded:  req.Grounded,
	})

	rec := s.record(r, "/query", req.UserID, req.Question, res.Answer, res.Generation, start)
	writeJSON(w, r, http.StatusOK, queryResponse{
		Answer:    res.Answer,
		Intent:    res.Intent,
		Citations: nonNil(res.Citations),
		Audit:     withRecord(rec, res.Audit),
	})
}

// record builds the audit row, queues it and accounts usage. Requests that
// never reached a provider are costed from the tokenizer estimate.
func (s *Server) record(
	r *http.Request,
	endpoint, userID, prompt, response string,
	gen core.Generation,
	start time.Time,
) core.AuditRecord {
	if gen.TokensPrompt == 0 && gen.TokensCompletion == 0 {
		gen.TokensPrompt, gen.TokensCompletion, gen.CostUSD = llm.Estimate(s.cfg.LLM.Model, prompt, response)
	}

	rec := audit.NewRecord(audit.Entry{
		RequestID:  RequestID(r.Context()),
		UserID:     userID,
		Endpoint:   endpoint,
		Prompt:     prompt,
		Response:   response,
		Generation: gen,
		Started:    start,
		DenyTerms:  s.cfg.App.DenyTerms(),
	}, s.now())

	if s.deps.Audit != nil {
		s.deps.Audit.Write(r.Context(), rec)
	}
	s.metrics.observeUsage(endpoint, rec.TokensPrompt+rec.TokensCompletion, rec.CostUSD)
	return rec
}

// withRecord lays the per-request fields over the pipeline audit.
func withRecord(rec core.AuditRecord, fields conversation.Audit) conversation.Audit {
	out := conversation.Audit{}
	out.Merge(fields)
	out.Merge(map[string]any{
		"request_id":        rec.RequestID,
		"endpoint":          rec.Endpoint,
		"created_at":        rec.CreatedAt.Format(time.RFC3339),
		"tokens_prompt":     rec.TokensPrompt,
		"tokens_completion": rec.TokensCompletion,
		"cost_usd":          rec.CostUSD,
		"latency_ms":        rec.LatencyMS,
		"compliance_flag":   rec.ComplianceFlag,
		"prompt_hash":       rec.PromptHash,
		"response_hash":     rec.ResponseHash,
	})
	if rec.UserID != "" {
		out.Set("user_id", rec.UserID)
	}
	return out
}

func validQuestion(q string) bool {
	return len([]rune(strings.TrimSpace(q))) >= minQuestionChars
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
