package rest

import (
	"net/http"
	"strings"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/service/conversation"
	"github.com/sandevgo/riskmon/pkg/log"
)

type shortResponse struct {
	Turns   []core.Turn        `json:"turns"`
	Summary *string            `json:"summary"`
	Audit   conversation.Audit `json:"audit"`
}

type clearResponse struct {
	Cleared bool               `json:"cleared"`
	Audit   conversation.Audit `json:"audit"`
}

type longResponse struct {
	Facts []core.Fact        `json:"facts"`
	Audit conversation.Audit `json:"audit"`
}

type exportResponse struct {
	UserID string              `json:"user_id"`
	Facts  []core.ExportedFact `json:"facts"`
	Audit  conversation.Audit  `json:"audit"`
}

type importRequest struct {
	Facts []struct {
		Text string `json:"text"`
	} `json:"facts"`
}

type importResponse struct {
	Imported int                `json:"imported"`
	Evicted  int                `json:"evicted"`
	Audit    conversation.Audit `json:"audit"`
}

func (s *Server) baseAudit(r *http.Request, endpoint string) conversation.Audit {
	return conversation.Audit{
		"request_id": RequestID(r.Context()),
		"endpoint":   endpoint,
		"created_at": s.now().UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// requiredParams returns the named query values, or writes a 422 and
// reports false if one is missing.
func requiredParams(w http.ResponseWriter, r *http.Request, names ...string) ([]string, bool) {
	q := r.URL.Query()
	out := make([]string, len(names))
	for i, n := range names {
		v := strings.TrimSpace(q.Get(n))
		if v == "" {
			validationError(w, r, n+" is required")
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (s *Server) handleShortGet(w http.ResponseWriter, r *http.Request) {
	p, ok := requiredParams(w, r, "user_id", "session_id")
	if !ok {
		return
	}
	resp := shortResponse{Turns: []core.Turn{}, Audit: s.baseAudit(r, "/memory/short")}

	if s.deps.Short != nil {
		tr := s.deps.Short.LoadTurns(r.Context(), p[0], p[1])
		resp.Turns = nonNil(tr.Turns)
		if sum := s.deps.Short.LoadSummary(r.Context(), p[0], p[1]); sum != "" {
			resp.Summary = &sum
		}
		resp.Audit.Set(conversation.CounterShortReads, len(tr.Turns))
		s.deps.Counters.Add(conversation.CounterShortReads, len(tr.Turns))
		s.deps.Counters.Add(conversation.CounterShortPruned, tr.Pruned)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleShortDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := requiredParams(w, r, "user_id", "session_id")
	if !ok {
		return
	}
	resp := clearResponse{Audit: s.baseAudit(r, "/memory/short")}

	if s.deps.Short != nil {
		if err := s.deps.Short.Clear(r.Context(), p[0], p[1]); err != nil {
			log.FromCtx(r.Context()).Error().Err(err).Msg("failed to clear short-term memory")
		} else {
			resp.Cleared = true
			resp.Audit.Set(conversation.CounterShortWrites, 1)
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleLongGet(w http.ResponseWriter, r *http.Request) {
	p, ok := requiredParams(w, r, "user_id")
	if !ok {
		return
	}
	resp := longResponse{Facts: []core.Fact{}, Audit: s.baseAudit(r, "/memory/long")}

	if s.deps.Long != nil {
		fr := s.deps.Long.RetrieveFacts(r.Context(), p[0], r.URL.Query().Get("q"), s.cfg.Memory.LongTopK)
		resp.Facts = nonNil(fr.Facts)
		resp.Audit.Set(conversation.CounterLongReads, len(fr.Facts))
		if fr.Degraded {
			resp.Audit.Set("memory_long_degraded", true)
		}
		s.deps.Counters.Add(conversation.CounterLongReads, len(fr.Facts))
		s.deps.Counters.Add(conversation.CounterLongPruned, fr.Pruned)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleLongDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := requiredParams(w, r, "user_id")
	if !ok {
		return
	}
	resp := clearResponse{Audit: s.baseAudit(r, "/memory/long")}

	if s.deps.Long != nil {
		if err := s.deps.Long.Clear(r.Context(), p[0]); err != nil {
			log.FromCtx(r.Context()).Error().Err(err).Msg("failed to clear long-term memory")
		} else {
			resp.Cleared = true
			resp.Audit.Set(conversation.CounterLongWrites, 1)
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleLongExport(w http.ResponseWriter, r *http.Request) {
	p, ok := requiredParams(w, r, "user_id")
	if !ok {
		return
	}
	resp := exportResponse{
		UserID: p[0],
		Facts:  []core.ExportedFact{},
		Audit:  s.baseAudit(r, "/memory/long/export"),
	}

	if s.deps.Long != nil {
		facts, err := s.deps.Long.Export(r.Context(), p[0])
		if err != nil {
			log.FromCtx(r.Context()).Error().Err(err).Msg("failed to export long-term memory")
		}
		resp.Facts = nonNil(facts)
		resp.Audit.Set(conversation.CounterLongReads, len(resp.Facts))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleLongImport(w http.ResponseWriter, r *http.Request) {
	p, ok := requiredParams(w, r, "user_id")
	if !ok {
		return
	}
	var req importRequest
	if err := decodeBody(w, r, s.cfg.HTTP.MaxBodyBytes, &req); err != nil {
		validationError(w, r, err.Error())
		return
	}

	resp := importResponse{Audit: s.baseAudit(r, "/memory/long/import")}
	if s.deps.Long != nil {
		texts := make([]string, 0, len(req.Facts))
		for _, f := range req.Facts {
			texts = append(texts, f.Text)
		}
		res := s.deps.Long.Import(r.Context(), p[0], texts)
		resp.Imported = res.Imported
		resp.Evicted = res.Evicted
		resp.Audit.Set(conversation.CounterLongWrites, res.Imported)
		resp.Audit.Set(conversation.CounterLongPruned, res.Evicted)
		s.deps.Counters.Add(conversation.CounterLongWrites, res.Imported)
		s.deps.Counters.Add(conversation.CounterLongPruned, res.Evicted)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type tierStatus map[string]any

type statusResponse struct {
	ShortMemory tierStatus       `json:"short_memory"`
	LongMemory  tierStatus       `json:"long_memory"`
	Counters    map[string]int64 `json:"counters"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mc := s.cfg.Memory

	short := tierStatus{
		"enabled":               s.deps.Short != nil,
		"backend":               mc.ShortBackend,
		"max_turns":             mc.ShortMaxTurns,
		"context_turns":         mc.ShortContextTurns,
		"retention_days":        mc.ShortRetentionDays,
		"max_turns_per_session": mc.ShortMaxTurnsPerSession,
	}
	if s.deps.Short != nil {
		if n, err := s.deps.Short.Sessions(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("failed to count sessions")
		} else {
			short["sessions"] = n
		}
	}

	long := tierStatus{
		"enabled":        s.deps.Long != nil,
		"backend":        mc.LongBackend,
		"max_facts":      mc.LongMaxFacts,
		"retention_days": mc.LongRetentionDays,
		"top_k":          mc.LongTopK,
	}
	if s.deps.Long != nil {
		if n, err := s.deps.Long.Users(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("failed to count users")
		} else {
			long["users"] = n
		}
	}

	writeJSON(w, r, http.StatusOK, statusResponse{
		ShortMemory: short,
		LongMemory:  long,
		Counters:    s.deps.Counters.Snapshot(),
	})
}
