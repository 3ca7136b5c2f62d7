package rest

import (
	"net/http"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/service/agent"
	"github.com/sandevgo/riskmon/internal/service/conversation"
)

type architectRequest struct {
	Question  string `json:"question"`
	Mode      string `json:"mode"`
	Grounded  bool   `json:"grounded"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type architectResponse struct {
	Answer            string             `json:"answer"`
	Citations         []core.Citation    `json:"citations"`
	SuggestedSteps    []string           `json:"suggested_steps"`
	SuggestedEnvFlags []string           `json:"suggested_env_flags"`
	FeatureRequest    string             `json:"feature_request,omitempty"`
	Audit             conversation.Audit `json:"audit"`
}

func (s *Server) handleArchitect(w http.ResponseWriter, r *http.Request) {
	start := s.now()

	if !s.cfg.App.ProjectGuideEnabled || s.deps.Architect == nil {
		writeError(w, r, http.StatusNotFound, "Architect mode not enabled", "Architect mode not enabled")
		return
	}

	var req architectRequest
	if err := decodeBody(w, r, s.cfg.HTTP.MaxBodyBytes, &req); err != nil {
		validationError(w, r, err.Error())
		return
	}
	if !validQuestion(req.Question) {
		validationError(w, r, "question must be at least 3 characters")
		return
	}

	mode := agent.ModeGuide
	if req.Mode != "" {
		mode = agent.Mode(req.Mode)
	}
	if !mode.Valid() {
		validationError(w, r, "mode must be guide or brainstorm")
		return
	}

	// Guide mode always retrieves.
	grounded := req.Grounded || mode == agent.ModeGuide
	if grounded && !AllowGroundedQuery(ParseRole(r)) {
		writeError(w, r, http.StatusForbidden, "grounded query not allowed", "grounded query not allowed")
		return
	}

	res := s.deps.Architect.Run(r.Context(), agent.Request{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Question:  req.Question,
		Mode:      mode,
		Grounded:  grounded,
	})

	rec := s.record(r, "/architect", req.UserID, req.Question, res.Answer, res.Generation, start)
	writeJSON(w, r, http.StatusOK, architectResponse{
		Answer:            res.Answer,
		Citations:         nonNil(res.Citations),
		SuggestedSteps:    nonNil(res.Steps),
		SuggestedEnvFlags: nonNil(res.EnvFlags),
		FeatureRequest:    res.FeatureRequest,
		Audit:             withRecord(rec, res.Audit),
	})
}
