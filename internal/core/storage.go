package core

import (
	"context"
	"time"
)

// TurnRepository stores the short-term conversation log. Turns are returned
// oldest to newest, in insertion order.
type TurnRepository interface {
	AppendTurn(ctx context.Context, turn Turn) error
	ListTurns(ctx context.Context, userID, sessionID string) ([]Turn, error)
	RecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]Turn, error)
	CountTurns(ctx context.Context, userID, sessionID string) (int, error)
	DeleteTurnsBefore(ctx context.Context, userID, sessionID string, cutoff time.Time) (int, error)
	// TrimTurns deletes the oldest turns so that at most keep remain.
	TrimTurns(ctx context.Context, userID, sessionID string, keep int) (int, error)
	GetSummary(ctx context.Context, userID, sessionID string) (Summary, bool, error)
	UpsertSummary(ctx context.Context, summary Summary) error
	ClearSession(ctx context.Context, userID, sessionID string) error
	CountSessions(ctx context.Context) (int, error)
	SweepTurns(ctx context.Context, cutoff time.Time) (int, error)
}

// FactRepository stores long-term facts keyed by user and fact id.
// ListFacts returns facts oldest to newest by creation time.
type FactRepository interface {
	// PutFact inserts or replaces by id. A replaced fact keeps its creation time.
	PutFact(ctx context.Context, userID string, fact Fact) (bool, error)
	ListFacts(ctx context.Context, userID string) ([]Fact, error)
	DeleteFacts(ctx context.Context, userID string, ids []string) (int, error)
	DeleteFactsBefore(ctx context.Context, userID string, cutoff time.Time) (int, error)
	ClearFacts(ctx context.Context, userID string) error
	CountUsers(ctx context.Context) (int, error)
	SweepFacts(ctx context.Context, cutoff time.Time) (int, error)
}

type AuditRepository interface {
	InsertAudit(ctx context.Context, rec AuditRecord) error
	DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type AuditRecord struct {
	RequestID        string    `json:"request_id"`
	Endpoint         string    `json:"endpoint"`
	UserID           string    `json:"user_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	TokensPrompt     int       `json:"tokens_prompt"`
	TokensCompletion int       `json:"tokens_completion"`
	CostUSD          float64   `json:"cost_usd"`
	LatencyMS        int64     `json:"latency_ms"`
	ComplianceFlag   bool      `json:"compliance_flag"`
	PromptHash       string    `json:"prompt_hash"`
	ResponseHash     string    `json:"response_hash"`
}
