package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/riskmon/internal/core"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) InsertAudit(ctx context.Context, rec core.AuditRecord) error {
	var userID sql.NullString
	if rec.UserID != "" {
		userID = sql.NullString{String: rec.UserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (request_id, endpoint, user_id, created_at, tokens_prompt, tokens_completion,
			cost_usd, latency_ms, compliance_flag, prompt_hash, response_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Endpoint, userID, rec.CreatedAt.UnixNano(), rec.TokensPrompt, rec.TokensCompletion,
		rec.CostUSD, rec.LatencyMS, rec.ComplianceFlag, rec.PromptHash, rec.ResponseHash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit row: %w", err)
	}
	return nil
}

func (r *AuditRepo) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit rows: %w", err)
	}
	return affected(res)
}

// ListAudit returns the newest rows first. Used by tests and the sweep command.
func (r *AuditRepo) ListAudit(ctx context.Context, limit int) ([]core.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT request_id, endpoint, COALESCE(user_id, ''), created_at, tokens_prompt, tokens_completion,
			cost_usd, latency_ms, compliance_flag, COALESCE(prompt_hash, ''), COALESCE(response_hash, '')
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit rows: %w", err)
	}
	defer rows.Close()

	var out []core.AuditRecord
	for rows.Next() {
		var (
			rec core.AuditRecord
			ts  int64
		)
		if err := rows.Scan(&rec.RequestID, &rec.Endpoint, &rec.UserID, &ts, &rec.TokensPrompt,
			&rec.TokensCompletion, &rec.CostUSD, &rec.LatencyMS, &rec.ComplianceFlag,
			&rec.PromptHash, &rec.ResponseHash); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		rec.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
