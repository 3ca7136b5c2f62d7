package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/riskmon/internal/core"
)

type FactsRepo struct {
	db *sql.DB
}

func NewFactsRepo(db *sql.DB) *FactsRepo {
	return &FactsRepo{db: db}
}

func (r *FactsRepo) PutFact(ctx context.Context, userID string, fact core.Fact) (bool, error) {
	meta, err := json.Marshal(fact.Metadata)
	if err != nil {
		return false, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if fact.Metadata == nil {
		meta = []byte("{}")
	}

	vecBlob, err := serializeVector(fact.Embedding)
	if err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM facts WHERE user_id = ? AND id = ?`, userID, fact.ID,
	).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check fact: %w", err)
	}

	// created_at is left untouched on conflict so a re-ingest keeps its age.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO facts (user_id, id, text, metadata, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, id) DO UPDATE SET text = excluded.text, metadata = excluded.metadata, embedding = excluded.embedding`,
		userID, fact.ID, fact.Text, string(meta), vecBlob, fact.CreatedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert fact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return exists == 0, nil
}

func (r *FactsRepo) ListFacts(ctx context.Context, userID string) ([]core.Fact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, metadata, embedding, created_at FROM facts
		 WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []core.Fact
	for rows.Next() {
		var (
			f    core.Fact
			meta string
			blob []byte
			ts   int64
		)
		if err := rows.Scan(&f.ID, &f.Text, &meta, &blob, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &f.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		if f.Embedding, err = deserializeVector(blob); err != nil {
			return nil, err
		}
		f.CreatedAt = time.Unix(0, ts).UTC()
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return facts, nil
}

func (r *FactsRepo) DeleteFacts(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM facts WHERE user_id = ? AND id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete facts: %w", err)
	}
	return affected(res)
}

func (r *FactsRepo) DeleteFactsBefore(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM facts WHERE user_id = ? AND created_at < ?`, userID, cutoff.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old facts: %w", err)
	}
	return affected(res)
}

func (r *FactsRepo) ClearFacts(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM facts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear facts: %w", err)
	}
	return nil
}

func (r *FactsRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM facts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count fact users: %w", err)
	}
	return n, nil
}

func (r *FactsRepo) SweepFacts(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM facts WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep facts: %w", err)
	}
	return affected(res)
}
