package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/log"
)

type TurnsRepo struct {
	db *sql.DB
}

func NewTurnsRepo(db *sql.DB) *TurnsRepo {
	return &TurnsRepo{db: db}
}

func (r *TurnsRepo) AppendTurn(ctx context.Context, turn core.Turn) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO turns (user_id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		turn.UserID, turn.SessionID, turn.Role, turn.Content, turn.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

func (r *TurnsRepo) ListTurns(ctx context.Context, userID, sessionID string) ([]core.Turn, error) {
	return r.queryTurns(ctx,
		`SELECT id, user_id, session_id, role, content, created_at FROM turns
		 WHERE user_id = ? AND session_id = ? ORDER BY id ASC`,
		userID, sessionID,
	)
}

func (r *TurnsRepo) RecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]core.Turn, error) {
	// Fetch the last 'limit' turns newest first, then flip back to chronological order.
	turns, err := r.queryTurns(ctx,
		`SELECT id, user_id, session_id, role, content, created_at FROM turns
		 WHERE user_id = ? AND session_id = ? ORDER BY id DESC LIMIT ?`,
		userID, sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (r *TurnsRepo) queryTurns(ctx context.Context, query string, args ...any) ([]core.Turn, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var (
			t  core.Turn
			ts int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.SessionID, &t.Role, &t.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Timestamp = time.Unix(0, ts).UTC()
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}

func (r *TurnsRepo) CountTurns(ctx context.Context, userID, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM turns WHERE user_id = ? AND session_id = ?`, userID, sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return n, nil
}

func (r *TurnsRepo) DeleteTurnsBefore(ctx context.Context, userID, sessionID string, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM turns WHERE user_id = ? AND session_id = ? AND created_at < ?`,
		userID, sessionID, cutoff.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old turns: %w", err)
	}
	return affected(res)
}

func (r *TurnsRepo) TrimTurns(ctx context.Context, userID, sessionID string, keep int) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM turns WHERE user_id = ? AND session_id = ? AND id NOT IN (
			SELECT id FROM turns WHERE user_id = ? AND session_id = ? ORDER BY id DESC LIMIT ?
		)`,
		userID, sessionID, userID, sessionID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to trim turns: %w", err)
	}
	return affected(res)
}

func (r *TurnsRepo) GetSummary(ctx context.Context, userID, sessionID string) (core.Summary, bool, error) {
	s := core.Summary{UserID: userID, SessionID: sessionID}
	var ts int64
	err := r.db.QueryRowContext(ctx,
		`SELECT summary, updated_at FROM summaries WHERE user_id = ? AND session_id = ?`,
		userID, sessionID,
	).Scan(&s.Summary, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return s, false, nil
	}
	if err != nil {
		return s, false, fmt.Errorf("failed to load summary: %w", err)
	}
	s.UpdatedAt = time.Unix(0, ts).UTC()
	return s, true, nil
}

func (r *TurnsRepo) UpsertSummary(ctx context.Context, s core.Summary) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO summaries (user_id, session_id, summary, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, session_id) DO UPDATE SET summary = excluded.summary, updated_at = excluded.updated_at`,
		s.UserID, s.SessionID, s.Summary, s.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}
	return nil
}

func (r *TurnsRepo) ClearSession(ctx context.Context, userID, sessionID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE user_id = ? AND session_id = ?`, userID, sessionID); err != nil {
		return fmt.Errorf("failed to clear turns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM summaries WHERE user_id = ? AND session_id = ?`, userID, sessionID); err != nil {
		return fmt.Errorf("failed to clear summary: %w", err)
	}
	return tx.Commit()
}

func (r *TurnsRepo) CountSessions(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (SELECT DISTINCT user_id, session_id FROM turns)`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func (r *TurnsRepo) SweepTurns(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM turns WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep turns: %w", err)
	}
	n, err := affected(res)
	if err == nil && n > 0 {
		log.FromCtx(ctx).Debug().Int("deleted", n).Msg("swept expired turns")
	}
	return n, err
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
