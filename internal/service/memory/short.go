// Package memory keeps per-session conversation turns and per-user facts.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/log"
)

const summaryMaxChars = 500

type ShortTerm struct {
	repo core.TurnRepository
	cfg  config.MemoryConfig
	now  func() time.Time
}

func NewShortTerm(repo core.TurnRepository, cfg config.MemoryConfig) *ShortTerm {
	return &ShortTerm{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *ShortTerm) AppendTurn(ctx context.Context, userID, sessionID, role, content string) error {
	err := s.repo.AppendTurn(ctx, core.Turn{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// LoadTurns applies retention and the per-session cap, then returns the
// surviving turns oldest first. Storage errors yield an empty result.
func (s *ShortTerm) LoadTurns(ctx context.Context, userID, sessionID string) core.TurnsResult {
	logger := log.FromCtx(ctx)
	res := core.TurnsResult{Pruned: s.prune(ctx, userID, sessionID)}

	turns, err := s.repo.ListTurns(ctx, userID, sessionID)
	if err != nil {
		logger.Warn().Err(err).Msg("short memory read failed")
		return res
	}
	if limit := s.cfg.ShortMaxTurnsPerSession; limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	res.Turns = turns
	return res
}

// prune applies retention and the per-session cap and returns how many
// turns were deleted.
func (s *ShortTerm) prune(ctx context.Context, userID, sessionID string) int {
	logger := log.FromCtx(ctx)
	pruned := 0

	if days := s.cfg.ShortRetentionDays; days > 0 {
		cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
		n, err := s.repo.DeleteTurnsBefore(ctx, userID, sessionID, cutoff)
		if err != nil {
			logger.Warn().Err(err).Msg("short memory retention failed")
		}
		pruned += n
	}

	if limit := s.cfg.ShortMaxTurnsPerSession; limit > 0 {
		n, err := s.repo.TrimTurns(ctx, userID, sessionID, limit)
		if err != nil {
			logger.Warn().Err(err).Msg("short memory cap failed")
		}
		pruned += n
	}

	if pruned > 0 {
		logger.Debug().
			Int("count", pruned).
			Str("user_id", userID).
			Str("session_id", sessionID).
			Msg("short memory pruned")
	}
	return pruned
}

func (s *ShortTerm) LoadSummary(ctx context.Context, userID, sessionID string) string {
	sum, ok, err := s.repo.GetSummary(ctx, userID, sessionID)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("summary read failed")
		return ""
	}
	if !ok {
		return ""
	}
	return sum.Summary
}

// UpdateSummaryIfNeeded rewrites the session summary from the last
// MaxTurns turns once the log grows past that size.
func (s *ShortTerm) UpdateSummaryIfNeeded(ctx context.Context, userID, sessionID string) bool {
	maxTurns := s.cfg.ShortMaxTurns
	if maxTurns <= 0 {
		return false
	}

	s.prune(ctx, userID, sessionID)
	count, err := s.repo.CountTurns(ctx, userID, sessionID)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("short memory count failed")
		return false
	}
	if count <= maxTurns {
		return false
	}

	turns, err := s.repo.RecentTurns(ctx, userID, sessionID, maxTurns)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("short memory read failed")
		return false
	}

	err = s.repo.UpsertSummary(ctx, core.Summary{
		UserID:    userID,
		SessionID: sessionID,
		Summary:   Summarize(turns),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("summary update failed")
		return false
	}
	return true
}

// Summarize renders turns as "role: content" lines, keeping the last 500 characters.
func Summarize(turns []core.Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Role + ": " + t.Content
	}
	text := strings.Join(lines, "\n")

	r := []rune(text)
	if len(r) > summaryMaxChars {
		return string(r[len(r)-summaryMaxChars:])
	}
	return text
}

func (s *ShortTerm) Clear(ctx context.Context, userID, sessionID string) error {
	if err := s.repo.ClearSession(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *ShortTerm) Sessions(ctx context.Context) (int, error) {
	return s.repo.CountSessions(ctx)
}

// Sweep applies retention across every session. It is a no-op when
// retention is off.
func (s *ShortTerm) Sweep(ctx context.Context) (int, error) {
	days := s.cfg.ShortRetentionDays
	if days <= 0 {
		return 0, nil
	}
	return s.repo.SweepTurns(ctx, s.now().Add(-time.Duration(days)*24*time.Hour))
}
