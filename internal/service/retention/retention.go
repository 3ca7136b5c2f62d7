// Package retention periodically deletes audit rows and memory entries that
// have aged past their configured retention.
package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/service/conversation"
	"github.com/sandevgo/riskmon/pkg/log"
)

// Sweeper removes expired entries across all users.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type Config struct {
	Schedule  string
	AuditDays int
}

type Report struct {
	Audit int `json:"audit"`
	Turns int `json:"turns"`
	Facts int `json:"facts"`
}

type Service struct {
	cfg      Config
	audit    core.AuditRepository
	short    Sweeper
	long     Sweeper
	counters *conversation.Counters
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
	run  sync.Mutex
}

// NewService accepts nil for any store that is not configured.
func NewService(
	cfg Config,
	audit core.AuditRepository,
	short, long Sweeper,
	counters *conversation.Counters,
) *Service {
	return &Service{
		cfg:      cfg,
		audit:    audit,
		short:    short,
		long:     long,
		counters: counters,
		now:      time.Now,
	}
}

func (s *Service) Name() string { return "retention" }

func (s *Service) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "retention").Logger()

	c := cron.New()
	_, err := c.AddFunc(s.cfg.Schedule, func() {
		// A sweep still running from the previous tick wins.
		if !s.run.TryLock() {
			logger.Warn().Msg("sweep still running, skipping tick")
			return
		}
		defer s.run.Unlock()

		if _, err := s.sweep(ctx); err != nil {
			logger.Error().Err(err).Msg("sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.Schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	logger.Info().Str("schedule", s.cfg.Schedule).Msg("retention scheduler started")
	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce sweeps every store immediately.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	s.run.Lock()
	defer s.run.Unlock()
	return s.sweep(ctx)
}

// sweep continues past a failed store and returns the first error.
func (s *Service) sweep(ctx context.Context) (Report, error) {
	var (
		rep      Report
		firstErr error
	)
	keep := func(err error, what string) {
		if err == nil {
			return
		}
		log.FromCtx(ctx).Error().Err(err).Str("store", what).Msg("retention sweep failed")
		if firstErr == nil {
			firstErr = fmt.Errorf("sweep %s: %w", what, err)
		}
	}

	if s.audit != nil && s.cfg.AuditDays > 0 {
		cutoff := s.now().Add(-time.Duration(s.cfg.AuditDays) * 24 * time.Hour)
		n, err := s.audit.DeleteAuditBefore(ctx, cutoff)
		rep.Audit = n
		keep(err, "audit")
	}
	if s.short != nil {
		n, err := s.short.Sweep(ctx)
		rep.Turns = n
		s.counters.Add(conversation.CounterShortPruned, n)
		keep(err, "short_term")
	}
	if s.long != nil {
		n, err := s.long.Sweep(ctx)
		rep.Facts = n
		s.counters.Add(conversation.CounterLongPruned, n)
		keep(err, "long_term")
	}

	log.FromCtx(ctx).Info().
		Int("audit", rep.Audit).
		Int("turns", rep.Turns).
		Int("facts", rep.Facts).
		Msg("retention sweep done")

	return rep, firstErr
}
