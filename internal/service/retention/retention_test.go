package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/service/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAudit struct {
	deleteFn func(ctx context.Context, cutoff time.Time) (int, error)
}

func (m *mockAudit) InsertAudit(context.Context, core.AuditRecord) error { return nil }

func (m *mockAudit) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return m.deleteFn(ctx, cutoff)
}

type sweepFunc func(ctx context.Context) (int, error)

func (f sweepFunc) Sweep(ctx context.Context) (int, error) { return f(ctx) }

func TestRunOnce(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	var gotCutoff time.Time

	audit := &mockAudit{deleteFn: func(_ context.Context, cutoff time.Time) (int, error) {
		gotCutoff = cutoff
		return 4, nil
	}}
	counters := conversation.NewCounters(prometheus.NewRegistry())

	svc := NewService(Config{Schedule: "@hourly", AuditDays: 30}, audit,
		sweepFunc(func(context.Context) (int, error) { return 2, nil }),
		sweepFunc(func(context.Context) (int, error) { return 1, nil }),
		counters,
	)
	svc.now = func() time.Time { return now }

	rep, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{Audit: 4, Turns: 2, Facts: 1}, rep)
	assert.Equal(t, now.Add(-30*24*time.Hour), gotCutoff)
	assert.Equal(t, int64(2), counters.Get(conversation.CounterShortPruned))
	assert.Equal(t, int64(1), counters.Get(conversation.CounterLongPruned))
}

func TestRunOnce_SkipsDisabledStores(t *testing.T) {
	audit := &mockAudit{deleteFn: func(context.Context, time.Time) (int, error) {
		t.Fatal("audit retention is off")
		return 0, nil
	}}

	svc := NewService(Config{AuditDays: 0}, audit, nil, nil, nil)
	rep, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
}

func TestRunOnce_ContinuesPastFailure(t *testing.T) {
	audit := &mockAudit{deleteFn: func(context.Context, time.Time) (int, error) {
		return 0, errors.New("locked")
	}}
	longCalled := false

	svc := NewService(Config{AuditDays: 7}, audit,
		sweepFunc(func(context.Context) (int, error) { return 3, nil }),
		sweepFunc(func(context.Context) (int, error) {
			longCalled = true
			return 0, nil
		}),
		nil,
	)

	rep, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep audit")
	assert.Equal(t, 3, rep.Turns)
	assert.True(t, longCalled)
}

func TestStart_InvalidSchedule(t *testing.T) {
	svc := NewService(Config{Schedule: "not a schedule"}, nil, nil, nil, nil)
	err := svc.Start(context.Background())
	require.Error(t, err)
	require.NoError(t, svc.Shutdown(context.Background()))
}

func TestStartShutdown(t *testing.T) {
	svc := NewService(Config{Schedule: "@every 1h"}, nil, nil, nil, nil)
	require.NoError(t, svc.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))
}
