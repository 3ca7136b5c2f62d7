package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/log"
)

const defaultQueueSize = 256

// Writer persists audit rows from a bounded queue. Write never blocks: a
// full queue drops the row.
type Writer struct {
	repo    core.AuditRepository
	queue   chan core.AuditRecord
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	// mu orders Write against Shutdown so no row is queued after the drain.
	mu      sync.RWMutex
	closed  bool
	started atomic.Bool
	dropped atomic.Int64
}

func NewWriter(repo core.AuditRepository, queueSize int) *Writer {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Writer{
		repo:  repo,
		queue: make(chan core.AuditRecord, queueSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (w *Writer) Name() string { return "audit-writer" }

func (w *Writer) Write(ctx context.Context, rec core.AuditRecord) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.drop(ctx, rec, "audit writer stopped")
		return
	}
	select {
	case w.queue <- rec:
	default:
		w.drop(ctx, rec, "audit queue full")
	}
}

func (w *Writer) drop(ctx context.Context, rec core.AuditRecord, reason string) {
	w.dropped.Add(1)
	log.FromCtx(ctx).Warn().
		Str("request_id", rec.RequestID).
		Str("endpoint", rec.Endpoint).
		Msg(reason)
}

// Dropped is the number of rows discarded since start.
func (w *Writer) Dropped() int64 {
	return w.dropped.Load()
}

func (w *Writer) Start(ctx context.Context) error {
	w.started.Store(true)
	defer close(w.done)

	logger := log.FromCtx(ctx).With().Str("component", "audit_writer").Logger()
	logger.Info().Msg("starting audit writer")

	for {
		select {
		case rec := <-w.queue:
			w.insert(ctx, rec)
		case <-w.stop:
			w.drain(ctx)
			logger.Info().Msg("audit writer stopped")
			return nil
		}
	}
}

func (w *Writer) insert(ctx context.Context, rec core.AuditRecord) {
	// Rows are written even while the service context is being cancelled.
	if err := w.repo.InsertAudit(context.WithoutCancel(ctx), rec); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("request_id", rec.RequestID).Msg("audit write failed")
	}
}

func (w *Writer) drain(ctx context.Context) {
	for {
		select {
		case rec := <-w.queue:
			w.insert(ctx, rec)
		default:
			return
		}
	}
}

// Shutdown stops intake and waits for queued rows to be written.
func (w *Writer) Shutdown(ctx context.Context) error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.stop)
	})
	if !w.started.Load() {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
