// Package rest exposes the compliance assistant over HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/service/agent"
	"github.com/sandevgo/riskmon/internal/service/conversation"
	"github.com/sandevgo/riskmon/pkg/log"
)

const metricsPath = "/metrics"

// Endpoints lists the public routes, as shown by the architect's brainstorm mode.
var Endpoints = []string{
	"/healthz",
	"/metrics",
	"/query",
	"/architect",
	"/memory/short",
	"/memory/long",
	"/memory/long/export",
	"/memory/long/import",
	"/memory/status",
}

type Conversation interface {
	Run(ctx context.Context, req conversation.Request) conversation.Result
}

type Architect interface {
	Run(ctx context.Context, req agent.Request) agent.Result
}

type ShortStore interface {
	LoadTurns(ctx context.Context, userID, sessionID string) core.TurnsResult
	LoadSummary(ctx context.Context, userID, sessionID string) string
	Clear(ctx context.Context, userID, sessionID string) error
	Sessions(ctx context.Context) (int, error)
}

type LongStore interface {
	RetrieveFacts(ctx context.Context, userID, query string, topK int) core.FactsResult
	Export(ctx context.Context, userID string) ([]core.ExportedFact, error)
	Import(ctx context.Context, userID string, texts []string) core.ImportResult
	Clear(ctx context.Context, userID string) error
	Users(ctx context.Context) (int, error)
}

// Deps are the collaborators behind the handlers. Short and Long are nil
// when their tier is disabled, Architect when the guide is off.
type Deps struct {
	Conversation Conversation
	Architect    Architect
	Short        ShortStore
	Long         LongStore
	Audit        core.AuditWriter
	Counters     *conversation.Counters
	Registry     *prometheus.Registry
}

type Server struct {
	cfg     *config.Config
	deps    Deps
	metrics *Metrics
	server  *http.Server
	now     func() time.Time
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		metrics: NewMetrics(deps.Registry),
		now:     time.Now,
	}
	s.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return s
}

func (s *Server) Name() string { return "http" }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID(s.cfg.HTTP.RequestIDHeader))
	r.Use(accessLog)
	r.Use(instrument(s.metrics))
	r.Use(recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Not Found", "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", "Method Not Allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, metricsPath, promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{}))

	r.Post("/query", s.handleQuery)
	r.Post("/architect", s.handleArchitect)

	r.Route("/memory", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireRole(RoleAnalyst))
			r.Get("/short", s.handleShortGet)
			r.Delete("/short", s.handleShortDelete)
			r.Get("/long", s.handleLongGet)
			r.Delete("/long", s.handleLongDelete)
			r.Get("/long/export", s.handleLongExport)
			r.Post("/long/import", s.handleLongImport)
		})
		r.With(requireRole(RoleAdmin)).Get("/status", s.handleStatus)
	})

	return r
}

// Start serves until Shutdown. Requests inherit ctx values but not its
// cancellation, so in-flight requests finish during shutdown.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}

	base := context.WithoutCancel(ctx)
	s.server.BaseContext = func(net.Listener) context.Context { return base }

	log.FromCtx(ctx).Info().Str("addr", ln.Addr().String()).Msg("http server listening")
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
