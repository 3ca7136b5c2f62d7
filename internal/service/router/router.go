// Package router maps a question to an intent with a configurable rule
// table backed by keyword heuristics.
package router

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/log"
)

const (
	BackendRules = "rules"
	BackendMeta  = "rules_v2"
)

type Router struct {
	cfg      config.RouterConfig
	table    atomic.Pointer[Table]
	warnOnce sync.Once
}

func NewRouter(cfg config.RouterConfig) *Router {
	return &Router{cfg: cfg}
}

// NewRouterWithTable skips configuration loading.
func NewRouterWithTable(t *Table) *Router {
	r := &Router{cfg: config.RouterConfig{Enabled: true, Backend: BackendRules}}
	if t == nil {
		t = &Table{DefaultIntent: core.IntentQA}
	}
	r.table.Store(t)
	return r
}

func (r *Router) Enabled() bool {
	return r.cfg.Enabled
}

// Classify never fails: grounded questions are qa, everything else goes
// through the rule table and the heuristic.
func (r *Router) Classify(ctx context.Context, question string, grounded bool) core.Intent {
	if grounded {
		return core.IntentQA
	}

	q := strings.ToLower(question)
	h, hOk := heuristic(q)

	if !strings.EqualFold(r.backend(), BackendRules) {
		if hOk {
			return h
		}
		return core.IntentQA
	}

	t := r.rules(ctx)
	intent, matched := t.match(q, tokenize(q))
	switch {
	case matched:
	case t.empty():
		// No rules configured: the heuristic decides, qa otherwise.
		intent = core.IntentQA
	default:
		intent = t.DefaultIntent
	}

	if intent == core.IntentQA && hOk {
		return h
	}
	return intent
}

// Invalidate drops the cached table; the next Classify reloads it.
func (r *Router) Invalidate() {
	r.table.Store(nil)
}

// Table returns the active rule table, loading it if needed.
func (r *Router) Table(ctx context.Context) *Table {
	return r.rules(ctx)
}

func (r *Router) backend() string {
	if r.cfg.Backend == "" {
		return BackendRules
	}
	return r.cfg.Backend
}

func (r *Router) rules(ctx context.Context) *Table {
	if t := r.table.Load(); t != nil {
		return t
	}

	t, err := r.load()
	if err != nil {
		r.warnOnce.Do(func() {
			log.FromCtx(ctx).Warn().Err(err).Msg("router rules ignored")
		})
		t = &Table{DefaultIntent: core.IntentQA}
	}

	// Concurrent loads produce equal tables, first store wins.
	if !r.table.CompareAndSwap(nil, t) {
		if cur := r.table.Load(); cur != nil {
			return cur
		}
	}
	return t
}

func (r *Router) load() (*Table, error) {
	switch {
	case strings.TrimSpace(r.cfg.RulesJSON) != "":
		return ParseJSON([]byte(r.cfg.RulesJSON))
	case r.cfg.RulesPath != "":
		return LoadFile(r.cfg.RulesPath)
	default:
		return &Table{DefaultIntent: core.IntentQA}, nil
	}
}
