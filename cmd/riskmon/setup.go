package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/providers/embedding"
	"github.com/sandevgo/riskmon/internal/providers/llm"
	"github.com/sandevgo/riskmon/internal/service/agent"
	"github.com/sandevgo/riskmon/internal/service/conversation"
	"github.com/sandevgo/riskmon/internal/service/memory"
	"github.com/sandevgo/riskmon/internal/service/rag"
	"github.com/sandevgo/riskmon/internal/service/retention"
	"github.com/sandevgo/riskmon/internal/service/router"
	"github.com/sandevgo/riskmon/internal/storage/inmem"
	"github.com/sandevgo/riskmon/internal/storage/redis"
	"github.com/sandevgo/riskmon/internal/storage/sqlite"
	"github.com/sandevgo/riskmon/internal/transport/rest"
	"github.com/sandevgo/riskmon/pkg/log"
	"github.com/sandevgo/riskmon/pkg/srv"
)

const (
	backendMemory = "memory"
	backendSQLite = "sqlite"
	backendRedis  = "redis"
)

// app is the wired object graph shared by the commands. Disabled memory
// tiers stay nil.
type app struct {
	cfg       *config.Config
	router    *router.Router
	pipeline  *rag.Pipeline
	short     *memory.ShortTerm
	long      *memory.LongTerm
	auditRepo *sqlite.AuditRepo
	generator core.Generator
	counters  *conversation.Counters
	registry  *prometheus.Registry

	memDB    *sql.DB
	cleanups []srv.Service
}

func newApp(ctx context.Context) (*app, error) {
	runtimePath := config.GetRuntimePath()
	for _, path := range []string{filepath.Join(runtimePath, ".env"), ".env"} {
		if err := initEnv(ctx, path); err != nil {
			return nil, fmt.Errorf("failed to init env: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.App.RuntimePath = runtimePath

	a := &app{
		cfg:      cfg,
		router:   router.NewRouter(cfg.Router),
		pipeline: rag.NewPipeline(cfg.App.DocsPath, cfg.RAG),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.counters = conversation.NewCounters(a.registry)

	if err := a.initStorage(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}

	a.generator = llm.NewGenerator(ctx, cfg.LLM, cfg.Providers)
	return a, nil
}

func (a *app) initStorage(ctx context.Context) error {
	auditPath := a.cfg.App.GetAuditDBPath()
	auditDB, err := sqlite.NewDB(ctx, auditPath)
	if err != nil {
		return fmt.Errorf("failed to open audit db: %w", err)
	}
	a.cleanups = append(a.cleanups, srv.NewCleanup("audit-db", auditDB.Close))
	a.auditRepo = sqlite.NewAuditRepo(auditDB)

	mc := a.cfg.Memory
	if mc.GetDBPath(a.cfg.App.RuntimePath) == auditPath {
		a.memDB = auditDB
	}

	if mc.ShortEnabled {
		repo, err := a.turnRepo(ctx)
		if err != nil {
			return err
		}
		a.short = memory.NewShortTerm(repo, mc)
	}

	if mc.LongEnabled {
		repo, err := a.factRepo(ctx)
		if err != nil {
			return err
		}
		a.long = memory.NewLongTerm(repo, embedding.NewEmbedder(ctx, a.cfg.Embedding, a.cfg.Providers), mc)
	}
	return nil
}

func (a *app) memoryDB(ctx context.Context) (*sql.DB, error) {
	if a.memDB != nil {
		return a.memDB, nil
	}
	db, err := sqlite.NewDB(ctx, a.cfg.Memory.GetDBPath(a.cfg.App.RuntimePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open memory db: %w", err)
	}
	a.memDB = db
	a.cleanups = append(a.cleanups, srv.NewCleanup("memory-db", db.Close))
	return db, nil
}

func (a *app) turnRepo(ctx context.Context) (core.TurnRepository, error) {
	switch a.cfg.Memory.ShortBackend {
	case backendMemory:
		return inmem.New(), nil
	case backendSQLite, "":
		db, err := a.memoryDB(ctx)
		if err != nil {
			return nil, err
		}
		return sqlite.NewTurnsRepo(db), nil
	default:
		return nil, fmt.Errorf("unknown short memory backend %q", a.cfg.Memory.ShortBackend)
	}
}

func (a *app) factRepo(ctx context.Context) (core.FactRepository, error) {
	mc := a.cfg.Memory
	switch mc.LongBackend {
	case backendMemory, "":
		return inmem.New(), nil
	case backendSQLite:
		db, err := a.memoryDB(ctx)
		if err != nil {
			return nil, err
		}
		return sqlite.NewFactsRepo(db), nil
	case backendRedis:
		repo, err := redis.NewFactsRepo(ctx, redis.Options{
			Addr:     mc.RedisAddr,
			Password: mc.RedisPassword,
			DB:       mc.RedisDB,
			Prefix:   mc.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		a.cleanups = append(a.cleanups, srv.NewCleanup("redis", repo.Close))
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown long memory backend %q", mc.LongBackend)
	}
}

// Tier accessors return untyped nil for a disabled tier so interface
// checks downstream see it as absent.

func (a *app) shortMemory() conversation.ShortMemory {
	if a.short == nil {
		return nil
	}
	return a.short
}

func (a *app) longMemory() conversation.LongMemory {
	if a.long == nil {
		return nil
	}
	return a.long
}

func (a *app) shortStore() rest.ShortStore {
	if a.short == nil {
		return nil
	}
	return a.short
}

func (a *app) longStore() rest.LongStore {
	if a.long == nil {
		return nil
	}
	return a.long
}

func (a *app) orchestrator() *conversation.Orchestrator {
	return conversation.NewOrchestrator(
		a.cfg.Memory,
		a.router,
		a.pipeline,
		a.shortMemory(),
		a.longMemory(),
		a.generator,
		a.counters,
	)
}

func (a *app) architect(orch *conversation.Orchestrator) *agent.Architect {
	return agent.NewArchitect(orch, agent.Options{
		LLMEnabled:   a.cfg.App.ArchitectLLMEnabled,
		MinFactChars: a.cfg.Memory.MinFactChars,
		Endpoints:    rest.Endpoints,
	})
}

func (a *app) retention() *retention.Service {
	var short, long retention.Sweeper
	if a.short != nil {
		short = a.short
	}
	if a.long != nil {
		long = a.long
	}
	return retention.NewService(
		retention.Config{
			Schedule:  a.cfg.App.SweepSchedule,
			AuditDays: a.cfg.App.LogRetentionDays,
		},
		a.auditRepo,
		short,
		long,
		a.counters,
	)
}

// close runs the cleanups for commands that do not go through
// srv.ShutdownServices.
func (a *app) close(ctx context.Context) {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("cleanup failed")
		}
	}
}

func initEnv(ctx context.Context, envFile string) error {
	logger := log.FromCtx(ctx)

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
