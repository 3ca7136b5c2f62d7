package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/riskmon/internal/service/audit"
	"github.com/sandevgo/riskmon/internal/transport/rest"
	"github.com/sandevgo/riskmon/pkg/log"
	"github.com/sandevgo/riskmon/pkg/srv"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the HTTP API together with the audit writer and the retention scheduler.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx, nil)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting riskmon")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		// Shutdown runs in reverse: the server stops first, the databases last.
		services := append([]srv.Service{}, a.cleanups...)

		writer := audit.NewWriter(a.auditRepo, a.cfg.App.AuditQueueSize)
		services = append(services, writer, a.retention())

		orch := a.orchestrator()
		deps := rest.Deps{
			Conversation: orch,
			Short:        a.shortStore(),
			Long:         a.longStore(),
			Audit:        writer,
			Counters:     a.counters,
			Registry:     a.registry,
		}
		if a.cfg.App.ProjectGuideEnabled {
			deps.Architect = a.architect(orch)
		}
		services = append(services, rest.NewServer(a.cfg, deps))

		logger.Info().
			Bool("short_memory", a.short != nil).
			Bool("long_memory", a.long != nil).
			Bool("router", a.router.Enabled()).
			Str("docs", a.cfg.App.DocsPath).
			Msg("services configured")

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)

		logger.Info().Msg("riskmon has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
