package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/riskmon/internal/transport/mcp"
	"github.com/sandevgo/riskmon/pkg/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:          "mcp",
	Short:        "Serve routing, search and recall as MCP tools over stdio",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol.
		ctx, flushLog := setupLogger(ctx, os.Stderr)
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		tools := &mcp.Tools{
			Intents:  a.router,
			Docs:     a.pipeline,
			TopK:     a.cfg.RAG.TopK,
			FactsTop: a.cfg.Memory.LongTopK,
		}
		if a.long != nil {
			tools.Facts = a.long
		}

		log.FromCtx(ctx).Info().Msg("serving MCP over stdio")
		return server.NewStdioServer(mcp.NewServer(tools)).Listen(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
