package main

import (
	"os"
	"strings"

	"github.com/sandevgo/riskmon/internal/service/command"
	"github.com/sandevgo/riskmon/internal/transport/cli"
	"github.com/spf13/cobra"
)

var (
	askUser     string
	askSession  string
	askGrounded bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question, or start a chat when none is given",
	Long: `Without arguments ask opens an interactive chat. Type /help inside it
for the slash commands.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The chat owns stdout.
		ctx, flushLog := setupLogger(cmd.Context(), os.Stderr)
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		sess := &command.Session{UserID: askUser, SessionID: askSession, Grounded: askGrounded}
		orch := a.orchestrator()

		if len(args) > 0 {
			return cli.Ask(ctx, orch, sess, strings.Join(args, " "), cmd.OutOrStdout())
		}

		var clearer command.ShortClearer
		if a.short != nil {
			clearer = a.short
		}
		var recaller command.FactRecaller
		if a.long != nil {
			recaller = a.long
		}
		router := command.New(command.NewCommands(clearer, recaller, a.cfg.Memory.LongTopK))
		return cli.Chat(ctx, orch, router, sess)
	},
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "local", "user id for memory")
	askCmd.Flags().StringVarP(&askSession, "session", "s", cli.DefaultSessionID, "session id for short-term memory")
	askCmd.Flags().BoolVarP(&askGrounded, "grounded", "g", false, "answer from the policy corpus only")
	rootCmd.AddCommand(askCmd)
}
