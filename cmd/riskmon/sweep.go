package main

import (
	"fmt"

	"github.com/sandevgo/riskmon/internal/service/ui"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:          "sweep",
	Short:        "Apply retention once and exit",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context(), nil)
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		rep, err := a.retention().RunOnce(ctx)
		if err != nil {
			fmt.Println(ui.WarnStyle.Render("sweep finished with errors"))
			return err
		}

		fmt.Println(ui.OkStyle.Render("sweep done"))
		fmt.Printf("  audit rows: %d\n  turns:      %d\n  facts:      %d\n", rep.Audit, rep.Turns, rep.Facts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
