package main

import (
	"fmt"
	"path/filepath"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/pkg/env"
	"github.com/spf13/cobra"
)

var reveal bool

var envCmd = &cobra.Command{
	Use:          "env",
	Short:        "Print the effective configuration as .env lines",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context(), nil)
		defer flushLog()

		runtimePath := config.GetRuntimePath()
		if err := initEnv(ctx, filepath.Join(runtimePath, ".env")); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.App.RuntimePath = runtimePath

		marshal := env.MarshalEnvRedacted
		if reveal {
			marshal = env.MarshalEnv
		}
		out, err := marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	envCmd.Flags().BoolVar(&reveal, "reveal", false, "print secrets unmasked")
	rootCmd.AddCommand(envCmd)
}
