package main

import (
	"errors"
	"fmt"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/service/rag"
	"github.com/sandevgo/riskmon/internal/service/ui"
	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:          "docs",
	Short:        "List the corpus files retrieval would read",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context(), nil)
		defer flushLog()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		scanner := rag.NewScanner(cfg.App.DocsPath, cfg.RAG)
		docs, err := scanner.Load(ctx)
		if errors.Is(err, rag.ErrNoCorpus) {
			fmt.Println(ui.WarnStyle.Render("no corpus at " + scanner.Root()))
			fmt.Println(ui.DescStyle.Render("answers will use synthetic citations"))
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println(ui.TitleStyle.Render(fmt.Sprintf("%d documents in %s", len(docs), scanner.Root())))
		for _, d := range docs {
			fmt.Printf("  %s\n", d.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
