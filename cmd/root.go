package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/survey-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "survey-cli",
	Short: "Conversational survey with LLM-assisted answer matching",
	Long:  "Extracts questions from a Word document, resolves free-text answers to the question's options with a language model and fuzzy matching, and saves the results to an Excel workbook.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
