package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/P4R1H/affiliate-platform/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "affiliate-platform",
	Short: "Affiliate metrics reconciliation pipeline",
	Long:  "Receives affiliate-claimed metrics, fetches platform-reported metrics through resilient integrations, classifies discrepancies, maintains trust scores, and raises alerts.",
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
