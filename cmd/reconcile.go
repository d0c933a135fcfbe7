package main

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/P4R1H/affiliate-platform/internal/model"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <report-id>",
	Short: "Run one reconciliation attempt synchronously",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Engine.Run(ctx, model.ReconciliationJob{
			ReportID:      args[0],
			Priority:      "normal",
			CorrelationID: uuid.NewString(),
		})
		if err != nil {
			return eris.Wrapf(err, "reconcile %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
