package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reconciliation verdict counts and recent alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := st.CountByStatus(ctx)
		if err != nil {
			return eris.Wrap(err, "status counts")
		}
		alerts, err := st.ListAlerts(ctx, store.AlertFilter{Limit: 10})
		if err != nil {
			return eris.Wrap(err, "list alerts")
		}

		formatStatus(os.Stdout, counts, alerts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// formatStatus writes a tabular summary of verdict counts and alerts to w.
func formatStatus(out io.Writer, counts store.StatusCounts, alerts []model.Alert) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tCOUNT")
	_, _ = fmt.Fprintln(w, "------\t-----")
	for _, status := range []model.ReconciliationStatus{
		model.StatusPending,
		model.StatusMatched,
		model.StatusDiscrepancyLow,
		model.StatusDiscrepancyMedium,
		model.StatusDiscrepancyHigh,
		model.StatusOverclaimed,
		model.StatusIncompleteData,
		model.StatusMissingPlatformData,
	} {
		if n, ok := counts[status]; ok {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", status, n)
		}
	}
	_ = w.Flush()

	if len(alerts) == 0 {
		return
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ALERT\tCATEGORY\tSEVERITY\tAFFILIATE\tCREATED")
	_, _ = fmt.Fprintln(w, "-----\t--------\t--------\t---------\t-------")
	for _, a := range alerts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.Type, a.Category, a.Severity, a.AffiliateID, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}
