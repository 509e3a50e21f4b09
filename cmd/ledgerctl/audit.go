package main

import (
	"errors"

	"github.com/spf13/cobra"

	"tripbudget/internal/services"
)

var errDrift = errors.New("ledger drift detected")

func newAuditCmd() *cobra.Command {
	var repair, strict bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check spent amounts against recorded expenses",
		Long: `Re-derive every category's spent amount from its ACTUAL expenses and
report categories that disagree, plus expenses whose budget or category
no longer exists.`,
		Example: `  # Report only
  ledgerctl audit

  # Rewrite drifted spent amounts
  ledgerctl audit --repair

  # Fail the run (exit 1) when drift is found, for cron jobs
  ledgerctl audit --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var report *services.AuditReport
			if repair {
				report, err = a.Ledger.Reconcile(cmd.Context())
			} else {
				report, err = a.Ledger.Audit(cmd.Context())
			}
			if err != nil {
				return err
			}
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if strict && !report.Repaired && len(report.Drifts) > 0 {
				return errDrift
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Rewrite drifted spent amounts")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when unrepaired drift is found")
	return cmd
}
