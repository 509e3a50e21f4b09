package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tripbudget/internal/export"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <budget-id>",
		Short: "Print the analytics summary of a budget as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Analytics.BudgetSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
}

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "export <budget-id>",
		Short:   "Write a budget workbook (.xlsx)",
		Example: `  ledgerctl export 0195a3c2-... -o tokyo.xlsx`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			budget, err := a.Ledger.GetBudget(ctx, args[0])
			if err != nil {
				return err
			}
			f, err := a.Analytics.BudgetWorkbook(ctx, budget.ID)
			if err != nil {
				return err
			}
			defer f.Close()

			path := output
			if path == "" {
				path = export.FileName(*budget)
			}
			if err := f.SaveAs(path); err != nil {
				return fmt.Errorf("failed to save workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <title>_<id>.xlsx)")
	return cmd
}
