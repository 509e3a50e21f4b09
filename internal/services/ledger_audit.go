package services

import (
	"context"

	"tripbudget/internal/analytics"
	"tripbudget/internal/events"
	"tripbudget/internal/logger"
	"tripbudget/internal/models"

	"github.com/shopspring/decimal"
)

type categoryKey struct {
	budgetID   string
	categoryID string
}

// inspect compares every category's stored spent amount with the sum of the
// ACTUAL expenses posted to it.
func inspect(budgets []models.Budget, expenses []models.Expense) *AuditReport {
	derived := make(map[categoryKey]decimal.Decimal)
	for i := range expenses {
		if !expenses[i].IsActual() {
			continue
		}
		key := categoryKey{budgetID: expenses[i].BudgetID, categoryID: expenses[i].CategoryID}
		sum, ok := derived[key]
		if !ok {
			sum = decimal.Zero
		}
		derived[key] = sum.Add(expenses[i].Amount)
	}

	report := &AuditReport{Drifts: []CategoryDrift{}, OrphanedExpenses: []string{}}
	for _, b := range budgets {
		for _, c := range b.Categories {
			report.CheckedCategories++
			want, ok := derived[categoryKey{budgetID: b.ID, categoryID: c.ID}]
			if !ok {
				want = decimal.Zero
			}
			if !c.SpentAmount.Equal(want) {
				report.Drifts = append(report.Drifts, CategoryDrift{
					BudgetID:   b.ID,
					CategoryID: c.ID,
					Stored:     c.SpentAmount,
					Derived:    want,
				})
			}
		}
	}
	for _, e := range analytics.OrphanedExpenses(budgets, expenses) {
		report.OrphanedExpenses = append(report.OrphanedExpenses, e.ID)
	}
	return report
}

// Audit reports categories whose spent amount drifted from their expenses,
// and expenses that no longer have a budget or category. It changes nothing.
func (s *ledgerService) Audit(ctx context.Context) (*AuditReport, error) {
	var report *AuditReport
	err := s.run(ctx, "Audit", false, func(st *ledgerState) error {
		report = inspect(st.budgets, st.expenses)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SetAuditResult(len(report.Drifts), len(report.OrphanedExpenses))
	if len(report.Drifts) > 0 {
		logger.Get().Warnw("Ledger drift detected", "categories", len(report.Drifts), "orphaned_expenses", len(report.OrphanedExpenses))
	}
	return report, nil
}

// Reconcile rewrites every drifted spent amount to the value derived from
// the expenses.
func (s *ledgerService) Reconcile(ctx context.Context) (*AuditReport, error) {
	var report *AuditReport
	err := s.run(ctx, "Reconcile", true, func(st *ledgerState) error {
		report = inspect(st.budgets, st.expenses)
		if len(report.Drifts) == 0 {
			return nil
		}

		now := s.now()
		for _, drift := range report.Drifts {
			budget, category, err := st.category(drift.BudgetID, drift.CategoryID)
			if err != nil {
				return err
			}
			category.SpentAmount = drift.Derived
			budget.UpdatedAt = now
		}
		st.budgetsDirty = true
		report.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SetAuditResult(0, len(report.OrphanedExpenses))
	if report.Repaired {
		logger.Get().Infow("Ledger reconciled", "categories", len(report.Drifts))
		for _, budgetID := range repairedBudgets(report.Drifts) {
			s.publish(ctx, events.LedgerReconciled, budgetID, budgetID)
		}
	}
	return report, nil
}

// repairedBudgets lists the budgets touched by drifts, in first-seen order.
func repairedBudgets(drifts []CategoryDrift) []string {
	seen := make(map[string]bool, len(drifts))
	ids := make([]string, 0, len(drifts))
	for _, d := range drifts {
		if !seen[d.BudgetID] {
			seen[d.BudgetID] = true
			ids = append(ids, d.BudgetID)
		}
	}
	return ids
}
