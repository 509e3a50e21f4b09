package analytics

import (
	"tripbudget/internal/models"

	"github.com/shopspring/decimal"
)

// Summary is the dashboard view of one budget.
type Summary struct {
	BudgetID         string          `json:"budget_id"`
	TripID           string          `json:"trip_id"`
	Title            string          `json:"title"`
	Currency         models.Currency `json:"currency"`
	Ceiling          decimal.Decimal `json:"ceiling"`
	Used             decimal.Decimal `json:"used"`
	Remaining        decimal.Decimal `json:"remaining"`
	Planned          decimal.Decimal `json:"planned"`
	UsagePercentage  int             `json:"usage_percentage"`
	DailyAverage     decimal.Decimal `json:"daily_average"`
	DailyTrend       []DailyBucket   `json:"daily_trend"`
	Categories       []CategoryUsage `json:"categories"`
	OrphanedExpenses int             `json:"orphaned_expenses"`
}

// Summarize builds the summary of budget from its expenses. Expenses posted
// to other budgets are ignored.
func Summarize(budget models.Budget, expenses []models.Expense) Summary {
	own := ForBudget(budget.ID, expenses)
	return Summary{
		BudgetID:         budget.ID,
		TripID:           budget.TripID,
		Title:            budget.Title,
		Currency:         budget.Currency,
		Ceiling:          budget.Ceiling(),
		Used:             ActualTotal(own),
		Remaining:        RemainingBudget(budget, own),
		Planned:          PlannedTotal(own),
		UsagePercentage:  TotalUsagePercentage(budget, own),
		DailyAverage:     DailyAverage(own),
		DailyTrend:       DailyExpenseTrend(own),
		Categories:       CategoryBreakdown(budget),
		OrphanedExpenses: len(OrphanedExpenses([]models.Budget{budget}, own)),
	}
}
