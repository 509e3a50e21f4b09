// Package analytics derives read-only views over a budget and its expenses:
// usage percentages, daily trend, category breakdown and remaining amounts.
// Every function here is pure; none of them touch the stores.
package analytics

import (
	"sort"
	"time"

	"tripbudget/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DailyBucket aggregates the actual spending of one calendar day.
type DailyBucket struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// CategoryUsage is one row of the category breakdown.
type CategoryUsage struct {
	CategoryID      string              `json:"category_id"`
	Type            models.CategoryType `json:"type"`
	Label           string              `json:"label"`
	SpentAmount     decimal.Decimal     `json:"spent_amount"`
	AllocatedAmount decimal.Decimal     `json:"allocated_amount"`
	UsagePercentage int                 `json:"usage_percentage"`
}

// percentage returns round(100*part/whole) clamped to [0,100], or 0 when
// whole is not positive.
func percentage(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 0
	}
	p := part.Mul(hundred).Div(whole).Round(0)
	switch {
	case p.IsNegative():
		return 0
	case p.GreaterThan(hundred):
		return 100
	}
	return int(p.IntPart())
}

// ActualTotal sums the amounts of ACTUAL expenses.
func ActualTotal(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for i := range expenses {
		if expenses[i].IsActual() {
			total = total.Add(expenses[i].Amount)
		}
	}
	return total
}

// PlannedTotal sums the amounts of PLANNED expenses.
func PlannedTotal(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for i := range expenses {
		if !expenses[i].IsActual() {
			total = total.Add(expenses[i].Amount)
		}
	}
	return total
}

// TotalUsagePercentage is the share of the budget ceiling consumed by the
// given expenses' ACTUAL amounts.
func TotalUsagePercentage(budget models.Budget, expenses []models.Expense) int {
	return percentage(ActualTotal(expenses), budget.Ceiling())
}

// CategoryUsagePercentage is the share of a category's allocation already spent.
func CategoryUsagePercentage(category models.BudgetCategory) int {
	return percentage(category.SpentAmount, category.Amount)
}

// RemainingBudget is what is left of the ceiling after ACTUAL spending,
// never below zero.
func RemainingBudget(budget models.Budget, expenses []models.Expense) decimal.Decimal {
	remaining := budget.Ceiling().Sub(ActualTotal(expenses))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// DailyExpenseTrend returns one bucket per calendar day from the earliest to
// the latest ACTUAL expense date, inclusive. Days without spending are
// present with a zero amount.
func DailyExpenseTrend(expenses []models.Expense) []DailyBucket {
	var first, last time.Time
	found := false
	byDay := make(map[time.Time]*DailyBucket)
	for i := range expenses {
		if !expenses[i].IsActual() {
			continue
		}
		day := models.CalendarDate(expenses[i].ExpenseDate)
		if !found || day.Before(first) {
			first = day
		}
		if !found || day.After(last) {
			last = day
		}
		found = true
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DailyBucket{Date: day, Amount: decimal.Zero}
			byDay[day] = bucket
		}
		bucket.Amount = bucket.Amount.Add(expenses[i].Amount)
		bucket.Count++
	}

	if !found {
		return []DailyBucket{}
	}

	trend := make([]DailyBucket, 0, daysBetween(first, last)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if bucket, ok := byDay[day]; ok {
			trend = append(trend, *bucket)
			continue
		}
		trend = append(trend, DailyBucket{Date: day, Amount: decimal.Zero})
	}
	return trend
}

// DailyAverage is the rounded ACTUAL total divided by the number of
// calendar days the ACTUAL expenses span, at least one.
func DailyAverage(expenses []models.Expense) decimal.Decimal {
	var first, last time.Time
	found := false
	total := decimal.Zero
	for i := range expenses {
		if !expenses[i].IsActual() {
			continue
		}
		day := models.CalendarDate(expenses[i].ExpenseDate)
		if !found || day.Before(first) {
			first = day
		}
		if !found || day.After(last) {
			last = day
		}
		found = true
		total = total.Add(expenses[i].Amount)
	}
	if !found {
		return decimal.Zero
	}
	days := daysBetween(first, last) + 1
	return total.Div(decimal.NewFromInt(int64(days))).Round(0)
}

// CategoryBreakdown lists every category of the budget, most spent first.
// Categories with equal spending keep their budget order.
func CategoryBreakdown(budget models.Budget) []CategoryUsage {
	rows := make([]CategoryUsage, 0, len(budget.Categories))
	for _, c := range budget.Categories {
		rows = append(rows, CategoryUsage{
			CategoryID:      c.ID,
			Type:            c.Type,
			Label:           c.Type.Label(),
			SpentAmount:     c.SpentAmount,
			AllocatedAmount: c.Amount,
			UsagePercentage: CategoryUsagePercentage(c),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SpentAmount.GreaterThan(rows[j].SpentAmount)
	})
	return rows
}

// OrphanedExpenses returns the expenses whose budget or category no longer
// exists. Their amounts are not reflected in any spent amount.
func OrphanedExpenses(budgets []models.Budget, expenses []models.Expense) []models.Expense {
	known := make(map[string]map[string]struct{}, len(budgets))
	for _, b := range budgets {
		ids := make(map[string]struct{}, len(b.Categories))
		for _, c := range b.Categories {
			ids[c.ID] = struct{}{}
		}
		known[b.ID] = ids
	}

	orphans := []models.Expense{}
	for _, e := range expenses {
		categories, ok := known[e.BudgetID]
		if ok {
			if _, ok = categories[e.CategoryID]; ok {
				continue
			}
		}
		orphans = append(orphans, e)
	}
	return orphans
}

// ForBudget filters expenses down to those posted against budgetID.
func ForBudget(budgetID string, expenses []models.Expense) []models.Expense {
	out := []models.Expense{}
	for _, e := range expenses {
		if e.BudgetID == budgetID {
			out = append(out, e)
		}
	}
	return out
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
