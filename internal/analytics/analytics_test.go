package analytics

import (
	"testing"
	"time"

	"tripbudget/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(month time.Month, dayOfMonth int) time.Time {
	return time.Date(2025, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func expense(amount string, t models.ExpenseType, date time.Time) models.Expense {
	return models.Expense{
		Base:        models.Base{ID: "e-" + amount + date.Format("0102")},
		BudgetID:    "b1",
		CategoryID:  "c1",
		Amount:      d(amount),
		Type:        t,
		ExpenseDate: date,
	}
}

func budget(total, extra string, categories ...models.BudgetCategory) models.Budget {
	return models.Budget{
		Base:        models.Base{ID: "b1"},
		TotalAmount: d(total),
		ExtraBudget: d(extra),
		Currency:    models.CurrencyTWD,
		Categories:  categories,
	}
}

func TestTotalUsagePercentage(t *testing.T) {
	t.Run("uses_ceiling_including_extra", func(t *testing.T) {
		b := budget("30000", "2000")
		got := TotalUsagePercentage(b, []models.Expense{
			expense("8000", models.ExpenseTypeActual, day(3, 1)),
			expense("50000", models.ExpenseTypePlanned, day(3, 2)),
		})
		assert.Equal(t, 25, got)
	})

	t.Run("zero_ceiling_returns_zero", func(t *testing.T) {
		b := budget("0", "0")
		got := TotalUsagePercentage(b, []models.Expense{expense("10", models.ExpenseTypeActual, day(3, 1))})
		assert.Equal(t, 0, got)
	})

	t.Run("clamped_to_hundred", func(t *testing.T) {
		b := budget("100", "0")
		got := TotalUsagePercentage(b, []models.Expense{expense("250", models.ExpenseTypeActual, day(3, 1))})
		assert.Equal(t, 100, got)
	})

	t.Run("rounds_half_away_from_zero", func(t *testing.T) {
		b := budget("200", "0")
		got := TotalUsagePercentage(b, []models.Expense{expense("1", models.ExpenseTypeActual, day(3, 1))})
		assert.Equal(t, 1, got)
	})
}

func TestCategoryUsagePercentage(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		spent  string
		want   int
	}{
		{name: "partial", amount: "10000", spent: "3000", want: 30},
		{name: "zero_allocation", amount: "0", spent: "500", want: 0},
		{name: "overspent", amount: "1000", spent: "1500", want: 100},
		{name: "nothing_spent", amount: "1000", spent: "0", want: 0},
		{name: "rounds_up_at_half", amount: "8", spent: "1", want: 13},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CategoryUsagePercentage(models.BudgetCategory{Amount: d(tc.amount), SpentAmount: d(tc.spent)})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDailyExpenseTrend(t *testing.T) {
	t.Run("fills_gap_days_with_zero", func(t *testing.T) {
		trend := DailyExpenseTrend([]models.Expense{
			expense("100", models.ExpenseTypeActual, day(3, 1)),
			expense("300", models.ExpenseTypeActual, day(3, 3)),
			expense("50", models.ExpenseTypeActual, day(3, 1)),
		})

		require.Len(t, trend, 3)
		assert.True(t, trend[0].Date.Equal(day(3, 1)))
		assert.True(t, trend[0].Amount.Equal(d("150")))
		assert.Equal(t, 2, trend[0].Count)
		assert.True(t, trend[1].Date.Equal(day(3, 2)))
		assert.True(t, trend[1].Amount.IsZero())
		assert.Equal(t, 0, trend[1].Count)
		assert.True(t, trend[2].Amount.Equal(d("300")))
	})

	t.Run("ignores_planned", func(t *testing.T) {
		trend := DailyExpenseTrend([]models.Expense{
			expense("100", models.ExpenseTypePlanned, day(2, 20)),
			expense("10", models.ExpenseTypeActual, day(3, 1)),
		})
		require.Len(t, trend, 1)
		assert.True(t, trend[0].Date.Equal(day(3, 1)))
	})

	t.Run("empty_without_actuals", func(t *testing.T) {
		assert.Empty(t, DailyExpenseTrend(nil))
	})

	t.Run("buckets_by_calendar_day", func(t *testing.T) {
		trend := DailyExpenseTrend([]models.Expense{
			expense("1", models.ExpenseTypeActual, time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)),
			expense("2", models.ExpenseTypeActual, time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)),
		})
		require.Len(t, trend, 1)
		assert.True(t, trend[0].Amount.Equal(d("3")))
	})

	t.Run("spans_month_boundary", func(t *testing.T) {
		trend := DailyExpenseTrend([]models.Expense{
			expense("1", models.ExpenseTypeActual, day(2, 27)),
			expense("1", models.ExpenseTypeActual, day(3, 2)),
		})
		assert.Len(t, trend, 4)
	})

	t.Run("earliest_calendar_date", func(t *testing.T) {
		epoch := time.Time{}
		trend := DailyExpenseTrend([]models.Expense{
			expense("5", models.ExpenseTypeActual, epoch.AddDate(0, 0, 2)),
			expense("7", models.ExpenseTypeActual, epoch),
		})
		require.Len(t, trend, 3)
		assert.True(t, trend[0].Date.Equal(epoch))
		assert.True(t, trend[0].Amount.Equal(d("7")))
		assert.True(t, trend[2].Amount.Equal(d("5")))
	})
}

func TestDailyAverage(t *testing.T) {
	t.Run("divides_by_span", func(t *testing.T) {
		avg := DailyAverage([]models.Expense{
			expense("100", models.ExpenseTypeActual, day(3, 1)),
			expense("201", models.ExpenseTypeActual, day(3, 3)),
		})
		assert.True(t, avg.Equal(d("100")), "got %s", avg)
	})

	t.Run("single_day", func(t *testing.T) {
		avg := DailyAverage([]models.Expense{expense("99.5", models.ExpenseTypeActual, day(3, 1))})
		assert.True(t, avg.Equal(d("100")), "got %s", avg)
	})

	t.Run("earliest_calendar_date", func(t *testing.T) {
		epoch := time.Time{}
		avg := DailyAverage([]models.Expense{
			expense("30", models.ExpenseTypeActual, epoch),
			expense("30", models.ExpenseTypeActual, epoch.AddDate(0, 0, 2)),
		})
		assert.True(t, avg.Equal(d("20")), "got %s", avg)
	})

	t.Run("no_actuals", func(t *testing.T) {
		avg := DailyAverage([]models.Expense{expense("99", models.ExpenseTypePlanned, day(3, 1))})
		assert.True(t, avg.IsZero())
	})
}

func TestCategoryBreakdown(t *testing.T) {
	b := budget("30000", "0",
		models.BudgetCategory{ID: "c1", Type: models.CategoryTypeFood, Amount: d("10000"), SpentAmount: d("500")},
		models.BudgetCategory{ID: "c2", Type: models.CategoryTypeTransportation, Amount: d("10000"), SpentAmount: d("7000")},
		models.BudgetCategory{ID: "c3", Type: models.CategoryTypeShopping, Amount: d("0"), SpentAmount: d("500")},
		models.BudgetCategory{ID: "c4", Type: models.CategoryTypeExtra, Amount: d("100"), SpentAmount: d("0")},
	)

	rows := CategoryBreakdown(b)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"c2", "c1", "c3", "c4"}, []string{rows[0].CategoryID, rows[1].CategoryID, rows[2].CategoryID, rows[3].CategoryID})
	assert.Equal(t, "Transportation", rows[0].Label)
	assert.Equal(t, 70, rows[0].UsagePercentage)
	assert.Equal(t, 0, rows[2].UsagePercentage)
	assert.True(t, rows[0].AllocatedAmount.Equal(d("10000")))
}

func TestRemainingAndPlanned(t *testing.T) {
	b := budget("1000", "100")
	expenses := []models.Expense{
		expense("400", models.ExpenseTypeActual, day(3, 1)),
		expense("250", models.ExpenseTypePlanned, day(3, 5)),
		expense("0.5", models.ExpenseTypePlanned, day(3, 6)),
	}

	assert.True(t, RemainingBudget(b, expenses).Equal(d("700")))
	assert.True(t, PlannedTotal(expenses).Equal(d("250.5")))
	assert.True(t, ActualTotal(expenses).Equal(d("400")))

	over := append(expenses, expense("5000", models.ExpenseTypeActual, day(3, 2)))
	assert.True(t, RemainingBudget(b, over).IsZero(), "remaining never goes negative")
}

func TestOrphanedExpenses(t *testing.T) {
	budgets := []models.Budget{budget("100", "0", models.BudgetCategory{ID: "c1", Type: models.CategoryTypeFood})}

	kept := expense("1", models.ExpenseTypeActual, day(3, 1))
	lostCategory := expense("2", models.ExpenseTypeActual, day(3, 1))
	lostCategory.CategoryID = "gone"
	lostBudget := expense("3", models.ExpenseTypePlanned, day(3, 1))
	lostBudget.BudgetID = "gone"

	orphans := OrphanedExpenses(budgets, []models.Expense{kept, lostCategory, lostBudget})

	require.Len(t, orphans, 2)
	assert.Equal(t, lostCategory.ID, orphans[0].ID)
	assert.Equal(t, lostBudget.ID, orphans[1].ID)
}

func TestSummarize(t *testing.T) {
	b := budget("1000", "0", models.BudgetCategory{ID: "c1", Type: models.CategoryTypeFood, Amount: d("1000"), SpentAmount: d("300")})
	other := expense("999", models.ExpenseTypeActual, day(3, 1))
	other.BudgetID = "b2"

	s := Summarize(b, []models.Expense{
		expense("300", models.ExpenseTypeActual, day(3, 1)),
		expense("50", models.ExpenseTypePlanned, day(3, 2)),
		other,
	})

	assert.Equal(t, "b1", s.BudgetID)
	assert.True(t, s.Used.Equal(d("300")))
	assert.True(t, s.Remaining.Equal(d("700")))
	assert.True(t, s.Planned.Equal(d("50")))
	assert.Equal(t, 30, s.UsagePercentage)
	assert.Len(t, s.DailyTrend, 1)
	assert.Len(t, s.Categories, 1)
	assert.Equal(t, 0, s.OrphanedExpenses)
}
