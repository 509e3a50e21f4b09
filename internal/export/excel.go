// Package export renders a budget and its expenses as an Excel workbook.
package export

import (
	"fmt"
	"regexp"
	"strings"

	"tripbudget/internal/analytics"
	"tripbudget/internal/models"

	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order.
const (
	SheetSummary    = "Summary"
	SheetCategories = "Categories"
	SheetExpenses   = "Expenses"
	SheetDaily      = "Daily"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateLayout = "2006-01-02"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// BudgetWorkbook builds a workbook with a summary, the category breakdown,
// every expense of the budget and the daily trend.
func BudgetWorkbook(budget models.Budget, expenses []models.Expense) (*excelize.File, error) {
	own := analytics.ForBudget(budget.ID, expenses)
	summary := analytics.Summarize(budget, own)

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	w := &writer{f: f, headerStyle: headerStyle}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	w.summarySheet(summary)
	w.categoriesSheet(summary.Categories)
	w.expensesSheet(budget, own)
	w.dailySheet(summary.DailyTrend)

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// FileName returns a download name for the budget workbook.
func FileName(budget models.Budget) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(budget.Title, "_"), "_")
	if name == "" {
		name = "budget"
	}
	return fmt.Sprintf("%s_%s.xlsx", name, budget.ID)
}

// writer keeps the first error so sheet builders can stay linear.
type writer struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (w *writer) newSheet(name string) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = fmt.Errorf("create sheet %s: %w", name, err)
	}
}

func (w *writer) row(sheet string, row int, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err == nil {
		err = w.f.SetSheetRow(sheet, cell, &values)
	}
	if err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
}

func (w *writer) header(sheet string, columns ...string) {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	w.row(sheet, 1, values...)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err == nil {
		err = w.f.SetCellStyle(sheet, "A1", last, w.headerStyle)
	}
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(columns))
		err = w.f.SetColWidth(sheet, "A", lastCol, 18)
	}
	if err != nil {
		w.err = fmt.Errorf("style %s header: %w", sheet, err)
	}
}

func (w *writer) summarySheet(s analytics.Summary) {
	w.header(SheetSummary, "Field", "Value")
	rows := [][]interface{}{
		{"Budget", s.Title},
		{"Trip", s.TripID},
		{"Currency", string(s.Currency)},
		{"Ceiling", s.Ceiling.InexactFloat64()},
		{"Used", s.Used.InexactFloat64()},
		{"Remaining", s.Remaining.InexactFloat64()},
		{"Planned", s.Planned.InexactFloat64()},
		{"Usage %", s.UsagePercentage},
		{"Daily average", s.DailyAverage.InexactFloat64()},
		{"Orphaned expenses", s.OrphanedExpenses},
	}
	for i, r := range rows {
		w.row(SheetSummary, i+2, r...)
	}
}

func (w *writer) categoriesSheet(rows []analytics.CategoryUsage) {
	w.newSheet(SheetCategories)
	w.header(SheetCategories, "Category", "Allocated", "Spent", "Usage %")
	for i, r := range rows {
		w.row(SheetCategories, i+2, r.Label, r.AllocatedAmount.InexactFloat64(), r.SpentAmount.InexactFloat64(), r.UsagePercentage)
	}
}

func (w *writer) expensesSheet(budget models.Budget, expenses []models.Expense) {
	w.newSheet(SheetExpenses)
	w.header(SheetExpenses, "Date", "Title", "Category", "Type", "Amount", "Currency", "Payment", "Location", "Notes")
	for i, e := range expenses {
		category := "(deleted)"
		if c, ok := budget.Category(e.CategoryID); ok {
			category = c.Type.Label()
		}
		w.row(SheetExpenses, i+2,
			e.ExpenseDate.Format(dateLayout),
			e.Title,
			category,
			string(e.Type),
			e.Amount.InexactFloat64(),
			string(e.Currency),
			string(e.PaymentMethod),
			e.Location,
			e.Notes,
		)
	}
}

func (w *writer) dailySheet(trend []analytics.DailyBucket) {
	w.newSheet(SheetDaily)
	w.header(SheetDaily, "Date", "Amount", "Count")
	for i, b := range trend {
		w.row(SheetDaily, i+2, b.Date.Format(dateLayout), b.Amount.InexactFloat64(), b.Count)
	}
}
