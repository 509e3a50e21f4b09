package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amount columns are decimal(20,4). SQLite keeps NUMERIC values as float64,
// which only holds 15 significant digits, so amounts stay below 10^11.
const (
	AmountScale         = 4
	AmountIntegerDigits = 11
)

var amountLimit = decimal.New(1, AmountIntegerDigits)

// AmountFits reports whether d survives a round trip through every storage
// backend unchanged.
func AmountFits(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountScale)) && d.Abs().LessThan(amountLimit)
}

// Expense dates are limited to this range so a daily trend stays bounded.
var (
	MinExpenseDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxExpenseDate = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// ExpenseDateInRange reports whether the calendar day of t lies within
// [MinExpenseDate, MaxExpenseDate].
func ExpenseDateInRange(t time.Time) bool {
	day := CalendarDate(t)
	return !day.Before(MinExpenseDate) && !day.After(MaxExpenseDate)
}
