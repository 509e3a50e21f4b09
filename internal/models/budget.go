package models

import "github.com/shopspring/decimal"

// Currency is an ISO 4217 code accepted for budgets and expenses
type Currency string

const (
	CurrencyTWD Currency = "TWD"
	CurrencyUSD Currency = "USD"
	CurrencyJPY Currency = "JPY"
	CurrencyEUR Currency = "EUR"
	CurrencyKRW Currency = "KRW"
	CurrencyCNY Currency = "CNY"
	CurrencyHKD Currency = "HKD"
	CurrencyGBP Currency = "GBP"
	CurrencyTHB Currency = "THB"
	CurrencySGD Currency = "SGD"
	CurrencyAUD Currency = "AUD"
	CurrencyCAD Currency = "CAD"
)

// Currencies lists the supported currencies.
var Currencies = []Currency{
	CurrencyTWD, CurrencyUSD, CurrencyJPY, CurrencyEUR, CurrencyKRW, CurrencyCNY,
	CurrencyHKD, CurrencyGBP, CurrencyTHB, CurrencySGD, CurrencyAUD, CurrencyCAD,
}

// IsValid reports whether c is a supported currency.
func (c Currency) IsValid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

// Budget represents the spending plan of a single trip
type Budget struct {
	Base
	TripID      string           `gorm:"not null;index" json:"trip_id"`
	Title       string           `gorm:"not null" json:"title"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	ExtraBudget decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"extra_budget"`
	Currency    Currency         `gorm:"type:varchar(3);not null" json:"currency"`
	Categories  []BudgetCategory `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"categories"`
}

// Ceiling returns the usable budget: the planned total plus the contingency.
func (b *Budget) Ceiling() decimal.Decimal {
	return b.TotalAmount.Add(b.ExtraBudget)
}

// Category returns a pointer to the category with the given ID, so callers
// can mutate it in place.
func (b *Budget) Category(id string) (*BudgetCategory, bool) {
	for i := range b.Categories {
		if b.Categories[i].ID == id {
			return &b.Categories[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the budget.
func (b Budget) Clone() Budget {
	out := b
	if b.Categories != nil {
		out.Categories = make([]BudgetCategory, len(b.Categories))
		copy(out.Categories, b.Categories)
	}
	return out
}
