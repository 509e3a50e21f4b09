package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseType distinguishes incurred costs from anticipated ones
type ExpenseType string

const (
	ExpenseTypeActual  ExpenseType = "actual"
	ExpenseTypePlanned ExpenseType = "planned"
)

// IsValid reports whether t is a known expense type.
func (t ExpenseType) IsValid() bool {
	return t == ExpenseTypeActual || t == ExpenseTypePlanned
}

// PaymentMethod represents how an expense was (or will be) paid
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCreditCard    PaymentMethod = "credit_card"
	PaymentMethodDebitCard     PaymentMethod = "debit_card"
	PaymentMethodMobilePayment PaymentMethod = "mobile_payment"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodOther         PaymentMethod = "other"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodMobilePayment, PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// Expense is a single cost posted against one budget category.
// Receipt holds opaque attachment references that are stored verbatim.
type Expense struct {
	Base
	BudgetID      string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	CategoryID    string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Title         string          `gorm:"not null" json:"title"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency      Currency        `gorm:"type:varchar(3);not null" json:"currency"`
	ExpenseDate   time.Time       `gorm:"type:date;not null;index" json:"expense_date"`
	Type          ExpenseType     `gorm:"not null" json:"type"`
	PaymentMethod PaymentMethod   `gorm:"not null" json:"payment_method"`
	Location      string          `json:"location,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Receipt       []string        `gorm:"serializer:json" json:"receipt"`
}

// IsActual reports whether the expense counts toward spent amounts.
func (e *Expense) IsActual() bool {
	return e.Type == ExpenseTypeActual
}

// Clone returns a deep copy of the expense.
func (e Expense) Clone() Expense {
	out := e
	if e.Receipt != nil {
		out.Receipt = append([]string(nil), e.Receipt...)
	}
	return out
}

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
