// Package store holds the two independently persisted collections behind the
// budget ledger: budgets (with their embedded categories) and expenses.
//
// Both stores follow a load-all / save-all contract. The ledger always loads
// the full collections, mutates them in memory and saves them back inside a
// single UnitOfWork, so the two writes become visible together or not at all.
package store

import (
	"context"

	"tripbudget/internal/models"
)

// BudgetStore owns the durable collection of budgets.
type BudgetStore interface {
	LoadAll(ctx context.Context) ([]models.Budget, error)
	SaveAll(ctx context.Context, budgets []models.Budget) error
}

// ExpenseStore owns the durable collection of expenses.
type ExpenseStore interface {
	LoadAll(ctx context.Context) ([]models.Expense, error)
	SaveAll(ctx context.Context, expenses []models.Expense) error
}

// Tx exposes both stores inside one unit of work.
type Tx interface {
	Budgets() BudgetStore
	Expenses() ExpenseStore
}

// UnitOfWork runs fn against both stores. Writes made through tx are
// published only if fn returns nil; otherwise they are discarded.
type UnitOfWork interface {
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}
