package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"tripbudget/internal/models"
	"tripbudget/internal/store"
	"tripbudget/internal/uuid"

	"github.com/shopspring/decimal"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// FixedTime is the clock value fixtures stamp on the records they build.
var FixedTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// NewTestBudget builds a TWD budget with one category per given type, each
// allocated 10000. With no types it gets a single food category.
func NewTestBudget(types ...models.CategoryType) models.Budget {
	if len(types) == 0 {
		types = []models.CategoryType{models.CategoryTypeFood}
	}

	n := nextID()
	budget := models.Budget{
		Base:        models.Base{ID: uuid.New(), CreatedAt: FixedTime, UpdatedAt: FixedTime},
		TripID:      fmt.Sprintf("trip-%d", n),
		Title:       fmt.Sprintf("Trip %d", n),
		TotalAmount: decimal.NewFromInt(int64(10000 * len(types))),
		ExtraBudget: decimal.Zero,
		Currency:    models.CurrencyTWD,
		Categories:  make([]models.BudgetCategory, 0, len(types)),
	}
	for _, ct := range types {
		budget.Categories = append(budget.Categories, models.BudgetCategory{
			ID:          uuid.New(),
			BudgetID:    budget.ID,
			Type:        ct,
			Amount:      decimal.NewFromInt(10000),
			SpentAmount: decimal.Zero,
		})
	}
	return budget
}

// NewTestExpense builds an expense against the given budget category.
func NewTestExpense(budget models.Budget, categoryID string, amount string, expenseType models.ExpenseType) models.Expense {
	n := nextID()
	return models.Expense{
		Base:          models.Base{ID: uuid.New(), CreatedAt: FixedTime, UpdatedAt: FixedTime},
		BudgetID:      budget.ID,
		CategoryID:    categoryID,
		Title:         fmt.Sprintf("Expense %d", n),
		Amount:        decimal.RequireFromString(amount),
		Currency:      budget.Currency,
		ExpenseDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Type:          expenseType,
		PaymentMethod: models.PaymentMethodCash,
		Receipt:       []string{},
	}
}

// SeedBudgets appends budgets to the store as-is, bypassing the ledger.
func SeedBudgets(t *testing.T, uow store.UnitOfWork, budgets ...models.Budget) {
	t.Helper()

	err := uow.Atomically(context.Background(), func(tx store.Tx) error {
		existing, err := tx.Budgets().LoadAll(context.Background())
		if err != nil {
			return err
		}
		return tx.Budgets().SaveAll(context.Background(), append(existing, budgets...))
	})
	if err != nil {
		t.Fatalf("failed to seed budgets: %v", err)
	}
}

// SeedExpenses appends expenses to the store as-is, bypassing the ledger.
// Spent amounts are not touched, which lets tests build drifted state.
func SeedExpenses(t *testing.T, uow store.UnitOfWork, expenses ...models.Expense) {
	t.Helper()

	err := uow.Atomically(context.Background(), func(tx store.Tx) error {
		existing, err := tx.Expenses().LoadAll(context.Background())
		if err != nil {
			return err
		}
		return tx.Expenses().SaveAll(context.Background(), append(existing, expenses...))
	})
	if err != nil {
		t.Fatalf("failed to seed expenses: %v", err)
	}
}

// Snapshot is the full persisted state of both stores.
type Snapshot struct {
	Budgets  []models.Budget  `json:"budgets"`
	Expenses []models.Expense `json:"expenses"`
}

// TakeSnapshot loads both collections so tests can compare before and after.
func TakeSnapshot(t *testing.T, uow store.UnitOfWork) Snapshot {
	t.Helper()

	var snap Snapshot
	err := uow.Atomically(context.Background(), func(tx store.Tx) error {
		var err error
		if snap.Budgets, err = tx.Budgets().LoadAll(context.Background()); err != nil {
			return err
		}
		snap.Expenses, err = tx.Expenses().LoadAll(context.Background())
		return err
	})
	if err != nil {
		t.Fatalf("failed to snapshot stores: %v", err)
	}
	return snap
}

// FindBudget returns the budget with the given ID from a snapshot.
func (s Snapshot) FindBudget(t *testing.T, id string) models.Budget {
	t.Helper()
	for _, b := range s.Budgets {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("budget %s not in snapshot", id)
	return models.Budget{}
}
