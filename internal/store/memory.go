package store

import (
	"context"
	"sync"

	"tripbudget/internal/models"
)

// Memory keeps both collections in process memory. A single mutex serialises
// units of work, which matches the ledger's single-writer model.
type Memory struct {
	mu       sync.Mutex
	budgets  []models.Budget
	expenses []models.Expense
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Budgets returns a BudgetStore that reads and writes the committed state directly.
func (m *Memory) Budgets() BudgetStore {
	return memoryBudgets{m: m}
}

// Expenses returns an ExpenseStore that reads and writes the committed state directly.
func (m *Memory) Expenses() ExpenseStore {
	return memoryExpenses{m: m}
}

// Atomically stages every SaveAll made by fn and commits the staged
// collections together once fn succeeds.
func (m *Memory) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{m: m}
	if err := fn(tx); err != nil {
		return err
	}

	if tx.budgets != nil {
		m.budgets = *tx.budgets
	}
	if tx.expenses != nil {
		m.expenses = *tx.expenses
	}
	return nil
}

type memoryTx struct {
	m        *Memory
	budgets  *[]models.Budget
	expenses *[]models.Expense
}

func (tx *memoryTx) Budgets() BudgetStore   { return txBudgets{tx: tx} }
func (tx *memoryTx) Expenses() ExpenseStore { return txExpenses{tx: tx} }

type txBudgets struct{ tx *memoryTx }

func (s txBudgets) LoadAll(_ context.Context) ([]models.Budget, error) {
	if s.tx.budgets != nil {
		return cloneBudgets(*s.tx.budgets), nil
	}
	return cloneBudgets(s.tx.m.budgets), nil
}

func (s txBudgets) SaveAll(_ context.Context, budgets []models.Budget) error {
	staged := cloneBudgets(budgets)
	s.tx.budgets = &staged
	return nil
}

type txExpenses struct{ tx *memoryTx }

func (s txExpenses) LoadAll(_ context.Context) ([]models.Expense, error) {
	if s.tx.expenses != nil {
		return cloneExpenses(*s.tx.expenses), nil
	}
	return cloneExpenses(s.tx.m.expenses), nil
}

func (s txExpenses) SaveAll(_ context.Context, expenses []models.Expense) error {
	staged := cloneExpenses(expenses)
	s.tx.expenses = &staged
	return nil
}

type memoryBudgets struct{ m *Memory }

func (s memoryBudgets) LoadAll(_ context.Context) ([]models.Budget, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return cloneBudgets(s.m.budgets), nil
}

func (s memoryBudgets) SaveAll(_ context.Context, budgets []models.Budget) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.budgets = cloneBudgets(budgets)
	return nil
}

type memoryExpenses struct{ m *Memory }

func (s memoryExpenses) LoadAll(_ context.Context) ([]models.Expense, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return cloneExpenses(s.m.expenses), nil
}

func (s memoryExpenses) SaveAll(_ context.Context, expenses []models.Expense) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.expenses = cloneExpenses(expenses)
	return nil
}

func cloneBudgets(in []models.Budget) []models.Budget {
	out := make([]models.Budget, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneExpenses(in []models.Expense) []models.Expense {
	out := make([]models.Expense, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
