package services

import (
	"context"
	"time"

	"tripbudget/internal/analytics"
	"tripbudget/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// CategoryInput describes a category to allocate on a budget.
type CategoryInput struct {
	Type   models.CategoryType
	Amount decimal.Decimal
	Note   string
}

// BudgetInput holds the fields needed to create a budget.
type BudgetInput struct {
	TripID      string
	Title       string
	TotalAmount decimal.Decimal
	ExtraBudget decimal.Decimal
	Currency    models.Currency
	Categories  []CategoryInput
}

// BudgetUpdate holds the budget header fields that may change. Nil fields
// are left untouched.
type BudgetUpdate struct {
	Title       *string
	TotalAmount *decimal.Decimal
	ExtraBudget *decimal.Decimal
}

// ExpenseInput carries every caller-supplied field of an expense. Updates
// replace all of them at once. An empty Currency means the budget's currency.
type ExpenseInput struct {
	BudgetID      string
	CategoryID    string
	Title         string
	Amount        decimal.Decimal
	Currency      models.Currency
	ExpenseDate   time.Time
	Type          models.ExpenseType
	PaymentMethod models.PaymentMethod
	Location      string
	Notes         string
	Receipt       []string
}

// ExpenseFilter holds optional filters for listing expenses.
type ExpenseFilter struct {
	BudgetID   string
	CategoryID string
	Type       *models.ExpenseType
	FromDate   *time.Time
	ToDate     *time.Time
}

// CategoryDrift reports a category whose stored spent amount disagrees with
// the sum of its ACTUAL expenses.
type CategoryDrift struct {
	BudgetID   string          `json:"budget_id"`
	CategoryID string          `json:"category_id"`
	Stored     decimal.Decimal `json:"stored"`
	Derived    decimal.Decimal `json:"derived"`
}

// AuditReport is the result of checking the ledger for consistency.
type AuditReport struct {
	CheckedCategories int             `json:"checked_categories"`
	Drifts            []CategoryDrift `json:"drifts"`
	OrphanedExpenses  []string        `json:"orphaned_expenses"`
	Repaired          bool            `json:"repaired"`
}

// LedgerServicer is the only writer of budgets and expenses. Every mutation
// either fully succeeds or leaves both stores unchanged.
type LedgerServicer interface {
	CreateBudget(ctx context.Context, input BudgetInput) (*models.Budget, error)
	GetBudget(ctx context.Context, budgetID string) (*models.Budget, error)
	ListBudgets(ctx context.Context, tripID string) ([]models.Budget, error)
	UpdateBudget(ctx context.Context, budgetID string, update BudgetUpdate) (*models.Budget, error)

	AddCategory(ctx context.Context, budgetID string, input CategoryInput) (*models.BudgetCategory, error)
	ReallocateCategory(ctx context.Context, budgetID, categoryID string, newAmount decimal.Decimal) error
	DeleteCategory(ctx context.Context, budgetID, categoryID string) error

	RecordExpense(ctx context.Context, input ExpenseInput) (*models.Expense, error)
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, expenseID string, input ExpenseInput) (*models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID string) error

	Audit(ctx context.Context) (*AuditReport, error)
	Reconcile(ctx context.Context) (*AuditReport, error)
}

// AnalyticsServicer builds read-only reports over one budget.
type AnalyticsServicer interface {
	BudgetSummary(ctx context.Context, budgetID string) (*analytics.Summary, error)
	BudgetWorkbook(ctx context.Context, budgetID string) (*excelize.File, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
	Recent(limit int) ([]models.AuditLog, error)
}
