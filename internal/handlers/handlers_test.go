package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"tripbudget/internal/analytics"
	"tripbudget/internal/models"
	"tripbudget/internal/services"
	"tripbudget/internal/validator"
)

// --- mock services ---

type mockLedger struct {
	createBudgetFn       func(ctx context.Context, input services.BudgetInput) (*models.Budget, error)
	getBudgetFn          func(ctx context.Context, budgetID string) (*models.Budget, error)
	listBudgetsFn        func(ctx context.Context, tripID string) ([]models.Budget, error)
	updateBudgetFn       func(ctx context.Context, budgetID string, update services.BudgetUpdate) (*models.Budget, error)
	addCategoryFn        func(ctx context.Context, budgetID string, input services.CategoryInput) (*models.BudgetCategory, error)
	reallocateCategoryFn func(ctx context.Context, budgetID, categoryID string, amount decimal.Decimal) error
	deleteCategoryFn     func(ctx context.Context, budgetID, categoryID string) error
	recordExpenseFn      func(ctx context.Context, input services.ExpenseInput) (*models.Expense, error)
	getExpenseFn         func(ctx context.Context, expenseID string) (*models.Expense, error)
	listExpensesFn       func(ctx context.Context, filter services.ExpenseFilter) ([]models.Expense, error)
	updateExpenseFn      func(ctx context.Context, expenseID string, input services.ExpenseInput) (*models.Expense, error)
	deleteExpenseFn      func(ctx context.Context, expenseID string) error
	auditFn              func(ctx context.Context) (*services.AuditReport, error)
	reconcileFn          func(ctx context.Context) (*services.AuditReport, error)
}

func (m *mockLedger) CreateBudget(ctx context.Context, input services.BudgetInput) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(ctx, input)
	}
	return &models.Budget{}, nil
}

func (m *mockLedger) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	if m.getBudgetFn != nil {
		return m.getBudgetFn(ctx, budgetID)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}}, nil
}

func (m *mockLedger) ListBudgets(ctx context.Context, tripID string) ([]models.Budget, error) {
	if m.listBudgetsFn != nil {
		return m.listBudgetsFn(ctx, tripID)
	}
	return []models.Budget{}, nil
}

func (m *mockLedger) UpdateBudget(ctx context.Context, budgetID string, update services.BudgetUpdate) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(ctx, budgetID, update)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}}, nil
}

func (m *mockLedger) AddCategory(ctx context.Context, budgetID string, input services.CategoryInput) (*models.BudgetCategory, error) {
	if m.addCategoryFn != nil {
		return m.addCategoryFn(ctx, budgetID, input)
	}
	return &models.BudgetCategory{}, nil
}

func (m *mockLedger) ReallocateCategory(ctx context.Context, budgetID, categoryID string, amount decimal.Decimal) error {
	if m.reallocateCategoryFn != nil {
		return m.reallocateCategoryFn(ctx, budgetID, categoryID, amount)
	}
	return nil
}

func (m *mockLedger) DeleteCategory(ctx context.Context, budgetID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(ctx, budgetID, categoryID)
	}
	return nil
}

func (m *mockLedger) RecordExpense(ctx context.Context, input services.ExpenseInput) (*models.Expense, error) {
	if m.recordExpenseFn != nil {
		return m.recordExpenseFn(ctx, input)
	}
	return &models.Expense{}, nil
}

func (m *mockLedger) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	if m.getExpenseFn != nil {
		return m.getExpenseFn(ctx, expenseID)
	}
	return &models.Expense{Base: models.Base{ID: expenseID}}, nil
}

func (m *mockLedger) ListExpenses(ctx context.Context, filter services.ExpenseFilter) ([]models.Expense, error) {
	if m.listExpensesFn != nil {
		return m.listExpensesFn(ctx, filter)
	}
	return []models.Expense{}, nil
}

func (m *mockLedger) UpdateExpense(ctx context.Context, expenseID string, input services.ExpenseInput) (*models.Expense, error) {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(ctx, expenseID, input)
	}
	return &models.Expense{Base: models.Base{ID: expenseID}}, nil
}

func (m *mockLedger) DeleteExpense(ctx context.Context, expenseID string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(ctx, expenseID)
	}
	return nil
}

func (m *mockLedger) Audit(ctx context.Context) (*services.AuditReport, error) {
	if m.auditFn != nil {
		return m.auditFn(ctx)
	}
	return &services.AuditReport{Drifts: []services.CategoryDrift{}, OrphanedExpenses: []string{}}, nil
}

func (m *mockLedger) Reconcile(ctx context.Context) (*services.AuditReport, error) {
	if m.reconcileFn != nil {
		return m.reconcileFn(ctx)
	}
	return &services.AuditReport{Drifts: []services.CategoryDrift{}, OrphanedExpenses: []string{}, Repaired: true}, nil
}

var _ services.LedgerServicer = (*mockLedger)(nil)

type mockAnalytics struct {
	budgetSummaryFn  func(ctx context.Context, budgetID string) (*analytics.Summary, error)
	budgetWorkbookFn func(ctx context.Context, budgetID string) (*excelize.File, error)
}

func (m *mockAnalytics) BudgetSummary(ctx context.Context, budgetID string) (*analytics.Summary, error) {
	if m.budgetSummaryFn != nil {
		return m.budgetSummaryFn(ctx, budgetID)
	}
	return &analytics.Summary{BudgetID: budgetID}, nil
}

func (m *mockAnalytics) BudgetWorkbook(ctx context.Context, budgetID string) (*excelize.File, error) {
	if m.budgetWorkbookFn != nil {
		return m.budgetWorkbookFn(ctx, budgetID)
	}
	return excelize.NewFile(), nil
}

var _ services.AnalyticsServicer = (*mockAnalytics)(nil)

type auditEntry struct {
	action     string
	resourceID string
}

type mockAuditService struct {
	entries  []auditEntry
	recentFn func(limit int) ([]models.AuditLog, error)
}

func (m *mockAuditService) Log(action, _, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{action: action, resourceID: resourceID})
}

func (m *mockAuditService) Recent(limit int) ([]models.AuditLog, error) {
	if m.recentFn != nil {
		return m.recentFn(limit)
	}
	return []models.AuditLog{}, nil
}

func (m *mockAuditService) assertLogged(t *testing.T, action string) {
	t.Helper()
	for _, e := range m.entries {
		if e.action == action {
			return
		}
	}
	t.Errorf("expected audit entry %q, got %+v", action, m.entries)
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

const (
	testBudgetID   = "01950000-0000-7000-8000-000000000001"
	testCategoryID = "01950000-0000-7000-8000-000000000002"
	testExpenseID  = "01950000-0000-7000-8000-000000000003"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
