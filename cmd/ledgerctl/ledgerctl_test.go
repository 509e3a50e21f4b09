package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripbudget/internal/models"
	"tripbudget/internal/services"
	"tripbudget/internal/testutil"
)

// useSQLite points the commands at a fresh database file and seeds one
// budget with an ACTUAL expense.
func useSQLite(t *testing.T) *models.Budget {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("AMQP_URL", "")

	a, err := openApp()
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	budget, err := a.Ledger.CreateBudget(ctx, services.BudgetInput{
		TripID:      "trip-1",
		Title:       "Osaka",
		TotalAmount: testutil.FixedDecimal("50000"),
		ExtraBudget: testutil.FixedDecimal("0"),
		Currency:    models.CurrencyJPY,
		Categories:  []services.CategoryInput{{Type: models.CategoryTypeFood, Amount: testutil.FixedDecimal("50000")}},
	})
	require.NoError(t, err)
	_, err = a.Ledger.RecordExpense(ctx, services.ExpenseInput{
		BudgetID:      budget.ID,
		CategoryID:    budget.Categories[0].ID,
		Title:         "Takoyaki",
		Amount:        testutil.FixedDecimal("800"),
		ExpenseDate:   testutil.FixedTime,
		Type:          models.ExpenseTypeActual,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	return budget
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	budget := useSQLite(t)

	out, err := execute(t, "summary", budget.ID)
	require.NoError(t, err)

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "800", summary["used"])
	assert.Equal(t, budget.ID, summary["budget_id"])
}

func TestSummaryCommand_UnknownBudget(t *testing.T) {
	useSQLite(t)

	_, err := execute(t, "summary", "missing")
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestAuditCommand(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "audit", "--strict")
	require.NoError(t, err)

	var report services.AuditReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.CheckedCategories)
	assert.Empty(t, report.Drifts)
	assert.False(t, report.Repaired)
}

func TestExportCommand(t *testing.T) {
	budget := useSQLite(t)
	path := filepath.Join(t.TempDir(), "osaka.xlsx")

	out, err := execute(t, "export", budget.ID, "-o", path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestMigrateCommand(t *testing.T) {
	t.Run("refuses_memory_storage", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "memory")
		_, err := execute(t, "migrate", "up")
		assert.Error(t, err)
	})

	t.Run("sqlite_up", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "ledger.db"))
		_, err := execute(t, "migrate", "up")
		assert.NoError(t, err)
	})

	t.Run("rejects_bad_step_count", func(t *testing.T) {
		_, err := execute(t, "migrate", "down", "two")
		assert.Error(t, err)
	})
}
