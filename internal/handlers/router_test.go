package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripbudget/internal/events"
	"tripbudget/internal/metrics"
	"tripbudget/internal/services"
	"tripbudget/internal/store"
	"tripbudget/internal/testutil"
)

func newTestServices(t *testing.T, withDB bool) Services {
	t.Helper()
	m := metrics.New()
	if !withDB {
		uow := store.NewMemory()
		return Services{
			Ledger:    services.NewLedgerService(uow, events.Noop{}, m),
			Analytics: services.NewAnalyticsService(uow, m),
			Audit:     services.NewAuditService(nil),
			Metrics:   m,
		}
	}
	db := testutil.SetupTestDB(t)
	uow := store.NewGorm(db)
	return Services{
		Ledger:    services.NewLedgerService(uow, events.Noop{}, m),
		Analytics: services.NewAnalyticsService(uow, m),
		Audit:     services.NewAuditService(db),
		Metrics:   m,
	}
}

func categoryIDs(t *testing.T, budget map[string]interface{}) map[string]string {
	t.Helper()
	ids := map[string]string{}
	for _, raw := range budget["categories"].([]interface{}) {
		c := raw.(map[string]interface{})
		ids[c["type"].(string)] = c["id"].(string)
	}
	return ids
}

func spentOf(t *testing.T, budget map[string]interface{}, categoryID string) string {
	t.Helper()
	for _, raw := range budget["categories"].([]interface{}) {
		c := raw.(map[string]interface{})
		if c["id"] == categoryID {
			return c["spent_amount"].(string)
		}
	}
	t.Fatalf("category %s not in budget", categoryID)
	return ""
}

func TestRouter_LedgerLifecycle(t *testing.T) {
	for _, backend := range []struct {
		name   string
		withDB bool
	}{{"memory", false}, {"gorm_sqlite", true}} {
		t.Run(backend.name, func(t *testing.T) {
			svc := newTestServices(t, backend.withDB)
			r := NewRouter(svc)

			rec := doRequest(r, "POST", "/api/v1/budgets", `{"trip_id":"trip-1","title":"Taipei","total_amount":"15000",
				"currency":"TWD","categories":[{"type":"food","amount":"10000"},{"type":"transportation","amount":"5000"}]}`)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			budget := parseJSON(t, rec)["budget"].(map[string]interface{})
			budgetID := budget["id"].(string)
			cats := categoryIDs(t, budget)
			food, transport := cats["food"], cats["transportation"]

			rec = doRequest(r, "POST", "/api/v1/budgets", `{"trip_id":"trip-1","title":"Again","total_amount":"1",
				"currency":"TWD","categories":[{"type":"food","amount":"1"}]}`)
			require.Equal(t, http.StatusConflict, rec.Code)

			expense := func(categoryID, amount, kind string) string {
				return fmt.Sprintf(`{"budget_id":%q,"category_id":%q,"title":"t","amount":%q,
					"expense_date":"2025-03-10","type":%q,"payment_method":"cash"}`, budgetID, categoryID, amount, kind)
			}

			rec = doRequest(r, "POST", "/api/v1/expenses", expense(food, "1200", "actual"))
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			actualID := parseJSON(t, rec)["expense"].(map[string]interface{})["id"].(string)

			rec = doRequest(r, "POST", "/api/v1/expenses", expense(transport, "300", "planned"))
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			rec = doRequest(r, "GET", "/api/v1/budgets/"+budgetID, "")
			require.Equal(t, http.StatusOK, rec.Code)
			budget = parseJSON(t, rec)["budget"].(map[string]interface{})
			assert.Equal(t, "1200", spentOf(t, budget, food))
			assert.Equal(t, "0", spentOf(t, budget, transport))

			// Move the actual expense to transport with a new amount.
			rec = doRequest(r, "PUT", "/api/v1/expenses/"+actualID, expense(transport, "800", "actual"))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = doRequest(r, "GET", "/api/v1/budgets/"+budgetID, "")
			budget = parseJSON(t, rec)["budget"].(map[string]interface{})
			assert.Equal(t, "0", spentOf(t, budget, food))
			assert.Equal(t, "800", spentOf(t, budget, transport))

			rec = doRequest(r, "GET", "/api/v1/budgets/"+budgetID+"/summary", "")
			require.Equal(t, http.StatusOK, rec.Code)
			summary := parseJSON(t, rec)["summary"].(map[string]interface{})
			assert.Equal(t, "800", summary["used"])
			assert.Equal(t, "300", summary["planned"])

			rec = doRequest(r, "GET", "/api/v1/expenses?budget_id="+budgetID+"&type=actual", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, float64(1), parseJSON(t, rec)["total_items"])

			rec = doRequest(r, "PUT", "/api/v1/budgets/"+budgetID+"/categories/"+food, `{"amount":"9000"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = doRequest(r, "DELETE", "/api/v1/budgets/"+budgetID+"/categories/"+food, "")
			require.Equal(t, http.StatusOK, rec.Code)

			rec = doRequest(r, "DELETE", "/api/v1/expenses/"+actualID, "")
			require.Equal(t, http.StatusOK, rec.Code)

			rec = doRequest(r, "GET", "/api/v1/budgets/"+budgetID, "")
			budget = parseJSON(t, rec)["budget"].(map[string]interface{})
			assert.Equal(t, "0", spentOf(t, budget, transport))
			assert.Len(t, budget["categories"], 1)

			rec = doRequest(r, "GET", "/api/v1/audit", "")
			require.Equal(t, http.StatusOK, rec.Code)
			report := parseJSON(t, rec)["report"].(map[string]interface{})
			assert.Empty(t, report["drifts"])
			assert.Empty(t, report["orphaned_expenses"])

			rec = doRequest(r, "GET", "/api/v1/budgets/"+budgetID+"/export", "")
			require.Equal(t, http.StatusOK, rec.Code)

			rec = doRequest(r, "GET", "/metrics", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), "ledger_operations_total"))

			rec = doRequest(r, "GET", "/api/v1/audit-logs", "")
			require.Equal(t, http.StatusOK, rec.Code)
			logs := parseJSON(t, rec)["audit_logs"].([]interface{})
			if backend.withDB {
				assert.NotEmpty(t, logs)
			} else {
				assert.Empty(t, logs)
			}
		})
	}
}

func TestRouter_Health(t *testing.T) {
	r := NewRouter(newTestServices(t, false))

	rec := doRequest(r, "GET", "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", parseJSON(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_UnknownBudget(t *testing.T) {
	r := NewRouter(newTestServices(t, false))

	rec := doRequest(r, "GET", "/api/v1/budgets/"+testBudgetID+"/summary", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
}

func TestRouter_Swagger(t *testing.T) {
	r := NewRouter(newTestServices(t, false))

	rec := doRequest(r, "GET", "/swagger/doc.json", "")

	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseJSON(t, rec)
	assert.Equal(t, "Trip Budget API", doc["info"].(map[string]interface{})["title"])
	assert.Contains(t, doc["paths"], "/expenses/{id}")
}
