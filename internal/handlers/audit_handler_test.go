package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tripbudget/internal/models"
	"tripbudget/internal/services"
)

func setupAuditRouter(handler *AuditHandler) *gin.Engine {
	r := gin.New()
	r.GET("/audit", handler.RunAudit)
	r.GET("/audit-logs", handler.ListAuditLogs)
	return r
}

func TestAuditHandler_RunAudit(t *testing.T) {
	t.Run("reports drift without repairing", func(t *testing.T) {
		reconciled := false
		svc := &mockLedger{
			auditFn: func(context.Context) (*services.AuditReport, error) {
				return &services.AuditReport{
					CheckedCategories: 2,
					Drifts:            []services.CategoryDrift{{BudgetID: testBudgetID, CategoryID: testCategoryID, Stored: decimal.NewFromInt(5), Derived: decimal.Zero}},
					OrphanedExpenses:  []string{},
				}, nil
			},
			reconcileFn: func(context.Context) (*services.AuditReport, error) {
				reconciled = true
				return &services.AuditReport{}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAuditRouter(NewAuditHandler(svc, audit))

		rec := doRequest(r, "GET", "/audit", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		report := parseJSON(t, rec)["report"].(map[string]interface{})
		if len(report["drifts"].([]interface{})) != 1 || report["repaired"] != false {
			t.Errorf("unexpected report %v", report)
		}
		if reconciled {
			t.Error("audit must not repair without repair=true")
		}
		if len(audit.entries) != 0 {
			t.Errorf("read-only audit must not be logged, got %+v", audit.entries)
		}
	})

	t.Run("repairs with repair=true", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupAuditRouter(NewAuditHandler(&mockLedger{}, audit))

		rec := doRequest(r, "GET", "/audit?repair=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if report := parseJSON(t, rec)["report"].(map[string]interface{}); report["repaired"] != true {
			t.Errorf("expected repaired report, got %v", report)
		}
		audit.assertLogged(t, "RECONCILE_LEDGER")
	})

	t.Run("returns 400 on bad repair flag", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockLedger{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/audit?repair=maybe", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestAuditHandler_ListAuditLogs(t *testing.T) {
	t.Run("uses default limit", func(t *testing.T) {
		var gotLimit int
		audit := &mockAuditService{recentFn: func(limit int) ([]models.AuditLog, error) {
			gotLimit = limit
			return []models.AuditLog{{Action: "CREATE_BUDGET"}}, nil
		}}
		r := setupAuditRouter(NewAuditHandler(&mockLedger{}, audit))

		rec := doRequest(r, "GET", "/audit-logs", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotLimit != defaultAuditLogLimit {
			t.Errorf("expected limit %d, got %d", defaultAuditLogLimit, gotLimit)
		}
		if logs := parseJSON(t, rec)["audit_logs"].([]interface{}); len(logs) != 1 {
			t.Errorf("expected 1 entry, got %d", len(logs))
		}
	})

	t.Run("returns 400 on bad limit", func(t *testing.T) {
		r := setupAuditRouter(NewAuditHandler(&mockLedger{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/audit-logs?limit=0", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
