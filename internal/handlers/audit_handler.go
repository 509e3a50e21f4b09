package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "tripbudget/internal/errors"
	"tripbudget/internal/services"
)

const defaultAuditLogLimit = 50

// AuditHandler serves ledger consistency checks and the audit trail.
type AuditHandler struct {
	ledger services.LedgerServicer
	audit  services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(ledger services.LedgerServicer, audit services.AuditServicer) *AuditHandler {
	return &AuditHandler{ledger: ledger, audit: audit}
}

// RunAudit checks every category's spent amount against its expenses.
// @Summary     Audit ledger
// @Description Report drifted spent amounts and orphaned expenses. With repair=true the drift is rewritten.
// @Tags        audit
// @Produce     json
// @Param       repair query bool false "Rewrite drifted spent amounts"
// @Success     200 {object} services.AuditReport "Audit report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /audit [get]
func (h *AuditHandler) RunAudit(c *gin.Context) {
	repair := false
	if v := c.Query("repair"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "repair must be 'true' or 'false'"))
			return
		}
		repair = parsed
	}

	var (
		report *services.AuditReport
		err    error
	)
	if repair {
		report, err = h.ledger.Reconcile(c.Request.Context())
	} else {
		report, err = h.ledger.Audit(c.Request.Context())
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	if report.Repaired {
		h.audit.Log("RECONCILE_LEDGER", "ledger", "", c.ClientIP(),
			map[string]interface{}{"categories": len(report.Drifts)})
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ListAuditLogs returns the most recent audit trail entries.
// @Summary     Audit trail
// @Tags        audit
// @Produce     json
// @Param       limit query int false "Number of entries (default 50, max 500)"
// @Success     200 {array} models.AuditLog "Entries, newest first"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	limit := defaultAuditLogLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.audit.Recent(limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": entries})
}
