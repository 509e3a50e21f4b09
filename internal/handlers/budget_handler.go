package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tripbudget/internal/export"
	"tripbudget/internal/logger"
	"tripbudget/internal/models"
	"tripbudget/internal/services"
)

// BudgetHandler handles budget, category and report requests.
type BudgetHandler struct {
	ledger    services.LedgerServicer
	analytics services.AnalyticsServicer
	audit     services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(ledger services.LedgerServicer, analytics services.AnalyticsServicer, audit services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{ledger: ledger, analytics: analytics, audit: audit}
}

// CategoryRequest represents one category allocation.
type CategoryRequest struct {
	Type   models.CategoryType `json:"type" binding:"required,category_type"`
	Amount *decimal.Decimal    `json:"amount" binding:"required"`
	Note   string              `json:"note" binding:"max=500"`
}

func (r CategoryRequest) input() services.CategoryInput {
	return services.CategoryInput{Type: r.Type, Amount: *r.Amount, Note: r.Note}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	TripID      string            `json:"trip_id" binding:"required,max=100"`
	Title       string            `json:"title" binding:"required,min=1,max=200"`
	TotalAmount *decimal.Decimal  `json:"total_amount" binding:"required"`
	ExtraBudget *decimal.Decimal  `json:"extra_budget"`
	Currency    models.Currency   `json:"currency" binding:"required,currency"`
	Categories  []CategoryRequest `json:"categories" binding:"required,min=1,dive"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Title       *string          `json:"title" binding:"omitempty,min=1,max=200"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	ExtraBudget *decimal.Decimal `json:"extra_budget"`
}

// ReallocateRequest represents the new allocation of a category.
type ReallocateRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create the budget of a trip together with its categories
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Trip already has a budget"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	input := services.BudgetInput{
		TripID:      req.TripID,
		Title:       req.Title,
		TotalAmount: *req.TotalAmount,
		ExtraBudget: decimal.Zero,
		Currency:    req.Currency,
	}
	if req.ExtraBudget != nil {
		input.ExtraBudget = *req.ExtraBudget
	}
	for _, cat := range req.Categories {
		input.Categories = append(input.Categories, cat.input())
	}

	budget, err := h.ledger.CreateBudget(c.Request.Context(), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"trip_id": req.TripID, "title": req.Title, "total_amount": input.TotalAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// ListBudgets handles listing budgets.
// @Summary     List budgets
// @Description List budgets, optionally restricted to one trip
// @Tags        budgets
// @Produce     json
// @Param       trip_id query string false "Filter by trip"
// @Success     200 {array} models.Budget "Budgets"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) ListBudgets(c *gin.Context) {
	budgets, err := h.ledger.ListBudgets(c.Request.Context(), c.Query("trip_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetBudget handles retrieving a single budget.
// @Summary     Get budget
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.ledger.GetBudget(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating the budget header.
// @Summary     Update budget
// @Description Update title, total amount or extra budget. Categories are left untouched.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to update"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	budget, err := h.ledger.UpdateBudget(c.Request.Context(), budgetID, services.BudgetUpdate{
		Title:       req.Title,
		TotalAmount: req.TotalAmount,
		ExtraBudget: req.ExtraBudget,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("UPDATE_BUDGET", "budget", budget.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// AddCategory handles adding a category to a budget.
// @Summary     Add category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id      path string          true "Budget ID"
// @Param       request body CategoryRequest true "Category"
// @Success     201 {object} models.BudgetCategory "Category added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/categories [post]
func (h *BudgetHandler) AddCategory(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := h.ledger.AddCategory(c.Request.Context(), budgetID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("ADD_CATEGORY", "budget_category", category.ID, c.ClientIP(),
		map[string]interface{}{"budget_id": budgetID, "type": req.Type, "amount": req.Amount.String()})
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ReallocateCategory handles changing a category's allocation.
// @Summary     Reallocate category
// @Description Change the allocated amount of a category. The spent amount is preserved.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id         path string            true "Budget ID"
// @Param       categoryId path string            true "Category ID"
// @Param       request    body ReallocateRequest true "New allocation"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Router      /budgets/{id}/categories/{categoryId} [put]
func (h *BudgetHandler) ReallocateCategory(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.ledger.ReallocateCategory(ctx, budgetID, categoryID, *req.Amount); err != nil {
		respondWithError(c, err)
		return
	}
	h.audit.Log("REALLOCATE_CATEGORY", "budget_category", categoryID, c.ClientIP(),
		map[string]interface{}{"budget_id": budgetID, "amount": req.Amount.String()})

	budget, err := h.ledger.GetBudget(ctx, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteCategory handles removing a category from a budget.
// @Summary     Delete category
// @Description Remove a category. Its expenses are kept and become orphaned.
// @Tags        categories
// @Produce     json
// @Param       id         path string true "Budget ID"
// @Param       categoryId path string true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Router      /budgets/{id}/categories/{categoryId} [delete]
func (h *BudgetHandler) DeleteCategory(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledger.DeleteCategory(c.Request.Context(), budgetID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("DELETE_CATEGORY", "budget_category", categoryID, c.ClientIP(),
		map[string]interface{}{"budget_id": budgetID})
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// GetSummary handles the budget analytics report.
// @Summary     Budget summary
// @Description Usage, remaining budget, daily trend and category breakdown of a budget
// @Tags        analytics
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} analytics.Summary "Summary"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/summary [get]
func (h *BudgetHandler) GetSummary(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analytics.BudgetSummary(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// ExportBudget streams the budget workbook.
// @Summary     Export budget
// @Description Download the budget, its expenses and daily trend as an Excel workbook
// @Tags        analytics
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param       id path string true "Budget ID"
// @Success     200 {file} file "Workbook"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/export [get]
func (h *BudgetHandler) ExportBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	budget, err := h.ledger.GetBudget(ctx, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	f, err := h.analytics.BudgetWorkbook(ctx, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Get().Warnw("failed to close workbook", "budget_id", budgetID, "error", err)
		}
	}()

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(*budget)+`"`)
	c.Header("Content-Type", export.ContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		logger.Get().Errorw("failed to stream workbook", "budget_id", budgetID, "error", err)
	}
}
