package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tripbudget/internal/errors"
	"tripbudget/internal/models"
	"tripbudget/internal/pagination"
	"tripbudget/internal/services"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	ledger services.LedgerServicer
	audit  services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(ledger services.LedgerServicer, audit services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{ledger: ledger, audit: audit}
}

// ExpenseRequest represents the request payload for recording or replacing
// an expense. Currency defaults to the budget's currency.
type ExpenseRequest struct {
	BudgetID      string               `json:"budget_id" binding:"required"`
	CategoryID    string               `json:"category_id" binding:"required"`
	Title         string               `json:"title" binding:"required,min=1,max=200"`
	Amount        *decimal.Decimal     `json:"amount" binding:"required"`
	Currency      models.Currency      `json:"currency" binding:"omitempty,currency"`
	ExpenseDate   string               `json:"expense_date" binding:"required,datetime=2006-01-02"`
	Type          models.ExpenseType   `json:"type" binding:"required,expense_type"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required,payment_method"`
	Location      string               `json:"location" binding:"max=200"`
	Notes         string               `json:"notes" binding:"max=1000"`
	Receipt       []string             `json:"receipt"`
}

func (r ExpenseRequest) input() (services.ExpenseInput, error) {
	date, err := parseDate(r.ExpenseDate, "expense_date")
	if err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		BudgetID:      r.BudgetID,
		CategoryID:    r.CategoryID,
		Title:         r.Title,
		Amount:        *r.Amount,
		Currency:      r.Currency,
		ExpenseDate:   date,
		Type:          r.Type,
		PaymentMethod: r.PaymentMethod,
		Location:      r.Location,
		Notes:         r.Notes,
		Receipt:       r.Receipt,
	}, nil
}

// CreateExpense handles recording an expense.
// @Summary     Record expense
// @Description Record an expense. ACTUAL expenses add to the category's spent amount.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       request body ExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.ledger.RecordExpense(c.Request.Context(), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"budget_id": expense.BudgetID, "category_id": expense.CategoryID, "amount": expense.Amount.String(), "type": expense.Type})
	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// ListExpenses handles listing expenses.
// @Summary     List expenses
// @Description Paginated expenses, newest expense date first
// @Tags        expenses
// @Produce     json
// @Param       budget_id   query string false "Filter by budget"
// @Param       category_id query string false "Filter by category"
// @Param       type        query string false "Filter by type (actual, planned)"
// @Param       from        query string false "Earliest expense date (YYYY-MM-DD)"
// @Param       to          query string false "Latest expense date (YYYY-MM-DD)"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}

	filter, err := parseExpenseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.ledger.ListExpenses(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.Slice(expenses, page))
}

func parseExpenseFilter(c *gin.Context) (services.ExpenseFilter, error) {
	filter := services.ExpenseFilter{
		BudgetID:   c.Query("budget_id"),
		CategoryID: c.Query("category_id"),
	}

	if v := c.Query("type"); v != "" {
		expenseType := models.ExpenseType(v)
		if !expenseType.IsValid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be actual or planned")
		}
		filter.Type = &expenseType
	}

	if v := c.Query("from"); v != "" {
		t, err := parseDate(v, "from")
		if err != nil {
			return filter, err
		}
		filter.FromDate = &t
	}

	if v := c.Query("to"); v != "" {
		t, err := parseDate(v, "to")
		if err != nil {
			return filter, err
		}
		filter.ToDate = &t
	}

	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from")
	}
	return filter, nil
}

// GetExpense handles retrieving a single expense.
// @Summary     Get expense
// @Tags        expenses
// @Produce     json
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.ledger.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense handles replacing an expense.
// @Summary     Update expense
// @Description Replace every field of an expense. Spent amounts follow the change.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       id      path string         true "Expense ID"
// @Param       request body ExpenseRequest true "Expense details"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Expense, budget or category not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.ledger.UpdateExpense(c.Request.Context(), expenseID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("UPDATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"budget_id": expense.BudgetID, "category_id": expense.CategoryID, "amount": expense.Amount.String(), "type": expense.Type})
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense handles removing an expense.
// @Summary     Delete expense
// @Description Delete an expense. ACTUAL expenses are reversed from their category.
// @Tags        expenses
// @Produce     json
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledger.DeleteExpense(c.Request.Context(), expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("DELETE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
