package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "tripbudget/internal/errors"
	"tripbudget/internal/events"
	"tripbudget/internal/logger"
	"tripbudget/internal/metrics"
	"tripbudget/internal/models"
	"tripbudget/internal/store"
	"tripbudget/internal/uuid"

	"github.com/shopspring/decimal"
)

var ledgerTracer = otel.Tracer("services/ledger")

// ledgerService owns every write to the budget and expense stores. Each
// mutation loads both collections inside one unit of work, validates the
// whole request, applies it in memory and saves both collections back.
// Nothing is written when validation fails.
type ledgerService struct {
	uow       store.UnitOfWork
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewLedgerService creates a new LedgerServicer. A nil publisher drops events
// and nil metrics record nothing.
func NewLedgerService(uow store.UnitOfWork, publisher events.Publisher, m *metrics.Metrics) LedgerServicer {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &ledgerService{
		uow:       uow,
		publisher: publisher,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// ledgerState is the in-memory working copy of both stores for one unit of work.
type ledgerState struct {
	budgets       []models.Budget
	expenses      []models.Expense
	budgetsDirty  bool
	expensesDirty bool
}

func loadState(ctx context.Context, tx store.Tx) (*ledgerState, error) {
	budgets, err := tx.Budgets().LoadAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expenses, err := tx.Expenses().LoadAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ledgerState{budgets: budgets, expenses: expenses}, nil
}

// save writes back whichever collections were touched.
func (st *ledgerState) save(ctx context.Context, tx store.Tx) error {
	if st.budgetsDirty {
		if err := tx.Budgets().SaveAll(ctx, st.budgets); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if st.expensesDirty {
		if err := tx.Expenses().SaveAll(ctx, st.expenses); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

func (st *ledgerState) budget(id string) (*models.Budget, error) {
	for i := range st.budgets {
		if st.budgets[i].ID == id {
			return &st.budgets[i], nil
		}
	}
	return nil, apperrors.ErrBudgetNotFound
}

func (st *ledgerState) category(budgetID, categoryID string) (*models.Budget, *models.BudgetCategory, error) {
	budget, err := st.budget(budgetID)
	if err != nil {
		return nil, nil, err
	}
	category, ok := budget.Category(categoryID)
	if !ok {
		return nil, nil, apperrors.ErrCategoryNotFound
	}
	return budget, category, nil
}

func (st *ledgerState) expenseIndex(id string) (int, error) {
	for i := range st.expenses {
		if st.expenses[i].ID == id {
			return i, nil
		}
	}
	return -1, apperrors.ErrExpenseNotFound
}

// run executes fn inside a unit of work, traced and measured as operation.
// With write set, the touched collections are saved before commit.
func (s *ledgerService) run(ctx context.Context, operation string, write bool, fn func(st *ledgerState) error, attrs ...attribute.KeyValue) error {
	ctx, span := ledgerTracer.Start(ctx, "Ledger."+operation)
	defer span.End()
	span.SetAttributes(attrs...)

	start := time.Now()
	err := s.uow.Atomically(ctx, func(tx store.Tx) error {
		st, err := loadState(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		if !write {
			return nil
		}
		return st.save(ctx, tx)
	})
	s.metrics.ObserveOperation(operation, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !isAppError(err) {
			err = apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return err
	}
	return nil
}

// publish announces a committed change. Failures are logged and counted only.
func (s *ledgerService) publish(ctx context.Context, eventType events.Type, budgetID, resourceID string) {
	event := events.Event{
		ID:         uuid.New(),
		Type:       eventType,
		BudgetID:   budgetID,
		ResourceID: resourceID,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.IncrPublishFailure(string(eventType))
		logger.Get().Errorw("failed to publish ledger event",
			"error", err,
			"type", eventType,
			"budget_id", budgetID,
			"resource_id", resourceID,
		)
	}
}

func isAppError(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr)
}

func outOfRange(field string) error {
	return apperrors.WithMessage(apperrors.ErrInvalidAmount,
		fmt.Sprintf("%s must have at most %d decimal places and %d integer digits", field, models.AmountScale, models.AmountIntegerDigits))
}

func checkAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, field+" must not be negative")
	}
	if !models.AmountFits(amount) {
		return outOfRange(field)
	}
	return nil
}

// addSpent posts amount to the category, refusing a total the stores
// cannot hold.
func addSpent(category *models.BudgetCategory, amount decimal.Decimal) error {
	spent := category.SpentAmount.Add(amount)
	if !models.AmountFits(spent) {
		return outOfRange("Category spent amount")
	}
	category.SpentAmount = spent
	return nil
}

func validateCategoryInput(input CategoryInput) error {
	if !input.Type.IsValid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown category type: "+string(input.Type))
	}
	return checkAmount("Category amount", input.Amount)
}

func newCategory(budgetID string, input CategoryInput) models.BudgetCategory {
	return models.BudgetCategory{
		ID:          uuid.New(),
		BudgetID:    budgetID,
		Type:        input.Type,
		Amount:      input.Amount,
		SpentAmount: decimal.Zero,
		Note:        strings.TrimSpace(input.Note),
	}
}

// CreateBudget creates the budget of a trip with its initial categories.
func (s *ledgerService) CreateBudget(ctx context.Context, input BudgetInput) (*models.Budget, error) {
	input.TripID = strings.TrimSpace(input.TripID)
	input.Title = strings.TrimSpace(input.Title)

	switch {
	case input.TripID == "":
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Trip ID is required")
	case input.Title == "":
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Title is required")
	case !input.Currency.IsValid():
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unsupported currency: "+string(input.Currency))
	case len(input.Categories) == 0:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "A budget needs at least one category")
	}
	if err := checkAmount("Total amount", input.TotalAmount); err != nil {
		return nil, err
	}
	if err := checkAmount("Extra budget", input.ExtraBudget); err != nil {
		return nil, err
	}
	for _, c := range input.Categories {
		if err := validateCategoryInput(c); err != nil {
			return nil, err
		}
	}

	var created models.Budget
	err := s.run(ctx, "CreateBudget", true, func(st *ledgerState) error {
		for i := range st.budgets {
			if st.budgets[i].TripID == input.TripID {
				return apperrors.ErrBudgetExists
			}
		}

		now := s.now()
		budget := models.Budget{
			Base:        models.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			TripID:      input.TripID,
			Title:       input.Title,
			TotalAmount: input.TotalAmount,
			ExtraBudget: input.ExtraBudget,
			Currency:    input.Currency,
			Categories:  make([]models.BudgetCategory, 0, len(input.Categories)),
		}
		for _, c := range input.Categories {
			budget.Categories = append(budget.Categories, newCategory(budget.ID, c))
		}

		st.budgets = append(st.budgets, budget)
		st.budgetsDirty = true
		created = budget.Clone()
		return nil
	}, attribute.String("trip.id", input.TripID))
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Budget created", "budget_id", created.ID, "trip_id", created.TripID, "categories", len(created.Categories))
	s.publish(ctx, events.BudgetCreated, created.ID, created.ID)
	return &created, nil
}

// GetBudget returns a single budget.
func (s *ledgerService) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	var found models.Budget
	err := s.run(ctx, "GetBudget", false, func(st *ledgerState) error {
		budget, err := st.budget(budgetID)
		if err != nil {
			return err
		}
		found = budget.Clone()
		return nil
	}, attribute.String("budget.id", budgetID))
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// ListBudgets returns the budgets of a trip, or every budget when tripID is empty.
func (s *ledgerService) ListBudgets(ctx context.Context, tripID string) ([]models.Budget, error) {
	budgets := []models.Budget{}
	err := s.run(ctx, "ListBudgets", false, func(st *ledgerState) error {
		for i := range st.budgets {
			if tripID == "" || st.budgets[i].TripID == tripID {
				budgets = append(budgets, st.budgets[i].Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

// UpdateBudget changes the budget header. Categories and spent amounts are
// left alone.
func (s *ledgerService) UpdateBudget(ctx context.Context, budgetID string, update BudgetUpdate) (*models.Budget, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Title must not be empty")
	}
	if update.TotalAmount != nil {
		if err := checkAmount("Total amount", *update.TotalAmount); err != nil {
			return nil, err
		}
	}
	if update.ExtraBudget != nil {
		if err := checkAmount("Extra budget", *update.ExtraBudget); err != nil {
			return nil, err
		}
	}

	var updated models.Budget
	err := s.run(ctx, "UpdateBudget", true, func(st *ledgerState) error {
		budget, err := st.budget(budgetID)
		if err != nil {
			return err
		}
		if update.Title != nil {
			budget.Title = strings.TrimSpace(*update.Title)
		}
		if update.TotalAmount != nil {
			budget.TotalAmount = *update.TotalAmount
		}
		if update.ExtraBudget != nil {
			budget.ExtraBudget = *update.ExtraBudget
		}
		budget.UpdatedAt = s.now()
		st.budgetsDirty = true
		updated = budget.Clone()
		return nil
	}, attribute.String("budget.id", budgetID))
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Budget updated", "budget_id", budgetID)
	s.publish(ctx, events.BudgetUpdated, budgetID, budgetID)
	return &updated, nil
}

// AddCategory allocates a new category on an existing budget.
func (s *ledgerService) AddCategory(ctx context.Context, budgetID string, input CategoryInput) (*models.BudgetCategory, error) {
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}

	var added models.BudgetCategory
	err := s.run(ctx, "AddCategory", true, func(st *ledgerState) error {
		budget, err := st.budget(budgetID)
		if err != nil {
			return err
		}
		added = newCategory(budget.ID, input)
		budget.Categories = append(budget.Categories, added)
		budget.UpdatedAt = s.now()
		st.budgetsDirty = true
		return nil
	}, attribute.String("budget.id", budgetID))
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Category added", "budget_id", budgetID, "category_id", added.ID, "type", added.Type)
	s.publish(ctx, events.CategoryAdded, budgetID, added.ID)
	return &added, nil
}

// ReallocateCategory changes a category's allocation. Spent amounts are not
// affected.
func (s *ledgerService) ReallocateCategory(ctx context.Context, budgetID, categoryID string, newAmount decimal.Decimal) error {
	if err := checkAmount("Category amount", newAmount); err != nil {
		return err
	}

	err := s.run(ctx, "ReallocateCategory", true, func(st *ledgerState) error {
		budget, category, err := st.category(budgetID, categoryID)
		if err != nil {
			return err
		}
		category.Amount = newAmount
		budget.UpdatedAt = s.now()
		st.budgetsDirty = true
		return nil
	}, attribute.String("budget.id", budgetID), attribute.String("category.id", categoryID))
	if err != nil {
		return err
	}

	logger.Get().Infow("Category reallocated", "budget_id", budgetID, "category_id", categoryID, "amount", newAmount.String())
	s.publish(ctx, events.CategoryReallocated, budgetID, categoryID)
	return nil
}

// DeleteCategory removes a category from its budget. Expenses posted to it
// are kept and become orphaned.
func (s *ledgerService) DeleteCategory(ctx context.Context, budgetID, categoryID string) error {
	orphaned := 0
	err := s.run(ctx, "DeleteCategory", true, func(st *ledgerState) error {
		budget, err := st.budget(budgetID)
		if err != nil {
			return err
		}
		idx := -1
		for i := range budget.Categories {
			if budget.Categories[i].ID == categoryID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.ErrCategoryNotFound
		}

		budget.Categories = append(budget.Categories[:idx], budget.Categories[idx+1:]...)
		budget.UpdatedAt = s.now()
		st.budgetsDirty = true

		for i := range st.expenses {
			if st.expenses[i].BudgetID == budgetID && st.expenses[i].CategoryID == categoryID {
				orphaned++
			}
		}
		return nil
	}, attribute.String("budget.id", budgetID), attribute.String("category.id", categoryID))
	if err != nil {
		return err
	}

	logger.Get().Infow("Category deleted", "budget_id", budgetID, "category_id", categoryID, "orphaned_expenses", orphaned)
	s.publish(ctx, events.CategoryDeleted, budgetID, categoryID)
	return nil
}
