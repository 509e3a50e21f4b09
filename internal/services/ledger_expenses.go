package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "tripbudget/internal/errors"
	"tripbudget/internal/events"
	"tripbudget/internal/logger"
	"tripbudget/internal/models"
	"tripbudget/internal/uuid"
)

// validateExpenseInput checks everything that does not need the stores.
func validateExpenseInput(input *ExpenseInput) error {
	input.Title = strings.TrimSpace(input.Title)

	switch {
	case input.BudgetID == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Budget ID is required")
	case input.CategoryID == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Category ID is required")
	case input.Title == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Title is required")
	case input.ExpenseDate.IsZero():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Expense date is required")
	case !models.ExpenseDateInRange(input.ExpenseDate):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("Expense date must be between %s and %s",
			models.MinExpenseDate.Format(time.DateOnly), models.MaxExpenseDate.Format(time.DateOnly)))
	case !input.Amount.IsPositive():
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Amount must be greater than zero")
	case !models.AmountFits(input.Amount):
		return outOfRange("Amount")
	case !input.Type.IsValid():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown expense type: "+string(input.Type))
	case !input.PaymentMethod.IsValid():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown payment method: "+string(input.PaymentMethod))
	case input.Currency != "" && !input.Currency.IsValid():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Unsupported currency: "+string(input.Currency))
	}
	return nil
}

// resolveCurrency defaults the expense currency to the budget's and rejects
// a different one.
func resolveCurrency(budget *models.Budget, input *ExpenseInput) error {
	if input.Currency == "" {
		input.Currency = budget.Currency
		return nil
	}
	if input.Currency != budget.Currency {
		return apperrors.ErrCurrencyMismatch
	}
	return nil
}

func applyExpenseInput(e *models.Expense, input ExpenseInput) {
	e.BudgetID = input.BudgetID
	e.CategoryID = input.CategoryID
	e.Title = input.Title
	e.Amount = input.Amount
	e.Currency = input.Currency
	e.ExpenseDate = models.CalendarDate(input.ExpenseDate)
	e.Type = input.Type
	e.PaymentMethod = input.PaymentMethod
	e.Location = strings.TrimSpace(input.Location)
	e.Notes = input.Notes
	e.Receipt = append([]string{}, input.Receipt...)
}

// RecordExpense adds an expense and, when it is ACTUAL, adds its amount to
// the target category's spent amount in the same unit of work.
func (s *ledgerService) RecordExpense(ctx context.Context, input ExpenseInput) (*models.Expense, error) {
	if err := validateExpenseInput(&input); err != nil {
		return nil, err
	}

	var created models.Expense
	err := s.run(ctx, "RecordExpense", true, func(st *ledgerState) error {
		budget, category, err := st.category(input.BudgetID, input.CategoryID)
		if err != nil {
			return err
		}
		if err := resolveCurrency(budget, &input); err != nil {
			return err
		}

		now := s.now()
		expense := models.Expense{Base: models.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}}
		applyExpenseInput(&expense, input)

		if expense.IsActual() {
			if err := addSpent(category, expense.Amount); err != nil {
				return err
			}
			budget.UpdatedAt = now
			st.budgetsDirty = true
		}
		st.expenses = append(st.expenses, expense)
		st.expensesDirty = true
		created = expense.Clone()
		return nil
	}, attribute.String("budget.id", input.BudgetID), attribute.String("category.id", input.CategoryID))
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Expense recorded",
		"expense_id", created.ID,
		"budget_id", created.BudgetID,
		"category_id", created.CategoryID,
		"type", created.Type,
		"amount", created.Amount.String(),
	)
	s.publish(ctx, events.ExpenseRecorded, created.BudgetID, created.ID)
	return &created, nil
}

// GetExpense returns a single expense.
func (s *ledgerService) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	var found models.Expense
	err := s.run(ctx, "GetExpense", false, func(st *ledgerState) error {
		idx, err := st.expenseIndex(expenseID)
		if err != nil {
			return err
		}
		found = st.expenses[idx].Clone()
		return nil
	}, attribute.String("expense.id", expenseID))
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// ListExpenses returns the expenses matching filter, newest expense date first.
func (s *ledgerService) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error) {
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown expense type: "+string(*filter.Type))
	}

	expenses := []models.Expense{}
	err := s.run(ctx, "ListExpenses", false, func(st *ledgerState) error {
		for i := range st.expenses {
			if matchesFilter(&st.expenses[i], filter) {
				expenses = append(expenses, st.expenses[i].Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].ExpenseDate.Equal(expenses[j].ExpenseDate) {
			return expenses[i].ExpenseDate.After(expenses[j].ExpenseDate)
		}
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
	return expenses, nil
}

func matchesFilter(e *models.Expense, f ExpenseFilter) bool {
	if f.BudgetID != "" && e.BudgetID != f.BudgetID {
		return false
	}
	if f.CategoryID != "" && e.CategoryID != f.CategoryID {
		return false
	}
	if f.Type != nil && e.Type != *f.Type {
		return false
	}
	day := models.CalendarDate(e.ExpenseDate)
	if f.FromDate != nil && day.Before(models.CalendarDate(*f.FromDate)) {
		return false
	}
	if f.ToDate != nil && day.After(models.CalendarDate(*f.ToDate)) {
		return false
	}
	return true
}

// UpdateExpense replaces every field of an expense. Spent amounts move in
// three steps: reverse the old ACTUAL amount from its old category, apply
// the edit, then add the new ACTUAL amount to its new category. Moving an
// expense between categories, between ACTUAL and PLANNED, or changing its
// amount all fall out of those three steps.
func (s *ledgerService) UpdateExpense(ctx context.Context, expenseID string, input ExpenseInput) (*models.Expense, error) {
	if err := validateExpenseInput(&input); err != nil {
		return nil, err
	}

	var updated models.Expense
	err := s.run(ctx, "UpdateExpense", true, func(st *ledgerState) error {
		idx, err := st.expenseIndex(expenseID)
		if err != nil {
			return err
		}
		newBudget, newCategory, err := st.category(input.BudgetID, input.CategoryID)
		if err != nil {
			return err
		}
		if err := resolveCurrency(newBudget, &input); err != nil {
			return err
		}

		now := s.now()
		old := st.expenses[idx]

		if old.IsActual() {
			// An orphaned expense has nothing to reverse.
			if oldBudget, oldCategory, err := st.category(old.BudgetID, old.CategoryID); err == nil {
				oldCategory.SpentAmount = oldCategory.SpentAmount.Sub(old.Amount)
				oldBudget.UpdatedAt = now
				st.budgetsDirty = true
			}
		}

		next := old.Clone()
		applyExpenseInput(&next, input)
		next.UpdatedAt = now

		if next.IsActual() {
			if err := addSpent(newCategory, next.Amount); err != nil {
				return err
			}
			newBudget.UpdatedAt = now
			st.budgetsDirty = true
		}

		st.expenses[idx] = next
		st.expensesDirty = true
		updated = next.Clone()
		return nil
	}, attribute.String("expense.id", expenseID))
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Expense updated",
		"expense_id", updated.ID,
		"budget_id", updated.BudgetID,
		"category_id", updated.CategoryID,
		"type", updated.Type,
		"amount", updated.Amount.String(),
	)
	s.publish(ctx, events.ExpenseUpdated, updated.BudgetID, updated.ID)
	return &updated, nil
}

// DeleteExpense removes an expense and reverses its ACTUAL amount. An
// orphaned expense is simply removed.
func (s *ledgerService) DeleteExpense(ctx context.Context, expenseID string) error {
	var deleted models.Expense
	err := s.run(ctx, "DeleteExpense", true, func(st *ledgerState) error {
		idx, err := st.expenseIndex(expenseID)
		if err != nil {
			return err
		}
		deleted = st.expenses[idx]

		if deleted.IsActual() {
			if budget, category, err := st.category(deleted.BudgetID, deleted.CategoryID); err == nil {
				category.SpentAmount = category.SpentAmount.Sub(deleted.Amount)
				budget.UpdatedAt = s.now()
				st.budgetsDirty = true
			}
		}

		st.expenses = append(st.expenses[:idx], st.expenses[idx+1:]...)
		st.expensesDirty = true
		return nil
	}, attribute.String("expense.id", expenseID))
	if err != nil {
		return err
	}

	logger.Get().Infow("Expense deleted", "expense_id", expenseID, "budget_id", deleted.BudgetID, "category_id", deleted.CategoryID)
	s.publish(ctx, events.ExpenseDeleted, deleted.BudgetID, expenseID)
	return nil
}
