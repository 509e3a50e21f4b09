package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tripbudget/internal/analytics"
	apperrors "tripbudget/internal/errors"
	"tripbudget/internal/export"
	"tripbudget/internal/metrics"
	"tripbudget/internal/models"
	"tripbudget/internal/store"

	"github.com/xuri/excelize/v2"
)

var analyticsTracer = otel.Tracer("services/analytics")

// analyticsService builds read-only reports from a consistent snapshot of
// both stores.
type analyticsService struct {
	uow     store.UnitOfWork
	metrics *metrics.Metrics
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(uow store.UnitOfWork, m *metrics.Metrics) AnalyticsServicer {
	return &analyticsService{uow: uow, metrics: m}
}

// snapshot loads one budget and every expense in a single unit of work.
func (s *analyticsService) snapshot(ctx context.Context, operation, budgetID string) (*models.Budget, []models.Expense, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("budget.id", budgetID))

	start := time.Now()
	var budget *models.Budget
	var expenses []models.Expense
	err := s.uow.Atomically(ctx, func(tx store.Tx) error {
		budgets, err := tx.Budgets().LoadAll(ctx)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range budgets {
			if budgets[i].ID == budgetID {
				budget = &budgets[i]
				break
			}
		}
		if budget == nil {
			return apperrors.ErrBudgetNotFound
		}
		all, err := tx.Expenses().LoadAll(ctx)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		expenses = analytics.ForBudget(budgetID, all)
		return nil
	})
	s.metrics.ObserveOperation(operation, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		if !isAppError(err) {
			err = apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, nil, err
	}
	return budget, expenses, nil
}

// BudgetSummary returns the dashboard view of one budget.
func (s *analyticsService) BudgetSummary(ctx context.Context, budgetID string) (*analytics.Summary, error) {
	budget, expenses, err := s.snapshot(ctx, "BudgetSummary", budgetID)
	if err != nil {
		return nil, err
	}
	summary := analytics.Summarize(*budget, expenses)
	return &summary, nil
}

// BudgetWorkbook renders one budget as an Excel workbook. The caller must
// Close the returned file.
func (s *analyticsService) BudgetWorkbook(ctx context.Context, budgetID string) (*excelize.File, error) {
	budget, expenses, err := s.snapshot(ctx, "BudgetWorkbook", budgetID)
	if err != nil {
		return nil, err
	}
	f, err := export.BudgetWorkbook(*budget, expenses)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return f, nil
}
