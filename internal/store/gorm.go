package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripbudget/internal/models"
)

const insertBatchSize = 200

// Gorm persists both collections in a relational database. Its unit of work
// is a real database transaction, so the budget and expense writes commit or
// roll back together.
type Gorm struct {
	db *gorm.DB
}

// NewGorm creates a store on top of an open GORM connection.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Models lists the tables the store needs, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&models.Budget{},
		&models.BudgetCategory{},
		&models.Expense{},
		&models.AuditLog{},
	}
}

// Budgets returns the budget store bound to this connection.
func (g *Gorm) Budgets() BudgetStore {
	return gormBudgets{db: g.db}
}

// Expenses returns the expense store bound to this connection.
func (g *Gorm) Expenses() ExpenseStore {
	return gormExpenses{db: g.db}
}

// Atomically runs fn inside a database transaction.
func (g *Gorm) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

type gormBudgets struct {
	db *gorm.DB
}

func (s gormBudgets) LoadAll(ctx context.Context) ([]models.Budget, error) {
	var budgets []models.Budget
	err := s.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at ASC, id ASC").
		Find(&budgets).Error
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	for i := range budgets {
		if budgets[i].Categories == nil {
			budgets[i].Categories = []models.BudgetCategory{}
		}
	}
	return budgets, nil
}

// SaveAll replaces the whole budget collection, categories included.
func (s gormBudgets) SaveAll(ctx context.Context, budgets []models.Budget) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.BudgetCategory{}).Error; err != nil {
			return fmt.Errorf("clear budget categories: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.Budget{}).Error; err != nil {
			return fmt.Errorf("clear budgets: %w", err)
		}
		if len(budgets) == 0 {
			return nil
		}

		rows := make([]models.Budget, len(budgets))
		var categories []models.BudgetCategory
		for i := range budgets {
			rows[i] = budgets[i].Clone()
			for pos, cat := range rows[i].Categories {
				cat.BudgetID = rows[i].ID
				cat.Position = pos
				categories = append(categories, cat)
			}
			rows[i].Categories = nil
		}

		if err := tx.Omit(clause.Associations).CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert budgets: %w", err)
		}
		if len(categories) > 0 {
			if err := tx.CreateInBatches(categories, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert budget categories: %w", err)
			}
		}
		return nil
	})
}

type gormExpenses struct {
	db *gorm.DB
}

func (s gormExpenses) LoadAll(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return expenses, nil
}

// SaveAll replaces the whole expense collection.
func (s gormExpenses) SaveAll(ctx context.Context, expenses []models.Expense) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Expense{}).Error; err != nil {
			return fmt.Errorf("clear expenses: %w", err)
		}
		if len(expenses) == 0 {
			return nil
		}

		rows := make([]models.Expense, len(expenses))
		for i := range expenses {
			rows[i] = expenses[i].Clone()
		}
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert expenses: %w", err)
		}
		return nil
	})
}
