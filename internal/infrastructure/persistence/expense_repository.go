package persistence

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/finance"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all expenses matching the filter
func (r *GormExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.ExpenseModel{})
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	query = search(query, filter.Search, "description")

	var expenseModels []models.ExpenseModel
	total, err := findPage(query, filter.Filter, expenseSort, "date DESC, created_at DESC", &expenseModels)
	if err != nil {
		return nil, 0, err
	}

	expenses := make([]finance.Expense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = *expenseModels[i].ToDomain()
	}
	return expenses, total, nil
}

// SumBetween totals recorded expenses dated within [from, to]
func (r *GormExpenseRepository) SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := dbFromContext(ctx, r.db).
		Model(&models.ExpenseModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("status = ? AND date >= ? AND date <= ?", finance.ExpenseStatusRecorded, from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, e *finance.Expense) error {
	return dbFromContext(ctx, r.db).Save(models.ExpenseModelFromDomain(e)).Error
}

// Ensure GormExpenseRepository implements finance.ExpenseRepository
var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
