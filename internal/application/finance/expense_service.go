package finance

import (
	"context"
	"errors"
	"time"

	"github.com/erp/rental/internal/domain/finance"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	PropertyID  *uuid.UUID      `json:"property_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateExpenseRequest represents a request to record an expense
type CreateExpenseRequest struct {
	Date        time.Time       `json:"date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Category    string          `json:"category" binding:"omitempty,oneof=maintenance utilities salary cleaning insurance tax commission other"`
	PropertyID  *uuid.UUID      `json:"property_id"`
	Description string          `json:"description" binding:"max=500"`
}

// ExpenseListFilter defines filtering options for expense list queries
type ExpenseListFilter struct {
	Search     string     `form:"search"`
	PropertyID *uuid.UUID `form:"-"`
	Category   string     `form:"category"`
	FromDate   *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"min=0"`
	PageSize   int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToExpenseResponse converts a domain expense
func ToExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    string(e.Category),
		PropertyID:  e.PropertyID,
		Description: e.Description,
		Status:      string(e.Status),
		CancelledAt: e.CancelledAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ExpenseService records the operating expenses netted against collections
type ExpenseService struct {
	expenseRepo  finance.ExpenseRepository
	propertyRepo property.PropertyRepository
	logger       *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo finance.ExpenseRepository,
	propertyRepo property.PropertyRepository,
	logger *zap.Logger,
) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		propertyRepo: propertyRepo,
		logger:       logger,
	}
}

// Create records an expense, optionally against a property
func (s *ExpenseService) Create(ctx context.Context, req CreateExpenseRequest) (*ExpenseResponse, error) {
	if req.PropertyID != nil {
		if _, err := s.propertyRepo.FindByID(ctx, *req.PropertyID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PROPERTY", "Property not found")
			}
			return nil, err
		}
	}

	e, err := finance.NewExpense(req.Date, req.Amount, finance.ExpenseCategory(req.Category), req.PropertyID, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Save(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("expense recorded",
		zap.String("expense_id", e.ID.String()),
		zap.String("category", string(e.Category)),
		zap.String("amount", e.Amount.String()),
	)
	resp := ToExpenseResponse(e)
	return &resp, nil
}

// GetByID returns an expense
func (s *ExpenseService) GetByID(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	e, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(e)
	return &resp, nil
}

// List returns expenses, newest first by default
func (s *ExpenseService) List(ctx context.Context, f ExpenseListFilter) (shared.Paginated[ExpenseResponse], error) {
	filter := finance.ExpenseFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		PropertyID: f.PropertyID,
		From:       f.FromDate,
		To:         f.ToDate,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if f.Category != "" {
		c := finance.ExpenseCategory(f.Category)
		filter.Category = &c
	}

	expenses, total, err := s.expenseRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ExpenseResponse]{}, err
	}
	items := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		items[i] = ToExpenseResponse(&expenses[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Cancel voids an expense
func (s *ExpenseService) Cancel(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	e, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.Cancel(); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Save(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("expense cancelled", zap.String("expense_id", e.ID.String()))
	resp := ToExpenseResponse(e)
	return &resp, nil
}

// MonthTotal sums recorded expenses in the calendar month of the date
func (s *ExpenseService) MonthTotal(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	return s.expenseRepo.SumBetween(ctx, calendar.MonthStart(day), calendar.MonthEnd(day))
}
