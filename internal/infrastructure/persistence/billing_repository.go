package persistence

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindOpen returns posted, not fully paid customer invoices matching q,
// oldest first
func (r *GormInvoiceRepository) FindOpen(ctx context.Context, q billing.InvoiceQuery) ([]billing.Invoice, error) {
	query := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND move_type = ? AND state = ? AND payment_state IN ?",
			q.TenantID, billing.MoveTypeOutInvoice, billing.InvoiceStatePosted, billing.OpenPaymentStates())
	if q.InvoiceType != nil {
		query = query.Where("invoice_type = ?", *q.InvoiceType)
	}
	if q.AgreementID != nil {
		query = query.Where("agreement_id = ?", *q.AgreementID)
	}
	if q.PeriodFrom != nil && q.PeriodTo != nil {
		query = query.Where("period_from <= ? AND period_to >= ?", *q.PeriodTo, *q.PeriodFrom)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = billing.MatchLimit
	}

	var invoiceModels []models.InvoiceModel
	if err := query.
		Order("invoice_date ASC, created_at ASC").
		Limit(limit).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple invoices by their IDs
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]billing.Invoice, error) {
	if len(ids) == 0 {
		return []billing.Invoice{}, nil
	}
	var invoiceModels []models.InvoiceModel
	if err := dbFromContext(ctx, r.db).
		Where("id IN ?", ids).
		Order("invoice_date ASC, created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// FindAll finds all invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.InvoiceModel{})
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.AgreementID != nil {
		query = query.Where("agreement_id = ?", *filter.AgreementID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.PaymentState != nil {
		query = query.Where("payment_state = ?", *filter.PaymentState)
	}
	if filter.From != nil {
		query = query.Where("invoice_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("invoice_date <= ?", *filter.To)
	}
	query = search(query, filter.Search, "number", "description")

	var invoiceModels []models.InvoiceModel
	total, err := findPage(query, filter.Filter, invoiceSort, "invoice_date DESC, created_at DESC", &invoiceModels)
	if err != nil {
		return nil, 0, err
	}
	return toInvoices(invoiceModels), total, nil
}

// ExistsForAgreementBetween reports whether a non-cancelled invoice of the
// given type is dated within [from, to]
func (r *GormInvoiceRepository) ExistsForAgreementBetween(ctx context.Context, agreementID uuid.UUID, invoiceType billing.InvoiceType, from, to time.Time) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Where("agreement_id = ? AND invoice_type = ? AND state <> ?", agreementID, invoiceType, billing.InvoiceStateCancelled).
		Where("invoice_date >= ? AND invoice_date <= ?", from, to).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *billing.Invoice) error {
	if err := dbFromContext(ctx, r.db).Save(models.InvoiceModelFromDomain(inv)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Invoice number already exists")
		}
		return err
	}
	return nil
}

// DeleteByAgreement removes every invoice of an agreement
func (r *GormInvoiceRepository) DeleteByAgreement(ctx context.Context, agreementID uuid.UUID) (int64, error) {
	result := dbFromContext(ctx, r.db).Delete(&models.InvoiceModel{}, "agreement_id = ?", agreementID)
	return result.RowsAffected, result.Error
}

func toInvoices(invoiceModels []models.InvoiceModel) []billing.Invoice {
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices
}

// GormPaymentRepository implements billing.PaymentRepository using GORM.
// Allocations live in payment_allocations and load with the payment.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := dbFromContext(ctx, r.db).Preload("Allocations").First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCollection finds the payment registered for a collection
func (r *GormPaymentRepository) FindByCollection(ctx context.Context, collectionID uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := dbFromContext(ctx, r.db).
		Preload("Allocations").
		Where("collection_id = ?", collectionID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByTenant lists the payments of a tenant, oldest first
func (r *GormPaymentRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := dbFromContext(ctx, r.db).
		Preload("Allocations").
		Where("tenant_id = ?", tenantID).
		Order("date ASC, created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// Save creates or updates a payment and replaces its allocations
func (r *GormPaymentRepository) Save(ctx context.Context, p *billing.Payment) error {
	model := models.PaymentModelFromDomain(p)
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.NewDomainError("ALREADY_EXISTS", "A payment already exists for this number or collection")
			}
			return err
		}

		keep := make([]uuid.UUID, len(model.Allocations))
		for i, a := range model.Allocations {
			keep[i] = a.ID
		}
		stale := tx.Where("payment_id = ?", model.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.PaymentAllocationModel{}).Error; err != nil {
			return err
		}

		for i := range model.Allocations {
			if err := tx.Save(&model.Allocations[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteByCollections removes the payments of the given collections with their allocations
func (r *GormPaymentRepository) DeleteByCollections(ctx context.Context, collectionIDs []uuid.UUID) (int64, error) {
	if len(collectionIDs) == 0 {
		return 0, nil
	}
	var deleted int64
	err := dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.PaymentModel{}).
			Where("collection_id IN ?", collectionIDs).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("payment_id IN ?", ids).Delete(&models.PaymentAllocationModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.PaymentModel{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

var (
	_ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
	_ billing.PaymentRepository = (*GormPaymentRepository)(nil)
)
