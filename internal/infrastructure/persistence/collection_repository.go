package persistence

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCollectionRepository implements collection.Repository using GORM
type GormCollectionRepository struct {
	db *gorm.DB
}

// NewGormCollectionRepository creates a new GormCollectionRepository
func NewGormCollectionRepository(db *gorm.DB) *GormCollectionRepository {
	return &GormCollectionRepository{db: db}
}

// FindByID finds a collection by its ID
func (r *GormCollectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*collection.Collection, error) {
	var model models.CollectionModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all collections matching the filter
func (r *GormCollectionRepository) FindAll(ctx context.Context, filter collection.Filter) ([]collection.Collection, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.CollectionModel{})
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.AgreementID != nil {
		query = query.Where("agreement_id = ?", *filter.AgreementID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	query = search(query, filter.Search, "name", "receipt_number", "reference")

	var collectionModels []models.CollectionModel
	total, err := findPage(query, filter.Filter, collectionSort, "date DESC, created_at DESC", &collectionModels)
	if err != nil {
		return nil, 0, err
	}
	return toCollections(collectionModels), total, nil
}

// FindPaidByTenants returns paid collections of the given tenants
func (r *GormCollectionRepository) FindPaidByTenants(ctx context.Context, tenantIDs []uuid.UUID) ([]collection.Collection, error) {
	if len(tenantIDs) == 0 {
		return []collection.Collection{}, nil
	}
	var collectionModels []models.CollectionModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id IN ? AND status IN ?", tenantIDs, collection.PaidStatuses()).
		Order("date ASC, created_at ASC").
		Find(&collectionModels).Error; err != nil {
		return nil, err
	}
	return toCollections(collectionModels), nil
}

// FindPaidByTenant returns paid collections of one tenant
func (r *GormCollectionRepository) FindPaidByTenant(ctx context.Context, tenantID uuid.UUID) ([]collection.Collection, error) {
	return r.FindPaidByTenants(ctx, []uuid.UUID{tenantID})
}

// FindPaidWithoutStatement returns paid collections that have no ledger entry
func (r *GormCollectionRepository) FindPaidWithoutStatement(ctx context.Context) ([]collection.Collection, error) {
	var collectionModels []models.CollectionModel
	if err := dbFromContext(ctx, r.db).
		Where("status IN ?", collection.PaidStatuses()).
		Where("NOT EXISTS (SELECT 1 FROM tenant_statements s WHERE s.collection_id = collections.id)").
		Order("date ASC, created_at ASC").
		Find(&collectionModels).Error; err != nil {
		return nil, err
	}
	return toCollections(collectionModels), nil
}

// FindByAgreement lists collections linked to an agreement
func (r *GormCollectionRepository) FindByAgreement(ctx context.Context, agreementID uuid.UUID) ([]collection.Collection, error) {
	var collectionModels []models.CollectionModel
	if err := dbFromContext(ctx, r.db).
		Where("agreement_id = ?", agreementID).
		Order("date ASC, created_at ASC").
		Find(&collectionModels).Error; err != nil {
		return nil, err
	}
	return toCollections(collectionModels), nil
}

// FindRecent lists the newest collections
func (r *GormCollectionRepository) FindRecent(ctx context.Context, limit int) ([]collection.Collection, error) {
	if limit <= 0 {
		limit = 10
	}
	var collectionModels []models.CollectionModel
	if err := dbFromContext(ctx, r.db).
		Order("date DESC, created_at DESC").
		Limit(limit).
		Find(&collectionModels).Error; err != nil {
		return nil, err
	}
	return toCollections(collectionModels), nil
}

// SumBetween totals non-cancelled collections dated in [from, to]
func (r *GormCollectionRepository) SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := dbFromContext(ctx, r.db).
		Model(&models.CollectionModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("status <> ? AND date >= ? AND date <= ?", collection.StatusCancelled, from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates a collection
func (r *GormCollectionRepository) Save(ctx context.Context, c *collection.Collection) error {
	if err := dbFromContext(ctx, r.db).Save(models.CollectionModelFromDomain(c)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Receipt number already exists")
		}
		return err
	}
	return nil
}

// Delete deletes a collection
func (r *GormCollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Delete(&models.CollectionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toCollections(collectionModels []models.CollectionModel) []collection.Collection {
	collections := make([]collection.Collection, len(collectionModels))
	for i := range collectionModels {
		collections[i] = *collectionModels[i].ToDomain()
	}
	return collections
}

// Ensure GormCollectionRepository implements collection.Repository
var _ collection.Repository = (*GormCollectionRepository)(nil)
