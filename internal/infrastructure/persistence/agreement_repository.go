package persistence

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAgreementRepository implements agreement.Repository using GORM.
// Charges are stored in agreement_charges and loaded with the agreement.
type GormAgreementRepository struct {
	db *gorm.DB
}

// NewGormAgreementRepository creates a new GormAgreementRepository
func NewGormAgreementRepository(db *gorm.DB) *GormAgreementRepository {
	return &GormAgreementRepository{db: db}
}

func (r *GormAgreementRepository) query(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).Model(&models.AgreementModel{}).Preload("Charges")
}

func (r *GormAgreementRepository) filtered(ctx context.Context, filter agreement.Filter) *gorm.DB {
	query := dbFromContext(ctx, r.db).Model(&models.AgreementModel{})
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.RoomID != nil {
		query = query.Where("room_id = ?", *filter.RoomID)
	}
	if len(filter.States) > 0 {
		query = query.Where("state IN ?", filter.States)
	}
	return search(query, filter.Search, "number")
}

// FindByID finds an agreement by its ID
func (r *GormAgreementRepository) FindByID(ctx context.Context, id uuid.UUID) (*agreement.Agreement, error) {
	var model models.AgreementModel
	if err := r.query(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all agreements matching the filter
func (r *GormAgreementRepository) FindAll(ctx context.Context, filter agreement.Filter) ([]agreement.Agreement, int64, error) {
	var agreementModels []models.AgreementModel
	total, err := findPage(r.filtered(ctx, filter), filter.Filter, agreementSort, "start_date DESC", &agreementModels, "Charges")
	if err != nil {
		return nil, 0, err
	}
	return toAgreements(agreementModels), total, nil
}

// FindByState lists agreements in any of the given states
func (r *GormAgreementRepository) FindByState(ctx context.Context, states ...agreement.State) ([]agreement.Agreement, error) {
	var agreementModels []models.AgreementModel
	if err := r.query(ctx).
		Where("state IN ?", states).
		Order("start_date ASC, id ASC").
		Find(&agreementModels).Error; err != nil {
		return nil, err
	}
	return toAgreements(agreementModels), nil
}

// FindOverlapping returns draft or active agreements on the room whose
// range intersects [start, end)
func (r *GormAgreementRepository) FindOverlapping(ctx context.Context, roomID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]agreement.Agreement, error) {
	var agreementModels []models.AgreementModel
	if err := r.query(ctx).
		Where("room_id = ? AND id <> ? AND state IN ?", roomID, excludeID,
			[]agreement.State{agreement.StateDraft, agreement.StateActive}).
		Where("start_date < ? AND end_date > ?", end, start).
		Order("start_date ASC").
		Find(&agreementModels).Error; err != nil {
		return nil, err
	}
	return toAgreements(agreementModels), nil
}

// FindLatestForTenant returns the tenant's most recent non-cancelled agreement
func (r *GormAgreementRepository) FindLatestForTenant(ctx context.Context, tenantID uuid.UUID) (*agreement.Agreement, error) {
	var model models.AgreementModel
	if err := r.query(ctx).
		Where("tenant_id = ? AND state <> ?", tenantID, agreement.StateCancelled).
		Order("start_date DESC, created_at DESC").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindActiveForTenant returns the tenant's active agreement with the latest
// start date
func (r *GormAgreementRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) (*agreement.Agreement, error) {
	var model models.AgreementModel
	if err := r.query(ctx).
		Where("tenant_id = ? AND state = ?", tenantID, agreement.StateActive).
		Order("start_date DESC, created_at DESC").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindExpiring lists active agreements ending on or before until
func (r *GormAgreementRepository) FindExpiring(ctx context.Context, until time.Time) ([]agreement.Agreement, error) {
	var agreementModels []models.AgreementModel
	if err := r.query(ctx).
		Where("state = ? AND end_date <= ?", agreement.StateActive, until).
		Order("end_date ASC").
		Find(&agreementModels).Error; err != nil {
		return nil, err
	}
	return toAgreements(agreementModels), nil
}

// AgentStats aggregates active agreements per agent, busiest first
func (r *GormAgreementRepository) AgentStats(ctx context.Context, limit int) ([]agreement.AgentStat, error) {
	var rows []struct {
		AgentID     uuid.UUID
		TenantCount int64
		TotalRent   decimal.Decimal
	}
	query := dbFromContext(ctx, r.db).
		Model(&models.AgreementModel{}).
		Select("agent_id, COUNT(DISTINCT tenant_id) AS tenant_count, COALESCE(SUM(rent_amount), 0) AS total_rent").
		Where("agent_id IS NOT NULL AND state = ?", agreement.StateActive).
		Group("agent_id").
		Order("tenant_count DESC, total_rent DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := make([]agreement.AgentStat, len(rows))
	for i, row := range rows {
		stats[i] = agreement.AgentStat{AgentID: row.AgentID, TenantCount: row.TenantCount, TotalRent: row.TotalRent}
	}
	return stats, nil
}

// Save creates or updates an agreement and replaces its charge lines
func (r *GormAgreementRepository) Save(ctx context.Context, a *agreement.Agreement) error {
	model := models.AgreementModelFromDomain(a)
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.NewDomainError("ALREADY_EXISTS", "Agreement number already exists")
			}
			return err
		}

		// Delete charge lines no longer attached
		keep := make([]uuid.UUID, len(model.Charges))
		for i, c := range model.Charges {
			keep[i] = c.ID
		}
		stale := tx.Where("agreement_id = ?", model.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.AgreementChargeModel{}).Error; err != nil {
			return err
		}

		for i := range model.Charges {
			if err := tx.Save(&model.Charges[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes an agreement with its charge lines
func (r *GormAgreementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("agreement_id = ?", id).Delete(&models.AgreementChargeModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.AgreementModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func toAgreements(agreementModels []models.AgreementModel) []agreement.Agreement {
	agreements := make([]agreement.Agreement, len(agreementModels))
	for i := range agreementModels {
		agreements[i] = *agreementModels[i].ToDomain()
	}
	return agreements
}

// Ensure GormAgreementRepository implements agreement.Repository
var _ agreement.Repository = (*GormAgreementRepository)(nil)
