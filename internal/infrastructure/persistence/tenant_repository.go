package persistence

import (
	"context"
	"strings"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTenantRepository implements tenant.Repository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var model models.TenantModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByMobile finds a tenant by mobile number
func (r *GormTenantRepository) FindByMobile(ctx context.Context, mobile string) (*tenant.Tenant, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, shared.NewDomainError("INVALID_MOBILE", "Mobile number cannot be empty")
	}
	var model models.TenantModel
	if err := dbFromContext(ctx, r.db).Where("mobile = ?", mobile).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDPassport finds a tenant by ID or passport number
func (r *GormTenantRepository) FindByIDPassport(ctx context.Context, idPassport string) (*tenant.Tenant, error) {
	idPassport = strings.TrimSpace(idPassport)
	if idPassport == "" {
		return nil, shared.ErrNotFound
	}
	var model models.TenantModel
	if err := dbFromContext(ctx, r.db).Where("id_passport = ?", idPassport).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all tenants matching the filter
func (r *GormTenantRepository) FindAll(ctx context.Context, filter tenant.Filter) ([]tenant.Tenant, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.TenantModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	query = search(query, filter.Search, "name", "mobile", "email", "id_passport")

	var tenantModels []models.TenantModel
	total, err := findPage(query, filter.Filter, tenantSort, "name ASC", &tenantModels)
	if err != nil {
		return nil, 0, err
	}

	tenants := make([]tenant.Tenant, len(tenantModels))
	for i, model := range tenantModels {
		tenants[i] = *model.ToDomain()
	}
	return tenants, total, nil
}

// FindIDs lists the IDs of every tenant
func (r *GormTenantRepository) FindIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbFromContext(ctx, r.db).
		Model(&models.TenantModel{}).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindByIDs finds multiple tenants by their IDs
func (r *GormTenantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]tenant.Tenant, error) {
	if len(ids) == 0 {
		return []tenant.Tenant{}, nil
	}

	var tenantModels []models.TenantModel
	if err := dbFromContext(ctx, r.db).Where("id IN ?", ids).Find(&tenantModels).Error; err != nil {
		return nil, err
	}

	tenants := make([]tenant.Tenant, len(tenantModels))
	for i, model := range tenantModels {
		tenants[i] = *model.ToDomain()
	}
	return tenants, nil
}

// CountByStatus counts tenants in a status
func (r *GormTenantRepository) CountByStatus(ctx context.Context, status tenant.Status) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.TenantModel{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	if err := dbFromContext(ctx, r.db).Save(models.TenantModelFromDomain(t)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "A tenant with this mobile or ID/passport already exists")
		}
		return err
	}
	return nil
}

// Delete deletes a tenant
func (r *GormTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Delete(&models.TenantModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormOccupantRepository implements tenant.OccupantRepository using GORM
type GormOccupantRepository struct {
	db *gorm.DB
}

// NewGormOccupantRepository creates a new GormOccupantRepository
func NewGormOccupantRepository(db *gorm.DB) *GormOccupantRepository {
	return &GormOccupantRepository{db: db}
}

// FindByAgreement lists the occupants of an agreement, primary first
func (r *GormOccupantRepository) FindByAgreement(ctx context.Context, agreementID uuid.UUID) ([]tenant.Occupant, error) {
	var occupantModels []models.OccupantModel
	if err := dbFromContext(ctx, r.db).
		Where("agreement_id = ?", agreementID).
		Order("is_primary DESC, name ASC").
		Find(&occupantModels).Error; err != nil {
		return nil, err
	}

	occupants := make([]tenant.Occupant, len(occupantModels))
	for i, model := range occupantModels {
		occupants[i] = *model.ToDomain()
	}
	return occupants, nil
}

// FindByIDPassport finds an occupant by ID or passport number
func (r *GormOccupantRepository) FindByIDPassport(ctx context.Context, idPassport string) (*tenant.Occupant, error) {
	idPassport = strings.TrimSpace(idPassport)
	if idPassport == "" {
		return nil, shared.ErrNotFound
	}
	var model models.OccupantModel
	if err := dbFromContext(ctx, r.db).Where("id_passport = ?", idPassport).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates an occupant
func (r *GormOccupantRepository) Save(ctx context.Context, o *tenant.Occupant) error {
	if err := dbFromContext(ctx, r.db).Save(models.OccupantModelFromDomain(o)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "An occupant with this ID/passport already exists")
		}
		return err
	}
	return nil
}

// Delete deletes an occupant
func (r *GormOccupantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Delete(&models.OccupantModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormAgentRepository implements tenant.AgentRepository using GORM
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GormAgentRepository
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// FindByID finds an agent by its ID
func (r *GormAgentRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Agent, error) {
	var model models.AgentModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists every agent
func (r *GormAgentRepository) FindAll(ctx context.Context) ([]tenant.Agent, error) {
	var agentModels []models.AgentModel
	if err := dbFromContext(ctx, r.db).Order("name ASC").Find(&agentModels).Error; err != nil {
		return nil, err
	}

	agents := make([]tenant.Agent, len(agentModels))
	for i, model := range agentModels {
		agents[i] = *model.ToDomain()
	}
	return agents, nil
}

// Save creates or updates an agent
func (r *GormAgentRepository) Save(ctx context.Context, a *tenant.Agent) error {
	return dbFromContext(ctx, r.db).Save(models.AgentModelFromDomain(a)).Error
}

var (
	_ tenant.Repository         = (*GormTenantRepository)(nil)
	_ tenant.OccupantRepository = (*GormOccupantRepository)(nil)
	_ tenant.AgentRepository    = (*GormAgentRepository)(nil)
)
