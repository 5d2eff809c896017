package persistence

import (
	"context"
	"strings"

	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPropertyRepository implements PropertyRepository using GORM
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// FindByID finds a property by its ID
func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	var model models.PropertyModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a property by its code
func (r *GormPropertyRepository) FindByCode(ctx context.Context, code string) (*property.Property, error) {
	var model models.PropertyModel
	if err := dbFromContext(ctx, r.db).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all properties matching the filter
func (r *GormPropertyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]property.Property, int64, error) {
	query := search(dbFromContext(ctx, r.db).Model(&models.PropertyModel{}), filter.Search, "name", "code", "city")

	var propertyModels []models.PropertyModel
	total, err := findPage(query, filter, propertySort, "code ASC", &propertyModels)
	if err != nil {
		return nil, 0, err
	}

	properties := make([]property.Property, len(propertyModels))
	for i, model := range propertyModels {
		properties[i] = *model.ToDomain()
	}
	return properties, total, nil
}

// Save creates or updates a property
func (r *GormPropertyRepository) Save(ctx context.Context, p *property.Property) error {
	if err := dbFromContext(ctx, r.db).Save(models.PropertyModelFromDomain(p)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Property code already exists")
		}
		return err
	}
	return nil
}

// Delete deletes a property
func (r *GormPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Delete(&models.PropertyModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormFlatRepository implements FlatRepository using GORM
type GormFlatRepository struct {
	db *gorm.DB
}

// NewGormFlatRepository creates a new GormFlatRepository
func NewGormFlatRepository(db *gorm.DB) *GormFlatRepository {
	return &GormFlatRepository{db: db}
}

// FindByID finds a flat by its ID
func (r *GormFlatRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Flat, error) {
	var model models.FlatModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a flat by number inside a property
func (r *GormFlatRepository) FindByNumber(ctx context.Context, propertyID uuid.UUID, flatNumber string) (*property.Flat, error) {
	var model models.FlatModel
	if err := dbFromContext(ctx, r.db).
		Where("property_id = ? AND flat_number = ?", propertyID, strings.TrimSpace(flatNumber)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByProperty lists the flats of a property
func (r *GormFlatRepository) FindByProperty(ctx context.Context, propertyID uuid.UUID) ([]property.Flat, error) {
	var flatModels []models.FlatModel
	if err := dbFromContext(ctx, r.db).
		Where("property_id = ?", propertyID).
		Order("floor ASC, flat_number ASC").
		Find(&flatModels).Error; err != nil {
		return nil, err
	}

	flats := make([]property.Flat, len(flatModels))
	for i, model := range flatModels {
		flats[i] = *model.ToDomain()
	}
	return flats, nil
}

// Save creates or updates a flat
func (r *GormFlatRepository) Save(ctx context.Context, f *property.Flat) error {
	if err := dbFromContext(ctx, r.db).Save(models.FlatModelFromDomain(f)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Flat number already exists in this property")
		}
		return err
	}
	return nil
}

// Delete deletes a flat
func (r *GormFlatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Delete(&models.FlatModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormRoomTypeRepository implements RoomTypeRepository using GORM
type GormRoomTypeRepository struct {
	db *gorm.DB
}

// NewGormRoomTypeRepository creates a new GormRoomTypeRepository
func NewGormRoomTypeRepository(db *gorm.DB) *GormRoomTypeRepository {
	return &GormRoomTypeRepository{db: db}
}

// FindByID finds a room type by its ID
func (r *GormRoomTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.RoomType, error) {
	var model models.RoomTypeModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a room type by its code
func (r *GormRoomTypeRepository) FindByCode(ctx context.Context, code string) (*property.RoomType, error) {
	var model models.RoomTypeModel
	if err := dbFromContext(ctx, r.db).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists every room type
func (r *GormRoomTypeRepository) FindAll(ctx context.Context) ([]property.RoomType, error) {
	var typeModels []models.RoomTypeModel
	if err := dbFromContext(ctx, r.db).Order("code ASC").Find(&typeModels).Error; err != nil {
		return nil, err
	}

	types := make([]property.RoomType, len(typeModels))
	for i, model := range typeModels {
		types[i] = *model.ToDomain()
	}
	return types, nil
}

// Save creates or updates a room type
func (r *GormRoomTypeRepository) Save(ctx context.Context, rt *property.RoomType) error {
	if err := dbFromContext(ctx, r.db).Save(models.RoomTypeModelFromDomain(rt)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Room type code already exists")
		}
		return err
	}
	return nil
}

// GormRoomRepository implements RoomRepository using GORM
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GormRoomRepository
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// FindByID finds a room by its ID
func (r *GormRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Room, error) {
	var model models.RoomModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a room by number inside a flat
func (r *GormRoomRepository) FindByNumber(ctx context.Context, flatID uuid.UUID, roomNumber string) (*property.Room, error) {
	var model models.RoomModel
	if err := dbFromContext(ctx, r.db).
		Where("flat_id = ? AND room_number = ?", flatID, strings.TrimSpace(roomNumber)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all rooms matching the filter
func (r *GormRoomRepository) FindAll(ctx context.Context, filter property.RoomFilter) ([]property.Room, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.RoomModel{})
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.FlatID != nil {
		query = query.Where("flat_id = ?", *filter.FlatID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	query = search(query, filter.Search, "name", "room_number")

	var roomModels []models.RoomModel
	total, err := findPage(query, filter.Filter, roomSort, "name ASC", &roomModels)
	if err != nil {
		return nil, 0, err
	}

	rooms := make([]property.Room, len(roomModels))
	for i, model := range roomModels {
		rooms[i] = *model.ToDomain()
	}
	return rooms, total, nil
}

// Save creates or updates a room
func (r *GormRoomRepository) Save(ctx context.Context, room *property.Room) error {
	if err := dbFromContext(ctx, r.db).Save(models.RoomModelFromDomain(room)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Room number already exists in this flat")
		}
		return err
	}
	return nil
}

// Delete deletes a room
func (r *GormRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Delete(&models.RoomModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByStatus summarises rooms by occupancy status
func (r *GormRoomRepository) CountByStatus(ctx context.Context) (property.RoomCounts, error) {
	var rows []struct {
		Status property.RoomStatus
		Count  int64
	}
	if err := dbFromContext(ctx, r.db).
		Model(&models.RoomModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return property.RoomCounts{}, err
	}

	var counts property.RoomCounts
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case property.RoomStatusOccupied:
			counts.Occupied = row.Count
		case property.RoomStatusVacant:
			counts.Vacant = row.Count
		case property.RoomStatusBooked:
			counts.Booked = row.Count
		case property.RoomStatusMaintenance:
			counts.Maintenance = row.Count
		}
	}
	return counts, nil
}

// GormOtherChargeRepository implements OtherChargeRepository using GORM
type GormOtherChargeRepository struct {
	db *gorm.DB
}

// NewGormOtherChargeRepository creates a new GormOtherChargeRepository
func NewGormOtherChargeRepository(db *gorm.DB) *GormOtherChargeRepository {
	return &GormOtherChargeRepository{db: db}
}

// FindByID finds a charge by its ID
func (r *GormOtherChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.OtherCharge, error) {
	var model models.OtherChargeModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindActive lists the active charges
func (r *GormOtherChargeRepository) FindActive(ctx context.Context) ([]property.OtherCharge, error) {
	var chargeModels []models.OtherChargeModel
	if err := dbFromContext(ctx, r.db).
		Where("active = ?", true).
		Order("name ASC").
		Find(&chargeModels).Error; err != nil {
		return nil, err
	}

	charges := make([]property.OtherCharge, len(chargeModels))
	for i, model := range chargeModels {
		charges[i] = *model.ToDomain()
	}
	return charges, nil
}

// Save creates or updates a charge
func (r *GormOtherChargeRepository) Save(ctx context.Context, c *property.OtherCharge) error {
	return dbFromContext(ctx, r.db).Save(models.OtherChargeModelFromDomain(c)).Error
}

var (
	_ property.PropertyRepository    = (*GormPropertyRepository)(nil)
	_ property.FlatRepository        = (*GormFlatRepository)(nil)
	_ property.RoomTypeRepository    = (*GormRoomTypeRepository)(nil)
	_ property.RoomRepository        = (*GormRoomRepository)(nil)
	_ property.OtherChargeRepository = (*GormOtherChargeRepository)(nil)
)
