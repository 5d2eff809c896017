package catalog

import (
	"context"
	"errors"

	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PropertyService handles properties and their flats
type PropertyService struct {
	propertyRepo property.PropertyRepository
	flatRepo     property.FlatRepository
	roomRepo     property.RoomRepository
	logger       *zap.Logger
}

// NewPropertyService creates a new PropertyService
func NewPropertyService(
	propertyRepo property.PropertyRepository,
	flatRepo property.FlatRepository,
	roomRepo property.RoomRepository,
	logger *zap.Logger,
) *PropertyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyService{
		propertyRepo: propertyRepo,
		flatRepo:     flatRepo,
		roomRepo:     roomRepo,
		logger:       logger,
	}
}

// Create creates a new property
func (s *PropertyService) Create(ctx context.Context, req CreatePropertyRequest) (*PropertyResponse, error) {
	// Codes are unique across the catalog
	_, err := s.propertyRepo.FindByCode(ctx, req.Code)
	if err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Property with this code already exists")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	p, err := property.NewProperty(req.Code, req.Name, property.PropertyType(req.Type))
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, req.Address, req.City, req.ManagerName, req.Notes); err != nil {
		return nil, err
	}
	if err := s.propertyRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("property created", zap.String("property_id", p.ID.String()), zap.String("code", p.Code))
	resp := ToPropertyResponse(p)
	return &resp, nil
}

// GetByID retrieves a property by ID
func (s *PropertyService) GetByID(ctx context.Context, id uuid.UUID) (*PropertyResponse, error) {
	p, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPropertyResponse(p)
	return &resp, nil
}

// List returns a page of properties
func (s *PropertyService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[PropertyResponse], error) {
	properties, total, err := s.propertyRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[PropertyResponse]{}, err
	}
	items := make([]PropertyResponse, len(properties))
	for i := range properties {
		items[i] = ToPropertyResponse(&properties[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update updates a property's descriptive fields and state
func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, req UpdatePropertyRequest) (*PropertyResponse, error) {
	p, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, req.Address, req.City, req.ManagerName, req.Notes); err != nil {
		return nil, err
	}
	if req.State != "" {
		if err := p.SetState(property.PropertyState(req.State)); err != nil {
			return nil, err
		}
	}
	if err := s.propertyRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPropertyResponse(p)
	return &resp, nil
}

// Delete deletes a property that has no flats
func (s *PropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.propertyRepo.FindByID(ctx, id); err != nil {
		return err
	}
	flats, err := s.flatRepo.FindByProperty(ctx, id)
	if err != nil {
		return err
	}
	if len(flats) > 0 {
		return shared.Errorf("HAS_FLATS", "Property still has %d flats", len(flats))
	}
	return s.propertyRepo.Delete(ctx, id)
}

// CreateFlat adds a flat to a property. Flat numbers are unique per property.
func (s *PropertyService) CreateFlat(ctx context.Context, propertyID uuid.UUID, req CreateFlatRequest) (*FlatResponse, error) {
	if _, err := s.propertyRepo.FindByID(ctx, propertyID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_PROPERTY", "Property not found")
		}
		return nil, err
	}
	_, err := s.flatRepo.FindByNumber(ctx, propertyID, req.FlatNumber)
	if err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Flat with this number already exists in the property")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	f, err := property.NewFlat(propertyID, req.FlatNumber, req.Floor)
	if err != nil {
		return nil, err
	}
	f.FlatType = req.FlatType
	if req.ParkingCharges != nil || req.ParkingDeposit != nil {
		charges, deposit := f.ParkingCharges, f.ParkingDeposit
		if req.ParkingCharges != nil {
			charges = *req.ParkingCharges
		}
		if req.ParkingDeposit != nil {
			deposit = *req.ParkingDeposit
		}
		if err := f.SetParking(charges, deposit); err != nil {
			return nil, err
		}
	}
	if err := s.flatRepo.Save(ctx, f); err != nil {
		return nil, err
	}
	resp := ToFlatResponse(f)
	return &resp, nil
}

// ListFlats lists the flats of a property
func (s *PropertyService) ListFlats(ctx context.Context, propertyID uuid.UUID) ([]FlatResponse, error) {
	flats, err := s.flatRepo.FindByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	items := make([]FlatResponse, len(flats))
	for i := range flats {
		items[i] = ToFlatResponse(&flats[i])
	}
	return items, nil
}

// DeleteFlat deletes a flat that has no rooms
func (s *PropertyService) DeleteFlat(ctx context.Context, id uuid.UUID) error {
	f, err := s.flatRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	_, total, err := s.roomRepo.FindAll(ctx, property.RoomFilter{
		Filter: shared.Filter{Page: 1, PageSize: 1},
		FlatID: &f.ID,
	})
	if err != nil {
		return err
	}
	if total > 0 {
		return shared.Errorf("HAS_ROOMS", "Flat %s still has %d rooms", f.FlatNumber, total)
	}
	return s.flatRepo.Delete(ctx, id)
}
