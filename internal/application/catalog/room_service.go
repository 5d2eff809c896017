package catalog

import (
	"context"
	"errors"

	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// RoomService handles room types, rooms and catalog charges
type RoomService struct {
	propertyRepo property.PropertyRepository
	flatRepo     property.FlatRepository
	roomTypeRepo property.RoomTypeRepository
	roomRepo     property.RoomRepository
	chargeRepo   property.OtherChargeRepository
}

// NewRoomService creates a new RoomService
func NewRoomService(
	propertyRepo property.PropertyRepository,
	flatRepo property.FlatRepository,
	roomTypeRepo property.RoomTypeRepository,
	roomRepo property.RoomRepository,
	chargeRepo property.OtherChargeRepository,
) *RoomService {
	return &RoomService{
		propertyRepo: propertyRepo,
		flatRepo:     flatRepo,
		roomTypeRepo: roomTypeRepo,
		roomRepo:     roomRepo,
		chargeRepo:   chargeRepo,
	}
}

// CreateRoomType creates a room type with a unique code
func (s *RoomService) CreateRoomType(ctx context.Context, req CreateRoomTypeRequest) (*RoomTypeResponse, error) {
	_, err := s.roomTypeRepo.FindByCode(ctx, req.Code)
	if err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Room type with this code already exists")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	rt, err := property.NewRoomType(req.Code, req.Name, req.DefaultRent, req.DefaultDeposit)
	if err != nil {
		return nil, err
	}
	rt.Description = req.Description
	if err := s.roomTypeRepo.Save(ctx, rt); err != nil {
		return nil, err
	}
	resp := ToRoomTypeResponse(rt)
	return &resp, nil
}

// ListRoomTypes lists every room type
func (s *RoomService) ListRoomTypes(ctx context.Context) ([]RoomTypeResponse, error) {
	types, err := s.roomTypeRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]RoomTypeResponse, len(types))
	for i := range types {
		items[i] = ToRoomTypeResponse(&types[i])
	}
	return items, nil
}

// Create creates a room. The property comes from the flat, and amounts left
// at zero are taken from the room type and the flat.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*RoomResponse, error) {
	flat, err := s.flatRepo.FindByID(ctx, req.FlatID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_FLAT", "Flat not found")
		}
		return nil, err
	}
	prop, err := s.propertyRepo.FindByID(ctx, flat.PropertyID)
	if err != nil {
		return nil, err
	}

	var roomType *property.RoomType
	if req.RoomTypeID != nil {
		roomType, err = s.roomTypeRepo.FindByID(ctx, *req.RoomTypeID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_ROOM_TYPE", "Room type not found")
			}
			return nil, err
		}
	}

	_, err = s.roomRepo.FindByNumber(ctx, flat.ID, req.RoomNumber)
	if err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Room with this number already exists in the flat")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	room, err := property.NewRoom(prop, flat, roomType, req.RoomNumber, property.RoomPricing{
		Rent:           req.RentAmount,
		Deposit:        req.DepositAmount,
		ParkingCharges: req.ParkingCharges,
		ParkingDeposit: req.ParkingDeposit,
	})
	if err != nil {
		return nil, err
	}
	room.Notes = req.Notes
	if err := s.roomRepo.Save(ctx, room); err != nil {
		return nil, err
	}
	resp := ToRoomResponse(room)
	return &resp, nil
}

// GetByID retrieves a room by ID
func (s *RoomService) GetByID(ctx context.Context, id uuid.UUID) (*RoomResponse, error) {
	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRoomResponse(room)
	return &resp, nil
}

// List returns a page of rooms
func (s *RoomService) List(ctx context.Context, f RoomListFilter) (shared.Paginated[RoomResponse], error) {
	filter := property.RoomFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		PropertyID: f.PropertyID,
		FlatID:     f.FlatID,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if f.Status != "" {
		status := property.RoomStatus(f.Status)
		filter.Status = &status
	}

	rooms, total, err := s.roomRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[RoomResponse]{}, err
	}
	items := make([]RoomResponse, len(rooms))
	for i := range rooms {
		items[i] = ToRoomResponse(&rooms[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdatePricing changes a room's amounts
func (s *RoomService) UpdatePricing(ctx context.Context, id uuid.UUID, req UpdateRoomPricingRequest) (*RoomResponse, error) {
	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := room.UpdatePricing(property.RoomPricing{
		Rent:           req.RentAmount,
		Deposit:        req.DepositAmount,
		ParkingCharges: req.ParkingCharges,
		ParkingDeposit: req.ParkingDeposit,
	}); err != nil {
		return nil, err
	}
	if err := s.roomRepo.Save(ctx, room); err != nil {
		return nil, err
	}
	resp := ToRoomResponse(room)
	return &resp, nil
}

// ChangeStatus applies a manual status action. Occupying a room only
// happens through agreement activation.
func (s *RoomService) ChangeStatus(ctx context.Context, id uuid.UUID, action RoomAction) (*RoomResponse, error) {
	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch action {
	case RoomActionBook:
		err = room.Book()
	case RoomActionVacate:
		if room.IsOccupied() {
			err = shared.NewDomainError("INVALID_STATE", "An occupied room is vacated by ending its agreement")
		} else {
			room.Vacate()
		}
	case RoomActionMaintenance:
		err = room.StartMaintenance()
	default:
		err = shared.Errorf("INVALID_ACTION", "Unknown room action %q", action)
	}
	if err != nil {
		return nil, err
	}
	if err := s.roomRepo.Save(ctx, room); err != nil {
		return nil, err
	}
	resp := ToRoomResponse(room)
	return &resp, nil
}

// Delete deletes a room that is not occupied
func (s *RoomService) Delete(ctx context.Context, id uuid.UUID) error {
	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if room.IsOccupied() {
		return shared.Errorf("ROOM_OCCUPIED", "Room %s is occupied", room.Name)
	}
	return s.roomRepo.Delete(ctx, id)
}

// CreateCharge adds a charge to the catalog
func (s *RoomService) CreateCharge(ctx context.Context, req CreateOtherChargeRequest) (*OtherChargeResponse, error) {
	c, err := property.NewOtherCharge(req.Name, property.ChargeType(req.ChargeType), req.Amount, property.ChargeFrequency(req.Frequency))
	if err != nil {
		return nil, err
	}
	c.IsMandatory = req.IsMandatory
	c.Description = req.Description
	if err := s.chargeRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToOtherChargeResponse(c)
	return &resp, nil
}

// ListActiveCharges lists the charges that can be attached to agreements
func (s *RoomService) ListActiveCharges(ctx context.Context) ([]OtherChargeResponse, error) {
	charges, err := s.chargeRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]OtherChargeResponse, len(charges))
	for i := range charges {
		items[i] = ToOtherChargeResponse(&charges[i])
	}
	return items, nil
}

// DeactivateCharge hides a charge from new agreements
func (s *RoomService) DeactivateCharge(ctx context.Context, id uuid.UUID) error {
	c, err := s.chargeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	c.Deactivate()
	return s.chargeRepo.Save(ctx, c)
}
