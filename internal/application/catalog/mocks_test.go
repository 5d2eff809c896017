package catalog

import (
	"context"

	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPropertyRepository is a mock implementation of PropertyRepository
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByCode(ctx context.Context, code string) (*property.Property, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]property.Property, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]property.Property), args.Get(1).(int64), args.Error(2)
}

func (m *MockPropertyRepository) Save(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFlatRepository is a mock implementation of FlatRepository
type MockFlatRepository struct {
	mock.Mock
}

func (m *MockFlatRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Flat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Flat), args.Error(1)
}

func (m *MockFlatRepository) FindByNumber(ctx context.Context, propertyID uuid.UUID, flatNumber string) (*property.Flat, error) {
	args := m.Called(ctx, propertyID, flatNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Flat), args.Error(1)
}

func (m *MockFlatRepository) FindByProperty(ctx context.Context, propertyID uuid.UUID) ([]property.Flat, error) {
	args := m.Called(ctx, propertyID)
	return args.Get(0).([]property.Flat), args.Error(1)
}

func (m *MockFlatRepository) Save(ctx context.Context, f *property.Flat) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFlatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRoomTypeRepository is a mock implementation of RoomTypeRepository
type MockRoomTypeRepository struct {
	mock.Mock
}

func (m *MockRoomTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.RoomType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.RoomType), args.Error(1)
}

func (m *MockRoomTypeRepository) FindByCode(ctx context.Context, code string) (*property.RoomType, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.RoomType), args.Error(1)
}

func (m *MockRoomTypeRepository) FindAll(ctx context.Context) ([]property.RoomType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]property.RoomType), args.Error(1)
}

func (m *MockRoomTypeRepository) Save(ctx context.Context, rt *property.RoomType) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}

// MockRoomRepository is a mock implementation of RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByNumber(ctx context.Context, flatID uuid.UUID, roomNumber string) (*property.Room, error) {
	args := m.Called(ctx, flatID, roomNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindAll(ctx context.Context, filter property.RoomFilter) ([]property.Room, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]property.Room), args.Get(1).(int64), args.Error(2)
}

func (m *MockRoomRepository) Save(ctx context.Context, r *property.Room) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoomRepository) CountByStatus(ctx context.Context) (property.RoomCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(property.RoomCounts), args.Error(1)
}

// MockOtherChargeRepository is a mock implementation of OtherChargeRepository
type MockOtherChargeRepository struct {
	mock.Mock
}

func (m *MockOtherChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.OtherCharge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.OtherCharge), args.Error(1)
}

func (m *MockOtherChargeRepository) FindActive(ctx context.Context) ([]property.OtherCharge, error) {
	args := m.Called(ctx)
	return args.Get(0).([]property.OtherCharge), args.Error(1)
}

func (m *MockOtherChargeRepository) Save(ctx context.Context, c *property.OtherCharge) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
