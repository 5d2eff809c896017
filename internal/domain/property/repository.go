package property

import (
	"context"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// PropertyRepository persists properties
type PropertyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)
	FindByCode(ctx context.Context, code string) (*Property, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Property, int64, error)
	Save(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FlatRepository persists flats
type FlatRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Flat, error)
	FindByNumber(ctx context.Context, propertyID uuid.UUID, flatNumber string) (*Flat, error)
	FindByProperty(ctx context.Context, propertyID uuid.UUID) ([]Flat, error)
	Save(ctx context.Context, f *Flat) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RoomTypeRepository persists room types
type RoomTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RoomType, error)
	FindByCode(ctx context.Context, code string) (*RoomType, error)
	FindAll(ctx context.Context) ([]RoomType, error)
	Save(ctx context.Context, rt *RoomType) error
}

// RoomFilter narrows room queries
type RoomFilter struct {
	shared.Filter
	PropertyID *uuid.UUID
	FlatID     *uuid.UUID
	Status     *RoomStatus
}

// RoomCounts summarises occupancy
type RoomCounts struct {
	Total       int64
	Occupied    int64
	Vacant      int64
	Booked      int64
	Maintenance int64
}

// RoomRepository persists rooms
type RoomRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Room, error)
	FindByNumber(ctx context.Context, flatID uuid.UUID, roomNumber string) (*Room, error)
	FindAll(ctx context.Context, filter RoomFilter) ([]Room, int64, error)
	Save(ctx context.Context, r *Room) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (RoomCounts, error)
}

// OtherChargeRepository persists the charge catalog
type OtherChargeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*OtherCharge, error)
	FindActive(ctx context.Context) ([]OtherCharge, error)
	Save(ctx context.Context, c *OtherCharge) error
}
