package property

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRoom(t *testing.T) *Room {
	t.Helper()
	prop, err := NewProperty("tw1", "Tower One", PropertyTypeBuilding)
	require.NoError(t, err)
	flat, err := NewFlat(prop.ID, "101", 1)
	require.NoError(t, err)
	require.NoError(t, flat.SetParking(decimal.NewFromInt(150), decimal.NewFromInt(300)))
	rt, err := NewRoomType("std", "Standard", decimal.NewFromInt(2500), decimal.NewFromInt(2500))
	require.NoError(t, err)

	room, err := NewRoom(prop, flat, rt, "A", RoomPricing{})
	require.NoError(t, err)
	return room
}

// ============ Room Tests ============

func TestNewRoom_InheritsDefaults(t *testing.T) {
	room := createTestRoom(t)

	assert.Equal(t, "TW1-101-A", room.Name)
	assert.True(t, room.RentAmount.Equal(decimal.NewFromInt(2500)))
	assert.True(t, room.DepositAmount.Equal(decimal.NewFromInt(2500)))
	assert.True(t, room.ParkingCharges.Equal(decimal.NewFromInt(150)))
	assert.True(t, room.ParkingDeposit.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, RoomStatusVacant, room.Status)
	assert.NotNil(t, room.RoomTypeID)
}

func TestNewRoom_Validation(t *testing.T) {
	prop, _ := NewProperty("P1", "P", PropertyTypeVilla)
	flat, _ := NewFlat(prop.ID, "1", 0)
	other, _ := NewFlat(uuid.New(), "2", 0)

	tests := []struct {
		name    string
		flat    *Flat
		number  string
		pricing RoomPricing
	}{
		{"missing rent", flat, "A", RoomPricing{}},
		{"empty number", flat, " ", RoomPricing{Rent: decimal.NewFromInt(10)}},
		{"flat of other property", other, "A", RoomPricing{Rent: decimal.NewFromInt(10)}},
		{"negative deposit", flat, "A", RoomPricing{Rent: decimal.NewFromInt(10), Deposit: decimal.NewFromInt(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRoom(prop, tt.flat, nil, tt.number, tt.pricing)
			assert.Error(t, err)
		})
	}
}

func TestRoom_OccupyAndVacate(t *testing.T) {
	room := createTestRoom(t)
	tenantID, agreementID := uuid.New(), uuid.New()

	require.NoError(t, room.Occupy(tenantID, agreementID))
	assert.True(t, room.IsOccupied())
	assert.Equal(t, tenantID, *room.CurrentTenantID)

	// Same agreement can re-occupy, a different one cannot
	require.NoError(t, room.Occupy(tenantID, agreementID))
	assert.Error(t, room.Occupy(uuid.New(), uuid.New()))
	assert.Error(t, room.StartMaintenance())

	room.Vacate()
	assert.Equal(t, RoomStatusVacant, room.Status)
	assert.Nil(t, room.CurrentTenantID)
	assert.Nil(t, room.CurrentAgreementID)
	assert.Len(t, room.PendingEvents(), 3)
}

func TestRoom_Book(t *testing.T) {
	room := createTestRoom(t)
	require.NoError(t, room.Book())
	assert.Equal(t, RoomStatusBooked, room.Status)
	assert.Error(t, room.Book())
}

// ============ OtherCharge Tests ============

func TestNewOtherCharge(t *testing.T) {
	c, err := NewOtherCharge("Internet", ChargeTypeInternet, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	assert.Equal(t, FrequencyMonthly, c.Frequency)
	assert.True(t, c.Active)

	_, err = NewOtherCharge("Internet", ChargeTypeInternet, decimal.Zero, FrequencyMonthly)
	assert.Error(t, err)
	_, err = NewOtherCharge("X", ChargeType("bogus"), decimal.NewFromInt(1), FrequencyMonthly)
	assert.Error(t, err)
	_, err = NewOtherCharge("X", ChargeTypeGym, decimal.NewFromInt(1), ChargeFrequency("hourly"))
	assert.Error(t, err)
}

func TestNewProperty(t *testing.T) {
	p, err := NewProperty(" tw2 ", "Tower Two", "")
	require.NoError(t, err)
	assert.Equal(t, "TW2", p.Code)
	assert.Equal(t, PropertyTypeBuilding, p.Type)
	assert.Equal(t, PropertyStateActive, p.State)

	_, err = NewProperty("", "x", PropertyTypeBuilding)
	assert.Error(t, err)
	assert.Error(t, p.SetState(PropertyState("gone")))
}
