package agreement

import (
	"context"
	"testing"
	"time"

	ledgerapp "github.com/erp/rental/internal/application/ledger"
	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/erp/rental/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	svc         *AgreementService
	ledger      *ledgerapp.Service
	agreements  *persistence.GormAgreementRepository
	rooms       *persistence.GormRoomRepository
	tenants     *persistence.GormTenantRepository
	charges     *persistence.GormOtherChargeRepository
	collections *persistence.GormCollectionRepository
	entries     *persistence.GormLedgerRepository
	room        *property.Room
	tenant      *tenant.Tenant
}

var testToday = calendar.Date(2025, time.March, 10)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.NewInMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := func() time.Time { return testToday }
	env := &testEnv{
		agreements:  persistence.NewGormAgreementRepository(db.DB),
		rooms:       persistence.NewGormRoomRepository(db.DB),
		tenants:     persistence.NewGormTenantRepository(db.DB),
		charges:     persistence.NewGormOtherChargeRepository(db.DB),
		collections: persistence.NewGormCollectionRepository(db.DB),
		entries:     persistence.NewGormLedgerRepository(db.DB),
	}
	tx := persistence.NewGormTransactor(db.DB)
	env.ledger = ledgerapp.NewService(env.entries, env.collections, env.agreements, tx, ledgerapp.WithClock(clock))
	env.svc = NewAgreementService(AgreementServiceConfig{
		AgreementRepo:   env.agreements,
		NumberGenerator: persistence.NewGormNumberGenerator(db.DB),
		RoomRepo:        env.rooms,
		TenantRepo:      env.tenants,
		ChargeRepo:      env.charges,
		CollectionRepo:  env.collections,
		InvoiceRepo:     persistence.NewGormInvoiceRepository(db.DB),
		PaymentRepo:     persistence.NewGormPaymentRepository(db.DB),
		Ledger:          env.ledger,
		Transactor:      tx,
		Clock:           clock,
	})

	prop, err := property.NewProperty("TWR", "Tower", property.PropertyTypeBuilding)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormPropertyRepository(db.DB).Save(ctx, prop))
	flat, err := property.NewFlat(prop.ID, "101", 1)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormFlatRepository(db.DB).Save(ctx, flat))
	env.room, err = property.NewRoom(prop, flat, nil, "A", property.RoomPricing{
		Rent:    decimal.NewFromInt(1000),
		Deposit: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.NoError(t, env.rooms.Save(ctx, env.room))

	env.tenant, err = tenant.NewTenant("Omar Khalid", "0501234567", "P123")
	require.NoError(t, err)
	require.NoError(t, env.tenants.Save(ctx, env.tenant))
	return env
}

func (env *testEnv) draft(t *testing.T, start, end time.Time) *AgreementResponse {
	t.Helper()
	resp, err := env.svc.Create(context.Background(), CreateAgreementRequest{
		TenantID:  env.tenant.ID,
		RoomID:    env.room.ID,
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

// ============ Create Tests ============

func TestAgreementService_Create(t *testing.T) {
	env := newTestEnv(t)

	resp := env.draft(t, calendar.Date(2025, time.January, 1), calendar.Date(2025, time.June, 30))
	assert.Equal(t, "AGR-20250310-00001", resp.Number)
	assert.Equal(t, "draft", resp.State)
	assert.True(t, resp.RentAmount.Equal(decimal.NewFromInt(1000)), "rent defaults to the room")
	assert.True(t, resp.DepositAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, resp.AutoGenerateInvoices)
	assert.Equal(t, 1, resp.PaymentDay)
}

func TestAgreementService_Create_Overlap(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.draft(t, calendar.Date(2025, time.January, 1), calendar.Date(2025, time.June, 30))

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		wantCode string
	}{
		{"intersecting range rejected", calendar.Date(2025, time.June, 1), calendar.Date(2025, time.December, 31), "AGREEMENT_OVERLAP"},
		{"back to back allowed", calendar.Date(2025, time.June, 30), calendar.Date(2025, time.December, 31), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, CreateAgreementRequest{
				TenantID: env.tenant.ID, RoomID: env.room.ID, StartDate: tt.start, EndDate: tt.end,
			})
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, errorCode(t, err))
		})
	}
}

func TestAgreementService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Create(ctx, CreateAgreementRequest{
		TenantID: uuid.New(), RoomID: env.room.ID,
		StartDate: calendar.Date(2025, time.January, 1), EndDate: calendar.Date(2025, time.June, 30),
	})
	assert.Equal(t, "INVALID_TENANT", errorCode(t, err))

	_, err = env.svc.Create(ctx, CreateAgreementRequest{
		TenantID: env.tenant.ID, RoomID: env.room.ID,
		StartDate: calendar.Date(2025, time.June, 30), EndDate: calendar.Date(2025, time.January, 1),
	})
	assert.Equal(t, "INVALID_DATES", errorCode(t, err))

	_, err = env.svc.Create(ctx, CreateAgreementRequest{
		TenantID: env.tenant.ID, RoomID: env.room.ID,
		StartDate: calendar.Date(2025, time.January, 1), EndDate: calendar.Date(2025, time.June, 30),
		Charges: []ChargeRequest{{ChargeID: uuid.New()}},
	})
	assert.Equal(t, "INVALID_CHARGE", errorCode(t, err))
}

// ============ Activation Tests ============

func TestAgreementService_Activate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	internet, err := property.NewOtherCharge("Internet", property.ChargeTypeInternet, decimal.NewFromInt(50), property.FrequencyMonthly)
	require.NoError(t, err)
	require.NoError(t, env.charges.Save(ctx, internet))

	draft, err := env.svc.Create(ctx, CreateAgreementRequest{
		TenantID:       env.tenant.ID,
		RoomID:         env.room.ID,
		StartDate:      calendar.Date(2025, time.February, 1),
		EndDate:        calendar.Date(2026, time.January, 31),
		ParkingCharges: decimal.NewFromInt(100),
		OpeningBalance: decimal.NewFromInt(200),
		Charges:        []ChargeRequest{{ChargeID: internet.ID}},
	})
	require.NoError(t, err)

	resp, err := env.svc.Activate(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", resp.State)
	assert.True(t, resp.OpeningBalanceRecorded)

	room, err := env.rooms.FindByID(ctx, env.room.ID)
	require.NoError(t, err)
	assert.Equal(t, property.RoomStatusOccupied, room.Status)
	assert.Equal(t, draft.ID, *room.CurrentAgreementID)

	tn, err := env.tenants.FindByID(ctx, env.tenant.ID)
	require.NoError(t, err)
	assert.True(t, tn.IsActive())
	assert.Equal(t, env.room.ID, *tn.CurrentRoomID)

	entries, err := env.entries.FindByTenant(ctx, env.tenant.ID)
	require.NoError(t, err)
	refs := make([]string, len(entries))
	for i, e := range entries {
		refs[i] = e.Reference
	}
	number := draft.Number
	assert.ElementsMatch(t, []string{
		number + "/DEPOSIT", number + "/RENT/202502", number + "/RENT/202503",
		number + "/OPENING", number + "/PARKING", number + "/CHARGE/Internet",
	}, refs)
	assert.True(t, entries[len(entries)-1].RunningBalance.Equal(decimal.NewFromInt(2850)))

	stored, err := env.agreements.FindByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, stored.OpeningBalanceRecorded)

	_, err = env.svc.Activate(ctx, draft.ID)
	assert.Equal(t, "INVALID_STATE", errorCode(t, err))
}

func TestAgreementService_Update(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draft := env.draft(t, calendar.Date(2025, time.January, 1), calendar.Date(2025, time.December, 31))

	rent := decimal.NewFromInt(1100)
	resp, err := env.svc.Update(ctx, draft.ID, UpdateAgreementRequest{RentAmount: &rent})
	require.NoError(t, err)
	assert.True(t, resp.RentAmount.Equal(rent), "drafts accept any change")

	_, err = env.svc.Activate(ctx, draft.ID)
	require.NoError(t, err)

	higher := decimal.NewFromInt(1200)
	_, err = env.svc.Update(ctx, draft.ID, UpdateAgreementRequest{RentAmount: &higher})
	assert.Equal(t, "IMMUTABLE_FIELD", errorCode(t, err))

	end := calendar.Date(2026, time.March, 31)
	_, err = env.svc.Update(ctx, draft.ID, UpdateAgreementRequest{EndDate: &end})
	assert.Equal(t, "IMMUTABLE_FIELD", errorCode(t, err))

	notes := "Pays by cheque"
	resp, err = env.svc.Update(ctx, draft.ID, UpdateAgreementRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, resp.Notes)
}

// ============ Termination Tests ============

func TestAgreementService_Terminate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draft := env.draft(t, calendar.Date(2025, time.January, 1), calendar.Date(2025, time.December, 31))
	_, err := env.svc.Activate(ctx, draft.ID)
	require.NoError(t, err)

	resp, err := env.svc.Terminate(ctx, draft.ID, "moved abroad")
	require.NoError(t, err)
	assert.Equal(t, "terminated", resp.State)
	assert.Equal(t, "moved abroad", resp.TerminationReason)

	room, err := env.rooms.FindByID(ctx, env.room.ID)
	require.NoError(t, err)
	assert.Equal(t, property.RoomStatusVacant, room.Status)
	assert.Nil(t, room.CurrentTenantID)

	tn, err := env.tenants.FindByID(ctx, env.tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, tn.CurrentRoomID)

	before, err := env.entries.FindByTenant(ctx, env.tenant.ID)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	require.NoError(t, env.svc.Delete(ctx, draft.ID))
	after, err := env.entries.FindByTenant(ctx, env.tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, after, "deleting the agreement deletes its statement entries")
}

func TestAgreementService_CancelAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	first := env.draft(t, calendar.Date(2025, time.January, 1), calendar.Date(2025, time.June, 30))

	resp, err := env.svc.Cancel(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.State)

	// A cancelled agreement no longer holds the room
	second := env.draft(t, calendar.Date(2025, time.February, 1), calendar.Date(2025, time.July, 31))
	_, err = env.svc.Activate(ctx, second.ID)
	require.NoError(t, err)

	assert.Equal(t, "INVALID_STATE", errorCode(t, env.svc.Delete(ctx, second.ID)))
	require.NoError(t, env.svc.Delete(ctx, first.ID))
	_, err = env.agreements.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAgreementService_CleanAndTerminate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draft := env.draft(t, calendar.Date(2025, time.January, 1), calendar.Date(2025, time.December, 31))
	_, err := env.svc.Activate(ctx, draft.ID)
	require.NoError(t, err)

	a, err := env.agreements.FindByID(ctx, draft.ID)
	require.NoError(t, err)
	c, err := collection.NewCollection("RCPT-20250110-00001", collection.Params{
		TenantID: env.tenant.ID, TenantName: env.tenant.Name,
		Date: calendar.Date(2025, time.January, 10), Amount: decimal.NewFromInt(1000),
	}, collection.Placement{Agreement: a, RoomNumber: "A"})
	require.NoError(t, err)
	require.NoError(t, env.collections.Save(ctx, c))
	_, err = env.ledger.CreateFromCollection(ctx, c)
	require.NoError(t, err)

	result, err := env.svc.CleanAndTerminate(ctx, draft.ID, "data entry error")
	require.NoError(t, err)
	assert.Positive(t, result.Processed)

	entries, err := env.entries.FindByTenant(ctx, env.tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = env.collections.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	stored, err := env.agreements.FindByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, agreement.StateTerminated, stored.State)
}

// ============ Renewal Tests ============

func TestAgreementService_Renew(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draft := env.draft(t, calendar.Date(2025, time.January, 1), calendar.Date(2025, time.December, 31))

	_, err := env.svc.Renew(ctx, draft.ID)
	assert.Equal(t, "INVALID_STATE", errorCode(t, err), "drafts cannot be renewed")

	_, err = env.svc.Activate(ctx, draft.ID)
	require.NoError(t, err)

	renewed, err := env.svc.Renew(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", renewed.State)
	assert.NotEqual(t, draft.Number, renewed.Number)
	assert.True(t, renewed.StartDate.Equal(calendar.Date(2026, time.January, 1)))
	assert.True(t, renewed.EndDate.Equal(calendar.Date(2026, time.December, 31)))

	_, err = env.svc.Renew(ctx, draft.ID)
	assert.Equal(t, "AGREEMENT_OVERLAP", errorCode(t, err))
}

// ============ Job Tests ============

func TestAgreementService_ExpireAgreements(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ended := env.draft(t, calendar.Date(2024, time.March, 1), calendar.Date(2025, time.February, 28))
	_, err := env.svc.Activate(ctx, ended.ID)
	require.NoError(t, err)

	result, err := env.svc.ExpireAgreements(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Created)

	stored, err := env.agreements.FindByID(ctx, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, agreement.StateExpired, stored.State)

	room, err := env.rooms.FindByID(ctx, env.room.ID)
	require.NoError(t, err)
	assert.Equal(t, property.RoomStatusVacant, room.Status)

	again, err := env.svc.ExpireAgreements(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Processed)
}

func TestAgreementService_CheckExpiringAgreements(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	soon := env.draft(t, calendar.Date(2024, time.April, 1), calendar.Date(2025, time.March, 31))
	_, err := env.svc.Activate(ctx, soon.ID)
	require.NoError(t, err)

	notices, result, err := env.svc.CheckExpiringAgreements(ctx)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, soon.Number, notices[0].Number)
	assert.Equal(t, 21, notices[0].DaysRemaining)
	assert.Equal(t, 1, result.Processed)
}
