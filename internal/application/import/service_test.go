package importapp_test

import (
	"context"
	"strings"
	"testing"
	"time"

	agreementapp "github.com/erp/rental/internal/application/agreement"
	catalogapp "github.com/erp/rental/internal/application/catalog"
	importapp "github.com/erp/rental/internal/application/import"
	tenantapp "github.com/erp/rental/internal/application/tenant"
	"github.com/erp/rental/internal/bootstrap"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	csvimport "github.com/erp/rental/internal/infrastructure/import"
	"github.com/erp/rental/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *bootstrap.Services
	repos *bootstrap.Repositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := persistence.NewInMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	today := calendar.Date(2025, time.March, 10)
	repos := bootstrap.NewRepositories(db.DB)
	svc := bootstrap.NewServices(repos, bootstrap.WithClock(func() time.Time { return today }))
	t.Cleanup(svc.Close)
	return &fixture{svc: svc, repos: repos}
}

// load validates and imports a file, failing the test on validation errors
func (f *fixture) load(t *testing.T, entity csvimport.EntityType, mode csvimport.ConflictMode, content string) *importapp.Result {
	t.Helper()
	ctx := context.Background()
	session := f.validate(t, entity, mode, content)
	require.True(t, session.IsValid(), "%+v", session.Errors)

	result, err := f.svc.Import.Import(ctx, session.ID)
	require.NoError(t, err)
	require.Zero(t, result.ErrorRows, "%+v", result.Errors)
	return result
}

func (f *fixture) validate(t *testing.T, entity csvimport.EntityType, mode csvimport.ConflictMode, content string) *csvimport.ImportSession {
	t.Helper()
	session, err := f.svc.Import.Validate(context.Background(), entity, mode, "data.csv", int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)
	return session
}

const catalogCSV = `code,name,property_type,city
BLD-A,Al Noor Building,building,Dubai
VIL-1,Palm Villa,villa,Sharjah
`

func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()
	f.load(t, csvimport.EntityProperties, csvimport.ConflictModeSkip, catalogCSV)
	f.load(t, csvimport.EntityFlats, csvimport.ConflictModeSkip, "property_code,flat_number,floor\nBLD-A,101,1\nBLD-A,102,1\n")
	f.load(t, csvimport.EntityRooms, csvimport.ConflictModeSkip, "property_code,flat_number,room_number,rent_amount,deposit_amount\nBLD-A,101,A,1000,500\nBLD-A,101,B,900,450\n")
}

// ============ Validation Tests ============

func TestService_Validate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("rejects unknown entity", func(t *testing.T) {
		_, err := f.svc.Import.Validate(ctx, "invoices", csvimport.ConflictModeSkip, "x.csv", 1, strings.NewReader("a\n1\n"))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_ENTITY_TYPE", de.Code)
	})

	t.Run("rejects unknown conflict mode", func(t *testing.T) {
		_, err := f.svc.Import.Validate(ctx, csvimport.EntityTenants, "merge", "x.csv", 1, strings.NewReader("a\n1\n"))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CONFLICT_MODE", de.Code)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := f.svc.Import.Validate(ctx, csvimport.EntityTenants, "", "x.csv", 0, strings.NewReader(""))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_FILE", de.Code)
	})

	t.Run("defaults to skip mode", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityTenants, "", "name,mobile\nRavi Kumar,+971500000001\n")
		assert.Equal(t, csvimport.ConflictModeSkip, session.ConflictMode)
		assert.Equal(t, csvimport.StateValidated, session.State)
		assert.Equal(t, 1, session.ValidRows)
	})

	t.Run("missing required column", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityTenants, csvimport.ConflictModeSkip, "name\nRavi Kumar\n")
		assert.False(t, session.IsValid())
		require.NotEmpty(t, session.Errors)
		assert.Equal(t, csvimport.CodeMissingColumn, session.Errors[0].Code)
		assert.Equal(t, "mobile", session.Errors[0].Column)
	})

	t.Run("unknown property reference", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityFlats, csvimport.ConflictModeSkip, "property_code,flat_number\nNOPE,101\n")
		assert.False(t, session.IsValid())
		require.Len(t, session.Errors, 1)
		assert.Equal(t, csvimport.CodeUnknownReference, session.Errors[0].Code)
	})

	t.Run("end date before start date", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityAgreements, csvimport.ConflictModeSkip,
			"tenant,property_code,flat_number,room_number,start_date,end_date\n+971500000001,BLD-A,101,A,2025-02-01,2025-01-01\n")
		assert.False(t, session.IsValid())
	})

	t.Run("stored sessions are listed newest first", func(t *testing.T) {
		sessions, err := f.svc.Import.Sessions(ctx, 2)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.False(t, sessions[0].CreatedAt.Before(sessions[1].CreatedAt))
	})
}

func TestService_Validate_FailModeFlagsStoredDuplicates(t *testing.T) {
	f := newFixture(t)
	f.seedCatalog(t)

	t.Run("property code", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityProperties, csvimport.ConflictModeFail, catalogCSV)
		assert.False(t, session.IsValid())
		assert.Equal(t, 2, session.ErrorRows)
		assert.Equal(t, csvimport.CodeAlreadyStored, session.Errors[0].Code)
	})

	t.Run("flat number", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityFlats, csvimport.ConflictModeFail, "property_code,flat_number\nBLD-A,101\nBLD-A,103\n")
		assert.False(t, session.IsValid())
		require.Len(t, session.Errors, 1)
		assert.Equal(t, 2, session.Errors[0].Row)
		assert.Equal(t, "flat_number", session.Errors[0].Column)
	})

	t.Run("room number", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityRooms, csvimport.ConflictModeFail, "property_code,flat_number,room_number\nBLD-A,101,A\n")
		assert.False(t, session.IsValid())
	})

	t.Run("skip mode accepts the same file", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityProperties, csvimport.ConflictModeSkip, catalogCSV)
		assert.True(t, session.IsValid())
	})
}

// ============ Catalog Import Tests ============

func TestService_ImportProperties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.load(t, csvimport.EntityProperties, csvimport.ConflictModeSkip, catalogCSV)
	assert.Equal(t, 2, res.ImportedRows)

	prop, err := f.repos.Properties.FindByCode(ctx, "VIL-1")
	require.NoError(t, err)
	assert.Equal(t, "Palm Villa", prop.Name)
	assert.Equal(t, "Sharjah", prop.City)

	t.Run("skip leaves existing rows alone", func(t *testing.T) {
		res := f.load(t, csvimport.EntityProperties, csvimport.ConflictModeSkip, "code,name\nVIL-1,Renamed Villa\n")
		assert.Equal(t, 1, res.SkippedRows)

		prop, err := f.repos.Properties.FindByCode(ctx, "VIL-1")
		require.NoError(t, err)
		assert.Equal(t, "Palm Villa", prop.Name)
	})

	t.Run("update overwrites given cells only", func(t *testing.T) {
		res := f.load(t, csvimport.EntityProperties, csvimport.ConflictModeUpdate, "code,name,city\nVIL-1,Renamed Villa,\n")
		assert.Equal(t, 1, res.UpdatedRows)

		prop, err := f.repos.Properties.FindByCode(ctx, "VIL-1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed Villa", prop.Name)
		assert.Equal(t, "Sharjah", prop.City)
	})
}

func TestService_ImportFlatsAndRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t)

	prop, err := f.repos.Properties.FindByCode(ctx, "BLD-A")
	require.NoError(t, err)
	flat, err := f.repos.Flats.FindByNumber(ctx, prop.ID, "101")
	require.NoError(t, err)
	room, err := f.repos.Rooms.FindByNumber(ctx, flat.ID, "A")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(room.RentAmount))
	assert.True(t, decimal.NewFromInt(500).Equal(room.DepositAmount))

	t.Run("room type references resolve", func(t *testing.T) {
		_, err := f.svc.Rooms.CreateRoomType(ctx, catalogapp.CreateRoomTypeRequest{Code: "STD", Name: "Standard"})
		require.NoError(t, err)

		res := f.load(t, csvimport.EntityRooms, csvimport.ConflictModeSkip, "property_code,flat_number,room_number,room_type,rent_amount\nBLD-A,102,A,STD,800\n")
		assert.Equal(t, 1, res.ImportedRows)

		flat, err := f.repos.Flats.FindByNumber(ctx, prop.ID, "102")
		require.NoError(t, err)
		room, err := f.repos.Rooms.FindByNumber(ctx, flat.ID, "A")
		require.NoError(t, err)
		require.NotNil(t, room.RoomTypeID)
	})

	t.Run("rooms need an existing flat", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityRooms, csvimport.ConflictModeSkip, "property_code,flat_number,room_number\nBLD-A,999,A\n")
		assert.False(t, session.IsValid())
		assert.Equal(t, "flat_number", session.Errors[0].Column)
	})

	t.Run("update changes room pricing", func(t *testing.T) {
		res := f.load(t, csvimport.EntityRooms, csvimport.ConflictModeUpdate, "property_code,flat_number,room_number,rent_amount\nBLD-A,101,A,1100\n")
		assert.Equal(t, 1, res.UpdatedRows)

		room, err := f.repos.Rooms.FindByNumber(ctx, flat.ID, "A")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1100).Equal(room.RentAmount))
		assert.True(t, decimal.NewFromInt(500).Equal(room.DepositAmount))
	})
}

// ============ Tenant Import Tests ============

func TestService_ImportTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.load(t, csvimport.EntityTenants, csvimport.ConflictModeSkip, `name,mobile,id_passport,status
Ravi Kumar,+971500000001,P1234567,active
John Smith,+971500000002,,
`)
	assert.Equal(t, 2, res.ImportedRows)

	ravi, err := f.repos.Tenants.FindByMobile(ctx, "+971500000001")
	require.NoError(t, err)
	assert.Equal(t, "active", string(ravi.Status))
	john, err := f.repos.Tenants.FindByMobile(ctx, "+971500000002")
	require.NoError(t, err)
	assert.Equal(t, "prospect", string(john.Status))

	t.Run("update applies status changes", func(t *testing.T) {
		res := f.load(t, csvimport.EntityTenants, csvimport.ConflictModeUpdate, "name,mobile,status\nJohn Smith,+971500000002,blacklisted\n")
		assert.Equal(t, 1, res.UpdatedRows)

		john, err := f.repos.Tenants.FindByMobile(ctx, "+971500000002")
		require.NoError(t, err)
		assert.Equal(t, "blacklisted", string(john.Status))
	})

	t.Run("fail mode flags stored mobiles", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityTenants, csvimport.ConflictModeFail, "name,mobile\nSomeone Else,+971500000001\n")
		assert.False(t, session.IsValid())
		assert.Equal(t, csvimport.CodeAlreadyStored, session.Errors[0].Code)
	})

	t.Run("duplicate mobiles in one file", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityTenants, csvimport.ConflictModeSkip, "name,mobile\nA B,+971500000009\nC D,+971500000009\n")
		assert.False(t, session.IsValid())
		assert.Equal(t, csvimport.CodeDuplicateInFile, session.Errors[0].Code)
	})
}

// ============ Agreement Import Tests ============

func TestService_ImportAgreements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t)
	f.load(t, csvimport.EntityTenants, csvimport.ConflictModeSkip, "name,mobile\nRavi Kumar,+971500000001\nJohn Smith,+971500000002\n")

	res := f.load(t, csvimport.EntityAgreements, csvimport.ConflictModeSkip, `tenant,property_code,flat_number,room_number,start_date,end_date,state
+971500000001,BLD-A,101,A,2025-02-01,2026-01-31,active
tenant_john_smith,BLD-A,101,B,2025-04-01,2026-03-31,
`)
	assert.Equal(t, 2, res.ImportedRows)

	ravi, err := f.repos.Tenants.FindByMobile(ctx, "+971500000001")
	require.NoError(t, err)
	balance, err := f.svc.Ledger.Balance(ctx, ravi.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2500).Equal(balance.Balance), balance.Balance.String())

	john, err := f.repos.Tenants.FindByMobile(ctx, "+971500000002")
	require.NoError(t, err)
	drafts, err := f.svc.Agreements.List(ctx, agreementapp.AgreementListFilter{TenantID: &john.ID})
	require.NoError(t, err)
	require.Len(t, drafts.Items, 1)
	assert.Equal(t, "draft", drafts.Items[0].State)
	assert.True(t, decimal.NewFromInt(900).Equal(drafts.Items[0].RentAmount))

	t.Run("update amends drafts and skips active agreements", func(t *testing.T) {
		res := f.load(t, csvimport.EntityAgreements, csvimport.ConflictModeUpdate, `tenant,property_code,flat_number,room_number,start_date,end_date,rent_amount
+971500000001,BLD-A,101,A,2025-02-01,2026-01-31,1200
+971500000002,BLD-A,101,B,2025-04-01,2026-03-31,950
`)
		assert.Equal(t, 1, res.UpdatedRows)
		assert.Equal(t, 1, res.SkippedRows)

		got, err := f.svc.Agreements.GetByID(ctx, drafts.Items[0].ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(950).Equal(got.RentAmount))
	})

	t.Run("fail mode flags existing agreements", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityAgreements, csvimport.ConflictModeFail,
			"tenant,property_code,flat_number,room_number,start_date,end_date\n+971500000002,BLD-A,101,B,2025-04-01,2026-03-31\n")
		assert.False(t, session.IsValid())
		assert.Equal(t, csvimport.CodeAlreadyStored, session.Errors[0].Code)
	})

	t.Run("unknown legacy tenant", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityAgreements, csvimport.ConflictModeSkip,
			"tenant,property_code,flat_number,room_number,start_date,end_date\ntenant_nobody_here,BLD-A,101,B,2027-01-01,2027-12-31\n")
		assert.False(t, session.IsValid())
		assert.Equal(t, "tenant", session.Errors[0].Column)
	})
}

func TestService_ImportReportsRejectedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t)
	f.load(t, csvimport.EntityTenants, csvimport.ConflictModeSkip, "name,mobile\nRavi Kumar,+971500000001\n")

	ravi, err := f.repos.Tenants.FindByMobile(ctx, "+971500000001")
	require.NoError(t, err)
	_, err = f.svc.Tenants.ChangeStatus(ctx, ravi.ID, tenantapp.ActionBlacklist)
	require.NoError(t, err)

	session := f.validate(t, csvimport.EntityAgreements, csvimport.ConflictModeSkip,
		"tenant,property_code,flat_number,room_number,start_date,end_date\n+971500000001,BLD-A,101,A,2025-02-01,2026-01-31\n")
	require.True(t, session.IsValid())

	result, err := f.svc.Import.Import(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ErrorRows)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "TENANT_BLACKLISTED", result.Errors[0].Code)
	assert.Equal(t, 2, result.Errors[0].Row)

	stored, err := f.svc.Import.Session(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, csvimport.StateFailed, stored.State)
}

// ============ Session Tests ============

func TestService_Import_SessionState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.svc.Import.Import(ctx, uuid.New())
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "IMPORT_SESSION_NOT_FOUND", de.Code)
	})

	t.Run("invalid session", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityTenants, csvimport.ConflictModeSkip, "name\nRavi Kumar\n")
		_, err := f.svc.Import.Import(ctx, session.ID)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_STATE", de.Code)
	})

	t.Run("a session imports once", func(t *testing.T) {
		session := f.validate(t, csvimport.EntityProperties, csvimport.ConflictModeSkip, catalogCSV)
		_, err := f.svc.Import.Import(ctx, session.ID)
		require.NoError(t, err)

		_, err = f.svc.Import.Import(ctx, session.ID)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_STATE", de.Code)
	})
}
