package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/rental/internal/bootstrap"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/infrastructure/persistence"
	"github.com/erp/rental/internal/infrastructure/scheduler"
	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/erp/rental/internal/interfaces/http/middleware"
	"github.com/erp/rental/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testApp serves the full API on an in-memory database with the clock
// fixed at 10 March 2025
type testApp struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestApp(t *testing.T, opts ...bootstrap.Option) *testApp {
	t.Helper()
	db, err := persistence.NewInMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	today := calendar.Date(2025, time.March, 10)
	opts = append([]bootstrap.Option{bootstrap.WithClock(func() time.Time { return today })}, opts...)
	svc := bootstrap.NewServices(bootstrap.NewRepositories(db.DB), opts...)
	t.Cleanup(svc.Close)
	jobs := scheduler.NewScheduler(scheduler.DefaultSchedulerConfig(), zap.NewNop())
	svc.RegisterJobs(jobs, true)
	svc.RegisterMaintenanceJobs(jobs)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine)
	for _, g := range NewHandlers(svc, jobs, NewSystemHandler("rental-ledger", "test", db), 1<<20).Areas() {
		r.Mount(g)
	}
	r.Setup()

	return &testApp{t: t, engine: engine}
}

func (a *testApp) do(method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	a.t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, "/api/v1"+path, nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		req = httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

// must performs a request, checks the status and decodes Data into out
func (a *testApp) must(status int, method, path string, body, out any) {
	a.t.Helper()
	w, resp := a.do(method, path, body)
	require.Equal(a.t, status, w.Code, w.Body.String())
	if out == nil {
		return
	}
	raw, err := json.Marshal(resp.Data)
	require.NoError(a.t, err)
	require.NoError(a.t, json.Unmarshal(raw, out))
}

type idResponse struct {
	ID string `json:"id"`
}

type leasedRoom struct {
	tenantID    string
	roomID      string
	agreementID string
}

// leaseRoom creates a property, a flat, a 1000/500 room and a tenant, and
// activates a one-year agreement from 1 February 2025
func (a *testApp) leaseRoom() leasedRoom {
	a.t.Helper()
	var prop, flat, room, ten, agr idResponse
	a.must(http.StatusCreated, http.MethodPost, "/properties", map[string]any{
		"code": "BLD-A", "name": "Al Noor Building", "property_type": "building",
	}, &prop)
	a.must(http.StatusCreated, http.MethodPost, "/properties/"+prop.ID+"/flats", map[string]any{
		"flat_number": "101", "floor": 1,
	}, &flat)
	a.must(http.StatusCreated, http.MethodPost, "/rooms", map[string]any{
		"flat_id": flat.ID, "room_number": "A", "rent_amount": "1000", "deposit_amount": "500",
	}, &room)
	a.must(http.StatusCreated, http.MethodPost, "/tenants", map[string]any{
		"name": "Ravi Kumar", "mobile": "+971500000001", "id_passport": "P1234567",
	}, &ten)
	a.must(http.StatusCreated, http.MethodPost, "/agreements", map[string]any{
		"tenant_id":  ten.ID,
		"room_id":    room.ID,
		"start_date": "2025-02-01T00:00:00Z",
		"end_date":   "2026-01-31T00:00:00Z",
	}, &agr)
	a.must(http.StatusOK, http.MethodPost, "/agreements/"+agr.ID+"/activate", nil, nil)
	return leasedRoom{tenantID: ten.ID, roomID: room.ID, agreementID: agr.ID}
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
	Entries int             `json:"entries"`
}

func (a *testApp) balance(tenantID string) balanceResponse {
	a.t.Helper()
	var b balanceResponse
	a.must(http.StatusOK, http.MethodGet, "/tenants/"+tenantID+"/balance", nil, &b)
	return b
}

// ============ Lease Flow Tests ============

func TestAPI_LeaseAndCollect(t *testing.T) {
	app := newTestApp(t)
	lease := app.leaseRoom()

	t.Run("activation posts deposit and rent to date", func(t *testing.T) {
		var agr struct {
			Number string `json:"number"`
			State  string `json:"state"`
		}
		app.must(http.StatusOK, http.MethodGet, "/agreements/"+lease.agreementID, nil, &agr)
		assert.Equal(t, "active", agr.State)
		assert.Equal(t, "AGR-20250310-00001", agr.Number)

		b := app.balance(lease.tenantID)
		assert.True(t, decimal.NewFromInt(2500).Equal(b.Balance), b.Balance.String())
		assert.Equal(t, 3, b.Entries)

		var room struct {
			Status string `json:"status"`
		}
		app.must(http.StatusOK, http.MethodGet, "/rooms/"+lease.roomID, nil, &room)
		assert.Equal(t, "occupied", room.Status)
	})

	t.Run("a collection credits the statement", func(t *testing.T) {
		var col struct {
			ReceiptNumber  string          `json:"receipt_number"`
			Amount         decimal.Decimal `json:"amount_collected"`
			CollectionType string          `json:"collection_type"`
			Status         string          `json:"status"`
		}
		app.must(http.StatusCreated, http.MethodPost, "/collections", map[string]any{
			"tenant_id": lease.tenantID,
			"date":      "2025-03-10T00:00:00Z",
		}, &col)
		assert.Equal(t, "RCPT-20250310-00001", col.ReceiptNumber)
		assert.Equal(t, "rent", col.CollectionType)
		assert.Equal(t, "collected", col.Status)
		assert.True(t, decimal.NewFromInt(1000).Equal(col.Amount))

		assert.True(t, decimal.NewFromInt(1500).Equal(app.balance(lease.tenantID).Balance))
	})

	t.Run("statement lists entries with running balances", func(t *testing.T) {
		var entries []struct {
			Type           string          `json:"transaction_type"`
			RunningBalance decimal.Decimal `json:"running_balance"`
		}
		app.must(http.StatusOK, http.MethodGet, "/tenants/"+lease.tenantID+"/statement", nil, &entries)
		require.Len(t, entries, 4)
		assert.True(t, decimal.NewFromInt(1500).Equal(entries[len(entries)-1].RunningBalance))
	})

	t.Run("recalculate keeps the balance", func(t *testing.T) {
		app.must(http.StatusOK, http.MethodPost, "/tenants/"+lease.tenantID+"/recalculate", nil, nil)
		assert.True(t, decimal.NewFromInt(1500).Equal(app.balance(lease.tenantID).Balance))
	})

	t.Run("recent collections", func(t *testing.T) {
		var recent []idResponse
		app.must(http.StatusOK, http.MethodGet, "/collections/recent?limit=5", nil, &recent)
		assert.Len(t, recent, 1)

		w, _ := app.do(http.MethodGet, "/collections/recent?limit=500", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("a second agreement on the room overlaps", func(t *testing.T) {
		var other idResponse
		app.must(http.StatusCreated, http.MethodPost, "/tenants", map[string]any{
			"name": "Asha Menon", "mobile": "+971500000002",
		}, &other)
		w, resp := app.do(http.MethodPost, "/agreements", map[string]any{
			"tenant_id":  other.ID,
			"room_id":    lease.roomID,
			"start_date": "2025-06-01T00:00:00Z",
			"end_date":   "2025-12-31T00:00:00Z",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAgreementOverlap, resp.Error.Code)
	})
}

// ============ Dues and Report Tests ============

func TestAPI_DuesAndDashboard(t *testing.T) {
	app := newTestApp(t)
	lease := app.leaseRoom()

	app.must(http.StatusOK, http.MethodPost, "/dues/rebuild", nil, nil)

	var list struct {
		Count int `json:"count"`
	}
	app.must(http.StatusOK, http.MethodGet, "/dues", nil, &list)
	assert.Equal(t, 1, list.Count)

	var due struct {
		TenantID         string          `json:"tenant_id"`
		TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	}
	app.must(http.StatusOK, http.MethodGet, "/tenants/"+lease.tenantID+"/dues", nil, &due)
	assert.Equal(t, lease.tenantID, due.TenantID)
	assert.True(t, due.TotalOutstanding.IsPositive())

	w, _ := app.do(http.MethodGet, "/dues?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var dash struct {
		ActiveTenants int64 `json:"active_tenants"`
	}
	app.must(http.StatusOK, http.MethodGet, "/reports/dashboard?date=2025-03-10", nil, &dash)
	assert.Equal(t, int64(1), dash.ActiveTenants)

	w, _ = app.do(http.MethodGet, "/reports/dashboard?date=10/03/2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.must(http.StatusOK, http.MethodGet, "/tenants/"+lease.tenantID+"/statement/report", nil, nil)
}

// ============ Job Tests ============

func TestAPI_Jobs(t *testing.T) {
	app := newTestApp(t)
	app.leaseRoom()

	var list JobListResponse
	app.must(http.StatusOK, http.MethodGet, "/jobs", nil, &list)
	assert.Contains(t, list.Jobs, "recalculate_running_balances")
	assert.Contains(t, list.Jobs, "cleanup_and_regenerate")

	var job struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	app.must(http.StatusOK, http.MethodPost, "/jobs/recalculate_running_balances/run", nil, &job)
	assert.Equal(t, "recalculate_running_balances", job.Name)
	assert.Equal(t, "SUCCESS", job.Status)

	w, resp := app.do(http.MethodPost, "/jobs/unknown/run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Unknown job: unknown", resp.Error.Message)

	var history []struct {
		Name string `json:"name"`
	}
	app.must(http.StatusOK, http.MethodGet, "/jobs/history", nil, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "recalculate_running_balances", history[0].Name)
}

// ============ Error Path Tests ============

func TestAPI_Errors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name         string
		method       string
		path         string
		body         any
		expectedCode int
		expectedErr  string
	}{
		{"malformed id", http.MethodGet, "/tenants/not-a-uuid", nil, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"missing tenant", http.MethodGet, "/tenants/6f1c2a7e-3c55-4f0a-9b1e-2f7a1d9c0b11", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"missing required field", http.MethodPost, "/tenants", map[string]any{"name": "No Mobile"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"bad filter", http.MethodGet, "/collections?tenant_id=nope", nil, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"bad room action", http.MethodPost, "/rooms/6f1c2a7e-3c55-4f0a-9b1e-2f7a1d9c0b11/status", map[string]any{"action": "paint"}, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := app.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestAPI_SystemHealth(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil)
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Database)
}
