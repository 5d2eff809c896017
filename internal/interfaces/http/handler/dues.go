package handler

import (
	"time"

	duesapp "github.com/erp/rental/internal/application/dues"
	"github.com/erp/rental/internal/domain/dues"
	"github.com/gin-gonic/gin"
)

// DuesHandler serves the outstanding dues snapshot
type DuesHandler struct {
	BaseHandler
	duesService *duesapp.Service
}

// NewDuesHandler creates a new DuesHandler
func NewDuesHandler(duesService *duesapp.Service) *DuesHandler {
	return &DuesHandler{
		duesService: duesService,
	}
}

// DuesListResponse is the list of tenants with money outstanding
type DuesListResponse struct {
	AsOf        time.Time  `json:"as_of"`
	GeneratedAt time.Time  `json:"generated_at"`
	Count       int        `json:"count"`
	Dues        []dues.Due `json:"dues"`
}

// ReminderListResponse is the result of a reminder run
type ReminderListResponse struct {
	Reminders []duesapp.Reminder `json:"reminders"`
	Count     int                `json:"count"`
}

// List returns the dues of every tenant, optionally one ?status only
//
// @ID           listDues
// @Summary      Outstanding dues of every tenant
// @Tags         dues
// @Produce      json
// @Param        status query string false "Dues status"
// @Success      200 {object} APIResponse[DuesListResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /dues [get]
func (h *DuesHandler) List(c *gin.Context) {
	var status *dues.Status
	if raw := c.Query("status"); raw != "" {
		s := dues.Status(raw)
		if !s.IsValid() {
			h.BadRequest(c, "Invalid dues status: "+raw)
			return
		}
		status = &s
	}

	snapshot := h.duesService.Snapshot()
	items := h.duesService.List(status)
	if items == nil {
		items = []dues.Due{}
	}
	h.Success(c, DuesListResponse{
		AsOf:        snapshot.AsOf,
		GeneratedAt: snapshot.GeneratedAt,
		Count:       len(items),
		Dues:        items,
	})
}

// ForTenant returns the dues of one tenant
//
// @ID           tenantDues
// @Summary      Outstanding dues of one tenant
// @Tags         dues
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[dues.Due]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id}/dues [get]
func (h *DuesHandler) ForTenant(c *gin.Context) {
	tenantID, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}

	due, found := h.duesService.ForTenant(tenantID)
	if !found {
		h.NotFound(c, "No outstanding dues for tenant")
		return
	}
	h.Success(c, due)
}

// Totals returns the portfolio-wide outstanding amounts
//
// @ID           duesTotals
// @Summary      Dues totals
// @Tags         dues
// @Produce      json
// @Success      200 {object} APIResponse[dues.Totals]
// @Router       /dues/totals [get]
func (h *DuesHandler) Totals(c *gin.Context) {
	h.Success(c, h.duesService.Totals())
}

// Rebuild recomputes the snapshot now
//
// @ID           rebuildDues
// @Summary      Rebuild the dues snapshot
// @Tags         dues
// @Produce      json
// @Success      200 {object} APIResponse[shared.BatchResult]
// @Failure      500 {object} ErrorResponse
// @Router       /dues/rebuild [post]
func (h *DuesHandler) Rebuild(c *gin.Context) {
	result, err := h.duesService.Rebuild(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Reminders lists the overdue tenants to chase
//
// @ID           duesReminders
// @Summary      Payment reminders
// @Tags         dues
// @Produce      json
// @Success      200 {object} APIResponse[ReminderListResponse]
// @Router       /dues/reminders [get]
func (h *DuesHandler) Reminders(c *gin.Context) {
	reminders, _, err := h.duesService.CollectionReminders(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if reminders == nil {
		reminders = []duesapp.Reminder{}
	}
	h.Success(c, ReminderListResponse{Reminders: reminders, Count: len(reminders)})
}
