package handler

import (
	tenantapp "github.com/erp/rental/internal/application/tenant"
	"github.com/gin-gonic/gin"
)

// TenantHandler handles tenant, occupant and agent endpoints
type TenantHandler struct {
	BaseHandler
	tenantService *tenantapp.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *tenantapp.TenantService) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
	}
}

// TenantStatusRequest asks for a tenant status transition
type TenantStatusRequest struct {
	Action string `json:"action" binding:"required,oneof=activate deactivate blacklist"`
}

// Create registers a tenant
//
// @ID           createTenant
// @Summary      Create a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body tenantapp.CreateTenantRequest true "Tenant"
// @Success      201 {object} APIResponse[tenantapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var req tenantapp.CreateTenantRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tenant, err := h.tenantService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, tenant)
}

// GetByID returns one tenant
//
// @ID           getTenantById
// @Summary      Get tenant by ID
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[tenantapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id} [get]
func (h *TenantHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}

	tenant, err := h.tenantService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, tenant)
}

// List returns a page of tenants
//
// @ID           listTenants
// @Summary      List tenants
// @Tags         tenants
// @Produce      json
// @Param        search query string false "Name or mobile"
// @Param        status query string false "Tenant status"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]tenantapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	var filter tenantapp.TenantListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.tenantService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	Paginated(c, page)
}

// Update changes a tenant's contact details
//
// @ID           updateTenant
// @Summary      Update a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body tenantapp.UpdateTenantRequest true "Changes"
// @Success      200 {object} APIResponse[tenantapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /tenants/{id} [put]
func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}
	var req tenantapp.UpdateTenantRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tenant, err := h.tenantService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, tenant)
}

// ChangeStatus activates, deactivates or blacklists a tenant
//
// @ID           changeTenantStatus
// @Summary      Change tenant status
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body tenantapp.StatusAction true "Action"
// @Success      200 {object} APIResponse[tenantapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /tenants/{id}/status [post]
func (h *TenantHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}
	var req TenantStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tenant, err := h.tenantService.ChangeStatus(c.Request.Context(), id, tenantapp.StatusAction(req.Action))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, tenant)
}

// Delete removes a tenant without agreements
//
// @ID           deleteTenant
// @Summary      Delete a tenant
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      204 "No Content"
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /tenants/{id} [delete]
func (h *TenantHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}

	if err := h.tenantService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// AddOccupant records a person living under an agreement
//
// @ID           addOccupant
// @Summary      Add an occupant to an agreement
// @Tags         agreements
// @Accept       json
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Param        request body tenantapp.AddOccupantRequest true "Occupant"
// @Success      201 {object} APIResponse[tenantapp.OccupantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements/{id}/occupants [post]
func (h *TenantHandler) AddOccupant(c *gin.Context) {
	agreementID, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}
	var req tenantapp.AddOccupantRequest
	if !h.bindJSON(c, &req) {
		return
	}

	occupant, err := h.tenantService.AddOccupant(c.Request.Context(), agreementID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, occupant)
}

// ListOccupants returns the occupants of an agreement
//
// @ID           listOccupants
// @Summary      List the occupants of an agreement
// @Tags         agreements
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Success      200 {object} APIResponse[[]tenantapp.OccupantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /agreements/{id}/occupants [get]
func (h *TenantHandler) ListOccupants(c *gin.Context) {
	agreementID, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}

	occupants, err := h.tenantService.ListOccupants(c.Request.Context(), agreementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, occupants)
}

// RemoveOccupant deletes an occupant record
//
// @ID           removeOccupant
// @Summary      Remove an occupant
// @Tags         agreements
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Param        occupant_id path string true "Occupant ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /agreements/{id}/occupants/{occupant_id} [delete]
func (h *TenantHandler) RemoveOccupant(c *gin.Context) {
	id, ok := h.paramUUID(c, "occupant_id", "occupant")
	if !ok {
		return
	}

	if err := h.tenantService.RemoveOccupant(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateAgent registers an agent that brings in tenants
//
// @ID           createAgent
// @Summary      Create an agent
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        request body tenantapp.CreateAgentRequest true "Agent"
// @Success      201 {object} APIResponse[tenantapp.AgentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /agents [post]
func (h *TenantHandler) CreateAgent(c *gin.Context) {
	var req tenantapp.CreateAgentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	agent, err := h.tenantService.CreateAgent(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, agent)
}

// ListAgents returns every agent
//
// @ID           listAgents
// @Summary      List agents
// @Tags         agents
// @Produce      json
// @Success      200 {object} APIResponse[[]tenantapp.AgentResponse]
// @Router       /agents [get]
func (h *TenantHandler) ListAgents(c *gin.Context) {
	agents, err := h.tenantService.ListAgents(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agents)
}
