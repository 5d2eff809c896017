package handler

import (
	agreementapp "github.com/erp/rental/internal/application/agreement"
	"github.com/gin-gonic/gin"
)

// AgreementHandler handles the agreement lifecycle endpoints
type AgreementHandler struct {
	BaseHandler
	agreementService *agreementapp.AgreementService
}

// NewAgreementHandler creates a new AgreementHandler
func NewAgreementHandler(agreementService *agreementapp.AgreementService) *AgreementHandler {
	return &AgreementHandler{
		agreementService: agreementService,
	}
}

// Create drafts an agreement between a tenant and a room
//
// @ID           createAgreement
// @Summary      Draft an agreement
// @Tags         agreements
// @Accept       json
// @Produce      json
// @Param        request body agreementapp.CreateAgreementRequest true "Agreement"
// @Success      201 {object} APIResponse[agreementapp.AgreementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements [post]
func (h *AgreementHandler) Create(c *gin.Context) {
	var req agreementapp.CreateAgreementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	agreement, err := h.agreementService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, agreement)
}

// GetByID returns one agreement
//
// @ID           getAgreementById
// @Summary      Get agreement by ID
// @Tags         agreements
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Success      200 {object} APIResponse[agreementapp.AgreementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /agreements/{id} [get]
func (h *AgreementHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}

	agreement, err := h.agreementService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}

// List returns a page of agreements
//
// @ID           listAgreements
// @Summary      List agreements
// @Tags         agreements
// @Produce      json
// @Param        tenant_id query string false "Tenant ID" format(uuid)
// @Param        room_id query string false "Room ID" format(uuid)
// @Param        status query string false "Agreement status"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]agreementapp.AgreementResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /agreements [get]
func (h *AgreementHandler) List(c *gin.Context) {
	var filter agreementapp.AgreementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.TenantID, ok = h.queryUUID(c, "tenant_id"); !ok {
		return
	}
	if filter.RoomID, ok = h.queryUUID(c, "room_id"); !ok {
		return
	}

	page, err := h.agreementService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	Paginated(c, page)
}

// Update amends an agreement
//
// @ID           updateAgreement
// @Summary      Update an agreement
// @Tags         agreements
// @Accept       json
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Param        request body agreementapp.UpdateAgreementRequest true "Changes"
// @Success      200 {object} APIResponse[agreementapp.AgreementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements/{id} [put]
func (h *AgreementHandler) Update(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}
	var req agreementapp.UpdateAgreementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	agreement, err := h.agreementService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}

// Delete removes a draft or cancelled agreement
//
// @ID           deleteAgreement
// @Summary      Delete an agreement
// @Tags         agreements
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Success      204 "No Content"
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements/{id} [delete]
func (h *AgreementHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}

	if err := h.agreementService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Activate moves the tenant into the room and posts the opening entries
//
// @ID           activateAgreement
// @Summary      Activate an agreement
// @Tags         agreements
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Success      200 {object} APIResponse[agreementapp.AgreementResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements/{id}/activate [post]
func (h *AgreementHandler) Activate(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}

	agreement, err := h.agreementService.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}

// Terminate ends an active agreement early and frees the room
//
// @ID           terminateAgreement
// @Summary      Terminate an agreement
// @Tags         agreements
// @Accept       json
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Param        request body agreementapp.TerminateRequest false "Reason"
// @Success      200 {object} APIResponse[agreementapp.AgreementResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements/{id}/terminate [post]
func (h *AgreementHandler) Terminate(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}
	var req agreementapp.TerminateRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	agreement, err := h.agreementService.Terminate(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}

// Cancel cancels a draft agreement
//
// @ID           cancelAgreement
// @Summary      Cancel a draft agreement
// @Tags         agreements
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Success      200 {object} APIResponse[agreementapp.AgreementResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements/{id}/cancel [post]
func (h *AgreementHandler) Cancel(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}

	agreement, err := h.agreementService.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}

// Renew drafts the follow-on agreement of an ending one
//
// @ID           renewAgreement
// @Summary      Renew an agreement
// @Tags         agreements
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Success      201 {object} APIResponse[agreementapp.AgreementResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements/{id}/renew [post]
func (h *AgreementHandler) Renew(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}

	agreement, err := h.agreementService.Renew(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, agreement)
}

// CleanAndTerminate wipes what was posted under an agreement and ends it
//
// @ID           cleanTerminateAgreement
// @Summary      Wipe postings and terminate
// @Tags         agreements
// @Accept       json
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Param        request body agreementapp.TerminateRequest false "Reason"
// @Success      200 {object} APIResponse[shared.BatchResult]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /agreements/{id}/clean-terminate [post]
func (h *AgreementHandler) CleanAndTerminate(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "agreement")
	if !ok {
		return
	}
	var req agreementapp.TerminateRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.agreementService.CleanAndTerminate(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
