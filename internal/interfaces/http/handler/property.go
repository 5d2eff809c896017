package handler

import (
	catalogapp "github.com/erp/rental/internal/application/catalog"
	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PropertyHandler handles property and flat endpoints
type PropertyHandler struct {
	BaseHandler
	propertyService *catalogapp.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler
func NewPropertyHandler(propertyService *catalogapp.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
	}
}

// Create adds a property
func (h *PropertyHandler) Create(c *gin.Context) {
	var req catalogapp.CreatePropertyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	property, err := h.propertyService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, property)
}

// GetByID returns one property
func (h *PropertyHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "property")
	if !ok {
		return
	}

	property, err := h.propertyService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, property)
}

// List returns a page of properties
func (h *PropertyHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.propertyService.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	Paginated(c, page)
}

// Update changes a property's details
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "property")
	if !ok {
		return
	}
	var req catalogapp.UpdatePropertyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	property, err := h.propertyService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, property)
}

// Delete removes a property without flats
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "property")
	if !ok {
		return
	}

	if err := h.propertyService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateFlat adds a flat to a property
func (h *PropertyHandler) CreateFlat(c *gin.Context) {
	propertyID, ok := h.paramUUID(c, "id", "property")
	if !ok {
		return
	}
	var req catalogapp.CreateFlatRequest
	if !h.bindJSON(c, &req) {
		return
	}

	flat, err := h.propertyService.CreateFlat(c.Request.Context(), propertyID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, flat)
}

// ListFlats returns the flats of a property
func (h *PropertyHandler) ListFlats(c *gin.Context) {
	propertyID, ok := h.paramUUID(c, "id", "property")
	if !ok {
		return
	}

	flats, err := h.propertyService.ListFlats(c.Request.Context(), propertyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, flats)
}

// DeleteFlat removes a flat without rooms
func (h *PropertyHandler) DeleteFlat(c *gin.Context) {
	id, ok := h.paramUUID(c, "flat_id", "flat")
	if !ok {
		return
	}

	if err := h.propertyService.DeleteFlat(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
