package handler

import (
	catalogapp "github.com/erp/rental/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// RoomHandler handles room, room type and catalog charge endpoints
type RoomHandler struct {
	BaseHandler
	roomService *catalogapp.RoomService
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(roomService *catalogapp.RoomService) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
	}
}

// RoomStatusRequest asks for a room status transition
type RoomStatusRequest struct {
	Action string `json:"action" binding:"required,oneof=book vacate maintenance"`
}

// CreateRoomType adds a room type
func (h *RoomHandler) CreateRoomType(c *gin.Context) {
	var req catalogapp.CreateRoomTypeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	roomType, err := h.roomService.CreateRoomType(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, roomType)
}

// ListRoomTypes returns every room type
func (h *RoomHandler) ListRoomTypes(c *gin.Context) {
	roomTypes, err := h.roomService.ListRoomTypes(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, roomTypes)
}

// Create adds a room to a flat
func (h *RoomHandler) Create(c *gin.Context) {
	var req catalogapp.CreateRoomRequest
	if !h.bindJSON(c, &req) {
		return
	}

	room, err := h.roomService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, room)
}

// GetByID returns one room
func (h *RoomHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "room")
	if !ok {
		return
	}

	room, err := h.roomService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, room)
}

// List returns a page of rooms, optionally within a property or flat
func (h *RoomHandler) List(c *gin.Context) {
	var filter catalogapp.RoomListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.PropertyID, ok = h.queryUUID(c, "property_id"); !ok {
		return
	}
	if filter.FlatID, ok = h.queryUUID(c, "flat_id"); !ok {
		return
	}

	page, err := h.roomService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	Paginated(c, page)
}

// UpdatePricing changes the rent, deposit and parking amounts of a room
func (h *RoomHandler) UpdatePricing(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "room")
	if !ok {
		return
	}
	var req catalogapp.UpdateRoomPricingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	room, err := h.roomService.UpdatePricing(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, room)
}

// ChangeStatus books, vacates or takes a room into maintenance
func (h *RoomHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "room")
	if !ok {
		return
	}
	var req RoomStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	room, err := h.roomService.ChangeStatus(c.Request.Context(), id, catalogapp.RoomAction(req.Action))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, room)
}

// Delete removes an unoccupied room
func (h *RoomHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "room")
	if !ok {
		return
	}

	if err := h.roomService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateCharge adds a catalog charge that agreements can carry
func (h *RoomHandler) CreateCharge(c *gin.Context) {
	var req catalogapp.CreateOtherChargeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	charge, err := h.roomService.CreateCharge(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, charge)
}

// ListCharges returns the active catalog charges
func (h *RoomHandler) ListCharges(c *gin.Context) {
	charges, err := h.roomService.ListActiveCharges(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, charges)
}

// DeactivateCharge retires a catalog charge
func (h *RoomHandler) DeactivateCharge(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "charge")
	if !ok {
		return
	}

	if err := h.roomService.DeactivateCharge(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
