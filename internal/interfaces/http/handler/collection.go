package handler

import (
	"strconv"

	collectionapp "github.com/erp/rental/internal/application/collection"
	"github.com/gin-gonic/gin"
)

const (
	defaultRecentCollections = 10
	maxRecentCollections     = 100
)

// CollectionHandler handles the endpoints for money received from tenants
type CollectionHandler struct {
	BaseHandler
	collectionService *collectionapp.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(collectionService *collectionapp.CollectionService) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
	}
}

// Create records a collection
//
// @ID           createCollection
// @Summary      Record a collection
// @Tags         collections
// @Accept       json
// @Produce      json
// @Param        request body collectionapp.CreateCollectionRequest true "Collection"
// @Success      201 {object} APIResponse[collectionapp.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /collections [post]
func (h *CollectionHandler) Create(c *gin.Context) {
	var req collectionapp.CreateCollectionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	collection, err := h.collectionService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, collection)
}

// GetByID returns one collection
//
// @ID           getCollectionById
// @Summary      Get collection by ID
// @Tags         collections
// @Produce      json
// @Param        id path string true "Collection ID" format(uuid)
// @Success      200 {object} APIResponse[collectionapp.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /collections/{id} [get]
func (h *CollectionHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "collection")
	if !ok {
		return
	}

	collection, err := h.collectionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, collection)
}

// List returns a page of collections
//
// @ID           listCollections
// @Summary      List collections
// @Tags         collections
// @Produce      json
// @Param        tenant_id query string false "Tenant ID" format(uuid)
// @Param        agreement_id query string false "Agreement ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]collectionapp.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /collections [get]
func (h *CollectionHandler) List(c *gin.Context) {
	var filter collectionapp.CollectionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.TenantID, ok = h.queryUUID(c, "tenant_id"); !ok {
		return
	}
	if filter.AgreementID, ok = h.queryUUID(c, "agreement_id"); !ok {
		return
	}

	page, err := h.collectionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	Paginated(c, page)
}

// Update edits the free-text fields of a collection
//
// @ID           updateCollection
// @Summary      Update collection notes
// @Tags         collections
// @Accept       json
// @Produce      json
// @Param        id path string true "Collection ID" format(uuid)
// @Param        request body collectionapp.UpdateCollectionRequest true "Changes"
// @Success      200 {object} APIResponse[collectionapp.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /collections/{id} [put]
func (h *CollectionHandler) Update(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "collection")
	if !ok {
		return
	}
	var req collectionapp.UpdateCollectionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	collection, err := h.collectionService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, collection)
}

// ChangeStatus moves a collection through collect, verify and deposit
//
// @ID           changeCollectionStatus
// @Summary      Move a collection to its next status
// @Tags         collections
// @Accept       json
// @Produce      json
// @Param        id path string true "Collection ID" format(uuid)
// @Param        request body collectionapp.StatusAction true "Action"
// @Success      200 {object} APIResponse[collectionapp.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /collections/{id}/status [post]
func (h *CollectionHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "collection")
	if !ok {
		return
	}
	var req collectionapp.StatusAction
	if !h.bindJSON(c, &req) {
		return
	}

	collection, err := h.collectionService.ChangeStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, collection)
}

// Cancel cancels a collection and reverses its statement entry
//
// @ID           cancelCollection
// @Summary      Cancel a collection
// @Tags         collections
// @Produce      json
// @Param        id path string true "Collection ID" format(uuid)
// @Success      200 {object} APIResponse[collectionapp.CollectionResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /collections/{id}/cancel [post]
func (h *CollectionHandler) Cancel(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "collection")
	if !ok {
		return
	}

	collection, err := h.collectionService.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, collection)
}

// Delete removes a collection
//
// @ID           deleteCollection
// @Summary      Delete a collection
// @Tags         collections
// @Produce      json
// @Param        id path string true "Collection ID" format(uuid)
// @Success      204 "No Content"
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /collections/{id} [delete]
func (h *CollectionHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "collection")
	if !ok {
		return
	}

	if err := h.collectionService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Recent returns the latest collections; ?limit caps the count
//
// @ID           recentCollections
// @Summary      Latest collections
// @Tags         collections
// @Produce      json
// @Param        limit query int false "How many" default(10) maximum(100)
// @Success      200 {object} APIResponse[[]collectionapp.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /collections/recent [get]
func (h *CollectionHandler) Recent(c *gin.Context) {
	limit := defaultRecentCollections
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentCollections {
			h.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	collections, err := h.collectionService.RecentCollections(c.Request.Context(), limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, collections)
}
