package handler

import (
	documentapp "github.com/erp/rental/internal/application/document"
	"github.com/erp/rental/internal/domain/document"
	"github.com/gin-gonic/gin"
)

// DocumentHandler handles document upload endpoints. File bytes never pass
// through here; clients PUT them to the presigned URL.
type DocumentHandler struct {
	BaseHandler
	documentService *documentapp.Service
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *documentapp.Service) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// InitiateUpload creates a pending document and returns the upload URL
func (h *DocumentHandler) InitiateUpload(c *gin.Context) {
	var req documentapp.InitiateUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.documentService.InitiateUpload(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// ConfirmUpload activates a document after the client finished uploading
func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "document")
	if !ok {
		return
	}

	doc, err := h.documentService.ConfirmUpload(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, doc)
}

// GetByID returns one document
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "document")
	if !ok {
		return
	}

	doc, err := h.documentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, doc)
}

// ListByOwner returns the documents filed against ?owner_type=&owner_id=
func (h *DocumentHandler) ListByOwner(c *gin.Context) {
	ownerType := document.OwnerType(c.Query("owner_type"))
	if !ownerType.IsValid() {
		h.BadRequest(c, "owner_type must be one of agreement, tenant, collection")
		return
	}
	ownerID, ok := h.queryUUID(c, "owner_id")
	if !ok {
		return
	}
	if ownerID == nil {
		h.BadRequest(c, "owner_id is required")
		return
	}

	docs, err := h.documentService.ListByOwner(c.Request.Context(), ownerType, *ownerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, docs)
}

// Delete removes a document and its file
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "document")
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
