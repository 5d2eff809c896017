package handler

import (
	"net/http"
	"strconv"

	importapp "github.com/erp/rental/internal/application/import"
	csvimport "github.com/erp/rental/internal/infrastructure/import"
	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const defaultMaxImportFileSize = 10 << 20

// csvContentTypes are the upload types browsers and spreadsheet tools send
// for CSV exports
var csvContentTypes = map[string]bool{
	"":                         true,
	"text/csv":                 true,
	"text/plain":               true,
	"application/csv":          true,
	"application/octet-stream": true,
	"application/vnd.ms-excel": true,
}

// ImportHandler handles spreadsheet import endpoints
type ImportHandler struct {
	BaseHandler
	importService *importapp.Service
	maxFileSize   int64
}

// NewImportHandler creates a new ImportHandler. A non-positive maxFileSize
// means 10MB.
func NewImportHandler(importService *importapp.Service, maxFileSize int64) *ImportHandler {
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxImportFileSize
	}
	return &ImportHandler{
		importService: importService,
		maxFileSize:   maxFileSize,
	}
}

// Validate checks an uploaded CSV file and opens an import session.
// Form fields: entity_type, conflict_mode (skip, update or fail) and file.
func (h *ImportHandler) Validate(c *gin.Context) {
	entity := csvimport.EntityType(c.PostForm("entity_type"))
	if !csvimport.IsValidEntityType(string(entity)) {
		h.BadRequest(c, "entity_type must be one of properties, flats, rooms, tenants, agreements")
		return
	}
	mode := csvimport.ConflictMode(c.DefaultPostForm("conflict_mode", string(csvimport.ConflictModeSkip)))

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation,
			"file exceeds maximum size of "+strconv.FormatInt(h.maxFileSize>>20, 10)+"MB")
		return
	}
	if !csvContentTypes[header.Header.Get("Content-Type")] {
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return
	}

	session, err := h.importService.Validate(c.Request.Context(), entity, mode, header.Filename, header.Size, file)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, session)
}

// Run imports the rows of a validated session
func (h *ImportHandler) Run(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "import session")
	if !ok {
		return
	}

	result, err := h.importService.Import(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByID returns one import session
func (h *ImportHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "import session")
	if !ok {
		return
	}

	session, err := h.importService.Session(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, session)
}

// List returns the most recent import sessions
func (h *ImportHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		h.BadRequest(c, "limit must be between 1 and 100")
		return
	}

	sessions, err := h.importService.Sessions(c.Request.Context(), limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sessions)
}
