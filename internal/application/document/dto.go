package documentapp

import (
	"time"

	"github.com/erp/rental/internal/domain/document"
	"github.com/google/uuid"
)

// InitiateUploadRequest asks for a presigned upload URL
type InitiateUploadRequest struct {
	OwnerType   string    `json:"owner_type" binding:"required,oneof=agreement tenant collection"`
	OwnerID     uuid.UUID `json:"owner_id" binding:"required"`
	Kind        string    `json:"kind" binding:"omitempty,oneof=contract id_copy passport cheque receipt other"`
	FileName    string    `json:"file_name" binding:"required,min=1,max=255"`
	FileSize    int64     `json:"file_size" binding:"required,min=1"`
	ContentType string    `json:"content_type" binding:"required"`
	Description string    `json:"description" binding:"max=500"`
}

// InitiateUploadResponse tells the client where to PUT the file
type InitiateUploadResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
	StorageKey string    `json:"storage_key"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID                uuid.UUID  `json:"id"`
	OwnerType         string     `json:"owner_type"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	Kind              string     `json:"kind"`
	Status            string     `json:"status"`
	FileName          string     `json:"file_name"`
	FileSize          int64      `json:"file_size"`
	ContentType       string     `json:"content_type"`
	Description       string     `json:"description,omitempty"`
	DownloadURL       string     `json:"download_url,omitempty"`
	DownloadExpiresAt *time.Time `json:"download_expires_at,omitempty"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToDocumentResponse converts a domain document
func ToDocumentResponse(d *document.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		OwnerType:   string(d.OwnerType),
		OwnerID:     d.OwnerID,
		Kind:        string(d.Kind),
		Status:      string(d.Status),
		FileName:    d.FileName,
		FileSize:    d.FileSize,
		ContentType: d.ContentType,
		Description: d.Description,
		ConfirmedAt: d.ConfirmedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
