// Package document keeps the files filed against agreements, tenants and
// collections: signed contracts, ID copies, cheque scans. The bytes live in
// object storage; a Document only records where.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// OwnerType is the kind of record a document is filed against
type OwnerType string

const (
	OwnerAgreement  OwnerType = "agreement"
	OwnerTenant     OwnerType = "tenant"
	OwnerCollection OwnerType = "collection"
)

// IsValid checks if the owner type is known
func (t OwnerType) IsValid() bool {
	switch t {
	case OwnerAgreement, OwnerTenant, OwnerCollection:
		return true
	}
	return false
}

// Kind describes what the file is
type Kind string

const (
	KindContract Kind = "contract"
	KindIDCopy   Kind = "id_copy"
	KindPassport Kind = "passport"
	KindCheque   Kind = "cheque"
	KindReceipt  Kind = "receipt"
	KindOther    Kind = "other"
)

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case KindContract, KindIDCopy, KindPassport, KindCheque, KindReceipt, KindOther:
		return true
	}
	return false
}

// Status tracks the upload
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

const maxFileNameLength = 255

// Document is a stored file. It starts pending while the client uploads to
// the presigned URL and becomes active once the object is confirmed.
type Document struct {
	shared.BaseAggregateRoot
	OwnerType   OwnerType
	OwnerID     uuid.UUID
	Kind        Kind
	Status      Status
	FileName    string
	FileSize    int64
	ContentType string
	StorageKey  string
	Description string
	ConfirmedAt *time.Time
	DeletedAt   *time.Time
}

// NewDocument creates a pending document. The storage key is derived from
// the owner and the document ID.
func NewDocument(ownerType OwnerType, ownerID uuid.UUID, kind Kind, fileName string, fileSize int64, contentType, description string) (*Document, error) {
	if !ownerType.IsValid() {
		return nil, shared.Errorf("INVALID_OWNER_TYPE", "Cannot attach documents to %s", ownerType)
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if kind == "" {
		kind = KindOther
	}
	if !kind.IsValid() {
		return nil, shared.Errorf("INVALID_KIND", "Unknown document kind %s", kind)
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" || len(fileName) > maxFileNameLength {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name must be 1 to 255 characters")
	}
	if strings.ContainsAny(fileName, `/\`) || strings.Contains(fileName, "..") {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot contain path separators")
	}
	if fileSize <= 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size must be positive")
	}
	if contentType == "" {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type is required")
	}

	d := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerType:         ownerType,
		OwnerID:           ownerID,
		Kind:              kind,
		Status:            StatusPending,
		FileName:          fileName,
		FileSize:          fileSize,
		ContentType:       contentType,
		Description:       strings.TrimSpace(description),
	}
	d.StorageKey = fmt.Sprintf("%ss/%s/%s/%s", ownerType, ownerID, d.ID, fileName)
	return d, nil
}

// Confirm activates the document once its object is in storage
func (d *Document) Confirm(now time.Time) error {
	switch d.Status {
	case StatusActive:
		return shared.NewDomainError("ALREADY_CONFIRMED", "Document is already confirmed")
	case StatusDeleted:
		return shared.NewDomainError("CANNOT_CONFIRM_DELETED", "Cannot confirm a deleted document")
	}
	d.Status = StatusActive
	d.ConfirmedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentConfirmedEvent(d))
	return nil
}

// Delete marks the document deleted. The row stays for the audit trail.
func (d *Document) Delete(now time.Time) error {
	if d.Status == StatusDeleted {
		return shared.NewDomainError("ALREADY_DELETED", "Document is already deleted")
	}
	d.Status = StatusDeleted
	d.DeletedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	return nil
}

// IsActive reports whether the upload was confirmed and not deleted
func (d *Document) IsActive() bool {
	return d.Status == StatusActive
}
