// Package documentapp files scanned contracts, IDs and cheques against the
// ledger records. Clients upload straight to object storage through
// presigned URLs; the service only tracks the objects.
package documentapp

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/document"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobCleanupPendingUploads names the maintenance job removing abandoned uploads
const JobCleanupPendingUploads = "cleanup_pending_uploads"

// AllowedContentTypes is the upload whitelist. SVG is left out since it can
// carry script.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/webp":         true,
	"image/tiff":         true,
	"image/heic":         true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
	"text/csv":   true,
}

// ObjectStorage is where document bytes live
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// Config holds the dependencies and limits of Service
type Config struct {
	Documents   document.Repository
	Agreements  agreement.Repository
	Tenants     tenant.Repository
	Collections collection.Repository
	Storage     ObjectStorage
	Clock       calendar.Clock
	Logger      *zap.Logger

	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
	MaxPerOwner       int
	MaxFileSize       int64
}

// Service manages documents
type Service struct {
	documents   document.Repository
	agreements  agreement.Repository
	tenants     tenant.Repository
	collections collection.Repository
	storage     ObjectStorage
	clock       calendar.Clock
	logger      *zap.Logger

	uploadExpiry   time.Duration
	downloadExpiry time.Duration
	maxPerOwner    int
	maxFileSize    int64
}

// NewService creates the document service. Zero limits take the defaults:
// 15 minute upload URLs, 1 hour download URLs, 50 documents per owner and
// 20MB files.
func NewService(cfg Config) *Service {
	s := &Service{
		documents:      cfg.Documents,
		agreements:     cfg.Agreements,
		tenants:        cfg.Tenants,
		collections:    cfg.Collections,
		storage:        cfg.Storage,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		uploadExpiry:   cfg.UploadURLExpiry,
		downloadExpiry: cfg.DownloadURLExpiry,
		maxPerOwner:    cfg.MaxPerOwner,
		maxFileSize:    cfg.MaxFileSize,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.uploadExpiry <= 0 {
		s.uploadExpiry = 15 * time.Minute
	}
	if s.downloadExpiry <= 0 {
		s.downloadExpiry = time.Hour
	}
	if s.maxPerOwner <= 0 {
		s.maxPerOwner = 50
	}
	if s.maxFileSize <= 0 {
		s.maxFileSize = 20 << 20
	}
	return s
}

// InitiateUpload records a pending document and returns where to PUT the file
func (s *Service) InitiateUpload(ctx context.Context, req InitiateUploadRequest) (*InitiateUploadResponse, error) {
	ownerType := document.OwnerType(req.OwnerType)
	if err := s.ensureOwner(ctx, ownerType, req.OwnerID); err != nil {
		return nil, err
	}

	contentType := normalizeContentType(req.ContentType)
	if !AllowedContentTypes[contentType] {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE",
			fmt.Sprintf("Content type '%s' is not allowed. Upload images, PDF, Office documents or text files.", req.ContentType))
	}
	if req.FileSize > s.maxFileSize {
		return nil, shared.NewDomainError("EXCEEDS_MAX_FILE_SIZE",
			fmt.Sprintf("File exceeds the %dMB limit", s.maxFileSize>>20))
	}

	count, err := s.documents.CountActiveByOwner(ctx, ownerType, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.maxPerOwner) {
		return nil, shared.NewDomainError("EXCEEDS_DOCUMENT_LIMIT",
			fmt.Sprintf("At most %d documents can be filed per %s", s.maxPerOwner, ownerType))
	}

	d, err := document.NewDocument(ownerType, req.OwnerID, document.Kind(req.Kind), req.FileName, req.FileSize, contentType, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.documents.Save(ctx, d); err != nil {
		return nil, err
	}

	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, d.StorageKey, contentType, s.uploadExpiry)
	if err != nil {
		s.logger.Error("upload url failed", zap.String("document_id", d.ID.String()), zap.Error(err))
		if derr := s.documents.Delete(ctx, d.ID); derr != nil {
			s.logger.Warn("pending document left behind", zap.String("document_id", d.ID.String()), zap.Error(derr))
		}
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	return &InitiateUploadResponse{
		DocumentID: d.ID,
		UploadURL:  url,
		ExpiresAt:  expiresAt,
		StorageKey: d.StorageKey,
	}, nil
}

// ConfirmUpload activates a document once its object is in storage
func (s *Service) ConfirmUpload(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, d.StorageKey)
	if err != nil {
		s.logger.Error("storage check failed", zap.String("storage_key", d.StorageKey), zap.Error(err))
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Failed to verify upload")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND", "File not found in storage. Upload the file first.")
	}
	if err := d.Confirm(s.clock()); err != nil {
		return nil, err
	}
	if err := s.documents.Save(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("document confirmed",
		zap.String("document_id", d.ID.String()),
		zap.String("owner_type", string(d.OwnerType)),
		zap.String("owner_id", d.OwnerID.String()))
	return s.withURL(ctx, d), nil
}

// GetByID returns a document with a download URL when it is active
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withURL(ctx, d), nil
}

// ListByOwner returns an owner's documents, oldest first
func (s *Service) ListByOwner(ctx context.Context, ownerType document.OwnerType, ownerID uuid.UUID) ([]DocumentResponse, error) {
	if err := s.ensureOwner(ctx, ownerType, ownerID); err != nil {
		return nil, err
	}
	docs, err := s.documents.FindByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = *s.withURL(ctx, &docs[i])
	}
	return out, nil
}

// Delete marks a document deleted and removes its object. A storage
// failure is logged; the object is then orphaned but unreachable.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := d.Delete(s.clock()); err != nil {
		return err
	}
	if err := s.documents.Save(ctx, d); err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, d.StorageKey); err != nil {
		s.logger.Warn("failed to delete document object",
			zap.String("document_id", d.ID.String()),
			zap.String("storage_key", d.StorageKey),
			zap.Error(err))
	}
	return nil
}

// pendingBatch bounds one cleanup pass
const pendingBatch = 500

// CleanupPendingUploads drops documents whose upload URL expired without a
// confirmation, along with any partial object
func (s *Service) CleanupPendingUploads(ctx context.Context) (*shared.BatchResult, error) {
	result := shared.NewBatchResult(JobCleanupPendingUploads)
	stale, err := s.documents.FindPendingBefore(ctx, s.clock().Add(-s.uploadExpiry), pendingBatch)
	if err != nil {
		return nil, err
	}
	for i := range stale {
		d := &stale[i]
		err := s.storage.DeleteObject(ctx, d.StorageKey)
		if err == nil {
			err = s.documents.Delete(ctx, d.ID)
		}
		result.Record(d.ID.String(), err)
	}
	if result.Processed > 0 {
		s.logger.Info("pending uploads cleaned", zap.Int("processed", result.Processed), zap.Int("failed", result.Failed))
	}
	return result, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	d, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
		}
		return nil, err
	}
	return d, nil
}

// ensureOwner checks the record the document is filed against exists
func (s *Service) ensureOwner(ctx context.Context, ownerType document.OwnerType, ownerID uuid.UUID) error {
	var err error
	switch ownerType {
	case document.OwnerAgreement:
		_, err = s.agreements.FindByID(ctx, ownerID)
	case document.OwnerTenant:
		_, err = s.tenants.FindByID(ctx, ownerID)
	case document.OwnerCollection:
		_, err = s.collections.FindByID(ctx, ownerID)
	default:
		return shared.Errorf("INVALID_OWNER_TYPE", "Cannot attach documents to %s", ownerType)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return shared.Errorf("OWNER_NOT_FOUND", "%s not found", ownerType)
	}
	return err
}

func (s *Service) withURL(ctx context.Context, d *document.Document) *DocumentResponse {
	resp := ToDocumentResponse(d)
	if !d.IsActive() {
		return &resp
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, d.StorageKey, s.downloadExpiry)
	if err != nil {
		s.logger.Warn("download url failed", zap.String("document_id", d.ID.String()), zap.Error(err))
		return &resp
	}
	resp.DownloadURL = url
	resp.DownloadExpiresAt = &expiresAt
	return &resp
}

// normalizeContentType drops parameters such as "; charset=utf-8"
func normalizeContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mediaType
}
