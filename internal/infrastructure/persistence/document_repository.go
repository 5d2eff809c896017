package persistence

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/document"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements document.Repository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	var model models.DocumentModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByOwner lists the owner's pending and active documents
func (r *GormDocumentRepository) FindByOwner(ctx context.Context, ownerType document.OwnerType, ownerID uuid.UUID) ([]document.Document, error) {
	var docModels []models.DocumentModel
	if err := dbFromContext(ctx, r.db).
		Where("owner_type = ? AND owner_id = ? AND status <> ?", ownerType, ownerID, document.StatusDeleted).
		Order("created_at ASC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	return documentsToDomain(docModels), nil
}

// CountActiveByOwner counts the owner's confirmed documents
func (r *GormDocumentRepository) CountActiveByOwner(ctx context.Context, ownerType document.OwnerType, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := dbFromContext(ctx, r.db).Model(&models.DocumentModel{}).
		Where("owner_type = ? AND owner_id = ? AND status = ?", ownerType, ownerID, document.StatusActive).
		Count(&count).Error
	return count, err
}

// FindPendingBefore lists stale pending uploads, oldest first
func (r *GormDocumentRepository) FindPendingBefore(ctx context.Context, t time.Time, limit int) ([]document.Document, error) {
	var docModels []models.DocumentModel
	if err := dbFromContext(ctx, r.db).
		Where("status = ? AND created_at < ?", document.StatusPending, t).
		Order("created_at ASC").
		Limit(limit).
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	return documentsToDomain(docModels), nil
}

// Save creates or updates a document
func (r *GormDocumentRepository) Save(ctx context.Context, d *document.Document) error {
	return dbFromContext(ctx, r.db).Save(models.DocumentModelFromDomain(d)).Error
}

// Delete removes the row of a document that never reached storage
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Delete(&models.DocumentModel{}, "id = ?", id).Error
}

func documentsToDomain(docModels []models.DocumentModel) []document.Document {
	docs := make([]document.Document, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs
}

// Ensure GormDocumentRepository implements document.Repository
var _ document.Repository = (*GormDocumentRepository)(nil)
