package models

import (
	"time"

	"github.com/erp/rental/internal/domain/document"
	"github.com/google/uuid"
)

// DocumentModel is the persistence model for the Document domain entity.
type DocumentModel struct {
	AggregateModel
	OwnerType   document.OwnerType `gorm:"type:varchar(20);not null;index:idx_documents_owner,priority:1"`
	OwnerID     uuid.UUID          `gorm:"type:uuid;not null;index:idx_documents_owner,priority:2"`
	Kind        document.Kind      `gorm:"type:varchar(20);not null;default:'other'"`
	Status      document.Status    `gorm:"type:varchar(20);not null;default:'pending';index"`
	FileName    string             `gorm:"type:varchar(255);not null"`
	FileSize    int64              `gorm:"not null"`
	ContentType string             `gorm:"type:varchar(100);not null"`
	StorageKey  string             `gorm:"type:varchar(512);not null;uniqueIndex"`
	Description string             `gorm:"type:text"`
	ConfirmedAt *time.Time         `gorm:""`
	DeletedAt   *time.Time         `gorm:""`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document entity.
func (m *DocumentModel) ToDomain() *document.Document {
	return &document.Document{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OwnerType:         m.OwnerType,
		OwnerID:           m.OwnerID,
		Kind:              m.Kind,
		Status:            m.Status,
		FileName:          m.FileName,
		FileSize:          m.FileSize,
		ContentType:       m.ContentType,
		StorageKey:        m.StorageKey,
		Description:       m.Description,
		ConfirmedAt:       m.ConfirmedAt,
		DeletedAt:         m.DeletedAt,
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document entity.
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{
		OwnerType:   d.OwnerType,
		OwnerID:     d.OwnerID,
		Kind:        d.Kind,
		Status:      d.Status,
		FileName:    d.FileName,
		FileSize:    d.FileSize,
		ContentType: d.ContentType,
		StorageKey:  d.StorageKey,
		Description: d.Description,
		ConfirmedAt: d.ConfirmedAt,
		DeletedAt:   d.DeletedAt,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}
