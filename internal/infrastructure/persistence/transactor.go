package persistence

import (
	"context"

	"github.com/erp/rental/internal/domain/shared"
	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactor implements shared.Transactor using GORM transactions.
// The open transaction travels in the context, so every repository called
// with that context joins it. A nested call runs in a savepoint.
type GormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor creates a new GormTransactor.
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// WithinTransaction runs fn within a database transaction.
// If fn returns an error, the transaction (or savepoint) is rolled back.
func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db := dbFromContext(ctx, t.db)
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFromContext returns the transaction carried by ctx, or fallback bound to ctx
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

// Ensure GormTransactor implements Transactor
var _ shared.Transactor = (*GormTransactor)(nil)
