package persistence

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/collection"
	"gorm.io/gorm"
)

// Document number prefixes
const (
	PrefixAgreement = "AGR"
	PrefixReceipt   = "RCPT"
	PrefixInvoice   = "INV"
	PrefixPayment   = "PAY"
)

// GormNumberGenerator issues document numbers of the form
// PREFIX-YYYYMMDD-NNNNN, counting per prefix and day
type GormNumberGenerator struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewGormNumberGenerator creates a new GormNumberGenerator
func NewGormNumberGenerator(db *gorm.DB) *GormNumberGenerator {
	return &GormNumberGenerator{db: db}
}

// NextAgreementNumber returns the next AGR number for the day of at
func (g *GormNumberGenerator) NextAgreementNumber(ctx context.Context, at time.Time) (string, error) {
	return g.next(ctx, "agreements", "number", PrefixAgreement, at)
}

// NextReceiptNumber returns the next RCPT number for the day of at
func (g *GormNumberGenerator) NextReceiptNumber(ctx context.Context, at time.Time) (string, error) {
	return g.next(ctx, "collections", "receipt_number", PrefixReceipt, at)
}

// NextInvoiceNumber returns the next INV number for the day of at
func (g *GormNumberGenerator) NextInvoiceNumber(ctx context.Context, at time.Time) (string, error) {
	return g.next(ctx, "invoices", "number", PrefixInvoice, at)
}

// NextPaymentNumber returns the next PAY number for the day of at
func (g *GormNumberGenerator) NextPaymentNumber(ctx context.Context, at time.Time) (string, error) {
	return g.next(ctx, "payments", "number", PrefixPayment, at)
}

func (g *GormNumberGenerator) next(ctx context.Context, table, column, prefix string, at time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	stem := fmt.Sprintf("%s-%s-", prefix, at.UTC().Format("20060102"))

	// Get the highest number issued today
	var numbers []string
	if err := dbFromContext(ctx, g.db).
		Table(table).
		Where(column+" LIKE ?", stem+"%").
		Order(column+" DESC").
		Limit(1).
		Pluck(column, &numbers).Error; err != nil {
		return "", err
	}

	var nextNum int64 = 1
	if len(numbers) > 0 {
		parts := strings.Split(numbers[0], "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", stem, nextNum), nil
}

var (
	_ agreement.NumberGenerator         = (*GormNumberGenerator)(nil)
	_ collection.ReceiptNumberGenerator = (*GormNumberGenerator)(nil)
	_ billing.NumberGenerator           = (*GormNumberGenerator)(nil)
)
