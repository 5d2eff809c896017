package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/erp/rental/internal/domain/ledger"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const ledgerOrder = "transaction_date ASC, sequence ASC, id ASC"

// sequencer hands out strictly increasing statement sequences. Values start
// from the wall clock in microseconds so they keep increasing across
// restarts, and never fall below what the store already holds.
type sequencer struct {
	mu   sync.Mutex
	last int64
}

var entrySequence = &sequencer{}

func (s *sequencer) next(floor int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := time.Now().UnixMicro()
	if floor >= n {
		n = floor + 1
	}
	if s.last >= n {
		n = s.last + 1
	}
	s.last = n
	return n
}

// GormLedgerRepository implements ledger.Repository using GORM
type GormLedgerRepository struct {
	db       *gorm.DB
	seedOnce sync.Once
	seed     int64
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindByID finds an entry by its ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StatementEntry, error) {
	var model models.StatementEntryModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsByReference reports whether the tenant already has an entry with this reference
func (r *GormLedgerRepository) ExistsByReference(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.StatementEntryModel{}).
		Where("tenant_id = ? AND reference = ?", tenantID, reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByCollection reports whether a collection already has its entry
func (r *GormLedgerRepository) ExistsByCollection(ctx context.Context, collectionID uuid.UUID) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.StatementEntryModel{}).
		Where("collection_id = ?", collectionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the entry and assigns its sequence. A clash on
// (tenant, reference) or collection returns shared.ErrDuplicateEntry and
// leaves an enclosing transaction usable.
func (r *GormLedgerRepository) Create(ctx context.Context, e *ledger.StatementEntry) error {
	db := dbFromContext(ctx, r.db)
	r.seedOnce.Do(func() {
		var result struct {
			Max int64
		}
		if err := db.Model(&models.StatementEntryModel{}).
			Select("COALESCE(MAX(sequence), 0) as max").
			Scan(&result).Error; err == nil {
			r.seed = result.Max
		}
	})

	e.Sequence = entrySequence.next(r.seed)
	model := models.StatementEntryModelFromDomain(e)
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateEntry
		}
		return err
	}
	return nil
}

// FindByTenant returns all entries of a tenant in ledger order
func (r *GormLedgerRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]*ledger.StatementEntry, error) {
	var entryModels []models.StatementEntryModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order(ledgerOrder).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toEntries(entryModels), nil
}

// FindByTenantBetween returns the tenant's entries dated within [from, to]
func (r *GormLedgerRepository) FindByTenantBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*ledger.StatementEntry, error) {
	var entryModels []models.StatementEntryModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND transaction_date >= ? AND transaction_date <= ?", tenantID, from, to).
		Order(ledgerOrder).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toEntries(entryModels), nil
}

// LastBefore returns the last entry dated before date, or nil
func (r *GormLedgerRepository) LastBefore(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.StatementEntry, error) {
	var entryModels []models.StatementEntryModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND transaction_date < ?", tenantID, date).
		Order("transaction_date DESC, sequence DESC, id DESC").
		Limit(1).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	if len(entryModels) == 0 {
		return nil, nil
	}
	return entryModels[0].ToDomain(), nil
}

// FindByCollection finds the entry posted for a collection
func (r *GormLedgerRepository) FindByCollection(ctx context.Context, collectionID uuid.UUID) (*ledger.StatementEntry, error) {
	var model models.StatementEntryModel
	if err := dbFromContext(ctx, r.db).
		Where("collection_id = ?", collectionID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// CountByAgreement counts entries linked to an agreement
func (r *GormLedgerRepository) CountByAgreement(ctx context.Context, agreementID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.StatementEntryModel{}).
		Where("agreement_id = ?", agreementID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByCollection removes the entry of a collection
func (r *GormLedgerRepository) DeleteByCollection(ctx context.Context, collectionID uuid.UUID) (int64, error) {
	result := dbFromContext(ctx, r.db).Delete(&models.StatementEntryModel{}, "collection_id = ?", collectionID)
	return result.RowsAffected, result.Error
}

// DeleteByAgreement removes every entry linked to an agreement
func (r *GormLedgerRepository) DeleteByAgreement(ctx context.Context, agreementID uuid.UUID) (int64, error) {
	result := dbFromContext(ctx, r.db).Delete(&models.StatementEntryModel{}, "agreement_id = ?", agreementID)
	return result.RowsAffected, result.Error
}

// DeleteGenerated removes entries of the given types that are not linked
// to a collection. A nil tenantID targets every tenant.
func (r *GormLedgerRepository) DeleteGenerated(ctx context.Context, tenantID *uuid.UUID, types []ledger.TransactionType) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	query := dbFromContext(ctx, r.db).Where("collection_id IS NULL AND type IN ?", types)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	result := query.Delete(&models.StatementEntryModel{})
	return result.RowsAffected, result.Error
}

// UpdateRunningBalances writes the running balance of each entry
func (r *GormLedgerRepository) UpdateRunningBalances(ctx context.Context, entries []*ledger.StatementEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if err := tx.Model(&models.StatementEntryModel{}).
				Where("id = ?", e.ID).
				UpdateColumn("running_balance", e.RunningBalance).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// TenantIDs lists every tenant that has at least one entry
func (r *GormLedgerRepository) TenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbFromContext(ctx, r.db).
		Model(&models.StatementEntryModel{}).
		Distinct("tenant_id").
		Order("tenant_id ASC").
		Pluck("tenant_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// LatestBalances returns the running balance of the last entry of every tenant
func (r *GormLedgerRepository) LatestBalances(ctx context.Context) ([]ledger.TenantBalance, error) {
	var rows []struct {
		TenantID       uuid.UUID
		RunningBalance decimal.Decimal
	}
	if err := dbFromContext(ctx, r.db).
		Table("tenant_statements AS s").
		Select("s.tenant_id, s.running_balance").
		Where(`NOT EXISTS (
			SELECT 1 FROM tenant_statements n
			WHERE n.tenant_id = s.tenant_id AND (
				n.transaction_date > s.transaction_date OR
				(n.transaction_date = s.transaction_date AND (
					n.sequence > s.sequence OR (n.sequence = s.sequence AND n.id > s.id)))))`).
		Order("s.tenant_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	balances := make([]ledger.TenantBalance, len(rows))
	for i, row := range rows {
		balances[i] = ledger.TenantBalance{TenantID: row.TenantID, Balance: row.RunningBalance}
	}
	return balances, nil
}

// SumBetween totals debits and credits dated within [from, to]
func (r *GormLedgerRepository) SumBetween(ctx context.Context, from, to time.Time) (ledger.Totals, error) {
	var result struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	if err := dbFromContext(ctx, r.db).
		Model(&models.StatementEntryModel{}).
		Select("COALESCE(SUM(debit), 0) as debit, COALESCE(SUM(credit), 0) as credit").
		Where("transaction_date >= ? AND transaction_date <= ?", from, to).
		Scan(&result).Error; err != nil {
		return ledger.Totals{}, err
	}
	return ledger.Totals{Debit: result.Debit, Credit: result.Credit}, nil
}

func toEntries(entryModels []models.StatementEntryModel) []*ledger.StatementEntry {
	entries := make([]*ledger.StatementEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries
}

// Ensure GormLedgerRepository implements ledger.Repository
var _ ledger.Repository = (*GormLedgerRepository)(nil)
