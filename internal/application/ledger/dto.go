package ledger

import (
	"time"

	"github.com/erp/rental/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceResponse is a tenant's current position
type BalanceResponse struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	Balance       decimal.Decimal `json:"balance"`
	Entries       int             `json:"entries"`
	LastEntryDate *time.Time      `json:"last_entry_date,omitempty"`
}

// EntryResponse is one statement line
type EntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	TransactionDate time.Time       `json:"transaction_date"`
	Reference       string          `json:"reference"`
	Description     string          `json:"description"`
	Type            string          `json:"transaction_type"`
	Debit           decimal.Decimal `json:"debit_amount"`
	Credit          decimal.Decimal `json:"credit_amount"`
	RunningBalance  decimal.Decimal `json:"running_balance"`
	RoomID          *uuid.UUID      `json:"room_id,omitempty"`
	AgreementID     *uuid.UUID      `json:"agreement_id,omitempty"`
	CollectionID    *uuid.UUID      `json:"collection_id,omitempty"`
}

// ToEntryResponse converts a domain entry
func ToEntryResponse(e *ledger.StatementEntry) EntryResponse {
	return EntryResponse{
		ID:              e.ID,
		TransactionDate: e.TransactionDate,
		Reference:       e.Reference,
		Description:     e.Description,
		Type:            string(e.Type),
		Debit:           e.Debit,
		Credit:          e.Credit,
		RunningBalance:  e.RunningBalance,
		RoomID:          e.RoomID,
		AgreementID:     e.AgreementID,
		CollectionID:    e.CollectionID,
	}
}

// ToEntryResponses converts a statement
func ToEntryResponses(entries []*ledger.StatementEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ToEntryResponse(e)
	}
	return out
}
