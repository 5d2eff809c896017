package tenant

import (
	"strings"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// Occupant is a person living in the room under an agreement.
// An agreement has at most one primary occupant.
type Occupant struct {
	shared.BaseEntity
	AgreementID uuid.UUID
	Name        string
	IDPassport  string
	Relation    string
	IsPrimary   bool
}

// NewOccupant creates an occupant record
func NewOccupant(agreementID uuid.UUID, name, idPassport, relation string, primary bool) (*Occupant, error) {
	if agreementID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AGREEMENT", "Agreement ID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Occupant name cannot be empty")
	}
	return &Occupant{
		BaseEntity:  shared.NewBaseEntity(),
		AgreementID: agreementID,
		Name:        strings.TrimSpace(name),
		IDPassport:  strings.TrimSpace(idPassport),
		Relation:    relation,
		IsPrimary:   primary,
	}, nil
}
