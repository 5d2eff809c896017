package tenant

import (
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// Status represents the lifecycle of a tenant
type Status string

const (
	StatusProspect    Status = "prospect"
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusBlacklisted Status = "blacklisted"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusProspect, StatusActive, StatusInactive, StatusBlacklisted:
		return true
	}
	return false
}

// MobilePattern is the accepted shape of a mobile number: digits with an
// optional leading plus, spaces, dashes and brackets
const MobilePattern = `^\+?[0-9][0-9 ()-]*$`

// Tenant is a person renting a room. Mobile and ID/passport numbers are unique.
type Tenant struct {
	shared.BaseAggregateRoot
	Name               string
	Mobile             string
	Email              string
	IDPassport         string
	Nationality        string
	Status             Status
	CurrentRoomID      *uuid.UUID
	CurrentAgreementID *uuid.UUID
	Notes              string
}

// NewTenant registers a prospect
func NewTenant(name, mobile, idPassport string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, shared.NewDomainError("INVALID_MOBILE", "Mobile number cannot be empty")
	}
	t := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Mobile:            mobile,
		IDPassport:        strings.TrimSpace(idPassport),
		Status:            StatusProspect,
	}
	return t, nil
}

// UpdateContact changes the contact details
func (t *Tenant) UpdateContact(name, mobile, email, nationality string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if strings.TrimSpace(mobile) == "" {
		return shared.NewDomainError("INVALID_MOBILE", "Mobile number cannot be empty")
	}
	t.Name = strings.TrimSpace(name)
	t.Mobile = strings.TrimSpace(mobile)
	t.Email = email
	t.Nationality = nationality
	t.touch()
	return nil
}

// MoveIn activates the tenant in a room under an agreement
func (t *Tenant) MoveIn(roomID, agreementID uuid.UUID) error {
	if t.Status == StatusBlacklisted {
		return shared.Errorf("TENANT_BLACKLISTED", "Tenant %s is blacklisted", t.Name)
	}
	t.Status = StatusActive
	t.CurrentRoomID = &roomID
	t.CurrentAgreementID = &agreementID
	t.touch()
	return nil
}

// MoveOut clears the current room. The agreement reference is kept so the
// ledger can still be regenerated from the last agreement.
func (t *Tenant) MoveOut() {
	t.CurrentRoomID = nil
	t.touch()
}

// Activate marks the tenant active without assigning a room
func (t *Tenant) Activate() error {
	if t.Status == StatusBlacklisted {
		return shared.Errorf("TENANT_BLACKLISTED", "Tenant %s is blacklisted", t.Name)
	}
	t.Status = StatusActive
	t.touch()
	return nil
}

// Deactivate marks the tenant inactive
func (t *Tenant) Deactivate() {
	t.Status = StatusInactive
	t.CurrentRoomID = nil
	t.touch()
}

// Blacklist prevents future agreements
func (t *Tenant) Blacklist() {
	t.Status = StatusBlacklisted
	t.touch()
}

// IsActive reports whether the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

func (t *Tenant) touch() {
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}
