package tenant

import (
	"time"

	"github.com/erp/rental/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTenantRequest represents a request to register a tenant
type CreateTenantRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Mobile      string `json:"mobile" binding:"required,max=30,mobile"`
	Email       string `json:"email" binding:"omitempty,email"`
	IDPassport  string `json:"id_passport" binding:"max=50"`
	Nationality string `json:"nationality" binding:"max=50"`
	Notes       string `json:"notes" binding:"max=2000"`
}

// UpdateTenantRequest represents a request to update contact details
type UpdateTenantRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Mobile      string  `json:"mobile" binding:"required,max=30,mobile"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Nationality string  `json:"nationality" binding:"max=50"`
	Notes       *string `json:"notes" binding:"omitempty,max=2000"`
}

// StatusAction names a tenant status transition
type StatusAction string

const (
	ActionActivate   StatusAction = "activate"
	ActionDeactivate StatusAction = "deactivate"
	ActionBlacklist  StatusAction = "blacklist"
)

// TenantListFilter represents tenant list query parameters
type TenantListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=prospect active inactive blacklisted"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Mobile             string     `json:"mobile"`
	Email              string     `json:"email"`
	IDPassport         string     `json:"id_passport"`
	Nationality        string     `json:"nationality"`
	Status             string     `json:"status"`
	CurrentRoomID      *uuid.UUID `json:"current_room_id,omitempty"`
	CurrentAgreementID *uuid.UUID `json:"current_agreement_id,omitempty"`
	Notes              string     `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToTenantResponse converts a domain tenant
func ToTenantResponse(t *tenant.Tenant) TenantResponse {
	return TenantResponse{
		ID:                 t.ID,
		Name:               t.Name,
		Mobile:             t.Mobile,
		Email:              t.Email,
		IDPassport:         t.IDPassport,
		Nationality:        t.Nationality,
		Status:             string(t.Status),
		CurrentRoomID:      t.CurrentRoomID,
		CurrentAgreementID: t.CurrentAgreementID,
		Notes:              t.Notes,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

// AddOccupantRequest represents a request to add an occupant to an agreement
type AddOccupantRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=200"`
	IDPassport string `json:"id_passport" binding:"max=50"`
	Relation   string `json:"relation" binding:"max=50"`
	IsPrimary  bool   `json:"is_primary"`
}

// OccupantResponse represents an occupant in API responses
type OccupantResponse struct {
	ID          uuid.UUID `json:"id"`
	AgreementID uuid.UUID `json:"agreement_id"`
	Name        string    `json:"name"`
	IDPassport  string    `json:"id_passport"`
	Relation    string    `json:"relation"`
	IsPrimary   bool      `json:"is_primary"`
}

// ToOccupantResponse converts a domain occupant
func ToOccupantResponse(o *tenant.Occupant) OccupantResponse {
	return OccupantResponse{
		ID:          o.ID,
		AgreementID: o.AgreementID,
		Name:        o.Name,
		IDPassport:  o.IDPassport,
		Relation:    o.Relation,
		IsPrimary:   o.IsPrimary,
	}
}

// CreateAgentRequest represents a request to register an agent
type CreateAgentRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=200"`
	Phone          string          `json:"phone" binding:"max=30"`
	Email          string          `json:"email" binding:"omitempty,email"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// AgentResponse represents an agent in API responses
type AgentResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Active         bool            `json:"active"`
}

// ToAgentResponse converts a domain agent
func ToAgentResponse(a *tenant.Agent) AgentResponse {
	return AgentResponse{
		ID:             a.ID,
		Name:           a.Name,
		Phone:          a.Phone,
		Email:          a.Email,
		CommissionRate: a.CommissionRate,
		Active:         a.Active,
	}
}
