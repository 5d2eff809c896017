package tenant

import (
	"strings"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Agent is a broker who brings tenants in
type Agent struct {
	shared.BaseAggregateRoot
	Name           string
	Phone          string
	Email          string
	CommissionRate decimal.Decimal
	Active         bool
}

// NewAgent creates an active agent
func NewAgent(name, phone, email string, commissionRate decimal.Decimal) (*Agent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Agent name cannot be empty")
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_COMMISSION", "Commission rate must be between 0 and 100")
	}
	return &Agent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Phone:             phone,
		Email:             email,
		CommissionRate:    commissionRate,
		Active:            true,
	}, nil
}
