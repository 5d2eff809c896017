package property

import (
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ChargeType classifies recurring or one-off charges billed on top of rent
type ChargeType string

const (
	ChargeTypeUtility     ChargeType = "utility"
	ChargeTypeMaintenance ChargeType = "maintenance"
	ChargeTypeService     ChargeType = "service"
	ChargeTypeAmenity     ChargeType = "amenity"
	ChargeTypePenalty     ChargeType = "penalty"
	ChargeTypeInsurance   ChargeType = "insurance"
	ChargeTypeCleaning    ChargeType = "cleaning"
	ChargeTypeInternet    ChargeType = "internet"
	ChargeTypeCableTV     ChargeType = "cable_tv"
	ChargeTypeLaundry     ChargeType = "laundry"
	ChargeTypeGym         ChargeType = "gym"
	ChargeTypeOther       ChargeType = "other"
)

// IsValid checks if the charge type is known
func (t ChargeType) IsValid() bool {
	switch t {
	case ChargeTypeUtility, ChargeTypeMaintenance, ChargeTypeService, ChargeTypeAmenity,
		ChargeTypePenalty, ChargeTypeInsurance, ChargeTypeCleaning, ChargeTypeInternet,
		ChargeTypeCableTV, ChargeTypeLaundry, ChargeTypeGym, ChargeTypeOther:
		return true
	}
	return false
}

// ChargeFrequency is how often a charge recurs
type ChargeFrequency string

const (
	FrequencyMonthly   ChargeFrequency = "monthly"
	FrequencyQuarterly ChargeFrequency = "quarterly"
	FrequencyYearly    ChargeFrequency = "yearly"
	FrequencyOneTime   ChargeFrequency = "one_time"
	FrequencyDaily     ChargeFrequency = "daily"
	FrequencyWeekly    ChargeFrequency = "weekly"
)

// IsValid checks if the frequency is known
func (f ChargeFrequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly, FrequencyOneTime, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// OtherCharge is a catalog entry for charges attached to agreements
type OtherCharge struct {
	shared.BaseAggregateRoot
	Name        string
	ChargeType  ChargeType
	Amount      decimal.Decimal
	Frequency   ChargeFrequency
	IsMandatory bool
	Active      bool
	Description string
}

// NewOtherCharge creates an active charge
func NewOtherCharge(name string, chargeType ChargeType, amount decimal.Decimal, frequency ChargeFrequency) (*OtherCharge, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Charge name cannot be empty")
	}
	if !chargeType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHARGE_TYPE", "Charge type is not valid")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Charge amount must be greater than zero")
	}
	if frequency == "" {
		frequency = FrequencyMonthly
	}
	if !frequency.IsValid() {
		return nil, shared.NewDomainError("INVALID_FREQUENCY", "Charge frequency is not valid")
	}
	return &OtherCharge{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		ChargeType:        chargeType,
		Amount:            amount,
		Frequency:         frequency,
		Active:            true,
	}, nil
}

// Deactivate hides the charge from new agreements
func (c *OtherCharge) Deactivate() {
	c.Active = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
