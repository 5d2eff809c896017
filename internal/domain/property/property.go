package property

import (
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
)

// PropertyType represents the kind of building
type PropertyType string

const (
	PropertyTypeBuilding   PropertyType = "building"
	PropertyTypeVilla      PropertyType = "villa"
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeCommercial PropertyType = "commercial"
)

// IsValid checks if the property type is known
func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyTypeBuilding, PropertyTypeVilla, PropertyTypeApartment, PropertyTypeCommercial:
		return true
	}
	return false
}

// PropertyState represents the operating state of a property
type PropertyState string

const (
	PropertyStateActive      PropertyState = "active"
	PropertyStateMaintenance PropertyState = "maintenance"
	PropertyStateInactive    PropertyState = "inactive"
)

// IsValid checks if the state is known
func (s PropertyState) IsValid() bool {
	switch s {
	case PropertyStateActive, PropertyStateMaintenance, PropertyStateInactive:
		return true
	}
	return false
}

// Property is a building or compound that contains flats
type Property struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Type        PropertyType
	State       PropertyState
	Address     string
	City        string
	ManagerName string
	Notes       string
}

// NewProperty creates a new active property
func NewProperty(code, name string, propertyType PropertyType) (*Property, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Property code cannot be empty")
	}
	if len(code) > 20 {
		return nil, shared.NewDomainError("INVALID_CODE", "Property code cannot exceed 20 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Property name cannot be empty")
	}
	if propertyType == "" {
		propertyType = PropertyTypeBuilding
	}
	if !propertyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Property type is not valid")
	}

	p := &Property{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Type:              propertyType,
		State:             PropertyStateActive,
	}
	p.AddDomainEvent(NewPropertyCreatedEvent(p))
	return p, nil
}

// Update changes the descriptive fields of the property
func (p *Property) Update(name, address, city, managerName, notes string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Property name cannot be empty")
	}
	p.Name = name
	p.Address = address
	p.City = city
	p.ManagerName = managerName
	p.Notes = notes
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetState moves the property to the given state
func (p *Property) SetState(state PropertyState) error {
	if !state.IsValid() {
		return shared.NewDomainError("INVALID_STATE", "Property state is not valid")
	}
	p.State = state
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}
