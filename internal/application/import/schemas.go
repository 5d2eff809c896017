package importapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/domain/tenant"
	csvimport "github.com/erp/rental/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	refProperty = "property"
	refRoomType = "room_type"
	refTenant   = "tenant"
)

// externalTenantPrefix marks legacy tenant references such as
// "tenant_john_smith", which name the tenant instead of giving a mobile
const externalTenantPrefix = "tenant_"

var titleCase = cases.Title(language.English)

func (s *Service) schema(entity csvimport.EntityType, mode csvimport.ConflictMode) csvimport.Schema {
	zero := decimal.Zero
	amount := func(col string) csvimport.FieldRule {
		return csvimport.Field(col).Decimal().MinValue(zero).Build()
	}

	switch entity {
	case csvimport.EntityProperties:
		return csvimport.Schema{Rules: []csvimport.FieldRule{
			csvimport.Field("code").Required().Length(1, 20).Unique().Build(),
			csvimport.Field("name").Required().Length(1, 200).Build(),
			csvimport.Field("property_type").OneOf("building", "villa", "apartment", "commercial").Build(),
			csvimport.Field("address").MaxLength(500).Build(),
			csvimport.Field("city").MaxLength(100).Build(),
			csvimport.Field("manager_name").MaxLength(100).Build(),
			csvimport.Field("notes").MaxLength(2000).Build(),
		}}

	case csvimport.EntityFlats:
		return csvimport.Schema{
			Rules: []csvimport.FieldRule{
				csvimport.Field("property_code").Required().Reference(refProperty).Build(),
				csvimport.Field("flat_number").Required().Length(1, 20).Build(),
				csvimport.Field("floor").Int().Range(decimal.NewFromInt(-5), decimal.NewFromInt(200)).Build(),
				csvimport.Field("flat_type").MaxLength(50).Build(),
				amount("parking_charges"),
				amount("parking_deposit"),
			},
			RowCheck: func(ctx context.Context, row *csvimport.Row) []csvimport.RowError {
				if mode != csvimport.ConflictModeFail {
					return nil
				}
				flat, err := s.findFlat(ctx, row)
				if err != nil {
					return rowErrors(row, "flat_number", err)
				}
				if flat != nil {
					return []csvimport.RowError{duplicateError(row, "flat_number", "flat")}
				}
				return nil
			},
		}

	case csvimport.EntityRooms:
		return csvimport.Schema{
			Rules: []csvimport.FieldRule{
				csvimport.Field("property_code").Required().Reference(refProperty).Build(),
				csvimport.Field("flat_number").Required().Build(),
				csvimport.Field("room_number").Required().Length(1, 20).Build(),
				csvimport.Field("room_type").Reference(refRoomType).Build(),
				amount("rent_amount"),
				amount("deposit_amount"),
				amount("parking_charges"),
				amount("parking_deposit"),
				csvimport.Field("notes").MaxLength(2000).Build(),
			},
			RowCheck: func(ctx context.Context, row *csvimport.Row) []csvimport.RowError {
				flat, err := s.findFlat(ctx, row)
				if err != nil {
					return rowErrors(row, "flat_number", err)
				}
				if flat == nil {
					return []csvimport.RowError{missingError(row, "flat_number", "flat")}
				}
				if mode != csvimport.ConflictModeFail {
					return nil
				}
				room, err := s.findRoom(ctx, flat.ID, row.Get("room_number"))
				if err != nil {
					return rowErrors(row, "room_number", err)
				}
				if room != nil {
					return []csvimport.RowError{duplicateError(row, "room_number", "room")}
				}
				return nil
			},
		}

	case csvimport.EntityTenants:
		return csvimport.Schema{Rules: []csvimport.FieldRule{
			csvimport.Field("name").Required().Length(1, 200).Build(),
			csvimport.Field("mobile").Required().Length(1, 30).Pattern(tenant.MobilePattern, "a phone number").Unique().Build(),
			csvimport.Field("email").Email().Build(),
			csvimport.Field("id_passport").MaxLength(50).Unique().Build(),
			csvimport.Field("nationality").MaxLength(50).Build(),
			csvimport.Field("status").OneOf("prospect", "active", "inactive", "blacklisted").Build(),
			csvimport.Field("notes").MaxLength(2000).Build(),
		}}

	default:
		return csvimport.Schema{
			Rules: []csvimport.FieldRule{
				csvimport.Field("tenant").Required().Reference(refTenant).Build(),
				csvimport.Field("property_code").Required().Reference(refProperty).Build(),
				csvimport.Field("flat_number").Required().Build(),
				csvimport.Field("room_number").Required().Build(),
				csvimport.Field("start_date").Required().Date().Build(),
				csvimport.Field("end_date").Required().Date().Build(),
				amount("rent_amount"),
				amount("deposit_amount"),
				amount("parking_charges"),
				amount("opening_balance"),
				csvimport.Field("payment_day").Int().Range(decimal.NewFromInt(1), decimal.NewFromInt(31)).Build(),
				csvimport.Field("state").OneOf("draft", "active").Build(),
				csvimport.Field("notes").MaxLength(2000).Build(),
			},
			RowCheck: func(ctx context.Context, row *csvimport.Row) []csvimport.RowError {
				start, _ := calendar.Parse(row.Get("start_date"))
				end, _ := calendar.Parse(row.Get("end_date"))
				if !end.After(start) {
					return []csvimport.RowError{csvimport.NewRowError(row.LineNumber, "end_date",
						csvimport.CodeRejected, "end date must be after start date").WithValue(row.Get("end_date"))}
				}
				flat, err := s.findFlat(ctx, row)
				if err != nil {
					return rowErrors(row, "flat_number", err)
				}
				if flat == nil {
					return []csvimport.RowError{missingError(row, "flat_number", "flat")}
				}
				room, err := s.findRoom(ctx, flat.ID, row.Get("room_number"))
				if err != nil {
					return rowErrors(row, "room_number", err)
				}
				if room == nil {
					return []csvimport.RowError{missingError(row, "room_number", "room")}
				}
				if mode != csvimport.ConflictModeFail {
					return nil
				}
				t, err := s.findTenant(ctx, row.Get("tenant"))
				if err != nil || t == nil {
					return rowErrors(row, "tenant", err)
				}
				existing, err := s.findAgreement(ctx, t.ID, room.ID, start, end)
				if err != nil {
					return rowErrors(row, "start_date", err)
				}
				if existing != nil {
					return []csvimport.RowError{duplicateError(row, "start_date", "agreement")}
				}
				return nil
			},
		}
	}
}

// lookupReference backs the Reference rules of every schema
func (s *Service) lookupReference(ctx context.Context, refType, value string) (bool, error) {
	var err error
	switch refType {
	case refProperty:
		_, err = s.properties.FindByCode(ctx, value)
	case refRoomType:
		_, err = s.roomTypes.FindByCode(ctx, value)
	case refTenant:
		var t *tenant.Tenant
		t, err = s.findTenant(ctx, value)
		return t != nil, err
	default:
		return false, fmt.Errorf("unknown reference type %q", refType)
	}
	return found(err)
}

// lookupUnique backs the Unique rules, only consulted in fail mode
func (s *Service) lookupUnique(ctx context.Context, entity csvimport.EntityType, field, value string) (bool, error) {
	var err error
	switch {
	case entity == csvimport.EntityProperties && field == "code":
		_, err = s.properties.FindByCode(ctx, value)
	case entity == csvimport.EntityTenants && field == "mobile":
		_, err = s.tenants.FindByMobile(ctx, value)
	case entity == csvimport.EntityTenants && field == "id_passport":
		_, err = s.tenants.FindByIDPassport(ctx, value)
	default:
		return false, nil
	}
	return found(err)
}

func found(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// tenantName turns a legacy reference like "tenant_john_smith" into "John Smith"
func tenantName(ref string) string {
	name := strings.ReplaceAll(strings.TrimPrefix(ref, externalTenantPrefix), "_", " ")
	return titleCase.String(strings.TrimSpace(name))
}

// findTenant resolves a tenant reference. References are mobiles, except
// legacy ones that carry the tenant name, which must match exactly one tenant.
func (s *Service) findTenant(ctx context.Context, ref string) (*tenant.Tenant, error) {
	if !strings.HasPrefix(strings.ToLower(ref), externalTenantPrefix) {
		t, err := s.tenants.FindByMobile(ctx, ref)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return t, err
	}

	name := tenantName(strings.ToLower(ref))
	candidates, _, err := s.tenants.FindAll(ctx, tenant.Filter{Filter: shared.Filter{
		Page:     1,
		PageSize: 10,
		OrderBy:  "created_at",
		OrderDir: "asc",
		Search:   name,
	}})
	if err != nil {
		return nil, err
	}
	var match *tenant.Tenant
	for i := range candidates {
		if !strings.EqualFold(candidates[i].Name, name) {
			continue
		}
		if match != nil {
			return nil, shared.Errorf("AMBIGUOUS_TENANT", "More than one tenant is named '%s'", name)
		}
		match = &candidates[i]
	}
	return match, nil
}

// findFlat resolves property_code and flat_number, returning nil when either
// does not exist
func (s *Service) findFlat(ctx context.Context, row *csvimport.Row) (*property.Flat, error) {
	prop, err := s.properties.FindByCode(ctx, row.Get("property_code"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	flat, err := s.flats.FindByNumber(ctx, prop.ID, row.Get("flat_number"))
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return flat, err
}

func (s *Service) findRoom(ctx context.Context, flatID uuid.UUID, roomNumber string) (*property.Room, error) {
	room, err := s.rooms.FindByNumber(ctx, flatID, roomNumber)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return room, err
}

// rowErrors reports a failed lookup. A nil error means the reference was
// not found.
func rowErrors(row *csvimport.Row, column string, err error) []csvimport.RowError {
	if err == nil {
		return []csvimport.RowError{missingError(row, column, column)}
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return []csvimport.RowError{csvimport.NewRowError(row.LineNumber, column, csvimport.CodeRejected, de.Message).WithValue(row.Get(column))}
	}
	return []csvimport.RowError{csvimport.NewRowError(row.LineNumber, column, csvimport.CodeRejected, "lookup failed: "+err.Error())}
}

func missingError(row *csvimport.Row, column, what string) csvimport.RowError {
	return csvimport.NewRowError(row.LineNumber, column, csvimport.CodeUnknownReference,
		fmt.Sprintf("%s %s not found", what, row.Get(column))).WithValue(row.Get(column))
}

func duplicateError(row *csvimport.Row, column, what string) csvimport.RowError {
	return csvimport.NewRowError(row.LineNumber, column, csvimport.CodeAlreadyStored,
		fmt.Sprintf("%s %s already exists", what, row.Get(column))).WithValue(row.Get(column))
}

func parseDecimal(row *csvimport.Row, col string) decimal.Decimal {
	d, err := decimal.NewFromString(row.Get(col))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDate(row *csvimport.Row, col string) time.Time {
	t, _ := calendar.Parse(row.Get(col))
	return t
}
