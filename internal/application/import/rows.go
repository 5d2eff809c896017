package importapp

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	agreementapp "github.com/erp/rental/internal/application/agreement"
	catalogapp "github.com/erp/rental/internal/application/catalog"
	tenantapp "github.com/erp/rental/internal/application/tenant"
	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/tenant"
	csvimport "github.com/erp/rental/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Service) importProperty(ctx context.Context, row *csvimport.Row, mode csvimport.ConflictMode) (outcome, error) {
	code := row.Get("code")
	existing, err := s.properties.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, err
	}

	if existing != nil {
		result, update, err := conflict(mode, "property "+code)
		if !update {
			return result, err
		}
		_, err = s.propertySvc.Update(ctx, existing.ID, catalogapp.UpdatePropertyRequest{
			Name:        row.GetOrDefault("name", existing.Name),
			Address:     row.GetOrDefault("address", existing.Address),
			City:        row.GetOrDefault("city", existing.City),
			ManagerName: row.GetOrDefault("manager_name", existing.ManagerName),
			Notes:       row.GetOrDefault("notes", existing.Notes),
		})
		return outcomeUpdated, err
	}

	_, err = s.propertySvc.Create(ctx, catalogapp.CreatePropertyRequest{
		Code:        code,
		Name:        row.Get("name"),
		Type:        strings.ToLower(row.Get("property_type")),
		Address:     row.Get("address"),
		City:        row.Get("city"),
		ManagerName: row.Get("manager_name"),
		Notes:       row.Get("notes"),
	})
	return outcomeCreated, err
}

func (s *Service) importFlat(ctx context.Context, row *csvimport.Row, mode csvimport.ConflictMode) (outcome, error) {
	prop, err := s.properties.FindByCode(ctx, row.Get("property_code"))
	if err != nil {
		return 0, err
	}
	floor, _ := strconv.Atoi(row.Get("floor"))

	existing, err := s.flats.FindByNumber(ctx, prop.ID, row.Get("flat_number"))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, err
	}
	if existing != nil {
		result, update, err := conflict(mode, "flat "+existing.FlatNumber)
		if !update {
			return result, err
		}
		if row.Get("floor") != "" {
			existing.Floor = floor
		}
		existing.FlatType = row.GetOrDefault("flat_type", existing.FlatType)
		existing.ParkingCharges = decimalOr(row, "parking_charges", existing.ParkingCharges)
		existing.ParkingDeposit = decimalOr(row, "parking_deposit", existing.ParkingDeposit)
		return outcomeUpdated, s.flats.Save(ctx, existing)
	}

	_, err = s.propertySvc.CreateFlat(ctx, prop.ID, catalogapp.CreateFlatRequest{
		FlatNumber:     row.Get("flat_number"),
		Floor:          floor,
		FlatType:       row.Get("flat_type"),
		ParkingCharges: optionalDecimal(row, "parking_charges"),
		ParkingDeposit: optionalDecimal(row, "parking_deposit"),
	})
	return outcomeCreated, err
}

func (s *Service) importRoom(ctx context.Context, row *csvimport.Row, mode csvimport.ConflictMode) (outcome, error) {
	flat, err := s.findFlat(ctx, row)
	if err != nil {
		return 0, err
	}
	if flat == nil {
		return 0, shared.NewDomainError(csvimport.CodeUnknownReference, "Flat "+row.Get("flat_number")+" not found")
	}

	existing, err := s.findRoom(ctx, flat.ID, row.Get("room_number"))
	if err != nil {
		return 0, err
	}
	if existing != nil {
		result, update, err := conflict(mode, "room "+existing.RoomNumber)
		if !update {
			return result, err
		}
		_, err = s.roomSvc.UpdatePricing(ctx, existing.ID, catalogapp.UpdateRoomPricingRequest{
			RentAmount:     decimalOr(row, "rent_amount", existing.RentAmount),
			DepositAmount:  decimalOr(row, "deposit_amount", existing.DepositAmount),
			ParkingCharges: decimalOr(row, "parking_charges", existing.ParkingCharges),
			ParkingDeposit: decimalOr(row, "parking_deposit", existing.ParkingDeposit),
		})
		return outcomeUpdated, err
	}

	var roomTypeID *uuid.UUID
	if code := row.Get("room_type"); code != "" {
		rt, err := s.roomTypes.FindByCode(ctx, code)
		if err != nil {
			return 0, err
		}
		roomTypeID = &rt.ID
	}
	_, err = s.roomSvc.Create(ctx, catalogapp.CreateRoomRequest{
		FlatID:         flat.ID,
		RoomTypeID:     roomTypeID,
		RoomNumber:     row.Get("room_number"),
		RentAmount:     parseDecimal(row, "rent_amount"),
		DepositAmount:  parseDecimal(row, "deposit_amount"),
		ParkingCharges: parseDecimal(row, "parking_charges"),
		ParkingDeposit: parseDecimal(row, "parking_deposit"),
		Notes:          row.Get("notes"),
	})
	return outcomeCreated, err
}

var statusActions = map[string]tenantapp.StatusAction{
	string(tenant.StatusActive):      tenantapp.ActionActivate,
	string(tenant.StatusInactive):    tenantapp.ActionDeactivate,
	string(tenant.StatusBlacklisted): tenantapp.ActionBlacklist,
}

func (s *Service) importTenant(ctx context.Context, row *csvimport.Row, mode csvimport.ConflictMode) (outcome, error) {
	existing, err := s.tenants.FindByMobile(ctx, row.Get("mobile"))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, err
	}

	var (
		id     uuid.UUID
		status string
		result = outcomeCreated
	)
	if existing != nil {
		var update bool
		result, update, err = conflict(mode, "tenant "+existing.Mobile)
		if !update {
			return result, err
		}
		notes := row.GetOrDefault("notes", existing.Notes)
		resp, err := s.tenantSvc.Update(ctx, existing.ID, tenantapp.UpdateTenantRequest{
			Name:        row.Get("name"),
			Mobile:      existing.Mobile,
			Email:       row.GetOrDefault("email", existing.Email),
			Nationality: row.GetOrDefault("nationality", existing.Nationality),
			Notes:       &notes,
		})
		if err != nil {
			return 0, err
		}
		id, status = resp.ID, resp.Status
	} else {
		resp, err := s.tenantSvc.Create(ctx, tenantapp.CreateTenantRequest{
			Name:        row.Get("name"),
			Mobile:      row.Get("mobile"),
			Email:       row.Get("email"),
			IDPassport:  row.Get("id_passport"),
			Nationality: row.Get("nationality"),
			Notes:       row.Get("notes"),
		})
		if err != nil {
			return 0, err
		}
		id, status = resp.ID, resp.Status
	}

	want := strings.ToLower(row.Get("status"))
	if action, ok := statusActions[want]; ok && want != status {
		if _, err := s.tenantSvc.ChangeStatus(ctx, id, action); err != nil {
			return 0, err
		}
	}
	return result, nil
}

func (s *Service) importAgreement(ctx context.Context, row *csvimport.Row, mode csvimport.ConflictMode) (outcome, error) {
	t, err := s.findTenant(ctx, row.Get("tenant"))
	if err != nil {
		return 0, err
	}
	if t == nil {
		return 0, shared.NewDomainError(csvimport.CodeUnknownReference, "Tenant "+row.Get("tenant")+" not found")
	}
	flat, err := s.findFlat(ctx, row)
	if err != nil {
		return 0, err
	}
	if flat == nil {
		return 0, shared.NewDomainError(csvimport.CodeUnknownReference, "Flat "+row.Get("flat_number")+" not found")
	}
	room, err := s.findRoom(ctx, flat.ID, row.Get("room_number"))
	if err != nil {
		return 0, err
	}
	if room == nil {
		return 0, shared.NewDomainError(csvimport.CodeUnknownReference, "Room "+row.Get("room_number")+" not found")
	}

	start, end := parseDate(row, "start_date"), parseDate(row, "end_date")
	existing, err := s.findAgreement(ctx, t.ID, room.ID, start, end)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		result, update, err := conflict(mode, "agreement "+existing.Number)
		if !update {
			return result, err
		}
		// only drafts can be amended; signed agreements are left alone
		if existing.State != agreement.StateDraft {
			return outcomeSkipped, nil
		}
		rent := decimalOr(row, "rent_amount", existing.RentAmount)
		deposit := decimalOr(row, "deposit_amount", existing.DepositAmount)
		_, err = s.agreementSvc.Update(ctx, existing.ID, agreementapp.UpdateAgreementRequest{
			StartDate:     &start,
			EndDate:       &end,
			RentAmount:    &rent,
			DepositAmount: &deposit,
		})
		if err != nil {
			return 0, err
		}
		return outcomeUpdated, s.activateIfRequested(ctx, row, existing.ID)
	}

	paymentDay, _ := strconv.Atoi(row.Get("payment_day"))
	created, err := s.agreementSvc.Create(ctx, agreementapp.CreateAgreementRequest{
		TenantID:       t.ID,
		RoomID:         room.ID,
		StartDate:      start,
		EndDate:        end,
		RentAmount:     parseDecimal(row, "rent_amount"),
		DepositAmount:  parseDecimal(row, "deposit_amount"),
		ParkingCharges: parseDecimal(row, "parking_charges"),
		OpeningBalance: parseDecimal(row, "opening_balance"),
		PaymentDay:     paymentDay,
		Notes:          row.Get("notes"),
	})
	if err != nil {
		return 0, err
	}
	return outcomeCreated, s.activateIfRequested(ctx, row, created.ID)
}

func (s *Service) activateIfRequested(ctx context.Context, row *csvimport.Row, id uuid.UUID) error {
	if !strings.EqualFold(row.Get("state"), string(agreement.StateActive)) {
		return nil
	}
	_, err := s.agreementSvc.Activate(ctx, id)
	return err
}

// findAgreement returns the tenant's live agreement on the room overlapping
// [start, end), if any
func (s *Service) findAgreement(ctx context.Context, tenantID, roomID uuid.UUID, start, end time.Time) (*agreement.Agreement, error) {
	overlapping, err := s.agreements.FindOverlapping(ctx, roomID, start, end, uuid.Nil)
	if err != nil {
		return nil, err
	}
	for i := range overlapping {
		if overlapping[i].TenantID == tenantID {
			return &overlapping[i], nil
		}
	}
	return nil, nil
}

func decimalOr(row *csvimport.Row, col string, fallback decimal.Decimal) decimal.Decimal {
	if row.Get(col) == "" {
		return fallback
	}
	return parseDecimal(row, col)
}

func optionalDecimal(row *csvimport.Row, col string) *decimal.Decimal {
	if row.Get(col) == "" {
		return nil
	}
	d := parseDecimal(row, col)
	return &d
}
