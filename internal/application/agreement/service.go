package agreement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerWriter is the part of the ledger service agreements drive
type LedgerWriter interface {
	PostActivation(ctx context.Context, a *agreement.Agreement, on time.Time) (bool, error)
	RemoveAgreementEntries(ctx context.Context, a *agreement.Agreement) (int64, error)
	RecomputeTenant(ctx context.Context, tenantID uuid.UUID) error
}

// AgreementService handles the agreement lifecycle
type AgreementService struct {
	agreementRepo  agreement.Repository
	numbers        agreement.NumberGenerator
	roomRepo       property.RoomRepository
	tenantRepo     tenant.Repository
	chargeRepo     property.OtherChargeRepository
	collectionRepo collection.Repository
	invoiceRepo    billing.InvoiceRepository
	paymentRepo    billing.PaymentRepository
	ledger         LedgerWriter
	tx             shared.Transactor
	eventPublisher shared.EventPublisher
	clock          calendar.Clock
	logger         *zap.Logger
	expiringWindow int
	paymentTerms   int
}

// AgreementServiceConfig holds the collaborators of the agreement service
type AgreementServiceConfig struct {
	AgreementRepo      agreement.Repository
	NumberGenerator    agreement.NumberGenerator
	RoomRepo           property.RoomRepository
	TenantRepo         tenant.Repository
	ChargeRepo         property.OtherChargeRepository
	CollectionRepo     collection.Repository
	InvoiceRepo        billing.InvoiceRepository
	PaymentRepo        billing.PaymentRepository
	Ledger             LedgerWriter
	Transactor         shared.Transactor
	EventPublisher     shared.EventPublisher
	Clock              calendar.Clock
	Logger             *zap.Logger
	ExpiringWindowDays int
	// DefaultPaymentTerms applies to new agreements created without terms
	DefaultPaymentTerms int
}

// NewAgreementService creates a new AgreementService
func NewAgreementService(config AgreementServiceConfig) *AgreementService {
	s := &AgreementService{
		agreementRepo:  config.AgreementRepo,
		numbers:        config.NumberGenerator,
		roomRepo:       config.RoomRepo,
		tenantRepo:     config.TenantRepo,
		chargeRepo:     config.ChargeRepo,
		collectionRepo: config.CollectionRepo,
		invoiceRepo:    config.InvoiceRepo,
		paymentRepo:    config.PaymentRepo,
		ledger:         config.Ledger,
		tx:             config.Transactor,
		eventPublisher: config.EventPublisher,
		clock:          config.Clock,
		logger:         config.Logger,
		expiringWindow: config.ExpiringWindowDays,
		paymentTerms:   config.DefaultPaymentTerms,
	}
	if s.tx == nil {
		s.tx = shared.NoopTransactor{}
	}
	if s.eventPublisher == nil {
		s.eventPublisher = shared.NoopEventPublisher{}
	}
	if s.clock == nil {
		s.clock = calendar.SystemClock
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.expiringWindow <= 0 {
		s.expiringWindow = agreement.ExpiryNoticeWindowDays
	}
	if s.paymentTerms <= 0 {
		s.paymentTerms = agreement.DefaultPaymentTerms
	}
	return s
}

func (s *AgreementService) today() time.Time {
	return calendar.DateOf(s.clock())
}

// publish sends and clears the pending events of the aggregates. A failed
// publish is logged, the write has already committed.
func (s *AgreementService) publish(ctx context.Context, sources ...shared.EventSource) {
	if err := shared.PublishPending(ctx, s.eventPublisher, sources...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
}

// Create drafts a new agreement after checking the tenant, the room and
// that no other draft or active agreement holds the room for those dates
func (s *AgreementService) Create(ctx context.Context, req CreateAgreementRequest) (*AgreementResponse, error) {
	t, err := s.tenantRepo.FindByID(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_TENANT", "Tenant not found")
		}
		return nil, err
	}
	if t.Status == tenant.StatusBlacklisted {
		return nil, shared.Errorf("TENANT_BLACKLISTED", "Tenant %s is blacklisted", t.Name)
	}
	room, err := s.roomRepo.FindByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_ROOM", "Room not found")
		}
		return nil, err
	}

	terms := agreement.Terms{
		TenantID:             req.TenantID,
		RoomID:               req.RoomID,
		AgentID:              req.AgentID,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RentAmount:           req.RentAmount,
		DepositAmount:        req.DepositAmount,
		ParkingCharges:       req.ParkingCharges,
		OpeningBalance:       req.OpeningBalance,
		PaymentDay:           req.PaymentDay,
		PaymentTerms:         req.PaymentTerms,
		AutoGenerateInvoices: req.AutoGenerateInvoices,
		AutoPostInvoices:     req.AutoPostInvoices,
		InvoiceDay:           req.InvoiceDay,
		AdvanceInvoiceDays:   req.AdvanceInvoiceDays,
		Notes:                req.Notes,
	}
	if terms.RentAmount.IsZero() {
		terms.RentAmount = room.RentAmount
	}
	if terms.DepositAmount.IsZero() {
		terms.DepositAmount = room.DepositAmount
	}
	if terms.ParkingCharges.IsZero() {
		terms.ParkingCharges = room.ParkingCharges
	}
	if terms.PaymentTerms == 0 {
		terms.PaymentTerms = s.paymentTerms
	}

	charges, err := s.resolveCharges(ctx, req.Charges)
	if err != nil {
		return nil, err
	}

	var a *agreement.Agreement
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.NextAgreementNumber(ctx, s.clock())
		if err != nil {
			return err
		}
		a, err = agreement.NewAgreement(number, terms)
		if err != nil {
			return err
		}
		if err := s.ensureNoOverlap(ctx, a); err != nil {
			return err
		}
		if err := a.SetCharges(charges); err != nil {
			return err
		}
		return s.agreementRepo.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("agreement drafted",
		zap.String("agreement", a.Number),
		zap.String("tenant_id", a.TenantID.String()),
		zap.String("room_id", a.RoomID.String()),
	)
	s.publish(ctx, a)
	resp := ToAgreementResponse(a)
	return &resp, nil
}

func (s *AgreementService) resolveCharges(ctx context.Context, reqs []ChargeRequest) ([]agreement.Charge, error) {
	charges := make([]agreement.Charge, 0, len(reqs))
	for _, r := range reqs {
		c, err := s.chargeRepo.FindByID(ctx, r.ChargeID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.Errorf("INVALID_CHARGE", "Charge %s not found", r.ChargeID)
			}
			return nil, err
		}
		if !c.Active {
			return nil, shared.Errorf("INVALID_CHARGE", "Charge %s is inactive", c.Name)
		}
		charges = append(charges, agreement.NewCharge(c, r.Amount))
	}
	return charges, nil
}

func (s *AgreementService) ensureNoOverlap(ctx context.Context, a *agreement.Agreement) error {
	overlapping, err := s.agreementRepo.FindOverlapping(ctx, a.RoomID, a.StartDate, a.EndDate, a.ID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		o := overlapping[0]
		return shared.NewDomainError("AGREEMENT_OVERLAP", fmt.Sprintf(
			"Room is already held by agreement %s from %s to %s",
			o.Number, o.StartDate.Format(time.DateOnly), o.EndDate.Format(time.DateOnly)))
	}
	return nil
}

// GetByID retrieves an agreement by ID
func (s *AgreementService) GetByID(ctx context.Context, id uuid.UUID) (*AgreementResponse, error) {
	a, err := s.agreementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAgreementResponse(a)
	return &resp, nil
}

// List returns a page of agreements
func (s *AgreementService) List(ctx context.Context, f AgreementListFilter) (shared.Paginated[AgreementResponse], error) {
	filter := agreement.Filter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		TenantID: f.TenantID,
		RoomID:   f.RoomID,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if f.State != "" {
		filter.States = []agreement.State{agreement.State(f.State)}
	}

	agreements, total, err := s.agreementRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[AgreementResponse]{}, err
	}
	items := make([]AgreementResponse, len(agreements))
	for i := range agreements {
		items[i] = ToAgreementResponse(&agreements[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update amends an agreement. Active agreements reject changes to their
// locked terms; drafts re-run the overlap check when dates move.
func (s *AgreementService) Update(ctx context.Context, id uuid.UUID, req UpdateAgreementRequest) (*AgreementResponse, error) {
	var a *agreement.Agreement
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.agreementRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		terms := a.Terms()
		applyUpdate(&terms, req)
		datesChanged := !terms.StartDate.Equal(a.StartDate) || !terms.EndDate.Equal(a.EndDate)

		if err := a.Amend(terms); err != nil {
			return err
		}
		if datesChanged {
			if err := s.ensureNoOverlap(ctx, a); err != nil {
				return err
			}
		}
		if req.Charges != nil {
			charges, err := s.resolveCharges(ctx, req.Charges)
			if err != nil {
				return err
			}
			if err := a.SetCharges(charges); err != nil {
				return err
			}
		}
		return s.agreementRepo.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	resp := ToAgreementResponse(a)
	return &resp, nil
}

func applyUpdate(t *agreement.Terms, req UpdateAgreementRequest) {
	if req.AgentID != nil {
		t.AgentID = req.AgentID
	}
	if req.StartDate != nil {
		t.StartDate = calendar.DateOf(*req.StartDate)
	}
	if req.EndDate != nil {
		t.EndDate = calendar.DateOf(*req.EndDate)
	}
	if req.RentAmount != nil {
		t.RentAmount = *req.RentAmount
	}
	if req.DepositAmount != nil {
		t.DepositAmount = *req.DepositAmount
	}
	if req.ParkingCharges != nil {
		t.ParkingCharges = *req.ParkingCharges
	}
	if req.OpeningBalance != nil {
		t.OpeningBalance = *req.OpeningBalance
	}
	if req.PaymentDay != nil {
		t.PaymentDay = *req.PaymentDay
	}
	if req.PaymentTerms != nil {
		t.PaymentTerms = *req.PaymentTerms
	}
	if req.AutoGenerateInvoices != nil {
		t.AutoGenerateInvoices = req.AutoGenerateInvoices
	}
	if req.AutoPostInvoices != nil {
		t.AutoPostInvoices = req.AutoPostInvoices
	}
	if req.InvoiceDay != nil {
		t.InvoiceDay = *req.InvoiceDay
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}
}

// Activate moves a draft agreement to active. The room becomes occupied,
// the tenant moves in, and the opening balance, rent schedule and charges
// are posted to the tenant's statement.
func (s *AgreementService) Activate(ctx context.Context, id uuid.UUID) (*AgreementResponse, error) {
	var (
		a    *agreement.Agreement
		room *property.Room
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.agreementRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ensureNoOverlap(ctx, a); err != nil {
			return err
		}
		room, err = s.roomRepo.FindByID(ctx, a.RoomID)
		if err != nil {
			return err
		}
		t, err := s.tenantRepo.FindByID(ctx, a.TenantID)
		if err != nil {
			return err
		}

		now := s.clock()
		if err := a.Activate(now); err != nil {
			return err
		}
		if err := room.Occupy(t.ID, a.ID); err != nil {
			return err
		}
		if err := t.MoveIn(room.ID, a.ID); err != nil {
			return err
		}
		if err := s.roomRepo.Save(ctx, room); err != nil {
			return err
		}
		if err := s.tenantRepo.Save(ctx, t); err != nil {
			return err
		}

		recorded, err := s.ledger.PostActivation(ctx, a, calendar.DateOf(now))
		if err != nil {
			return fmt.Errorf("failed to post activation entries: %w", err)
		}
		if recorded {
			a.MarkOpeningBalanceRecorded()
		}
		return s.agreementRepo.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("agreement activated",
		zap.String("agreement", a.Number),
		zap.String("room", room.Name),
		zap.Bool("opening_balance_recorded", a.OpeningBalanceRecorded),
	)
	s.publish(ctx, a, room)
	resp := ToAgreementResponse(a)
	return &resp, nil
}

// release vacates the room held by the agreement and moves the tenant out
func (s *AgreementService) release(ctx context.Context, a *agreement.Agreement) (*property.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, a.RoomID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if room != nil && (room.CurrentAgreementID == nil || *room.CurrentAgreementID == a.ID) {
		room.Vacate()
		if err := s.roomRepo.Save(ctx, room); err != nil {
			return nil, err
		}
	}

	t, err := s.tenantRepo.FindByID(ctx, a.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return room, nil
		}
		return nil, err
	}
	if t.CurrentRoomID != nil && *t.CurrentRoomID == a.RoomID {
		t.MoveOut()
		if err := s.tenantRepo.Save(ctx, t); err != nil {
			return nil, err
		}
	}
	return room, nil
}

// Terminate ends an active agreement, vacating its room
func (s *AgreementService) Terminate(ctx context.Context, id uuid.UUID, reason string) (*AgreementResponse, error) {
	var (
		a    *agreement.Agreement
		room *property.Room
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.agreementRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Terminate(s.clock(), reason); err != nil {
			return err
		}
		if room, err = s.release(ctx, a); err != nil {
			return err
		}
		return s.agreementRepo.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("agreement terminated", zap.String("agreement", a.Number), zap.String("reason", reason))
	s.publish(ctx, a)
	if room != nil {
		s.publish(ctx, room)
	}
	resp := ToAgreementResponse(a)
	return &resp, nil
}

// Cancel discards a draft agreement
func (s *AgreementService) Cancel(ctx context.Context, id uuid.UUID) (*AgreementResponse, error) {
	a, err := s.agreementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Cancel(); err != nil {
		return nil, err
	}
	if err := s.agreementRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	resp := ToAgreementResponse(a)
	return &resp, nil
}

// Delete removes an agreement that is not active, together with its
// statement entries
func (s *AgreementService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.agreementRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !a.State.CanDelete() {
			return shared.NewDomainError("INVALID_STATE", "An active agreement must be terminated before it is deleted")
		}
		if _, err := s.ledger.RemoveAgreementEntries(ctx, a); err != nil {
			return err
		}
		return s.agreementRepo.Delete(ctx, id)
	})
}

// Renew drafts the follow-up agreement starting the day after this one ends
func (s *AgreementService) Renew(ctx context.Context, id uuid.UUID) (*AgreementResponse, error) {
	var renewed *agreement.Agreement
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.agreementRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		number, err := s.numbers.NextAgreementNumber(ctx, s.clock())
		if err != nil {
			return err
		}
		renewed, err = a.Renew(number)
		if err != nil {
			return err
		}
		if err := s.ensureNoOverlap(ctx, renewed); err != nil {
			return err
		}
		return s.agreementRepo.Save(ctx, renewed)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("agreement renewed", zap.String("agreement", renewed.Number))
	s.publish(ctx, renewed)
	resp := ToAgreementResponse(renewed)
	return &resp, nil
}

// CleanAndTerminate wipes everything posted under an agreement (statement
// entries, payments of its collections, invoices and the collections
// themselves), then terminates it when active.
func (s *AgreementService) CleanAndTerminate(ctx context.Context, id uuid.UUID, reason string) (*shared.BatchResult, error) {
	result := shared.NewBatchResult("clean_and_terminate")
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.agreementRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		entries, err := s.ledger.RemoveAgreementEntries(ctx, a)
		if err != nil {
			return err
		}
		collections, err := s.collectionRepo.FindByAgreement(ctx, a.ID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(collections))
		for i, c := range collections {
			ids[i] = c.ID
		}
		payments, err := s.paymentRepo.DeleteByCollections(ctx, ids)
		if err != nil {
			return err
		}
		invoices, err := s.invoiceRepo.DeleteByAgreement(ctx, a.ID)
		if err != nil {
			return err
		}
		for _, collectionID := range ids {
			if err := s.collectionRepo.Delete(ctx, collectionID); err != nil {
				return err
			}
		}
		result.Processed = int(entries) + int(payments) + int(invoices) + len(ids)

		if a.State == agreement.StateActive {
			if err := a.Terminate(s.clock(), reason); err != nil {
				return err
			}
			if _, err := s.release(ctx, a); err != nil {
				return err
			}
			if err := s.agreementRepo.Save(ctx, a); err != nil {
				return err
			}
		}
		if err := s.ledger.RecomputeTenant(ctx, a.TenantID); err != nil {
			return err
		}

		s.logger.Info("agreement cleaned",
			zap.String("agreement", a.Number),
			zap.Int64("statement_entries", entries),
			zap.Int64("payments", payments),
			zap.Int64("invoices", invoices),
			zap.Int("collections", len(ids)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
