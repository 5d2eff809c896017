package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/ledger"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerWriter posts and removes the statement entry of a collection
type LedgerWriter interface {
	CreateFromCollection(ctx context.Context, c *collection.Collection) (*ledger.StatementEntry, error)
	RemoveCollectionEntry(ctx context.Context, c *collection.Collection) error
}

// PaymentReconciler registers and reverses the accounting payment of a
// collection. Reconcile is best effort and never fails.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, c *collection.Collection) *billing.Payment
	Reverse(ctx context.Context, c *collection.Collection) error
}

// Metrics receives collection counters
type Metrics interface {
	CollectionRecorded(ctx context.Context, collectionType string)
}

type noopMetrics struct{}

func (noopMetrics) CollectionRecorded(context.Context, string) {}

// CollectionService records money received from tenants and keeps the
// statement and invoices in step with it
type CollectionService struct {
	collectionRepo collection.Repository
	receipts       collection.ReceiptNumberGenerator
	agreementRepo  agreement.Repository
	roomRepo       property.RoomRepository
	tenantRepo     tenant.Repository
	ledger         LedgerWriter
	reconciler     PaymentReconciler
	tx             shared.Transactor
	eventPublisher shared.EventPublisher
	clock          calendar.Clock
	logger         *zap.Logger
	metrics        Metrics
}

// CollectionServiceConfig holds the collaborators of the collection service
type CollectionServiceConfig struct {
	CollectionRepo collection.Repository
	ReceiptNumbers collection.ReceiptNumberGenerator
	AgreementRepo  agreement.Repository
	RoomRepo       property.RoomRepository
	TenantRepo     tenant.Repository
	Ledger         LedgerWriter
	Reconciler     PaymentReconciler
	Transactor     shared.Transactor
	EventPublisher shared.EventPublisher
	Clock          calendar.Clock
	Logger         *zap.Logger
	Metrics        Metrics
}

// NewCollectionService creates a new CollectionService
func NewCollectionService(config CollectionServiceConfig) *CollectionService {
	s := &CollectionService{
		collectionRepo: config.CollectionRepo,
		receipts:       config.ReceiptNumbers,
		agreementRepo:  config.AgreementRepo,
		roomRepo:       config.RoomRepo,
		tenantRepo:     config.TenantRepo,
		ledger:         config.Ledger,
		reconciler:     config.Reconciler,
		tx:             config.Transactor,
		eventPublisher: config.EventPublisher,
		clock:          config.Clock,
		logger:         config.Logger,
		metrics:        config.Metrics,
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
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	return s
}

func (s *CollectionService) publish(ctx context.Context, c *collection.Collection) {
	if err := shared.PublishPending(ctx, s.eventPublisher, c); err != nil {
		s.logger.Warn("failed to publish domain events", zap.String("collection_id", c.ID.String()), zap.Error(err))
	}
}

// Create records a collection. The tenant's current agreement and room are
// filled in when not given. A paid collection gets its statement entry and
// is matched against open invoices.
func (s *CollectionService) Create(ctx context.Context, req CreateCollectionRequest) (*CollectionResponse, error) {
	t, err := s.tenantRepo.FindByID(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_TENANT", "Tenant not found")
		}
		return nil, err
	}
	place, err := s.placement(ctx, t, req)
	if err != nil {
		return nil, err
	}
	date := req.Date
	if date.IsZero() {
		date = s.today()
	}

	var c *collection.Collection
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		receipt, err := s.receipts.NextReceiptNumber(ctx, date)
		if err != nil {
			return err
		}
		c, err = collection.NewCollection(receipt, collection.Params{
			TenantID:      t.ID,
			TenantName:    t.Name,
			Date:          date,
			Amount:        req.Amount,
			Type:          collection.Type(req.CollectionType),
			PaymentMethod: collection.PaymentMethod(req.PaymentMethod),
			Status:        collection.Status(req.Status),
			PeriodFrom:    req.PeriodFrom,
			PeriodTo:      req.PeriodTo,
			Reference:     req.Reference,
			CollectedBy:   req.CollectedBy,
			Notes:         req.Notes,
		}, place)
		if err != nil {
			return err
		}
		if req.DueDate != nil {
			c.SetDueDate(*req.DueDate)
		}
		if err := s.collectionRepo.Save(ctx, c); err != nil {
			return err
		}
		return s.settle(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CollectionRecorded(ctx, string(c.Type))
	s.logger.Info("collection recorded",
		zap.String("receipt", c.ReceiptNumber),
		zap.String("tenant_id", c.TenantID.String()),
		zap.String("type", string(c.Type)),
		zap.String("amount", c.Amount.StringFixed(2)),
	)
	s.publish(ctx, c)
	resp := ToCollectionResponse(c)
	return &resp, nil
}

// placement resolves the agreement and room a collection belongs to
func (s *CollectionService) placement(ctx context.Context, t *tenant.Tenant, req CreateCollectionRequest) (collection.Placement, error) {
	var place collection.Placement
	if req.AgreementID != nil {
		a, err := s.agreementRepo.FindByID(ctx, *req.AgreementID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return place, shared.NewDomainError("INVALID_AGREEMENT", "Agreement not found")
			}
			return place, err
		}
		if a.TenantID != t.ID {
			return place, shared.NewDomainError("TENANT_MISMATCH", "Agreement belongs to another tenant")
		}
		place.Agreement = a
	} else {
		a, err := s.agreementRepo.FindActiveForTenant(ctx, t.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return place, err
		}
		place.Agreement = a
	}

	roomID := req.RoomID
	if roomID == nil && place.Agreement != nil {
		id := place.Agreement.RoomID
		roomID = &id
	}
	if roomID == nil {
		roomID = t.CurrentRoomID
	}
	if roomID == nil {
		return place, nil
	}
	room, err := s.roomRepo.FindByID(ctx, *roomID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return place, shared.NewDomainError("INVALID_ROOM", "Room not found")
		}
		return place, err
	}
	place.RoomID = &room.ID
	place.RoomNumber = room.RoomNumber
	place.ParkingDeposit = room.ParkingDeposit
	return place, nil
}

// settle posts the statement entry of a paid collection and attempts
// reconciliation. An entry that already exists is kept.
func (s *CollectionService) settle(ctx context.Context, c *collection.Collection) error {
	if !c.Status.IsPaid() {
		return nil
	}
	entry, err := s.ledger.CreateFromCollection(ctx, c)
	switch {
	case err == nil:
		id := entry.ID
		c.LinkStatementEntry(&id)
	case errors.Is(err, shared.ErrDuplicateEntry):
	default:
		return fmt.Errorf("post statement entry: %w", err)
	}
	if s.reconciler != nil {
		s.reconciler.Reconcile(ctx, c)
	}
	return s.collectionRepo.Save(ctx, c)
}

// unsettle removes the statement entry and reverses the payment
func (s *CollectionService) unsettle(ctx context.Context, c *collection.Collection) error {
	if err := s.ledger.RemoveCollectionEntry(ctx, c); err != nil {
		return fmt.Errorf("remove statement entry: %w", err)
	}
	c.LinkStatementEntry(nil)
	if s.reconciler != nil {
		if err := s.reconciler.Reverse(ctx, c); err != nil {
			return fmt.Errorf("reverse payment: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a collection
func (s *CollectionService) GetByID(ctx context.Context, id uuid.UUID) (*CollectionResponse, error) {
	c, err := s.collectionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCollectionResponse(c)
	return &resp, nil
}

// List lists collections
func (s *CollectionService) List(ctx context.Context, f CollectionListFilter) (shared.Paginated[CollectionResponse], error) {
	filter := collection.Filter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		TenantID:    f.TenantID,
		AgreementID: f.AgreementID,
		FromDate:    f.FromDate,
		ToDate:      f.ToDate,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if f.Status != "" {
		st := collection.Status(f.Status)
		filter.Status = &st
	}
	if f.CollectionType != "" {
		typ := collection.Type(f.CollectionType)
		filter.Type = &typ
	}

	collections, total, err := s.collectionRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[CollectionResponse]{}, err
	}
	items := make([]CollectionResponse, len(collections))
	for i := range collections {
		items[i] = ToCollectionResponse(&collections[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update edits the free-text fields and the due date
func (s *CollectionService) Update(ctx context.Context, id uuid.UUID, req UpdateCollectionRequest) (*CollectionResponse, error) {
	c, err := s.collectionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateDetails(req.Reference, req.CollectedBy, req.Notes); err != nil {
		return nil, err
	}
	if req.DueDate != nil {
		c.SetDueDate(*req.DueDate)
	}
	if err := s.collectionRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCollectionResponse(c)
	return &resp, nil
}

// ChangeStatus applies a workflow action. Reaching a paid status posts the
// statement entry, cancelling reverses it together with the payment.
func (s *CollectionService) ChangeStatus(ctx context.Context, id uuid.UUID, action StatusAction) (*CollectionResponse, error) {
	var c *collection.Collection
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if c, err = s.collectionRepo.FindByID(ctx, id); err != nil {
			return err
		}
		switch action.Action {
		case ActionCollect:
			err = c.MarkCollected()
		case ActionVerify:
			err = c.Verify()
		case ActionDeposit:
			err = c.MarkDeposited()
		case ActionCancel:
			if err = c.Cancel(); err == nil {
				err = s.unsettle(ctx, c)
			}
			if err != nil {
				return err
			}
			return s.collectionRepo.Save(ctx, c)
		default:
			return shared.Errorf("INVALID_ACTION", "Unknown action %q", action.Action)
		}
		if err != nil {
			return err
		}
		if err := s.collectionRepo.Save(ctx, c); err != nil {
			return err
		}
		return s.settle(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("collection status changed",
		zap.String("receipt", c.ReceiptNumber),
		zap.String("status", string(c.Status)),
	)
	s.publish(ctx, c)
	resp := ToCollectionResponse(c)
	return &resp, nil
}

// Cancel voids a collection
func (s *CollectionService) Cancel(ctx context.Context, id uuid.UUID) (*CollectionResponse, error) {
	return s.ChangeStatus(ctx, id, StatusAction{Action: ActionCancel})
}

// Delete removes a collection after reversing its statement entry and
// payment
func (s *CollectionService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.collectionRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.unsettle(ctx, c); err != nil {
			return err
		}
		return s.collectionRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("collection deleted", zap.String("collection_id", id.String()))
	return nil
}

// RecentCollections returns the latest non-cancelled collections
func (s *CollectionService) RecentCollections(ctx context.Context, limit int) ([]CollectionResponse, error) {
	if limit <= 0 {
		limit = 5
	}
	collections, err := s.collectionRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]CollectionResponse, len(collections))
	for i := range collections {
		items[i] = ToCollectionResponse(&collections[i])
	}
	return items, nil
}

func (s *CollectionService) today() time.Time {
	return calendar.DateOf(s.clock())
}
