package billing

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService issues invoices and registers payments against them
type InvoiceService struct {
	invoiceRepo    billing.InvoiceRepository
	paymentRepo    billing.PaymentRepository
	numbers        billing.NumberGenerator
	agreementRepo  agreement.Repository
	reconciler     *Reconciler
	tx             shared.Transactor
	eventPublisher shared.EventPublisher
	clock          calendar.Clock
	logger         *zap.Logger
	metrics        Metrics
}

// InvoiceServiceConfig holds the collaborators of the invoice service
type InvoiceServiceConfig struct {
	InvoiceRepo     billing.InvoiceRepository
	PaymentRepo     billing.PaymentRepository
	NumberGenerator billing.NumberGenerator
	AgreementRepo   agreement.Repository
	Reconciler      *Reconciler
	Transactor      shared.Transactor
	EventPublisher  shared.EventPublisher
	Clock           calendar.Clock
	Logger          *zap.Logger
	Metrics         Metrics
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(config InvoiceServiceConfig) *InvoiceService {
	s := &InvoiceService{
		invoiceRepo:    config.InvoiceRepo,
		paymentRepo:    config.PaymentRepo,
		numbers:        config.NumberGenerator,
		agreementRepo:  config.AgreementRepo,
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
	if s.reconciler == nil {
		s.reconciler = NewReconciler(s.invoiceRepo, s.paymentRepo, s.numbers, s.tx,
			WithReconcilerLogger(s.logger), WithReconcilerMetrics(s.metrics))
	}
	return s
}

func (s *InvoiceService) today() time.Time {
	return calendar.DateOf(s.clock())
}

// publish is called after commit; a failure leaves the data in place
func (s *InvoiceService) publish(ctx context.Context, sources ...shared.EventSource) {
	if err := shared.PublishPending(ctx, s.eventPublisher, sources...); err != nil {
		s.logger.Warn("failed to publish invoice events", zap.Error(err))
	}
}

// Create issues a draft invoice, posting it right away when requested
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	params := billing.InvoiceParams{
		TenantID:     req.TenantID,
		AgreementID:  req.AgreementID,
		RoomID:       req.RoomID,
		InvoiceType:  billing.InvoiceType(req.InvoiceType),
		InvoiceDate:  req.InvoiceDate,
		PaymentTerms: req.PaymentTerms,
		PeriodFrom:   req.PeriodFrom,
		PeriodTo:     req.PeriodTo,
		Amount:       req.Amount,
		Description:  req.Description,
	}
	if req.DueDate != nil {
		params.DueDate = *req.DueDate
	}
	if req.AgreementID != nil {
		a, err := s.agreementRepo.FindByID(ctx, *req.AgreementID)
		if err != nil {
			return nil, err
		}
		if a.TenantID != req.TenantID {
			return nil, shared.NewDomainError("TENANT_MISMATCH", "Agreement belongs to another tenant")
		}
		if params.RoomID == nil {
			roomID := a.RoomID
			params.RoomID = &roomID
		}
		if params.PaymentTerms == 0 {
			params.PaymentTerms = a.PaymentTerms
		}
	}

	var inv *billing.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.NextInvoiceNumber(ctx, req.InvoiceDate)
		if err != nil {
			return err
		}
		if inv, err = billing.NewInvoice(number, params); err != nil {
			return err
		}
		if req.Post {
			if err := inv.Post(); err != nil {
				return err
			}
		}
		return s.invoiceRepo.Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetByID retrieves an invoice
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List lists invoices
func (s *InvoiceService) List(ctx context.Context, f InvoiceListFilter) (shared.Paginated[InvoiceResponse], error) {
	filter := billing.InvoiceFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
		},
		TenantID:    f.TenantID,
		AgreementID: f.AgreementID,
		From:        f.From,
		To:          f.To,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if f.State != "" {
		st := billing.InvoiceState(f.State)
		filter.State = &st
	}
	if f.PaymentState != "" {
		ps := billing.PaymentState(f.PaymentState)
		filter.PaymentState = &ps
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}
	items := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceResponse(&invoices[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Post confirms a draft invoice
func (s *InvoiceService) Post(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Post(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.publish(ctx, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Cancel voids an invoice that has no payments applied
func (s *InvoiceService) Cancel(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Cancel(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// RegisterPayment records a manual payment and applies it to one posted
// invoice. The amount cannot exceed the residual.
func (s *InvoiceService) RegisterPayment(ctx context.Context, invoiceID uuid.UUID, req RegisterPaymentRequest) (*PaymentResponse, error) {
	date := s.today()
	if req.Date != nil {
		date = calendar.DateOf(*req.Date)
	}

	var payment *billing.Payment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !inv.IsOpen() {
			return shared.NewDomainError("INVALID_STATE", "Invoice cannot take payments")
		}
		number, err := s.numbers.NextPaymentNumber(ctx, date)
		if err != nil {
			return err
		}
		if payment, err = billing.NewPayment(number, inv.TenantID, req.Amount, date, billing.Journal(req.Journal)); err != nil {
			return err
		}
		payment.Reference = inv.Number
		if err := payment.Post(); err != nil {
			return err
		}
		if err := payment.Allocate(inv, req.Amount); err != nil {
			return err
		}
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			return err
		}
		return s.paymentRepo.Save(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment registered",
		zap.String("payment", payment.Number),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// CancelPayment voids a payment and restores the residuals it consumed
func (s *InvoiceService) CancelPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentResponse, error) {
	var payment *billing.Payment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.paymentRepo.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		payment = p
		return s.reconciler.cancelPayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// ListPayments lists the payments of a tenant
func (s *InvoiceService) ListPayments(ctx context.Context, tenantID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = ToPaymentResponse(&payments[i])
	}
	return items, nil
}
