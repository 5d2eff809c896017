// Package bootstrap wires the repositories and application services of the
// rental ledger on top of one database.
package bootstrap

import (
	"context"
	"time"

	agreementapp "github.com/erp/rental/internal/application/agreement"
	billingapp "github.com/erp/rental/internal/application/billing"
	catalogapp "github.com/erp/rental/internal/application/catalog"
	collectionapp "github.com/erp/rental/internal/application/collection"
	documentapp "github.com/erp/rental/internal/application/document"
	duesapp "github.com/erp/rental/internal/application/dues"
	financeapp "github.com/erp/rental/internal/application/finance"
	importapp "github.com/erp/rental/internal/application/import"
	ledgerapp "github.com/erp/rental/internal/application/ledger"
	reportapp "github.com/erp/rental/internal/application/report"
	tenantapp "github.com/erp/rental/internal/application/tenant"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/infrastructure/config"
	csvimport "github.com/erp/rental/internal/infrastructure/import"
	"github.com/erp/rental/internal/infrastructure/persistence"
	"github.com/erp/rental/internal/infrastructure/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Metrics is the union of the metrics sinks the services report to.
// *telemetry.LedgerMetrics satisfies it.
type Metrics interface {
	CollectionRecorded(ctx context.Context, collectionType string)
	StatementEntriesCreated(ctx context.Context, entryType string, n int)
	ReconciliationMatched(ctx context.Context, matcher string)
	ReconciliationUnmatched(ctx context.Context)
	JobCompleted(ctx context.Context, result *shared.BatchResult, elapsed time.Duration)
}

// Repositories holds the GORM repositories
type Repositories struct {
	Properties  *persistence.GormPropertyRepository
	Flats       *persistence.GormFlatRepository
	RoomTypes   *persistence.GormRoomTypeRepository
	Rooms       *persistence.GormRoomRepository
	Charges     *persistence.GormOtherChargeRepository
	Tenants     *persistence.GormTenantRepository
	Occupants   *persistence.GormOccupantRepository
	Agents      *persistence.GormAgentRepository
	Agreements  *persistence.GormAgreementRepository
	Collections *persistence.GormCollectionRepository
	Entries     *persistence.GormLedgerRepository
	Invoices    *persistence.GormInvoiceRepository
	Payments    *persistence.GormPaymentRepository
	Expenses    *persistence.GormExpenseRepository
	Documents   *persistence.GormDocumentRepository
	Numbers     *persistence.GormNumberGenerator
	Transactor  *persistence.GormTransactor
}

// NewRepositories creates every repository on db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Properties:  persistence.NewGormPropertyRepository(db),
		Flats:       persistence.NewGormFlatRepository(db),
		RoomTypes:   persistence.NewGormRoomTypeRepository(db),
		Rooms:       persistence.NewGormRoomRepository(db),
		Charges:     persistence.NewGormOtherChargeRepository(db),
		Tenants:     persistence.NewGormTenantRepository(db),
		Occupants:   persistence.NewGormOccupantRepository(db),
		Agents:      persistence.NewGormAgentRepository(db),
		Agreements:  persistence.NewGormAgreementRepository(db),
		Collections: persistence.NewGormCollectionRepository(db),
		Entries:     persistence.NewGormLedgerRepository(db),
		Invoices:    persistence.NewGormInvoiceRepository(db),
		Payments:    persistence.NewGormPaymentRepository(db),
		Expenses:    persistence.NewGormExpenseRepository(db),
		Documents:   persistence.NewGormDocumentRepository(db),
		Numbers:     persistence.NewGormNumberGenerator(db),
		Transactor:  persistence.NewGormTransactor(db),
	}
}

// Services holds the application services
type Services struct {
	Properties  *catalogapp.PropertyService
	Rooms       *catalogapp.RoomService
	Tenants     *tenantapp.TenantService
	Agreements  *agreementapp.AgreementService
	Collections *collectionapp.CollectionService
	Invoices    *billingapp.InvoiceService
	Reconciler  *billingapp.Reconciler
	Expenses    *financeapp.ExpenseService
	Ledger      *ledgerapp.Service
	Dues        *duesapp.Service
	Reports     *reportapp.ReportService
	Import      *importapp.Service
	Documents   *documentapp.Service

	ownedSessions *csvimport.InMemorySessionStore
}

// Close stops background work started by NewServices
func (s *Services) Close() {
	if s.ownedSessions != nil {
		s.ownedSessions.Stop()
	}
}

type options struct {
	clock     calendar.Clock
	logger    *zap.Logger
	metrics   Metrics
	publisher shared.EventPublisher
	store     duesapp.SnapshotStore
	ledger    config.LedgerConfig
	imports   config.ImportConfig
	sessions  csvimport.SessionStore
	objects   documentapp.ObjectStorage
	storage   config.StorageConfig
}

// Option configures NewServices
type Option func(*options)

// WithClock pins "today" for every service
func WithClock(clock calendar.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger sets the logger handed to every service
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the metrics sink. A nil sink is ignored.
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithEventPublisher sets where domain events go
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithDuesStore shares the dues snapshot through store
func WithDuesStore(store duesapp.SnapshotStore) Option {
	return func(o *options) { o.store = store }
}

// WithLedgerConfig applies the ledger settings
func WithLedgerConfig(cfg config.LedgerConfig) Option {
	return func(o *options) { o.ledger = cfg }
}

// WithImportConfig applies the file import limits
func WithImportConfig(cfg config.ImportConfig) Option {
	return func(o *options) { o.imports = cfg }
}

// WithImportSessions keeps import sessions in store instead of a private
// in-memory store
func WithImportSessions(store csvimport.SessionStore) Option {
	return func(o *options) { o.sessions = store }
}

// WithObjectStorage sets where document files live. Without it documents
// go to a StubObjectStorage.
func WithObjectStorage(objects documentapp.ObjectStorage) Option {
	return func(o *options) { o.objects = objects }
}

// WithStorageConfig applies the document upload limits
func WithStorageConfig(cfg config.StorageConfig) Option {
	return func(o *options) { o.storage = cfg }
}

// NewServices builds the application services on repos
func NewServices(repos *Repositories, opts ...Option) *Services {
	o := options{
		clock:  calendar.SystemClock,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ledgerOpts := []ledgerapp.Option{ledgerapp.WithClock(o.clock), ledgerapp.WithLogger(o.logger.Named("ledger"))}
	reconcilerOpts := []billingapp.ReconcilerOption{billingapp.WithReconcilerLogger(o.logger.Named("reconciler"))}
	duesOpts := []duesapp.Option{
		duesapp.WithClock(o.clock),
		duesapp.WithLogger(o.logger.Named("dues")),
		duesapp.WithReminderMinDays(o.ledger.ReminderMinDays),
	}
	if o.store != nil {
		duesOpts = append(duesOpts, duesapp.WithStore(o.store))
	}

	// Each sink is only assigned when set; a typed nil in an interface
	// would bypass the services' no-op defaults.
	var (
		collectionMetrics collectionapp.Metrics
		billingMetrics    billingapp.Metrics
	)
	if o.metrics != nil {
		ledgerOpts = append(ledgerOpts, ledgerapp.WithMetrics(o.metrics))
		reconcilerOpts = append(reconcilerOpts, billingapp.WithReconcilerMetrics(o.metrics))
		duesOpts = append(duesOpts, duesapp.WithMetrics(o.metrics))
		collectionMetrics = o.metrics
		billingMetrics = o.metrics
	}

	s := &Services{}
	s.Properties = catalogapp.NewPropertyService(repos.Properties, repos.Flats, repos.Rooms, o.logger.Named("properties"))
	s.Rooms = catalogapp.NewRoomService(repos.Properties, repos.Flats, repos.RoomTypes, repos.Rooms, repos.Charges)
	s.Tenants = tenantapp.NewTenantService(repos.Tenants, repos.Occupants, repos.Agents, o.logger.Named("tenants"))
	s.Expenses = financeapp.NewExpenseService(repos.Expenses, repos.Properties, o.logger.Named("expenses"))
	s.Ledger = ledgerapp.NewService(repos.Entries, repos.Collections, repos.Agreements, repos.Transactor, ledgerOpts...)
	s.Reconciler = billingapp.NewReconciler(repos.Invoices, repos.Payments, repos.Numbers, repos.Transactor, reconcilerOpts...)

	s.Agreements = agreementapp.NewAgreementService(agreementapp.AgreementServiceConfig{
		AgreementRepo:       repos.Agreements,
		NumberGenerator:     repos.Numbers,
		RoomRepo:            repos.Rooms,
		TenantRepo:          repos.Tenants,
		ChargeRepo:          repos.Charges,
		CollectionRepo:      repos.Collections,
		InvoiceRepo:         repos.Invoices,
		PaymentRepo:         repos.Payments,
		Ledger:              s.Ledger,
		Transactor:          repos.Transactor,
		EventPublisher:      o.publisher,
		Clock:               o.clock,
		Logger:              o.logger.Named("agreements"),
		ExpiringWindowDays:  o.ledger.ExpiringWindowDays,
		DefaultPaymentTerms: o.ledger.DefaultPaymentTerms,
	})
	s.Collections = collectionapp.NewCollectionService(collectionapp.CollectionServiceConfig{
		CollectionRepo: repos.Collections,
		ReceiptNumbers: repos.Numbers,
		AgreementRepo:  repos.Agreements,
		RoomRepo:       repos.Rooms,
		TenantRepo:     repos.Tenants,
		Ledger:         s.Ledger,
		Reconciler:     s.Reconciler,
		Transactor:     repos.Transactor,
		EventPublisher: o.publisher,
		Clock:          o.clock,
		Logger:         o.logger.Named("collections"),
		Metrics:        collectionMetrics,
	})
	s.Invoices = billingapp.NewInvoiceService(billingapp.InvoiceServiceConfig{
		InvoiceRepo:     repos.Invoices,
		PaymentRepo:     repos.Payments,
		NumberGenerator: repos.Numbers,
		AgreementRepo:   repos.Agreements,
		Reconciler:      s.Reconciler,
		Transactor:      repos.Transactor,
		EventPublisher:  o.publisher,
		Clock:           o.clock,
		Logger:          o.logger.Named("invoices"),
		Metrics:         billingMetrics,
	})
	s.Dues = duesapp.NewService(repos.Agreements, repos.Collections, repos.Tenants, repos.Rooms, duesOpts...)
	s.Reports = reportapp.NewReportService(reportapp.ReportServiceConfig{
		CollectionRepo: repos.Collections,
		ExpenseRepo:    repos.Expenses,
		RoomRepo:       repos.Rooms,
		TenantRepo:     repos.Tenants,
		AgentRepo:      repos.Agents,
		AgreementRepo:  repos.Agreements,
		EntryRepo:      repos.Entries,
		Dues:           s.Dues,
		Statements:     s.Ledger,
		Clock:          o.clock,
		Logger:         o.logger.Named("reports"),
	})

	sessions := o.sessions
	if sessions == nil {
		ttl := o.imports.SessionTTL
		if ttl <= 0 {
			ttl = 30 * time.Minute
		}
		s.ownedSessions = csvimport.NewInMemorySessionStore(ttl)
		sessions = s.ownedSessions
	}
	s.Import = importapp.NewService(importapp.Config{
		Properties:       repos.Properties,
		Flats:            repos.Flats,
		RoomTypes:        repos.RoomTypes,
		Rooms:            repos.Rooms,
		Tenants:          repos.Tenants,
		Agreements:       repos.Agreements,
		PropertyService:  s.Properties,
		RoomService:      s.Rooms,
		TenantService:    s.Tenants,
		AgreementService: s.Agreements,
		Sessions:         sessions,
		Logger:           o.logger.Named("import"),
		MaxRows:          o.imports.MaxRows,
		MaxErrors:        o.imports.MaxErrors,
	})

	objects := o.objects
	if objects == nil {
		objects = storage.NewStubObjectStorage("")
	}
	s.Documents = documentapp.NewService(documentapp.Config{
		Documents:       repos.Documents,
		Agreements:      repos.Agreements,
		Tenants:         repos.Tenants,
		Collections:     repos.Collections,
		Storage:         objects,
		Clock:           o.clock,
		Logger:          o.logger.Named("documents"),
		UploadURLExpiry: o.storage.PresignExpiration,
		MaxFileSize:     o.storage.MaxUploadSize,
	})
	return s
}
