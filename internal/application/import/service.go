// Package importapp loads the property catalog, tenants and agreements from
// spreadsheet exports. A file is validated first and kept in a session; the
// import step then writes the session's rows through the application services.
package importapp

import (
	"context"
	"errors"
	"fmt"
	"io"

	agreementapp "github.com/erp/rental/internal/application/agreement"
	catalogapp "github.com/erp/rental/internal/application/catalog"
	tenantapp "github.com/erp/rental/internal/application/tenant"
	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/tenant"
	csvimport "github.com/erp/rental/internal/infrastructure/import"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result reports what an import wrote
type Result struct {
	SessionID    uuid.UUID            `json:"session_id"`
	EntityType   csvimport.EntityType `json:"entity_type"`
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	UpdatedRows  int                  `json:"updated_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// Config holds the dependencies of Service
type Config struct {
	Properties property.PropertyRepository
	Flats      property.FlatRepository
	RoomTypes  property.RoomTypeRepository
	Rooms      property.RoomRepository
	Tenants    tenant.Repository
	Agreements agreement.Repository

	PropertyService  *catalogapp.PropertyService
	RoomService      *catalogapp.RoomService
	TenantService    *tenantapp.TenantService
	AgreementService *agreementapp.AgreementService

	Sessions  csvimport.SessionStore
	Logger    *zap.Logger
	MaxRows   int
	MaxErrors int
}

// Service validates and imports data files
type Service struct {
	properties property.PropertyRepository
	flats      property.FlatRepository
	roomTypes  property.RoomTypeRepository
	rooms      property.RoomRepository
	tenants    tenant.Repository
	agreements agreement.Repository

	propertySvc  *catalogapp.PropertyService
	roomSvc      *catalogapp.RoomService
	tenantSvc    *tenantapp.TenantService
	agreementSvc *agreementapp.AgreementService

	sessions  csvimport.SessionStore
	processor *csvimport.ImportProcessor
	maxErrors int
	logger    *zap.Logger
}

// NewService creates the import service
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxErrors := cfg.MaxErrors
	if maxErrors <= 0 {
		maxErrors = 100
	}
	s := &Service{
		properties:   cfg.Properties,
		flats:        cfg.Flats,
		roomTypes:    cfg.RoomTypes,
		rooms:        cfg.Rooms,
		tenants:      cfg.Tenants,
		agreements:   cfg.Agreements,
		propertySvc:  cfg.PropertyService,
		roomSvc:      cfg.RoomService,
		tenantSvc:    cfg.TenantService,
		agreementSvc: cfg.AgreementService,
		sessions:     cfg.Sessions,
		maxErrors:    maxErrors,
		logger:       logger,
	}

	opts := []csvimport.ProcessorOption{
		csvimport.WithMaxErrors(maxErrors),
		csvimport.WithReferenceLookup(s.lookupReference),
		csvimport.WithUniqueLookup(s.lookupUnique),
	}
	if cfg.MaxRows > 0 {
		opts = append(opts, csvimport.WithMaxRows(cfg.MaxRows))
	}
	s.processor = csvimport.NewImportProcessor(opts...)
	return s
}

// Validate parses and checks a file, storing the outcome as a session.
// An invalid file still yields a session carrying its row errors.
func (s *Service) Validate(
	ctx context.Context,
	entity csvimport.EntityType,
	mode csvimport.ConflictMode,
	fileName string,
	fileSize int64,
	r io.Reader,
) (*csvimport.ImportSession, error) {
	if !csvimport.IsValidEntityType(string(entity)) {
		return nil, shared.Errorf("INVALID_ENTITY_TYPE", "Cannot import '%s'", entity)
	}
	if mode == "" {
		mode = csvimport.ConflictModeSkip
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONFLICT_MODE", "Conflict mode must be skip, update or fail")
	}

	session := csvimport.NewImportSession(entity, mode, fileName, fileSize)
	if err := s.processor.Validate(ctx, session, r, s.schema(entity, mode)); err != nil {
		switch {
		case errors.Is(err, csvimport.ErrEmptyFile):
			return nil, shared.NewDomainError("INVALID_FILE", "The file is empty")
		case errors.Is(err, csvimport.ErrInvalidEncoding):
			return nil, shared.NewDomainError("INVALID_FILE", "The file must be UTF-8 or UTF-16 text")
		case errors.Is(err, csvimport.ErrMissingHeader):
			return nil, shared.NewDomainError("INVALID_FILE", "The file has no header row")
		}
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("import validated",
		zap.String("session_id", session.ID.String()),
		zap.String("entity", string(entity)),
		zap.Int("total_rows", session.TotalRows),
		zap.Int("error_rows", session.ErrorRows))
	return session, nil
}

// Session returns a stored session
func (s *Service) Session(ctx context.Context, id uuid.UUID) (*csvimport.ImportSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, csvimport.ErrSessionNotFound) {
			return nil, shared.NewDomainError("IMPORT_SESSION_NOT_FOUND", "Import session not found or expired")
		}
		return nil, err
	}
	return session, nil
}

// Sessions returns the most recent sessions, newest first
func (s *Service) Sessions(ctx context.Context, limit int) ([]*csvimport.ImportSession, error) {
	return s.sessions.Recent(ctx, limit)
}

// Import writes the rows of a validated session. Rows rejected by the
// services are reported and the rest still go in; a storage failure stops
// the import and is returned.
func (s *Service) Import(ctx context.Context, id uuid.UUID) (*Result, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.State != csvimport.StateValidated {
		return nil, shared.Errorf("INVALID_STATE", "Import session is %s, not validated", session.State)
	}
	if !session.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot import a session with validation errors")
	}

	if err := s.advance(ctx, session, csvimport.StateImporting); err != nil {
		return nil, err
	}
	rows := session.Rows()
	result := &Result{
		SessionID:  session.ID,
		EntityType: session.EntityType,
		TotalRows:  len(rows),
	}
	errs := csvimport.NewProblems(s.maxErrors)
	importRow := s.rowImporter(session.EntityType)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			s.finish(ctx, session, csvimport.StateCancelled)
			return nil, err
		}

		outcome, err := importRow(ctx, row, session.ConflictMode)
		if err != nil {
			code := shared.CodeOf(err)
			if code == "" {
				s.finish(ctx, session, csvimport.StateFailed)
				s.logger.Error("import aborted",
					zap.String("session_id", session.ID.String()),
					zap.Int("row", row.LineNumber),
					zap.Error(err))
				return nil, fmt.Errorf("row %d: %w", row.LineNumber, err)
			}
			errs.Add(csvimport.NewRowError(row.LineNumber, "", code, err.Error()))
			result.ErrorRows++
			continue
		}
		switch outcome {
		case outcomeCreated:
			result.ImportedRows++
		case outcomeUpdated:
			result.UpdatedRows++
		case outcomeSkipped:
			result.SkippedRows++
		}
	}

	result.Errors = errs.List()
	result.IsTruncated = errs.Truncated()
	result.TotalErrors = errs.Total()
	if result.ErrorRows > 0 {
		s.finish(ctx, session, csvimport.StateFailed)
	} else {
		s.finish(ctx, session, csvimport.StateCompleted)
	}

	s.logger.Info("import finished",
		zap.String("session_id", session.ID.String()),
		zap.String("entity", string(session.EntityType)),
		zap.Int("imported", result.ImportedRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("errors", result.ErrorRows))
	return result, nil
}

// advance moves the session on and stores it. The store is written even
// when ctx is already cancelled.
func (s *Service) advance(ctx context.Context, session *csvimport.ImportSession, state csvimport.ImportState) error {
	session.UpdateState(state)
	return s.sessions.Save(context.WithoutCancel(ctx), session)
}

// finish is advance for terminal states, where a failed write only costs
// the session history
func (s *Service) finish(ctx context.Context, session *csvimport.ImportSession, state csvimport.ImportState) {
	if err := s.advance(ctx, session, state); err != nil {
		s.logger.Warn("import session not stored",
			zap.String("session_id", session.ID.String()),
			zap.String("state", string(state)),
			zap.Error(err))
	}
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeSkipped
)

type rowFunc func(ctx context.Context, row *csvimport.Row, mode csvimport.ConflictMode) (outcome, error)

func (s *Service) rowImporter(entity csvimport.EntityType) rowFunc {
	switch entity {
	case csvimport.EntityProperties:
		return s.importProperty
	case csvimport.EntityFlats:
		return s.importFlat
	case csvimport.EntityRooms:
		return s.importRoom
	case csvimport.EntityTenants:
		return s.importTenant
	default:
		return s.importAgreement
	}
}

// conflict resolves what to do with a row whose record already exists
func conflict(mode csvimport.ConflictMode, what string) (outcome, bool, error) {
	switch mode {
	case csvimport.ConflictModeUpdate:
		return outcomeUpdated, true, nil
	case csvimport.ConflictModeFail:
		return 0, false, shared.NewDomainError(csvimport.CodeAlreadyStored, what+" already exists")
	default:
		return outcomeSkipped, false, nil
	}
}
