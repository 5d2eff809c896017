package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantService handles the tenant directory: tenants, occupants and agents
type TenantService struct {
	tenantRepo   tenant.Repository
	occupantRepo tenant.OccupantRepository
	agentRepo    tenant.AgentRepository
	logger       *zap.Logger
}

// NewTenantService creates a new TenantService
func NewTenantService(
	tenantRepo tenant.Repository,
	occupantRepo tenant.OccupantRepository,
	agentRepo tenant.AgentRepository,
	logger *zap.Logger,
) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{
		tenantRepo:   tenantRepo,
		occupantRepo: occupantRepo,
		agentRepo:    agentRepo,
		logger:       logger,
	}
}

// Create registers a new tenant as a prospect
func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error) {
	if err := s.ensureUnique(ctx, uuid.Nil, req.Mobile, req.IDPassport); err != nil {
		return nil, err
	}

	t, err := tenant.NewTenant(req.Name, req.Mobile, req.IDPassport)
	if err != nil {
		return nil, err
	}
	if err := t.UpdateContact(req.Name, req.Mobile, req.Email, req.Nationality); err != nil {
		return nil, err
	}
	t.Notes = req.Notes
	if err := s.tenantRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tenant registered", zap.String("tenant_id", t.ID.String()))
	resp := ToTenantResponse(t)
	return &resp, nil
}

// ensureUnique checks that no other tenant uses the mobile or ID/passport
func (s *TenantService) ensureUnique(ctx context.Context, self uuid.UUID, mobile, idPassport string) error {
	existing, err := s.tenantRepo.FindByMobile(ctx, mobile)
	if err == nil && existing.ID != self {
		return shared.NewDomainError("ALREADY_EXISTS", "Tenant with this mobile number already exists")
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	if idPassport == "" {
		return nil
	}
	existing, err = s.tenantRepo.FindByIDPassport(ctx, idPassport)
	if err == nil && existing.ID != self {
		return shared.NewDomainError("ALREADY_EXISTS", "Tenant with this ID/passport already exists")
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	t, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTenantResponse(t)
	return &resp, nil
}

// List returns a page of tenants
func (s *TenantService) List(ctx context.Context, f TenantListFilter) (shared.Paginated[TenantResponse], error) {
	filter := tenant.Filter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if f.Status != "" {
		status := tenant.Status(f.Status)
		filter.Status = &status
	}

	tenants, total, err := s.tenantRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[TenantResponse]{}, err
	}
	items := make([]TenantResponse, len(tenants))
	for i := range tenants {
		items[i] = ToTenantResponse(&tenants[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update changes a tenant's contact details
func (s *TenantService) Update(ctx context.Context, id uuid.UUID, req UpdateTenantRequest) (*TenantResponse, error) {
	t, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, t.ID, req.Mobile, ""); err != nil {
		return nil, err
	}
	if err := t.UpdateContact(req.Name, req.Mobile, req.Email, req.Nationality); err != nil {
		return nil, err
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}
	if err := s.tenantRepo.Save(ctx, t); err != nil {
		return nil, err
	}
	resp := ToTenantResponse(t)
	return &resp, nil
}

// ChangeStatus applies a status action to a tenant
func (s *TenantService) ChangeStatus(ctx context.Context, id uuid.UUID, action StatusAction) (*TenantResponse, error) {
	t, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch action {
	case ActionActivate:
		err = t.Activate()
	case ActionDeactivate:
		t.Deactivate()
	case ActionBlacklist:
		t.Blacklist()
	default:
		err = shared.Errorf("INVALID_ACTION", "Unknown tenant action %q", action)
	}
	if err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tenant status changed",
		zap.String("tenant_id", t.ID.String()),
		zap.String("status", string(t.Status)),
	)
	resp := ToTenantResponse(t)
	return &resp, nil
}

// Delete deletes a tenant who does not live in a room
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if t.CurrentRoomID != nil {
		return shared.Errorf("TENANT_IN_ROOM", "Tenant %s still occupies a room", t.Name)
	}
	return s.tenantRepo.Delete(ctx, id)
}

// AddOccupant adds an occupant to an agreement. ID/passport numbers are
// unique and an agreement has at most one primary occupant.
func (s *TenantService) AddOccupant(ctx context.Context, agreementID uuid.UUID, req AddOccupantRequest) (*OccupantResponse, error) {
	if req.IDPassport != "" {
		_, err := s.occupantRepo.FindByIDPassport(ctx, req.IDPassport)
		if err == nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Occupant with this ID/passport already exists")
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	if req.IsPrimary {
		occupants, err := s.occupantRepo.FindByAgreement(ctx, agreementID)
		if err != nil {
			return nil, err
		}
		for _, o := range occupants {
			if o.IsPrimary {
				return nil, shared.NewDomainError("PRIMARY_EXISTS",
					fmt.Sprintf("Agreement already has %s as primary occupant", o.Name))
			}
		}
	}

	o, err := tenant.NewOccupant(agreementID, req.Name, req.IDPassport, req.Relation, req.IsPrimary)
	if err != nil {
		return nil, err
	}
	if err := s.occupantRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	resp := ToOccupantResponse(o)
	return &resp, nil
}

// ListOccupants lists the occupants of an agreement
func (s *TenantService) ListOccupants(ctx context.Context, agreementID uuid.UUID) ([]OccupantResponse, error) {
	occupants, err := s.occupantRepo.FindByAgreement(ctx, agreementID)
	if err != nil {
		return nil, err
	}
	items := make([]OccupantResponse, len(occupants))
	for i := range occupants {
		items[i] = ToOccupantResponse(&occupants[i])
	}
	return items, nil
}

// RemoveOccupant deletes an occupant
func (s *TenantService) RemoveOccupant(ctx context.Context, id uuid.UUID) error {
	return s.occupantRepo.Delete(ctx, id)
}

// CreateAgent registers an agent
func (s *TenantService) CreateAgent(ctx context.Context, req CreateAgentRequest) (*AgentResponse, error) {
	a, err := tenant.NewAgent(req.Name, req.Phone, req.Email, req.CommissionRate)
	if err != nil {
		return nil, err
	}
	if err := s.agentRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	resp := ToAgentResponse(a)
	return &resp, nil
}

// ListAgents lists every agent
func (s *TenantService) ListAgents(ctx context.Context) ([]AgentResponse, error) {
	agents, err := s.agentRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]AgentResponse, len(agents))
	for i := range agents {
		items[i] = ToAgentResponse(&agents[i])
	}
	return items, nil
}
