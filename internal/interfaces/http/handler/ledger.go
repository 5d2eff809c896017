package handler

import (
	ledgerapp "github.com/erp/rental/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// LedgerHandler serves tenant statements and balances
type LedgerHandler struct {
	BaseHandler
	ledgerService *ledgerapp.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.Service) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// History returns every statement entry of a tenant in ledger order
//
// @ID           tenantStatement
// @Summary      Statement entries of a tenant
// @Tags         statements
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[[]ledgerapp.EntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id}/statement [get]
func (h *LedgerHandler) History(c *gin.Context) {
	tenantID, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}

	entries, err := h.ledgerService.History(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ledgerapp.ToEntryResponses(entries))
}

// Balance returns a tenant's current balance
//
// @ID           tenantBalance
// @Summary      Running balance of a tenant
// @Tags         statements
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.BalanceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id}/balance [get]
func (h *LedgerHandler) Balance(c *gin.Context) {
	tenantID, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}

	balance, err := h.ledgerService.Balance(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, balance)
}

// Recalculate regenerates a tenant's statement and recomputes its
// running balances
//
// @ID           recalculateTenant
// @Summary      Recompute the running balance
// @Tags         statements
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[shared.BatchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id}/recalculate [post]
func (h *LedgerHandler) Recalculate(c *gin.Context) {
	tenantID, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}

	result, err := h.ledgerService.RecalculateTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
