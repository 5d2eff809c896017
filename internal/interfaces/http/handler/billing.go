package handler

import (
	billingapp "github.com/erp/rental/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice and payment endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// Create drafts an invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req billingapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID returns one invoice with its allocations
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List returns a page of invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter billingapp.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.TenantID, ok = h.queryUUID(c, "tenant_id"); !ok {
		return
	}
	if filter.AgreementID, ok = h.queryUUID(c, "agreement_id"); !ok {
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	Paginated(c, page)
}

// Post posts a draft invoice so payments can settle it
func (h *InvoiceHandler) Post(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Post(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Cancel cancels an unpaid invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RegisterPayment pays an invoice directly
func (h *InvoiceHandler) RegisterPayment(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "invoice")
	if !ok {
		return
	}
	var req billingapp.RegisterPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	payment, err := h.invoiceService.RegisterPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, payment)
}

// CancelPayment reverses a payment and its allocations
func (h *InvoiceHandler) CancelPayment(c *gin.Context) {
	id, ok := h.paramUUID(c, "id", "payment")
	if !ok {
		return
	}

	payment, err := h.invoiceService.CancelPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, payment)
}

// ListPayments returns the payments of a tenant
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	tenantID, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}

	payments, err := h.invoiceService.ListPayments(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, payments)
}
