package handler

import (
	"time"

	reportapp "github.com/erp/rental/internal/application/report"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// ReportHandler serves the dashboard and tenant statements
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// Dashboard returns the overview for ?date (YYYY-MM-DD), today by default
//
// @ID           dashboard
// @Summary      Overview for a day
// @Tags         reports
// @Produce      json
// @Param        date query string false "Day, YYYY-MM-DD" format(date)
// @Success      200 {object} APIResponse[reportapp.Dashboard]
// @Failure      400 {object} ErrorResponse
// @Router       /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	var day time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.BadRequest(c, "date must be formatted as YYYY-MM-DD")
			return
		}
		day = parsed
	}

	dashboard, err := h.reportService.Dashboard(c.Request.Context(), day)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// Statement returns a tenant's statement between ?from and ?to
//
// @ID           statementReport
// @Summary      Tenant statement for a date range
// @Tags         statements
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        from query string false "First day, defaults to the first of the month" format(date)
// @Param        to query string false "Last day, defaults to today" format(date)
// @Param        exclude_zero query bool false "Skip zero lines"
// @Param        view query string false "detailed or summary" Enums(detailed, summary)
// @Success      200 {object} APIResponse[reportapp.StatementReportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id}/statement/report [get]
func (h *ReportHandler) Statement(c *gin.Context) {
	tenantID, ok := h.paramUUID(c, "id", "tenant")
	if !ok {
		return
	}
	var req reportapp.StatementReportRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.TenantID = tenantID

	report, err := h.reportService.StatementReport(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, report)
}
