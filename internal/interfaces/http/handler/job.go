package handler

import (
	"errors"
	"net/http"

	"github.com/erp/rental/internal/infrastructure/scheduler"
	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/erp/rental/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// JobHandler lists and triggers the ledger batch jobs
type JobHandler struct {
	BaseHandler
	scheduler *scheduler.Scheduler
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(s *scheduler.Scheduler) *JobHandler {
	return &JobHandler{
		scheduler: s,
	}
}

// JobListResponse names the registered jobs in daily run order
type JobListResponse struct {
	Jobs []string `json:"jobs"`
}

// List returns the registered job names
//
// @ID           listJobs
// @Summary      Registered batch jobs
// @Tags         jobs
// @Produce      json
// @Success      200 {object} APIResponse[JobListResponse]
// @Router       /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	h.Success(c, JobListResponse{Jobs: h.scheduler.JobNames()})
}

// Run runs one job now and returns its outcome. A failed run answers 500
// with the job attached.
//
// @ID           runJob
// @Summary      Run a batch job now
// @Tags         jobs
// @Produce      json
// @Param        name path string true "Job name"
// @Success      200 {object} APIResponse[scheduler.Job]
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /jobs/{name}/run [post]
func (h *JobHandler) Run(c *gin.Context) {
	name := c.Param("name")

	job, err := h.scheduler.RunNow(c.Request.Context(), name)
	switch {
	case err == nil:
		h.Success(c, job)
	case errors.Is(err, scheduler.ErrUnknownJob):
		h.NotFound(c, "Unknown job: "+name)
	case errors.Is(err, scheduler.ErrJobFailed):
		middleware.SetErrorCode(c, dto.ErrCodeJobFailed)
		_ = c.Error(err)
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeJobFailed, err.Error(), getRequestID(c))
		resp.Data = job
		c.JSON(http.StatusInternalServerError, resp)
	default:
		h.HandleDomainError(c, err)
	}
}

// History returns the latest job runs, newest first
//
// @ID           jobHistory
// @Summary      Recent job runs
// @Tags         jobs
// @Produce      json
// @Success      200 {object} APIResponse[[]scheduler.Job]
// @Router       /jobs/history [get]
func (h *JobHandler) History(c *gin.Context) {
	h.Success(c, h.scheduler.History())
}
