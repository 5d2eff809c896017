package scheduler

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// JobStatus is where a job run stands
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc runs one batch job
type JobFunc func(ctx context.Context) (*shared.BatchResult, error)

// Job is one run of a named batch job. Chain holds the jobs queued after
// it, in order, whatever its outcome.
type Job struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Status      JobStatus           `json:"status"`
	Error       string              `json:"error,omitempty"`
	Result      *shared.BatchResult `json:"result,omitempty"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	RetryCount  int                 `json:"retry_count"`
	MaxRetries  int                 `json:"max_retries"`
	NextRetryAt *time.Time          `json:"next_retry_at,omitempty"`
	Chain       []string            `json:"-"`
}

// NewJob creates a pending run of name
func NewJob(name string, maxRetries int) *Job {
	return &Job{ID: uuid.New(), Name: name, Status: JobStatusPending, MaxRetries: maxRetries}
}

// next is the first job of the rest of the chain, or nil at its end
func (j *Job) next() *Job {
	if len(j.Chain) == 0 {
		return nil
	}
	n := NewJob(j.Chain[0], j.MaxRetries)
	n.Chain = j.Chain[1:]
	return n
}

func (j *Job) Start() {
	now := time.Now()
	j.Status, j.StartedAt, j.Error = JobStatusRunning, &now, ""
}

func (j *Job) Complete(result *shared.BatchResult) {
	j.finish(JobStatusSuccess)
	j.Result = result
}

func (j *Job) Fail(reason string) {
	j.finish(JobStatusFailed)
	j.Error = reason
}

func (j *Job) finish(status JobStatus) {
	now := time.Now()
	j.Status, j.CompletedAt = status, &now
}

// ShouldRetry reports whether a failed run has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry puts the job back to pending, due after delay
func (j *Job) ScheduleRetry(delay time.Duration) {
	at := time.Now().Add(delay)
	j.RetryCount++
	j.Status, j.NextRetryAt, j.Error = JobStatusPending, &at, ""
}

// waitRetry blocks until a retried job is due. It is false when ctx ends
// first.
func (j *Job) waitRetry(ctx context.Context) bool {
	if j.NextRetryAt == nil {
		return true
	}
	wait := time.Until(*j.NextRetryAt)
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// history keeps the last finished runs in a fixed ring
type history struct {
	runs []*Job
	head int
	full bool
}

func newHistory(size int) *history {
	return &history{runs: make([]*Job, size)}
}

func (h *history) add(j *Job) {
	h.runs[h.head] = j
	h.head = (h.head + 1) % len(h.runs)
	if h.head == 0 {
		h.full = true
	}
}

// newestFirst copies the runs, most recent first
func (h *history) newestFirst() []Job {
	n := h.head
	if h.full {
		n = len(h.runs)
	}
	out := make([]Job, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.head - i + len(h.runs)) % len(h.runs)
		out = append(out, *h.runs[idx])
	}
	return out
}
