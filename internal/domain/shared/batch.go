package shared

import (
	"errors"
	"fmt"
)

// maxBatchErrors caps the error messages kept on a BatchResult
const maxBatchErrors = 50

// BatchResult counts the outcome of a batch job. Failed items are logged
// and counted, they never abort the job.
type BatchResult struct {
	Job       string   `json:"job"`
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// NewBatchResult starts an empty result for job
func NewBatchResult(job string) *BatchResult {
	return &BatchResult{Job: job, Errors: make([]string, 0)}
}

// Record counts one processed item. A duplicate entry error counts as
// skipped, any other error as failed.
func (r *BatchResult) Record(item string, err error) {
	r.Processed++
	switch {
	case err == nil:
	case errors.Is(err, ErrDuplicateEntry):
		r.Skipped++
	default:
		r.Fail(item, err)
	}
}

// Fail counts a failed item and keeps its message
func (r *BatchResult) Fail(item string, err error) {
	r.Failed++
	if len(r.Errors) < maxBatchErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", item, err))
	}
}

// Merge adds the counts of other
func (r *BatchResult) Merge(other *BatchResult) {
	if other == nil {
		return
	}
	r.Processed += other.Processed
	r.Created += other.Created
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	for _, e := range other.Errors {
		if len(r.Errors) >= maxBatchErrors {
			break
		}
		r.Errors = append(r.Errors, e)
	}
}

// HasFailures reports whether any item failed
func (r *BatchResult) HasFailures() bool {
	return r.Failed > 0
}
