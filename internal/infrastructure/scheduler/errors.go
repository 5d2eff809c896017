package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning rejects work queued on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	// ErrJobQueueFull rejects the daily chain while the previous one is queued
	ErrJobQueueFull = errors.New("job queue is full")
	// ErrUnknownJob names a job that was never registered
	ErrUnknownJob = errors.New("unknown job")
	// ErrJobFailed wraps the error of a job run on demand
	ErrJobFailed = errors.New("job failed")
	// ErrInvalidSchedule rejects a daily schedule that cannot be read
	ErrInvalidSchedule = errors.New("invalid daily schedule")
)
