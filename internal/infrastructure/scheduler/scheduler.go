// Package scheduler runs the named ledger batch jobs: once a day as one
// chain through a worker pool, or on demand.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/infrastructure/logger"
	"github.com/erp/rental/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	historySize = 50
	queueSize   = 100
)

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	DisabledJobs      []string
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
	}
}

// registration is a job known to the scheduler
type registration struct {
	fn     JobFunc
	manual bool
}

// Scheduler runs the ledger batch jobs. The registration order is the
// daily order.
type Scheduler struct {
	config SchedulerConfig
	logger *zap.Logger

	mu      sync.Mutex
	jobs    map[string]registration
	order   []string
	runs    *history
	running bool
	cancel  context.CancelFunc

	queue chan *Job
	wg    sync.WaitGroup
}

// NewScheduler creates a scheduler. It does nothing until Start.
func NewScheduler(config SchedulerConfig, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	config.MaxConcurrentJobs = max(config.MaxConcurrentJobs, 1)
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSchedulerConfig().JobTimeout
	}
	return &Scheduler{
		config: config,
		logger: log,
		jobs:   make(map[string]registration),
		runs:   newHistory(historySize),
		queue:  make(chan *Job, queueSize),
	}
}

// Register adds a named job. Registering a name twice replaces the function
// and keeps its place in the daily order.
func (s *Scheduler) Register(name string, fn JobFunc) {
	s.register(name, registration{fn: fn})
}

// RegisterManual adds a job that only runs through RunNow. JobNames lists
// it but the daily chain leaves it out.
func (s *Scheduler) RegisterManual(name string, fn JobFunc) {
	s.register(name, registration{fn: fn, manual: true})
}

func (s *Scheduler) register(name string, r registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; !ok {
		s.order = append(s.order, name)
	}
	s.jobs[name] = r
}

// JobNames lists registered jobs in daily order
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

func (s *Scheduler) lookup(name string) (JobFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.jobs[name]
	return r.fn, ok
}

// dailyChain lists the jobs of the daily run
func (s *Scheduler) dailyChain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, name := range s.order {
		if !s.jobs[name].manual && !slices.Contains(s.config.DisabledJobs, name) {
			names = append(names, name)
		}
	}
	return names
}

func (s *Scheduler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the workers. Starting twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.mu.Unlock()

	for id := range s.config.MaxConcurrentJobs {
		s.wg.Add(1)
		go s.worker(ctx, id)
	}
	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Strings("jobs", s.JobNames()),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers until ctx ends
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a job for the workers
func (s *Scheduler) Submit(job *Job) error {
	if !s.isRunning() {
		return ErrSchedulerNotRunning
	}
	if _, ok := s.lookup(job.Name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, job.Name)
	}
	if !s.enqueue(job) {
		return ErrJobQueueFull
	}
	s.logger.Debug("Job submitted", zap.String("job_id", job.ID.String()), zap.String("job", job.Name))
	return nil
}

func (s *Scheduler) enqueue(job *Job) bool {
	select {
	case s.queue <- job:
		return true
	default:
		return false
	}
}

// ScheduleDaily queues every enabled job as one chain, so they run one after
// the other in registration order
func (s *Scheduler) ScheduleDaily() error {
	names := s.dailyChain()
	if len(names) == 0 {
		return nil
	}
	job := NewJob(names[0], s.config.RetryAttempts)
	job.Chain = names[1:]
	return s.Submit(job)
}

// RunNow runs a job on the calling goroutine and records it in the history.
// Disabled jobs can still be run this way.
func (s *Scheduler) RunNow(ctx context.Context, name string) (*Job, error) {
	fn, ok := s.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	job := NewJob(name, 0)
	s.execute(ctx, job, fn, -1)
	s.record(job)
	if job.Status == JobStatusFailed {
		return job, fmt.Errorf("%w: %s", ErrJobFailed, job.Error)
	}
	return job, nil
}

// History returns the most recent finished jobs, newest first
func (s *Scheduler) History() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs.newestFirst()
}

func (s *Scheduler) record(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs.add(job)
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.process(ctx, job, id)
		}
	}
}

// process runs one queued job, requeues it while it has retries left and
// then queues the next job of its chain
func (s *Scheduler) process(ctx context.Context, job *Job, workerID int) {
	if !job.waitRetry(ctx) {
		return
	}
	fn, ok := s.lookup(job.Name)
	if !ok {
		job.Fail(ErrUnknownJob.Error())
		s.record(job)
		return
	}
	s.execute(ctx, job, fn, workerID)

	if job.ShouldRetry() {
		job.ScheduleRetry(s.config.RetryDelay)
		s.logger.Info("Job scheduled for retry",
			zap.String("job", job.Name),
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
		)
		s.requeue(job)
		return
	}
	s.record(job)
	if next := job.next(); next != nil {
		s.requeue(next)
	}
}

func (s *Scheduler) requeue(job *Job) {
	if !s.enqueue(job) {
		s.logger.Warn("Failed to queue job", zap.String("job_id", job.ID.String()), zap.String("job", job.Name))
	}
}

// execute runs fn under the job timeout, inside a span and with profiling
// labels naming the job
func (s *Scheduler) execute(ctx context.Context, job *Job, fn JobFunc, workerID int) {
	log := s.logger.With(zap.String("job_id", job.ID.String()), zap.String("job", job.Name))
	job.Start()
	log.Info("Running job", zap.Int("worker_id", workerID))

	jobCtx, cancel := context.WithTimeout(logger.WithJob(ctx, job.Name), s.config.JobTimeout)
	defer cancel()
	jobCtx, span := telemetry.StartJobSpan(jobCtx, job.Name)

	var (
		result *shared.BatchResult
		err    error
	)
	telemetry.WithProfilingLabels(jobCtx, map[string]string{telemetry.LabelJob: job.Name}, func(ctx context.Context) {
		result, err = safeCall(ctx, fn)
	})
	telemetry.EndJobSpan(span, result, err)

	if err != nil {
		job.Fail(err.Error())
		job.Result = result
		log.Error("Job failed", zap.Error(err))
		return
	}
	job.Complete(result)
	if result == nil {
		log.Info("Job completed")
		return
	}
	counts := []zap.Field{
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	}
	if result.HasFailures() {
		log.Warn("Job completed with failures", append(counts, zap.Strings("errors", result.Errors))...)
		return
	}
	log.Info("Job completed", counts...)
}

// safeCall runs fn and turns a panic into an error
func safeCall(ctx context.Context, fn JobFunc) (result *shared.BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx)
}
