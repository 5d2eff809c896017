package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DailySchedule is the wall clock time the job chain runs at every day
type DailySchedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// DefaultDailySchedule runs at 02:00 UTC, after the business day closes
func DefaultDailySchedule() DailySchedule {
	return DailySchedule{Hour: 2, Location: time.UTC}
}

// ParseDailySchedule reads the minute and hour fields of a cron expression
// such as "30 2 * * *" in zone. The remaining fields are ignored and a
// wildcard reads as zero. An empty expression gives the default time.
func ParseDailySchedule(expr, zone string) (DailySchedule, error) {
	sched := DefaultDailySchedule()
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return sched, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		sched.Location = loc
	}

	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return sched, nil
	}
	if len(fields) < 2 {
		return DefaultDailySchedule(), fmt.Errorf("%w: %q needs minute and hour", ErrInvalidSchedule, expr)
	}
	minute, err := cronField(fields[0], 59)
	if err != nil {
		return DefaultDailySchedule(), fmt.Errorf("%w: minute %v", ErrInvalidSchedule, err)
	}
	hour, err := cronField(fields[1], 23)
	if err != nil {
		return DefaultDailySchedule(), fmt.Errorf("%w: hour %v", ErrInvalidSchedule, err)
	}
	sched.Hour, sched.Minute = hour, minute
	return sched, nil
}

func cronField(field string, limit int) (int, error) {
	if field == "*" {
		return 0, nil
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", field)
	}
	if n < 0 || n > limit {
		return 0, fmt.Errorf("%d is not within 0-%d", n, limit)
	}
	return n, nil
}

// Next returns the first run strictly after t
func (d DailySchedule) Next(t time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.Hour, d.Minute, 0, 0, loc)
	}
	return next
}

func (d DailySchedule) String() string {
	return fmt.Sprintf("%02d:%02d %s", d.Hour, d.Minute, d.Location)
}

// CronTrigger queues the daily job chain once a day at its schedule. It
// sleeps until the next run instead of polling.
type CronTrigger struct {
	schedule  DailySchedule
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastDay string
}

// NewCronTrigger creates a trigger for s
func NewCronTrigger(schedule DailySchedule, s *Scheduler, logger *zap.Logger) *CronTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule.Location == nil {
		schedule.Location = time.UTC
	}
	return &CronTrigger{schedule: schedule, scheduler: s, logger: logger, now: time.Now}
}

// Start begins waiting for the next run. Starting twice is a no-op.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.loop(ctx, c.done)

	c.logger.Info("Cron trigger started",
		zap.Stringer("schedule", c.schedule),
		zap.Time("next_run", c.schedule.Next(c.now())),
	)
	return nil
}

// Stop ends the wait loop, giving up when ctx ends first
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		wait := time.Until(c.schedule.Next(c.now()))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			c.fire()
		}
	}
}

// fire queues the daily chain at most once per calendar day of the
// schedule's zone and reports whether it did
func (c *CronTrigger) fire() bool {
	day := c.now().In(c.schedule.Location).Format(time.DateOnly)
	c.mu.Lock()
	if c.lastDay == day {
		c.mu.Unlock()
		return false
	}
	c.lastDay = day
	c.mu.Unlock()

	c.logger.Info("Triggering daily ledger jobs", zap.String("date", day))
	if err := c.scheduler.ScheduleDaily(); err != nil {
		c.logger.Error("Failed to schedule daily ledger jobs", zap.Error(err))
		return false
	}
	return true
}
