package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/rental/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 1
)

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus delivers domain events to registered handlers inside the
// process. Before Start, and when the queue is full, events are handled on
// the publishing goroutine. After Start they are queued and handled by the
// worker goroutines, so publishers return as soon as the event is queued.
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	queueSize int
	workers   int

	mu      sync.RWMutex
	running bool
	queue   chan envelope
	wg      sync.WaitGroup
}

// BusOption configures the bus
type BusOption func(*InMemoryEventBus)

// WithQueueSize sets the number of events buffered after Start
func WithQueueSize(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithWorkers sets the number of dispatch goroutines
func WithWorkers(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.workers = n
		}
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry:  NewHandlerRegistry(),
		logger:    logger,
		queueSize: defaultQueueSize,
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands events to their handlers. Handler failures are logged and
// never returned to the publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	// handlers outlive the request that published the event
	ctx = context.WithoutCancel(ctx)

	for _, evt := range events {
		if !b.enqueue(ctx, evt) {
			b.deliver(ctx, evt)
		}
	}
	return nil
}

// enqueue reports whether the event was queued for a worker
func (b *InMemoryEventBus) enqueue(ctx context.Context, evt shared.DomainEvent) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.running {
		return false
	}
	select {
	case b.queue <- envelope{ctx: ctx, event: evt}:
		return true
	default:
		b.logger.Warn("event queue full, handling inline",
			zap.String("event_type", evt.EventType()),
			zap.Int("queue_size", b.queueSize),
		)
		return false
	}
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start begins asynchronous delivery
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return nil
	}
	b.queue = make(chan envelope, b.queueSize)
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.work(b.queue)
	}
	b.running = true
	b.logger.Info("event bus started",
		zap.Int("workers", b.workers),
		zap.Strings("event_types", b.registry.EventTypes()),
	)
	return nil
}

// Stop stops accepting queued events and waits for the queue to drain or
// the context to end
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) work(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		b.deliver(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, evt shared.DomainEvent) {
	for _, handler := range b.registry.GetHandlers(evt.EventType()) {
		if err := b.dispatch(ctx, handler, evt); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", evt.EventType()),
				zap.String("event_id", evt.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, evt)
}

var _ shared.EventPublisher = (*InMemoryEventBus)(nil)
