package shared

import (
	"context"
	"errors"
)

// EventHandler reacts to published events. An empty EventTypes subscribes
// to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// PublishPending drains each source and publishes what it held. Every
// source is drained even when an earlier publish fails.
func PublishPending(ctx context.Context, pub EventPublisher, sources ...EventSource) error {
	var errs []error
	for _, src := range sources {
		events := src.PullEvents()
		if len(events) == 0 {
			continue
		}
		if err := pub.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopEventPublisher drops every event
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, ...DomainEvent) error { return nil }
