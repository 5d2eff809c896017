package shared

import "context"

// Transactor runs fn inside a unit of work. Repositories called with the
// context passed to fn take part in the same transaction. Nested calls open
// a savepoint, so a failing inner fn rolls back only its own writes.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactor runs fn directly. Useful for tests of pure services.
type NoopTransactor struct{}

// WithinTransaction calls fn with ctx unchanged
func (NoopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
