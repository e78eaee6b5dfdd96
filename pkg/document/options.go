package document

import (
	"context"
	"log/slog"
	"time"
)

// EntitySaver saves the owner entity again after its StateRecord was created,
// so that both documents reference each other.
type EntitySaver[T any] interface {
	SaveEntity(ctx context.Context, entity T) error
}

// EntitySaverFunc adapts a function to EntitySaver.
type EntitySaverFunc[T any] func(ctx context.Context, entity T) error

func (f EntitySaverFunc[T]) SaveEntity(ctx context.Context, entity T) error {
	return f(ctx, entity)
}

// Option configures a Persister.
type Option[T any] func(*Persister[T])

// WithLogger sets the logger. Nil is ignored.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(p *Persister[T]) {
		if log != nil {
			p.log = log
		}
	}
}

// WithIDGenerator replaces the UUID generator used for new records.
func WithIDGenerator[T any](fn func() string) Option[T] {
	return func(p *Persister[T]) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(p *Persister[T]) {
		if now != nil {
			p.now = now
		}
	}
}

// WithEntitySaver sets the saver used when EntitySaved creates a record.
func WithEntitySaver[T any](saver EntitySaver[T]) Option[T] {
	return func(p *Persister[T]) {
		p.saver = saver
	}
}

// WithManaged records the owner's collection and state field on new records.
func WithManaged[T any](collection, field string) Option[T] {
	return func(p *Persister[T]) {
		p.collection = collection
		p.field = field
	}
}

// WithConfig applies cfg.
func WithConfig[T any](cfg Config) Option[T] {
	return WithManaged[T](cfg.ManagedCollection, cfg.ManagedField)
}

// WithLockKey overrides the identity used for per-entity locking. The default
// locks on the entity value itself.
func WithLockKey[T any](fn func(T) any) Option[T] {
	return func(p *Persister[T]) {
		if fn != nil {
			p.lockKey = fn
		}
	}
}
