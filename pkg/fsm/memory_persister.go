package fsm

import (
	"context"

	"github.com/dmitrymomot/stateful/pkg/keylock"
)

// MemoryPersister keeps the state in a field of the entity and serializes
// writes per entity. It does no I/O and suits single-process deployments and tests.
type MemoryPersister[T any] struct {
	catalog *Catalog[T]
	access  StateAccessor[T]
	lockKey func(T) any
	locks   keylock.Locker[any]
}

// MemoryOption configures a MemoryPersister.
type MemoryOption[T any] func(*MemoryPersister[T])

// WithMemoryLockKey overrides the identity used for per-entity locking.
// The default locks on the entity value, which must then be comparable
// (pointer entities are).
func WithMemoryLockKey[T any](fn func(T) any) MemoryOption[T] {
	return func(p *MemoryPersister[T]) {
		if fn != nil {
			p.lockKey = fn
		}
	}
}

// NewMemoryPersister creates a persister over catalog using access to reach
// the entity's state field.
func NewMemoryPersister[T any](catalog *Catalog[T], access StateAccessor[T], opts ...MemoryOption[T]) (*MemoryPersister[T], error) {
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	if !access.valid() {
		return nil, ErrNilAccessor
	}
	p := &MemoryPersister[T]{
		catalog: catalog,
		access:  access,
		lockKey: identityKey[T],
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// MustNewMemoryPersister is NewMemoryPersister that panics on invalid input.
func MustNewMemoryPersister[T any](catalog *Catalog[T], access StateAccessor[T], opts ...MemoryOption[T]) *MemoryPersister[T] {
	p, err := NewMemoryPersister(catalog, access, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Catalog returns the states this persister resolves names against.
func (p *MemoryPersister[T]) Catalog() *Catalog[T] { return p.catalog }

func (p *MemoryPersister[T]) Current(entity T) *State[T] {
	unlock := p.locks.Lock(p.lockKey(entity))
	defer unlock()
	return p.current(entity)
}

// Init unconditionally puts entity in the start state.
func (p *MemoryPersister[T]) Init(entity T) {
	unlock := p.locks.Lock(p.lockKey(entity))
	defer unlock()
	p.access.Set(entity, p.catalog.Start().Name())
}

func (p *MemoryPersister[T]) SetCurrent(_ context.Context, entity T, current, next *State[T]) error {
	if current == nil || next == nil {
		return ErrNilState
	}

	unlock := p.locks.Lock(p.lockKey(entity))
	defer unlock()

	actual := p.current(entity)
	if actual.Name() != current.Name() {
		return NewErrStaleState(current.Name(), actual.Name())
	}
	p.access.Set(entity, next.Name())
	return nil
}

func (p *MemoryPersister[T]) current(entity T) *State[T] {
	return p.catalog.Lookup(p.access.Get(entity))
}
