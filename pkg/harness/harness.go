package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/dmitrymomot/stateful/pkg/fsm"
	"github.com/dmitrymomot/stateful/pkg/logger"
)

// Lookup describes the call an entity is resolved for. Args are the event
// arguments as given to OnEvent; the machine receives them unchanged.
type Lookup struct {
	ID    string
	Event string
	Args  []any
}

// Context returns the leading event argument, or nil when there is none.
// Finders and factories use it to scope a lookup or seed a new entity.
func (l Lookup) Context() any {
	if len(l.Args) == 0 {
		return nil
	}
	return l.Args[0]
}

// Finder loads an entity for a lookup. found is false when no entity exists;
// err is reserved for lookup faults. The id may be empty.
type Finder[T any] interface {
	Find(ctx context.Context, lookup Lookup) (entity T, found bool, err error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc[T any] func(ctx context.Context, lookup Lookup) (T, bool, error)

func (f FinderFunc[T]) Find(ctx context.Context, lookup Lookup) (T, bool, error) {
	return f(ctx, lookup)
}

// Factory creates a new entity when an event arrives without an id.
type Factory[T any] interface {
	Create(ctx context.Context, lookup Lookup) (T, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc[T any] func(ctx context.Context, lookup Lookup) (T, error)

func (f FactoryFunc[T]) Create(ctx context.Context, lookup Lookup) (T, error) {
	return f(ctx, lookup)
}

// Harness resolves entities from ids and feeds events into a machine.
type Harness[T any] struct {
	machine *fsm.FSM[T]
	finder  Finder[T]
	factory Factory[T]
	log     *slog.Logger
}

type Option[T any] func(*Harness[T])

// WithFactory enables creating entities for events that carry no id.
func WithFactory[T any](factory Factory[T]) Option[T] {
	return func(h *Harness[T]) {
		h.factory = factory
	}
}

func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(h *Harness[T]) {
		if log != nil {
			h.log = log
		}
	}
}

func New[T any](machine *fsm.FSM[T], finder Finder[T], opts ...Option[T]) (*Harness[T], error) {
	if machine == nil {
		return nil, ErrNilMachine
	}
	if finder == nil {
		return nil, ErrNilFinder
	}
	h := &Harness[T]{machine: machine, finder: finder, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func MustNew[T any](machine *fsm.FSM[T], finder Finder[T], opts ...Option[T]) *Harness[T] {
	h, err := New(machine, finder, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create harness: %v", err))
	}
	return h
}

// OnEvent resolves the entity with id and processes event against it.
//
// A non-empty id that matches nothing fails with ErrEntityNotFound. An empty
// id is still offered to the Finder; on a miss the Factory creates the entity,
// and any failure there matches ErrEntityCreationFailed. Neither is retried.
// Finder and Factory see the event and args through Lookup.
func (h *Harness[T]) OnEvent(ctx context.Context, event, id string, args ...any) (*fsm.State[T], error) {
	entity, err := h.resolve(ctx, Lookup{ID: id, Event: event, Args: args})
	if err != nil {
		return nil, err
	}
	return h.machine.OnEvent(ctx, entity, event, args...)
}

// OnEventArgs takes the entity from the first argument, which is either the
// entity itself, its id or nil, and passes the rest to the machine. A nil
// entity counts as no id.
func (h *Harness[T]) OnEventArgs(ctx context.Context, event string, args ...any) (*fsm.State[T], error) {
	if len(args) == 0 {
		return h.OnEvent(ctx, event, "")
	}

	switch first := args[0].(type) {
	case T:
		if isNil(first) {
			return h.OnEvent(ctx, event, "", args[1:]...)
		}
		return h.machine.OnEvent(ctx, first, event, args[1:]...)
	case nil:
		return h.OnEvent(ctx, event, "", args[1:]...)
	case string:
		return h.OnEvent(ctx, event, first, args[1:]...)
	case fmt.Stringer:
		return h.OnEvent(ctx, event, first.String(), args[1:]...)
	default:
		return h.OnEvent(ctx, event, fmt.Sprint(first), args[1:]...)
	}
}

func (h *Harness[T]) resolve(ctx context.Context, lookup Lookup) (T, error) {
	var zero T

	entity, found, err := h.finder.Find(ctx, lookup)
	if err != nil {
		return zero, fmt.Errorf("find entity '%s' for event '%s': %w", lookup.ID, lookup.Event, err)
	}
	if found && !isNil(entity) {
		return entity, nil
	}
	if lookup.ID != "" {
		return zero, fmt.Errorf("%w: id '%s', event '%s'", ErrEntityNotFound, lookup.ID, lookup.Event)
	}

	if h.factory == nil {
		return zero, fmt.Errorf("%w: no factory configured for event '%s'", ErrEntityCreationFailed, lookup.Event)
	}
	entity, err = h.factory.Create(ctx, lookup)
	if err != nil {
		return zero, errors.Join(ErrEntityCreationFailed, err)
	}
	if isNil(entity) {
		return zero, fmt.Errorf("%w: factory returned nil for event '%s'", ErrEntityCreationFailed, lookup.Event)
	}

	h.log.DebugContext(ctx, "entity created",
		logger.Component("harness"),
		logger.Machine(h.machine.Name()),
		logger.Event(lookup.Event),
	)
	return entity, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
