package fsm

import "context"

// Persister reads and conditionally writes the current state of an entity.
// It is the only component allowed to change persisted state.
type Persister[T any] interface {
	// Current never fails: with nothing recorded, or an unknown state name,
	// it returns the start state.
	Current(entity T) *State[T]

	// SetCurrent moves entity from current to next only if its persisted
	// state still equals current, otherwise it returns *ErrStaleState.
	SetCurrent(ctx context.Context, entity T, current, next *State[T]) error
}

// SaveListener is implemented by persisters that keep state outside the
// entity and need to know when the owner has been durably saved.
type SaveListener[T any] interface {
	EntitySaved(ctx context.Context, entity T) error
}

// StateAccessor reads and writes the state slot of an entity. It replaces
// field discovery: callers wire it once when building the persister.
type StateAccessor[T any] struct {
	Get func(entity T) string
	Set func(entity T, state string)
}

func (a StateAccessor[T]) valid() bool {
	return a.Get != nil && a.Set != nil
}

// identityKey locks on the entity value itself, which for pointer entities
// is the object identity.
func identityKey[T any](entity T) any {
	return entity
}
