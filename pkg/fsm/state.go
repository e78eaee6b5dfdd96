package fsm

import (
	"context"
	"fmt"
	"slices"
)

// Event describes one event delivery as seen by an Action.
type Event struct {
	Name string
	From string
	To   string
	Args []any
}

// Action executes side effects once the state change has been persisted.
// Returning Retry or WaitAndRetry makes the engine re-evaluate the event from
// the then-current state; any other error is returned to the caller.
// Actions must not write the entity's state themselves.
type Action[T any] interface {
	Execute(ctx context.Context, entity T, ev Event) error
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc[T any] func(ctx context.Context, entity T, ev Event) error

func (f ActionFunc[T]) Execute(ctx context.Context, entity T, ev Event) error {
	return f(ctx, entity, ev)
}

type namedAction[T any] struct {
	name string
	fn   ActionFunc[T]
}

func (a namedAction[T]) Execute(ctx context.Context, entity T, ev Event) error {
	return a.fn(ctx, entity, ev)
}

func (a namedAction[T]) String() string { return a.name }

// NamedAction wraps fn with a name used in logs and spans.
func NamedAction[T any](name string, fn ActionFunc[T]) Action[T] {
	return namedAction[T]{name: name, fn: fn}
}

// StateActionPair is the outcome of resolving a Transition.
type StateActionPair[T any] struct {
	State  *State[T]
	Action Action[T]
}

// Transition resolves to the next state and the action to run for a given entity.
// Resolution may inspect the entity, which is how conditional routing is modelled.
type Transition[T any] interface {
	Resolve(ctx context.Context, entity T) (StateActionPair[T], error)
}

// DeterministicTransition always moves to Next and runs Action (if any).
type DeterministicTransition[T any] struct {
	Next   *State[T]
	Action Action[T]
}

func (t DeterministicTransition[T]) Resolve(context.Context, T) (StateActionPair[T], error) {
	return StateActionPair[T]{State: t.Next, Action: t.Action}, nil
}

// TransitionFunc adapts a function to the Transition interface.
type TransitionFunc[T any] func(ctx context.Context, entity T) (StateActionPair[T], error)

func (f TransitionFunc[T]) Resolve(ctx context.Context, entity T) (StateActionPair[T], error) {
	return f(ctx, entity)
}

// State is a named node of the machine. Transitions are keyed by event name,
// at most one per event. A blocking state makes callers wait and retry for
// every event it has no transition for.
//
// States are configured at startup; adding transitions while events are being
// processed is not safe.
type State[T any] struct {
	name        string
	blocking    bool
	transitions map[string]Transition[T]
}

// NewState creates a non-blocking state.
func NewState[T any](name string) *State[T] {
	return &State[T]{name: name, transitions: make(map[string]Transition[T])}
}

// NewBlockingState creates a blocking state.
func NewBlockingState[T any](name string) *State[T] {
	s := NewState[T](name)
	s.blocking = true
	return s
}

func (s *State[T]) Name() string { return s.name }

func (s *State[T]) IsBlocking() bool { return s.blocking }

func (s *State[T]) String() string { return s.name }

// Transition returns the transition registered for event.
func (s *State[T]) Transition(event string) (Transition[T], bool) {
	t, ok := s.transitions[event]
	return t, ok
}

// AddTransition registers t for event. An event can have only one transition per state.
func (s *State[T]) AddTransition(event string, t Transition[T]) error {
	if event == "" {
		return ErrEmptyEvent
	}
	if t == nil {
		return ErrNilTransition
	}
	if _, exists := s.transitions[event]; exists {
		return NewErrDuplicateTransition(s.name, event)
	}
	s.transitions[event] = t
	return nil
}

// On registers a deterministic transition to next and returns s for chaining.
// A nil action makes it a pure state change. Panics on invalid input, it is
// meant for machine definitions written in code.
func (s *State[T]) On(event string, next *State[T], action Action[T]) *State[T] {
	if next == nil {
		panic(fmt.Sprintf("fsm: nil target for event %q on state %q", event, s.name))
	}
	if err := s.AddTransition(event, DeterministicTransition[T]{Next: next, Action: action}); err != nil {
		panic(err)
	}
	return s
}

// Noop registers a transition that keeps the entity in s and runs action.
func (s *State[T]) Noop(event string, action Action[T]) *State[T] {
	return s.On(event, s, action)
}

// Events lists the events s has transitions for, sorted.
func (s *State[T]) Events() []string {
	events := make([]string, 0, len(s.transitions))
	for e := range s.transitions {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}
