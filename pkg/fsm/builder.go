package fsm

import (
	"context"
	"errors"
	"fmt"
)

// Router picks the next state by name for conditional transitions declared
// through the Builder.
type Router[T any] func(ctx context.Context, entity T) (next string, action Action[T], err error)

// Builder provides a fluent API for declaring a machine by state names.
// Errors are collected and reported by Build.
type Builder[T any] struct {
	start  string
	states map[string]*State[T]
	order  []string
	routes []route[T]
	errs   []error

	from   string
	event  string
	to     string
	action Action[T]
	router Router[T]
}

type route[T any] struct {
	from   string
	event  string
	router Router[T]
}

// NewBuilder creates a builder whose machine starts in start.
func NewBuilder[T any](start string) *Builder[T] {
	b := &Builder[T]{start: start, states: make(map[string]*State[T])}
	b.declare(start, false)
	return b
}

// States declares non-blocking states. States referenced by transitions are
// declared implicitly.
func (b *Builder[T]) States(names ...string) *Builder[T] {
	for _, n := range names {
		b.declare(n, false)
	}
	return b
}

// Blocking declares blocking states, or marks already declared ones as blocking.
func (b *Builder[T]) Blocking(names ...string) *Builder[T] {
	for _, n := range names {
		b.declare(n, true)
	}
	return b
}

// From sets the originating state of the transition being built.
func (b *Builder[T]) From(state string) *Builder[T] {
	b.reset()
	b.from = state
	return b
}

// When sets the event of the transition being built.
func (b *Builder[T]) When(event string) *Builder[T] {
	b.event = event
	return b
}

// To sets the target state of the transition being built.
func (b *Builder[T]) To(state string) *Builder[T] {
	b.to = state
	return b
}

// WithAction sets the action of the transition being built.
func (b *Builder[T]) WithAction(action Action[T]) *Builder[T] {
	b.action = action
	return b
}

// Route makes the transition being built conditional: router chooses the
// target by name each time the event is processed.
func (b *Builder[T]) Route(router Router[T]) *Builder[T] {
	b.router = router
	return b
}

// Add finalizes the transition being built.
func (b *Builder[T]) Add() *Builder[T] {
	defer b.reset()

	switch {
	case b.from == "":
		b.errs = append(b.errs, fmt.Errorf("transition on %q: %w", b.event, ErrEmptyStateName))
		return b
	case b.event == "":
		b.errs = append(b.errs, fmt.Errorf("transition from %q: %w", b.from, ErrEmptyEvent))
		return b
	}
	from := b.declare(b.from, false)

	if b.router != nil {
		b.routes = append(b.routes, route[T]{from: b.from, event: b.event, router: b.router})
		return b
	}
	if b.to == "" {
		b.errs = append(b.errs, fmt.Errorf("transition %s(%s): %w", b.from, b.event, ErrNilTarget))
		return b
	}
	to := b.declare(b.to, false)
	if err := from.AddTransition(b.event, DeterministicTransition[T]{Next: to, Action: b.action}); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Transition is a shorthand for From(from).When(event).To(to).WithAction(action).Add().
func (b *Builder[T]) Transition(from, event, to string, action Action[T]) *Builder[T] {
	return b.From(from).When(event).To(to).WithAction(action).Add()
}

// Build validates the declarations and returns the catalog. Call it once.
func (b *Builder[T]) Build() (*Catalog[T], error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	var catalog *Catalog[T]
	for _, r := range b.routes {
		tr := TransitionFunc[T](func(ctx context.Context, entity T) (StateActionPair[T], error) {
			name, action, err := r.router(ctx, entity)
			if err != nil {
				return StateActionPair[T]{}, err
			}
			next, ok := catalog.Get(name)
			if !ok {
				return StateActionPair[T]{}, NewErrUnknownState(name)
			}
			return StateActionPair[T]{State: next, Action: action}, nil
		})
		if err := b.states[r.from].AddTransition(r.event, tr); err != nil {
			return nil, err
		}
	}

	states := make([]*State[T], 0, len(b.order))
	for _, n := range b.order {
		states = append(states, b.states[n])
	}
	c, err := NewCatalog(b.states[b.start], states...)
	if err != nil {
		return nil, err
	}
	catalog = c
	return catalog, nil
}

// MustBuild is Build that panics on invalid declarations.
func (b *Builder[T]) MustBuild() *Catalog[T] {
	c, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build state machine: %v", err))
	}
	return c
}

func (b *Builder[T]) declare(name string, blocking bool) *State[T] {
	s, ok := b.states[name]
	if !ok {
		s = NewState[T](name)
		b.states[name] = s
		b.order = append(b.order, name)
	}
	if blocking {
		s.blocking = true
	}
	return s
}

func (b *Builder[T]) reset() {
	b.from = ""
	b.event = ""
	b.to = ""
	b.action = nil
	b.router = nil
}
