package definition

import (
	"fmt"

	"github.com/dmitrymomot/stateful/pkg/fsm"
)

// Actions maps the action names used in a definition to implementations.
type Actions[T any] map[string]fsm.Action[T]

// Build compiles def into a catalog. Every action name in def must be present
// in actions.
func Build[T any](def *Definition, actions Actions[T]) (*fsm.Catalog[T], error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	for _, name := range def.ActionNames() {
		if _, ok := actions[name]; !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownAction, name)
		}
	}

	b := fsm.NewBuilder[T](def.Start)
	for _, s := range def.States {
		if s.Blocking {
			b.Blocking(s.Name)
		} else {
			b.States(s.Name)
		}
	}
	for _, s := range def.States {
		for _, t := range s.Transitions {
			to := t.To
			if to == "" {
				to = s.Name
			}
			var action fsm.Action[T]
			if t.Action != "" {
				action = actions[t.Action]
			}
			b.Transition(s.Name, t.Event, to, action)
		}
	}
	return b.Build()
}

// MachineOptions returns the engine options the definition sets: name,
// retries and blocking wait.
func MachineOptions[T any](def *Definition) []fsm.Option[T] {
	opts := []fsm.Option[T]{fsm.WithName[T](def.Name)}
	if def.Retries != nil {
		opts = append(opts, fsm.WithRetries[T](*def.Retries))
	}
	if wait, err := def.blockingWait(); err == nil && wait > 0 {
		opts = append(opts, fsm.WithBlockingWait[T](wait))
	}
	return opts
}

// New builds the catalog, wraps it with persister and returns the engine.
func New[T any](def *Definition, actions Actions[T], persister func(*fsm.Catalog[T]) (fsm.Persister[T], error), opts ...fsm.Option[T]) (*fsm.FSM[T], error) {
	catalog, err := Build(def, actions)
	if err != nil {
		return nil, err
	}
	p, err := persister(catalog)
	if err != nil {
		return nil, err
	}
	return fsm.New(p, append(MachineOptions[T](def), opts...)...)
}
