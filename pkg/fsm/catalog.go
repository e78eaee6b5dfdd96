package fsm

// Catalog is the immutable set of states of one machine plus its start state.
// It is built once and read concurrently without synchronization.
type Catalog[T any] struct {
	start  *State[T]
	states map[string]*State[T]
	order  []*State[T]
}

// NewCatalog indexes start, the given states and every state reachable from
// them through deterministic transitions. Names must be non-empty and unique;
// listing the same *State twice is fine.
//
// States only reachable through a TransitionFunc must be passed explicitly,
// otherwise a persisted reference to them resolves to start.
func NewCatalog[T any](start *State[T], states ...*State[T]) (*Catalog[T], error) {
	if start == nil {
		return nil, ErrNilState
	}

	c := &Catalog[T]{
		start:  start,
		states: make(map[string]*State[T], len(states)+1),
	}

	queue := append([]*State[T]{start}, states...)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		if s == nil {
			return nil, ErrNilState
		}
		if s.name == "" {
			return nil, ErrEmptyStateName
		}
		if existing, ok := c.states[s.name]; ok {
			if existing != s {
				return nil, NewErrDuplicateState(s.name)
			}
			continue
		}
		c.states[s.name] = s
		c.order = append(c.order, s)

		for _, event := range s.Events() {
			if dt, ok := s.transitions[event].(DeterministicTransition[T]); ok && dt.Next != nil {
				queue = append(queue, dt.Next)
			}
		}
	}

	return c, nil
}

// MustNewCatalog is NewCatalog that panics on invalid input.
func MustNewCatalog[T any](start *State[T], states ...*State[T]) *Catalog[T] {
	c, err := NewCatalog(start, states...)
	if err != nil {
		panic(err)
	}
	return c
}

// Start returns the start state.
func (c *Catalog[T]) Start() *State[T] { return c.start }

// Get returns the state registered under name.
func (c *Catalog[T]) Get(name string) (*State[T], bool) {
	s, ok := c.states[name]
	return s, ok
}

// Lookup returns the state registered under name, or the start state when the
// name is empty or unknown.
func (c *Catalog[T]) Lookup(name string) *State[T] {
	if s, ok := c.states[name]; ok {
		return s
	}
	return c.start
}

// States returns all states in discovery order, start first.
func (c *Catalog[T]) States() []*State[T] {
	out := make([]*State[T], len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog[T]) Len() int { return len(c.order) }
