package fsm_test

import (
	"context"
	"sync"

	"github.com/dmitrymomot/stateful/pkg/fsm"
	"github.com/dmitrymomot/stateful/pkg/logger"
)

type order struct {
	ID    string
	State string
	Total int
}

var orderAccessor = fsm.StateAccessor[*order]{
	Get: func(o *order) string { return o.State },
	Set: func(o *order, s string) { o.State = s },
}

// recorder is an action that remembers every call.
type recorder struct {
	mu    sync.Mutex
	calls []fsm.Event
	fn    func(call int, ev fsm.Event) error
}

func (r *recorder) Execute(_ context.Context, _ *order, ev fsm.Event) error {
	r.mu.Lock()
	r.calls = append(r.calls, ev)
	n := len(r.calls)
	fn := r.fn
	r.mu.Unlock()
	if fn != nil {
		return fn(n, ev)
	}
	return nil
}

func (r *recorder) Calls() []fsm.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fsm.Event, len(r.calls))
	copy(out, r.calls)
	return out
}

// scriptedPersister wraps a real persister and can inject failures.
type scriptedPersister struct {
	fsm.Persister[*order]

	mu       sync.Mutex
	setCalls int
	failures []error
	saved    []*order
}

func (p *scriptedPersister) SetCurrent(ctx context.Context, o *order, current, next *fsm.State[*order]) error {
	p.mu.Lock()
	p.setCalls++
	var err error
	if len(p.failures) > 0 {
		err = p.failures[0]
		p.failures = p.failures[1:]
	}
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return p.Persister.SetCurrent(ctx, o, current, next)
}

func (p *scriptedPersister) SetCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setCalls
}

func (p *scriptedPersister) EntitySaved(_ context.Context, o *order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, o)
	return nil
}

func quietOptions(opts ...fsm.Option[*order]) []fsm.Option[*order] {
	return append([]fsm.Option[*order]{fsm.WithLogger[*order](logger.Discard())}, opts...)
}
