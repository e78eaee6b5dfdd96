// Package stateful is a finite-state-machine engine for domain objects that
// are changed concurrently by many callers.
//
// The engine never locks an entity for the duration of an event. It reads the
// current state, picks the transition, writes the new state with a
// compare-and-swap and only then runs the transition's action. A caller that
// loses the write re-reads and re-evaluates, so for any state an action runs
// at most once per winning write.
//
// Packages:
//
//   - pkg/fsm: states, transitions, actions, the Persister contract, the
//     in-memory persister and the FSM engine with its retry loop.
//   - pkg/document: a persister that keeps state in separate StateRecord
//     documents, plus the Store boundary and an in-memory Store.
//   - pkg/mongo, pkg/redis, pkg/pg: Store implementations.
//   - pkg/harness: resolves entity ids through a Finder or Factory before
//     processing an event.
//   - pkg/definition: YAML machine definitions.
//   - pkg/keylock: per-key mutexes used by the persisters.
//   - pkg/config, pkg/logger: environment configuration and slog setup.
//
// Basic usage:
//
//	pending := fsm.NewState[*Order]("pending")
//	paid := fsm.NewState[*Order]("paid")
//	pending.On("pay", paid, fsm.ActionFunc[*Order](charge))
//
//	persister := fsm.MustNewMemoryPersister(fsm.MustNewCatalog(pending), fsm.StateAccessor[*Order]{
//		Get: func(o *Order) string { return o.State },
//		Set: func(o *Order, s string) { o.State = s },
//	})
//	machine := fsm.MustNew[*Order](persister, fsm.WithName[*Order]("orders"))
//
//	state, err := machine.OnEvent(ctx, order, "pay", amount)
//	if errors.Is(err, fsm.ErrTooBusy) {
//		// contended, retry later
//	}
package stateful
