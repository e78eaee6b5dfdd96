// Package fsm is a finite-state-machine engine that drives the state of
// caller-owned entities under concurrent access.
//
// The package is built from a few small pieces:
//  1. State, Transition and Action describe the graph. A Transition resolves
//     against the entity, so routing may depend on entity data.
//  2. Catalog is the immutable name→State table of one machine with its start
//     state.
//  3. Persister reads the current state and performs conditional writes
//     (compare-and-swap on the expected current state).
//  4. FSM runs the event loop: read, resolve, write, then run the action,
//     retrying on conflicts within a bounded budget.
//
// # Usage
//
//	type Order struct {
//	    ID    string
//	    State string
//	}
//
//	pending := fsm.NewState[*Order]("pending")
//	paid := fsm.NewState[*Order]("paid")
//	pending.On("pay", paid, fsm.ActionFunc[*Order](charge))
//
//	catalog := fsm.MustNewCatalog(pending)
//	persister := fsm.MustNewMemoryPersister(catalog, fsm.StateAccessor[*Order]{
//	    Get: func(o *Order) string { return o.State },
//	    Set: func(o *Order, s string) { o.State = s },
//	})
//	machine := fsm.MustNew[*Order](persister, fsm.WithName[*Order]("orders"))
//
//	state, err := machine.OnEvent(ctx, order, "pay", amount)
//
// The Builder declares the same machine by state names and supports
// conditional routes:
//
//	catalog, err := fsm.NewBuilder[*Order]("pending").
//	    Blocking("review").
//	    Transition("pending", "pay", "paid", charge).
//	    From("paid").When("ship").Route(pickCarrier).Add().
//	    Build()
//
// # Conflict handling
//
// The write happens before the action, so a caller that loses a race never
// runs a side effect for a state it does not own. Losers get *ErrStaleState
// from the persister and the engine re-evaluates the event from the new
// state. Actions and transitions can ask for the same with Retry or
// WaitAndRetry. Events without a transition leave the state unchanged, except
// in blocking states, where the engine writes the same state again (to notice
// a concurrent exit) and waits before trying again.
//
// Each re-evaluation consumes one attempt. When the budget is spent OnEvent
// fails with an error matching ErrTooBusy. Other errors (persistence faults,
// action failures) are returned unchanged and never retried.
//
// # Concurrency
//
// FSM and the persisters are safe for concurrent use. MemoryPersister locks
// per entity through keylock, so unrelated entities never wait on each other.
// The only blocking point of the engine is the wait between attempts, which
// honours context cancellation.
//
// # Observability
//
// Every call is logged through slog (debug for transitions, warn for retries,
// error when the budget runs out), counted in Prometheus metrics
// (fsm_events_total, fsm_transitions_total, fsm_retries_total,
// fsm_event_duration_seconds) and traced with OpenTelemetry spans
// (fsm.on_event and fsm.action) using the global tracer provider.
package fsm
