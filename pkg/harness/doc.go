// Package harness connects inbound calls that carry an entity id to an
// fsm.FSM. It looks the entity up with a Finder, falls back to a Factory when
// no id was given, and then processes the event.
//
//	h := harness.MustNew(machine, harness.FinderFunc[*Order](repo.Find),
//		harness.WithFactory[*Order](harness.FactoryFunc[*Order](repo.New)),
//	)
//
//	state, err := h.OnEvent(ctx, "pay", orderID, amount)
//	switch {
//	case errors.Is(err, harness.ErrEntityNotFound):
//		// 404
//	case errors.Is(err, fsm.ErrTooBusy):
//		// retry later
//	}
package harness
