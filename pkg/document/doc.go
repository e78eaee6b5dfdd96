// Package document keeps entity state in separate StateRecord documents and
// resolves concurrent transitions with compare-and-swap updates.
//
// A Persister works in two regimes. While an entity has not been saved its
// record lives only in memory, attached to the entity through a
// RecordAccessor, and writes are serialized per entity. After the owner is
// saved, the application calls EntitySaved (or fsm.FSM.EntitySaved), the
// record is written to the Store and every later transition becomes a single
// conditional update:
//
//	update {_id: id, state: expected} set {state: next, prev_state: expected, updated_at: now}
//
// A miss triggers a re-fetch. The entity gets the fresh record and the engine
// sees an *fsm.ErrStaleState, so the event is re-evaluated from the state the
// store actually holds.
//
// # Usage
//
//	type Order struct {
//		ID    string
//		State *document.StateRecord
//	}
//
//	store := mongo.NewStateStore(db.Collection("order_states"))
//	persister := document.MustNewPersister(catalog, store, document.RecordAccessor[*Order]{
//		Record:    func(o *Order) *document.StateRecord { return o.State },
//		SetRecord: func(o *Order, r *document.StateRecord) { o.State = r },
//		ID:        func(o *Order) string { return o.ID },
//	}, document.WithEntitySaver[*Order](repo))
//
//	machine := fsm.MustNew[*Order](persister)
//
// Store implementations live in the mongo, redis and pg packages. MemoryStore
// serves tests and single-process setups, and storetest.RunStoreContract
// verifies any implementation.
package document
