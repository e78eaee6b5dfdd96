// Package keylock provides exclusive locks scoped to a key.
//
// Callers that need to serialize work per entity, without serializing unrelated
// entities against each other, take a lock on the entity's identity:
//
//	var locks keylock.Locker[string]
//
//	unlock := locks.Lock(order.ID)
//	defer unlock()
//
// Entries are reference counted and removed as soon as the last holder or
// waiter releases them, so the table only grows with the number of keys that
// are contended at the same moment.
//
// The zero value is ready to use. A Locker must not be copied after first use.
package keylock
