package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stateful/pkg/fsm"
	"github.com/dmitrymomot/stateful/pkg/keylock"
	"github.com/dmitrymomot/stateful/pkg/logger"
)

// RecordAccessor links an entity to its StateRecord.
type RecordAccessor[T any] struct {
	Record    func(entity T) *StateRecord
	SetRecord func(entity T, rec *StateRecord)

	// ID returns the entity's own identity, stored as ManagedID. Optional.
	ID func(entity T) string
}

func (a RecordAccessor[T]) valid() bool {
	return a.Record != nil && a.SetRecord != nil
}

// Persister keeps the state of each entity in a separate StateRecord.
//
// Once the record is persisted every SetCurrent is a conditional update in
// the store. Until then the record lives only on the entity and writes are
// serialized with a per-entity lock.
type Persister[T any] struct {
	catalog *fsm.Catalog[T]
	store   Store
	access  RecordAccessor[T]

	log        *slog.Logger
	newID      func() string
	now        func() time.Time
	saver      EntitySaver[T]
	collection string
	field      string

	lockKey func(T) any
	locks   keylock.Locker[any]
}

var (
	_ fsm.Persister[any]    = (*Persister[any])(nil)
	_ fsm.SaveListener[any] = (*Persister[any])(nil)
)

// NewPersister creates a document persister.
func NewPersister[T any](catalog *fsm.Catalog[T], store Store, access RecordAccessor[T], opts ...Option[T]) (*Persister[T], error) {
	if catalog == nil {
		return nil, fsm.ErrNilCatalog
	}
	if store == nil {
		return nil, ErrNilStore
	}
	if !access.valid() {
		return nil, ErrNilRecordAccessor
	}

	p := &Persister[T]{
		catalog: catalog,
		store:   store,
		access:  access,
		log:     slog.Default(),
		newID:   uuid.NewString,
		now:     time.Now,
		lockKey: func(entity T) any { return entity },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// MustNewPersister is NewPersister that panics on invalid input.
func MustNewPersister[T any](catalog *fsm.Catalog[T], store Store, access RecordAccessor[T], opts ...Option[T]) *Persister[T] {
	p, err := NewPersister(catalog, store, access, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create document persister: %v", err))
	}
	return p
}

func (p *Persister[T]) Catalog() *fsm.Catalog[T] { return p.catalog }

func (p *Persister[T]) Current(entity T) *fsm.State[T] {
	unlock := p.locks.Lock(p.lockKey(entity))
	defer unlock()

	rec := p.access.Record(entity)
	if rec == nil {
		return p.catalog.Start()
	}
	return p.catalog.Lookup(rec.State)
}

func (p *Persister[T]) SetCurrent(ctx context.Context, entity T, current, next *fsm.State[T]) error {
	if current == nil || next == nil {
		return fsm.ErrNilState
	}

	unlock := p.locks.Lock(p.lockKey(entity))
	rec := p.access.Record(entity)
	if rec == nil || !rec.Persisted {
		defer unlock()
		return p.setTransient(entity, rec, current, next)
	}
	id := rec.ID
	unlock()

	return p.setPersisted(ctx, entity, id, current, next)
}

// setTransient updates a record that only exists on the entity. The caller
// holds the entity lock.
func (p *Persister[T]) setTransient(entity T, rec *StateRecord, current, next *fsm.State[T]) error {
	if rec == nil {
		rec = p.newRecord()
		p.access.SetRecord(entity, rec)
	}

	actual := p.catalog.Lookup(rec.State)
	if actual.Name() != current.Name() {
		return fsm.NewErrStaleState(current.Name(), actual.Name())
	}
	rec.PrevState = actual.Name()
	rec.State = next.Name()
	rec.UpdatedAt = p.now()
	return nil
}

func (p *Persister[T]) setPersisted(ctx context.Context, entity T, id string, current, next *fsm.State[T]) error {
	updated, err := p.store.UpdateState(ctx, id, current.Name(), next.Name(), p.now())
	if err == nil {
		updated.Persisted = true
		p.assign(entity, updated)
		return nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return errors.Join(ErrStoreFailure, err)
	}

	// Either the state moved on or the record is gone. Refresh the entity
	// so the next attempt starts from what the store holds.
	fresh, err := p.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			p.log.ErrorContext(ctx, "state record vanished",
				logger.Component("document"),
				logger.RecordID(id),
				logger.FromState(current.Name()),
			)
			return fmt.Errorf("%w: id '%s'", ErrRecordMissing, id)
		}
		return errors.Join(ErrStoreFailure, err)
	}
	fresh.Persisted = true
	p.assign(entity, fresh)

	p.log.DebugContext(ctx, "conflicting state update",
		logger.Component("document"),
		logger.RecordID(id),
		slog.String("expected", current.Name()),
		slog.String("actual", fresh.State),
	)
	return fsm.NewErrStaleState(current.Name(), fresh.State)
}

// EntitySaved persists the entity's StateRecord right after the entity itself
// was saved. When the entity had no record yet, one is created in the start
// state and the entity is saved again through the configured EntitySaver.
func (p *Persister[T]) EntitySaved(ctx context.Context, entity T) error {
	unlock := p.locks.Lock(p.lockKey(entity))

	rec := p.access.Record(entity)
	resave := false
	if rec == nil {
		rec = p.newRecord()
		p.access.SetRecord(entity, rec)
		resave = true
	}
	if rec.Persisted {
		unlock()
		return nil
	}

	if p.access.ID != nil {
		rec.ManagedID = p.access.ID(entity)
	}
	if err := p.store.Save(ctx, rec); err != nil {
		unlock()
		return errors.Join(ErrStoreFailure, err)
	}
	rec.Persisted = true
	unlock()

	p.log.DebugContext(ctx, "state record persisted",
		logger.Component("document"),
		logger.RecordID(rec.ID),
		logger.ToState(rec.State),
	)

	if !resave {
		return nil
	}
	if p.saver == nil {
		return ErrEntitySaverRequired
	}
	return p.saver.SaveEntity(ctx, entity)
}

func (p *Persister[T]) newRecord() *StateRecord {
	return &StateRecord{
		ID:                p.newID(),
		State:             p.catalog.Start().Name(),
		UpdatedAt:         p.now(),
		ManagedCollection: p.collection,
		ManagedField:      p.field,
	}
}

func (p *Persister[T]) assign(entity T, rec *StateRecord) {
	unlock := p.locks.Lock(p.lockKey(entity))
	defer unlock()
	p.access.SetRecord(entity, rec)
}
