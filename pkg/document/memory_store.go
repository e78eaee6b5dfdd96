package document

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Records are copied in and out, so
// callers never share memory with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]StateRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]StateRecord)}
}

func (s *MemoryStore) UpdateState(ctx context.Context, id, expected, next string, at time.Time) (*StateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.State != expected {
		return nil, ErrRecordNotFound
	}
	rec.PrevState = expected
	rec.State = next
	rec.UpdatedAt = at
	s.records[id] = rec

	return &rec, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*StateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) Save(ctx context.Context, rec *StateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	stored.Persisted = false
	s.records[rec.ID] = stored
	return nil
}

// Delete removes the record with id. Deleting an unknown id is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
