package document

import (
	"context"
	"time"
)

// Store is the boundary to a document database. Implementations must be
// strongly consistent per record.
type Store interface {
	// UpdateState atomically sets state to next, prev_state to expected and
	// updated_at to at on the record with id, but only if its state is still
	// expected. It returns the updated record, or ErrRecordNotFound.
	UpdateState(ctx context.Context, id, expected, next string, at time.Time) (*StateRecord, error)

	// FindByID returns the record with id, or ErrRecordNotFound.
	FindByID(ctx context.Context, id string) (*StateRecord, error)

	// Save inserts or replaces rec.
	Save(ctx context.Context, rec *StateRecord) error
}
