package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/stateful/pkg/document"
)

// DB is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const recordColumns = `id, state, prev_state, updated_at, managed_id, managed_collection, managed_field`

const updateStateSQL = `
UPDATE state_records
SET state = $3, prev_state = $2, updated_at = $4
WHERE id = $1 AND state = $2
RETURNING ` + recordColumns

const findByIDSQL = `SELECT ` + recordColumns + ` FROM state_records WHERE id = $1`

const findByManagedIDSQL = `SELECT ` + recordColumns + ` FROM state_records WHERE managed_id = $1 LIMIT 1`

const saveSQL = `
INSERT INTO state_records (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	state = EXCLUDED.state,
	prev_state = EXCLUDED.prev_state,
	updated_at = EXCLUDED.updated_at,
	managed_id = EXCLUDED.managed_id,
	managed_collection = EXCLUDED.managed_collection,
	managed_field = EXCLUDED.managed_field`

// StateStore keeps state records in the state_records table created by
// Migrate. The conditional update is a single UPDATE ... WHERE state = $2,
// which PostgreSQL serializes per row.
type StateStore struct {
	db DB
}

var _ document.Store = (*StateStore)(nil)

func NewStateStore(db DB) *StateStore {
	return &StateStore{db: db}
}

func (s *StateStore) UpdateState(ctx context.Context, id, expected, next string, at time.Time) (*document.StateRecord, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, updateStateSQL, id, expected, next, at))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, document.ErrRecordNotFound
		}
		return nil, errors.Join(ErrUpdateState, err)
	}
	return rec, nil
}

func (s *StateStore) FindByID(ctx context.Context, id string) (*document.StateRecord, error) {
	return s.find(ctx, findByIDSQL, id)
}

// FindByManagedID returns the record owned by the entity with managedID.
func (s *StateStore) FindByManagedID(ctx context.Context, managedID string) (*document.StateRecord, error) {
	return s.find(ctx, findByManagedIDSQL, managedID)
}

func (s *StateStore) Save(ctx context.Context, rec *document.StateRecord) error {
	_, err := s.db.Exec(ctx, saveSQL,
		rec.ID, rec.State, rec.PrevState, rec.UpdatedAt,
		rec.ManagedID, rec.ManagedCollection, rec.ManagedField,
	)
	if err != nil {
		return errors.Join(ErrSaveRecord, err)
	}
	return nil
}

func (s *StateStore) find(ctx context.Context, query, arg string) (*document.StateRecord, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, query, arg))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, document.ErrRecordNotFound
		}
		return nil, errors.Join(ErrFindRecord, err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*document.StateRecord, error) {
	var rec document.StateRecord
	err := row.Scan(
		&rec.ID, &rec.State, &rec.PrevState, &rec.UpdatedAt,
		&rec.ManagedID, &rec.ManagedCollection, &rec.ManagedField,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
