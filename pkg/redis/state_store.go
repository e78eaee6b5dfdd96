package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/stateful/pkg/document"
)

const (
	fieldState             = "state"
	fieldPrevState         = "prev_state"
	fieldUpdatedAt         = "updated_at"
	fieldManagedID         = "managed_id"
	fieldManagedCollection = "managed_collection"
	fieldManagedField      = "managed_field"
)

// compareAndSet updates the hash only while its state equals ARGV[1].
// A missing key reads as false, so it misses too. Returns nil on a miss and
// the full hash on success.
var compareAndSet = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'state') ~= ARGV[1] then
	return false
end
redis.call('HSET', KEYS[1], 'state', ARGV[2], 'prev_state', ARGV[1], 'updated_at', ARGV[3])
local ttl = tonumber(ARGV[4])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return redis.call('HGETALL', KEYS[1])
`)

// StateStore keeps each state record in a hash. Conditional updates run as a
// Lua script, which Redis executes atomically.
type StateStore struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ document.Store = (*StateStore)(nil)

// StoreOption configures a StateStore.
type StoreOption func(*StateStore)

// WithPrefix sets the key prefix. Default "fsm:state:".
func WithPrefix(prefix string) StoreOption {
	return func(s *StateStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires records that have not been written for ttl.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *StateStore) {
		s.ttl = ttl
	}
}

// WithConfig applies the state settings of cfg.
func WithConfig(cfg Config) StoreOption {
	return func(s *StateStore) {
		WithPrefix(cfg.StatePrefix)(s)
		WithTTL(cfg.StateTTL)(s)
	}
}

func NewStateStore(db redis.UniversalClient, opts ...StoreOption) *StateStore {
	s := &StateStore{db: db, prefix: "fsm:state:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StateStore) key(id string) string {
	return s.prefix + id
}

func (s *StateStore) UpdateState(ctx context.Context, id, expected, next string, at time.Time) (*document.StateRecord, error) {
	res, err := compareAndSet.Run(ctx, s.db,
		[]string{s.key(id)},
		expected, next, at.UTC().Format(time.RFC3339Nano), s.ttl.Milliseconds(),
	).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, document.ErrRecordNotFound
		}
		return nil, errors.Join(ErrUpdateState, err)
	}
	if len(res)%2 != 0 {
		return nil, fmt.Errorf("%w: odd field count %d", ErrMalformedRecord, len(res))
	}

	fields := make(map[string]string, len(res)/2)
	for i := 0; i < len(res); i += 2 {
		fields[res[i]] = res[i+1]
	}
	return decodeRecord(id, fields)
}

func (s *StateStore) FindByID(ctx context.Context, id string) (*document.StateRecord, error) {
	fields, err := s.db.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, errors.Join(ErrFindRecord, err)
	}
	if len(fields) == 0 {
		return nil, document.ErrRecordNotFound
	}
	return decodeRecord(id, fields)
}

// Save replaces the whole hash in one MULTI/EXEC block.
func (s *StateStore) Save(ctx context.Context, rec *document.StateRecord) error {
	key := s.key(rec.ID)
	_, err := s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, encodeRecord(rec))
		if s.ttl > 0 {
			pipe.PExpire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrSaveRecord, err)
	}
	return nil
}

func encodeRecord(rec *document.StateRecord) map[string]any {
	return map[string]any{
		fieldState:             rec.State,
		fieldPrevState:         rec.PrevState,
		fieldUpdatedAt:         rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		fieldManagedID:         rec.ManagedID,
		fieldManagedCollection: rec.ManagedCollection,
		fieldManagedField:      rec.ManagedField,
	}
}

func decodeRecord(id string, fields map[string]string) (*document.StateRecord, error) {
	rec := &document.StateRecord{
		ID:                id,
		State:             fields[fieldState],
		PrevState:         fields[fieldPrevState],
		ManagedID:         fields[fieldManagedID],
		ManagedCollection: fields[fieldManagedCollection],
		ManagedField:      fields[fieldManagedField],
	}
	if v := fields[fieldUpdatedAt]; v != "" {
		at, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, errors.Join(ErrMalformedRecord, err)
		}
		rec.UpdatedAt = at
	}
	return rec, nil
}
