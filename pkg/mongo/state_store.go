package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/stateful/pkg/document"
)

// StateStore keeps state records in a MongoDB collection. Every conditional
// transition is one findOneAndUpdate on {_id, state}.
type StateStore struct {
	coll *mongo.Collection
}

var _ document.Store = (*StateStore)(nil)

func NewStateStore(coll *mongo.Collection) *StateStore {
	return &StateStore{coll: coll}
}

// EnsureIndexes creates the managed_id index used to find the record of an entity.
func (s *StateStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "managed_id", Value: 1}},
		Options: options.Index().SetName("managed_id"),
	})
	if err != nil {
		return errors.Join(ErrIndexCreation, err)
	}
	return nil
}

func (s *StateStore) UpdateState(ctx context.Context, id, expected, next string, at time.Time) (*document.StateRecord, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "state", Value: expected},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: next},
		{Key: "prev_state", Value: expected},
		{Key: "updated_at", Value: at},
	}}}

	var rec document.StateRecord
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, document.ErrRecordNotFound
		}
		return nil, errors.Join(ErrUpdateState, err)
	}
	return &rec, nil
}

func (s *StateStore) FindByID(ctx context.Context, id string) (*document.StateRecord, error) {
	var rec document.StateRecord
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, document.ErrRecordNotFound
		}
		return nil, errors.Join(ErrFindRecord, err)
	}
	return &rec, nil
}

// FindByManagedID returns the record owned by the entity with managedID.
func (s *StateStore) FindByManagedID(ctx context.Context, managedID string) (*document.StateRecord, error) {
	var rec document.StateRecord
	err := s.coll.FindOne(ctx, bson.D{{Key: "managed_id", Value: managedID}}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, document.ErrRecordNotFound
		}
		return nil, errors.Join(ErrFindRecord, err)
	}
	return &rec, nil
}

func (s *StateStore) Save(ctx context.Context, rec *document.StateRecord) error {
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: rec.ID}}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrSaveRecord, err)
	}
	return nil
}
