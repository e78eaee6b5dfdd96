package document

import "time"

// StateRecord holds the state of one entity outside the entity itself.
type StateRecord struct {
	ID        string    `bson:"_id" json:"id"`
	State     string    `bson:"state" json:"state"`
	PrevState string    `bson:"prev_state,omitempty" json:"prev_state,omitempty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	// ManagedID references the entity that owns this record.
	ManagedID         string `bson:"managed_id,omitempty" json:"managed_id,omitempty"`
	ManagedCollection string `bson:"managed_collection,omitempty" json:"managed_collection,omitempty"`
	ManagedField      string `bson:"managed_field,omitempty" json:"managed_field,omitempty"`

	// Persisted reports whether the record exists in the store. It is never stored.
	Persisted bool `bson:"-" json:"-"`
}

// Clone returns a copy of r.
func (r *StateRecord) Clone() *StateRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
