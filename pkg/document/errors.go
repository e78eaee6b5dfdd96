package document

import "errors"

var (
	// ErrRecordNotFound is returned by a Store when no record matches. For
	// UpdateState this covers both an unknown id and a state mismatch.
	ErrRecordNotFound = errors.New("state record not found")

	// ErrRecordMissing means a persisted record vanished from the store: the
	// conditional update missed and the re-fetch found nothing either.
	ErrRecordMissing = errors.New("persisted state record is missing")

	ErrStoreFailure        = errors.New("state store operation failed")
	ErrEntitySaverRequired = errors.New("entity must be saved again but no entity saver is configured")
	ErrNilStore            = errors.New("store cannot be nil")
	ErrNilRecordAccessor   = errors.New("record accessor must provide Record and SetRecord")
)
