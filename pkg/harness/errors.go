package harness

import "errors"

var (
	ErrEntityNotFound       = errors.New("entity not found")
	ErrEntityCreationFailed = errors.New("entity creation failed")
	ErrNilMachine           = errors.New("state machine cannot be nil")
	ErrNilFinder            = errors.New("finder cannot be nil")
)
