package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrIndexCreation          = errors.New("failed to create state record indexes")
	ErrUpdateState            = errors.New("failed to update state record")
	ErrFindRecord             = errors.New("failed to find state record")
	ErrSaveRecord             = errors.New("failed to save state record")
)
