package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrUpdateState                  = errors.New("failed to update state record")
	ErrFindRecord                   = errors.New("failed to find state record")
	ErrSaveRecord                   = errors.New("failed to save state record")
	ErrMalformedRecord              = errors.New("malformed state record")
)
