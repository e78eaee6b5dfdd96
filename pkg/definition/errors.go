package definition

import "errors"

var (
	ErrInvalidDefinition = errors.New("invalid machine definition")
	ErrUnknownAction     = errors.New("unknown action")
	ErrReadDefinition    = errors.New("failed to read machine definition")
)
