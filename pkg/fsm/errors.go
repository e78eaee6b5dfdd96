package fsm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTooBusy is returned when the retry budget is exhausted. Callers should retry later.
	ErrTooBusy = errors.New("too busy: retry budget exhausted")

	ErrNilState       = errors.New("invalid state: state cannot be nil")
	ErrEmptyStateName = errors.New("invalid state: name cannot be empty")
	ErrEmptyEvent     = errors.New("invalid event: event name cannot be empty")
	ErrNilTransition  = errors.New("invalid transition: transition cannot be nil")
	ErrNilTarget      = errors.New("invalid transition: resolved to a nil state")
	ErrNilPersister   = errors.New("persister cannot be nil")
	ErrNilCatalog     = errors.New("catalog cannot be nil")
	ErrNilAccessor    = errors.New("state accessor must provide Get and Set")
	ErrInvalidRetries = errors.New("retries cannot be negative")
)

// ErrStaleState reports a failed conditional update: the persisted state was
// no longer Expected when the write was attempted.
type ErrStaleState struct {
	Expected string
	Actual   string
}

func (e *ErrStaleState) Error() string {
	return fmt.Sprintf("stale state: expected '%s', actual '%s'", e.Expected, e.Actual)
}

func NewErrStaleState(expected, actual string) *ErrStaleState {
	return &ErrStaleState{Expected: expected, Actual: actual}
}

func IsStaleStateError(err error) bool {
	var e *ErrStaleState
	return errors.As(err, &e)
}

// ErrRetry asks the engine to re-evaluate the event, after Wait if positive.
type ErrRetry struct {
	Wait time.Duration

	blocking bool
}

func (e *ErrRetry) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("retry requested after %s", e.Wait)
	}
	return "retry requested"
}

// Retry returns a signal to re-evaluate the event immediately.
func Retry() error {
	return &ErrRetry{}
}

// WaitAndRetry returns a signal to re-evaluate the event after wait.
func WaitAndRetry(wait time.Duration) error {
	return &ErrRetry{Wait: wait}
}

func IsRetryError(err error) bool {
	var e *ErrRetry
	return errors.As(err, &e)
}

// ErrDuplicateState reports two distinct states sharing a name in one catalog.
type ErrDuplicateState struct {
	StateName string
}

func (e *ErrDuplicateState) Error() string {
	return fmt.Sprintf("duplicate state '%s'", e.StateName)
}

func NewErrDuplicateState(name string) *ErrDuplicateState {
	return &ErrDuplicateState{StateName: name}
}

// ErrDuplicateTransition reports a second transition for the same state and event.
type ErrDuplicateTransition struct {
	StateName string
	EventName string
}

func (e *ErrDuplicateTransition) Error() string {
	return fmt.Sprintf("state '%s' already has a transition for event '%s'", e.StateName, e.EventName)
}

func NewErrDuplicateTransition(stateName, eventName string) *ErrDuplicateTransition {
	return &ErrDuplicateTransition{StateName: stateName, EventName: eventName}
}

// ErrUnknownState reports a reference to a state name that was never declared.
type ErrUnknownState struct {
	StateName string
}

func (e *ErrUnknownState) Error() string {
	return fmt.Sprintf("unknown state '%s'", e.StateName)
}

func NewErrUnknownState(name string) *ErrUnknownState {
	return &ErrUnknownState{StateName: name}
}

func IsUnknownStateError(err error) bool {
	var e *ErrUnknownState
	return errors.As(err, &e)
}
