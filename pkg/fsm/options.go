package fsm

import (
	"log/slog"
	"time"
)

// Option configures an FSM during construction.
type Option[T any] func(*FSM[T])

// WithName sets the machine name used in logs, metrics and spans.
func WithName[T any](name string) Option[T] {
	return func(f *FSM[T]) {
		if name != "" {
			f.name = name
		}
	}
}

// WithRetries sets how many attempts OnEvent makes before failing with ErrTooBusy.
func WithRetries[T any](retries int) Option[T] {
	return func(f *FSM[T]) { f.retries = retries }
}

// WithBlockingWait sets the pause before re-evaluating an event that hit a blocking state.
func WithBlockingWait[T any](wait time.Duration) Option[T] {
	return func(f *FSM[T]) { f.blockingWait = wait }
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(f *FSM[T]) {
		if log != nil {
			f.log = log
		}
	}
}

// WithConfig applies name, retries and blocking wait from cfg. Zero fields
// keep the current values, so a partially filled Config leaves the defaults
// in place; use WithRetries(0) to disable attempts explicitly.
func WithConfig[T any](cfg Config) Option[T] {
	return func(f *FSM[T]) {
		WithName[T](cfg.Name)(f)
		if cfg.Retries != 0 {
			f.retries = cfg.Retries
		}
		if cfg.BlockingWait != 0 {
			f.blockingWait = cfg.BlockingWait
		}
	}
}
