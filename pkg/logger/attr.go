package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the emitting component under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Machine records the state machine name under "machine".
func Machine(name string) slog.Attr {
	return slog.String("machine", name)
}

// Event records the event name under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Entity records the entity type or identity under "entity".
// Nil values produce an empty Attr.
func Entity(v any) slog.Attr {
	if v == nil {
		return slog.Attr{}
	}
	return slog.Any("entity", v)
}

// FromState records the originating state under "from".
func FromState(name string) slog.Attr {
	return slog.String("from", name)
}

// ToState records the target state under "to".
func ToState(name string) slog.Attr {
	return slog.String("to", name)
}

// Action records the action description under "action".
func Action(name string) slog.Attr {
	return slog.String("action", name)
}

// RecordID records a state record identifier under "record_id".
func RecordID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("record_id", id)
}

// Attempt records the zero-based attempt number under "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Wait records a backoff wait under "wait".
func Wait(d time.Duration) slog.Attr {
	return slog.Duration("wait", d)
}
