package fsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/stateful/pkg/logger"
)

// FSM processes events against entities. It holds no per-entity state and is
// safe for concurrent use; consistency comes from the persister's conditional
// writes.
type FSM[T any] struct {
	name         string
	persister    Persister[T]
	retries      int
	blockingWait time.Duration
	log          *slog.Logger
}

// New creates an engine over persister. Defaults: 20 attempts, 250ms blocking
// wait, slog.Default() for logging.
func New[T any](persister Persister[T], opts ...Option[T]) (*FSM[T], error) {
	if persister == nil {
		return nil, ErrNilPersister
	}
	f := &FSM[T]{
		name:         DefaultName,
		persister:    persister,
		retries:      DefaultRetries,
		blockingWait: DefaultBlockingWait,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.retries < 0 {
		return nil, ErrInvalidRetries
	}
	return f, nil
}

// MustNew is New that panics on invalid configuration.
func MustNew[T any](persister Persister[T], opts ...Option[T]) *FSM[T] {
	f, err := New(persister, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return f
}

func (f *FSM[T]) Name() string { return f.name }

func (f *FSM[T]) Retries() int { return f.retries }

// BlockingWait is the pause before re-evaluating an event that hit a blocking state.
func (f *FSM[T]) BlockingWait() time.Duration { return f.blockingWait }

func (f *FSM[T]) Persister() Persister[T] { return f.persister }

// Current returns the entity's current state as seen by the persister.
func (f *FSM[T]) Current(entity T) *State[T] {
	return f.persister.Current(entity)
}

// EntitySaved tells the persister that entity has just been durably saved.
// It is a no-op for persisters that keep state inside the entity.
func (f *FSM[T]) EntitySaved(ctx context.Context, entity T) error {
	if l, ok := f.persister.(SaveListener[T]); ok {
		return l.EntitySaved(ctx, entity)
	}
	return nil
}

// OnEvent processes event against entity and returns the resulting state.
//
// Stale writes and retry signals restart evaluation from the freshly read
// state, up to the retry budget, after which the error matches ErrTooBusy.
// Any other error from the persister, a transition or an action is returned
// unchanged. The state is always written before the action runs, so an action
// only executes for the caller that won the conditional write.
func (f *FSM[T]) OnEvent(ctx context.Context, entity T, event string, args ...any) (*State[T], error) {
	ctx, span := startEventSpan(ctx, f.name, event, entity)
	defer span.End()
	started := time.Now()

	for attempt := range f.retries {
		state, err := f.process(ctx, entity, event, args)
		if err == nil {
			f.finish(ctx, span, event, outcomeSuccess, started, nil)
			return state, nil
		}

		wait, reason, retry := classify(err)
		if !retry {
			f.finish(ctx, span, event, outcomeError, started, err)
			return nil, err
		}

		f.log.WarnContext(ctx, "retrying event",
			logger.Machine(f.name),
			logger.Entity(entityType(entity)),
			logger.Event(event),
			logger.Attempt(attempt),
			logger.Wait(wait),
			logger.Error(err),
		)
		recordRetry(span, f.name, reason, attempt, wait)

		if err := sleep(ctx, wait); err != nil {
			f.finish(ctx, span, event, outcomeCanceled, started, err)
			return nil, err
		}
	}

	f.log.ErrorContext(ctx, "unable to process event",
		logger.Machine(f.name),
		logger.Entity(entityType(entity)),
		logger.Event(event),
		slog.Int("retries", f.retries),
	)
	err := fmt.Errorf("%w: %s(%s) event '%s' after %d attempts", ErrTooBusy, f.name, entityType(entity), event, f.retries)
	f.finish(ctx, span, event, outcomeTooBusy, started, err)
	return nil, err
}

// process runs one evaluation of event against the entity's current state.
func (f *FSM[T]) process(ctx context.Context, entity T, event string, args []any) (*State[T], error) {
	current := f.persister.Current(entity)
	if current == nil {
		return nil, ErrNilState
	}

	transition, ok := current.Transition(event)
	if !ok {
		f.log.DebugContext(ctx, "no transition",
			logger.Machine(f.name),
			logger.Entity(entityType(entity)),
			logger.FromState(current.Name()),
			logger.Event(event),
			logger.ToState(current.Name()),
			logger.Action("noop"),
		)
		if !current.IsBlocking() {
			return current, nil
		}

		// Another caller may already have moved the entity out of the blocking
		// state; the same-state write detects that before we wait.
		if err := f.persister.SetCurrent(ctx, entity, current, current); err != nil {
			return nil, err
		}
		return nil, &ErrRetry{Wait: f.blockingWait, blocking: true}
	}

	pair, err := transition.Resolve(ctx, entity)
	if err != nil {
		return nil, err
	}
	if pair.State == nil {
		return nil, fmt.Errorf("%w: %s(%s)", ErrNilTarget, current.Name(), event)
	}

	if err := f.persister.SetCurrent(ctx, entity, current, pair.State); err != nil {
		return nil, err
	}
	recordTransition(f.name, current.Name(), pair.State.Name())

	ev := Event{Name: event, From: current.Name(), To: pair.State.Name(), Args: args}
	if err := f.execute(ctx, entity, pair.Action, ev); err != nil {
		return nil, err
	}
	return pair.State, nil
}

func (f *FSM[T]) execute(ctx context.Context, entity T, action Action[T], ev Event) error {
	f.log.DebugContext(ctx, "transition",
		logger.Machine(f.name),
		logger.Entity(entityType(entity)),
		logger.FromState(ev.From),
		logger.Event(ev.Name),
		logger.ToState(ev.To),
		logger.Action(actionName(action)),
	)
	if action == nil {
		return nil
	}

	ctx, span := startActionSpan(ctx, actionName(action), ev)
	defer span.End()

	err := action.Execute(ctx, entity, ev)
	endSpan(span, err)
	return err
}

func (f *FSM[T]) finish(ctx context.Context, span trace.Span, event, outcome string, started time.Time, err error) {
	recordEvent(f.name, outcome, time.Since(started))
	endSpan(span, err)
	if err != nil && outcome == outcomeError {
		f.log.DebugContext(ctx, "event failed",
			logger.Machine(f.name),
			logger.Event(event),
			logger.Error(err),
		)
	}
}

// classify reports whether err is a conflict the loop absorbs, and how long
// to wait before the next attempt.
func classify(err error) (wait time.Duration, reason string, retry bool) {
	var r *ErrRetry
	if errors.As(err, &r) {
		if r.blocking {
			return r.Wait, reasonBlocking, true
		}
		return r.Wait, reasonRetry, true
	}
	if IsStaleStateError(err) {
		return 0, reasonStale, true
	}
	return 0, "", false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func entityType(entity any) string {
	return fmt.Sprintf("%T", entity)
}

func actionName(action any) string {
	switch a := action.(type) {
	case nil:
		return "noop"
	case fmt.Stringer:
		return a.String()
	default:
		return fmt.Sprintf("%T", a)
	}
}
