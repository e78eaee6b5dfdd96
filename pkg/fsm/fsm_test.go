package fsm_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stateful/pkg/fsm"
)

func TestFSM_OnEvent(t *testing.T) {
	t.Parallel()

	t.Run("transitions and runs the action once", func(t *testing.T) {
		t.Parallel()
		action := &recorder{}
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		one.On("x", two, action)

		persister := fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor)
		machine := fsm.MustNew[*order](persister, quietOptions()...)

		o := &order{}
		state, err := machine.OnEvent(context.Background(), o, "x", "arg1", 2)
		require.NoError(t, err)
		assert.Equal(t, "two", state.Name())
		assert.Equal(t, "two", o.State)

		calls := action.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, fsm.Event{Name: "x", From: "one", To: "two", Args: []any{"arg1", 2}}, calls[0])
	})

	t.Run("unknown event in a non-blocking state is a no-op", func(t *testing.T) {
		t.Parallel()
		action := &recorder{}
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		one.On("x", two, action)

		persister := &scriptedPersister{Persister: fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor)}
		machine := fsm.MustNew[*order](persister, quietOptions()...)

		o := &order{State: "one"}
		state, err := machine.OnEvent(context.Background(), o, "y")
		require.NoError(t, err)
		assert.Equal(t, "one", state.Name())
		assert.Empty(t, action.Calls())
		assert.Zero(t, persister.SetCalls(), "no write for a true no-op")
	})

	t.Run("replaying an event evaluates from the new state", func(t *testing.T) {
		t.Parallel()
		action := &recorder{}
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		three := fsm.NewState[*order]("three")
		one.On("x", two, action)
		two.On("x", three, action)

		machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor), quietOptions()...)

		o := &order{}
		_, err := machine.OnEvent(context.Background(), o, "x")
		require.NoError(t, err)
		state, err := machine.OnEvent(context.Background(), o, "x")
		require.NoError(t, err)
		assert.Equal(t, "three", state.Name())

		calls := action.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "two", calls[1].From)
		assert.Equal(t, "three", calls[1].To)
	})

	t.Run("noop transition keeps the state and runs the action", func(t *testing.T) {
		t.Parallel()
		action := &recorder{}
		one := fsm.NewState[*order]("one")
		one.Noop("touch", action)

		machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor), quietOptions()...)

		state, err := machine.OnEvent(context.Background(), &order{}, "touch")
		require.NoError(t, err)
		assert.Equal(t, "one", state.Name())
		require.Len(t, action.Calls(), 1)
		assert.Equal(t, "one", action.Calls()[0].To)
	})

	t.Run("conditional routing depends on entity data", func(t *testing.T) {
		t.Parallel()
		pending := fsm.NewState[*order]("pending")
		approved := fsm.NewState[*order]("approved")
		review := fsm.NewState[*order]("review")
		require.NoError(t, pending.AddTransition("submit", fsm.TransitionFunc[*order](
			func(_ context.Context, o *order) (fsm.StateActionPair[*order], error) {
				if o.Total > 1000 {
					return fsm.StateActionPair[*order]{State: review}, nil
				}
				return fsm.StateActionPair[*order]{State: approved}, nil
			},
		)))

		catalog := fsm.MustNewCatalog(pending, approved, review)
		machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(catalog, orderAccessor), quietOptions()...)

		small, err := machine.OnEvent(context.Background(), &order{Total: 10}, "submit")
		require.NoError(t, err)
		assert.Equal(t, "approved", small.Name())

		large, err := machine.OnEvent(context.Background(), &order{Total: 5000}, "submit")
		require.NoError(t, err)
		assert.Equal(t, "review", large.Name())
	})

	t.Run("nil target is reported", func(t *testing.T) {
		t.Parallel()
		one := fsm.NewState[*order]("one")
		require.NoError(t, one.AddTransition("x", fsm.TransitionFunc[*order](
			func(context.Context, *order) (fsm.StateActionPair[*order], error) {
				return fsm.StateActionPair[*order]{}, nil
			},
		)))
		machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor), quietOptions()...)

		_, err := machine.OnEvent(context.Background(), &order{}, "x")
		require.ErrorIs(t, err, fsm.ErrNilTarget)
	})
}

func TestFSM_StaleState(t *testing.T) {
	t.Parallel()

	t.Run("stale write is retried and the action runs once", func(t *testing.T) {
		t.Parallel()
		action := &recorder{}
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		one.On("x", two, action)

		persister := &scriptedPersister{
			Persister: fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor),
			failures:  []error{fsm.NewErrStaleState("one", "one")},
		}
		machine := fsm.MustNew[*order](persister, quietOptions()...)

		state, err := machine.OnEvent(context.Background(), &order{}, "x")
		require.NoError(t, err)
		assert.Equal(t, "two", state.Name())
		assert.Equal(t, 2, persister.SetCalls())
		assert.Len(t, action.Calls(), 1)
	})

	t.Run("zero budget fails without running actions", func(t *testing.T) {
		t.Parallel()
		action := &recorder{}
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		one.On("x", two, action)

		persister := &scriptedPersister{
			Persister: fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor),
			failures:  []error{fsm.NewErrStaleState("one", "two")},
		}
		machine := fsm.MustNew[*order](persister, quietOptions(fsm.WithRetries[*order](0))...)

		state, err := machine.OnEvent(context.Background(), &order{}, "x")
		require.ErrorIs(t, err, fsm.ErrTooBusy)
		assert.Nil(t, state)
		assert.Empty(t, action.Calls())
	})

	t.Run("persistent conflicts exhaust the budget", func(t *testing.T) {
		t.Parallel()
		action := &recorder{}
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		one.On("x", two, action)

		failures := make([]error, 5)
		for i := range failures {
			failures[i] = fsm.NewErrStaleState("one", "two")
		}
		persister := &scriptedPersister{
			Persister: fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor),
			failures:  failures,
		}
		machine := fsm.MustNew[*order](persister, quietOptions(fsm.WithRetries[*order](3))...)

		_, err := machine.OnEvent(context.Background(), &order{}, "x")
		require.ErrorIs(t, err, fsm.ErrTooBusy)
		assert.Equal(t, 3, persister.SetCalls())
		assert.Empty(t, action.Calls())
	})

	t.Run("persistence faults are not retried", func(t *testing.T) {
		t.Parallel()
		errDisk := errors.New("disk on fire")
		one := fsm.NewState[*order]("one")
		one.On("x", fsm.NewState[*order]("two"), nil)

		persister := &scriptedPersister{
			Persister: fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor),
			failures:  []error{errDisk},
		}
		machine := fsm.MustNew[*order](persister, quietOptions()...)

		_, err := machine.OnEvent(context.Background(), &order{}, "x")
		require.ErrorIs(t, err, errDisk)
		assert.Equal(t, 1, persister.SetCalls())
	})
}

func TestFSM_Concurrency(t *testing.T) {
	t.Parallel()

	var executed atomic.Int32
	one := fsm.NewState[*order]("one")
	two := fsm.NewState[*order]("two")
	one.On("x", two, fsm.ActionFunc[*order](func(context.Context, *order, fsm.Event) error {
		executed.Add(1)
		time.Sleep(time.Millisecond)
		return nil
	}))

	machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor), quietOptions()...)

	o := &order{}
	const callers = 32
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := machine.OnEvent(context.Background(), o, "x")
			if assert.NoError(t, err) {
				results[i] = state.Name()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), executed.Load(), "only the winner of the pre-image runs the action")
	for _, r := range results {
		assert.Equal(t, "two", r)
	}
	assert.Equal(t, "two", o.State)
}

func TestFSM_Blocking(t *testing.T) {
	t.Parallel()

	t.Run("blocking state never runs actions and exhausts the budget", func(t *testing.T) {
		t.Parallel()
		action := &recorder{}
		locked := fsm.NewBlockingState[*order]("locked")
		done := fsm.NewState[*order]("done")
		locked.On("unlock", done, action)

		persister := &scriptedPersister{Persister: fsm.MustNewMemoryPersister(fsm.MustNewCatalog(locked), orderAccessor)}
		machine := fsm.MustNew[*order](persister, quietOptions(
			fsm.WithRetries[*order](3),
			fsm.WithBlockingWait[*order](time.Millisecond),
		)...)

		_, err := machine.OnEvent(context.Background(), &order{}, "ship")
		require.ErrorIs(t, err, fsm.ErrTooBusy)
		assert.Empty(t, action.Calls())
		assert.Equal(t, 3, persister.SetCalls(), "one same-state write per attempt")
	})

	t.Run("proceeds once another caller leaves the blocking state", func(t *testing.T) {
		t.Parallel()
		shipAction := &recorder{}
		locked := fsm.NewBlockingState[*order]("locked")
		open := fsm.NewState[*order]("open")
		shipped := fsm.NewState[*order]("shipped")
		locked.On("unlock", open, nil)
		open.On("ship", shipped, shipAction)

		machine := fsm.MustNew[*order](
			fsm.MustNewMemoryPersister(fsm.MustNewCatalog(locked), orderAccessor),
			quietOptions(fsm.WithBlockingWait[*order](5*time.Millisecond))...,
		)

		o := &order{}
		go func() {
			time.Sleep(15 * time.Millisecond)
			_, _ = machine.OnEvent(context.Background(), o, "unlock")
		}()

		state, err := machine.OnEvent(context.Background(), o, "ship")
		require.NoError(t, err)
		assert.Equal(t, "shipped", state.Name())
		calls := shipAction.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "open", calls[0].From)
	})
}

func TestFSM_ActionSignals(t *testing.T) {
	t.Parallel()

	t.Run("retry from an action re-evaluates from the new state", func(t *testing.T) {
		t.Parallel()
		action := &recorder{fn: func(call int, _ fsm.Event) error {
			if call == 1 {
				return fsm.Retry()
			}
			return nil
		}}
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		one.On("x", two, action)

		machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor), quietOptions()...)

		state, err := machine.OnEvent(context.Background(), &order{}, "x")
		require.NoError(t, err)
		assert.Equal(t, "two", state.Name())
		assert.Len(t, action.Calls(), 1, "second evaluation finds no transition from two")
	})

	t.Run("wait and retry honours the context", func(t *testing.T) {
		t.Parallel()
		one := fsm.NewState[*order]("one")
		one.Noop("x", fsm.ActionFunc[*order](func(context.Context, *order, fsm.Event) error {
			return fsm.WaitAndRetry(time.Hour)
		}))
		machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor), quietOptions()...)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := machine.OnEvent(ctx, &order{}, "x")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("action errors are returned unchanged", func(t *testing.T) {
		t.Parallel()
		errCharge := errors.New("card declined")
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		one.On("x", two, fsm.NamedAction[*order]("charge", func(context.Context, *order, fsm.Event) error {
			return errCharge
		}))
		machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor), quietOptions()...)

		o := &order{}
		_, err := machine.OnEvent(context.Background(), o, "x")
		require.ErrorIs(t, err, errCharge)
		assert.Equal(t, "two", o.State, "state was written before the action ran")
	})

	t.Run("retry from a transition", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		one := fsm.NewState[*order]("one")
		two := fsm.NewState[*order]("two")
		require.NoError(t, one.AddTransition("x", fsm.TransitionFunc[*order](
			func(context.Context, *order) (fsm.StateActionPair[*order], error) {
				if calls.Add(1) < 3 {
					return fsm.StateActionPair[*order]{}, fsm.WaitAndRetry(time.Millisecond)
				}
				return fsm.StateActionPair[*order]{State: two}, nil
			},
		)))
		machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one, two), orderAccessor), quietOptions()...)

		state, err := machine.OnEvent(context.Background(), &order{}, "x")
		require.NoError(t, err)
		assert.Equal(t, "two", state.Name())
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestFSM_New(t *testing.T) {
	t.Parallel()

	_, err := fsm.New[*order](nil)
	require.ErrorIs(t, err, fsm.ErrNilPersister)

	persister := fsm.MustNewMemoryPersister(fsm.MustNewCatalog(fsm.NewState[*order]("one")), orderAccessor)
	_, err = fsm.New[*order](persister, fsm.WithRetries[*order](-1))
	require.ErrorIs(t, err, fsm.ErrInvalidRetries)

	assert.Panics(t, func() { fsm.MustNew[*order](nil) })

	machine := fsm.MustNew[*order](persister)
	assert.Equal(t, fsm.DefaultName, machine.Name())
	assert.Equal(t, fsm.DefaultRetries, machine.Retries())
	assert.Same(t, persister, machine.Persister())

	configured := fsm.MustNew[*order](persister, fsm.WithConfig[*order](fsm.Config{
		Name:         "orders",
		Retries:      5,
		BlockingWait: time.Second,
	}))
	assert.Equal(t, "orders", configured.Name())
	assert.Equal(t, 5, configured.Retries())

	partial := fsm.MustNew[*order](persister, fsm.WithConfig[*order](fsm.Config{Name: "orders"}))
	assert.Equal(t, fsm.DefaultRetries, partial.Retries())
	assert.Equal(t, fsm.DefaultBlockingWait, partial.BlockingWait())
	state, err := partial.OnEvent(context.Background(), &order{}, "anything")
	require.NoError(t, err)
	assert.Equal(t, "one", state.Name())
}

func TestFSM_EntitySaved(t *testing.T) {
	t.Parallel()
	one := fsm.NewState[*order]("one")
	memory := fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor)

	require.NoError(t, fsm.MustNew[*order](memory).EntitySaved(context.Background(), &order{}))

	listener := &scriptedPersister{Persister: memory}
	o := &order{}
	require.NoError(t, fsm.MustNew[*order](listener).EntitySaved(context.Background(), o))
	assert.Equal(t, []*order{o}, listener.saved)
}

func TestFSM_Current(t *testing.T) {
	t.Parallel()
	one := fsm.NewState[*order]("one")
	two := fsm.NewState[*order]("two")
	one.On("x", two, nil)
	machine := fsm.MustNew[*order](fsm.MustNewMemoryPersister(fsm.MustNewCatalog(one), orderAccessor))

	assert.Equal(t, "one", machine.Current(&order{}).Name())
	assert.Equal(t, "two", machine.Current(&order{State: "two"}).Name())
	assert.Equal(t, "one", machine.Current(&order{State: "bogus"}).Name())
}
