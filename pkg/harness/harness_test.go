package harness_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stateful/pkg/fsm"
	"github.com/dmitrymomot/stateful/pkg/harness"
	"github.com/dmitrymomot/stateful/pkg/logger"
)

type account struct {
	ID    string
	State string
}

type repo struct {
	accounts map[string]*account
	creates  int
	fail     error
	finds    []harness.Lookup
	created  []harness.Lookup
}

func (r *repo) Find(_ context.Context, lookup harness.Lookup) (*account, bool, error) {
	r.finds = append(r.finds, lookup)
	if r.fail != nil {
		return nil, false, r.fail
	}
	a, ok := r.accounts[lookup.ID]
	return a, ok, nil
}

func (r *repo) Create(_ context.Context, lookup harness.Lookup) (*account, error) {
	r.creates++
	r.created = append(r.created, lookup)
	a := &account{ID: "new"}
	r.accounts[a.ID] = a
	return a, nil
}

func newMachine(t *testing.T, args *[]any) *fsm.FSM[*account] {
	t.Helper()
	open := fsm.NewState[*account]("open")
	frozen := fsm.NewState[*account]("frozen")
	open.On("freeze", frozen, fsm.ActionFunc[*account](func(_ context.Context, _ *account, ev fsm.Event) error {
		*args = ev.Args
		return nil
	}))
	p := fsm.MustNewMemoryPersister(fsm.MustNewCatalog(open), fsm.StateAccessor[*account]{
		Get: func(a *account) string { return a.State },
		Set: func(a *account, s string) { a.State = s },
	})
	return fsm.MustNew[*account](p, fsm.WithLogger[*account](logger.Discard()))
}

func TestHarness_OnEvent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("found by id", func(t *testing.T) {
		t.Parallel()
		var got []any
		r := &repo{accounts: map[string]*account{"a1": {ID: "a1"}}}
		h := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r))

		state, err := h.OnEvent(ctx, "freeze", "a1", "fraud", 3)
		require.NoError(t, err)
		assert.Equal(t, "frozen", state.Name())
		assert.Equal(t, "frozen", r.accounts["a1"].State)
		assert.Equal(t, []any{"fraud", 3}, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		var got []any
		r := &repo{accounts: map[string]*account{}}
		h := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r), harness.WithFactory[*account](r))

		_, err := h.OnEvent(ctx, "freeze", "missing")
		require.ErrorIs(t, err, harness.ErrEntityNotFound)
		assert.Zero(t, r.creates, "an id never falls back to the factory")
	})

	t.Run("no id creates", func(t *testing.T) {
		t.Parallel()
		var got []any
		r := &repo{accounts: map[string]*account{}}
		h := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r), harness.WithFactory[*account](r))

		state, err := h.OnEvent(ctx, "freeze", "")
		require.NoError(t, err)
		assert.Equal(t, "frozen", state.Name())
		assert.Equal(t, 1, r.creates)
	})

	t.Run("lookup carries event and context", func(t *testing.T) {
		t.Parallel()
		var got []any
		r := &repo{accounts: map[string]*account{"a1": {ID: "a1"}}}
		h := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r), harness.WithFactory[*account](r))

		_, err := h.OnEvent(ctx, "freeze", "a1", "tenant-7", "fraud")
		require.NoError(t, err)
		require.Len(t, r.finds, 1)
		assert.Equal(t, harness.Lookup{ID: "a1", Event: "freeze", Args: []any{"tenant-7", "fraud"}}, r.finds[0])
		assert.Equal(t, "tenant-7", r.finds[0].Context())
		assert.Equal(t, []any{"tenant-7", "fraud"}, got, "the machine still receives every argument")

		_, err = h.OnEvent(ctx, "freeze", "", "tenant-9")
		require.NoError(t, err)
		require.Len(t, r.created, 1)
		assert.Equal(t, "freeze", r.created[0].Event)
		assert.Empty(t, r.created[0].ID)
		assert.Equal(t, "tenant-9", r.created[0].Context())

		assert.Nil(t, harness.Lookup{Event: "freeze"}.Context())
	})

	t.Run("factory picks entity by event", func(t *testing.T) {
		t.Parallel()
		var got []any
		r := &repo{accounts: map[string]*account{}}
		h := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r),
			harness.WithFactory[*account](harness.FactoryFunc[*account](func(_ context.Context, l harness.Lookup) (*account, error) {
				if l.Event != "freeze" {
					return nil, errors.New("unsupported event")
				}
				return &account{ID: "created-for-" + l.Event}, nil
			})),
		)

		state, err := h.OnEvent(ctx, "freeze", "")
		require.NoError(t, err)
		assert.Equal(t, "frozen", state.Name())

		_, err = h.OnEvent(ctx, "thaw", "")
		require.ErrorIs(t, err, harness.ErrEntityCreationFailed)
	})

	t.Run("factory returning nil", func(t *testing.T) {
		t.Parallel()
		var got []any
		r := &repo{accounts: map[string]*account{}}
		h := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r),
			harness.WithFactory[*account](harness.FactoryFunc[*account](func(context.Context, harness.Lookup) (*account, error) {
				return nil, nil
			})),
		)

		_, err := h.OnEvent(ctx, "freeze", "")
		require.ErrorIs(t, err, harness.ErrEntityCreationFailed)
	})

	t.Run("creation failure", func(t *testing.T) {
		t.Parallel()
		var got []any
		errFull := errors.New("disk full")
		r := &repo{accounts: map[string]*account{}}
		h := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r),
			harness.WithFactory[*account](harness.FactoryFunc[*account](func(context.Context, harness.Lookup) (*account, error) {
				return nil, errFull
			})),
		)

		_, err := h.OnEvent(ctx, "freeze", "")
		require.ErrorIs(t, err, harness.ErrEntityCreationFailed)
		require.ErrorIs(t, err, errFull)

		noFactory := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r))
		_, err = noFactory.OnEvent(ctx, "freeze", "")
		require.ErrorIs(t, err, harness.ErrEntityCreationFailed)
	})

	t.Run("finder fault", func(t *testing.T) {
		t.Parallel()
		var got []any
		errConn := errors.New("connection reset")
		r := &repo{accounts: map[string]*account{}, fail: errConn}
		h := harness.MustNew(newMachine(t, &got), harness.Finder[*account](r))

		_, err := h.OnEvent(ctx, "freeze", "a1")
		require.ErrorIs(t, err, errConn)
		assert.NotErrorIs(t, err, harness.ErrEntityNotFound)
	})
}

func TestHarness_OnEventArgs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	id := uuid.New()

	var got []any
	r := &repo{accounts: map[string]*account{
		"a1":        {ID: "a1"},
		"42":        {ID: "42"},
		id.String(): {ID: id.String()},
	}}
	h := harness.MustNew(newMachine(t, &got), harness.FinderFunc[*account](r.Find), harness.WithFactory[*account](r))

	_, err := h.OnEventArgs(ctx, "freeze", "a1", "reason")
	require.NoError(t, err)
	assert.Equal(t, "frozen", r.accounts["a1"].State)
	assert.Equal(t, []any{"reason"}, got)

	_, err = h.OnEventArgs(ctx, "freeze", 42)
	require.NoError(t, err)
	assert.Equal(t, "frozen", r.accounts["42"].State)

	_, err = h.OnEventArgs(ctx, "freeze", id)
	require.NoError(t, err)
	assert.Equal(t, "frozen", r.accounts[id.String()].State)

	live := &account{ID: "live"}
	_, err = h.OnEventArgs(ctx, "freeze", live, "x")
	require.NoError(t, err)
	assert.Equal(t, "frozen", live.State)
	assert.Equal(t, []any{"x"}, got)

	_, err = h.OnEventArgs(ctx, "freeze")
	require.NoError(t, err)
	assert.Equal(t, 1, r.creates)

	_, err = h.OnEventArgs(ctx, "freeze", nil, "y")
	require.NoError(t, err, "existing 'new' entity is not found by the empty id, so a second one is created")
	assert.Equal(t, 2, r.creates)

	var none *account
	require.NotPanics(t, func() {
		_, err = h.OnEventArgs(ctx, "freeze", none, "z")
	})
	require.NoError(t, err)
	assert.Equal(t, 3, r.creates, "a nil entity is treated as a missing id")
	assert.Equal(t, []any{"z"}, r.created[2].Args)
	assert.Equal(t, []any{"z"}, got)
}

func TestNew(t *testing.T) {
	t.Parallel()
	var got []any
	_, err := harness.New[*account](nil, harness.FinderFunc[*account](nil))
	require.ErrorIs(t, err, harness.ErrNilMachine)
	_, err = harness.New[*account](newMachine(t, &got), nil)
	require.ErrorIs(t, err, harness.ErrNilFinder)
	assert.Panics(t, func() { harness.MustNew[*account](nil, nil) })
}
