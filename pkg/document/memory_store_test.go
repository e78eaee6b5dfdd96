package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stateful/pkg/document"
	"github.com/dmitrymomot/stateful/pkg/document/storetest"
)

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()
	storetest.RunStoreContract(t, document.NewMemoryStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := document.NewMemoryStore()

	rec := &document.StateRecord{ID: "r1", State: "a", Persisted: true}
	require.NoError(t, store.Save(ctx, rec))
	rec.State = "mutated"

	got, err := store.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.State)
	assert.False(t, got.Persisted)

	got.State = "mutated"
	again, err := store.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.State)

	require.NoError(t, store.Delete(ctx, "r1"))
	assert.Zero(t, store.Len())
}

func TestMemoryStore_Canceled(t *testing.T) {
	t.Parallel()
	store := document.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FindByID(ctx, "r1")
	require.ErrorIs(t, err, context.Canceled)
	_, err = store.UpdateState(ctx, "r1", "a", "b", time.Now())
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, store.Save(ctx, &document.StateRecord{ID: "r1"}), context.Canceled)
}
