// Package storetest provides a reusable test suite for document.Store
// implementations.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stateful/pkg/document"
)

// RunStoreContract verifies that store adheres to the document.Store contract.
// Record ids are random, so the suite can run against a shared database.
func RunStoreContract(t *testing.T, store document.Store) {
	t.Helper()
	ctx := context.Background()

	// Databases keep at most microsecond precision.
	at := time.Now().UTC().Truncate(time.Millisecond)

	newRecord := func(state string) *document.StateRecord {
		return &document.StateRecord{
			ID:                uuid.NewString(),
			State:             state,
			UpdatedAt:         at,
			ManagedID:         "entity-" + uuid.NewString(),
			ManagedCollection: "orders",
			ManagedField:      "state",
		}
	}

	t.Run("Save and FindByID", func(t *testing.T) {
		rec := newRecord("draft")
		require.NoError(t, store.Save(ctx, rec))

		got, err := store.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, "draft", got.State)
		assert.Empty(t, got.PrevState)
		assert.Equal(t, rec.ManagedID, got.ManagedID)
		assert.Equal(t, "orders", got.ManagedCollection)
		assert.Equal(t, "state", got.ManagedField)
		assert.WithinDuration(t, at, got.UpdatedAt, time.Millisecond)
	})

	t.Run("FindByID Non-Existent", func(t *testing.T) {
		_, err := store.FindByID(ctx, "missing-"+uuid.NewString())
		assert.ErrorIs(t, err, document.ErrRecordNotFound)
	})

	t.Run("Save replaces", func(t *testing.T) {
		rec := newRecord("draft")
		require.NoError(t, store.Save(ctx, rec))

		rec.State = "sent"
		rec.ManagedID = "other"
		require.NoError(t, store.Save(ctx, rec))

		got, err := store.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "sent", got.State)
		assert.Equal(t, "other", got.ManagedID)
	})

	t.Run("UpdateState", func(t *testing.T) {
		rec := newRecord("draft")
		require.NoError(t, store.Save(ctx, rec))

		later := at.Add(time.Minute)
		updated, err := store.UpdateState(ctx, rec.ID, "draft", "sent", later)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, updated.ID)
		assert.Equal(t, "sent", updated.State)
		assert.Equal(t, "draft", updated.PrevState)
		assert.Equal(t, rec.ManagedID, updated.ManagedID)
		assert.WithinDuration(t, later, updated.UpdatedAt, time.Millisecond)

		got, err := store.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "sent", got.State)
		assert.Equal(t, "draft", got.PrevState)
	})

	t.Run("UpdateState Stale", func(t *testing.T) {
		rec := newRecord("draft")
		require.NoError(t, store.Save(ctx, rec))

		_, err := store.UpdateState(ctx, rec.ID, "sent", "paid", at)
		assert.ErrorIs(t, err, document.ErrRecordNotFound)

		got, err := store.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "draft", got.State, "a missed update must not write")
	})

	t.Run("UpdateState Non-Existent", func(t *testing.T) {
		_, err := store.UpdateState(ctx, "missing-"+uuid.NewString(), "draft", "sent", at)
		assert.ErrorIs(t, err, document.ErrRecordNotFound)
	})

	t.Run("UpdateState Single Winner", func(t *testing.T) {
		rec := newRecord("draft")
		require.NoError(t, store.Save(ctx, rec))

		const writers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins []string
		)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				next := fmt.Sprintf("sent-%d", i)
				_, err := store.UpdateState(ctx, rec.ID, "draft", next, at)
				if err == nil {
					mu.Lock()
					wins = append(wins, next)
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, document.ErrRecordNotFound)
			}()
		}
		wg.Wait()

		require.Len(t, wins, 1)
		got, err := store.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, wins[0], got.State)
	})
}
