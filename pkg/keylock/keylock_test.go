package keylock_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stateful/pkg/keylock"
)

func TestLocker(t *testing.T) {
	t.Parallel()

	t.Run("serializes the same key", func(t *testing.T) {
		t.Parallel()
		var locks keylock.Locker[string]

		counter := 0
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock("order-1")
				defer unlock()
				v := counter
				time.Sleep(100 * time.Microsecond)
				counter = v + 1
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, counter)
		assert.Equal(t, 0, locks.Len())
	})

	t.Run("does not serialize different keys", func(t *testing.T) {
		t.Parallel()
		var locks keylock.Locker[string]

		unlockA := locks.Lock("a")
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlockB := locks.Lock("b")
			unlockB()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on key b blocked behind key a")
		}
	})

	t.Run("unlock is idempotent", func(t *testing.T) {
		t.Parallel()
		var locks keylock.Locker[int]

		unlock := locks.Lock(7)
		assert.Equal(t, 1, locks.Len())
		unlock()
		unlock()
		assert.Equal(t, 0, locks.Len())

		unlock = locks.Lock(7)
		unlock()
	})

	t.Run("pointer keys", func(t *testing.T) {
		t.Parallel()
		var locks keylock.Locker[any]
		type entity struct{ n int }
		a, b := &entity{}, &entity{}

		unlockA := locks.Lock(a)
		unlockB := locks.Lock(b)
		assert.Equal(t, 2, locks.Len())
		unlockA()
		unlockB()
		assert.Equal(t, 0, locks.Len())
	})
}

func TestLocker_Do(t *testing.T) {
	t.Parallel()
	var locks keylock.Locker[string]

	errBoom := errors.New("boom")
	err := locks.Do("k", func() error { return errBoom })
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, locks.Len())

	require.NoError(t, locks.Do("k", func() error { return nil }))
}
