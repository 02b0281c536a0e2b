package lock_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/prehisle/ndr/internal/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSorted(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 7}, lock.Sorted([]int64{7, 3, 1, 3, 7}))
	assert.Empty(t, lock.Sorted(nil))
}

func TestKeyed_SerialisesOverlappingSets(t *testing.T) {
	k := lock.NewKeyed()
	ctx := context.Background()

	release, err := k.Acquire(ctx, nil, []int64{5, 2})
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := k.Acquire(ctx, nil, []int64{2, 9})
		if err == nil {
			close(acquired)
			r()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while id 2 is held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire never completed")
	}
}

func TestKeyed_NoDeadlockWithReversedOrder(t *testing.T) {
	k := lock.NewKeyed()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := k.Acquire(ctx, nil, []int64{1, 2, 3})
			if err != nil {
				return
			}
			mu.Lock()
			counter++
			mu.Unlock()
			r()
		}()
		go func() {
			defer wg.Done()
			r, err := k.Acquire(ctx, nil, []int64{3, 2, 1})
			if err != nil {
				return
			}
			mu.Lock()
			counter++
			mu.Unlock()
			r()
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock: acquisitions did not finish")
	}
	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, k.Held())
}

func TestKeyed_CancelReleasesPartialSet(t *testing.T) {
	k := lock.NewKeyed()

	hold, err := k.Acquire(context.Background(), nil, []int64{2})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = k.Acquire(ctx, nil, []int64{1, 2})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// id 1 must be free again after the failed acquire
	r, err := k.Acquire(context.Background(), nil, []int64{1})
	require.NoError(t, err)
	r()

	hold()
	assert.Equal(t, 0, k.Held())
}

func TestKeyed_ReleaseIsIdempotent(t *testing.T) {
	k := lock.NewKeyed()
	r, err := k.Acquire(context.Background(), nil, []int64{4})
	require.NoError(t, err)
	r()
	r()
	assert.Equal(t, 0, k.Held())
}

type recordingExecer struct {
	args []any
}

func (e *recordingExecer) ExecContext(_ context.Context, _ string, args ...any) (sql.Result, error) {
	e.args = append(e.args, args...)
	return nil, nil
}

func TestAdvisory_LocksInAscendingOrder(t *testing.T) {
	ex := &recordingExecer{}
	release, err := lock.Advisory{}.Acquire(context.Background(), ex, []int64{9, 0, 4, 9})
	require.NoError(t, err)
	release()
	assert.Equal(t, []any{int64(0), int64(4), int64(9)}, ex.args)
}
