// keyed.go implements an in-process coordinator keyed by node id.
//
// Used with SQLite, where there is no advisory lock primitive. Each id maps to
// a one-slot channel; holding the slot is holding the lock. Entries are
// reference counted and removed once no goroutine holds or waits on them, so
// the map stays proportional to in-flight mutations, not to tree size.

package lock

import (
	"context"
	"sync"
)

type entry struct {
	slot chan struct{}
	refs int
}

// Keyed is an in-process Coordinator. The zero value is not usable; call NewKeyed.
type Keyed struct {
	mu    sync.Mutex
	locks map[int64]*entry
}

var _ Coordinator = (*Keyed)(nil)

// NewKeyed returns an empty in-process coordinator.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[int64]*entry)}
}

// Acquire locks ids in ascending order, blocking until each is free or ctx
// is done. On cancellation every lock taken so far is released.
func (k *Keyed) Acquire(ctx context.Context, _ Execer, ids []int64) (func(), error) {
	ids = Sorted(ids)
	held := make([]int64, 0, len(ids))
	for _, id := range ids {
		if err := k.lock(ctx, id); err != nil {
			k.unlockAll(held)
			return nil, err
		}
		held = append(held, id)
	}
	var once sync.Once
	return func() { once.Do(func() { k.unlockAll(held) }) }, nil
}

// Held reports how many ids are currently locked or awaited.
func (k *Keyed) Held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *Keyed) lock(ctx context.Context, id int64) error {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.drop(id, e)
		return ctx.Err()
	}
}

func (k *Keyed) unlockAll(ids []int64) {
	// reverse order, mirroring acquisition
	for i := len(ids) - 1; i >= 0; i-- {
		k.mu.Lock()
		e := k.locks[ids[i]]
		k.mu.Unlock()
		<-e.slot
		k.drop(ids[i], e)
	}
}

func (k *Keyed) drop(id int64, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, id)
	}
}
