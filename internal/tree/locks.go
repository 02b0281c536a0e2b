// locks.go implements the lock-then-verify pattern shared by every mutation.
//
// A transaction reads what it is about to change, locks the ids it derived
// in one ascending call, then re-reads. If the re-read shows a parent or
// ancestor chain that was not part of the locked set, another transaction
// restructured the tree in between; locking the new ids now would break the
// ascending order, so the operation fails with a retryable conflict instead.

package tree

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/prehisle/ndr/internal/store"
)

// ErrConcurrent marks a conflict caused by a concurrent restructure. It is
// always wrapped together with store.ErrConflict.
var ErrConcurrent = errors.New("changed concurrently, retry")

func errChanged(id int64) error {
	return fmt.Errorf("%w: node %d %w", store.ErrConflict, id, ErrConcurrent)
}

// IsRetryable reports whether err is a conflict caused by a concurrent
// restructure, which the caller may retry unchanged. The HTTP API reports it
// as "retryable" in error bodies.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrent)
}

// lockNode loads a node and locks it together with its parent key and any
// extra ids, returning the node as seen under the lock.
func lockNode(ctx context.Context, tx *store.Tx, id int64, includeDeleted bool, extra ...int64) (*store.Node, error) {
	n, err := tx.Node(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}
	ids := append([]int64{n.ID, n.ParentKey()}, extra...)
	if err := tx.Lock(ctx, ids...); err != nil {
		return nil, err
	}
	fresh, err := tx.Node(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}
	if fresh.ParentKey() != n.ParentKey() {
		return nil, errChanged(id)
	}
	return fresh, nil
}

// lockParent resolves the active node at parentPath (nil for the root level),
// locks it, and verifies it is still active at that path.
func lockParent(ctx context.Context, tx *store.Tx, parentPath string) (*store.Node, error) {
	if parentPath == "" {
		return nil, tx.Lock(ctx, 0)
	}
	p, err := tx.NodeByPath(ctx, parentPath)
	if err != nil {
		return nil, parentNotFound(err, parentPath)
	}
	if err := tx.Lock(ctx, p.ID); err != nil {
		return nil, err
	}
	fresh, err := tx.Node(ctx, p.ID, false)
	if err != nil || fresh.Path != parentPath {
		return nil, parentNotFound(store.ErrNotFound, parentPath)
	}
	return fresh, nil
}

// chainIDs returns ids of nodes in order.
func chainIDs(nodes []store.Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// lockChains locks the given nodes and every ancestor of each, in one call,
// then verifies the ancestor chains did not change while waiting.
func lockChains(ctx context.Context, tx *store.Tx, nodeIDs ...int64) error {
	before := make(map[int64][]int64, len(nodeIDs))
	var ids []int64
	for _, id := range nodeIDs {
		anc, err := tx.Ancestors(ctx, id)
		if err != nil {
			return err
		}
		before[id] = chainIDs(anc)
		ids = append(ids, id)
		ids = append(ids, before[id]...)
	}
	if err := tx.Lock(ctx, ids...); err != nil {
		return err
	}
	for _, id := range nodeIDs {
		anc, err := tx.Ancestors(ctx, id)
		if err != nil {
			return err
		}
		if !slices.Equal(before[id], chainIDs(anc)) {
			return errChanged(id)
		}
	}
	return nil
}
