// order.go implements sibling reordering and the breadth-first child walk.

package tree

import (
	"context"
	"fmt"
	"sort"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/store"
)

// ReorderChildren moves orderedIDs to the front of parentID's active
// children in the given order. Siblings not mentioned keep their relative
// order after them. Only rows whose position changes are written.
func (s *Service) ReorderChildren(ctx context.Context, actorID string, parentID int64, orderedIDs []int64) ([]store.Node, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: node %d appears more than once", store.ErrInvalidOperation, id)
		}
		seen[id] = true
	}

	var final []store.Node
	parentPath := ""
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		if parentID != 0 {
			parent, err := tx.Node(ctx, parentID, false)
			if err != nil {
				return parentNotFound(err, fmt.Sprint(parentID))
			}
			parentPath = parent.Path
		}
		siblings, err := tx.Siblings(ctx, parentID)
		if err != nil {
			return err
		}
		// Every change to a sibling set locks the parent key, so the set
		// read again under these locks is stable.
		if err := tx.Lock(ctx, append(chainIDs(siblings), parentID)...); err != nil {
			return err
		}
		if parentID != 0 {
			if _, err := tx.Node(ctx, parentID, false); err != nil {
				return parentNotFound(err, parentPath)
			}
		}
		if siblings, err = tx.Siblings(ctx, parentID); err != nil {
			return err
		}
		if len(siblings) == 0 && len(orderedIDs) > 0 {
			return fmt.Errorf("%w: parent %d has no active children", store.ErrNodeNotFound, parentID)
		}

		byID := make(map[int64]store.Node, len(siblings))
		for _, n := range siblings {
			byID[n.ID] = n
		}
		final = make([]store.Node, 0, len(siblings))
		for _, id := range orderedIDs {
			n, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: node %d is not an active child of parent %d", store.ErrNodeNotFound, id, parentID)
			}
			final = append(final, n)
		}
		for _, n := range siblings {
			if !seen[n.ID] {
				final = append(final, n)
			}
		}

		for i := range final {
			if final[i].Position == i {
				continue
			}
			if err := tx.SetPosition(ctx, final[i].ID, i, who); err != nil {
				return err
			}
			final[i].Position = i
			final[i].UpdatedBy = who
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reorder children of %d: %w", parentID, err)
	}

	s.fireEvent(extension.ReorderEvent{ParentID: parentID, ParentPath: parentPath, Order: chainIDs(final), Actor: who})
	return final, nil
}

// ListChildren walks the active subtree below id breadth-first. Each level
// lists siblings by (position, id). A type filter hides non-matching nodes
// but the walk still descends through them.
func (s *Service) ListChildren(ctx context.Context, id int64, opts store.ChildrenOptions) ([]store.Node, error) {
	depth := max(opts.Depth, 1)
	r := s.store.Reader()
	root, err := r.Node(ctx, id, false)
	if err != nil {
		return nil, err
	}
	nodes, err := r.Children(ctx, root, depth)
	if err != nil {
		return nil, err
	}

	byParent := make(map[int64][]store.Node)
	for _, n := range nodes {
		byParent[n.ParentKey()] = append(byParent[n.ParentKey()], n)
	}
	for _, group := range byParent {
		sort.Slice(group, func(i, j int) bool {
			if group[i].Position != group[j].Position {
				return group[i].Position < group[j].Position
			}
			return group[i].ID < group[j].ID
		})
	}

	out := []store.Node{}
	queue := []int64{root.ID}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, n := range byParent[parent] {
			if opts.Type == "" || n.Type == opts.Type {
				out = append(out, n)
			}
			queue = append(queue, n.ID)
		}
	}
	return out, nil
}
