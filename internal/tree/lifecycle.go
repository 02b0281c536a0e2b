// lifecycle.go implements the Active -> SoftDeleted -> purged lifecycle.
//
// Design: A soft-deleted node hides its whole branch from reads but keeps
// every row, so restore is exact. Its own counter keeps tracking the live
// subtree beneath it; delete hands direct+count back from the ancestor chain
// and restore adds it again. Purge is only legal from SoftDeleted and removes
// the node, every descendant (deleted or not) and all their bindings.

package tree

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/nodepath"
	"github.com/prehisle/ndr/internal/store"
)

// DeleteNode soft-deletes an active node.
func (s *Service) DeleteNode(ctx context.Context, actorID string, id int64) (*store.Node, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	var n *store.Node
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		cur, err := lockNode(ctx, tx, id, false)
		if err != nil {
			return err
		}
		direct, err := tx.DirectOutputCount(ctx, cur.ID)
		if err != nil {
			return err
		}
		if err := tx.AdjustAbove(ctx, cur.ID, -(direct + cur.SubtreeDocCount)); err != nil {
			return err
		}
		if _, err := tx.SetDeleted(ctx, cur.ID, true, who); err != nil {
			return err
		}
		if err := tx.NormalizePositions(ctx, cur.ParentKey()); err != nil {
			return err
		}
		n, err = tx.Node(ctx, cur.ID, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete node %d: %w", id, err)
	}

	s.fireEvent(extension.NodeEvent{Type: extension.EventNodeDelete, NodeID: n.ID, Path: n.Path, Actor: who})
	return n, nil
}

// RestoreNode brings a soft-deleted node back at its original path, appended
// after its active siblings. An active node is returned unchanged.
func (s *Service) RestoreNode(ctx context.Context, actorID string, id int64) (*store.Node, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	var n *store.Node
	restored := false
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		cur, err := lockNode(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if cur.Active() {
			n = cur
			return nil
		}
		if taken, err := tx.HasActivePath(ctx, cur.Path, cur.ID); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("%w: %q was taken while the node was deleted", store.ErrPathConflict, cur.Path)
		}
		if taken, err := tx.HasActiveName(ctx, cur.ParentPath, cur.Name, cur.ID); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("%w: %q was taken while the node was deleted", store.ErrNameConflict, cur.Name)
		}

		pos, err := tx.NextPosition(ctx, cur.ParentKey())
		if err != nil {
			return err
		}
		if _, err := tx.SetDeleted(ctx, cur.ID, false, who); err != nil {
			return err
		}
		if err := tx.SetPosition(ctx, cur.ID, pos, who); err != nil {
			return err
		}

		count, err := tx.LiveCount(ctx, cur.ID)
		if err != nil {
			return err
		}
		if err := tx.SetCount(ctx, cur.ID, count); err != nil {
			return err
		}
		direct, err := tx.DirectOutputCount(ctx, cur.ID)
		if err != nil {
			return err
		}
		if err := tx.AdjustAbove(ctx, cur.ID, direct+count); err != nil {
			return err
		}
		if err := tx.NormalizePositions(ctx, cur.ParentKey()); err != nil {
			return err
		}
		restored = true
		n, err = tx.Node(ctx, cur.ID, false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("restore node %d: %w", id, err)
	}

	if restored {
		s.fireEvent(extension.NodeEvent{Type: extension.EventNodeRestore, NodeID: n.ID, Path: n.Path, Actor: who})
	}
	return n, nil
}

// PurgeNode permanently removes a soft-deleted node and its whole subtree.
func (s *Service) PurgeNode(ctx context.Context, actorID string, id int64) (*store.PurgeResult, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	var res *store.PurgeResult
	var path string
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		cur, err := lockNode(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if cur.Active() {
			return fmt.Errorf("%w: node %d must be deleted before it is purged", store.ErrNotDeleted, id)
		}
		path = cur.Path
		sub, err := tx.Subtree(ctx, cur, true)
		if err != nil {
			return err
		}
		// Deepest first, so no row outlives its parent.
		sort.SliceStable(sub, func(i, j int) bool {
			return nodepath.Depth(sub[i].Path) > nodepath.Depth(sub[j].Path)
		})
		ids := chainIDs(sub)
		nodes, bindings, err := tx.DeleteNodes(ctx, ids)
		if err != nil {
			return err
		}
		if err := tx.NormalizePositions(ctx, cur.ParentKey()); err != nil {
			return err
		}
		res = &store.PurgeResult{Nodes: nodes, Bindings: bindings, IDs: ids}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purge node %d: %w", id, err)
	}

	s.fireEvent(extension.NodePurgeEvent{NodeID: id, Path: path, Nodes: res.Nodes, Bindings: res.Bindings, Actor: who})
	return res, nil
}

// DeletedRoots lists the soft-deleted nodes that head a deleted branch,
// optionally only those deleted more than olderThan ago.
func (s *Service) DeletedRoots(ctx context.Context, olderThan *time.Duration) ([]store.Node, error) {
	var cutoff int64
	if olderThan != nil {
		cutoff = time.Now().Add(-*olderThan).Unix()
	}
	return s.store.Reader().DeletedRoots(ctx, cutoff)
}
