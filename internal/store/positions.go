// positions.go implements the sibling position sequence.
//
// Design: Positions are dense 0..n-1 among the active children of one parent
// (or among active roots). Appends take MAX+1; anything that can leave a gap
// calls NormalizePositions, which rewrites only rows whose position moved.

package store

import (
	"context"
	"fmt"
)

// parentFilter matches children of parentID; 0 selects roots.
func parentFilter(parentID int64) (string, []any) {
	if parentID == 0 {
		return `parent_id IS NULL`, nil
	}
	return `parent_id = ?`, []any{parentID}
}

// NextPosition returns the append position among the active children of
// parentID (0 for roots).
func (q *Querier) NextPosition(ctx context.Context, parentID int64) (int, error) {
	where, args := parentFilter(parentID)
	var next int
	err := q.queryRow(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM nodes
		WHERE `+where+` AND deleted_at IS NULL`, args...).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}
	return next, nil
}

// Siblings returns the active children of parentID (0 for roots) ordered by
// (position, id).
func (q *Querier) Siblings(ctx context.Context, parentID int64) ([]Node, error) {
	where, args := parentFilter(parentID)
	nodes, err := q.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes
		WHERE `+where+` AND deleted_at IS NULL ORDER BY position, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("siblings of %d: %w", parentID, err)
	}
	return nodes, nil
}

// SetPosition writes a single node's position.
func (q *Querier) SetPosition(ctx context.Context, id int64, position int, actor string) error {
	_, err := q.exec(ctx, `UPDATE nodes SET position = ?, updated_by = ?, updated_at = ? WHERE id = ?`,
		position, actor, nowUnix(), id)
	if err != nil {
		return fmt.Errorf("set position of node %d: %w", id, err)
	}
	return nil
}

// NormalizePositions rewrites the active children of parentID to a dense
// 0..n-1 run in their current (position, id) order. Audit fields are left
// alone: compaction is a side effect, not an edit of the sibling.
func (q *Querier) NormalizePositions(ctx context.Context, parentID int64) error {
	siblings, err := q.Siblings(ctx, parentID)
	if err != nil {
		return err
	}
	for i, n := range siblings {
		if n.Position == i {
			continue
		}
		if _, err := q.exec(ctx, `UPDATE nodes SET position = ? WHERE id = ?`, i, n.ID); err != nil {
			return fmt.Errorf("normalize position of node %d: %w", n.ID, err)
		}
	}
	return nil
}
