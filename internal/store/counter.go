// counter.go implements subtree_doc_count maintenance.
//
// A node's counter is the number of eligible bindings on nodes strictly
// beneath it, reached through an unbroken chain of active nodes. A binding
// is eligible when it is active, has relation type output, targets an active
// document and sits on an active node. The counter's own node state does not
// matter, so a soft-deleted node keeps counting its live subtree and restore
// can hand that total straight back to its ancestors.
//
// Design: Incremental updates walk the parent_id chain upward and stop after
// the first soft-deleted ancestor, which is exactly where a from-scratch
// recount would stop attributing. Recount loads the whole table once and
// walks in memory; counters are a cache and the recount is the arbiter.

package store

import (
	"context"
	"fmt"
	"sort"
)

const eligibleBinding = `b.deleted_at IS NULL AND b.relation_type = 'output' AND d.deleted_at IS NULL`

// DirectOutputCount returns the eligible bindings attached to the node itself,
// ignoring the node's own state.
func (q *Querier) DirectOutputCount(ctx context.Context, nodeID int64) (int64, error) {
	var n int64
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM node_documents b
		JOIN documents d ON d.id = b.document_id
		WHERE b.node_id = ? AND `+eligibleBinding, nodeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("direct count of node %d: %w", nodeID, err)
	}
	return n, nil
}

// LiveCount recomputes a node's counter from its live descendants.
func (q *Querier) LiveCount(ctx context.Context, nodeID int64) (int64, error) {
	var n int64
	err := q.queryRow(ctx, `WITH RECURSIVE sub(id) AS (
			SELECT id FROM nodes WHERE parent_id = ? AND deleted_at IS NULL
			UNION ALL
			SELECT n.id FROM nodes n JOIN sub ON n.parent_id = sub.id WHERE n.deleted_at IS NULL
		)
		SELECT COUNT(*) FROM node_documents b
		JOIN documents d ON d.id = b.document_id
		JOIN sub ON sub.id = b.node_id
		WHERE `+eligibleBinding, nodeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("live count of node %d: %w", nodeID, err)
	}
	return n, nil
}

// SetCount overwrites a node's counter.
func (q *Querier) SetCount(ctx context.Context, nodeID, count int64) error {
	if _, err := q.exec(ctx, `UPDATE nodes SET subtree_doc_count = ? WHERE id = ?`, count, nodeID); err != nil {
		return fmt.Errorf("set count of node %d: %w", nodeID, err)
	}
	return nil
}

// CounterWalk returns the ids an adjustment starting below the first element
// of ancestors reaches: every ancestor up to and including the first
// soft-deleted one. ancestors must be nearest first, as Ancestors returns.
func CounterWalk(ancestors []Node) []int64 {
	var ids []int64
	for _, a := range ancestors {
		ids = append(ids, a.ID)
		if !a.Active() {
			break
		}
	}
	return ids
}

// AdjustAbove adds delta to the counters the node's bindings reach.
func (q *Querier) AdjustAbove(ctx context.Context, nodeID, delta int64) error {
	if delta == 0 {
		return nil
	}
	ancestors, err := q.Ancestors(ctx, nodeID)
	if err != nil {
		return err
	}
	return q.AdjustIDs(ctx, CounterWalk(ancestors), delta)
}

// AdjustIDs adds delta to each listed counter.
func (q *Querier) AdjustIDs(ctx context.Context, ids []int64, delta int64) error {
	if delta == 0 || len(ids) == 0 {
		return nil
	}
	for _, batch := range chunk(ids, 500) {
		ph, args := inPlaceholders(batch)
		args = append([]any{delta}, args...)
		if _, err := q.exec(ctx, `UPDATE nodes SET subtree_doc_count = subtree_doc_count + ?
			WHERE id IN (`+ph+`)`, args...); err != nil {
			return fmt.Errorf("adjust counters: %w", err)
		}
	}
	return nil
}

// ComputeCounts recomputes every counter from scratch without writing.
// It returns the node count and the nodes whose stored value differs.
func (q *Querier) ComputeCounts(ctx context.Context) (int, []CounterChange, error) {
	type row struct {
		parent  int64
		active  bool
		stored  int64
		path    string
		counted int64
	}
	rows, err := q.query(ctx, `SELECT id, parent_id, deleted_at IS NULL, subtree_doc_count, path FROM nodes`)
	if err != nil {
		return 0, nil, fmt.Errorf("load nodes: %w", err)
	}
	nodes := make(map[int64]*row)
	for rows.Next() {
		var id int64
		var parent *int64
		r := &row{}
		if err := rows.Scan(&id, &parent, &r.active, &r.stored, &r.path); err != nil {
			rows.Close()
			return 0, nil, fmt.Errorf("scan node: %w", err)
		}
		if parent != nil {
			r.parent = *parent
		}
		nodes[id] = r
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	direct, err := q.query(ctx, `SELECT b.node_id, COUNT(*) FROM node_documents b
		JOIN documents d ON d.id = b.document_id
		WHERE `+eligibleBinding+` GROUP BY b.node_id`)
	if err != nil {
		return 0, nil, fmt.Errorf("load bindings: %w", err)
	}
	counts := make(map[int64]int64)
	for direct.Next() {
		var id, n int64
		if err := direct.Scan(&id, &n); err != nil {
			direct.Close()
			return 0, nil, fmt.Errorf("scan binding count: %w", err)
		}
		counts[id] = n
	}
	direct.Close()
	if err := direct.Err(); err != nil {
		return 0, nil, err
	}

	for id, n := range counts {
		m, ok := nodes[id]
		if !ok || !m.active {
			continue
		}
		// Bounded by the node count so a corrupted parent cycle cannot spin.
		cur := m
		for steps := 0; cur.parent != 0 && steps < len(nodes); steps++ {
			p, ok := nodes[cur.parent]
			if !ok {
				break
			}
			p.counted += n
			if !p.active {
				break
			}
			cur = p
		}
	}

	var changed []CounterChange
	for id, r := range nodes {
		if r.counted != r.stored {
			changed = append(changed, CounterChange{NodeID: id, Path: r.path, Stored: r.stored, Computed: r.counted})
		}
	}
	sort.Slice(changed, func(i, j int) bool {
		if changed[i].Path != changed[j].Path {
			return changed[i].Path < changed[j].Path
		}
		return changed[i].NodeID < changed[j].NodeID
	})
	return len(nodes), changed, nil
}

// Recount recomputes every counter and, when apply is set, writes the
// differing values.
func (q *Querier) Recount(ctx context.Context, apply bool) (*RecountResult, error) {
	total, changed, err := q.ComputeCounts(ctx)
	if err != nil {
		return nil, err
	}
	res := &RecountResult{Nodes: total, Changed: changed}
	if !apply {
		return res, nil
	}
	for _, c := range changed {
		if err := q.SetCount(ctx, c.NodeID, c.Computed); err != nil {
			return nil, err
		}
	}
	res.Applied = true
	return res, nil
}
