// pathindex.go implements the materialized path queries: exact lookup,
// uniqueness checks, descendant and depth-bounded child queries, and
// ancestor resolution.
//
// Separated from nodes.go because these are the only queries whose SQL
// differs between path index modes (see dialect.go).
//
// Design: Prefix matching finds candidates; connectivity decides membership.
// A soft-deleted node's children keep their paths, and a new node may later
// take the deleted node's path, so two disjoint subtrees can share a prefix.
// Every prefix result is filtered to rows linked to the root by parent_id
// within the matched set.

package store

import (
	"context"
	"fmt"

	"github.com/prehisle/ndr/internal/nodepath"
)

// HasActivePath reports whether an active node other than excludeID has path.
// Pass excludeID 0 to exclude nothing.
func (q *Querier) HasActivePath(ctx context.Context, path string, excludeID int64) (bool, error) {
	var exists bool
	err := q.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM nodes
		WHERE path = ? AND deleted_at IS NULL AND id <> ?)`, path, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check path %q: %w", path, err)
	}
	return exists, nil
}

// HasActiveName reports whether an active sibling under parentPath (nil for
// roots) other than excludeID already uses name.
func (q *Querier) HasActiveName(ctx context.Context, parentPath *string, name string, excludeID int64) (bool, error) {
	pp := ""
	if parentPath != nil {
		pp = *parentPath
	}
	var exists bool
	err := q.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM nodes
		WHERE COALESCE(parent_path, '') = ? AND name = ? AND deleted_at IS NULL AND id <> ?)`,
		pp, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check name %q: %w", name, err)
	}
	return exists, nil
}

// Subtree returns root and everything connected beneath it, ordered by path.
// With includeDeleted false, a soft-deleted node hides its whole branch.
func (q *Querier) Subtree(ctx context.Context, root *Node, includeDeleted bool) ([]Node, error) {
	clause, args, err := q.d.subtreeClause(root.Path)
	if err != nil {
		return nil, err
	}
	candidates, err := q.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE `+clause+` ORDER BY path, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("subtree of %q: %w", root.Path, err)
	}
	return connected(root, candidates, includeDeleted), nil
}

// Descendants returns every node connected beneath root, soft-deleted ones
// included, excluding root itself.
func (q *Querier) Descendants(ctx context.Context, root *Node) ([]Node, error) {
	sub, err := q.Subtree(ctx, root, true)
	if err != nil {
		return nil, err
	}
	out := sub[:0]
	for _, n := range sub {
		if n.ID != root.ID {
			out = append(out, n)
		}
	}
	return out, nil
}

// Children returns active nodes connected beneath root whose depth below it
// is between 1 and maxDepth, in path order.
func (q *Querier) Children(ctx context.Context, root *Node, maxDepth int) ([]Node, error) {
	clause, args, err := q.d.subtreeClause(root.Path)
	if err != nil {
		return nil, err
	}
	depth, dargs := q.d.depthClause(nodepath.Depth(root.Path) + maxDepth)
	args = append(args, dargs...)
	candidates, err := q.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes
		WHERE `+clause+` AND `+depth+` AND deleted_at IS NULL
		ORDER BY path, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("children of %q: %w", root.Path, err)
	}
	sub := connected(root, candidates, false)
	out := sub[:0]
	for _, n := range sub {
		if n.ID != root.ID {
			out = append(out, n)
		}
	}
	return out, nil
}

// connected keeps the candidates reachable from root through parent_id links
// within the candidate set. Root itself is kept if present.
func connected(root *Node, candidates []Node, includeDeleted bool) []Node {
	reach := map[int64]bool{root.ID: true}
	// Candidates arrive in path order, so a parent precedes its children.
	out := candidates[:0]
	for _, n := range candidates {
		if !includeDeleted && !n.Active() {
			continue
		}
		if n.ID == root.ID {
			out = append(out, n)
			continue
		}
		if n.ParentID != nil && reach[*n.ParentID] {
			reach[n.ID] = true
			out = append(out, n)
		}
	}
	return out
}

// AncestorIDs resolves the active nodes at every proper prefix of path,
// root first. Prefixes with no active node are skipped.
func (q *Querier) AncestorIDs(ctx context.Context, path string) ([]int64, error) {
	prefixes := nodepath.Ancestors(path)
	if len(prefixes) == 0 {
		return nil, nil
	}
	args := make([]any, len(prefixes))
	ph := make([]byte, 0, len(prefixes)*3)
	for i, p := range prefixes {
		if i > 0 {
			ph = append(ph, ", "...)
		}
		ph = append(ph, '?')
		args[i] = p
	}
	rows, err := q.query(ctx, `SELECT id, path FROM nodes WHERE deleted_at IS NULL AND path IN (`+string(ph)+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("ancestors of %q: %w", path, err)
	}
	defer rows.Close()
	byPath := make(map[string]int64, len(prefixes))
	for rows.Next() {
		var id int64
		var p string
		if err := rows.Scan(&id, &p); err != nil {
			return nil, fmt.Errorf("scan ancestor: %w", err)
		}
		byPath[p] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var ids []int64
	for _, p := range prefixes {
		if id, ok := byPath[p]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Ancestors follows parent_id links from the node with the given id and
// returns its ancestors nearest first, soft-deleted ones included.
func (q *Querier) Ancestors(ctx context.Context, id int64) ([]Node, error) {
	nodes, err := q.queryNodes(ctx, `WITH RECURSIVE up(id, depth) AS (
			SELECT parent_id, 1 FROM nodes WHERE id = ? AND parent_id IS NOT NULL
			UNION ALL
			SELECT n.parent_id, up.depth + 1 FROM up JOIN nodes n ON n.id = up.id
			WHERE n.parent_id IS NOT NULL
		)
		SELECT `+nodeColumnsOf("n")+` FROM up JOIN nodes n ON n.id = up.id ORDER BY up.depth`, id)
	if err != nil {
		return nil, fmt.Errorf("ancestors of node %d: %w", id, err)
	}
	return nodes, nil
}
