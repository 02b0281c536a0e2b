// nodes.go implements row-level reads and writes for the nodes table.
//
// Separated from the path index and counter queries so that every statement
// touching a single node row lives in one place. Nothing here enforces tree
// invariants; the tree service validates and locks before calling in.
//
// Design: Soft-deleted rows stay in the table with deleted_at set. Reads take
// an includeDeleted flag instead of having parallel "deleted" variants.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const nodeColumns = `id, name, slug, type, parent_id, parent_path, path, position,
	subtree_doc_count, created_by, updated_by, created_at, updated_at, deleted_at`

// nodeColumnsOf qualifies nodeColumns with a table alias for joins.
func nodeColumnsOf(alias string) string {
	cols := strings.Split(nodeColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanNode(row scanner) (*Node, error) {
	var n Node
	var typ, parentPath sql.NullString
	var parentID, deletedAt sql.NullInt64
	err := row.Scan(&n.ID, &n.Name, &n.Slug, &typ, &parentID, &parentPath, &n.Path, &n.Position,
		&n.SubtreeDocCount, &n.CreatedBy, &n.UpdatedBy, &n.CreatedAt, &n.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	n.Type = typ.String
	if parentID.Valid {
		n.ParentID = &parentID.Int64
	}
	if parentPath.Valid {
		n.ParentPath = &parentPath.String
	}
	if deletedAt.Valid {
		n.DeletedAt = &deletedAt.Int64
	}
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]Node, error) {
	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

func (q *Querier) queryNodes(ctx context.Context, query string, args ...any) ([]Node, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

// Node loads a node by id. Soft-deleted nodes are only returned with includeDeleted.
func (q *Querier) Node(ctx context.Context, id int64, includeDeleted bool) (*Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	n, err := scanNode(q.queryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, fmt.Errorf("node %d: %w", id, ErrNodeNotFound))
	}
	return n, nil
}

// NodeByPath loads the active node at path.
func (q *Querier) NodeByPath(ctx context.Context, path string) (*Node, error) {
	n, err := scanNode(q.queryRow(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE path = ? AND deleted_at IS NULL`, path))
	if err != nil {
		return nil, notFound(err, fmt.Errorf("node %q: %w", path, ErrNodeNotFound))
	}
	return n, nil
}

// NodesByID loads the given nodes, deleted or not, keyed by id.
func (q *Querier) NodesByID(ctx context.Context, ids []int64) (map[int64]Node, error) {
	out := make(map[int64]Node, len(ids))
	for _, batch := range chunk(ids, 500) {
		ph, args := inPlaceholders(batch)
		nodes, err := q.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id IN (`+ph+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("load nodes: %w", err)
		}
		for _, n := range nodes {
			out[n.ID] = n
		}
	}
	return out, nil
}

// InsertNode persists n and sets n.ID. Unique index violations surface as
// ErrConflict.
func (q *Querier) InsertNode(ctx context.Context, n *Node) error {
	now := nowUnix()
	n.CreatedAt, n.UpdatedAt = now, now
	var parentID sql.NullInt64
	if n.ParentID != nil {
		parentID = sql.NullInt64{Int64: *n.ParentID, Valid: true}
	}
	var parentPath sql.NullString
	if n.ParentPath != nil {
		parentPath = sql.NullString{String: *n.ParentPath, Valid: true}
	}
	err := q.queryRow(ctx, `INSERT INTO nodes (name, slug, type, parent_id, parent_path, path, position,
			subtree_doc_count, created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?) RETURNING id`,
		n.Name, n.Slug, nullString(n.Type), parentID, parentPath, n.Path, n.Position,
		n.CreatedBy, n.UpdatedBy, now, now).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert node %q: %w", n.Path, uniqueConflict(err))
	}
	return nil
}

// UpdateNode writes the mutable columns of n (identity, linkage, position and audit).
func (q *Querier) UpdateNode(ctx context.Context, n *Node) error {
	n.UpdatedAt = nowUnix()
	var parentID sql.NullInt64
	if n.ParentID != nil {
		parentID = sql.NullInt64{Int64: *n.ParentID, Valid: true}
	}
	var parentPath sql.NullString
	if n.ParentPath != nil {
		parentPath = sql.NullString{String: *n.ParentPath, Valid: true}
	}
	_, err := q.exec(ctx, `UPDATE nodes SET name = ?, slug = ?, type = ?, parent_id = ?, parent_path = ?,
			path = ?, position = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		n.Name, n.Slug, nullString(n.Type), parentID, parentPath, n.Path, n.Position,
		n.UpdatedBy, n.UpdatedAt, n.ID)
	if err != nil {
		return fmt.Errorf("update node %d: %w", n.ID, uniqueConflict(err))
	}
	return nil
}

// SetPath rewrites a descendant's path and parent_path after an ancestor moved.
func (q *Querier) SetPath(ctx context.Context, id int64, path, parentPath, actor string) error {
	_, err := q.exec(ctx, `UPDATE nodes SET path = ?, parent_path = ?, updated_by = ?, updated_at = ? WHERE id = ?`,
		path, parentPath, actor, nowUnix(), id)
	if err != nil {
		return fmt.Errorf("rewrite path of node %d: %w", id, uniqueConflict(err))
	}
	return nil
}

// SetDeleted marks a node soft-deleted (deleted true) or active (deleted false).
// The returned timestamp is the new deleted_at, zero when restoring.
func (q *Querier) SetDeleted(ctx context.Context, id int64, deleted bool, actor string) (int64, error) {
	now := nowUnix()
	var deletedAt sql.NullInt64
	if deleted {
		deletedAt = sql.NullInt64{Int64: now, Valid: true}
	}
	_, err := q.exec(ctx, `UPDATE nodes SET deleted_at = ?, updated_by = ?, updated_at = ? WHERE id = ?`,
		deletedAt, actor, now, id)
	if err != nil {
		return 0, fmt.Errorf("set deleted on node %d: %w", id, uniqueConflict(err))
	}
	return deletedAt.Int64, nil
}

// DeleteNodes physically removes nodes and every binding that references them.
// Children are removed before parents so the parent_id reference never dangles.
func (q *Querier) DeleteNodes(ctx context.Context, ids []int64) (nodes, bindings int64, err error) {
	for _, batch := range chunk(ids, 500) {
		ph, args := inPlaceholders(batch)
		res, err := q.exec(ctx, `DELETE FROM node_documents WHERE node_id IN (`+ph+`)`, args...)
		if err != nil {
			return 0, 0, fmt.Errorf("purge bindings: %w", err)
		}
		n, _ := res.RowsAffected()
		bindings += n
	}
	for _, id := range ids {
		res, err := q.exec(ctx, `DELETE FROM nodes WHERE id = ?`, id)
		if err != nil {
			return 0, 0, fmt.Errorf("purge node %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		nodes += n
	}
	return nodes, bindings, nil
}

// ListNodes returns one page of nodes ordered newest first, plus the total.
func (q *Querier) ListNodes(ctx context.Context, page Page, includeDeleted bool) ([]Node, int64, error) {
	where := ``
	if !includeDeleted {
		where = ` WHERE deleted_at IS NULL`
	}
	var total int64
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM nodes`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count nodes: %w", err)
	}
	nodes, err := q.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes`+where+`
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list nodes: %w", err)
	}
	return nodes, total, nil
}

// ActiveNodes returns every active node ordered by path.
func (q *Querier) ActiveNodes(ctx context.Context) ([]Node, error) {
	nodes, err := q.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE deleted_at IS NULL ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list active nodes: %w", err)
	}
	return nodes, nil
}

// DeletedRoots returns soft-deleted nodes whose parent is absent or active,
// deleted before the cutoff (unix seconds; zero means no cutoff).
func (q *Querier) DeletedRoots(ctx context.Context, cutoff int64) ([]Node, error) {
	query := `SELECT ` + nodeColumnsOf("n") + ` FROM nodes n
		LEFT JOIN nodes p ON p.id = n.parent_id
		WHERE n.deleted_at IS NOT NULL AND (p.id IS NULL OR p.deleted_at IS NULL)`
	var args []any
	if cutoff > 0 {
		query += ` AND n.deleted_at < ?`
		args = append(args, cutoff)
	}
	query += ` ORDER BY n.path, n.id`
	nodes, err := q.queryNodes(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deleted roots: %w", err)
	}
	return nodes, nil
}

// uniqueConflict maps unique index violations from either driver to ErrConflict.
func uniqueConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && (liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")) {
		return fmt.Errorf("%w: %s", ErrConflict, liteErr.Error())
	}
	return err
}
