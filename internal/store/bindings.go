// bindings.go implements node-document binding rows.
//
// A binding is identified by (node_id, document_id). Unbinding soft-deletes
// the row and binding again revives it, so there is never more than one row
// per pair.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const bindingColumns = `node_id, document_id, relation_type, created_by, updated_by, created_at, updated_at, deleted_at`

func scanBinding(row scanner) (*Binding, error) {
	var b Binding
	var rel string
	var deletedAt sql.NullInt64
	if err := row.Scan(&b.NodeID, &b.DocumentID, &rel, &b.CreatedBy, &b.UpdatedBy,
		&b.CreatedAt, &b.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	b.RelationType = RelationType(rel)
	if deletedAt.Valid {
		b.DeletedAt = &deletedAt.Int64
	}
	return &b, nil
}

func (q *Querier) queryBindings(ctx context.Context, query string, args ...any) ([]Binding, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Binding loads the row for a node/document pair, soft-deleted or not.
func (q *Querier) Binding(ctx context.Context, nodeID, documentID int64) (*Binding, error) {
	b, err := scanBinding(q.queryRow(ctx, `SELECT `+bindingColumns+` FROM node_documents
		WHERE node_id = ? AND document_id = ?`, nodeID, documentID))
	if err != nil {
		return nil, notFound(err, fmt.Errorf("binding %d/%d: %w", nodeID, documentID, ErrBindingNotFound))
	}
	return b, nil
}

// InsertBinding persists a new active binding.
func (q *Querier) InsertBinding(ctx context.Context, b *Binding) error {
	now := nowUnix()
	b.CreatedAt, b.UpdatedAt, b.DeletedAt = now, now, nil
	_, err := q.exec(ctx, `INSERT INTO node_documents (node_id, document_id, relation_type,
			created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.NodeID, b.DocumentID, string(b.RelationType), b.CreatedBy, b.UpdatedBy, now, now)
	if err != nil {
		return fmt.Errorf("insert binding %d/%d: %w", b.NodeID, b.DocumentID, uniqueConflict(err))
	}
	return nil
}

// UpdateBinding writes relation type, deletion marker and audit fields.
func (q *Querier) UpdateBinding(ctx context.Context, b *Binding) error {
	b.UpdatedAt = nowUnix()
	var deletedAt sql.NullInt64
	if b.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: *b.DeletedAt, Valid: true}
	}
	_, err := q.exec(ctx, `UPDATE node_documents SET relation_type = ?, updated_by = ?, updated_at = ?, deleted_at = ?
		WHERE node_id = ? AND document_id = ?`,
		string(b.RelationType), b.UpdatedBy, b.UpdatedAt, deletedAt, b.NodeID, b.DocumentID)
	if err != nil {
		return fmt.Errorf("update binding %d/%d: %w", b.NodeID, b.DocumentID, err)
	}
	return nil
}

// NodeBindings lists a node's bindings ordered by document id.
func (q *Querier) NodeBindings(ctx context.Context, nodeID int64, includeDeleted bool) ([]Binding, error) {
	query := `SELECT ` + bindingColumns + ` FROM node_documents WHERE node_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY document_id`
	bs, err := q.queryBindings(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("bindings of node %d: %w", nodeID, err)
	}
	return bs, nil
}

// DocumentBindings lists the active bindings of a document whose nodes are
// active, ordered by node id.
func (q *Querier) DocumentBindings(ctx context.Context, documentID int64) ([]Binding, error) {
	bs, err := q.queryBindings(ctx, `SELECT b.node_id, b.document_id, b.relation_type, b.created_by, b.updated_by,
			b.created_at, b.updated_at, b.deleted_at
		FROM node_documents b JOIN nodes n ON n.id = b.node_id
		WHERE b.document_id = ? AND b.deleted_at IS NULL AND n.deleted_at IS NULL
		ORDER BY b.node_id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("bindings of document %d: %w", documentID, err)
	}
	return bs, nil
}

// CountedNodes returns the active nodes holding an active output binding to
// the document. These are the nodes whose ancestors count it while the
// document is active.
func (q *Querier) CountedNodes(ctx context.Context, documentID int64) ([]int64, error) {
	rows, err := q.query(ctx, `SELECT b.node_id FROM node_documents b JOIN nodes n ON n.id = b.node_id
		WHERE b.document_id = ? AND b.deleted_at IS NULL AND b.relation_type = 'output' AND n.deleted_at IS NULL
		ORDER BY b.node_id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("counted nodes of document %d: %w", documentID, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteDocumentBindings physically removes every binding of a document.
func (q *Querier) DeleteDocumentBindings(ctx context.Context, documentID int64) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM node_documents WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, fmt.Errorf("purge bindings of document %d: %w", documentID, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
