// documents.go implements the minimal document records that nodes bind to,
// and the document query used by subtree listings.
//
// Design: Only identity, type, title, metadata and soft-delete state live
// here. Metadata is a JSON object stored as text. Type and deletion filters
// run in SQL; metadata equality and the title substring match run in Go
// after the join, which keeps one code path for both backends.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const documentColumns = `id, title, type, metadata, created_by, updated_by, created_at, updated_at, deleted_at`

func scanDocument(row scanner) (*Document, error) {
	var d Document
	var typ sql.NullString
	var metadata string
	var deletedAt sql.NullInt64
	if err := row.Scan(&d.ID, &d.Title, &typ, &metadata, &d.CreatedBy, &d.UpdatedBy,
		&d.CreatedAt, &d.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	d.Type = typ.String
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of document %d: %w", d.ID, err)
		}
	}
	if deletedAt.Valid {
		d.DeletedAt = &deletedAt.Int64
	}
	return &d, nil
}

func (q *Querier) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Document loads a document by id.
func (q *Querier) Document(ctx context.Context, id int64, includeDeleted bool) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	d, err := scanDocument(q.queryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, fmt.Errorf("document %d: %w", id, ErrDocumentNotFound))
	}
	return d, nil
}

// InsertDocument persists d and sets d.ID.
func (q *Querier) InsertDocument(ctx context.Context, d *Document) error {
	md := d.Metadata
	if md == nil {
		md = map[string]any{}
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	now := nowUnix()
	d.CreatedAt, d.UpdatedAt = now, now
	err = q.queryRow(ctx, `INSERT INTO documents (title, type, metadata, created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		d.Title, nullString(d.Type), string(raw), d.CreatedBy, d.UpdatedBy, now, now).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// UpdateDocument writes the editable fields of d and stamps the update.
func (q *Querier) UpdateDocument(ctx context.Context, d *Document) error {
	md := d.Metadata
	if md == nil {
		md = map[string]any{}
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	d.UpdatedAt = nowUnix()
	_, err = q.exec(ctx, `UPDATE documents SET title = ?, type = ?, metadata = ?, updated_by = ?, updated_at = ? WHERE id = ?`,
		d.Title, nullString(d.Type), string(raw), d.UpdatedBy, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("update document %d: %w", d.ID, err)
	}
	return nil
}

// SetDocumentDeleted marks a document soft-deleted or active again.
func (q *Querier) SetDocumentDeleted(ctx context.Context, id int64, deleted bool, actor string) error {
	now := nowUnix()
	var deletedAt sql.NullInt64
	if deleted {
		deletedAt = sql.NullInt64{Int64: now, Valid: true}
	}
	_, err := q.exec(ctx, `UPDATE documents SET deleted_at = ?, updated_by = ?, updated_at = ? WHERE id = ?`,
		deletedAt, actor, now, id)
	if err != nil {
		return fmt.Errorf("set deleted on document %d: %w", id, err)
	}
	return nil
}

// DeleteDocument physically removes a document row. Bindings must be
// removed first.
func (q *Querier) DeleteDocument(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("purge document %d: %w", id, err)
	}
	return nil
}

// ListDocuments returns a page of documents ordered by id.
func (q *Querier) ListDocuments(ctx context.Context, f DocumentFilter) (*DocumentPage, error) {
	var conds []string
	var args []any
	if !f.IncludeDeleted {
		conds = append(conds, `deleted_at IS NULL`)
	}
	if f.Type != "" {
		conds = append(conds, `type = ?`)
		args = append(args, f.Type)
	}
	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY id`
	docs, err := q.queryDocuments(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return paginate(filterDocuments(docs, f), f.Page), nil
}

// DocumentsForNodes implements DocumentQuery: the distinct documents bound to
// any of the node ids, filtered and paginated. Soft-deleted bindings are
// included only with includeDeletedBindings.
func (q *Querier) DocumentsForNodes(ctx context.Context, nodeIDs []int64, includeDeletedBindings bool, f DocumentFilter) (*DocumentPage, error) {
	seen := make(map[int64]bool)
	var docs []Document
	for _, batch := range chunk(nodeIDs, 500) {
		ph, args := inPlaceholders(batch)
		query := `SELECT DISTINCT d.id, d.title, d.type, d.metadata, d.created_by, d.updated_by,
				d.created_at, d.updated_at, d.deleted_at
			FROM documents d JOIN node_documents b ON b.document_id = d.id
			WHERE b.node_id IN (` + ph + `)`
		if !includeDeletedBindings {
			query += ` AND b.deleted_at IS NULL`
		}
		if !f.IncludeDeleted {
			query += ` AND d.deleted_at IS NULL`
		}
		if f.Type != "" {
			query += ` AND d.type = ?`
			args = append(args, f.Type)
		}
		if f.RelationType != "" {
			query += ` AND b.relation_type = ?`
			args = append(args, string(f.RelationType))
		}
		batchDocs, err := q.queryDocuments(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("documents for nodes: %w", err)
		}
		for _, d := range batchDocs {
			if !seen[d.ID] {
				seen[d.ID] = true
				docs = append(docs, d)
			}
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return paginate(filterDocuments(docs, f), f.Page), nil
}

// filterDocuments applies the title substring and metadata equality filters.
func filterDocuments(docs []Document, f DocumentFilter) []Document {
	if f.Query == "" && len(f.Metadata) == 0 {
		return docs
	}
	needle := strings.ToLower(f.Query)
	out := docs[:0]
	for _, d := range docs {
		if needle != "" && !strings.Contains(strings.ToLower(d.Title), needle) {
			continue
		}
		if !metadataMatches(d.Metadata, f.Metadata) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func metadataMatches(md map[string]any, want map[string]string) bool {
	for k, v := range want {
		got, ok := md[k]
		if !ok {
			return false
		}
		switch g := got.(type) {
		case []any:
			found := false
			for _, item := range g {
				if fmt.Sprint(item) == v {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if fmt.Sprint(g) != v {
				return false
			}
		}
	}
	return true
}

// paginate slices docs to the requested page. A zero size returns everything.
func paginate(docs []Document, p Page) *DocumentPage {
	page := &DocumentPage{Total: int64(len(docs)), Page: p.Page, Size: p.Size}
	if p.Size <= 0 {
		page.Items = docs
		return page
	}
	start := p.Offset()
	if start >= len(docs) {
		page.Items = []Document{}
		return page
	}
	end := min(start+p.Size, len(docs))
	page.Items = docs[start:end]
	return page
}
