// stats.go implements aggregate queries for operational visibility.
//
// Separated to collect read-only, aggregate operations distinct from the
// tree mutations. These power `ndr db stats`, the HTTP health endpoint and
// purge planning without loading full rows.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats holds aggregate tree statistics.
type Stats struct {
	Nodes            int64  `json:"nodes"`
	DeletedNodes     int64  `json:"deleted_nodes"`
	Roots            int64  `json:"roots"`
	MaxDepth         int    `json:"max_depth"`
	Bindings         int64  `json:"bindings"`
	OutputBindings   int64  `json:"output_bindings"`
	Documents        int64  `json:"documents"`
	DeletedDocuments int64  `json:"deleted_documents"`
	Actors           int64  `json:"actors"`
	OldestDeletedAt  int64  `json:"oldest_deleted_at,omitempty"`
	Driver           string `json:"driver"`
	PathIndex        string `json:"path_index"`
}

// Stats returns aggregate database statistics.
func (q *Querier) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dest  any
	}{
		{`SELECT COUNT(*) FROM nodes WHERE deleted_at IS NULL`, &st.Nodes},
		{`SELECT COUNT(*) FROM nodes WHERE deleted_at IS NOT NULL`, &st.DeletedNodes},
		{`SELECT COUNT(*) FROM nodes WHERE deleted_at IS NULL AND parent_id IS NULL`, &st.Roots},
		{`SELECT COUNT(*) FROM node_documents WHERE deleted_at IS NULL`, &st.Bindings},
		{`SELECT COUNT(*) FROM node_documents WHERE deleted_at IS NULL AND relation_type = 'output'`, &st.OutputBindings},
		{`SELECT COUNT(*) FROM documents WHERE deleted_at IS NULL`, &st.Documents},
		{`SELECT COUNT(*) FROM documents WHERE deleted_at IS NOT NULL`, &st.DeletedDocuments},
		{`SELECT COUNT(DISTINCT created_by) FROM nodes`, &st.Actors},
		{`SELECT COALESCE(MAX(length(path) - length(replace(path, '.', '')) + 1), 0) FROM nodes WHERE deleted_at IS NULL`, &st.MaxDepth},
	}
	for _, c := range counts {
		if err := q.queryRow(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	// Oldest deletion timestamp, for purge age planning
	var oldestDeleted sql.NullInt64
	err := q.queryRow(ctx, `SELECT MIN(deleted_at) FROM nodes WHERE deleted_at IS NOT NULL`).Scan(&oldestDeleted)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if oldestDeleted.Valid {
		st.OldestDeletedAt = oldestDeleted.Int64
	}
	st.Driver = q.d.name
	st.PathIndex = q.d.pathIndex
	if st.PathIndex == "" {
		st.PathIndex = "unavailable"
	}
	return &st, nil
}
