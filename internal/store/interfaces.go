// interfaces.go defines the storage abstractions the tree service consumes.
//
// Separated from the SQL implementation so that consumers depend only on
// the capabilities they need. Querier implements every read/write interface
// over either a connection or a transaction; SQLStore adds transactions and
// lifecycle.

package store

import (
	"context"
	"database/sql"
)

// PathIndex stores and queries materialized paths.
type PathIndex interface {
	NodeByPath(ctx context.Context, path string) (*Node, error)
	HasActivePath(ctx context.Context, path string, excludeID int64) (bool, error)
	HasActiveName(ctx context.Context, parentPath *string, name string, excludeID int64) (bool, error)
	Descendants(ctx context.Context, root *Node) ([]Node, error)
	Subtree(ctx context.Context, root *Node, includeDeleted bool) ([]Node, error)
	Children(ctx context.Context, root *Node, maxDepth int) ([]Node, error)
	AncestorIDs(ctx context.Context, path string) ([]int64, error)
	PathIndexAvailable() error
}

// PositionSequencer maintains dense sibling order.
type PositionSequencer interface {
	NextPosition(ctx context.Context, parentID int64) (int, error)
	Siblings(ctx context.Context, parentID int64) ([]Node, error)
	SetPosition(ctx context.Context, id int64, position int, actor string) error
	NormalizePositions(ctx context.Context, parentID int64) error
}

// SubtreeCounter maintains cached subtree_doc_count values.
type SubtreeCounter interface {
	DirectOutputCount(ctx context.Context, nodeID int64) (int64, error)
	LiveCount(ctx context.Context, nodeID int64) (int64, error)
	SetCount(ctx context.Context, nodeID, count int64) error
	AdjustAbove(ctx context.Context, nodeID, delta int64) error
	AdjustIDs(ctx context.Context, ids []int64, delta int64) error
	Recount(ctx context.Context, apply bool) (*RecountResult, error)
}

// DocumentQuery lists the documents bound to a set of nodes. The tree
// computes the node set; the query owns filtering and pagination.
type DocumentQuery interface {
	DocumentsForNodes(ctx context.Context, nodeIDs []int64, includeDeletedBindings bool, f DocumentFilter) (*DocumentPage, error)
}

// Maintainer defines operations for database maintenance and lifecycle.
type Maintainer interface {
	// Close releases the database connection.
	Close() error

	// DB exposes the underlying connection for extensions needing custom tables.
	DB() *sql.DB

	// Checkpoint flushes WAL to the main database file.
	Checkpoint(ctx context.Context) error
}

var (
	_ PathIndex         = (*Querier)(nil)
	_ PositionSequencer = (*Querier)(nil)
	_ SubtreeCounter    = (*Querier)(nil)
	_ DocumentQuery     = (*Querier)(nil)
	_ Maintainer        = (*SQLStore)(nil)
)
