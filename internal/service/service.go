// Package service defines the shared interface for node tree operations.
// Commands, extensions and the MCP and HTTP transports depend on this
// interface rather than the concrete tree service, enabling testing with
// mocks and future backend changes.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/prehisle/ndr/internal/store"
)

// Service defines all tree operations.
//
// Mutating operations take the acting identity as their first argument after
// the context and fail with store.ErrMissingActor when it is blank. Errors
// wrap one of the store kind sentinels; use store.KindOf to classify them.
//
// Extensions should use tree.New() to obtain a Service implementation.
// Always call Close() when done (use defer).
//
// Example:
//
//	svc, err := tree.New("")
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//	n, err := svc.CreateNode(ctx, "alice", store.CreateNodeOptions{Name: "Docs", Slug: "docs"})
type Service interface {
	// Close releases database resources. Always defer this after New().
	Close() error

	// CreateNode creates a node under opts.ParentPath (empty for a root),
	// appended after its active siblings.
	CreateNode(ctx context.Context, actor string, opts store.CreateNodeOptions) (*store.Node, error)

	// GetNode returns a node by id. Soft-deleted nodes are store.ErrNotFound
	// unless includeDeleted is set.
	GetNode(ctx context.Context, id int64, includeDeleted bool) (*store.Node, error)

	// GetByPath returns the active node at a dotted path.
	GetByPath(ctx context.Context, path string) (*store.Node, error)

	// Ancestors returns the active nodes on the path to id, root first.
	Ancestors(ctx context.Context, id int64) ([]store.Node, error)

	// UpdateNode renames and/or moves a node. Descendant paths are rewritten
	// and subtree counters migrate between the old and new ancestor chains.
	UpdateNode(ctx context.Context, actor string, id int64, opts store.UpdateNodeOptions) (*store.Node, error)

	// DeleteNode soft-deletes a node. Its subtree becomes unreachable until
	// the node is restored.
	DeleteNode(ctx context.Context, actor string, id int64) (*store.Node, error)

	// RestoreNode un-deletes a node at its original path. Returns
	// store.ErrConflict if the path or name has since been taken. Restoring
	// an active node returns it unchanged.
	RestoreNode(ctx context.Context, actor string, id int64) (*store.Node, error)

	// PurgeNode permanently removes a soft-deleted node, its whole subtree
	// and every binding on them. Returns store.ErrNotDeleted for an active node.
	PurgeNode(ctx context.Context, actor string, id int64) (*store.PurgeResult, error)

	// ListNodes returns one page of nodes, newest first.
	ListNodes(ctx context.Context, page store.Page, includeDeleted bool) (*store.NodePage, error)

	// ReorderChildren places orderedIDs first among the active children of
	// parentID (0 for roots), followed by the remaining siblings in their
	// prior order. Returns the siblings in their new order.
	ReorderChildren(ctx context.Context, actor string, parentID int64, orderedIDs []int64) ([]store.Node, error)

	// ListChildren walks the active subtree below id breadth-first, up to
	// opts.Depth levels, siblings ordered by position.
	ListChildren(ctx context.Context, id int64, opts store.ChildrenOptions) ([]store.Node, error)

	// SubtreeDocuments lists the documents bound to a node and, optionally,
	// its descendants.
	SubtreeDocuments(ctx context.Context, id int64, opts store.SubtreeDocumentsOptions) (*store.DocumentPage, error)

	// Glob returns the paths of active nodes matching a dotted glob pattern.
	Glob(ctx context.Context, pattern string) ([]string, error)

	// Bind attaches a document to a node. Binding an already bound pair
	// returns the existing binding, reviving it if it was unbound or
	// switching its relation type.
	Bind(ctx context.Context, actor string, nodeID, documentID int64, rel store.RelationType) (*store.Binding, error)

	// Unbind soft-deletes a binding. Returns store.ErrBindingNotFound when
	// the pair is not actively bound.
	Unbind(ctx context.Context, actor string, nodeID, documentID int64) error

	// BatchBind binds several documents to one node in a single transaction.
	BatchBind(ctx context.Context, actor string, nodeID int64, documentIDs []int64, rel store.RelationType) ([]store.Binding, error)

	// ListBindings returns a node's bindings ordered by document id.
	ListBindings(ctx context.Context, nodeID int64, includeDeleted bool) ([]store.Binding, error)

	// BindingStatus returns the active bindings of a document on active nodes.
	BindingStatus(ctx context.Context, documentID int64) ([]store.Binding, error)

	// CreateDocument registers a document that nodes can bind to.
	CreateDocument(ctx context.Context, actor string, opts store.CreateDocumentOptions) (*store.Document, error)

	// GetDocument returns a document by id.
	GetDocument(ctx context.Context, id int64, includeDeleted bool) (*store.Document, error)

	// ListDocuments returns one page of documents matching f.
	ListDocuments(ctx context.Context, f store.DocumentFilter) (*store.DocumentPage, error)

	// UpdateDocument edits the title, type or metadata of an active
	// document. Nil option fields are left unchanged.
	UpdateDocument(ctx context.Context, actor string, id int64, opts store.UpdateDocumentOptions) (*store.Document, error)

	// DeleteDocument soft-deletes a document; counters above its output
	// bindings drop accordingly.
	DeleteDocument(ctx context.Context, actor string, id int64) (*store.Document, error)

	// RestoreDocument un-deletes a document and re-counts its output bindings.
	RestoreDocument(ctx context.Context, actor string, id int64) (*store.Document, error)

	// PurgeDocument permanently removes a soft-deleted document and its
	// bindings. Returns the number of bindings removed.
	PurgeDocument(ctx context.Context, actor string, id int64) (int64, error)

	// Recount recomputes every subtree counter from the bindings. With apply
	// false nothing is written and the result lists the drift.
	Recount(ctx context.Context, actor string, apply bool) (*store.RecountResult, error)

	// DeletedRoots lists soft-deleted nodes whose parent is active or absent,
	// deleted more than olderThan ago (nil for any age).
	DeletedRoots(ctx context.Context, olderThan *time.Duration) ([]store.Node, error)

	// Stats returns aggregate database statistics.
	Stats(ctx context.Context) (*store.Stats, error)

	// DB returns the underlying connection.
	// Extensions use this to create custom tables.
	// Do not close this connection directly; use Service.Close().
	DB() *sql.DB

	// Checkpoint flushes the SQLite WAL to the main database file. It is a
	// no-op on Postgres.
	Checkpoint(ctx context.Context) error
}
