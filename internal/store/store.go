// Package store defines the persistence types for the node tree and the SQL
// store that holds them. The tree service owns the algorithms; this package
// owns rows, queries and transactions.
package store

import (
	"encoding/json"
	"time"
)

// State is the lifecycle state of a node. Physical deletion via purge is
// terminal and has no state: the row no longer exists.
type State int

const (
	// StateActive nodes participate in path and name uniqueness.
	StateActive State = iota
	// StateSoftDeleted nodes are hidden but recoverable until purged.
	StateSoftDeleted
)

func (s State) String() string {
	if s == StateSoftDeleted {
		return "soft_deleted"
	}
	return "active"
}

// Node is one entry of the materialized-path tree.
type Node struct {
	ID              int64   // Primary key
	Name            string  // Display name, unique among active siblings
	Slug            string  // Path segment
	Type            string  // Optional classification, empty when unset
	ParentID        *int64  // Owning node, nil for roots
	ParentPath      *string // Parent's path, nil for roots
	Path            string  // Dotted slugs from the root
	Position        int     // Dense 0-based order among active siblings
	SubtreeDocCount int64   // Live output bindings strictly beneath this node
	CreatedBy       string
	UpdatedBy       string
	CreatedAt       int64  // Unix seconds
	UpdatedAt       int64  // Unix seconds
	DeletedAt       *int64 // Unix seconds, nil while active
}

// State reports whether the node is active or soft-deleted.
func (n *Node) State() State {
	if n.DeletedAt != nil {
		return StateSoftDeleted
	}
	return StateActive
}

// Active is shorthand for State() == StateActive.
func (n *Node) Active() bool { return n.DeletedAt == nil }

// ParentKey returns the parent id, or 0 for roots. Zero doubles as the lock
// key for the root sibling set.
func (n *Node) ParentKey() int64 {
	if n.ParentID == nil {
		return 0
	}
	return *n.ParentID
}

// NodeJSON is the API representation of a Node.
type NodeJSON struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	Type            string  `json:"type,omitempty"`
	ParentID        *int64  `json:"parent_id"`
	ParentPath      *string `json:"parent_path"`
	Path            string  `json:"path"`
	Position        int     `json:"position"`
	SubtreeDocCount int64   `json:"subtree_doc_count"`
	CreatedBy       string  `json:"created_by"`
	UpdatedBy       string  `json:"updated_by"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	DeletedAt       *string `json:"deleted_at,omitempty"`
}

// ToJSON converts a Node to its API representation with RFC3339 timestamps.
func (n *Node) ToJSON() NodeJSON {
	return NodeJSON{
		ID:              n.ID,
		Name:            n.Name,
		Slug:            n.Slug,
		Type:            n.Type,
		ParentID:        n.ParentID,
		ParentPath:      n.ParentPath,
		Path:            n.Path,
		Position:        n.Position,
		SubtreeDocCount: n.SubtreeDocCount,
		CreatedBy:       n.CreatedBy,
		UpdatedBy:       n.UpdatedBy,
		CreatedAt:       rfc3339(n.CreatedAt),
		UpdatedAt:       rfc3339(n.UpdatedAt),
		DeletedAt:       rfc3339Ptr(n.DeletedAt),
	}
}

// NodesJSON converts a slice of nodes.
func NodesJSON(nodes []Node) []NodeJSON {
	out := make([]NodeJSON, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].ToJSON()
	}
	return out
}

// RelationType classifies a binding. Only output bindings feed the subtree counter.
type RelationType string

const (
	RelationOutput RelationType = "output"
	RelationSource RelationType = "source"
)

// Counted reports whether bindings of this type count toward subtree_doc_count.
func (r RelationType) Counted() bool { return r == RelationOutput }

// Binding associates a node with a document. (NodeID, DocumentID) is unique.
type Binding struct {
	NodeID       int64
	DocumentID   int64
	RelationType RelationType
	CreatedBy    string
	UpdatedBy    string
	CreatedAt    int64
	UpdatedAt    int64
	DeletedAt    *int64
}

// Active reports whether the binding is not soft-deleted.
func (b *Binding) Active() bool { return b.DeletedAt == nil }

// BindingJSON is the API representation of a Binding.
type BindingJSON struct {
	NodeID       int64        `json:"node_id"`
	DocumentID   int64        `json:"document_id"`
	RelationType RelationType `json:"relation_type"`
	CreatedBy    string       `json:"created_by"`
	UpdatedBy    string       `json:"updated_by"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
	DeletedAt    *string      `json:"deleted_at,omitempty"`
}

// ToJSON converts a Binding to its API representation.
func (b *Binding) ToJSON() BindingJSON {
	return BindingJSON{
		NodeID:       b.NodeID,
		DocumentID:   b.DocumentID,
		RelationType: b.RelationType,
		CreatedBy:    b.CreatedBy,
		UpdatedBy:    b.UpdatedBy,
		CreatedAt:    rfc3339(b.CreatedAt),
		UpdatedAt:    rfc3339(b.UpdatedAt),
		DeletedAt:    rfc3339Ptr(b.DeletedAt),
	}
}

// BindingsJSON converts a slice of bindings.
func BindingsJSON(bs []Binding) []BindingJSON {
	out := make([]BindingJSON, len(bs))
	for i := range bs {
		out[i] = bs[i].ToJSON()
	}
	return out
}

// Document is the minimal document record the tree binds to. Content and
// versioning live outside this system; the tree only needs identity,
// classification and soft-delete state.
type Document struct {
	ID        int64
	Title     string
	Type      string
	Metadata  map[string]any
	CreatedBy string
	UpdatedBy string
	CreatedAt int64
	UpdatedAt int64
	DeletedAt *int64
}

// Active reports whether the document is not soft-deleted.
func (d *Document) Active() bool { return d.DeletedAt == nil }

// DocumentJSON is the API representation of a Document.
type DocumentJSON struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Type      string         `json:"type,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	CreatedBy string         `json:"created_by"`
	UpdatedBy string         `json:"updated_by"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
	DeletedAt *string        `json:"deleted_at,omitempty"`
}

// ToJSON converts a Document to its API representation.
func (d *Document) ToJSON() DocumentJSON {
	md := d.Metadata
	if md == nil {
		md = map[string]any{}
	}
	return DocumentJSON{
		ID:        d.ID,
		Title:     d.Title,
		Type:      d.Type,
		Metadata:  md,
		CreatedBy: d.CreatedBy,
		UpdatedBy: d.UpdatedBy,
		CreatedAt: rfc3339(d.CreatedAt),
		UpdatedAt: rfc3339(d.UpdatedAt),
		DeletedAt: rfc3339Ptr(d.DeletedAt),
	}
}

// DocumentsJSON converts a slice of documents.
func DocumentsJSON(docs []Document) []DocumentJSON {
	out := make([]DocumentJSON, len(docs))
	for i := range docs {
		out[i] = docs[i].ToJSON()
	}
	return out
}

// CreateNodeOptions describes a new node. An empty ParentPath creates a root.
type CreateNodeOptions struct {
	Name       string
	Slug       string
	ParentPath string
	Type       string
}

// UpdateNodeOptions describes a rename and/or move. Nil fields keep the
// current value. A non-nil ParentPath of "" moves the node to the root level.
// A non-nil Type of "" clears the classification.
type UpdateNodeOptions struct {
	Name       *string
	Slug       *string
	ParentPath *string
	Type       *string
}

// ChildrenOptions bounds a list_children walk. Depth below 1 is treated as 1.
// A non-empty Type hides non-matching nodes without pruning the walk.
type ChildrenOptions struct {
	Depth int
	Type  string
}

// Page is a 1-based page request.
type Page struct {
	Page int
	Size int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

// NodePage is one page of list_nodes.
type NodePage struct {
	Items []Node
	Total int64
	Page  int
	Size  int
}

// NodePageJSON is the API representation of a NodePage.
type NodePageJSON struct {
	Items []NodeJSON `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
}

// ToJSON converts a NodePage to its API representation.
func (p NodePage) ToJSON() NodePageJSON {
	return NodePageJSON{Items: NodesJSON(p.Items), Total: p.Total, Page: p.Page, Size: p.Size}
}

// CreateDocumentOptions describes a new document.
type CreateDocumentOptions struct {
	Title    string
	Type     string
	Metadata map[string]any
}

// UpdateDocumentOptions describes a document edit. Nil fields keep the
// current value. A non-nil Metadata replaces the whole object; a non-nil
// Type of "" clears it.
type UpdateDocumentOptions struct {
	Title    *string
	Type     *string
	Metadata map[string]any
}

// DocumentFilter narrows document listings. Zero values match everything.
type DocumentFilter struct {
	Type           string            // exact document type
	RelationType   RelationType      // binding relation, subtree queries only
	Query          string            // case-insensitive title substring
	Metadata       map[string]string // metadata field equality
	IncludeDeleted bool              // include soft-deleted documents
	Page           Page
}

// SubtreeDocumentsOptions configures get_subtree_documents. The node-id set
// is computed by the tree; Filter is applied by the DocumentQuery.
type SubtreeDocumentsOptions struct {
	IncludeDescendants  bool
	IncludeDeletedNodes bool
	Filter              DocumentFilter
}

// DocumentPage is one page of documents.
type DocumentPage struct {
	Items []Document
	Total int64
	Page  int
	Size  int
}

// DocumentPageJSON is the API representation of a DocumentPage.
type DocumentPageJSON struct {
	Items []DocumentJSON `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// ToJSON converts a DocumentPage to its API representation.
func (p DocumentPage) ToJSON() DocumentPageJSON {
	return DocumentPageJSON{Items: DocumentsJSON(p.Items), Total: p.Total, Page: p.Page, Size: p.Size}
}

// PurgeResult reports what a purge physically removed.
type PurgeResult struct {
	Nodes    int64   `json:"nodes"`
	Bindings int64   `json:"bindings"`
	IDs      []int64 `json:"ids"`
}

// CounterChange is one node whose stored counter differs from the recomputed value.
type CounterChange struct {
	NodeID   int64  `json:"node_id"`
	Path     string `json:"path"`
	Stored   int64  `json:"stored"`
	Computed int64  `json:"computed"`
}

// RecountResult reports a full recompute.
type RecountResult struct {
	Nodes   int             `json:"nodes"`
	Changed []CounterChange `json:"changed"`
	Applied bool            `json:"applied"`
}

// MarshalJSON encodes a value with indentation for human-readable CLI output.
// Use this instead of json.Marshal when the output will be displayed to users.
func MarshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func rfc3339(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func rfc3339Ptr(ts *int64) *string {
	if ts == nil {
		return nil
	}
	s := rfc3339(*ts)
	return &s
}
