// Package mcp implements the Model Context Protocol server, exposing ndr
// tree operations to LLMs. Assistants can build and reorganise the node
// tree and bind documents to it through a standardised protocol.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/repo"
	"github.com/prehisle/ndr/internal/tree"
)

// Version is advertised to clients for capability negotiation.
const Version = "1.0.0"

// ErrNotInitialised is returned by tools when the store has not been initialised.
// The LLM should call ndr_init to create a store before using other tools.
const ErrNotInitialised = "store not initialised - call ndr_init first"

// Serve starts the MCP server over stdio.
//
// Design: The server starts even if no store exists, so an LLM can call
// ndr_init rather than failing with an opaque error. Tools that need the
// tree return ErrNotInitialised until then.
func Serve(db string) error {
	// stdout is reserved for JSON-RPC
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	h := &handlers{db: db}

	svc, err := tree.New(db)
	if err != nil && !errors.Is(err, repo.ErrNotInitialised) {
		slog.Error("failed to open store", "error", err)
		return err
	}
	if err == nil {
		if err := h.attach(svc); err != nil {
			svc.Close()
			return err
		}
		defer func() { h.svc.Close() }()
	} else {
		slog.Info("ndr not initialised, starting in uninitialised mode - call ndr_init to create store")
	}

	s := newServer(h)
	slog.Info("ndr MCP server ready", "version", Version, "transport", "stdio")

	err = server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		slog.Info("server stopped")
		return nil
	}
	return err
}

// handlers provides MCP request handlers with access to the tree.
// The svc field is nil until the store has been initialised.
type handlers struct {
	db     string
	svc    *tree.Service
	extCtx extension.Context
}

// attach wires an opened service into the handlers and the extensions, so
// tree events reach extension handlers while the server runs.
func (h *handlers) attach(svc *tree.Service) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	h.svc = svc
	h.extCtx = extension.NewContext(svc, cfg)
	svc.SetExtensionContext(h.extCtx)
	for _, ext := range extension.Of[extension.Initializable]() {
		if err := ext.Init(h.extCtx); err != nil {
			return err
		}
	}
	return nil
}

// requireInit returns an error result if the store is not initialised.
func (h *handlers) requireInit() *mcp.CallToolResult {
	if h.svc == nil {
		return mcp.NewToolResultError(ErrNotInitialised)
	}
	return nil
}

// newServer builds the MCP server with every built-in and extension tool.
func newServer(h *handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"ndr",
		Version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)
	registerResources(s, h)
	registerTools(s, h)
	registerExtensionTools(s, h)
	return s
}

// registerExtensionTools adds the tools extensions contribute, binding each
// handler to the shared extension context.
func registerExtensionTools(s *server.MCPServer, h *handlers) {
	for _, t := range extension.MCPTools() {
		handler := t.Handler
		s.AddTool(t.Tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if res := h.requireInit(); res != nil {
				return res, nil
			}
			return handler(ctx, h.extCtx, req)
		})
	}
}

func registerResources(s *server.MCPServer, h *handlers) {
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"ndr://nodes/{path}",
			"Node",
			mcp.WithTemplateDescription("A node and its direct children, by dotted path"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		h.readNode,
	)
}

func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcp.NewTool("ndr_init",
			mcp.WithDescription("Initialise a new ndr store. Call this first if other tools return 'store not initialised'."),
			mcp.WithBoolean("local", mcp.Description("If true, database is gitignored (not committed to version control)")),
		),
		h.initStore,
	)

	// Nodes

	s.AddTool(
		mcp.NewTool("ndr_node_create",
			mcp.WithDescription("Create a node. It is appended after its siblings; omit parent_path for a root node."),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Display name, unique among siblings")),
			mcp.WithString("slug", mcp.Required(), mcp.Description("Path segment: lowercase letters, digits, '-' and '_'")),
			mcp.WithString("parent_path", mcp.Description("Dotted path of the parent (e.g. 'docs.guides')")),
			mcp.WithString("type", mcp.Description("Optional node classification")),
		),
		h.createNode,
	)

	s.AddTool(
		mcp.NewTool("ndr_node_get",
			mcp.WithDescription("Get a node by id or dotted path"),
			mcp.WithNumber("id", mcp.Description("Node id")),
			mcp.WithString("path", mcp.Description("Dotted node path (used when id is omitted)")),
			mcp.WithBoolean("include_deleted", mcp.Description("Allow soft-deleted nodes (id lookups only)")),
			mcp.WithBoolean("ancestors", mcp.Description("Include the breadcrumb from the root")),
		),
		h.getNode,
	)

	s.AddTool(
		mcp.NewTool("ndr_node_update",
			mcp.WithDescription("Rename and/or move a node. Omitted fields are unchanged; parent_path \"\" moves to the root level."),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Node id")),
			mcp.WithString("name", mcp.Description("New display name")),
			mcp.WithString("slug", mcp.Description("New slug")),
			mcp.WithString("parent_path", mcp.Description("New parent path")),
			mcp.WithString("type", mcp.Description("New classification; \"\" clears it")),
		),
		h.updateNode,
	)

	s.AddTool(
		mcp.NewTool("ndr_node_delete",
			mcp.WithDescription("Soft delete a node (recoverable via ndr_node_restore). Its subtree becomes unreachable."),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Node id")),
		),
		h.deleteNode,
	)

	s.AddTool(
		mcp.NewTool("ndr_node_restore",
			mcp.WithDescription("Restore a soft-deleted node at its original path"),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Node id")),
		),
		h.restoreNode,
	)

	s.AddTool(
		mcp.NewTool("ndr_node_purge",
			mcp.WithDescription("Permanently remove a soft-deleted node, its subtree and their bindings. Irreversible."),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Node id")),
		),
		h.purgeNode,
	)

	s.AddTool(
		mcp.NewTool("ndr_node_list",
			mcp.WithDescription("List nodes, newest first"),
			mcp.WithNumber("page", mcp.Description("1-based page (default 1)")),
			mcp.WithNumber("size", mcp.Description("Page size (default from config)")),
			mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted nodes")),
		),
		h.listNodes,
	)

	s.AddTool(
		mcp.NewTool("ndr_glob",
			mcp.WithDescription("List active node paths matching a dotted glob ('*' one segment, '**' any depth)"),
			mcp.WithString("pattern", mcp.Description("Glob pattern (default '**')")),
		),
		h.globNodes,
	)

	s.AddTool(
		mcp.NewTool("ndr_children",
			mcp.WithDescription("List the active subtree below a node, breadth-first, siblings in order"),
			mcp.WithNumber("id", mcp.Description("Node id")),
			mcp.WithString("path", mcp.Description("Dotted node path (used when id is omitted)")),
			mcp.WithNumber("depth", mcp.Description("Levels to descend (default 1)")),
			mcp.WithString("type", mcp.Description("Only return nodes of this type")),
		),
		h.listChildren,
	)

	s.AddTool(
		mcp.NewTool("ndr_reorder",
			mcp.WithDescription("Reorder the children of a parent. Listed ids go first in the given order; the rest keep their relative order."),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("parent_id", mcp.Description("Parent node id (omit or 0 for root nodes)")),
			mcp.WithArray("ordered_ids", mcp.Required(), mcp.Description("Child node ids in the desired order"),
				mcp.Items(map[string]any{"type": "number"})),
		),
		h.reorder,
	)

	s.AddTool(
		mcp.NewTool("ndr_subtree_documents",
			mcp.WithDescription("List documents bound to a node and its descendants"),
			mcp.WithNumber("id", mcp.Description("Node id")),
			mcp.WithString("path", mcp.Description("Dotted node path (used when id is omitted)")),
			mcp.WithBoolean("include_descendants", mcp.Description("Include descendants (default true)")),
			mcp.WithBoolean("include_deleted_nodes", mcp.Description("Include soft-deleted nodes and their bindings")),
			mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted documents")),
			mcp.WithString("type", mcp.Description("Document type")),
			mcp.WithString("relation_type", mcp.Description("Binding relation: output or source")),
			mcp.WithString("query", mcp.Description("Case-insensitive title substring")),
			mcp.WithObject("metadata", mcp.Description("Metadata field equality filters")),
			mcp.WithNumber("page", mcp.Description("1-based page")),
			mcp.WithNumber("size", mcp.Description("Page size")),
		),
		h.subtreeDocuments,
	)

	// Bindings

	s.AddTool(
		mcp.NewTool("ndr_bind",
			mcp.WithDescription("Bind a document to a node. Output bindings count towards ancestor subtree_doc_count."),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("node_id", mcp.Required(), mcp.Description("Node id")),
			mcp.WithNumber("document_id", mcp.Required(), mcp.Description("Document id")),
			mcp.WithString("relation_type", mcp.Description("output (default) or source")),
		),
		h.bind,
	)

	s.AddTool(
		mcp.NewTool("ndr_unbind",
			mcp.WithDescription("Remove a binding between a node and a document"),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("node_id", mcp.Required(), mcp.Description("Node id")),
			mcp.WithNumber("document_id", mcp.Required(), mcp.Description("Document id")),
		),
		h.unbind,
	)

	// Documents

	s.AddTool(
		mcp.NewTool("ndr_document_create",
			mcp.WithDescription("Register a document that nodes can bind to"),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
			mcp.WithString("type", mcp.Description("Document type")),
			mcp.WithObject("metadata", mcp.Description("Arbitrary JSON metadata")),
		),
		h.createDocument,
	)

	s.AddTool(
		mcp.NewTool("ndr_document_update",
			mcp.WithDescription("Edit a document's title, type or metadata. Omitted fields are kept; metadata is replaced as a whole; an empty type clears it."),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Document id")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("type", mcp.Description("New type")),
			mcp.WithObject("metadata", mcp.Description("Replacement JSON metadata")),
		),
		h.updateDocument,
	)

	s.AddTool(
		mcp.NewTool("ndr_document_list",
			mcp.WithDescription("List documents"),
			mcp.WithString("type", mcp.Description("Document type")),
			mcp.WithString("query", mcp.Description("Case-insensitive title substring")),
			mcp.WithObject("metadata", mcp.Description("Metadata field equality filters")),
			mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted documents")),
			mcp.WithNumber("page", mcp.Description("1-based page")),
			mcp.WithNumber("size", mcp.Description("Page size")),
		),
		h.listDocuments,
	)

	s.AddTool(
		mcp.NewTool("ndr_document_delete",
			mcp.WithDescription("Soft delete a document; counters above its output bindings drop"),
			mcp.WithString("actor", mcp.Required(), mcp.Description("Identity performing the change")),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Document id")),
		),
		h.deleteDocument,
	)

	// Administration

	s.AddTool(
		mcp.NewTool("ndr_recount",
			mcp.WithDescription("Recompute every subtree_doc_count from the bindings. With check, only report drift."),
			mcp.WithString("actor", mcp.Description("Identity performing the change (required unless check)")),
			mcp.WithBoolean("check", mcp.Description("Report drift without writing")),
		),
		h.recount,
	)

	s.AddTool(
		mcp.NewTool("ndr_config_get",
			mcp.WithDescription("Get a configuration value"),
			mcp.WithString("key", mcp.Description("Config key (e.g. limits.max_depth) or empty for all")),
		),
		h.configGet,
	)

	s.AddTool(
		mcp.NewTool("ndr_config_set",
			mcp.WithDescription("Set a configuration value"),
			mcp.WithString("key", mcp.Required(), mcp.Description("Config key (e.g. limits.page_size)")),
			mcp.WithString("value", mcp.Required(), mcp.Description("Value to set")),
		),
		h.configSet,
	)

	s.AddTool(
		mcp.NewTool("ndr_guide",
			mcp.WithDescription("Get help/guide content for ndr commands"),
			mcp.WithString("topic", mcp.Description("Guide topic (e.g., 'node', 'binding') or empty for index")),
		),
		h.getGuide,
	)
}
