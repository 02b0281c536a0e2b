// tools_nodes.go implements MCP tools for node lifecycle, ordering and
// subtree reads.
//
// Separated from server.go so tool definitions and their handlers can be
// read independently. These tools mirror the node CLI commands but return
// structured JSON for LLM consumption.
//
// Design: Every mutating tool requires an explicit actor. The service
// rejects a blank actor, so a missing parameter surfaces as a
// "missing_actor" error rather than being attributed to a default identity.

package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/store"
)

// createNode handles ndr_node_create tool calls.
func (h *handlers) createNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	actor := getString(req, "actor", "")
	opts := store.CreateNodeOptions{
		Name:       getString(req, "name", ""),
		Slug:       getString(req, "slug", ""),
		ParentPath: getString(req, "parent_path", ""),
		Type:       getString(req, "type", ""),
	}

	n, err := h.svc.CreateNode(ctx, actor, opts)

	l := log.Event("mcp:node_create", "create").Author(actor).Path(opts.ParentPath)
	if n != nil {
		l.Node(n.ID).Resolved(n.Path)
	}
	l.Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(n.ToJSON())
}

// getNode handles ndr_node_get tool calls. With ancestors set the response
// wraps the node together with its breadcrumb.
func (h *handlers) getNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	n, err := h.resolveNode(ctx, req, getBool(req, "include_deleted", false))
	if err != nil {
		return toolError(err), nil
	}
	if !getBool(req, "ancestors", false) {
		return jsonResult(n.ToJSON())
	}
	anc, err := h.svc.Ancestors(ctx, n.ID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"node":      n.ToJSON(),
		"ancestors": store.NodesJSON(anc),
	})
}

// updateNode handles ndr_node_update tool calls.
func (h *handlers) updateNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actor := getString(req, "actor", "")
	opts := store.UpdateNodeOptions{
		Name:       getOptString(req, "name"),
		Slug:       getOptString(req, "slug"),
		ParentPath: getOptString(req, "parent_path"),
		Type:       getOptString(req, "type"),
	}

	n, err := h.svc.UpdateNode(ctx, actor, id, opts)

	l := log.Event("mcp:node_update", "update").Author(actor).Node(id)
	if opts.ParentPath != nil {
		l.Detail("parent_path", *opts.ParentPath)
	}
	if n != nil {
		l.Resolved(n.Path)
	}
	l.Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(n.ToJSON())
}

// deleteNode handles ndr_node_delete tool calls.
func (h *handlers) deleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.lifecycle(ctx, req, "delete", h.svc.DeleteNode)
}

// restoreNode handles ndr_node_restore tool calls.
func (h *handlers) restoreNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.lifecycle(ctx, req, "restore", h.svc.RestoreNode)
}

func (h *handlers) lifecycle(ctx context.Context, req mcp.CallToolRequest, action string,
	op func(context.Context, string, int64) (*store.Node, error)) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actor := getString(req, "actor", "")

	n, err := op(ctx, actor, id)

	l := log.Event("mcp:node_"+action, action).Author(actor).Node(id)
	if n != nil {
		l.Path(n.Path)
	}
	l.Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(n.ToJSON())
}

// purgeNode handles ndr_node_purge tool calls.
func (h *handlers) purgeNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actor := getString(req, "actor", "")

	res, err := h.svc.PurgeNode(ctx, actor, id)

	l := log.Event("mcp:node_purge", "purge").Author(actor).Node(id)
	if res != nil {
		l.Detail("nodes", res.Nodes).Detail("bindings", res.Bindings)
	}
	l.Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}

// listNodes handles ndr_node_list tool calls.
func (h *handlers) listNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	page := store.Page{Page: getInt(req, "page", 0), Size: getInt(req, "size", 0)}
	p, err := h.svc.ListNodes(ctx, page, getBool(req, "include_deleted", false))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(p.ToJSON())
}

// globNodes handles ndr_glob tool calls.
func (h *handlers) globNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	paths, err := h.svc.Glob(ctx, getString(req, "pattern", ""))
	if err != nil {
		return toolError(err), nil
	}
	if paths == nil {
		paths = []string{}
	}
	return jsonResult(paths)
}

// listChildren handles ndr_children tool calls.
func (h *handlers) listChildren(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	n, err := h.resolveNode(ctx, req, false)
	if err != nil {
		return toolError(err), nil
	}
	nodes, err := h.svc.ListChildren(ctx, n.ID, store.ChildrenOptions{
		Depth: getInt(req, "depth", 1),
		Type:  getString(req, "type", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(store.NodesJSON(nodes))
}

// reorder handles ndr_reorder tool calls.
func (h *handlers) reorder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	actor := getString(req, "actor", "")
	parentID := getID(req, "parent_id")
	ids := getIDs(req, "ordered_ids")

	nodes, err := h.svc.ReorderChildren(ctx, actor, parentID, ids)

	log.Event("mcp:reorder", "reorder").Author(actor).Node(parentID).Detail("ordered_ids", ids).Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(store.NodesJSON(nodes))
}

// subtreeDocuments handles ndr_subtree_documents tool calls.
func (h *handlers) subtreeDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	n, err := h.resolveNode(ctx, req, getBool(req, "include_deleted_nodes", false))
	if err != nil {
		return toolError(err), nil
	}
	f, err := documentFilter(req)
	if err != nil {
		return toolError(err), nil
	}
	p, err := h.svc.SubtreeDocuments(ctx, n.ID, store.SubtreeDocumentsOptions{
		IncludeDescendants:  getBool(req, "include_descendants", true),
		IncludeDeletedNodes: getBool(req, "include_deleted_nodes", false),
		Filter:              f,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(p.ToJSON())
}
