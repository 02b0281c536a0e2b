// tools_documents.go implements MCP tools for documents and their bindings
// to nodes.
//
// Documents are registered by title and metadata; the tree does not hold
// their content. Binding tools report the binding row so an LLM can see the
// relation type that was stored.

package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
)

// bind handles ndr_bind tool calls.
func (h *handlers) bind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	nodeID, err := requireID(req, "node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docID, err := requireID(req, "document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rel, err := validate.Relation(getString(req, "relation_type", ""))
	if err != nil {
		return toolError(err), nil
	}
	actor := getString(req, "actor", "")

	b, err := h.svc.Bind(ctx, actor, nodeID, docID, rel)

	log.Event("mcp:bind", "bind").Author(actor).Node(nodeID).
		Detail("document", docID).Detail("relation_type", string(rel)).Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(b.ToJSON())
}

// unbind handles ndr_unbind tool calls.
func (h *handlers) unbind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	nodeID, err := requireID(req, "node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docID, err := requireID(req, "document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actor := getString(req, "actor", "")

	err = h.svc.Unbind(ctx, actor, nodeID, docID)

	log.Event("mcp:unbind", "unbind").Author(actor).Node(nodeID).Detail("document", docID).Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("unbound"), nil
}

// createDocument handles ndr_document_create tool calls.
func (h *handlers) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	actor := getString(req, "actor", "")
	d, err := h.svc.CreateDocument(ctx, actor, store.CreateDocumentOptions{
		Title:    getString(req, "title", ""),
		Type:     getString(req, "type", ""),
		Metadata: getObject(req, "metadata"),
	})

	l := log.Event("mcp:document_create", "create").Author(actor)
	if d != nil {
		l.Detail("document", d.ID)
	}
	l.Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(d.ToJSON())
}

// updateDocument handles ndr_document_update tool calls. Absent arguments
// leave the field unchanged; a metadata object replaces the stored one.
func (h *handlers) updateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actor := getString(req, "actor", "")

	d, err := h.svc.UpdateDocument(ctx, actor, id, store.UpdateDocumentOptions{
		Title:    getOptString(req, "title"),
		Type:     getOptString(req, "type"),
		Metadata: getObject(req, "metadata"),
	})

	log.Event("mcp:document_update", "update").Author(actor).Detail("document", id).Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(d.ToJSON())
}

// listDocuments handles ndr_document_list tool calls.
func (h *handlers) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	f, err := documentFilter(req)
	if err != nil {
		return toolError(err), nil
	}
	p, err := h.svc.ListDocuments(ctx, f)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(p.ToJSON())
}

// deleteDocument handles ndr_document_delete tool calls.
func (h *handlers) deleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actor := getString(req, "actor", "")

	d, err := h.svc.DeleteDocument(ctx, actor, id)

	log.Event("mcp:document_delete", "delete").Author(actor).Detail("document", id).Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(d.ToJSON())
}

// documentFilter reads the document filter parameters shared by
// ndr_document_list and ndr_subtree_documents.
func documentFilter(req mcp.CallToolRequest) (store.DocumentFilter, error) {
	f := store.DocumentFilter{
		Type:           getString(req, "type", ""),
		Query:          getString(req, "query", ""),
		Metadata:       getStringMap(req, "metadata"),
		IncludeDeleted: getBool(req, "include_deleted", false),
		Page:           store.Page{Page: getInt(req, "page", 0), Size: getInt(req, "size", 0)},
	}
	if raw := getString(req, "relation_type", ""); raw != "" {
		rel, err := validate.Relation(raw)
		if err != nil {
			return f, err
		}
		f.RelationType = rel
	}
	return f, nil
}
