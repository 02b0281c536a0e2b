package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlers(t *testing.T) *handlers {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tree.db"))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	svc := tree.Open(s, &config.Config{})
	t.Cleanup(func() { svc.Close() })
	return &handlers{svc: svc}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "want text content, got %T", res.Content[0])
	return tc.Text
}

// ok asserts a successful result and decodes its JSON into out.
func ok(t *testing.T, res *mcp.CallToolResult, err error, out any) {
	t.Helper()
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), out))
	}
}

func TestTools_NodeLifecycle(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	var root, child store.NodeJSON
	res, err := h.createNode(ctx, call(map[string]any{"actor": "claude", "name": "Docs", "slug": "docs"}))
	ok(t, res, err, &root)
	res, err = h.createNode(ctx, call(map[string]any{"actor": "claude", "name": "Guide", "slug": "guide", "parent_path": "docs"}))
	ok(t, res, err, &child)
	assert.Equal(t, "docs.guide", child.Path)
	assert.Equal(t, "claude", child.CreatedBy)

	var got struct {
		Node      store.NodeJSON   `json:"node"`
		Ancestors []store.NodeJSON `json:"ancestors"`
	}
	res, err = h.getNode(ctx, call(map[string]any{"path": "docs.guide", "ancestors": true}))
	ok(t, res, err, &got)
	assert.Equal(t, child.ID, got.Node.ID)
	require.Len(t, got.Ancestors, 1)
	assert.Equal(t, root.ID, got.Ancestors[0].ID)

	var updated store.NodeJSON
	res, err = h.updateNode(ctx, call(map[string]any{"actor": "claude", "id": float64(child.ID), "slug": "manual", "type": "chapter"}))
	ok(t, res, err, &updated)
	assert.Equal(t, "docs.manual", updated.Path)
	assert.Equal(t, "Guide", updated.Name, "omitted fields are unchanged")
	assert.Equal(t, "chapter", updated.Type)

	var paths []string
	res, err = h.globNodes(ctx, call(map[string]any{"pattern": "docs.*"}))
	ok(t, res, err, &paths)
	assert.Equal(t, []string{"docs.manual"}, paths)

	res, err = h.deleteNode(ctx, call(map[string]any{"actor": "claude", "id": float64(root.ID)}))
	ok(t, res, err, nil)
	res, err = h.getNode(ctx, call(map[string]any{"id": float64(root.ID)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not_found")

	res, err = h.restoreNode(ctx, call(map[string]any{"actor": "claude", "id": float64(root.ID)}))
	ok(t, res, err, nil)

	res, err = h.purgeNode(ctx, call(map[string]any{"actor": "claude", "id": float64(root.ID)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "invalid_operation")

	var page store.NodePageJSON
	res, err = h.listNodes(ctx, call(map[string]any{"size": float64(1)}))
	ok(t, res, err, &page)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 1)
}

func TestTools_MissingActorAndArguments(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	res, err := h.createNode(ctx, call(map[string]any{"name": "Docs", "slug": "docs"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "missing_actor")

	res, err = h.deleteNode(ctx, call(map[string]any{"actor": "claude"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "id is required")

	res, err = h.getNode(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.bind(ctx, call(map[string]any{"actor": "claude", "node_id": float64(1), "document_id": float64(1), "relation_type": "other"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "invalid_operation")

	uninit := &handlers{}
	res, err = uninit.listNodes(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, ErrNotInitialised, text(t, res))
}

func TestTools_ReorderAndChildren(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	var root store.NodeJSON
	res, err := h.createNode(ctx, call(map[string]any{"actor": "claude", "name": "Docs", "slug": "docs"}))
	ok(t, res, err, &root)
	ids := make([]int64, 3)
	for i, slug := range []string{"a", "b", "c"} {
		var n store.NodeJSON
		res, err := h.createNode(ctx, call(map[string]any{"actor": "claude", "name": slug, "slug": slug, "parent_path": "docs"}))
		ok(t, res, err, &n)
		ids[i] = n.ID
	}

	var nodes []store.NodeJSON
	res, err = h.reorder(ctx, call(map[string]any{
		"actor":       "claude",
		"parent_id":   float64(root.ID),
		"ordered_ids": []any{float64(ids[2])},
	}))
	ok(t, res, err, &nodes)
	require.Len(t, nodes, 3)
	assert.Equal(t, []int64{ids[2], ids[0], ids[1]}, []int64{nodes[0].ID, nodes[1].ID, nodes[2].ID})

	res, err = h.listChildren(ctx, call(map[string]any{"path": "docs"}))
	ok(t, res, err, &nodes)
	require.Len(t, nodes, 3)
	assert.Equal(t, "docs.c", nodes[0].Path)
	assert.Equal(t, 0, nodes[0].Position)
}

func TestTools_BindingsAndRecount(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	var root, leaf store.NodeJSON
	res, err := h.createNode(ctx, call(map[string]any{"actor": "claude", "name": "Docs", "slug": "docs"}))
	ok(t, res, err, &root)
	res, err = h.createNode(ctx, call(map[string]any{"actor": "claude", "name": "Leaf", "slug": "leaf", "parent_path": "docs"}))
	ok(t, res, err, &leaf)

	var doc store.DocumentJSON
	res, err = h.createDocument(ctx, call(map[string]any{
		"actor": "claude", "title": "Intro", "type": "note",
		"metadata": map[string]any{"lang": "en"},
	}))
	ok(t, res, err, &doc)
	assert.Equal(t, "en", doc.Metadata["lang"])

	var b store.BindingJSON
	res, err = h.bind(ctx, call(map[string]any{"actor": "claude", "node_id": float64(leaf.ID), "document_id": float64(doc.ID)}))
	ok(t, res, err, &b)
	assert.Equal(t, store.RelationOutput, b.RelationType)

	var n store.NodeJSON
	res, err = h.getNode(ctx, call(map[string]any{"id": float64(root.ID)}))
	ok(t, res, err, &n)
	assert.Equal(t, int64(1), n.SubtreeDocCount)

	var docs store.DocumentPageJSON
	res, err = h.subtreeDocuments(ctx, call(map[string]any{"path": "docs", "metadata": map[string]any{"lang": "en"}}))
	ok(t, res, err, &docs)
	assert.Equal(t, int64(1), docs.Total)

	res, err = h.listDocuments(ctx, call(map[string]any{"query": "intro"}))
	ok(t, res, err, &docs)
	assert.Equal(t, int64(1), docs.Total)

	var rc store.RecountResult
	res, err = h.recount(ctx, call(map[string]any{"check": true}))
	ok(t, res, err, &rc)
	assert.Empty(t, rc.Changed)

	res, err = h.recount(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "applying needs an actor")

	res, err = h.deleteDocument(ctx, call(map[string]any{"actor": "claude", "id": float64(doc.ID)}))
	ok(t, res, err, nil)
	res, err = h.getNode(ctx, call(map[string]any{"id": float64(root.ID)}))
	ok(t, res, err, &n)
	assert.Zero(t, n.SubtreeDocCount)

	res, err = h.unbind(ctx, call(map[string]any{"actor": "claude", "node_id": float64(leaf.ID), "document_id": float64(doc.ID)}))
	ok(t, res, err, nil)
	res, err = h.unbind(ctx, call(map[string]any{"actor": "claude", "node_id": float64(leaf.ID), "document_id": float64(doc.ID)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not_found")
}

func TestTools_UpdateDocument(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	var doc store.DocumentJSON
	res, err := h.createDocument(ctx, call(map[string]any{
		"actor": "claude", "title": "Intro", "type": "note",
		"metadata": map[string]any{"lang": "en"},
	}))
	ok(t, res, err, &doc)

	var got store.DocumentJSON
	res, err = h.updateDocument(ctx, call(map[string]any{"actor": "bob", "id": float64(doc.ID), "title": "Overview"}))
	ok(t, res, err, &got)
	assert.Equal(t, "Overview", got.Title)
	assert.Equal(t, "note", got.Type)
	assert.Equal(t, "en", got.Metadata["lang"])
	assert.Equal(t, "bob", got.UpdatedBy)

	got = store.DocumentJSON{}
	res, err = h.updateDocument(ctx, call(map[string]any{
		"actor": "bob", "id": float64(doc.ID), "type": "", "metadata": map[string]any{"lang": "de"},
	}))
	ok(t, res, err, &got)
	assert.Empty(t, got.Type)
	assert.Equal(t, "de", got.Metadata["lang"])

	res, err = h.updateDocument(ctx, call(map[string]any{"id": float64(doc.ID), "title": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "missing_actor")

	res, err = h.updateDocument(ctx, call(map[string]any{"actor": "bob", "id": float64(999), "title": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not_found")
}

func TestReadNodeResource(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()
	res, err := h.createNode(ctx, call(map[string]any{"actor": "claude", "name": "Docs", "slug": "docs"}))
	ok(t, res, err, nil)
	res, err = h.createNode(ctx, call(map[string]any{"actor": "claude", "name": "A", "slug": "a", "parent_path": "docs"}))
	ok(t, res, err, nil)

	var req mcp.ReadResourceRequest
	req.Params.URI = "ndr://nodes/docs"
	contents, err := h.readNode(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc, isText := contents[0].(mcp.TextResourceContents)
	require.True(t, isText)

	var body struct {
		Node     store.NodeJSON   `json:"node"`
		Children []store.NodeJSON `json:"children"`
	}
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &body))
	assert.Equal(t, "docs", body.Node.Path)
	require.Len(t, body.Children, 1)
	assert.Equal(t, "docs.a", body.Children[0].Path)

	req.Params.URI = "other://nodes/docs"
	_, err = h.readNode(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestParseNodeURI(t *testing.T) {
	p, err := parseNodeURI("ndr://nodes/docs.guide")
	require.NoError(t, err)
	assert.Equal(t, "docs.guide", p)

	_, err = parseNodeURI("ndr://nodes/")
	assert.ErrorIs(t, err, ErrEmptyPath)
}
