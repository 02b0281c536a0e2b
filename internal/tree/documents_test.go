package tree_test

import (
	"context"
	"testing"

	"github.com/prehisle/ndr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_DeleteRestoreCounters(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	a := mkNode(t, svc, "docs", "a")
	b := mkNode(t, svc, "docs", "b")
	src := mkNode(t, svc, "docs", "src")
	d := mkDoc(t, svc, "Shared")

	_, err := svc.Bind(ctx, alice, a.ID, d.ID, store.RelationOutput)
	require.NoError(t, err)
	_, err = svc.Bind(ctx, alice, b.ID, d.ID, store.RelationOutput)
	require.NoError(t, err)
	_, err = svc.Bind(ctx, alice, src.ID, d.ID, store.RelationSource)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count(t, svc, docs.ID))

	got, err := svc.DeleteDocument(ctx, "bob", d.ID)
	require.NoError(t, err)
	assert.False(t, got.Active())
	assert.Equal(t, "bob", got.UpdatedBy)
	assert.Equal(t, int64(0), count(t, svc, docs.ID))
	assertConsistent(t, svc)

	_, err = svc.GetDocument(ctx, d.ID, false)
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
	_, err = svc.DeleteDocument(ctx, alice, d.ID)
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)

	// Unbinding while the document is deleted must not decrement again.
	require.NoError(t, svc.Unbind(ctx, alice, b.ID, d.ID))
	assert.Equal(t, int64(0), count(t, svc, docs.ID))

	got, err = svc.RestoreDocument(ctx, alice, d.ID)
	require.NoError(t, err)
	assert.True(t, got.Active())
	assert.Equal(t, int64(1), count(t, svc, docs.ID))
	assertConsistent(t, svc)

	// Restoring an active document changes nothing.
	_, err = svc.RestoreDocument(ctx, "bob", d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, svc, docs.ID))
	assertConsistent(t, svc)
}

func TestDocument_Purge(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	n := mkNode(t, svc, "", "docs")
	d := mkDoc(t, svc, "Doc")
	_, err := svc.Bind(ctx, alice, n.ID, d.ID, store.RelationOutput)
	require.NoError(t, err)

	_, err = svc.PurgeDocument(ctx, alice, d.ID)
	assert.ErrorIs(t, err, store.ErrNotDeleted)

	_, err = svc.DeleteDocument(ctx, alice, d.ID)
	require.NoError(t, err)
	removed, err := svc.PurgeDocument(ctx, alice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = svc.GetDocument(ctx, d.ID, true)
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
	bs, err := svc.ListBindings(ctx, n.ID, true)
	require.NoError(t, err)
	assert.Empty(t, bs)
}

func TestDocument_List(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := svc.CreateDocument(ctx, alice, store.CreateDocumentOptions{
			Title: title, Type: "note", Metadata: map[string]any{"tags": []any{"x", title}},
		})
		require.NoError(t, err)
	}
	g, err := svc.CreateDocument(ctx, alice, store.CreateDocumentOptions{Title: "Guide", Type: "guide"})
	require.NoError(t, err)
	_, err = svc.DeleteDocument(ctx, alice, g.ID)
	require.NoError(t, err)

	page, err := svc.ListDocuments(ctx, store.DocumentFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	page, err = svc.ListDocuments(ctx, store.DocumentFilter{IncludeDeleted: true, Type: "guide"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Guide", page.Items[0].Title)

	page, err = svc.ListDocuments(ctx, store.DocumentFilter{Metadata: map[string]string{"tags": "Beta"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Beta", page.Items[0].Title)

	page, err = svc.ListDocuments(ctx, store.DocumentFilter{Page: store.Page{Page: 2, Size: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Gamma", page.Items[0].Title)

	_, err = svc.CreateDocument(ctx, alice, store.CreateDocumentOptions{Title: "  "})
	assert.ErrorIs(t, err, store.ErrInvalidOperation)
}

func TestDocument_Update(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	a := mkNode(t, svc, "docs", "a")
	d, err := svc.CreateDocument(ctx, alice, store.CreateDocumentOptions{
		Title: "Draft", Type: "note", Metadata: map[string]any{"lang": "en"},
	})
	require.NoError(t, err)
	_, err = svc.Bind(ctx, alice, a.ID, d.ID, store.RelationOutput)
	require.NoError(t, err)

	title := "  Final  "
	got, err := svc.UpdateDocument(ctx, "bob", d.ID, store.UpdateDocumentOptions{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, "note", got.Type)
	assert.Equal(t, map[string]any{"lang": "en"}, got.Metadata)
	assert.Equal(t, "bob", got.UpdatedBy)
	assert.Equal(t, alice, got.CreatedBy)

	empty := ""
	got, err = svc.UpdateDocument(ctx, alice, d.ID, store.UpdateDocumentOptions{
		Type: &empty, Metadata: map[string]any{"pages": float64(3)},
	})
	require.NoError(t, err)
	assert.Empty(t, got.Type)

	stored, err := svc.GetDocument(ctx, d.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Final", stored.Title)
	assert.Empty(t, stored.Type)
	assert.Equal(t, map[string]any{"pages": float64(3)}, stored.Metadata, "metadata is replaced, not merged")

	assert.Equal(t, int64(1), count(t, svc, docs.ID), "edits leave counters alone")
	assertConsistent(t, svc)

	t.Run("errors", func(t *testing.T) {
		_, err := svc.UpdateDocument(ctx, "", d.ID, store.UpdateDocumentOptions{Title: &title})
		assert.ErrorIs(t, err, store.ErrMissingActor)

		blank := " "
		_, err = svc.UpdateDocument(ctx, alice, d.ID, store.UpdateDocumentOptions{Title: &blank})
		assert.ErrorIs(t, err, store.ErrInvalidOperation)

		_, err = svc.UpdateDocument(ctx, alice, 9999, store.UpdateDocumentOptions{Title: &title})
		assert.ErrorIs(t, err, store.ErrDocumentNotFound)

		_, err = svc.DeleteDocument(ctx, alice, d.ID)
		require.NoError(t, err)
		_, err = svc.UpdateDocument(ctx, alice, d.ID, store.UpdateDocumentOptions{Title: &title})
		assert.ErrorIs(t, err, store.ErrDocumentNotFound)
	})
}
