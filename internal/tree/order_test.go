package tree_test

import (
	"context"
	"testing"

	"github.com/prehisle/ndr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorder_PartialSubset(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	a := mkNode(t, svc, "docs", "a")
	b := mkNode(t, svc, "docs", "b")
	c := mkNode(t, svc, "docs", "c")
	d := mkNode(t, svc, "docs", "d")

	out, err := svc.ReorderChildren(ctx, "bob", docs.ID, []int64{d.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.d", "docs.b", "docs.a", "docs.c"}, paths(out))
	for i, n := range out {
		assert.Equal(t, i, n.Position)
	}

	kids, err := svc.ListChildren(ctx, docs.ID, store.ChildrenOptions{Depth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.d", "docs.b", "docs.a", "docs.c"}, paths(kids))

	// Only moved rows are touched: b stays at 1.
	got, err := svc.GetNode(ctx, a.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.UpdatedBy)
	got, err = svc.GetNode(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.UpdatedBy)
	got, err = svc.GetNode(ctx, b.ID, false)
	require.NoError(t, err)
	assert.Equal(t, alice, got.UpdatedBy)
	assertConsistent(t, svc)
}

func TestReorder_UnchangedRowsKeepAudit(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	a := mkNode(t, svc, "docs", "a")
	b := mkNode(t, svc, "docs", "b")
	c := mkNode(t, svc, "docs", "c")

	_, err := svc.ReorderChildren(ctx, "bob", docs.ID, []int64{b.ID, a.ID})
	require.NoError(t, err)
	got, err := svc.GetNode(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Position)
	assert.Equal(t, alice, got.UpdatedBy)
}

func TestReorder_Roots(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	a := mkNode(t, svc, "", "a")
	b := mkNode(t, svc, "", "b")

	out, err := svc.ReorderChildren(ctx, alice, 0, []int64{b.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, []int64{out[0].ID, out[1].ID})
}

func TestReorder_Errors(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	a := mkNode(t, svc, "docs", "a")
	other := mkNode(t, svc, "", "other")
	leaf := mkNode(t, svc, "", "leaf")

	_, err := svc.ReorderChildren(ctx, alice, docs.ID, []int64{a.ID, a.ID})
	assert.ErrorIs(t, err, store.ErrInvalidOperation)

	_, err = svc.ReorderChildren(ctx, alice, docs.ID, []int64{other.ID})
	assert.ErrorIs(t, err, store.ErrNodeNotFound, "not a child of docs")

	_, err = svc.ReorderChildren(ctx, alice, leaf.ID, []int64{a.ID})
	assert.ErrorIs(t, err, store.ErrNotFound, "leaf has no children")

	_, err = svc.ReorderChildren(ctx, alice, 9999, []int64{a.ID})
	assert.ErrorIs(t, err, store.ErrParentNotFound)

	out, err := svc.ReorderChildren(ctx, alice, leaf.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListChildren(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	for _, slug := range []string{"b", "a"} {
		mkNode(t, svc, "docs", slug)
	}
	mkNode(t, svc, "docs.b", "b1")
	_, err := svc.CreateNode(ctx, alice, store.CreateNodeOptions{Name: "A1", Slug: "a1", ParentPath: "docs.a", Type: "page"})
	require.NoError(t, err)
	_, err = svc.CreateNode(ctx, alice, store.CreateNodeOptions{Name: "Deep", Slug: "deep", ParentPath: "docs.b.b1", Type: "page"})
	require.NoError(t, err)
	mkNode(t, svc, "", "docs2")

	kids, err := svc.ListChildren(ctx, docs.ID, store.ChildrenOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.b", "docs.a"}, paths(kids), "depth below 1 is 1, sorted by position")

	kids, err = svc.ListChildren(ctx, docs.ID, store.ChildrenOptions{Depth: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.b", "docs.a", "docs.b.b1", "docs.a.a1"}, paths(kids))

	// The type filter hides b1 but the walk still reaches its child.
	kids, err = svc.ListChildren(ctx, docs.ID, store.ChildrenOptions{Depth: 3, Type: "page"})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.a.a1", "docs.b.b1.deep"}, paths(kids))

	leaf, err := svc.GetByPath(ctx, "docs.b.b1.deep")
	require.NoError(t, err)
	kids, err = svc.ListChildren(ctx, leaf.ID, store.ChildrenOptions{Depth: 5})
	require.NoError(t, err)
	assert.NotNil(t, kids)
	assert.Empty(t, kids)

	_, err = svc.ListChildren(ctx, 9999, store.ChildrenOptions{})
	assert.ErrorIs(t, err, store.ErrNodeNotFound)
}
