package tree_test

import (
	"context"
	"testing"

	"github.com/prehisle/ndr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_Rename(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	intro := mkNode(t, svc, "docs", "intro")
	setup := mkNode(t, svc, "docs.intro", "setup")

	n, err := svc.UpdateNode(ctx, "bob", docs.ID, store.UpdateNodeOptions{Name: ptr("Documentation"), Slug: ptr("manual")})
	require.NoError(t, err)
	assert.Equal(t, "Documentation", n.Name)
	assert.Equal(t, "manual", n.Path)
	assert.Equal(t, "bob", n.UpdatedBy)
	assert.Equal(t, 0, n.Position)

	got, err := svc.GetNode(ctx, intro.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "manual.intro", got.Path)
	assert.Equal(t, "manual", *got.ParentPath)

	got, err = svc.GetNode(ctx, setup.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "manual.intro.setup", got.Path)
	assert.Equal(t, "manual.intro", *got.ParentPath)

	_, err = svc.GetByPath(ctx, "docs.intro")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assertConsistent(t, svc)
}

func TestUpdate_NoChange(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")

	n, err := svc.UpdateNode(ctx, "bob", docs.ID, store.UpdateNodeOptions{Name: ptr("docs"), ParentPath: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, alice, n.UpdatedBy, "a no-op update writes nothing")
}

func TestUpdate_TypeOnly(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")

	n, err := svc.UpdateNode(ctx, alice, docs.ID, store.UpdateNodeOptions{Type: ptr(" chapter ")})
	require.NoError(t, err)
	assert.Equal(t, "chapter", n.Type)
	assert.Equal(t, "docs", n.Path)

	n, err = svc.UpdateNode(ctx, alice, docs.ID, store.UpdateNodeOptions{Type: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "", n.Type)
}

func TestUpdate_MoveRewritesSubtree(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	mkNode(t, svc, "", "docs")
	a := mkNode(t, svc, "docs", "a")
	b := mkNode(t, svc, "docs", "b")
	c := mkNode(t, svc, "docs", "c")
	a1 := mkNode(t, svc, "docs.a", "one")
	a2 := mkNode(t, svc, "docs.a.one", "two")
	guides := mkNode(t, svc, "", "guides")
	g := mkNode(t, svc, "guides", "g")

	n, err := svc.UpdateNode(ctx, alice, a.ID, store.UpdateNodeOptions{ParentPath: ptr("guides")})
	require.NoError(t, err)
	assert.Equal(t, "guides.a", n.Path)
	assert.Equal(t, guides.ID, *n.ParentID)
	assert.Equal(t, 1, n.Position, "appended after existing children")

	for id, want := range map[int64]string{a1.ID: "guides.a.one", a2.ID: "guides.a.one.two"} {
		got, err := svc.GetNode(ctx, id, false)
		require.NoError(t, err)
		assert.Equal(t, want, got.Path)
	}
	got, err := svc.GetNode(ctx, a2.ID, false)
	require.NoError(t, err)
	assert.Equal(t, a1.ID, *got.ParentID, "parent links are unchanged below the moved node")
	assert.Equal(t, "guides.a.one", *got.ParentPath)

	// Former siblings compact, untouched nodes keep their positions.
	got, err = svc.GetNode(ctx, b.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Position)
	got, err = svc.GetNode(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Position)
	got, err = svc.GetNode(ctx, g.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Position)
	assertConsistent(t, svc)
}

func TestUpdate_MoveToRoot(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	mkNode(t, svc, "", "docs")
	intro := mkNode(t, svc, "docs", "intro")

	n, err := svc.UpdateNode(ctx, alice, intro.ID, store.UpdateNodeOptions{ParentPath: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "intro", n.Path)
	assert.Nil(t, n.ParentID)
	assert.Nil(t, n.ParentPath)
	assert.Equal(t, 1, n.Position)
	assertConsistent(t, svc)
}

func TestUpdate_MoveErrors(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	mkNode(t, svc, "docs", "intro")
	mkNode(t, svc, "docs.intro", "deep")
	other := mkNode(t, svc, "", "other")
	mkNode(t, svc, "other", "intro")
	named := mkNode(t, svc, "", "named")
	_, err := svc.UpdateNode(ctx, alice, named.ID, store.UpdateNodeOptions{Name: ptr("intro")})
	require.NoError(t, err)

	_, err = svc.UpdateNode(ctx, alice, docs.ID, store.UpdateNodeOptions{ParentPath: ptr("docs")})
	assert.ErrorIs(t, err, store.ErrInvalidOperation, "under itself")

	_, err = svc.UpdateNode(ctx, alice, docs.ID, store.UpdateNodeOptions{ParentPath: ptr("docs.intro.deep")})
	assert.ErrorIs(t, err, store.ErrInvalidOperation, "into own subtree")

	_, err = svc.UpdateNode(ctx, alice, docs.ID, store.UpdateNodeOptions{ParentPath: ptr("missing")})
	assert.ErrorIs(t, err, store.ErrParentNotFound)

	intro, err := svc.GetByPath(ctx, "docs.intro")
	require.NoError(t, err)
	_, err = svc.UpdateNode(ctx, alice, intro.ID, store.UpdateNodeOptions{ParentPath: ptr("other")})
	assert.ErrorIs(t, err, store.ErrConflict, "other.intro exists")

	// A root named "intro" already exists, so intro cannot become a root.
	_, err = svc.UpdateNode(ctx, alice, intro.ID, store.UpdateNodeOptions{ParentPath: ptr("")})
	assert.ErrorIs(t, err, store.ErrNameConflict)

	_, err = svc.UpdateNode(ctx, alice, other.ID, store.UpdateNodeOptions{Slug: ptr("docs")})
	assert.ErrorIs(t, err, store.ErrPathConflict)

	_, err = svc.UpdateNode(ctx, alice, docs.ID, store.UpdateNodeOptions{Slug: ptr("No Spaces")})
	assert.ErrorIs(t, err, store.ErrInvalidOperation)

	_, err = svc.UpdateNode(ctx, alice, 9999, store.UpdateNodeOptions{Name: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNodeNotFound)

	// Failed moves leave the tree as it was.
	got, err := svc.GetByPath(ctx, "docs.intro.deep")
	require.NoError(t, err)
	assert.Equal(t, "deep", got.Name)
	assertConsistent(t, svc)
}

func TestUpdate_MoveCarriesCounters(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	docs := mkNode(t, svc, "", "docs")
	intro := mkNode(t, svc, "docs", "intro")
	leaf := mkNode(t, svc, "docs.intro", "leaf")
	guides := mkNode(t, svc, "", "guides")
	d1, d2 := mkDoc(t, svc, "One"), mkDoc(t, svc, "Two")

	_, err := svc.Bind(ctx, alice, intro.ID, d1.ID, store.RelationOutput)
	require.NoError(t, err)
	_, err = svc.Bind(ctx, alice, leaf.ID, d2.ID, store.RelationOutput)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count(t, svc, docs.ID))
	assert.Equal(t, int64(1), count(t, svc, intro.ID))

	_, err = svc.UpdateNode(ctx, alice, intro.ID, store.UpdateNodeOptions{ParentPath: ptr("guides")})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count(t, svc, docs.ID))
	assert.Equal(t, int64(2), count(t, svc, guides.ID))
	assert.Equal(t, int64(1), count(t, svc, intro.ID))
	assertConsistent(t, svc)
}

// A node under a soft-deleted parent can take the parent's old path. The
// rewritten child then lands on the moved node's own former path, which
// only works because the rows are parked first.
func TestUpdate_MoveOntoOwnFormerPrefix(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	a := mkNode(t, svc, "", "a")
	b := mkNode(t, svc, "a", "b")
	bb := mkNode(t, svc, "a.b", "b")
	d := mkDoc(t, svc, "Doc")
	_, err := svc.Bind(ctx, alice, bb.ID, d.ID, store.RelationOutput)
	require.NoError(t, err)

	_, err = svc.DeleteNode(ctx, alice, a.ID)
	require.NoError(t, err)

	n, err := svc.UpdateNode(ctx, alice, b.ID, store.UpdateNodeOptions{Slug: ptr("a"), ParentPath: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "a", n.Path)
	assert.Nil(t, n.ParentID)

	got, err := svc.GetNode(ctx, bb.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "a.b", got.Path)
	assert.Equal(t, "a", *got.ParentPath)
	assert.Equal(t, b.ID, *got.ParentID)

	byPath, err := svc.GetByPath(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, b.ID, byPath.ID)
	assert.Equal(t, int64(1), count(t, svc, b.ID))
	assert.Equal(t, int64(0), count(t, svc, a.ID))

	// The deleted parent's path is now taken.
	_, err = svc.RestoreNode(ctx, alice, a.ID)
	assert.ErrorIs(t, err, store.ErrConflict)
	assertConsistent(t, svc)
}

func TestUpdate_MoveUnderReusedParentPath(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	old := mkNode(t, svc, "", "a")
	child := mkNode(t, svc, "a", "x")
	d := mkDoc(t, svc, "Doc")
	_, err := svc.Bind(ctx, alice, child.ID, d.ID, store.RelationOutput)
	require.NoError(t, err)
	_, err = svc.DeleteNode(ctx, alice, old.ID)
	require.NoError(t, err)
	fresh, err := svc.CreateNode(ctx, alice, store.CreateNodeOptions{Name: "A2", Slug: "a"})
	require.NoError(t, err)

	// Same parent path string, different parent: the child is relinked and
	// its counter contribution follows it.
	n, err := svc.UpdateNode(ctx, alice, child.ID, store.UpdateNodeOptions{ParentPath: ptr("a")})
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, *n.ParentID)
	assert.Equal(t, "a.x", n.Path)
	assert.Equal(t, 0, n.Position)
	assert.Equal(t, int64(1), count(t, svc, fresh.ID))
	assert.Equal(t, int64(0), count(t, svc, old.ID))

	sub, err := svc.SubtreeDocuments(ctx, old.ID, store.SubtreeDocumentsOptions{IncludeDescendants: true, IncludeDeletedNodes: true})
	require.NoError(t, err)
	assert.Empty(t, sub.Items, "the old parent no longer reaches the child")
	assertConsistent(t, svc)
}
