package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prehisle/ndr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore creates a temporary SQLite store for testing.
// Returns the store and a cleanup function.
func setupStore(t *testing.T) (*store.SQLStore, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "ndr-store-test-*")
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Init())

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

// addNode inserts a node row directly, appending it to its parent's children.
func addNode(t *testing.T, q *store.Querier, slug string, parent *store.Node) *store.Node {
	t.Helper()
	ctx := context.Background()
	n := &store.Node{Name: slug, Slug: slug, Path: slug, CreatedBy: "alice", UpdatedBy: "alice"}
	var parentKey int64
	if parent != nil {
		n.ParentID = &parent.ID
		pp := parent.Path
		n.ParentPath = &pp
		n.Path = parent.Path + "." + slug
		parentKey = parent.ID
	}
	pos, err := q.NextPosition(ctx, parentKey)
	require.NoError(t, err)
	n.Position = pos
	require.NoError(t, q.InsertNode(ctx, n))
	return n
}

func addDocument(t *testing.T, q *store.Querier, title string, md map[string]any) *store.Document {
	t.Helper()
	d := &store.Document{Title: title, Metadata: md, CreatedBy: "alice", UpdatedBy: "alice"}
	require.NoError(t, q.InsertDocument(context.Background(), d))
	return d
}

func addBinding(t *testing.T, q *store.Querier, n *store.Node, d *store.Document, rel store.RelationType) {
	t.Helper()
	b := &store.Binding{NodeID: n.ID, DocumentID: d.ID, RelationType: rel, CreatedBy: "alice", UpdatedBy: "alice"}
	require.NoError(t, q.InsertBinding(context.Background(), b))
}

func paths(nodes []store.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path
	}
	return out
}

func TestStore_InsertAndLoad(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	docs := addNode(t, q, "docs", nil)
	intro := addNode(t, q, "intro", docs)

	got, err := q.Node(ctx, intro.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "docs.intro", got.Path)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, docs.ID, *got.ParentID)
	assert.Equal(t, "docs", *got.ParentPath)
	assert.Equal(t, store.StateActive, got.State())

	byPath, err := q.NodeByPath(ctx, "docs.intro")
	require.NoError(t, err)
	assert.Equal(t, intro.ID, byPath.ID)

	_, err = q.Node(ctx, 9999, true)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, err, store.ErrNodeNotFound)
}

func TestStore_UniqueIndexes(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	addNode(t, q, "docs", nil)

	t.Run("duplicate active path", func(t *testing.T) {
		n := &store.Node{Name: "other", Slug: "docs", Path: "docs", CreatedBy: "a", UpdatedBy: "a"}
		err := q.InsertNode(ctx, n)
		assert.ErrorIs(t, err, store.ErrConflict)
	})

	t.Run("duplicate root name", func(t *testing.T) {
		n := &store.Node{Name: "docs", Slug: "docs2", Path: "docs2", CreatedBy: "a", UpdatedBy: "a"}
		err := q.InsertNode(ctx, n)
		assert.ErrorIs(t, err, store.ErrConflict)
	})

	t.Run("soft-deleted path is reusable", func(t *testing.T) {
		old, err := q.NodeByPath(ctx, "docs")
		require.NoError(t, err)
		_, err = q.SetDeleted(ctx, old.ID, true, "a")
		require.NoError(t, err)

		n := &store.Node{Name: "docs", Slug: "docs", Path: "docs", CreatedBy: "a", UpdatedBy: "a"}
		require.NoError(t, q.InsertNode(ctx, n))

		_, err = q.SetDeleted(ctx, old.ID, false, "a")
		assert.ErrorIs(t, err, store.ErrConflict)
	})
}

func TestStore_SegmentAwareContainment(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	docs := addNode(t, q, "docs", nil)
	intro := addNode(t, q, "intro", docs)
	addNode(t, q, "setup", intro)
	docs2 := addNode(t, q, "docs2", nil)
	addNode(t, q, "other", docs2)
	pct := addNode(t, q, "a_b", nil)
	addNode(t, q, "x", pct)
	axb := addNode(t, q, "axb", nil)
	addNode(t, q, "y", axb)

	sub, err := q.Subtree(ctx, docs, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "docs.intro", "docs.intro.setup"}, paths(sub))

	// "_" is a LIKE wildcard and must be matched literally
	sub, err = q.Subtree(ctx, pct, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b", "a_b.x"}, paths(sub))

	desc, err := q.Descendants(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.intro", "docs.intro.setup"}, paths(desc))
}

func TestStore_ConnectivityFiltersStalePaths(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	oldDocs := addNode(t, q, "docs", nil)
	addNode(t, q, "orphan", oldDocs)
	_, err := q.SetDeleted(ctx, oldDocs.ID, true, "a")
	require.NoError(t, err)

	newDocs := &store.Node{Name: "docs-new", Slug: "docs", Path: "docs", Position: 1, CreatedBy: "a", UpdatedBy: "a"}
	require.NoError(t, q.InsertNode(ctx, newDocs))
	addNode(t, q, "mine", newDocs)

	sub, err := q.Subtree(ctx, newDocs, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "docs.mine"}, paths(sub))

	children, err := q.Children(ctx, newDocs, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.mine"}, paths(children))

	// The deleted node still owns its own subtree
	sub, err = q.Subtree(ctx, oldDocs, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "docs.orphan"}, paths(sub))
	assert.Equal(t, oldDocs.ID, sub[0].ID)
}

func TestStore_ChildrenDepth(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	a := addNode(t, q, "a", nil)
	b := addNode(t, q, "b", a)
	c := addNode(t, q, "c", b)
	addNode(t, q, "d", c)

	for _, tt := range []struct {
		depth int
		want  []string
	}{
		{1, []string{"a.b"}},
		{2, []string{"a.b", "a.b.c"}},
		{10, []string{"a.b", "a.b.c", "a.b.c.d"}},
	} {
		got, err := q.Children(ctx, a, tt.depth)
		require.NoError(t, err)
		assert.Equal(t, tt.want, paths(got), "depth %d", tt.depth)
	}

	// A deleted intermediate hides everything below it
	_, err := q.SetDeleted(ctx, c.ID, true, "a")
	require.NoError(t, err)
	got, err := q.Children(ctx, a, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b"}, paths(got))
}

func TestStore_Ancestors(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	a := addNode(t, q, "a", nil)
	b := addNode(t, q, "b", a)
	c := addNode(t, q, "c", b)

	ids, err := q.AncestorIDs(ctx, c.Path)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids)

	chain, err := q.Ancestors(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b", "a"}, paths(chain))

	chain, err = q.Ancestors(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestStore_Positions(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	root := addNode(t, q, "root", nil)
	var kids []*store.Node
	for _, slug := range []string{"a", "b", "c", "d"} {
		kids = append(kids, addNode(t, q, slug, root))
	}
	for i, k := range kids {
		assert.Equal(t, i, k.Position)
	}

	_, err := q.SetDeleted(ctx, kids[1].ID, true, "a")
	require.NoError(t, err)
	require.NoError(t, q.NormalizePositions(ctx, root.ID))

	sibs, err := q.Siblings(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"root.a", "root.c", "root.d"}, paths(sibs))
	for i, n := range sibs {
		assert.Equal(t, i, n.Position)
	}

	next, err := q.NextPosition(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	next, err = q.NextPosition(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestStore_CounterWalkStopsAfterDeletedAncestor(t *testing.T) {
	deleted := int64(1)
	chain := []store.Node{{ID: 3}, {ID: 2, DeletedAt: &deleted}, {ID: 1}}
	assert.Equal(t, []int64{3, 2}, store.CounterWalk(chain))
	assert.Empty(t, store.CounterWalk(nil))
}

func TestStore_RecountMatchesAttributionRule(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	a := addNode(t, q, "a", nil)
	b := addNode(t, q, "b", a)
	c := addNode(t, q, "c", b)
	d1 := addDocument(t, q, "one", nil)
	d2 := addDocument(t, q, "two", nil)
	d3 := addDocument(t, q, "three", nil)
	addBinding(t, q, c, d1, store.RelationOutput)
	addBinding(t, q, b, d2, store.RelationOutput)
	addBinding(t, q, c, d3, store.RelationSource)

	res, err := q.Recount(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Nodes)
	assert.True(t, res.Applied)

	counts := func() map[string]int64 {
		out := map[string]int64{}
		for _, id := range []int64{a.ID, b.ID, c.ID} {
			n, err := q.Node(ctx, id, true)
			require.NoError(t, err)
			out[n.Path] = n.SubtreeDocCount
		}
		return out
	}
	assert.Equal(t, map[string]int64{"a": 2, "a.b": 1, "a.b.c": 0}, counts())

	live, err := q.LiveCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), live)

	direct, err := q.DirectOutputCount(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), direct)

	// Deleting b stops attribution at b: b keeps counting c, a loses both
	_, err = q.SetDeleted(ctx, b.ID, true, "a")
	require.NoError(t, err)
	res, err = q.Recount(ctx, false)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	require.Len(t, res.Changed, 1)
	assert.Equal(t, store.CounterChange{NodeID: a.ID, Path: "a", Stored: 2, Computed: 0}, res.Changed[0])

	// Deleting the document removes it everywhere
	require.NoError(t, q.SetDocumentDeleted(ctx, d1.ID, true, "a"))
	_, err = q.Recount(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 0, "a.b": 0, "a.b.c": 0}, counts())
}

func TestStore_AdjustAbove(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	a := addNode(t, q, "a", nil)
	b := addNode(t, q, "b", a)
	c := addNode(t, q, "c", b)

	require.NoError(t, q.AdjustAbove(ctx, c.ID, 2))
	for _, tc := range []struct {
		id   int64
		want int64
	}{{a.ID, 2}, {b.ID, 2}, {c.ID, 0}} {
		n, err := q.Node(ctx, tc.id, true)
		require.NoError(t, err)
		assert.Equal(t, tc.want, n.SubtreeDocCount)
	}
}

func TestStore_DocumentsForNodes(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	a := addNode(t, q, "a", nil)
	b := addNode(t, q, "b", a)
	plan := addDocument(t, q, "Design Plan", map[string]any{"lang": "go", "tags": []any{"core", "tree"}})
	notes := addDocument(t, q, "Meeting notes", map[string]any{"lang": "en"})
	gone := addDocument(t, q, "Old plan", nil)
	addBinding(t, q, a, plan, store.RelationOutput)
	addBinding(t, q, b, plan, store.RelationOutput)
	addBinding(t, q, b, notes, store.RelationSource)
	addBinding(t, q, b, gone, store.RelationOutput)
	require.NoError(t, q.SetDocumentDeleted(ctx, gone.ID, true, "a"))

	ids := []int64{a.ID, b.ID}
	titles := func(p *store.DocumentPage) []string {
		var out []string
		for _, d := range p.Items {
			out = append(out, d.Title)
		}
		return out
	}

	page, err := q.DocumentsForNodes(ctx, ids, false, store.DocumentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Design Plan", "Meeting notes"}, titles(page))
	assert.Equal(t, int64(2), page.Total)

	page, err = q.DocumentsForNodes(ctx, ids, false, store.DocumentFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Design Plan", "Meeting notes", "Old plan"}, titles(page))

	page, err = q.DocumentsForNodes(ctx, ids, false, store.DocumentFilter{RelationType: store.RelationSource})
	require.NoError(t, err)
	assert.Equal(t, []string{"Meeting notes"}, titles(page))

	page, err = q.DocumentsForNodes(ctx, ids, false, store.DocumentFilter{Query: "PLAN", IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Design Plan", "Old plan"}, titles(page))

	page, err = q.DocumentsForNodes(ctx, ids, false, store.DocumentFilter{Metadata: map[string]string{"tags": "tree"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Design Plan"}, titles(page))

	page, err = q.DocumentsForNodes(ctx, ids, false, store.DocumentFilter{Page: store.Page{Page: 2, Size: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Meeting notes"}, titles(page))
	assert.Equal(t, int64(2), page.Total)
}

func TestStore_TxRollsBackAndReleasesLocks(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx *store.Tx) error {
		require.NoError(t, tx.Lock(ctx, 0))
		addNode(t, tx.Querier, "temp", nil)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Reader().NodeByPath(ctx, "temp")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The root lock must be free again
	err = s.Tx(ctx, func(tx *store.Tx) error {
		if err := tx.Lock(ctx, 0); err != nil {
			return err
		}
		addNode(t, tx.Querier, "kept", nil)
		return nil
	})
	require.NoError(t, err)
	_, err = s.Reader().NodeByPath(ctx, "kept")
	assert.NoError(t, err)
}

func TestStore_LtreeUnavailableOnSQLite(t *testing.T) {
	dir := t.TempDir()
	s, err := store.OpenWith(store.Options{Driver: store.DriverSQLite, DSN: filepath.Join(dir, "t.db"), PathIndex: store.PathIndexLtree})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init())
	ctx := context.Background()
	q := s.Reader()

	assert.Equal(t, "unavailable", s.PathIndex())
	root := addNode(t, q, "docs", nil)

	_, err = q.Subtree(ctx, root, false)
	assert.ErrorIs(t, err, store.ErrCapabilityUnavailable)
	_, err = q.Children(ctx, root, 1)
	assert.ErrorIs(t, err, store.ErrCapabilityUnavailable)
}

func TestStore_Stats(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	q := s.Reader()

	a := addNode(t, q, "a", nil)
	b := addNode(t, q, "b", a)
	d := addDocument(t, q, "doc", nil)
	addBinding(t, q, b, d, store.RelationOutput)
	_, err := q.SetDeleted(ctx, b.ID, true, "alice")
	require.NoError(t, err)

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Nodes)
	assert.Equal(t, int64(1), st.DeletedNodes)
	assert.Equal(t, int64(1), st.Roots)
	assert.Equal(t, 1, st.MaxDepth)
	assert.Equal(t, int64(1), st.OutputBindings)
	assert.Equal(t, "segment", st.PathIndex)
	assert.NotZero(t, st.OldestDeletedAt)
}
