package purge_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/purge"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) *tree.Service {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tree.db"))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	svc := tree.Open(s, &config.Config{})
	t.Cleanup(func() { svc.Close() })
	return svc
}

func mk(t *testing.T, svc *tree.Service, parent, slug string) *store.Node {
	t.Helper()
	n, err := svc.CreateNode(context.Background(), "alice", store.CreateNodeOptions{Name: slug, Slug: slug, ParentPath: parent})
	require.NoError(t, err)
	return n
}

func TestRun(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	mk(t, svc, "", "docs")
	a := mk(t, svc, "docs", "a")
	mid := mk(t, svc, "docs.a", "mid")
	inner := mk(t, svc, "docs.a.mid", "inner")
	b := mk(t, svc, "docs", "b")
	keep := mk(t, svc, "", "keep")
	other := mk(t, svc, "keep", "other")

	// inner heads its own deleted branch under the active mid, and lies
	// inside a's subtree as well.
	for _, id := range []int64{inner.ID, a.ID, b.ID, other.ID} {
		_, err := svc.DeleteNode(ctx, "alice", id)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	res, err := purge.Run(ctx, &buf, svc, purge.Options{Prefix: "docs", DryRun: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"docs.a", "docs.a.mid.inner", "docs.b"}, res.Paths)
	assert.Contains(t, buf.String(), "Would purge 3 subtree(s)")
	_, err = svc.GetNode(ctx, a.ID, true)
	require.NoError(t, err, "dry run keeps rows")

	buf.Reset()
	res, err = purge.Run(ctx, &buf, svc, purge.Options{Prefix: "docs", Actor: "admin"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Nodes, "a, mid, inner and b")
	for _, id := range []int64{a.ID, mid.ID, inner.ID, b.ID} {
		_, err := svc.GetNode(ctx, id, true)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
	_, err = svc.GetNode(ctx, other.ID, true)
	require.NoError(t, err, "outside the prefix")
	_, err = svc.GetNode(ctx, keep.ID, false)
	require.NoError(t, err)

	hour := time.Hour
	buf.Reset()
	res, err = purge.Run(ctx, &buf, svc, purge.Options{OlderThan: &hour, Actor: "admin"})
	require.NoError(t, err)
	assert.Zero(t, res.Roots)
	assert.Equal(t, "No deleted nodes to purge\n", buf.String())

	_, err = purge.Run(ctx, &buf, svc, purge.Options{})
	assert.ErrorIs(t, err, store.ErrMissingActor)
}
