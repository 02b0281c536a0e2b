package outline_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/outline"
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

func create(t *testing.T, svc *tree.Service, parent, slug, name, typ string) {
	t.Helper()
	_, err := svc.CreateNode(context.Background(), "alice", store.CreateNodeOptions{
		Name: name, Slug: slug, ParentPath: parent, Type: typ,
	})
	require.NoError(t, err)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := setupService(t)
	ctx := context.Background()
	create(t, src, "", "docs", "Documentation", "book")
	create(t, src, "docs", "setup", "Setup", "")
	create(t, src, "docs", "intro", "Introduction", "chapter")
	create(t, src, "docs.intro", "why", "Why", "")

	e, err := outline.Export(ctx, src, "docs", 10)
	require.NoError(t, err)
	assert.Equal(t, "Documentation", e.Name)
	require.Len(t, e.Children, 2)
	assert.Equal(t, "setup", e.Children[0].Slug, "children keep position order")
	assert.Equal(t, "why", e.Children[1].Children[0].Slug)

	for _, f := range []outline.Format{outline.YAML, outline.JSON} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, outline.Encode(&buf, e, f))
			entries, err := outline.Decode(&buf, f)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, *e, entries[0])

			dst := setupService(t)
			create(t, dst, "", "mirror", "Mirror", "")
			var log bytes.Buffer
			res, err := outline.Import(ctx, &log, dst, entries, outline.Options{Parent: "mirror", Actor: "bob"})
			require.NoError(t, err)
			assert.Equal(t, []string{"mirror.docs", "mirror.docs.setup", "mirror.docs.intro", "mirror.docs.intro.why"}, res.Paths)

			got, err := outline.Export(ctx, dst, "mirror.docs", 10)
			require.NoError(t, err)
			assert.Equal(t, e, got)
		})
	}
}

func TestDecode_List(t *testing.T) {
	in := `
- name: A
  slug: a
- name: B
  slug: b
  children:
    - name: C
      slug: c
`
	entries, err := outline.Decode(strings.NewReader(in), outline.YAML)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[1].Children[0].Slug)

	_, err = outline.Decode(strings.NewReader("{not json"), outline.JSON)
	assert.Error(t, err)
}

func TestImport_DryRunAndErrors(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	entries := []outline.Entry{{Name: "A", Slug: "a", Children: []outline.Entry{{Name: "B", Slug: "b"}}}}

	var buf bytes.Buffer
	res, err := outline.Import(ctx, &buf, svc, entries, outline.Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.b"}, res.Paths)
	assert.Contains(t, buf.String(), "Would create: a.b")
	_, err = svc.GetByPath(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound, "dry run writes nothing")

	_, err = outline.Import(ctx, &buf, svc, entries, outline.Options{Parent: "missing", Actor: "bob"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	bad := []outline.Entry{{Name: "Bad", Slug: "Not A Slug"}}
	_, err = outline.Import(ctx, &buf, svc, bad, outline.Options{Actor: "bob"})
	assert.ErrorIs(t, err, store.ErrInvalidOperation)

	_, err = outline.ParseFormat("toml")
	assert.Error(t, err)
}
