package cmd

import (
	"testing"

	"github.com/prehisle/ndr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purgeOutput struct {
	Roots      int              `json:"roots"`
	Nodes      int64            `json:"nodes"`
	Bindings   int64            `json:"bindings"`
	Paths      []string         `json:"paths"`
	DryRun     bool             `json:"dry_run"`
	Extensions map[string]int64 `json:"extensions"`
}

func TestPurge(t *testing.T) {
	env := newTestEnv(t)
	env.mk("docs")
	old := env.mk("docs.old")
	env.mk("docs.old.child")
	env.mk("blog")
	env.mk("blog.draft")
	d := env.addDoc("Attached")
	env.run("bind", "docs.old.child", id(d))
	env.run("node", "rm", "docs.old")
	env.run("node", "rm", "blog.draft")

	t.Run("dry run lists candidates", func(t *testing.T) {
		out := env.run("purge", "--dry-run")
		env.contains(out, "Would purge: docs.old")
		env.contains(out, "Would purge: blog.draft")
		env.contains(out, "Would purge 2 subtree(s)")

		var res purgeOutput
		env.runJSON(&res, "purge", "--dry-run")
		assert.True(t, res.DryRun)
		assert.ElementsMatch(t, []string{"docs.old", "blog.draft"}, res.Paths)
	})

	t.Run("retention window keeps recent deletions", func(t *testing.T) {
		out := env.run("purge", "--older-than", "7d", "--force")
		env.contains(out, "No deleted nodes to purge")
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := env.runErr("purge", "--older-than", "soon")
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		out := env.runStdin("n\n", "purge")
		env.contains(out, "Cancelled")
	})

	t.Run("path prefix", func(t *testing.T) {
		var res purgeOutput
		env.runJSON(&res, "purge", "--path", "docs")
		assert.Equal(t, 1, res.Roots)
		assert.Equal(t, int64(2), res.Nodes)
		assert.Equal(t, int64(1), res.Bindings)
		assert.Equal(t, []string{"docs.old"}, res.Paths)

		_, err := env.runErr("node", "get", ref(old.ID), "--all")
		assert.Error(t, err)

		var doc store.DocumentJSON
		env.runJSON(&doc, "doc", "get", id(d))
		assert.Equal(t, d.ID, doc.ID, "documents survive a purge")
	})

	t.Run("everything else", func(t *testing.T) {
		out := env.run("purge", "--force")
		env.contains(out, "Purged 1 node(s)")

		var res purgeOutput
		env.runJSON(&res, "purge", "--force")
		assert.Zero(t, res.Roots)
		require.NotNil(t, res.Paths)
	})
}
