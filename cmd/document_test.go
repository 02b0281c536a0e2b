package cmd

import (
	"testing"

	"github.com/prehisle/ndr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Add(t *testing.T) {
	env := newTestEnv(t)

	d := env.addDoc("Getting started", "--type", "guide",
		"--meta", "lang=en", "--meta", "pages=12", "--meta", "draft=true")
	assert.Positive(t, d.ID)
	assert.Equal(t, "Getting started", d.Title)
	assert.Equal(t, "guide", d.Type)
	assert.Equal(t, testActor, d.CreatedBy)
	assert.Equal(t, "en", d.Metadata["lang"])
	assert.Equal(t, float64(12), d.Metadata["pages"], "JSON values keep their type")
	assert.Equal(t, true, d.Metadata["draft"])

	out := env.run("doc", "get", id(d))
	env.contains(out, "Title:    Getting started")
	env.contains(out, `"lang": "en"`)

	_, err := env.runErr("doc", "add", "Bad", "--meta", "novalue")
	assert.Error(t, err)
	_, err = env.runErr("doc", "get", "0")
	assert.Error(t, err)
}

func TestDocument_Set(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDoc("Draft", "--type", "note", "--meta", "lang=en")

	var got store.DocumentJSON
	env.runJSON(&got, "doc", "set", id(d), "--title", "Final", "--actor", "bob")
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, "note", got.Type, "untouched fields keep their value")
	assert.Equal(t, "en", got.Metadata["lang"])
	assert.Equal(t, "bob", got.UpdatedBy)

	env.runJSON(&got, "doc", "set", id(d), "--type", "", "--meta", "pages=3")
	assert.Empty(t, got.Type)
	assert.Equal(t, map[string]any{"pages": float64(3)}, got.Metadata, "--meta replaces the metadata")

	out := env.run("doc", "get", id(d))
	env.contains(out, "Title:    Final")

	_, err := env.runErr("doc", "set", id(d))
	assert.Error(t, err, "no flags is an error")

	env.run("doc", "rm", id(d))
	_, err = env.runErr("doc", "set", id(d), "--title", "Again")
	assert.Error(t, err, "deleted documents cannot be edited")
}

func TestDocument_Ls(t *testing.T) {
	env := newTestEnv(t)
	env.addDoc("Alpha note", "--type", "note")
	env.addDoc("Beta note", "--type", "note")
	env.addDoc("Gamma page", "--type", "page")

	var p store.DocumentPageJSON
	env.runJSON(&p, "doc", "ls")
	assert.Equal(t, int64(3), p.Total)

	env.runJSON(&p, "doc", "ls", "--type", "note")
	assert.Equal(t, int64(2), p.Total)

	env.runJSON(&p, "doc", "ls", "-q", "gamma")
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Gamma page", p.Items[0].Title)

	env.runJSON(&p, "doc", "ls", "--size", "1")
	assert.Len(t, p.Items, 1)
	assert.Equal(t, int64(3), p.Total)
	assert.Equal(t, 1, p.Size)
}

func TestDocument_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.mk("docs")
	env.mk("docs.a")
	d := env.addDoc("Roadmap")
	env.run("bind", "docs.a", id(d))
	require.Equal(t, int64(1), env.count("docs"))

	out := env.run("doc", "rm", id(d))
	env.contains(out, "Deleted document")
	assert.Zero(t, env.count("docs"), "a deleted document stops counting")

	_, err := env.runErr("doc", "get", id(d))
	assert.Error(t, err)
	var got store.DocumentJSON
	env.runJSON(&got, "doc", "get", id(d), "--all")
	assert.NotNil(t, got.DeletedAt)

	var p store.DocumentPageJSON
	env.runJSON(&p, "doc", "ls")
	assert.Zero(t, p.Total)
	env.runJSON(&p, "doc", "ls", "--all")
	assert.Equal(t, int64(1), p.Total)

	env.run("doc", "restore", id(d))
	assert.Equal(t, int64(1), env.count("docs"), "restoring counts it again")

	t.Run("purge needs a soft delete first", func(t *testing.T) {
		out, err := env.runErr("doc", "purge", id(d), "--force")
		require.Error(t, err)
		assert.Contains(t, out, "not soft-deleted")
	})

	t.Run("purge removes bindings", func(t *testing.T) {
		env.run("doc", "rm", id(d))

		out := env.runStdin("n\n", "doc", "purge", id(d))
		env.contains(out, "Cancelled")

		var res map[string]int64
		env.runJSON(&res, "doc", "purge", id(d))
		assert.Equal(t, d.ID, res["document_id"])
		assert.Equal(t, int64(1), res["bindings"])

		_, err := env.runErr("doc", "get", id(d), "--all")
		assert.Error(t, err)
		var bs []store.BindingJSON
		env.runJSON(&bs, "bindings", "docs.a", "--all")
		assert.Empty(t, bs)
	})
}
