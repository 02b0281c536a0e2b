package repo_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prehisle/ndr/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBFileName(t *testing.T) {
	assert.Equal(t, "ndr.db", repo.DBFileName(""))
	assert.Equal(t, "ndr-docs.db", repo.DBFileName("docs"))
	assert.Equal(t, "custom.db", repo.DBFileName("custom.db"))
}

func TestInit_SQLite(t *testing.T) {
	dir := t.TempDir()

	loc, err := repo.Init(repo.InitOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".ndr", "ndr.db"), loc)
	assert.FileExists(t, loc)
	assert.FileExists(t, filepath.Join(dir, ".ndr", ".gitignore"))

	_, err = repo.Init(repo.InitOptions{Dir: dir})
	assert.ErrorContains(t, err, "already exists")

	_, err = repo.Init(repo.InitOptions{Dir: dir, Force: true})
	assert.NoError(t, err)

	found, err := repo.Locate("", dir)
	require.NoError(t, err)
	assert.Equal(t, loc, found)

	_, err = repo.Locate("missing", dir)
	assert.ErrorIs(t, err, repo.ErrNotInitialised)
}

func TestInit_LocalDatabaseIsIgnored(t *testing.T) {
	dir := t.TempDir()
	_, err := repo.Init(repo.InitOptions{Dir: dir})
	require.NoError(t, err)
	_, err = repo.Init(repo.InitOptions{Dir: dir, DB: "scratch", Local: true})
	require.NoError(t, err)

	ndrDir := filepath.Join(dir, ".ndr")
	ignored, err := repo.IsIgnored("scratch", ndrDir)
	require.NoError(t, err)
	assert.True(t, ignored)

	data, err := os.ReadFile(filepath.Join(ndrDir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ndr-scratch.db")

	dbs, err := repo.ListDBs(ndrDir)
	require.NoError(t, err)
	require.Len(t, dbs, 2)
	names := map[string]bool{}
	for _, d := range dbs {
		names[d.Name] = d.Local
	}
	assert.Equal(t, map[string]bool{"": false, "scratch": true}, names)

	require.NoError(t, repo.UnignoreDB("scratch", ndrDir))
	ignored, err = repo.IsIgnored("scratch", ndrDir)
	require.NoError(t, err)
	assert.False(t, ignored)
}

func TestIgnoreDB_SideFilesAndMarker(t *testing.T) {
	dir := t.TempDir()
	_, err := repo.Init(repo.InitOptions{Dir: dir})
	require.NoError(t, err)
	ndrDir := filepath.Join(dir, ".ndr")
	path := filepath.Join(ndrDir, ".gitignore")

	require.NoError(t, repo.IgnoreDB("a", ndrDir))
	require.NoError(t, repo.IgnoreDB("a", ndrDir))
	require.NoError(t, repo.IgnoreDB("b", ndrDir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.Equal(t, 1, strings.Count(s, "# Local databases"))
	assert.Equal(t, 1, strings.Count(s, "ndr-a.db\n"))
	assert.Contains(t, s, "ndr-a.db-wal\n")
	assert.Contains(t, s, "ndr-b.db-shm\n")
	assert.Contains(t, s, "config.yaml")

	require.NoError(t, repo.UnignoreDB("a", ndrDir))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ndr-a.db")
	assert.Contains(t, string(data), "# Local databases")

	require.NoError(t, repo.UnignoreDB("b", ndrDir))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "# Local databases")
	assert.Contains(t, string(data), "config.yaml")
}
