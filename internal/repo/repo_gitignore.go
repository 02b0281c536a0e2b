// repo_gitignore.go marks SQLite databases as local (gitignored) or shared.
//
// A local database is listed under a marker block at the end of
// .ndr/.gitignore together with its WAL and shared-memory side files, which
// SQLite creates next to the database while a connection is open. Lines
// outside the block are never touched.
//
// Design: The file is read into a lineSet, edited in memory and written back
// in one call. The marker line is dropped once its block is empty.

package repo

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const localBlockMarker = "# Local databases (not committed)"

// sqliteSideFiles are the suffixes SQLite appends to a database in WAL mode.
var sqliteSideFiles = []string{"-wal", "-shm"}

// localEntries returns the gitignore lines that make a database local.
func localEntries(name string) []string {
	f := DBFileName(name)
	out := []string{f}
	for _, s := range sqliteSideFiles {
		out = append(out, f+s)
	}
	return out
}

// lineSet is a .gitignore held as raw lines.
type lineSet struct {
	path  string
	lines []string
}

func loadGitignore(dir string) (*lineSet, error) {
	if dir == "" {
		var err error
		if dir, err = DiscoverDir(); err != nil {
			return nil, err
		}
	}
	path := filepath.Join(dir, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return &lineSet{path: path, lines: lines}, nil
}

func (g *lineSet) has(entry string) bool {
	return slices.ContainsFunc(g.lines, func(l string) bool {
		return strings.TrimSpace(l) == entry
	})
}

func (g *lineSet) drop(entries []string) {
	g.lines = slices.DeleteFunc(g.lines, func(l string) bool {
		return slices.Contains(entries, strings.TrimSpace(l))
	})
}

// tidy removes a marker left with nothing below it and trailing blank lines.
func (g *lineSet) tidy() {
	if i := slices.Index(g.lines, localBlockMarker); i >= 0 {
		rest := slices.ContainsFunc(g.lines[i+1:], func(l string) bool {
			return strings.TrimSpace(l) != ""
		})
		if !rest {
			g.lines = g.lines[:i]
		}
	}
	for len(g.lines) > 0 && strings.TrimSpace(g.lines[len(g.lines)-1]) == "" {
		g.lines = g.lines[:len(g.lines)-1]
	}
}

func (g *lineSet) save() error {
	return os.WriteFile(g.path, []byte(strings.Join(g.lines, "\n")+"\n"), 0644)
}

// IgnoreDB marks a database as local. If dir is empty, the .ndr directory is
// discovered from the working directory.
func IgnoreDB(name, dir string) error {
	g, err := loadGitignore(dir)
	if err != nil {
		return err
	}
	entries := localEntries(name)
	if g.has(entries[0]) {
		return nil
	}
	if !g.has(localBlockMarker) {
		g.lines = append(g.lines, "", localBlockMarker)
	}
	g.lines = append(g.lines, entries...)
	return g.save()
}

// UnignoreDB marks a database as shared, leaving other local entries alone.
func UnignoreDB(name, dir string) error {
	g, err := loadGitignore(dir)
	if err != nil {
		return err
	}
	g.drop(localEntries(name))
	g.tidy()
	return g.save()
}

// IsIgnored reports whether a database is marked local.
func IsIgnored(name, dir string) (bool, error) {
	g, err := loadGitignore(dir)
	if err != nil {
		return false, err
	}
	return g.has(DBFileName(name)), nil
}
