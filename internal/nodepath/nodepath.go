// Package nodepath provides helpers for dotted materialized paths.
//
// A node path is the root-to-node join of slugs with "." as separator, for
// example "docs.guides.intro". Every containment test in this package is
// segment-aware: "docs" contains "docs.intro" but not "docs2" or "docs2.a".
//
// The helpers are pure string functions. Storage-side containment queries
// are built from DescendantPattern so the SQL and the Go checks agree.
package nodepath

import "strings"

// Sep separates slugs within a path.
const Sep = "."

// likeEscape is the escape character used by DescendantPattern.
const likeEscape = `\`

// Join returns the path of a child with the given slug under parent.
// An empty parent yields a root path.
func Join(parent, slug string) string {
	if parent == "" {
		return slug
	}
	return parent + Sep + slug
}

// Parent returns the parent path and true, or "" and false for a root path.
func Parent(p string) (string, bool) {
	i := strings.LastIndex(p, Sep)
	if i < 0 {
		return "", false
	}
	return p[:i], true
}

// Slug returns the last segment of p.
func Slug(p string) string {
	return p[strings.LastIndex(p, Sep)+1:]
}

// Segments splits p into its slugs. An empty path has no segments.
func Segments(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, Sep)
}

// Depth returns the number of segments in p. Root nodes have depth 1.
func Depth(p string) int {
	if p == "" {
		return 0
	}
	return strings.Count(p, Sep) + 1
}

// Contains reports whether p equals root or lies anywhere beneath it.
func Contains(root, p string) bool {
	return p == root || IsDescendant(root, p)
}

// IsDescendant reports whether p lies strictly beneath root.
func IsDescendant(root, p string) bool {
	return len(p) > len(root) && strings.HasPrefix(p, root) && p[len(root):len(root)+1] == Sep
}

// Ancestors returns every proper prefix of p, root first.
//
//	Ancestors("a.b.c") // ["a", "a.b"]
func Ancestors(p string) []string {
	segs := Segments(p)
	if len(segs) < 2 {
		return nil
	}
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], Sep))
	}
	return out
}

// Rebase replaces the oldRoot prefix of p with newRoot. The second result is
// false when p is not contained in oldRoot.
func Rebase(p, oldRoot, newRoot string) (string, bool) {
	if !Contains(oldRoot, p) {
		return p, false
	}
	return newRoot + p[len(oldRoot):], true
}

// EscapeLike escapes LIKE metacharacters so s matches literally.
// Slugs may contain "_", which LIKE would otherwise treat as a wildcard.
func EscapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

// DescendantPattern returns a LIKE pattern matching strict descendants of
// root. Use it with ESCAPE '\'.
func DescendantPattern(root string) string {
	return EscapeLike(root) + Sep + "%"
}
