// Package glob provides glob pattern matching for dotted node paths.
//
// Patterns are split on "." like the paths they match. Within a segment,
// "*", "?" and character classes behave as in path.Match. A "**" segment
// matches any number of segments, including none, so "docs.**" matches
// "docs" and everything beneath it.
package glob

import (
	"path"
	"strings"

	"github.com/prehisle/ndr/internal/nodepath"
)

// Match reports whether the node path matches the glob pattern.
// Returns an error if a pattern segment is malformed.
func Match(pattern, p string) (bool, error) {
	pattern = strings.Trim(strings.TrimSpace(pattern), nodepath.Sep)
	if pattern == "" {
		return false, nil
	}
	return matchSegments(strings.Split(pattern, nodepath.Sep), nodepath.Segments(p))
}

func matchSegments(pat, segs []string) (bool, error) {
	for len(pat) > 0 {
		if pat[0] == "**" {
			// Collapse runs of ** and try every split point.
			for len(pat) > 0 && pat[0] == "**" {
				pat = pat[1:]
			}
			if len(pat) == 0 {
				return true, nil
			}
			for i := 0; i <= len(segs); i++ {
				ok, err := matchSegments(pat, segs[i:])
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		}
		if len(segs) == 0 {
			return false, nil
		}
		ok, err := path.Match(pat[0], segs[0])
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0, nil
}

// Filter returns the paths matching pattern, preserving order.
func Filter(pattern string, paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		ok, err := Match(pattern, p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}
