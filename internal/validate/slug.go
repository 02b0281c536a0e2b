// slug.go implements slug and dotted path validation.
//
// Design: Slugs are restricted to lowercase letters, digits, "-" and "_".
// The dot is the path separator and can never appear inside a segment, so a
// path can be split and rejoined without escaping.

package validate

import (
	"fmt"
	"strings"

	"github.com/prehisle/ndr/internal/nodepath"
)

// DefaultMaxSlug is the slug length bound when none is configured.
const DefaultMaxSlug = 255

func slugRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}

// Slug validates one path segment. maxLen <= 0 uses DefaultMaxSlug.
func Slug(s string, maxLen int) error {
	if maxLen <= 0 || maxLen > DefaultMaxSlug {
		maxLen = DefaultMaxSlug
	}
	if s == "" {
		return fmt.Errorf("%w: empty slug", ErrInvalidSlug)
	}
	if len(s) > maxLen {
		return fmt.Errorf("%w: %d characters exceeds the limit of %d", ErrInvalidSlug, len(s), maxLen)
	}
	for _, r := range s {
		if !slugRune(r) {
			return fmt.Errorf("%w: %q contains %q (allowed: a-z 0-9 - _)", ErrInvalidSlug, s, r)
		}
	}
	return nil
}

// ParentPath validates a dotted path reference and returns it trimmed of
// surrounding whitespace and dots. An empty result means the root level.
func ParentPath(p string, maxSlug int) (string, error) {
	p = strings.Trim(strings.TrimSpace(p), nodepath.Sep)
	if p == "" {
		return "", nil
	}
	for _, seg := range nodepath.Segments(p) {
		if err := Slug(seg, maxSlug); err != nil {
			return "", fmt.Errorf("%w: %q: %w", ErrInvalidPath, p, err)
		}
	}
	return p, nil
}

// Depth rejects paths deeper than maxDepth segments. maxDepth <= 0 disables the check.
func Depth(p string, maxDepth int) error {
	if maxDepth > 0 && nodepath.Depth(p) > maxDepth {
		return fmt.Errorf("%w: %q has %d levels, limit is %d", ErrTooDeep, p, nodepath.Depth(p), maxDepth)
	}
	return nil
}
