// dialect.go isolates the SQL differences between the supported backends.
//
// Queries are written once with "?" placeholders and rebound for Postgres.
// The only behavioural difference is path containment: the portable
// "segment" index matches descendants with an escaped LIKE pattern on the
// dot-delimited path, while "ltree" casts the path to Postgres' native
// hierarchical type. Requesting ltree where it does not exist leaves the
// path index unavailable rather than silently degrading.
//
// ltree labels accept '-' only from PostgreSQL 16. Slugs may contain
// hyphens, so "auto" picks ltree on 16 and later and stays on segment
// before that. An explicit "ltree" on an older server is honoured, and a
// hyphenated path then fails to cast.

package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prehisle/ndr/internal/nodepath"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Path index modes.
const (
	PathIndexAuto    = "auto"
	PathIndexSegment = "segment"
	PathIndexLtree   = "ltree"
)

// ltreeHyphenVersion is the first server_version_num whose ltree labels
// accept '-'.
const ltreeHyphenVersion = 160000

type dialect struct {
	name      string // DriverSQLite or DriverPostgres
	pathIndex string // effective mode: segment or ltree, empty when unavailable
	missing   string // requested mode that the backend could not provide
}

// resolveDialect picks the effective path index for a backend. version is
// the Postgres server_version_num and is ignored for SQLite.
func resolveDialect(driver, requested string, hasLtree bool, version int) dialect {
	d := dialect{name: driver}
	switch requested {
	case "", PathIndexAuto:
		d.pathIndex = PathIndexSegment
		if driver == DriverPostgres && hasLtree && version >= ltreeHyphenVersion {
			d.pathIndex = PathIndexLtree
		}
	case PathIndexSegment:
		d.pathIndex = PathIndexSegment
	case PathIndexLtree:
		if driver == DriverPostgres && hasLtree {
			d.pathIndex = PathIndexLtree
		} else {
			d.missing = PathIndexLtree
		}
	default:
		d.missing = requested
	}
	return d
}

// rebind rewrites "?" placeholders to "$n" for Postgres. Queries never
// contain "?" inside string literals.
func (d dialect) rebind(q string) string {
	if d.name != DriverPostgres || !strings.Contains(q, "?") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// available returns ErrCapabilityUnavailable when containment queries cannot run.
func (d dialect) available() error {
	if d.pathIndex == "" {
		return fmt.Errorf("%w: path index %q is not supported by the %s backend", ErrCapabilityUnavailable, d.missing, d.name)
	}
	return nil
}

// subtreeClause returns a predicate matching root and everything beneath it.
func (d dialect) subtreeClause(root string) (string, []any, error) {
	if err := d.available(); err != nil {
		return "", nil, err
	}
	if d.pathIndex == PathIndexLtree {
		return `path::ltree <@ ?::ltree`, []any{root}, nil
	}
	return `(path = ? OR path LIKE ? ESCAPE '\')`, []any{root, nodepath.DescendantPattern(root)}, nil
}

// depthClause returns a predicate bounding path depth (segment count).
func (d dialect) depthClause(maxDepth int) (string, []any) {
	if d.pathIndex == PathIndexLtree {
		return `nlevel(path::ltree) <= ?`, []any{maxDepth}
	}
	return `(length(path) - length(replace(path, '.', ''))) < ?`, []any{maxDepth}
}
