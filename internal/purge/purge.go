// Package purge permanently removes soft-deleted subtrees in bulk.
// Soft-deleted nodes stay recoverable until purged; this is the retention
// sweep behind "ndr purge", built on the single-node purge operation.
package purge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prehisle/ndr/internal/nodepath"
	"github.com/prehisle/ndr/internal/progress"
	"github.com/prehisle/ndr/internal/store"
)

// Purger is the slice of the tree service this package needs.
type Purger interface {
	DeletedRoots(ctx context.Context, olderThan *time.Duration) ([]store.Node, error)
	PurgeNode(ctx context.Context, actor string, id int64) (*store.PurgeResult, error)
}

// Options configures purge scope and safety checks.
type Options struct {
	OlderThan *time.Duration // Retain recent deletions for recovery
	Prefix    string         // Limit to roots at or below this path
	DryRun    bool           // Preview without deleting
	Actor     string
}

// Result reports what was removed.
type Result struct {
	Roots    int      `json:"roots"`
	Nodes    int64    `json:"nodes"`
	Bindings int64    `json:"bindings"`
	Paths    []string `json:"paths"`
}

// Candidates returns the soft-deleted roots a run would purge.
func Candidates(ctx context.Context, svc Purger, opts Options) ([]store.Node, error) {
	roots, err := svc.DeletedRoots(ctx, opts.OlderThan)
	if err != nil {
		return nil, err
	}
	if opts.Prefix == "" {
		return roots, nil
	}
	out := roots[:0]
	for _, n := range roots {
		if nodepath.Contains(opts.Prefix, n.Path) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Run purges every candidate root, each in its own transaction. A root
// already removed as part of an earlier root's subtree is skipped. This
// operation is irreversible; use DryRun first.
func Run(ctx context.Context, w io.Writer, svc Purger, opts Options) (Result, error) {
	var result Result
	roots, err := Candidates(ctx, svc, opts)
	if err != nil {
		return result, err
	}
	if len(roots) == 0 {
		fmt.Fprintln(w, "No deleted nodes to purge")
		return result, nil
	}

	if opts.DryRun {
		for _, n := range roots {
			fmt.Fprintf(w, "Would purge: %s (deleted %s)\n",
				n.Path, time.Unix(*n.DeletedAt, 0).Format("2006-01-02 15:04"))
			result.Paths = append(result.Paths, n.Path)
		}
		result.Roots = len(roots)
		fmt.Fprintf(w, "\nWould purge %d subtree(s)\n", result.Roots)
		return result, nil
	}

	prog := progress.New("Purging", len(roots))
	defer prog.Done()
	for _, n := range roots {
		prog.Step(n.Path)
		res, err := svc.PurgeNode(ctx, opts.Actor, n.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("purge %s: %w", n.Path, err)
		}
		result.Roots++
		result.Nodes += res.Nodes
		result.Bindings += res.Bindings
		result.Paths = append(result.Paths, n.Path)
	}
	fmt.Fprintf(w, "Purged %d node(s) and %d binding(s) in %d subtree(s)\n",
		result.Nodes, result.Bindings, result.Roots)
	return result, nil
}
