// move.go implements update_node: rename and/or move in one call.
//
// Separated from nodes.go because a move touches far more than the node's
// own row. Every descendant path is rebased onto the new location, the old
// sibling run is compacted, and the subtree's contribution to the subtree
// counters migrates from the old ancestor chain to the new one.
//
// Design: Descendant parent_path values are recomputed from the rebased path
// of their parent (by id), not by string surgery on their own path, so the
// result stays consistent whatever shape the chain has. When a rebased path
// or sibling name would transiently collide with a row that has not been
// rewritten yet, the affected rows are parked on unique placeholder values
// first so the partial unique indexes never see an intermediate duplicate.

package tree

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/nodepath"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
)

// rewrite is the new location of one row touched by a move.
type rewrite struct {
	node       store.Node
	path       string
	parentPath string
}

// UpdateNode renames and/or moves a node.
func (s *Service) UpdateNode(ctx context.Context, actorID string, id int64, opts store.UpdateNodeOptions) (*store.Node, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	var name, slug, parentPath *string
	if opts.Name != nil {
		v, err := validate.Name(*opts.Name, s.maxName)
		if err != nil {
			return nil, err
		}
		name = &v
	}
	if opts.Slug != nil {
		if err := validate.Slug(*opts.Slug, s.maxSlug); err != nil {
			return nil, err
		}
		slug = opts.Slug
	}
	if opts.ParentPath != nil {
		v, err := validate.ParentPath(*opts.ParentPath, s.maxSlug)
		if err != nil {
			return nil, err
		}
		parentPath = &v
	}

	var n *store.Node
	var oldPath string
	changed := false
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		cur, err := tx.Node(ctx, id, false)
		if err != nil {
			return err
		}
		// Resolve the target parent before locking so its id joins the lock
		// set. The parent is compared by id: a soft-deleted parent's path may
		// since have been taken by another node.
		var newParent *store.Node
		newParentKey := cur.ParentKey()
		if parentPath != nil {
			newParentKey = 0
			if *parentPath != "" {
				newParent, err = tx.NodeByPath(ctx, *parentPath)
				if err != nil {
					return parentNotFound(err, *parentPath)
				}
				newParentKey = newParent.ID
			}
		}
		moving := newParentKey != cur.ParentKey()
		if !moving {
			newParent = nil
		} else if newParent != nil {
			if err := checkNotBelow(ctx, tx, cur, newParent); err != nil {
				return err
			}
		}

		cur, err = lockNode(ctx, tx, id, false, newParentKey)
		if err != nil {
			return err
		}
		if newParent != nil {
			fresh, err := tx.Node(ctx, newParent.ID, false)
			if err != nil || fresh.Path != newParent.Path {
				return parentNotFound(store.ErrNotFound, newParent.Path)
			}
		}
		oldPath = cur.Path

		upd := *cur
		if name != nil {
			upd.Name = *name
		}
		if slug != nil {
			upd.Slug = *slug
		}
		if opts.Type != nil {
			upd.Type = strings.TrimSpace(*opts.Type)
		}
		if moving {
			upd.ParentID, upd.ParentPath = nil, nil
			if newParent != nil {
				upd.ParentID = &newParent.ID
				upd.ParentPath = &newParent.Path
			}
		}
		newParentPath := ""
		if upd.ParentPath != nil {
			newParentPath = *upd.ParentPath
		}
		upd.Path = nodepath.Join(newParentPath, upd.Slug)

		if upd.Name == cur.Name && upd.Slug == cur.Slug && upd.Type == cur.Type && !moving {
			n = cur
			return nil
		}
		if err := validate.Depth(upd.Path, s.maxDepth); err != nil {
			return err
		}

		if moving || upd.Name != cur.Name {
			if taken, err := tx.HasActiveName(ctx, upd.ParentPath, upd.Name, cur.ID); err != nil {
				return err
			} else if taken {
				return fmt.Errorf("%w: %q under %q", store.ErrNameConflict, upd.Name, newParentPath)
			}
		}

		var rewrites []rewrite
		if upd.Path != cur.Path {
			if taken, err := tx.HasActivePath(ctx, upd.Path, cur.ID); err != nil {
				return err
			} else if taken {
				return fmt.Errorf("%w: %q", store.ErrPathConflict, upd.Path)
			}
			rewrites, err = s.planRewrites(ctx, tx, cur, upd.Path)
			if err != nil {
				return err
			}
		}

		if moving {
			if upd.Position, err = tx.NextPosition(ctx, newParentKey); err != nil {
				return err
			}
		}

		// Counter migration: take the subtree's contribution off the old
		// chain before relinking, put it on the new chain after.
		var amount int64
		if moving {
			direct, err := tx.DirectOutputCount(ctx, cur.ID)
			if err != nil {
				return err
			}
			amount = direct + cur.SubtreeDocCount
			if err := tx.AdjustAbove(ctx, cur.ID, -amount); err != nil {
				return err
			}
		}

		if err := applyRewrites(ctx, tx, cur, &upd, rewrites, who); err != nil {
			return err
		}

		if moving {
			if err := tx.AdjustAbove(ctx, cur.ID, amount); err != nil {
				return err
			}
			if err := tx.NormalizePositions(ctx, cur.ParentKey()); err != nil {
				return err
			}
			if err := tx.NormalizePositions(ctx, newParentKey); err != nil {
				return err
			}
		}

		changed = true
		n, err = tx.Node(ctx, cur.ID, false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update node %d: %w", id, err)
	}

	if changed {
		s.fireEvent(extension.NodeEvent{Type: extension.EventNodeUpdate, NodeID: n.ID, Path: n.Path, OldPath: oldPath, Actor: who})
	}
	return n, nil
}

// checkNotBelow rejects a move of cur under itself or one of its descendants.
// Ancestry follows parent_id, so a node that merely shares cur's path prefix
// is not mistaken for a descendant.
func checkNotBelow(ctx context.Context, tx *store.Tx, cur, target *store.Node) error {
	bad := target.ID == cur.ID
	if !bad {
		anc, err := tx.Ancestors(ctx, target.ID)
		if err != nil {
			return err
		}
		bad = slices.Contains(chainIDs(anc), cur.ID)
	}
	if bad {
		return fmt.Errorf("%w: cannot move %q into its own subtree", store.ErrInvalidOperation, cur.Path)
	}
	return nil
}

// planRewrites computes the new path and parent_path of every descendant of
// cur (soft-deleted ones included) when cur moves to newPath, and checks the
// active ones against active nodes outside the subtree and the depth limit.
func (s *Service) planRewrites(ctx context.Context, tx *store.Tx, cur *store.Node, newPath string) ([]rewrite, error) {
	desc, err := tx.Descendants(ctx, cur)
	if err != nil {
		return nil, err
	}
	inSubtree := map[int64]bool{cur.ID: true}
	for _, d := range desc {
		inSubtree[d.ID] = true
	}
	newPaths := map[int64]string{cur.ID: newPath}
	out := make([]rewrite, 0, len(desc))
	// Descendants arrive in path order, so a parent is rebased before its children.
	for _, d := range desc {
		p, _ := nodepath.Rebase(d.Path, cur.Path, newPath)
		newPaths[d.ID] = p
		out = append(out, rewrite{node: d, path: p, parentPath: newPaths[*d.ParentID]})

		if !d.Active() {
			continue
		}
		if err := validate.Depth(p, s.maxDepth); err != nil {
			return nil, err
		}
		holder, err := tx.NodeByPath(ctx, p)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if err == nil && !inSubtree[holder.ID] {
			return nil, fmt.Errorf("%w: descendant %q would move onto %q", store.ErrPathConflict, d.Path, p)
		}
	}
	return out, nil
}

// applyRewrites writes the moved node and its rebased descendants, parking
// them first when a direct write could hit a transient duplicate.
func applyRewrites(ctx context.Context, tx *store.Tx, cur, upd *store.Node, rewrites []rewrite, who string) error {
	if needsParking(cur, upd, rewrites) {
		if err := tx.SetPath(ctx, cur.ID, parked(cur.ID), parked(cur.ID), who); err != nil {
			return err
		}
		for _, r := range rewrites {
			if r.node.Active() {
				if err := tx.SetPath(ctx, r.node.ID, parked(r.node.ID), parked(r.node.ID), who); err != nil {
					return err
				}
			}
		}
	}
	upd.UpdatedBy = who
	if err := tx.UpdateNode(ctx, upd); err != nil {
		return err
	}
	for _, r := range rewrites {
		if err := tx.SetPath(ctx, r.node.ID, r.path, r.parentPath, who); err != nil {
			return err
		}
	}
	return nil
}

// parked is a placeholder path that no slug can produce.
func parked(id int64) string {
	return "~" + strconv.FormatInt(id, 10)
}

// needsParking reports whether some new (path) or (parent_path, name) key of
// an active rewritten row equals a current key of another active row in the
// same set.
func needsParking(cur, upd *store.Node, rewrites []rewrite) bool {
	type nameKey struct{ parentPath, name string }
	paths := map[string]int64{cur.Path: cur.ID}
	names := map[nameKey]int64{{ptrOr(cur.ParentPath), cur.Name}: cur.ID}
	for _, r := range rewrites {
		if r.node.Active() {
			paths[r.node.Path] = r.node.ID
			names[nameKey{ptrOr(r.node.ParentPath), r.node.Name}] = r.node.ID
		}
	}
	clash := func(id int64, path string, key nameKey) bool {
		if other, ok := paths[path]; ok && other != id {
			return true
		}
		other, ok := names[key]
		return ok && other != id
	}
	if clash(cur.ID, upd.Path, nameKey{ptrOr(upd.ParentPath), upd.Name}) {
		return true
	}
	for _, r := range rewrites {
		if r.node.Active() && clash(r.node.ID, r.path, nameKey{r.parentPath, r.node.Name}) {
			return true
		}
	}
	return false
}

func ptrOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
