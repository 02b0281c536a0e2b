// nodes.go implements node creation and the read-side node operations.

package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/glob"
	"github.com/prehisle/ndr/internal/nodepath"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
)

// parentNotFound converts a not-found lookup of a parent path into
// ErrParentNotFound. Other errors pass through.
func parentNotFound(err error, parentPath string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %q", store.ErrParentNotFound, parentPath)
	}
	return err
}

// CreateNode creates a node and appends it after its active siblings.
func (s *Service) CreateNode(ctx context.Context, actorID string, opts store.CreateNodeOptions) (*store.Node, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	name, err := validate.Name(opts.Name, s.maxName)
	if err != nil {
		return nil, err
	}
	if err := validate.Slug(opts.Slug, s.maxSlug); err != nil {
		return nil, err
	}
	parentPath, err := validate.ParentPath(opts.ParentPath, s.maxSlug)
	if err != nil {
		return nil, err
	}
	path := nodepath.Join(parentPath, opts.Slug)
	if err := validate.Depth(path, s.maxDepth); err != nil {
		return nil, err
	}

	n := &store.Node{
		Name:      name,
		Slug:      opts.Slug,
		Type:      strings.TrimSpace(opts.Type),
		Path:      path,
		CreatedBy: who,
		UpdatedBy: who,
	}
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		parent, err := lockParent(ctx, tx, parentPath)
		if err != nil {
			return err
		}
		if parent != nil {
			n.ParentID = &parent.ID
			n.ParentPath = &parent.Path
		}
		if taken, err := tx.HasActivePath(ctx, path, 0); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("%w: %q", store.ErrPathConflict, path)
		}
		if taken, err := tx.HasActiveName(ctx, n.ParentPath, name, 0); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("%w: %q under %q", store.ErrNameConflict, name, parentPath)
		}
		if n.Position, err = tx.NextPosition(ctx, n.ParentKey()); err != nil {
			return err
		}
		return tx.InsertNode(ctx, n)
	})
	if err != nil {
		return nil, fmt.Errorf("create node %q: %w", path, err)
	}

	s.fireEvent(extension.NodeEvent{Type: extension.EventNodeCreate, NodeID: n.ID, Path: n.Path, Actor: who})
	return n, nil
}

// GetNode returns a node by id.
func (s *Service) GetNode(ctx context.Context, id int64, includeDeleted bool) (*store.Node, error) {
	return s.store.Reader().Node(ctx, id, includeDeleted)
}

// GetByPath returns the active node at path.
func (s *Service) GetByPath(ctx context.Context, path string) (*store.Node, error) {
	p, err := validate.ParentPath(path, s.maxSlug)
	if err != nil {
		return nil, err
	}
	if p == "" {
		return nil, fmt.Errorf("%w: empty path", validate.ErrInvalidPath)
	}
	return s.store.Reader().NodeByPath(ctx, p)
}

// Ancestors returns the breadcrumb of a node: the active nodes at each
// proper prefix of its path, root first.
func (s *Service) Ancestors(ctx context.Context, id int64) ([]store.Node, error) {
	r := s.store.Reader()
	n, err := r.Node(ctx, id, false)
	if err != nil {
		return nil, err
	}
	ids, err := r.AncestorIDs(ctx, n.Path)
	if err != nil {
		return nil, err
	}
	byID, err := r.NodesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]store.Node, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListNodes returns one page of nodes, newest first.
func (s *Service) ListNodes(ctx context.Context, page store.Page, includeDeleted bool) (*store.NodePage, error) {
	p := validate.Page(page.Page, page.Size, s.pageSize)
	items, total, err := s.store.Reader().ListNodes(ctx, p, includeDeleted)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.Node{}
	}
	return &store.NodePage{Items: items, Total: total, Page: p.Page, Size: p.Size}, nil
}

// Glob returns the paths of active nodes matching pattern.
func (s *Service) Glob(ctx context.Context, pattern string) ([]string, error) {
	nodes, err := s.store.Reader().ActiveNodes(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(nodes))
	for i, n := range nodes {
		paths[i] = n.Path
	}
	matched, err := glob.Filter(pattern, paths)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", store.ErrInvalidOperation, pattern, err)
	}
	return matched, nil
}
