// bindings.go implements node-document bindings and the subtree document
// query.
//
// Design: One row per (node, document) pair. Unbind soft-deletes the row and
// bind revives it, so bind is idempotent and history-preserving. A binding
// feeds the counters above its node while it is active, typed output, on an
// active node and pointing at an active document; every path in and out of
// that state adjusts the ancestor walk by exactly one.

package tree

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
)

// Bind attaches a document to a node.
func (s *Service) Bind(ctx context.Context, actorID string, nodeID, documentID int64, rel store.RelationType) (*store.Binding, error) {
	bs, err := s.BatchBind(ctx, actorID, nodeID, []int64{documentID}, rel)
	if err != nil {
		return nil, err
	}
	return &bs[0], nil
}

// BatchBind binds each document to the node in one transaction. Duplicate
// document ids are bound once.
func (s *Service) BatchBind(ctx context.Context, actorID string, nodeID int64, documentIDs []int64, rel store.RelationType) ([]store.Binding, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	rel, err = validate.Relation(string(rel))
	if err != nil {
		return nil, err
	}
	if len(documentIDs) == 0 {
		return nil, fmt.Errorf("%w: no documents to bind", store.ErrInvalidOperation)
	}

	var out []store.Binding
	var changed []store.Binding
	var path string
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		n, err := tx.Node(ctx, nodeID, false)
		if err != nil {
			return err
		}
		if err := lockChains(ctx, tx, n.ID); err != nil {
			return err
		}
		if n, err = tx.Node(ctx, nodeID, false); err != nil {
			return err
		}
		path = n.Path

		seen := make(map[int64]bool, len(documentIDs))
		for _, docID := range documentIDs {
			if seen[docID] {
				continue
			}
			seen[docID] = true
			b, wrote, err := bindOne(ctx, tx, n, docID, rel, who)
			if err != nil {
				return err
			}
			out = append(out, *b)
			if wrote {
				changed = append(changed, *b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bind node %d: %w", nodeID, err)
	}

	for _, b := range changed {
		s.fireEvent(extension.BindingEvent{
			NodeID: b.NodeID, Path: path, DocumentID: b.DocumentID,
			RelationType: string(b.RelationType), Actor: who, Bound: true,
		})
	}
	return out, nil
}

// bindOne creates, revives or retypes one binding on an active, locked node.
// It reports whether anything was written.
func bindOne(ctx context.Context, tx *store.Tx, n *store.Node, docID int64, rel store.RelationType, who string) (*store.Binding, bool, error) {
	if _, err := tx.Document(ctx, docID, false); err != nil {
		return nil, false, err
	}
	b, err := tx.Binding(ctx, n.ID, docID)
	switch {
	case errors.Is(err, store.ErrBindingNotFound):
		b = &store.Binding{NodeID: n.ID, DocumentID: docID, RelationType: rel, CreatedBy: who, UpdatedBy: who}
		if err := tx.InsertBinding(ctx, b); err != nil {
			return nil, false, err
		}
		return b, true, adjustIf(ctx, tx, n.ID, rel.Counted(), 1)

	case err != nil:
		return nil, false, err

	case b.Active() && b.RelationType == rel:
		return b, false, nil

	case b.Active():
		delta := int64(0)
		if rel.Counted() {
			delta = 1
		} else if b.RelationType.Counted() {
			delta = -1
		}
		b.RelationType, b.UpdatedBy = rel, who
		if err := tx.UpdateBinding(ctx, b); err != nil {
			return nil, false, err
		}
		return b, true, tx.AdjustAbove(ctx, n.ID, delta)

	default:
		b.RelationType, b.UpdatedBy, b.DeletedAt = rel, who, nil
		if err := tx.UpdateBinding(ctx, b); err != nil {
			return nil, false, err
		}
		return b, true, adjustIf(ctx, tx, n.ID, rel.Counted(), 1)
	}
}

func adjustIf(ctx context.Context, tx *store.Tx, nodeID int64, cond bool, delta int64) error {
	if !cond {
		return nil
	}
	return tx.AdjustAbove(ctx, nodeID, delta)
}

// Unbind soft-deletes the active binding between a node and a document.
func (s *Service) Unbind(ctx context.Context, actorID string, nodeID, documentID int64) error {
	who, err := actor(actorID)
	if err != nil {
		return err
	}
	var b *store.Binding
	var path string
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		n, err := tx.Node(ctx, nodeID, false)
		if err != nil {
			return err
		}
		if err := lockChains(ctx, tx, n.ID); err != nil {
			return err
		}
		if n, err = tx.Node(ctx, nodeID, false); err != nil {
			return err
		}
		path = n.Path

		b, err = tx.Binding(ctx, n.ID, documentID)
		if err != nil {
			return err
		}
		if !b.Active() {
			return fmt.Errorf("binding %d/%d: %w", nodeID, documentID, store.ErrBindingNotFound)
		}
		doc, err := tx.Document(ctx, documentID, true)
		if err != nil {
			return err
		}
		now := time.Now().Unix()
		b.DeletedAt, b.UpdatedBy = &now, who
		if err := tx.UpdateBinding(ctx, b); err != nil {
			return err
		}
		return adjustIf(ctx, tx, n.ID, b.RelationType.Counted() && doc.Active(), -1)
	})
	if err != nil {
		return fmt.Errorf("unbind node %d: %w", nodeID, err)
	}

	s.fireEvent(extension.BindingEvent{
		NodeID: nodeID, Path: path, DocumentID: documentID,
		RelationType: string(b.RelationType), Actor: who, Bound: false,
	})
	return nil
}

// ListBindings returns a node's bindings. The node may be soft-deleted.
func (s *Service) ListBindings(ctx context.Context, nodeID int64, includeDeleted bool) ([]store.Binding, error) {
	r := s.store.Reader()
	if _, err := r.Node(ctx, nodeID, true); err != nil {
		return nil, err
	}
	bs, err := r.NodeBindings(ctx, nodeID, includeDeleted)
	if err != nil {
		return nil, err
	}
	if bs == nil {
		bs = []store.Binding{}
	}
	return bs, nil
}

// BindingStatus returns where a document is currently bound.
func (s *Service) BindingStatus(ctx context.Context, documentID int64) ([]store.Binding, error) {
	r := s.store.Reader()
	if _, err := r.Document(ctx, documentID, true); err != nil {
		return nil, err
	}
	bs, err := r.DocumentBindings(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if bs == nil {
		bs = []store.Binding{}
	}
	return bs, nil
}

// SubtreeDocuments lists the documents bound to a node and, with
// IncludeDescendants, to every node connected beneath it. Soft-deleted
// nodes and their bindings are only considered with IncludeDeletedNodes.
func (s *Service) SubtreeDocuments(ctx context.Context, id int64, opts store.SubtreeDocumentsOptions) (*store.DocumentPage, error) {
	r := s.store.Reader()
	root, err := r.Node(ctx, id, opts.IncludeDeletedNodes)
	if err != nil {
		return nil, err
	}
	ids := []int64{root.ID}
	if opts.IncludeDescendants {
		sub, err := r.Subtree(ctx, root, opts.IncludeDeletedNodes)
		if err != nil {
			return nil, err
		}
		ids = chainIDs(sub)
	}

	f := opts.Filter
	if f.Page.Size > 0 || f.Page.Page > 0 {
		f.Page = validate.Page(f.Page.Page, f.Page.Size, s.pageSize)
	}
	page, err := r.DocumentsForNodes(ctx, ids, opts.IncludeDeletedNodes, f)
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []store.Document{}
	}
	return page, nil
}
