// documents.go implements the document records nodes bind to.
//
// Deleting or restoring a document flips counter eligibility for every
// output binding pointing at it, so both walk the ancestor chains of the
// bound nodes. Purge is only legal after delete and removes the bindings
// with the row.

package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
)

// CreateDocument creates a document record.
func (s *Service) CreateDocument(ctx context.Context, actorID string, opts store.CreateDocumentOptions) (*store.Document, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	title, err := validate.Name(opts.Title, s.maxName)
	if err != nil {
		return nil, err
	}
	d := &store.Document{
		Title:     title,
		Type:      strings.TrimSpace(opts.Type),
		Metadata:  opts.Metadata,
		CreatedBy: who,
		UpdatedBy: who,
	}
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		return tx.InsertDocument(ctx, d)
	})
	if err != nil {
		return nil, fmt.Errorf("create document %q: %w", title, err)
	}
	return d, nil
}

// GetDocument returns a document by id.
func (s *Service) GetDocument(ctx context.Context, id int64, includeDeleted bool) (*store.Document, error) {
	return s.store.Reader().Document(ctx, id, includeDeleted)
}

// ListDocuments returns one page of documents.
func (s *Service) ListDocuments(ctx context.Context, f store.DocumentFilter) (*store.DocumentPage, error) {
	f.Page = validate.Page(f.Page.Page, f.Page.Size, s.pageSize)
	page, err := s.store.Reader().ListDocuments(ctx, f)
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []store.Document{}
	}
	return page, nil
}

// UpdateDocument edits the title, type or metadata of an active document.
// Counters do not depend on these fields, so no chain is locked.
func (s *Service) UpdateDocument(ctx context.Context, actorID string, id int64, opts store.UpdateDocumentOptions) (*store.Document, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	var title string
	if opts.Title != nil {
		if title, err = validate.Name(*opts.Title, s.maxName); err != nil {
			return nil, err
		}
	}

	var d *store.Document
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		if d, err = tx.Document(ctx, id, false); err != nil {
			return err
		}
		if opts.Title != nil {
			d.Title = title
		}
		if opts.Type != nil {
			d.Type = strings.TrimSpace(*opts.Type)
		}
		if opts.Metadata != nil {
			d.Metadata = opts.Metadata
		}
		d.UpdatedBy = who
		return tx.UpdateDocument(ctx, d)
	})
	if err != nil {
		return nil, fmt.Errorf("update document %d: %w", id, err)
	}
	return d, nil
}

// DeleteDocument soft-deletes a document.
func (s *Service) DeleteDocument(ctx context.Context, actorID string, id int64) (*store.Document, error) {
	return s.setDocumentDeleted(ctx, actorID, id, true)
}

// RestoreDocument brings a soft-deleted document back. An active document is
// returned unchanged.
func (s *Service) RestoreDocument(ctx context.Context, actorID string, id int64) (*store.Document, error) {
	return s.setDocumentDeleted(ctx, actorID, id, false)
}

func (s *Service) setDocumentDeleted(ctx context.Context, actorID string, id int64, deleted bool) (*store.Document, error) {
	who, err := actor(actorID)
	if err != nil {
		return nil, err
	}
	verb, delta := "restore", int64(1)
	if deleted {
		verb, delta = "delete", -1
	}

	var d *store.Document
	var nodes []int64
	changed := false
	err = s.store.Tx(ctx, func(tx *store.Tx) error {
		if d, err = tx.Document(ctx, id, !deleted); err != nil {
			return err
		}
		if d.Active() != deleted {
			return nil
		}
		counted, err := tx.CountedNodes(ctx, id)
		if err != nil {
			return err
		}
		if len(counted) > 0 {
			if err := lockChains(ctx, tx, counted...); err != nil {
				return err
			}
			// The document and its bound set may have changed while waiting
			// for the locks.
			if d, err = tx.Document(ctx, id, true); err != nil {
				return err
			}
			if d.Active() != deleted {
				return nil
			}
			if counted, err = tx.CountedNodes(ctx, id); err != nil {
				return err
			}
		}
		if err := tx.SetDocumentDeleted(ctx, id, deleted, who); err != nil {
			return err
		}
		for _, nodeID := range counted {
			if err := tx.AdjustAbove(ctx, nodeID, delta); err != nil {
				return err
			}
		}
		nodes, changed = counted, true
		d, err = tx.Document(ctx, id, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s document %d: %w", verb, id, err)
	}

	if !changed {
		return d, nil
	}
	s.fireEvent(extension.DocumentEvent{DocumentID: id, Nodes: nodes, Actor: who, Deleted: deleted})
	return d, nil
}

// PurgeDocument permanently removes a soft-deleted document and its bindings.
// It returns the number of bindings removed.
func (s *Service) PurgeDocument(ctx context.Context, actorID string, id int64) (int64, error) {
	if _, err := actor(actorID); err != nil {
		return 0, err
	}
	var removed int64
	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		d, err := tx.Document(ctx, id, true)
		if err != nil {
			return err
		}
		if d.Active() {
			return fmt.Errorf("%w: document %d must be deleted before it is purged", store.ErrNotDeleted, id)
		}
		if removed, err = tx.DeleteDocumentBindings(ctx, id); err != nil {
			return err
		}
		return tx.DeleteDocument(ctx, id)
	})
	if err != nil {
		return 0, fmt.Errorf("purge document %d: %w", id, err)
	}
	return removed, nil
}
