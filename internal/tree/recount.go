package tree

import (
	"context"
	"fmt"

	"github.com/prehisle/ndr/internal/store"
)

// Recount recomputes every subtree counter from the bindings and reports the
// nodes whose cached value drifted. Only apply writes, and only apply needs
// an actor.
func (s *Service) Recount(ctx context.Context, actorID string, apply bool) (*store.RecountResult, error) {
	if !apply {
		res, err := s.store.Reader().Recount(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("recount: %w", err)
		}
		return res, nil
	}
	if _, err := actor(actorID); err != nil {
		return nil, err
	}
	var res *store.RecountResult
	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		var err error
		res, err = tx.Recount(ctx, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recount: %w", err)
	}
	return res, nil
}
