// advisory.go implements the Postgres coordinator.

package lock

import (
	"context"
	"fmt"
)

// Advisory takes pg_advisory_xact_lock per id. The server releases the locks
// when the transaction ends, so the returned release func does nothing.
type Advisory struct{}

var _ Coordinator = Advisory{}

// Acquire locks ids in ascending order within ex's transaction.
func (Advisory) Acquire(ctx context.Context, ex Execer, ids []int64) (func(), error) {
	for _, id := range Sorted(ids) {
		if _, err := ex.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, id); err != nil {
			return nil, fmt.Errorf("advisory lock %d: %w", id, err)
		}
	}
	return func() {}, nil
}
