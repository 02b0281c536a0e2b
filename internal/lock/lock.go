// Package lock serialises structural tree mutations.
//
// A mutation names the node ids it touches; the coordinator acquires one lock
// per id in ascending order no matter how the caller listed them. With every
// transaction acquiring in the same total order, two overlapping mutations
// can wait on each other but never deadlock.
//
// Locks are scoped to a transaction. The Postgres coordinator uses
// transaction-level advisory locks that the server releases on commit or
// rollback. The in-process coordinator hands back a release func that the
// store's transaction wrapper calls once the transaction has ended.
package lock

import (
	"context"
	"database/sql"
	"slices"
)

// Execer runs a statement inside the caller's transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Coordinator acquires locks over a set of node ids.
type Coordinator interface {
	// Acquire locks every id in ascending order. The returned release func
	// must be called after the enclosing transaction ends; it is never nil
	// when err is nil.
	Acquire(ctx context.Context, ex Execer, ids []int64) (release func(), err error)
}

// Sorted returns the distinct ids in ascending order.
func Sorted(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
