// errors.go defines the stable error kinds surfaced by tree operations.
//
// Every failure a caller can act on wraps exactly one kind sentinel. More
// specific errors (ErrParentNotFound, ErrPathConflict, ...) wrap a kind so
// errors.Is works at either granularity. Transports map kinds to status
// codes via KindOf; anything unrecognised is an internal failure.

package store

import (
	"errors"
	"fmt"
)

// Kind sentinels.
var (
	// ErrNotFound indicates a node, parent, binding or document is absent or soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate active path or sibling name.
	ErrConflict = errors.New("conflict")
	// ErrInvalidOperation indicates a request that can never succeed as given.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrMissingActor indicates a mutating call without an actor identity.
	ErrMissingActor = errors.New("missing actor")
	// ErrCapabilityUnavailable indicates the configured path index is not
	// supported by the storage backend.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)

// Refinements of the kinds above.
var (
	ErrNodeNotFound     = fmt.Errorf("node %w", ErrNotFound)
	ErrParentNotFound   = fmt.Errorf("parent node %w", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)
	ErrBindingNotFound  = fmt.Errorf("binding %w", ErrNotFound)
	ErrPathConflict     = fmt.Errorf("%w: path already in use", ErrConflict)
	ErrNameConflict     = fmt.Errorf("%w: name already used by a sibling", ErrConflict)
	ErrNotDeleted       = fmt.Errorf("%w: not soft-deleted", ErrInvalidOperation)
)

// Kind names a class of error for transports.
type Kind string

const (
	KindNotFound              Kind = "not_found"
	KindConflict              Kind = "conflict"
	KindInvalidOperation      Kind = "invalid_operation"
	KindMissingActor          Kind = "missing_actor"
	KindCapabilityUnavailable Kind = "capability_unavailable"
	KindInternal              Kind = "internal"
)

// KindOf classifies err. A nil error has no kind and returns "".
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidOperation):
		return KindInvalidOperation
	case errors.Is(err, ErrMissingActor):
		return KindMissingActor
	case errors.Is(err, ErrCapabilityUnavailable):
		return KindCapabilityUnavailable
	default:
		return KindInternal
	}
}
