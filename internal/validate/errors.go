// errors.go defines sentinel errors for validation failures.
//
// Separated to centralise error definitions. Each sentinel wraps a store
// kind so errors.Is works against either the specific failure or the kind.

package validate

import (
	"fmt"

	"github.com/prehisle/ndr/internal/store"
)

var (
	ErrInvalidSlug     = fmt.Errorf("%w: invalid slug", store.ErrInvalidOperation)
	ErrInvalidPath     = fmt.Errorf("%w: invalid path", store.ErrInvalidOperation)
	ErrInvalidName     = fmt.Errorf("%w: invalid name", store.ErrInvalidOperation)
	ErrInvalidRelation = fmt.Errorf("%w: invalid relation type", store.ErrInvalidOperation)
	ErrTooDeep         = fmt.Errorf("%w: tree too deep", store.ErrInvalidOperation)
	ErrMissingActor    = fmt.Errorf("%w: an actor identity is required", store.ErrMissingActor)
)
