// Package validate provides input validation for ndr's domain types.
//
// This package enforces data integrity rules at the boundary between user
// input and the tree service. Each validation function returns nil (or the
// normalised value) on success or a descriptive error on failure.
//
// # Validation Functions
//
// Slug validates a single path segment.
// ParentPath validates and normalises a dotted path reference.
// Name validates a display name.
// Actor validates the identity attached to a mutation.
// Relation validates a binding relation type.
// Page clamps pagination parameters.
//
// # Error Handling
//
// All validation errors wrap one of the sentinel errors defined in errors.go,
// and every sentinel wraps a store error kind (mostly ErrInvalidOperation),
// so transports classify them without knowing this package:
//
//	if errors.Is(err, validate.ErrInvalidSlug) {
//	    // handle invalid slug
//	}
package validate
