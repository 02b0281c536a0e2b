package validate

import (
	"fmt"
	"strings"

	"github.com/prehisle/ndr/internal/store"
)

// DefaultMaxName is the display name length bound when none is configured.
const DefaultMaxName = 255

// Page size bounds for listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

// Name trims and validates a display name.
func Name(name string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxName
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: null byte in name", ErrInvalidName)
	}
	if len([]rune(name)) > maxLen {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidName, maxLen)
	}
	return name, nil
}

// Actor trims the actor identity and rejects an empty one.
func Actor(actor string) (string, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return "", ErrMissingActor
	}
	return actor, nil
}

// Relation validates a relation type. Empty defaults to output.
func Relation(r string) (store.RelationType, error) {
	switch store.RelationType(strings.ToLower(strings.TrimSpace(r))) {
	case "", store.RelationOutput:
		return store.RelationOutput, nil
	case store.RelationSource:
		return store.RelationSource, nil
	default:
		return "", fmt.Errorf("%w: %q (want output or source)", ErrInvalidRelation, r)
	}
}

// Page clamps a page request: page defaults to 1, size to defSize, and size
// is capped at MaxPageSize.
func Page(page, size, defSize int) store.Page {
	if page < 1 {
		page = 1
	}
	if defSize <= 0 {
		defSize = DefaultPageSize
	}
	if size <= 0 {
		size = defSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return store.Page{Page: page, Size: size}
}
