package store

import (
	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

// Store-level sentinels, aliased to the shared domain errors so callers
// can match with errors.Is regardless of which layer produced them.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = apperrors.ErrNotFound

	// ErrAlreadyExists is returned when creating a record whose key or
	// indexed attribute is already taken.
	ErrAlreadyExists = apperrors.ErrAlreadyExists
)
