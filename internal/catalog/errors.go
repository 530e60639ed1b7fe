package catalog

import "errors"

var (
	// ErrNotFound reports a missing or soft-deleted entity.
	ErrNotFound = errors.New("catalog: not found")
	// ErrAlreadyExists reports a slug collision within a collection.
	ErrAlreadyExists = errors.New("catalog: already exists")
	// ErrInvalidInput reports a rejected field value.
	ErrInvalidInput = errors.New("catalog: invalid input")
)
