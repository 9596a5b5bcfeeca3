package types

import "errors"

var (
	// ErrNotFound is returned by updates and deletes that match no record
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a create collides with an existing
	// key, such as a second item with the same name in a lens
	ErrDuplicate = errors.New("already exists")
)
