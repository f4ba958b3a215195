package services

import "errors"

var (
	// ErrNotFound is returned when the addressed document (or embedded
	// reply) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("already exists")

	// ErrConflict is returned when a document changed between read and write.
	ErrConflict = errors.New("document was modified concurrently")
)
