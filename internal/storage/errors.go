package storage

import "errors"

var (
	// ErrStoreNotFound is returned when the store location does not exist.
	ErrStoreNotFound = errors.New("store not found")

	// ErrQueryFailure is returned when a table is missing or a row cannot be read.
	ErrQueryFailure = errors.New("query failure")
)
