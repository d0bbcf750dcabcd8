package database

import "errors"

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrCycleNotFound   = errors.New("no active binome cycle")
	// ErrRotationConflict means the cycle expected to be active was already closed by another trigger.
	ErrRotationConflict = errors.New("binome cycle was rotated concurrently")
)
