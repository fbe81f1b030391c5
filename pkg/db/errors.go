package db

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrScheduleLocked is returned when another regeneration holds the week.
	// The caller may retry once the other run completes.
	ErrScheduleLocked = errors.New("schedule week is locked by another regeneration")
)
