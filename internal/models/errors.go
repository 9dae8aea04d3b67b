package models

import "errors"

var (
	// ErrNotFound is returned when an idea, version, collection or shortlist entry is absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation error")
	// ErrConflict is returned when a unique entry already exists.
	ErrConflict = errors.New("conflict")
)
