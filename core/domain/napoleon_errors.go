package domain

import "errors"

// Sentinel errors shared across services and adapters.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)
