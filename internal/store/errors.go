package store

import "errors"

var (
	// ErrDuplicateKey signals a unique-constraint violation (join code,
	// profile card per user).
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound signals a required record is missing. Plain lookups report
	// absence through their bool return instead.
	ErrNotFound = errors.New("not found")
)
