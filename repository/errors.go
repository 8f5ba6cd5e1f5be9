package repository

import "errors"

// Sentinel errors shared by all backends. Driver-specific failures are
// normalized to these at the repository boundary so handlers never inspect
// driver error strings.
var (
	// ErrNotFound reports that no row matched the given key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateUser reports a unique-constraint violation on
	// username or email.
	ErrDuplicateUser = errors.New("username or email already exists")
)
