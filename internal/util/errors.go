package util

import "errors"

// Sentinel errors shared by the store, query and library packages.
// Callers match them with errors.Is; every returned error wraps one of these
// with context about the operation that failed.
var (
	// ErrStorageUnavailable indicates the database could not be opened or migrated
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound indicates a referenced song or tag does not exist
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation indicates a write rejected by a schema constraint
	// (tag value outside 0-9, feedback not -1/+1, dangling foreign key)
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInvalidOperator indicates a comparison operator outside the allow-list
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrQuery indicates a storage failure while executing a song query
	ErrQuery = errors.New("query failed")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
