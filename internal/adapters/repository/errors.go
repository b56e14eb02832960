package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("not found")
	// ErrConflict wraps duplicate-key and foreign-key violations.
	ErrConflict = errors.New("conflict")
	// ErrNoFields is returned by updates with nothing to set.
	ErrNoFields = errors.New("no updatable fields supplied")
)

// MySQL server error numbers translated to ErrConflict.
const (
	erDupEntry            = 1062
	erRowIsReferenced     = 1217
	erNoReferencedRow     = 1216
	erRowIsReferenced2    = 1451
	erNoReferencedRow2    = 1452
	erDupEntryWithKeyName = 1586
)
