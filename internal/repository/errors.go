// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios. For example,
// ErrNotFound indicates that a row targeted by an update or delete does not
// exist, while ErrConflict signals that an operation cannot proceed because
// of dependent records (e.g. deleting a fair that still owns sectors).
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup, update or delete targets a row that
// does not exist. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a fair that still owns
// sectors. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key violation (1062).
// The link tables rely on composite UNIQUE keys, so a concurrent writer
// racing the existence check surfaces here and is treated as idempotent
// success by callers.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
