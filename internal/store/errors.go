package store

import (
	"errors"
	"fmt"

	"github.com/graevy/mag/internal/util"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// classify maps SQLite constraint failures (CHECK, FOREIGN KEY, NOT NULL,
// UNIQUE) onto util.ErrConstraintViolation. Other errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsConstraint(err) {
		return fmt.Errorf("%w: %w", util.ErrConstraintViolation, err)
	}
	return err
}

// IsConstraint reports whether err is a SQLite constraint failure
func IsConstraint(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	// Extended result codes carry the primary code in the low byte
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
