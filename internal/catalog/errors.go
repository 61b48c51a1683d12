package catalog

import (
	"errors"
	"strings"
)

// SQLite extended result codes for uniqueness violations.
const (
	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
)

// IsUniqueViolation reports whether an error is a uniqueness-constraint
// violation. Lost insert races show up as this; callers recover by re-reading
// the row the winner wrote.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UpsertWithRaceRecovery runs insert and, when the insert lost a uniqueness
// race to a concurrent writer, converges on the winner's row via reread.
// Any other insert error is returned as-is.
func UpsertWithRaceRecovery[T any](insert func() (T, error), reread func() (T, error)) (T, error) {
	value, err := insert()
	if err == nil {
		return value, nil
	}
	if !IsUniqueViolation(err) {
		var zero T
		return zero, err
	}
	return reread()
}
