package repository

import (
	"errors"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrEntryNotFound is returned by UpdateEntryTime when the row does not exist.
var ErrEntryNotFound = errors.New("leaderboard entry not found")

// StorageError reports a store operation that could not complete.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Constraint reports whether the failure was a SQLite constraint violation.
func (e *StorageError) Constraint() bool {
	var sqliteErr *msqlite.Error
	if errors.As(e.Err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_CONSTRAINT
	}
	return false
}

// IsStorageError reports whether err carries a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
