package cookies

import (
	"errors"
	"fmt"
)

var (
	// ErrAccess means the cookie database could not be copied or opened,
	// usually because the browser holds it.
	ErrAccess = errors.New("cookie database is not accessible")
	// ErrSchema means the file is not a recognised cookie database.
	ErrSchema = errors.New("unsupported cookie database schema")
	// ErrRowApply marks a single row that could not be written.
	ErrRowApply = errors.New("cookie row could not be applied")
)

// AccessError describes a failure to reach a cookie database file.
type AccessError struct {
	Path string
	// Locked is set when the OS reported a lock or sharing violation.
	Locked bool
	Err    error
}

func (e *AccessError) Error() string {
	if e.Locked {
		return fmt.Sprintf("cookie database %s is locked by another process: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot access cookie database %s: %v", e.Path, e.Err)
}

func (e *AccessError) Unwrap() []error {
	return []error{ErrAccess, e.Err}
}

func newAccessError(path string, err error) *AccessError {
	return &AccessError{Path: path, Locked: isLockError(err), Err: err}
}

// RowError records one row that was skipped during Apply.
type RowError struct {
	// Index is the position of the row in the input.
	Index int
	Host  string
	Name  string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("cookie %d (%s %s): %v", e.Index, e.Host, e.Name, e.Err)
}

func (e RowError) Unwrap() []error {
	return []error{ErrRowApply, e.Err}
}
