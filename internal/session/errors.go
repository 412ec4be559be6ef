package session

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed session names or records.
	ErrValidation = errors.New("invalid session")
	// ErrExpired is returned for records older than MaxAge. It matches
	// ErrValidation.
	ErrExpired = fmt.Errorf("%w: session expired", ErrValidation)
	// ErrStorage is returned when the storage directory cannot be written.
	ErrStorage = errors.New("session storage failure")
	// ErrNotFound is returned when no session file has the given name.
	ErrNotFound = errors.New("session not found")
	// ErrBrowserRunning is returned when a restore target browser is open.
	ErrBrowserRunning = errors.New("browser is running; close it before restoring")
	// ErrNoCookies is returned when a backup source holds no cookies.
	ErrNoCookies = errors.New("no cookies found in database")
)
