//go:build windows

package cookies

import (
	"errors"

	"golang.org/x/sys/windows"
)

// isLockError reports whether err came from another process holding the file.
// Chromium keeps its cookie database open without FILE_SHARE_READ, so copies
// fail with a sharing violation while the browser runs.
func isLockError(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) ||
		errors.Is(err, windows.ERROR_LOCK_VIOLATION) ||
		isBusyDatabase(err)
}
