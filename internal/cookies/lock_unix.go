//go:build !windows

package cookies

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isLockError reports whether err came from another process holding the file.
func isLockError(err error) bool {
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK) ||
		errors.Is(err, unix.EBUSY) ||
		errors.Is(err, unix.ETXTBSY) ||
		isBusyDatabase(err)
}
