package cookies

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// companions are the SQLite side files that must travel with a database copy.
var companions = []string{"-wal", "-shm"}

// SafeCopy copies a SQLite cookie file (and its -wal and -shm companions if
// they exist) to a temporary directory. This prevents locking conflicts with
// the browser that owns the database.
//
// Returns the path of the copied database, a cleanup function that removes
// the temp directory, and an error. The caller MUST call cleanup when done.
// Failures to read the source are reported as *AccessError.
func SafeCopy(srcPath string) (copyPath string, cleanup func(), err error) {
	if err := checkSource(srcPath); err != nil {
		return "", nil, err
	}

	tempDir, err := os.MkdirTemp("", "agclean-snapshot-*")
	if err != nil {
		return "", nil, fmt.Errorf("cannot create temp directory: %w", err)
	}
	cleanup = func() {
		os.RemoveAll(tempDir)
	}

	copyPath = filepath.Join(tempDir, filepath.Base(srcPath))
	if err := CopyDatabase(srcPath, copyPath); err != nil {
		cleanup()
		return "", nil, err
	}
	return copyPath, cleanup, nil
}

// BackupCopy copies the database and its companions next to the original as
// {srcPath}.backup_{stamp}. The copy is kept.
func BackupCopy(srcPath, stamp string) (string, error) {
	if err := checkSource(srcPath); err != nil {
		return "", err
	}
	dst := fmt.Sprintf("%s.backup_%s", srcPath, stamp)
	if err := CopyDatabase(srcPath, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func checkSource(srcPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return newAccessError(srcPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSchema, srcPath)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrSchema, srcPath)
	}
	return nil
}

// CopyDatabase copies a database file to dst along with its -wal and -shm
// companions when present. A companion that fails to copy fails the whole
// copy, since the main file alone may miss committed rows.
func CopyDatabase(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return err
	}
	for _, suffix := range companions {
		companion := src + suffix
		if _, err := os.Stat(companion); err != nil {
			continue
		}
		if err := copyFile(companion, dst+suffix); err != nil {
			removeCopies(dst)
			return fmt.Errorf("copy %s companion: %w", suffix, err)
		}
	}
	return nil
}

// removeCopies deletes a partial copy at dst. Companion paths that are not
// regular files are left in place.
func removeCopies(dst string) {
	_ = os.Remove(dst)
	for _, suffix := range companions {
		if fi, err := os.Lstat(dst + suffix); err == nil && fi.Mode().IsRegular() {
			_ = os.Remove(dst + suffix)
		}
	}
}

// copyFile copies a file from src to dst, preserving the source mode.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return newAccessError(src, err)
	}
	defer in.Close()

	mode := os.FileMode(0600)
	if fi, err := in.Stat(); err == nil {
		mode = fi.Mode().Perm()
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("cannot create destination file %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return newAccessError(src, err)
	}
	return out.Close()
}

// RestoreDatabase replaces dst with the backup at src. Companions of dst are
// removed first so a stale -wal is never replayed over the restored file.
func RestoreDatabase(src, dst string) error {
	if err := checkSource(src); err != nil {
		return err
	}
	for _, suffix := range companions {
		if err := os.Remove(dst + suffix); err != nil && !os.IsNotExist(err) {
			return newAccessError(dst+suffix, err)
		}
	}
	return CopyDatabase(src, dst)
}
