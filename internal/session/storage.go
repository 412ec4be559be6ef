package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// Ext is the file extension of stored sessions.
	Ext = ".session"

	fileMode = 0600
	dirMode  = 0700
)

// validateName accepts only names that stay a single path element.
func validateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: bad session name %q", ErrValidation, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: session name %q must not contain path separators", ErrValidation, name)
	case filepath.Base(name) != name || filepath.VolumeName(name) != "":
		return fmt.Errorf("%w: bad session name %q", ErrValidation, name)
	}
	return nil
}

func (m *Manager) sessionPath(name string) string {
	return filepath.Join(m.opts.StorageDir, name+Ext)
}

// readSession returns the raw blob stored under name.
func (m *Manager) readSession(name string) ([]byte, error) {
	data, err := afero.ReadFile(m.fs, m.sessionPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, name, err)
	}
	return data, nil
}

// writeAtomic writes data to path through a temp file in the same directory
// so readers never observe a partial session.
func writeAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("%w: create storage dir: %v", ErrStorage, err)
	}
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrStorage, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return fmt.Errorf("%w: write session: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("%w: close temp file: %v", ErrStorage, err)
	}
	if err := fs.Chmod(tmpPath, fileMode); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("%w: set permissions: %v", ErrStorage, err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("%w: rename session: %v", ErrStorage, err)
	}
	return nil
}
