// Package keystore manages the master key that protects saved sessions.
//
// The key is 32 raw bytes stored at {storageDir}/.key with 0600 permissions.
// It is created on first use, reused afterwards and never rotated. An
// optional escrow copy in the OS keyring lets a damaged key file be repaired
// instead of orphaning every saved session.
package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agclean/agclean/pkg/logger"
	"github.com/agclean/agclean/pkg/sessioncrypt"
	"github.com/spf13/afero"
)

const (
	// KeyFileName is the master key file inside the storage directory.
	KeyFileName = ".key"
	keyFileMode = 0600
	dirMode     = 0700
)

// ErrKeyCorrupt is returned when the key file exists but cannot be used and
// neither escrow recovery nor regeneration is available.
var ErrKeyCorrupt = errors.New("master key file is unreadable or corrupt")

// Escrow stores a second copy of the master key outside the storage
// directory.
type Escrow interface {
	Get() ([]byte, error)
	Set(key []byte) error
}

// Options configures a FileKeyStore.
type Options struct {
	// Fs is the filesystem holding the storage directory. Defaults to the OS.
	Fs afero.Fs
	// Escrow, when non-nil, receives every new key and is consulted when the
	// key file is missing or corrupt.
	Escrow Escrow
	// RegenerateCorrupt moves a corrupt key file aside and mints a new key.
	// Sessions sealed with the old key become unreadable.
	RegenerateCorrupt bool
	// ReadOnly never writes to Fs or Escrow. Used for dry runs.
	ReadOnly bool
	Logger   logger.Logger
	Now      func() time.Time
}

// Info describes how LoadOrCreate obtained the key.
type Info struct {
	Path string
	// Created is set when a new key was generated.
	Created bool
	// Persisted is false when the key only exists in memory.
	Persisted bool
	// Recovered is set when the key came from escrow.
	Recovered bool
	// Regenerated is set when a corrupt key file was replaced.
	Regenerated bool
}

// FileKeyStore loads and creates the master key file.
type FileKeyStore struct {
	dir  string
	opts Options
}

var generateKey = sessioncrypt.GenerateKey

// NewFileKeyStore creates a store for the key kept in dir.
func NewFileKeyStore(dir string, opts Options) *FileKeyStore {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &FileKeyStore{dir: dir, opts: opts}
}

// Path returns the key file location.
func (f *FileKeyStore) Path() string {
	return filepath.Join(f.dir, KeyFileName)
}

// LoadOrCreate returns the master key, creating it if needed.
//
// Write failures while persisting a new key are logged and the key is
// returned anyway with Info.Persisted false.
func (f *FileKeyStore) LoadOrCreate() ([]byte, Info, error) {
	info := Info{Path: f.Path()}
	log := f.opts.Logger

	data, err := afero.ReadFile(f.opts.Fs, f.Path())
	switch {
	case err == nil && len(data) == sessioncrypt.KeySize:
		log.Debug("Loaded existing master key")
		info.Persisted = true
		f.mirror(data)
		return data, info, nil
	case err != nil && errors.Is(err, os.ErrNotExist):
		if key, ok := f.fromEscrow(); ok {
			return f.recover(key, info)
		}
		return f.create(info)
	}

	if err != nil {
		log.Warning("Could not load master key: %v", err)
	} else {
		log.Warning("Could not load master key: invalid length %d", len(data))
	}
	if key, ok := f.fromEscrow(); ok {
		return f.recover(key, info)
	}
	if !f.opts.RegenerateCorrupt {
		return nil, info, fmt.Errorf("%w: %s", ErrKeyCorrupt, f.Path())
	}
	if !f.opts.ReadOnly {
		aside := fmt.Sprintf("%s.corrupt-%s", f.Path(), f.opts.Now().Format("20060102_150405"))
		if err := f.opts.Fs.Rename(f.Path(), aside); err != nil {
			log.Error("Could not move corrupt master key aside: %v", err)
			return nil, info, fmt.Errorf("%w: %v", ErrKeyCorrupt, err)
		}
		log.Warning("Moved corrupt master key to %s; existing sessions can no longer be decrypted", aside)
	}
	info.Regenerated = true
	return f.create(info)
}

func (f *FileKeyStore) create(info Info) ([]byte, Info, error) {
	key, err := generateKey()
	if err != nil {
		return nil, info, fmt.Errorf("generate key: %w", err)
	}
	info.Created = true
	if f.opts.ReadOnly {
		f.opts.Logger.Debug("Generated in-memory master key (read-only)")
		return key, info, nil
	}
	if err := f.write(key); err != nil {
		f.opts.Logger.Error("Could not save master key: %v", err)
		return key, info, nil
	}
	info.Persisted = true
	f.opts.Logger.Debug("Created new master key")
	f.mirror(key)
	return key, info, nil
}

func (f *FileKeyStore) recover(key []byte, info Info) ([]byte, Info, error) {
	info.Recovered = true
	if f.opts.ReadOnly {
		return key, info, nil
	}
	if err := f.write(key); err != nil {
		f.opts.Logger.Error("Could not rewrite master key from escrow: %v", err)
		return key, info, nil
	}
	info.Persisted = true
	f.opts.Logger.Info("Restored master key from OS keyring")
	return key, info, nil
}

// write stores key atomically: temp file, chmod, rename.
func (f *FileKeyStore) write(key []byte) error {
	fs := f.opts.Fs
	if err := fs.MkdirAll(f.dir, dirMode); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	tmp, err := afero.TempFile(fs, f.dir, ".key.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(key); err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return fmt.Errorf("write key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Chmod(tmpPath, keyFileMode); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := fs.Rename(tmpPath, f.Path()); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("rename key file: %w", err)
	}
	return nil
}

func (f *FileKeyStore) fromEscrow() ([]byte, bool) {
	if f.opts.Escrow == nil {
		return nil, false
	}
	key, err := f.opts.Escrow.Get()
	if err != nil {
		f.opts.Logger.Debug("No escrowed master key: %v", err)
		return nil, false
	}
	if len(key) != sessioncrypt.KeySize {
		f.opts.Logger.Warning("Ignoring escrowed master key with invalid length %d", len(key))
		return nil, false
	}
	return key, true
}

func (f *FileKeyStore) mirror(key []byte) {
	if f.opts.Escrow == nil || f.opts.ReadOnly {
		return
	}
	if existing, err := f.opts.Escrow.Get(); err == nil && string(existing) == string(key) {
		return
	}
	if err := f.opts.Escrow.Set(key); err != nil {
		f.opts.Logger.Warning("Could not escrow master key in OS keyring: %v", err)
	}
}
