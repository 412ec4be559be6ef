// Package session backs up browser login cookies into encrypted session
// files and restores them into live cookie databases.
package session

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/agclean/agclean/internal/browser"
	"github.com/agclean/agclean/internal/cookies"
	"github.com/agclean/agclean/pkg/keystore"
	"github.com/agclean/agclean/pkg/logger"
	"github.com/agclean/agclean/pkg/sessioncrypt"
	"github.com/spf13/afero"
)

// MaxAge is how long a backed-up session stays restorable.
const MaxAge = 30 * 24 * time.Hour

// NameStampLayout formats the timestamp of generated session names.
const NameStampLayout = "20060102_150405"

// Locator resolves cookie databases and schema families for browsers.
type Locator interface {
	CookieDB(browser, profilePath string) (string, error)
	Family(browser string) (cookies.Family, error)
}

// ProcessGuard reports whether a browser is running.
type ProcessGuard interface {
	IsRunning(browser string) bool
}

// Options configures a Manager. Only StorageDir is required.
type Options struct {
	StorageDir string
	// DryRun makes every mutating operation log what it would do instead.
	DryRun bool
	Now    func() time.Time
	Logger logger.Logger
	// Fs holds the storage directory. Defaults to the OS.
	Fs afero.Fs
	// Locator defaults to the supported browser table.
	Locator Locator
	// Guard, when set, makes restores refuse while the target browser runs.
	Guard ProcessGuard
	// KeyEscrow keeps a copy of the master key in the OS keyring.
	KeyEscrow keystore.Escrow
	// RegenerateCorruptKey replaces an unreadable key file with a new key.
	RegenerateCorruptKey bool
	// BusyTimeoutMS bounds how long a restore waits on a database lock.
	BusyTimeoutMS int
	// OnRestoreProgress is called after each restored row.
	OnRestoreProgress func(done, total int)
}

// Manager backs up, restores, validates, lists and deletes saved sessions.
// It is not safe for concurrent use.
type Manager struct {
	opts    Options
	fs      afero.Fs
	log     logger.Logger
	keys    *sessioncrypt.KeySet
	keyInfo keystore.Info
}

// RestoreResult describes a completed restore. Rows that failed are listed
// in Errors; a restore with some failed rows still succeeds.
type RestoreResult struct {
	cookies.ApplyResult
	Name     string
	CookieDB string
	DryRun   bool
}

// Summary describes one stored session file.
type Summary struct {
	Name        string
	Browser     string
	BackupTime  time.Time
	CookieCount int
	FileSize    int64
	Expired     bool
	// Err is set when the file could not be decrypted or decoded.
	Err error
}

// NewManager creates the storage directory and loads or creates the master
// key. In dry-run mode nothing is created; an existing key is still loaded.
func NewManager(opts Options) (*Manager, error) {
	if opts.StorageDir == "" {
		return nil, fmt.Errorf("%w: storage directory is required", ErrStorage)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Locator == nil {
		opts.Locator = browser.NewLocator(opts.Logger)
	}
	m := &Manager{opts: opts, fs: opts.Fs, log: opts.Logger}

	if !opts.DryRun {
		if err := m.fs.MkdirAll(opts.StorageDir, dirMode); err != nil {
			m.log.Error("Could not create storage directory %s: %v", opts.StorageDir, err)
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	ks := keystore.NewFileKeyStore(opts.StorageDir, keystore.Options{
		Fs:                opts.Fs,
		Escrow:            opts.KeyEscrow,
		RegenerateCorrupt: opts.RegenerateCorruptKey,
		ReadOnly:          opts.DryRun,
		Logger:            opts.Logger,
		Now:               opts.Now,
	})
	key, info, err := ks.LoadOrCreate()
	if err != nil {
		m.log.Error("Could not load master key: %v", err)
		return nil, err
	}
	if !info.Persisted && !opts.DryRun {
		m.log.Warning("Master key is not saved; sessions backed up now cannot be restored after exit")
	}
	keys, err := sessioncrypt.NewKeySet(sessioncrypt.LegacyKeyVersion, key)
	if err != nil {
		return nil, err
	}
	m.keys, m.keyInfo = keys, info

	m.log.Info("SessionManager initialized (Storage: %s, Dry-run: %v)", opts.StorageDir, opts.DryRun)
	return m, nil
}

// KeyInfo reports how the master key was obtained.
func (m *Manager) KeyInfo() keystore.Info {
	return m.keyInfo
}

// StorageDir returns the session storage directory.
func (m *Manager) StorageDir() string {
	return m.opts.StorageDir
}

// BackupSession snapshots the cookie database of a profile and stores it
// encrypted. An empty name generates {browser}_{timestamp}. It returns the
// session file path.
func (m *Manager) BackupSession(browserKey, profilePath, name string) (string, error) {
	m.log.Info("Backing up %s session...", browserKey)
	if name != "" {
		if err := validateName(name); err != nil {
			m.log.Error("%v", err)
			return "", err
		}
	}

	dbPath, err := m.opts.Locator.CookieDB(browserKey, profilePath)
	if err != nil {
		m.log.Error("Could not locate cookie database: %v", err)
		return "", err
	}
	snap, err := cookies.ReadSnapshot(dbPath)
	if err != nil {
		var ae *cookies.AccessError
		if errors.As(err, &ae) && !errors.Is(err, os.ErrNotExist) {
			m.log.Error("Could not access %s cookies. Please close the browser and try again.", browserKey)
		} else {
			m.log.Error("Failed to read cookie database: %v", err)
		}
		return "", err
	}
	if len(snap.Rows) == 0 {
		m.log.Warning("No cookies found in database")
		return "", fmt.Errorf("%w: %s", ErrNoCookies, dbPath)
	}

	now := m.opts.Now()
	rec := NewRecord(browserKey, profilePath, now, snap)
	if name == "" {
		name = fmt.Sprintf("%s_%s", browserKey, now.Format(NameStampLayout))
	}
	path := m.sessionPath(name)

	if m.opts.DryRun {
		m.log.Info("[DRY RUN] Would backup %d cookies as '%s'", rec.CookieCount, name)
		return path, nil
	}

	blob, err := sessioncrypt.EncryptJSON(m.keys, rec)
	if err != nil {
		m.log.Error("Encryption failed: %v", err)
		return "", err
	}
	if err := writeAtomic(m.fs, path, blob); err != nil {
		m.log.Error("Could not save session: %v", err)
		return "", err
	}
	m.log.Info("[OK] Backed up %d cookies to '%s'", rec.CookieCount, name)
	return path, nil
}

// load reads and decrypts a stored session.
func (m *Manager) load(name string) (*Record, error) {
	blob, err := m.readSession(name)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := sessioncrypt.DecryptJSON(m.keys, blob, &rec); err != nil {
		if errors.Is(err, sessioncrypt.ErrIntegrity) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &rec, nil
}

// RestoreSession writes the cookies of a stored session into the cookie
// database of the given profile. Invalid or expired sessions are refused
// before anything is written.
func (m *Manager) RestoreSession(name, browserKey, profilePath string) (*RestoreResult, error) {
	m.log.Info("Restoring session '%s' to %s...", name, browserKey)
	if err := validateName(name); err != nil {
		m.log.Error("%v", err)
		return nil, err
	}

	rec, err := m.load(name)
	if err != nil {
		m.log.Error("Could not load session '%s': %v", name, err)
		return nil, err
	}
	if err := m.ValidateSession(rec); err != nil {
		m.log.Error("Session validation failed")
		return nil, err
	}
	if m.opts.Guard != nil && m.opts.Guard.IsRunning(browserKey) {
		m.log.Error("%s is running. Close it before restoring.", browserKey)
		return nil, fmt.Errorf("%w: %s", ErrBrowserRunning, browserKey)
	}

	dbPath, err := m.opts.Locator.CookieDB(browserKey, profilePath)
	if err != nil {
		m.log.Error("Could not locate cookie database: %v", err)
		return nil, err
	}
	if fi, err := os.Stat(dbPath); err != nil || fi.IsDir() {
		m.log.Error("Cookie database not found: %s", dbPath)
		if err == nil {
			err = fmt.Errorf("%s is a directory", dbPath)
		}
		return nil, &cookies.AccessError{Path: dbPath, Err: err}
	}

	res := &RestoreResult{Name: name, CookieDB: dbPath}
	if m.opts.DryRun {
		m.log.Info("[DRY RUN] Would restore %d cookies", rec.CookieCount)
		res.DryRun = true
		res.Total = len(rec.Cookies)
		return res, nil
	}

	rows := rec.Cookies
	from, ferr := m.opts.Locator.Family(rec.Browser)
	to, terr := m.opts.Locator.Family(browserKey)
	if ferr == nil && terr == nil && from != to && from != cookies.FamilyUnknown && to != cookies.FamilyUnknown {
		m.log.Debug("Converting cookie expiry from %s to %s", from, to)
		rows = cookies.ConvertRows(rows, from, to)
	}

	applied, err := cookies.Apply(dbPath, rows, cookies.ApplyOptions{
		Now:           m.opts.Now,
		BusyTimeoutMS: m.opts.BusyTimeoutMS,
		OnRow:         m.opts.OnRestoreProgress,
	})
	if applied != nil {
		res.ApplyResult = *applied
	}
	if err != nil {
		var ae *cookies.AccessError
		if errors.As(err, &ae) && ae.Locked {
			m.log.Error("%s cookie database is locked. Close the browser and try again.", browserKey)
		} else {
			m.log.Error("Session restore failed: %v", err)
		}
		return nil, err
	}
	m.log.Debug("Created backup: %s", res.BackupPath)
	for _, re := range res.Errors {
		m.log.Warning("Could not restore cookie %s: %v", re.Name, re.Err)
	}
	m.log.Info("[OK] Restored %d/%d cookies", res.Applied, res.Total)
	return res, nil
}

// ValidateSession checks required fields, the cookie count and the age of a
// record. A record exactly MaxAge old is still valid; future timestamps are
// accepted.
func (m *Manager) ValidateSession(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("%w: no record", ErrValidation)
	}
	switch {
	case rec.Browser == "":
		m.log.Error("Session missing required field: browser")
		return fmt.Errorf("%w: missing browser", ErrValidation)
	case rec.RawBackupTime() == "":
		m.log.Error("Session missing required field: backup_time")
		return fmt.Errorf("%w: missing backup_time", ErrValidation)
	case rec.Cookies == nil:
		m.log.Error("Session missing required field: cookies")
		return fmt.Errorf("%w: missing cookies", ErrValidation)
	case rec.BackupTime.IsZero():
		m.log.Error("Could not parse backup time: %q", rec.RawBackupTime())
		return fmt.Errorf("%w: invalid backup_time %q", ErrValidation, rec.RawBackupTime())
	case rec.CookieCount != len(rec.Cookies):
		m.log.Error("Session cookie count %d does not match %d stored cookies", rec.CookieCount, len(rec.Cookies))
		return fmt.Errorf("%w: cookie_count %d but %d cookies", ErrValidation, rec.CookieCount, len(rec.Cookies))
	}

	age := m.opts.Now().Sub(rec.BackupTime)
	days := int(age / (24 * time.Hour))
	if age > MaxAge {
		m.log.Warning("Session expired (%d days old)", days)
		return fmt.Errorf("%w: %d days old", ErrExpired, days)
	}
	m.log.Debug("Session age: %d days (valid)", days)
	return nil
}

// IsSessionExpired reports whether a stored session is missing, unreadable
// or no longer valid.
func (m *Manager) IsSessionExpired(name string) bool {
	if err := validateName(name); err != nil {
		return true
	}
	rec, err := m.load(name)
	if err != nil {
		m.log.Error("Could not check session expiration: %v", err)
		return true
	}
	return m.ValidateSession(rec) != nil
}

// ListSavedSessions returns every stored session sorted by name. Sessions
// that cannot be decrypted are listed as expired with Err set.
func (m *Manager) ListSavedSessions() []Summary {
	m.log.Debug("Listing saved sessions...")
	entries, err := afero.ReadDir(m.fs, m.opts.StorageDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.log.Warning("Could not read storage directory: %v", err)
		}
		return nil
	}

	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), Ext)
		s := Summary{Name: name, FileSize: e.Size()}
		rec, err := m.load(name)
		if err != nil {
			m.log.Warning("Could not load session %s: %v", name, err)
			s.Expired = true
			s.Err = err
			out = append(out, s)
			continue
		}
		s.Browser = rec.Browser
		s.BackupTime = rec.BackupTime
		s.CookieCount = len(rec.Cookies)
		s.Expired = m.ValidateSession(rec) != nil
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	m.log.Debug("Found %d saved sessions", len(out))
	return out
}

// DeleteSession removes a stored session.
func (m *Manager) DeleteSession(name string) error {
	m.log.Info("Deleting session '%s'...", name)
	if err := validateName(name); err != nil {
		m.log.Error("%v", err)
		return err
	}
	path := m.sessionPath(name)
	if ok, _ := afero.Exists(m.fs, path); !ok {
		m.log.Warning("Session not found: %s", name)
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if m.opts.DryRun {
		m.log.Info("[DRY RUN] Would delete session '%s'", name)
		return nil
	}
	if err := m.fs.Remove(path); err != nil {
		m.log.Error("Could not delete session: %v", err)
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	m.log.Info("[OK] Deleted session '%s'", name)
	return nil
}

// DeleteExpiredSessions removes every expired or unreadable session and
// returns how many were removed. In dry-run mode it returns how many would be.
func (m *Manager) DeleteExpiredSessions() int {
	m.log.Info("Deleting expired sessions...")
	deleted := 0
	for _, s := range m.ListSavedSessions() {
		if !s.Expired {
			continue
		}
		if err := m.DeleteSession(s.Name); err == nil {
			deleted++
		}
	}
	m.log.Info("Deleted %d expired sessions", deleted)
	return deleted
}
