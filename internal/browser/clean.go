package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agclean/agclean/internal/cookies"
	"github.com/agclean/agclean/pkg/logger"
	"github.com/spf13/afero"
)

// DefaultKeywords identify Antigravity-related data.
var DefaultKeywords = []string{
	"antigravity",
	"anti-gravity",
	"anti_gravity",
	"deepmind",
	"gemini-code",
	"google.com/antigravity",
	"accounts.google.com/antigravity",
}

// CleanerOptions configures a Cleaner.
type CleanerOptions struct {
	DryRun bool
	// BackupDir receives a copy of every cookie database before it is purged.
	BackupDir string
	Keywords  []string
	// Fs holds LocalStorage and cache files. Defaults to the OS.
	Fs     afero.Fs
	Logger logger.Logger
	Now    func() time.Time
	// OnProfile, when set, is called after each profile of CleanBrowser.
	OnProfile func(profile string, done, total int)
}

// Stats counts what CleanBrowser removed.
type Stats struct {
	Cookies      int
	LocalStorage int
	Cache        int
	Profiles     int
}

// Cleaner removes keyword-matching cookies, LocalStorage files and cache
// entries from browser profiles.
type Cleaner struct {
	locator   *Locator
	inspector *Inspector
	opts      CleanerOptions
}

// NewCleaner returns a Cleaner. inspector may be nil, in which case running
// browsers are not closed.
func NewCleaner(locator *Locator, inspector *Inspector, opts CleanerOptions) *Cleaner {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Keywords) == 0 {
		opts.Keywords = DefaultKeywords
	}
	return &Cleaner{locator: locator, inspector: inspector, opts: opts}
}

func (c *Cleaner) matches(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range c.opts.Keywords {
		if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// CleanCookies removes keyword-matching cookies from a profile and returns
// how many were deleted. The database is copied to the backup directory
// first and put back if the delete fails.
func (c *Cleaner) CleanCookies(key, profilePath string) (int, error) {
	log := c.opts.Logger
	log.Info("Cleaning Antigravity cookies from %s profile...", key)

	dbPath, err := c.locator.CookieDB(key, profilePath)
	if err != nil {
		return 0, err
	}
	if !isFile(dbPath) {
		log.Warning("Cookie database not found: %s", dbPath)
		return 0, nil
	}

	if c.opts.DryRun {
		n, err := cookies.CountMatching(dbPath, c.opts.Keywords)
		if err != nil {
			log.Error("Could not inspect cookies: %v", err)
			return 0, err
		}
		log.Info("[DRY RUN] Would delete %d cookies", n)
		return n, nil
	}

	backup, err := c.backup(key, profilePath, dbPath)
	if err != nil {
		log.Error("Backup failed, aborting cookie cleaning: %v", err)
		return 0, err
	}

	deleted, err := cookies.Purge(dbPath, c.opts.Keywords)
	if err != nil {
		log.Error("SQLite error: %v", err)
		if !errors.Is(err, cookies.ErrAccess) {
			log.Info("Attempting to restore from backup...")
			if rerr := cookies.RestoreDatabase(backup, dbPath); rerr != nil {
				log.Error("Restore failed: %v", rerr)
			} else {
				log.Info("Restored %s from backup", dbPath)
			}
		}
		return 0, err
	}
	log.Info("Cleaned %d Antigravity cookies", deleted)
	return int(deleted), nil
}

// backup copies dbPath into the backup directory under a name unique to the
// browser and profile.
func (c *Cleaner) backup(key, profilePath, dbPath string) (string, error) {
	if err := os.MkdirAll(c.opts.BackupDir, 0700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.backup_%s", key, sanitize(filepath.Base(profilePath)),
		filepath.Base(dbPath), c.opts.Now().Format(cookies.BackupStampLayout))
	dst := filepath.Join(c.opts.BackupDir, name)
	if err := cookies.CopyDatabase(dbPath, dst); err != nil {
		return "", err
	}
	c.opts.Logger.Info("Created backup: %s", dst)
	return dst, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == os.PathSeparator || r == '/' {
			return '_'
		}
		return r
	}, s)
}

// CleanLocalStorage removes keyword-matching LocalStorage files of a
// Chromium profile. LevelDB contents are not edited; only whole files whose
// name matches are removed.
func (c *Cleaner) CleanLocalStorage(key, profilePath string) (int, error) {
	log := c.opts.Logger
	log.Info("Cleaning Antigravity LocalStorage from %s profile...", key)
	b, err := c.locator.Get(key)
	if err != nil {
		return 0, err
	}

	var lsPath string
	switch b.Engine {
	case EngineGecko:
		lsPath = filepath.Join(profilePath, "webappsstore.sqlite")
	case EngineChromium:
		lsPath = filepath.Join(profilePath, "Local Storage", "leveldb")
	default:
		return 0, nil
	}
	fi, err := c.opts.Fs.Stat(lsPath)
	if err != nil {
		log.Warning("LocalStorage not found: %s", lsPath)
		return 0, nil
	}
	if !fi.IsDir() {
		return 0, nil
	}

	entries, err := afero.ReadDir(c.opts.Fs, lsPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", lsPath, err)
	}
	deleted := 0
	for _, e := range entries {
		if e.IsDir() || !c.matches(e.Name()) {
			continue
		}
		if c.remove(filepath.Join(lsPath, e.Name())) {
			deleted++
		}
	}
	log.Info("Cleaned %d LocalStorage items", deleted)
	return deleted, nil
}

// CleanCache removes keyword-matching files from a profile's cache folders.
func (c *Cleaner) CleanCache(key, profilePath string) (int, error) {
	log := c.opts.Logger
	log.Info("Cleaning Antigravity cache from %s profile...", key)
	b, err := c.locator.Get(key)
	if err != nil {
		return 0, err
	}

	var dirs []string
	switch b.Engine {
	case EngineGecko:
		dirs = []string{filepath.Join(profilePath, "cache2", "entries")}
	case EngineChromium:
		dirs = []string{
			filepath.Join(profilePath, "Cache", "Cache_Data"),
			filepath.Join(profilePath, "Code Cache"),
			filepath.Join(profilePath, "GPUCache"),
		}
	}

	deleted := 0
	for _, dir := range dirs {
		if ok, _ := afero.DirExists(c.opts.Fs, dir); !ok {
			continue
		}
		var matched []string
		err := afero.Walk(c.opts.Fs, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() && c.matches(info.Name()) {
				matched = append(matched, path)
			}
			return nil
		})
		if err != nil {
			log.Warning("Could not scan %s: %v", dir, err)
		}
		for _, p := range matched {
			if c.remove(p) {
				deleted++
			}
		}
	}
	log.Info("Cleaned %d cache entries", deleted)
	return deleted, nil
}

func (c *Cleaner) remove(path string) bool {
	if c.opts.DryRun {
		c.opts.Logger.Info("[DRY RUN] Would delete: %s", path)
		return true
	}
	if err := c.opts.Fs.Remove(path); err != nil {
		c.opts.Logger.Error("Failed to delete %s: %v", path, err)
		return false
	}
	c.opts.Logger.Debug("Deleted: %s", path)
	return true
}

// CleanBrowser closes the browser if it is running and cleans every profile.
// Per-profile failures are logged and returned joined; the other profiles are
// still cleaned.
func (c *Cleaner) CleanBrowser(ctx context.Context, key string) (Stats, error) {
	log := c.opts.Logger
	log.Info("Starting complete cleaning for %s...", key)
	var stats Stats

	if c.inspector != nil && c.inspector.IsRunning(key) {
		log.Warning("%s is currently running", key)
		if err := c.inspector.CloseGracefully(ctx, key); err != nil {
			log.Warning("Graceful close failed, attempting force kill...")
			if err := c.inspector.Kill(ctx, key); err != nil {
				log.Error("Could not close %s. Aborting cleaning.", key)
				return stats, err
			}
		}
	}

	profiles, err := c.locator.Profiles(key)
	if err != nil {
		return stats, err
	}
	if len(profiles) == 0 {
		log.Warning("No profiles found for %s", key)
		return stats, nil
	}

	var errs []error
	for i, p := range profiles {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		log.Info("Cleaning profile: %s", p.Name)
		if n, err := c.CleanCookies(key, p.Path); err != nil {
			errs = append(errs, fmt.Errorf("%s cookies: %w", p.Name, err))
		} else {
			stats.Cookies += n
		}
		if n, err := c.CleanLocalStorage(key, p.Path); err != nil {
			errs = append(errs, fmt.Errorf("%s local storage: %w", p.Name, err))
		} else {
			stats.LocalStorage += n
		}
		if n, err := c.CleanCache(key, p.Path); err != nil {
			errs = append(errs, fmt.Errorf("%s cache: %w", p.Name, err))
		} else {
			stats.Cache += n
		}
		stats.Profiles++
		if c.opts.OnProfile != nil {
			c.opts.OnProfile(p.Name, i+1, len(profiles))
		}
	}
	log.Info("Cleaning complete for %s: %d cookies, %d LocalStorage items, %d cache entries, %d profiles",
		key, stats.Cookies, stats.LocalStorage, stats.Cache, stats.Profiles)
	return stats, errors.Join(errs...)
}
