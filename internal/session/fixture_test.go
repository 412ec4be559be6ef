package session

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/agclean/agclean/internal/cookies"
	"github.com/agclean/agclean/pkg/logger"
	_ "modernc.org/sqlite"
)

const chromeDDL = `CREATE TABLE cookies (
        creation_utc INTEGER NOT NULL,
        host_key TEXT NOT NULL,
        name TEXT NOT NULL,
        value TEXT NOT NULL,
        encrypted_value BLOB NOT NULL DEFAULT x'',
        path TEXT NOT NULL DEFAULT '/',
        expires_utc INTEGER NOT NULL DEFAULT 0,
        is_secure INTEGER NOT NULL DEFAULT 0,
        is_httponly INTEGER NOT NULL DEFAULT 0,
        last_access_utc INTEGER NOT NULL
    )`

// strictChromeDDL rejects cookies named reject_me.
const strictChromeDDL = `CREATE TABLE cookies (
        creation_utc INTEGER NOT NULL,
        host_key TEXT NOT NULL,
        name TEXT NOT NULL,
        value TEXT NOT NULL,
        encrypted_value BLOB NOT NULL DEFAULT x'',
        path TEXT NOT NULL DEFAULT '/',
        expires_utc INTEGER NOT NULL DEFAULT 0,
        is_secure INTEGER NOT NULL DEFAULT 0,
        is_httponly INTEGER NOT NULL DEFAULT 0,
        last_access_utc INTEGER NOT NULL,
        CHECK (name != 'reject_me')
    )`

const geckoDDL = `CREATE TABLE moz_cookies (
        id INTEGER PRIMARY KEY,
        name TEXT,
        value TEXT,
        host TEXT,
        path TEXT,
        expiry INTEGER,
        lastAccessed INTEGER,
        creationTime INTEGER,
        isSecure INTEGER,
        isHttpOnly INTEGER
    )`

// chromeExpires is 2030-01-01 in Chrome ticks.
const chromeExpires int64 = 13979606400000000

// fixtureHosts holds 12 cookies, 3 of which match the default keywords.
var fixtureHosts = []string{
	".google.com", ".github.com", ".antigravity.google", ".youtube.com",
	".example.org", "accounts.anti-gravity.dev", ".golang.org", ".wikipedia.org",
	".deepmind.com", ".stackoverflow.com", ".mozilla.org", ".reddit.com",
}

var keywords = []string{"antigravity", "anti-gravity", "deepmind"}

type fakeLocator struct {
	dbs      map[string]string
	families map[string]cookies.Family
}

func (f *fakeLocator) CookieDB(browser, profilePath string) (string, error) {
	p, ok := f.dbs[browser]
	if !ok {
		return "", fmt.Errorf("unknown browser %q", browser)
	}
	return p, nil
}

func (f *fakeLocator) Family(browser string) (cookies.Family, error) {
	fam, ok := f.families[browser]
	if !ok {
		return cookies.FamilyUnknown, fmt.Errorf("unknown browser %q", browser)
	}
	return fam, nil
}

type fakeGuard struct{ running map[string]bool }

func (g fakeGuard) IsRunning(browser string) bool { return g.running[browser] }

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return db
}

func createChromeDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "Cookies")
	db := openTestDB(t, path)
	defer db.Close()
	if _, err := db.Exec(chromeDDL); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i, host := range fixtureHosts {
		_, err := db.Exec(`INSERT INTO cookies (creation_utc, host_key, name, value, path, expires_utc, is_secure, is_httponly, last_access_utc)
			VALUES (?, ?, ?, ?, '/', ?, 1, ?, 0)`, int64(i), host, fmt.Sprintf("c%d", i), fmt.Sprintf("v%d", i), chromeExpires, i%2)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return path
}

func createStrictChromeDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "Cookies")
	db := openTestDB(t, path)
	defer db.Close()
	if _, err := db.Exec(strictChromeDDL); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return path
}

func createGeckoDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cookies.sqlite")
	db := openTestDB(t, path)
	defer db.Close()
	if _, err := db.Exec(geckoDDL); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return path
}

func countCookies(t *testing.T, path, table string) int {
	t.Helper()
	db := openTestDB(t, path)
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

type env struct {
	storage string
	chrome  string
	locator *fakeLocator
	now     time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	chrome := createChromeDB(t, root)
	return &env{
		storage: filepath.Join(root, "sessions"),
		chrome:  chrome,
		locator: &fakeLocator{
			dbs:      map[string]string{"chrome": chrome},
			families: map[string]cookies.Family{"chrome": cookies.FamilyChromium, "firefox": cookies.FamilyGecko},
		},
		now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (e *env) options(at time.Time) Options {
	return Options{
		StorageDir: e.storage,
		Now:        func() time.Time { return at },
		Logger:     logger.NewNopLogger(),
		Locator:    e.locator,
	}
}

func (e *env) manager(t *testing.T, at time.Time) *Manager {
	t.Helper()
	m, err := NewManager(e.options(at))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}
