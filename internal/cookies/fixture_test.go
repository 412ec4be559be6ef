package cookies

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

type chromeRow struct {
	Name           string
	Value          string
	EncryptedValue []byte
	HostKey        string
	Path           string
	ExpiresUTC     int64 // Chrome format (microseconds since 1601-01-01)
	IsSecure       int
	IsHttpOnly     int
}

const chromeDDL = `CREATE TABLE cookies (
        creation_utc INTEGER NOT NULL,
        host_key TEXT NOT NULL,
        top_frame_site_key TEXT NOT NULL,
        name TEXT NOT NULL,
        value TEXT NOT NULL,
        encrypted_value BLOB NOT NULL DEFAULT x'',
        path TEXT NOT NULL DEFAULT '/',
        expires_utc INTEGER NOT NULL DEFAULT 0,
        is_secure INTEGER NOT NULL DEFAULT 0,
        is_httponly INTEGER NOT NULL DEFAULT 0,
        last_access_utc INTEGER NOT NULL,
        priority INTEGER NOT NULL DEFAULT 1,
        CHECK (name != 'reject_me')
    )`

const legacyChromeDDL = `CREATE TABLE cookies (
        creation_utc INTEGER NOT NULL,
        host_key TEXT NOT NULL,
        name TEXT NOT NULL,
        value TEXT NOT NULL,
        path TEXT NOT NULL DEFAULT '/',
        expires_utc INTEGER NOT NULL DEFAULT 0,
        is_secure INTEGER NOT NULL DEFAULT 0,
        is_httponly INTEGER NOT NULL DEFAULT 0
    )`

const geckoDDL = `CREATE TABLE moz_cookies (
        id INTEGER PRIMARY KEY,
        originAttributes TEXT NOT NULL DEFAULT '',
        name TEXT,
        value TEXT,
        host TEXT,
        path TEXT,
        expiry INTEGER,
        lastAccessed INTEGER,
        creationTime INTEGER,
        isSecure INTEGER,
        isHttpOnly INTEGER,
        sameSite INTEGER DEFAULT 0
    )`

func execAll(t *testing.T, dbPath string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

// createChromeFixture builds a modern Chromium cookie database.
func createChromeFixture(t *testing.T, dir string, rows []chromeRow) string {
	t.Helper()
	dbPath := filepath.Join(dir, "Cookies")
	execAll(t, dbPath, chromeDDL)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()
	stmt, err := db.Prepare(`INSERT INTO cookies (creation_utc, host_key, top_frame_site_key, name, value, encrypted_value, path, expires_utc, is_secure, is_httponly, last_access_utc) VALUES (?, ?, '', ?, ?, ?, ?, ?, ?, ?, 0)`)
	if err != nil {
		t.Fatalf("failed to prepare insert: %v", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		encVal := r.EncryptedValue
		if encVal == nil {
			encVal = []byte{}
		}
		if _, err := stmt.Exec(i, r.HostKey, r.Name, r.Value, encVal, r.Path, r.ExpiresUTC, r.IsSecure, r.IsHttpOnly); err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}
	}
	return dbPath
}

// createLegacyChromeFixture builds a Chromium database without encrypted_value.
func createLegacyChromeFixture(t *testing.T, dir string, rows []chromeRow) string {
	t.Helper()
	dbPath := filepath.Join(dir, "Cookies")
	execAll(t, dbPath, legacyChromeDDL)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()
	for i, r := range rows {
		_, err := db.Exec(`INSERT INTO cookies (creation_utc, host_key, name, value, path, expires_utc, is_secure, is_httponly) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, r.HostKey, r.Name, r.Value, r.Path, r.ExpiresUTC, r.IsSecure, r.IsHttpOnly)
		if err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}
	}
	return dbPath
}

type geckoRow struct {
	Name       string
	Value      string
	Host       string
	Path       string
	Expiry     int64 // Unix seconds
	IsSecure   int
	IsHttpOnly int
}

func createGeckoFixture(t *testing.T, dir string, rows []geckoRow) string {
	t.Helper()
	dbPath := filepath.Join(dir, "cookies.sqlite")
	execAll(t, dbPath, geckoDDL)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO moz_cookies (name, value, host, path, expiry, lastAccessed, creationTime, isSecure, isHttpOnly) VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`,
			r.Name, r.Value, r.Host, r.Path, r.Expiry, r.IsSecure, r.IsHttpOnly)
		if err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}
	}
	return dbPath
}

func countRows(t *testing.T, dbPath, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
