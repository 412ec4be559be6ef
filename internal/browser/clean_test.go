package browser

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite"
)

func createCookieDB(t *testing.T, path string, hosts ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE cookies (
        creation_utc INTEGER NOT NULL DEFAULT 0,
        host_key TEXT NOT NULL,
        name TEXT NOT NULL,
        value TEXT NOT NULL DEFAULT '',
        path TEXT NOT NULL DEFAULT '/',
        expires_utc INTEGER NOT NULL DEFAULT 0,
        is_secure INTEGER NOT NULL DEFAULT 0,
        is_httponly INTEGER NOT NULL DEFAULT 0
    )`); err != nil {
		t.Fatal(err)
	}
	for i, h := range hosts {
		if _, err := db.Exec(`INSERT INTO cookies (host_key, name) VALUES (?, ?)`, h, "c"+string(rune('a'+i))); err != nil {
			t.Fatal(err)
		}
	}
}

func cookieCount(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM cookies").Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

var cleanNow = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }

func TestCleanCookies(t *testing.T) {
	l, root := testLocator(t)
	profile := filepath.Join(root, "chrome", "Default")
	db := filepath.Join(profile, "Network", "Cookies")
	createCookieDB(t, db, "antigravity.google", ".google.com", "labs.deepmind.com", "github.com")
	backupDir := filepath.Join(root, "backups")

	c := NewCleaner(l, nil, CleanerOptions{BackupDir: backupDir, Now: cleanNow})
	n, err := c.CleanCookies("chrome", profile)
	if err != nil {
		t.Fatalf("CleanCookies: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deletions, got %d", n)
	}
	if got := cookieCount(t, db); got != 2 {
		t.Fatalf("expected 2 remaining cookies, got %d", got)
	}
	backup := filepath.Join(backupDir, "chrome_Default_Cookies.backup_20240203_040506")
	if got := cookieCount(t, backup); got != 4 {
		t.Fatalf("backup should hold the original 4 cookies, has %d", got)
	}
}

func TestCleanCookiesDryRun(t *testing.T) {
	l, root := testLocator(t)
	profile := filepath.Join(root, "chrome", "Default")
	db := filepath.Join(profile, "Cookies")
	createCookieDB(t, db, "antigravity.google", "github.com")
	backupDir := filepath.Join(root, "backups")

	c := NewCleaner(l, nil, CleanerOptions{DryRun: true, BackupDir: backupDir})
	n, err := c.CleanCookies("chrome", profile)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 would-be deletion, got %d", n)
	}
	if got := cookieCount(t, db); got != 2 {
		t.Fatal("dry run modified the database")
	}
	if _, err := os.Stat(backupDir); !os.IsNotExist(err) {
		t.Fatal("dry run created the backup directory")
	}
}

func TestCleanCookiesMissingDatabase(t *testing.T) {
	l, root := testLocator(t)
	c := NewCleaner(l, nil, CleanerOptions{BackupDir: filepath.Join(root, "b")})
	n, err := c.CleanCookies("chrome", filepath.Join(root, "chrome", "Profile 1"))
	if err != nil || n != 0 {
		t.Fatalf("missing db should be a no-op, got %d %v", n, err)
	}
}

func TestCleanLocalStorageAndCache(t *testing.T) {
	l, _ := testLocator(t)
	fs := afero.NewMemMapFs()
	profile := "/profiles/Default"
	for _, p := range []string{
		"/profiles/Default/Local Storage/leveldb/https_antigravity.google_0.localstorage",
		"/profiles/Default/Local Storage/leveldb/000003.log",
		"/profiles/Default/Cache/Cache_Data/f_deepmind_01",
		"/profiles/Default/Cache/Cache_Data/sub/Anti-Gravity.bin",
		"/profiles/Default/Code Cache/js/index",
		"/profiles/Default/GPUCache/data_1",
	} {
		if err := afero.WriteFile(fs, p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	c := NewCleaner(l, nil, CleanerOptions{Fs: fs})
	n, err := c.CleanLocalStorage("chrome", profile)
	if err != nil || n != 1 {
		t.Fatalf("CleanLocalStorage: %d %v", n, err)
	}
	if ok, _ := afero.Exists(fs, "/profiles/Default/Local Storage/leveldb/000003.log"); !ok {
		t.Error("unrelated LocalStorage file removed")
	}

	n, err = c.CleanCache("chrome", profile)
	if err != nil || n != 2 {
		t.Fatalf("CleanCache: %d %v", n, err)
	}
	if ok, _ := afero.Exists(fs, "/profiles/Default/Cache/Cache_Data/sub/Anti-Gravity.bin"); ok {
		t.Error("nested matching cache file not removed")
	}
}

func TestCleanCacheDryRunKeepsFiles(t *testing.T) {
	l, _ := testLocator(t)
	fs := afero.NewMemMapFs()
	p := "/p/cache2/entries/ANTIGRAVITY"
	if err := afero.WriteFile(fs, p, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	c := NewCleaner(l, nil, CleanerOptions{Fs: fs, DryRun: true})
	n, err := c.CleanCache("firefox", "/p")
	if err != nil || n != 1 {
		t.Fatalf("CleanCache: %d %v", n, err)
	}
	if ok, _ := afero.Exists(fs, p); !ok {
		t.Error("dry run removed a file")
	}
}

func TestCleanBrowserAllProfiles(t *testing.T) {
	withProcesses(t)
	l, root := testLocator(t)
	createCookieDB(t, filepath.Join(root, "chrome", "Default", "Cookies"), "antigravity.google", "a.com")
	createCookieDB(t, filepath.Join(root, "chrome", "Profile 1", "Cookies"), "deepmind.com", "gemini-code.dev", "b.com")

	var seen []string
	in := NewInspector(l, InspectorOptions{})
	c := NewCleaner(l, in, CleanerOptions{
		BackupDir: filepath.Join(root, "backups"),
		Now:       cleanNow,
		OnProfile: func(name string, done, total int) { seen = append(seen, name) },
	})
	stats, err := c.CleanBrowser(context.Background(), "chrome")
	if err != nil {
		t.Fatalf("CleanBrowser: %v", err)
	}
	if stats.Profiles != 2 || stats.Cookies != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if strings.Join(seen, ",") != "Default,Profile 1" {
		t.Errorf("unexpected progress %v", seen)
	}
}

func TestCleanBrowserClosesRunningBrowser(t *testing.T) {
	p := &fakeProc{pid: 5, name: "chrome", alive: true}
	withProcesses(t, p)
	l, root := testLocator(t)
	in := NewInspector(l, InspectorOptions{CloseTimeout: 200 * time.Millisecond})
	c := NewCleaner(l, in, CleanerOptions{BackupDir: filepath.Join(root, "b")})
	if _, err := c.CleanBrowser(context.Background(), "chrome"); err != nil {
		t.Fatalf("CleanBrowser: %v", err)
	}
	if !p.terminated {
		t.Error("running browser was not closed")
	}
}
