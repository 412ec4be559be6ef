package browser

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/agclean/agclean/internal/cookies"
)

func testLocator(t *testing.T) (*Locator, string) {
	t.Helper()
	root := t.TempDir()
	browsers := []Browser{
		{Key: "chrome", Name: "Google Chrome", Engine: EngineChromium, ProcessNames: []string{"chrome"}, DataDirs: []string{filepath.Join(root, "missing"), filepath.Join(root, "chrome")}},
		{Key: "firefox", Name: "Mozilla Firefox", Engine: EngineGecko, ProcessNames: []string{"firefox"}, DataDirs: []string{filepath.Join(root, "firefox")}},
		{Key: "safari", Name: "Safari", Engine: EngineWebKit, ProcessNames: []string{"Safari"}},
	}
	mkdirs(t, filepath.Join(root, "chrome", "Default"), filepath.Join(root, "chrome", "Profile 1"), filepath.Join(root, "firefox", "x.default"))
	return NewLocatorFor(browsers, nil), root
}

func writePrefs(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, string(data))
}

func TestLocatorInstalled(t *testing.T) {
	l, root := testLocator(t)
	got := l.Installed()
	if len(got) != 2 || got[0] != "chrome" || got[1] != "firefox" {
		t.Fatalf("unexpected installed list %v", got)
	}
	if l.DataDir("chrome") != filepath.Join(root, "chrome") {
		t.Errorf("first existing data dir should win, got %s", l.DataDir("chrome"))
	}
}

func TestLocatorUnknownBrowser(t *testing.T) {
	l, _ := testLocator(t)
	if _, err := l.Profiles("netscape"); !errors.Is(err, ErrUnknownBrowser) {
		t.Fatalf("expected ErrUnknownBrowser, got %v", err)
	}
	if _, err := l.CookieDB("netscape", "/p"); !errors.Is(err, ErrUnknownBrowser) {
		t.Fatalf("expected ErrUnknownBrowser, got %v", err)
	}
}

func TestLocatorFamily(t *testing.T) {
	l, _ := testLocator(t)
	if f, _ := l.Family("chrome"); f != cookies.FamilyChromium {
		t.Errorf("chrome family %v", f)
	}
	if f, _ := l.Family("firefox"); f != cookies.FamilyGecko {
		t.Errorf("firefox family %v", f)
	}
	if f, _ := l.Family("safari"); f != cookies.FamilyUnknown {
		t.Errorf("safari family %v", f)
	}
}

func TestLocatorCookieDB(t *testing.T) {
	l, root := testLocator(t)
	profile := filepath.Join(root, "chrome", "Default")

	got, err := l.CookieDB("chrome", profile)
	if err != nil || got != filepath.Join(profile, "Cookies") {
		t.Errorf("fallback path: %s %v", got, err)
	}
	writeFile(t, filepath.Join(profile, "Network", "Cookies"), "x")
	if got, _ := l.CookieDB("chrome", profile); got != filepath.Join(profile, "Network", "Cookies") {
		t.Errorf("Network/Cookies should win, got %s", got)
	}
	if got, _ := l.CookieDB("firefox", "/ff"); got != filepath.Join("/ff", "cookies.sqlite") {
		t.Errorf("gecko path %s", got)
	}
	if _, err := l.CookieDB("safari", "/s"); !errors.Is(err, ErrNoCookieStore) {
		t.Errorf("expected ErrNoCookieStore, got %v", err)
	}
}

func TestProfileEmailLookupOrder(t *testing.T) {
	l, root := testLocator(t)
	profile := filepath.Join(root, "chrome", "Default")
	prefs := filepath.Join(profile, "Preferences")

	writePrefs(t, prefs, map[string]any{
		"account_info": []any{map[string]any{"gaia": "1"}, map[string]any{"email": "first@example.com"}},
		"google":       map[string]any{"services": map[string]any{"last_username": "second@example.com"}},
	})
	if got := l.ProfileEmail("chrome", profile); got != "first@example.com" {
		t.Errorf("account_info should win, got %q", got)
	}

	writePrefs(t, prefs, map[string]any{
		"google": map[string]any{"services": map[string]any{"signin": map[string]any{"last_username": "nested@example.com"}}},
		"sync":   map[string]any{"authenticated_email": "sync@example.com"},
	})
	if got := l.ProfileEmail("chrome", profile); got != "nested@example.com" {
		t.Errorf("google.services.signin should win over sync, got %q", got)
	}

	writePrefs(t, prefs, map[string]any{"profile": map[string]any{"name": "Person 1"}})
	if got := l.ProfileEmail("chrome", profile); got != "" {
		t.Errorf("profile name without @ is not an email, got %q", got)
	}

	writePrefs(t, prefs, map[string]any{"profile": map[string]any{"name": "me@example.com"}})
	if got := l.ProfileEmail("chrome", profile); got != "me@example.com" {
		t.Errorf("profile name with @, got %q", got)
	}
}

func TestProfileEmailLocalStateFallback(t *testing.T) {
	l, root := testLocator(t)
	profile := filepath.Join(root, "chrome", "Profile 1")
	writePrefs(t, filepath.Join(root, "chrome", "Local State"), map[string]any{
		"profile": map[string]any{"info_cache": map[string]any{
			"Profile 1": map[string]any{"user_name": "cached@example.com"},
		}},
	})
	if got := l.ProfileEmail("chrome", profile); got != "cached@example.com" {
		t.Errorf("Local State fallback, got %q", got)
	}
	if got := l.ProfileEmail("firefox", profile); got != "" {
		t.Errorf("gecko profiles have no email, got %q", got)
	}
}

func TestSearchByEmail(t *testing.T) {
	l, root := testLocator(t)
	writePrefs(t, filepath.Join(root, "chrome", "Default", "Preferences"),
		map[string]any{"sync": map[string]any{"authenticated_email": "Work@Corp.com"}})
	writePrefs(t, filepath.Join(root, "chrome", "Profile 1", "Preferences"),
		map[string]any{"sync": map[string]any{"authenticated_email": "me@home.net"}})

	got, err := l.SearchByEmail("chrome", "corp")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Default" || got[0].Email != "Work@Corp.com" {
		t.Fatalf("unexpected matches %+v", got)
	}
	all, _ := l.SearchByEmail("chrome", "")
	if len(all) != 2 {
		t.Fatalf("empty query should match all, got %d", len(all))
	}
}

func TestSupportedTableKeys(t *testing.T) {
	keys := map[string]bool{}
	for _, b := range Supported() {
		keys[b.Key] = true
	}
	for _, k := range []string{"chrome", "edge", "brave", "chromium", "opera", "opera_gx", "vivaldi", "arc", "safari", "firefox", "waterfox", "floorp", "zen"} {
		if !keys[k] {
			t.Errorf("missing browser %s", k)
		}
	}
}
