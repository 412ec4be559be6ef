//go:build unix

package browser

import (
	"path/filepath"
	"runtime"
	"testing"
)

// TestDataDirsForHome_Firefox verifies Firefox data roots at the OS-specific
// locations, including the snap install on Linux.
func TestDataDirsForHome_Firefox(t *testing.T) {
	home := "/fake/home"
	dirs := dataDirsForHome(home)["firefox"]
	if len(dirs) == 0 {
		t.Fatal("Firefox data dirs are empty")
	}
	if runtime.GOOS == "darwin" {
		expected := filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles")
		if dirs[0] != expected {
			t.Errorf("macOS Firefox: want %q, got %q", expected, dirs[0])
		}
		return
	}
	if dirs[0] != filepath.Join(home, ".mozilla", "firefox") {
		t.Errorf("Linux Firefox primary: got %q", dirs[0])
	}
	if len(dirs) < 2 {
		t.Fatal("Linux Firefox should include the snap location")
	}
	expectedSnap := filepath.Join(home, "snap", "firefox", "common", ".mozilla", "firefox")
	if dirs[1] != expectedSnap {
		t.Errorf("Linux Firefox snap: want %q, got %q", expectedSnap, dirs[1])
	}
}

func TestDataDirsForHome_Chrome(t *testing.T) {
	home := "/fake/home"
	dirs := dataDirsForHome(home)["chrome"]
	want := filepath.Join(home, ".config", "google-chrome")
	if runtime.GOOS == "darwin" {
		want = filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
	}
	if len(dirs) == 0 || dirs[0] != want {
		t.Errorf("Chrome: want %q, got %v", want, dirs)
	}
}

// TestDataDirsForHome_MacOnlyBrowsers checks Arc and Safari only resolve on macOS.
func TestDataDirsForHome_MacOnlyBrowsers(t *testing.T) {
	dirs := dataDirsForHome("/fake/home")
	for _, key := range []string{"arc", "safari"} {
		if runtime.GOOS == "darwin" && len(dirs[key]) == 0 {
			t.Errorf("%s should have a data dir on macOS", key)
		}
		if runtime.GOOS != "darwin" && len(dirs[key]) != 0 {
			t.Errorf("%s should have no data dir on %s", key, runtime.GOOS)
		}
	}
}

func TestDataDirsForHome_EveryOtherBrowserHasPath(t *testing.T) {
	dirs := dataDirsForHome("/fake/home")
	for _, e := range table {
		if e.key == "arc" || e.key == "safari" {
			continue
		}
		if len(dirs[e.key]) == 0 {
			t.Errorf("%s has no data dir", e.key)
		}
	}
}
