package browser

import (
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestParseProfilesIni_AllProfiles verifies every [Profile*] section is
// returned and the [Install*] default is marked.
func TestParseProfilesIni_AllProfiles(t *testing.T) {
	dir := t.TempDir()
	iniPath := filepath.Join(dir, "profiles.ini")
	writeFile(t, iniPath, `[Install1234ABCD]
Default=Profiles/abcd1234.default-release

[Profile0]
Name=default
IsRelative=1
Path=Profiles/xyxy0000.default
Default=1

[Profile1]
Name=default-release
IsRelative=1
Path=Profiles/abcd1234.default-release

[Profile2]
Name=elsewhere
IsRelative=0
Path=/opt/profiles/work
`)

	got := parseProfilesIni(iniPath)
	if len(got) != 3 {
		t.Fatalf("expected 3 profiles, got %d: %+v", len(got), got)
	}
	if got[0].Path != filepath.Join(dir, "Profiles", "xyxy0000.default") || !got[0].Default {
		t.Errorf("profile 0: %+v", got[0])
	}
	if got[1].Name != "default-release" || !got[1].Default {
		t.Errorf("install default not marked: %+v", got[1])
	}
	if got[2].Path != filepath.FromSlash("/opt/profiles/work") {
		t.Errorf("absolute path not kept: %q", got[2].Path)
	}
}

func TestParseProfilesIni_MissingFile(t *testing.T) {
	if got := parseProfilesIni(filepath.Join(t.TempDir(), "profiles.ini")); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestChromiumProfiles_NumericOrder(t *testing.T) {
	root := t.TempDir()
	mkdirs(t,
		filepath.Join(root, "Default"),
		filepath.Join(root, "Profile 10"),
		filepath.Join(root, "Profile 2"),
		filepath.Join(root, "Profile 1"),
		filepath.Join(root, "System Profile"),
		filepath.Join(root, "Crashpad"),
	)
	got := chromiumProfiles(root)
	want := []string{"Default", "Profile 1", "Profile 2", "Profile 10"}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i, w := range want {
		if got[i].Name != w {
			t.Errorf("position %d: want %s, got %s", i, w, got[i].Name)
		}
	}
}

func TestChromiumProfiles_RootIsProfile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Preferences"), "{}")
	got := chromiumProfiles(root)
	if len(got) != 1 || got[0].Path != root {
		t.Fatalf("expected the root as single profile, got %+v", got)
	}
}

func TestGeckoProfiles_IniAndDirectories(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "Profiles")
	mkdirs(t,
		filepath.Join(root, "aaaa.default"),
		filepath.Join(root, "bbbb.default-release"),
		filepath.Join(root, "cccc.extra"),
		filepath.Join(root, "Crash Reports"),
	)
	writeFile(t, filepath.Join(base, "profiles.ini"), `[Profile0]
Name=default
IsRelative=1
Path=Profiles/aaaa.default

[Profile1]
Name=default-release
IsRelative=1
Path=Profiles/bbbb.default-release
Default=1
`)

	got := geckoProfiles(root)
	if len(got) != 3 {
		t.Fatalf("expected 3 profiles, got %+v", got)
	}
	if got[0].Name != "default-release" {
		t.Errorf("ini default should come first, got %s", got[0].Name)
	}
	if got[2].Name != "cccc.extra" {
		t.Errorf("dot directory not listed: %+v", got[2])
	}
}
