//go:build windows

package browser

import (
	"path/filepath"
	"testing"
)

func TestDataDirsForEnv_Roots(t *testing.T) {
	local := `C:\Users\test\AppData\Local`
	roaming := `C:\Users\test\AppData\Roaming`
	dirs := dataDirsForEnv(local, roaming)

	cases := map[string]string{
		"chrome":   filepath.Join(local, "Google", "Chrome", "User Data"),
		"edge":     filepath.Join(local, "Microsoft", "Edge", "User Data"),
		"firefox":  filepath.Join(roaming, "Mozilla", "Firefox", "Profiles"),
		"opera":    filepath.Join(roaming, "Opera Software", "Opera Stable"),
		"vivaldi":  filepath.Join(local, "Vivaldi", "User Data"),
		"waterfox": filepath.Join(roaming, "Waterfox", "Profiles"),
	}
	for key, want := range cases {
		got := dirs[key]
		if len(got) == 0 || got[0] != want {
			t.Errorf("%s: want %q, got %v", key, want, got)
		}
	}
	if len(dirs["safari"]) != 0 || len(dirs["arc"]) != 0 {
		t.Error("Safari and Arc have no Windows data dir")
	}
}
