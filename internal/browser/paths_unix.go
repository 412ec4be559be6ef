//go:build unix

package browser

import (
	"os"
	"path/filepath"
	"runtime"
)

// dataDirsForHome returns browser data roots using the given homeDir.
// This is the testable variant; dataDirs calls it with the real home.
func dataDirsForHome(homeDir string) map[string][]string {
	if runtime.GOOS == "darwin" {
		support := filepath.Join(homeDir, "Library", "Application Support")
		return map[string][]string{
			"chrome":   {filepath.Join(support, "Google", "Chrome")},
			"edge":     {filepath.Join(support, "Microsoft Edge")},
			"brave":    {filepath.Join(support, "BraveSoftware", "Brave-Browser")},
			"chromium": {filepath.Join(support, "Chromium")},
			"firefox":  {filepath.Join(support, "Firefox", "Profiles")},
			"opera":    {filepath.Join(support, "com.operasoftware.Opera")},
			"opera_gx": {filepath.Join(support, "com.operasoftware.OperaGX")},
			"vivaldi":  {filepath.Join(support, "Vivaldi")},
			"arc":      {filepath.Join(support, "Arc", "User Data")},
			"safari":   {filepath.Join(homeDir, "Library", "Safari")},
			"waterfox": {filepath.Join(support, "Waterfox", "Profiles")},
			"floorp":   {filepath.Join(support, "Floorp", "Profiles")},
			"zen":      {filepath.Join(support, "zen", "Profiles")},
		}
	}

	config := filepath.Join(homeDir, ".config")
	return map[string][]string{
		"chrome":   {filepath.Join(config, "google-chrome")},
		"edge":     {filepath.Join(config, "microsoft-edge")},
		"brave":    {filepath.Join(config, "BraveSoftware", "Brave-Browser")},
		"chromium": {filepath.Join(config, "chromium"), filepath.Join(homeDir, "snap", "chromium", "common", "chromium")},
		"firefox": {
			filepath.Join(homeDir, ".mozilla", "firefox"),
			filepath.Join(homeDir, "snap", "firefox", "common", ".mozilla", "firefox"),
		},
		"opera":    {filepath.Join(config, "opera")},
		"opera_gx": {filepath.Join(config, "opera-gx")},
		"vivaldi":  {filepath.Join(config, "vivaldi")},
		"waterfox": {filepath.Join(homeDir, ".waterfox")},
		"floorp":   {filepath.Join(homeDir, ".floorp")},
		"zen":      {filepath.Join(homeDir, ".zen")},
	}
}

// dataDirs returns browser data roots for the real user home directory.
func dataDirs() map[string][]string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return dataDirsForHome(homeDir)
}
