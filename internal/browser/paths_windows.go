//go:build windows

package browser

import (
	"os"
	"path/filepath"
)

// dataDirsForEnv returns browser data roots using the given environment
// variable values. This is the testable variant; dataDirs calls it with real
// values from os.Getenv.
func dataDirsForEnv(localAppData, appData string) map[string][]string {
	return map[string][]string{
		"chrome":   {filepath.Join(localAppData, "Google", "Chrome", "User Data")},
		"edge":     {filepath.Join(localAppData, "Microsoft", "Edge", "User Data")},
		"brave":    {filepath.Join(localAppData, "BraveSoftware", "Brave-Browser", "User Data")},
		"chromium": {filepath.Join(localAppData, "Chromium", "User Data")},
		"firefox":  {filepath.Join(appData, "Mozilla", "Firefox", "Profiles")},
		"opera":    {filepath.Join(appData, "Opera Software", "Opera Stable")},
		"opera_gx": {filepath.Join(appData, "Opera Software", "Opera GX Stable")},
		"vivaldi":  {filepath.Join(localAppData, "Vivaldi", "User Data")},
		"waterfox": {filepath.Join(appData, "Waterfox", "Profiles")},
		"floorp":   {filepath.Join(appData, "Floorp", "Profiles")},
		"zen":      {filepath.Join(appData, "zen", "Profiles")},
	}
}

// dataDirs returns browser data roots using real Windows environment variables.
func dataDirs() map[string][]string {
	return dataDirsForEnv(
		os.Getenv("LOCALAPPDATA"),
		os.Getenv("APPDATA"),
	)
}
