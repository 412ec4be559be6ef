package browser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// lookup walks nested JSON objects by key.
func lookup(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func lookupString(m map[string]any, keys ...string) string {
	v, ok := lookup(m, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// emailFromPreferences checks the places Chromium records the signed-in
// account, most specific first.
func emailFromPreferences(prefs map[string]any) string {
	if accounts, ok := prefs["account_info"].([]any); ok {
		for _, a := range accounts {
			if acc, ok := a.(map[string]any); ok {
				if email, ok := acc["email"].(string); ok && email != "" {
					return email
				}
			}
		}
	}
	for _, path := range [][]string{
		{"google", "services", "last_username"},
		{"google", "services", "signin", "last_username"},
		{"sync", "authenticated_email"},
		{"signin", "last_username"},
	} {
		if s := lookupString(prefs, path...); s != "" {
			return s
		}
	}
	if name := lookupString(prefs, "profile", "name"); strings.Contains(name, "@") {
		return name
	}
	return ""
}

// emailFromLocalState reads profile.info_cache[dir].user_name from the
// Local State file beside a Chromium profile.
func emailFromLocalState(profilePath string) string {
	state, err := readJSON(filepath.Join(filepath.Dir(profilePath), "Local State"))
	if err != nil {
		return ""
	}
	name := lookupString(state, "profile", "info_cache", filepath.Base(profilePath), "user_name")
	if strings.Contains(name, "@") {
		return name
	}
	return ""
}
