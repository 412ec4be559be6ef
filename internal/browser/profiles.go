package browser

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Profile is one browser profile directory.
type Profile struct {
	Name  string
	Path  string
	Email string
}

// iniProfile is a [Profile*] section of a Gecko profiles.ini.
type iniProfile struct {
	Name    string
	Path    string
	Default bool
}

// parseProfilesIni parses a Firefox-style profiles.ini file and returns every
// [Profile*] section with its path resolved. A profile named by an
// [Install*] Default= key is marked default, as are Default=1 sections.
//
// Returns nil if the file does not exist or cannot be read.
func parseProfilesIni(iniPath string) []iniProfile {
	f, err := os.Open(iniPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	iniDir := filepath.Dir(iniPath)
	resolve := func(val string, relative bool) string {
		if !relative {
			return filepath.FromSlash(val)
		}
		return filepath.Join(iniDir, filepath.FromSlash(val))
	}

	var (
		profiles        []iniProfile
		installDefaults = map[string]bool{}
		inInstall       bool
		inProfile       bool
		current         iniProfile
		rawPath         string
		relative        = true
	)
	flush := func() {
		if inProfile && rawPath != "" {
			current.Path = resolve(rawPath, relative)
			profiles = append(profiles, current)
		}
		current, rawPath, relative = iniProfile{}, "", true
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			flush()
			sectionName := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			inInstall = strings.HasPrefix(sectionName, "Install")
			inProfile = strings.HasPrefix(sectionName, "Profile")
			continue
		}
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		switch {
		case inInstall && key == "Default":
			installDefaults[resolve(val, true)] = true
		case inProfile && key == "Name":
			current.Name = val
		case inProfile && key == "Path":
			rawPath = val
		case inProfile && key == "IsRelative":
			relative = val != "0"
		case inProfile && key == "Default" && val == "1":
			current.Default = true
		}
	}
	flush()

	for i := range profiles {
		if installDefaults[profiles[i].Path] {
			profiles[i].Default = true
		}
	}
	return profiles
}

// chromiumProfiles lists Default followed by "Profile N" directories in
// numeric order. A data root that is itself a profile (Opera) is returned as
// a single Default profile.
func chromiumProfiles(root string) []Profile {
	var out []Profile
	if isDir(filepath.Join(root, "Default")) {
		out = append(out, Profile{Name: "Default", Path: filepath.Join(root, "Default")})
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return out
	}
	var numbered []Profile
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "Profile ") {
			numbered = append(numbered, Profile{Name: e.Name(), Path: filepath.Join(root, e.Name())})
		}
	}
	sort.SliceStable(numbered, func(i, j int) bool {
		return profileNumber(numbered[i].Name) < profileNumber(numbered[j].Name)
	})
	out = append(out, numbered...)

	if len(out) == 0 && isFile(filepath.Join(root, "Preferences")) {
		out = append(out, Profile{Name: "Default", Path: root})
	}
	return out
}

func profileNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "Profile "))
	if err != nil {
		return 1 << 30
	}
	return n
}

// geckoProfiles lists profiles from profiles.ini (next to the data root or
// one level up) together with every directory whose name contains a dot.
// The ini default comes first; the rest are sorted by name.
func geckoProfiles(root string) []Profile {
	seen := map[string]bool{}
	var out []Profile
	add := func(name, path string) {
		clean := filepath.Clean(path)
		if seen[clean] || !isDir(clean) {
			return
		}
		seen[clean] = true
		out = append(out, Profile{Name: name, Path: clean})
	}

	var fromIni []iniProfile
	for _, ini := range []string{filepath.Join(root, "profiles.ini"), filepath.Join(filepath.Dir(root), "profiles.ini")} {
		if fromIni = parseProfilesIni(ini); fromIni != nil {
			break
		}
	}
	sort.SliceStable(fromIni, func(i, j int) bool { return fromIni[i].Default && !fromIni[j].Default })
	for _, p := range fromIni {
		name := p.Name
		if name == "" {
			name = filepath.Base(p.Path)
		}
		add(name, p.Path)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return out
	}
	var extra []string
	for _, e := range entries {
		if e.IsDir() && strings.Contains(e.Name(), ".") {
			extra = append(extra, e.Name())
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		add(name, filepath.Join(root, name))
	}
	return out
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
