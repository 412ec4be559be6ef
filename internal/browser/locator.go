package browser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agclean/agclean/internal/cookies"
	"github.com/agclean/agclean/pkg/logger"
)

// Locator resolves browsers, profiles and cookie databases on disk.
type Locator struct {
	browsers []Browser
	log      logger.Logger
}

// NewLocator returns a Locator over the supported browser table.
func NewLocator(log logger.Logger) *Locator {
	return NewLocatorFor(Supported(), log)
}

// NewLocatorFor returns a Locator over a custom browser table.
func NewLocatorFor(browsers []Browser, log logger.Logger) *Locator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Locator{browsers: browsers, log: log}
}

// Browsers returns the browser table.
func (l *Locator) Browsers() []Browser {
	return l.browsers
}

// Get returns the table entry for key.
func (l *Locator) Get(key string) (Browser, error) {
	for _, b := range l.browsers {
		if b.Key == key {
			return b, nil
		}
	}
	return Browser{}, fmt.Errorf("%w: %s", ErrUnknownBrowser, key)
}

// Family returns the cookie schema family of a browser.
func (l *Locator) Family(key string) (cookies.Family, error) {
	b, err := l.Get(key)
	if err != nil {
		return cookies.FamilyUnknown, err
	}
	return b.Engine.CookieFamily(), nil
}

// DataDir returns the first existing data root of a browser, or "".
func (l *Locator) DataDir(key string) string {
	b, err := l.Get(key)
	if err != nil {
		return ""
	}
	for _, d := range b.DataDirs {
		if d != "" && isDir(d) {
			return d
		}
	}
	return ""
}

// Installed returns the keys of browsers with an existing data root.
func (l *Locator) Installed() []string {
	var out []string
	for _, b := range l.browsers {
		if dir := l.DataDir(b.Key); dir != "" {
			l.log.Debug("Found %s at %s", b.Name, dir)
			out = append(out, b.Key)
		} else {
			l.log.Debug("%s not found", b.Name)
		}
	}
	return out
}

// Profiles lists the profiles of a browser.
func (l *Locator) Profiles(key string) ([]Profile, error) {
	b, err := l.Get(key)
	if err != nil {
		return nil, err
	}
	root := l.DataDir(key)
	if root == "" {
		l.log.Warning("Browser data path not found for %s", b.Name)
		return nil, nil
	}
	var profiles []Profile
	switch b.Engine {
	case EngineChromium:
		profiles = chromiumProfiles(root)
	case EngineGecko:
		profiles = geckoProfiles(root)
	}
	l.log.Debug("Found %d profiles for %s", len(profiles), key)
	return profiles, nil
}

// ProfileEmail returns the signed-in account of a Chromium profile, or "".
func (l *Locator) ProfileEmail(key, profilePath string) string {
	b, err := l.Get(key)
	if err != nil || b.Engine != EngineChromium {
		return ""
	}
	prefs, err := readJSON(filepath.Join(profilePath, "Preferences"))
	if err != nil {
		l.log.Debug("Could not read profile preferences: %v", err)
	} else if email := emailFromPreferences(prefs); email != "" {
		return email
	}
	return emailFromLocalState(profilePath)
}

// ProfilesWithEmail lists profiles with their account email filled in.
func (l *Locator) ProfilesWithEmail(key string) ([]Profile, error) {
	profiles, err := l.Profiles(key)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].Email = l.ProfileEmail(key, profiles[i].Path)
	}
	return profiles, nil
}

// SearchByEmail returns profiles whose email contains query, ignoring case.
// An empty query matches every profile.
func (l *Locator) SearchByEmail(key, query string) ([]Profile, error) {
	profiles, err := l.ProfilesWithEmail(key)
	if err != nil || query == "" {
		return profiles, err
	}
	query = strings.ToLower(query)
	var out []Profile
	for _, p := range profiles {
		if strings.Contains(strings.ToLower(p.Email), query) {
			out = append(out, p)
		}
	}
	l.log.Debug("Found %d profiles matching '%s'", len(out), query)
	return out, nil
}

// CookieDB returns the cookie database path of a profile. Gecko profiles use
// cookies.sqlite; Chromium uses Network/Cookies and falls back to Cookies.
// The Chromium fallback is returned even when neither file exists.
func (l *Locator) CookieDB(key, profilePath string) (string, error) {
	b, err := l.Get(key)
	if err != nil {
		return "", err
	}
	switch b.Engine {
	case EngineGecko:
		return filepath.Join(profilePath, "cookies.sqlite"), nil
	case EngineChromium:
		network := filepath.Join(profilePath, "Network", "Cookies")
		if isFile(network) {
			return network, nil
		}
		return filepath.Join(profilePath, "Cookies"), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoCookieStore, b.Name)
}
