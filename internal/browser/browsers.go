// Package browser locates installed browsers and their profiles, inspects
// browser processes and removes Antigravity traces from profiles.
package browser

import (
	"errors"

	"github.com/agclean/agclean/internal/cookies"
)

// Engine is the browser engine family.
type Engine int

const (
	EngineChromium Engine = iota
	EngineGecko
	EngineWebKit
)

func (e Engine) String() string {
	switch e {
	case EngineChromium:
		return "chromium"
	case EngineGecko:
		return "gecko"
	case EngineWebKit:
		return "webkit"
	}
	return "unknown"
}

// CookieFamily maps an engine to its cookie schema family.
func (e Engine) CookieFamily() cookies.Family {
	switch e {
	case EngineChromium:
		return cookies.FamilyChromium
	case EngineGecko:
		return cookies.FamilyGecko
	}
	return cookies.FamilyUnknown
}

var (
	// ErrUnknownBrowser is returned for a key outside the browser table.
	ErrUnknownBrowser = errors.New("unsupported browser")
	// ErrNoCookieStore is returned when a browser keeps no SQLite cookie store.
	ErrNoCookieStore = errors.New("browser has no SQLite cookie store")
)

// Browser is one entry of the browser table.
type Browser struct {
	Key          string
	Name         string
	Engine       Engine
	ProcessNames []string
	// DataDirs are candidate user data roots in priority order. The first
	// that exists is used.
	DataDirs []string
}

// entry is the OS-independent part of the table.
type entry struct {
	key     string
	name    string
	engine  Engine
	process []string
}

// table lists supported browsers in display order.
var table = []entry{
	{"chrome", "Google Chrome", EngineChromium, []string{"chrome.exe", "chrome"}},
	{"edge", "Microsoft Edge", EngineChromium, []string{"msedge.exe", "msedge"}},
	{"brave", "Brave Browser", EngineChromium, []string{"brave.exe", "brave"}},
	{"chromium", "Chromium", EngineChromium, []string{"chromium-browser", "chromium"}},
	{"firefox", "Mozilla Firefox", EngineGecko, []string{"firefox.exe", "firefox"}},
	{"opera", "Opera", EngineChromium, []string{"opera.exe", "opera"}},
	{"opera_gx", "Opera GX", EngineChromium, []string{"opera.exe", "opera"}},
	{"vivaldi", "Vivaldi", EngineChromium, []string{"vivaldi.exe", "vivaldi"}},
	{"arc", "Arc Browser", EngineChromium, []string{"Arc", "arc"}},
	{"safari", "Safari", EngineWebKit, []string{"Safari"}},
	{"waterfox", "Waterfox", EngineGecko, []string{"waterfox.exe", "waterfox"}},
	{"floorp", "Floorp", EngineGecko, []string{"floorp.exe", "floorp"}},
	{"zen", "Zen Browser", EngineGecko, []string{"zen.exe", "zen"}},
}

// build joins the table with per-OS data directories.
func build(dirs map[string][]string) []Browser {
	out := make([]Browser, 0, len(table))
	for _, e := range table {
		out = append(out, Browser{
			Key:          e.key,
			Name:         e.name,
			Engine:       e.engine,
			ProcessNames: e.process,
			DataDirs:     dirs[e.key],
		})
	}
	return out
}

// Supported returns the browser table for the current user.
func Supported() []Browser {
	return build(dataDirs())
}
