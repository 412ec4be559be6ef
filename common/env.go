// Package common holds names shared by the CLI and the configuration layer.
package common

// AppName is the binary name and the keyring service.
const AppName = "agclean"

// EnvPrefix prefixes every environment override, e.g. AGCLEAN_DRY_RUN.
const EnvPrefix = "AGCLEAN"

// Environment variable names for configuration.
const (
	// HomeEnv overrides the base directory.
	HomeEnv = "AGCLEAN_HOME"

	// ConfigEnv points at an explicit config file.
	ConfigEnv = "AGCLEAN_CONFIG"
)

// PortableDirName is the directory beside the executable that switches the
// tool into portable mode.
const PortableDirName = "data"

// HomeDirName is the base directory under the user's home.
const HomeDirName = ".antigravity-cleaner"
