// Package config resolves agclean settings from defaults, an optional
// config.yaml, AGCLEAN_* environment variables and command line overrides,
// in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agclean/agclean/common"
	"github.com/agclean/agclean/internal/browser"
	"github.com/spf13/viper"
)

// Setting keys. Each maps to the environment variable AGCLEAN_{KEY}.
const (
	KeyStorageDir           = "storage_dir"
	KeyBackupDir            = "backup_dir"
	KeyLogDir               = "log_dir"
	KeyDryRun               = "dry_run"
	KeyDebug                = "debug"
	KeyKeyEscrow            = "key_escrow"
	KeyRegenerateCorruptKey = "regenerate_corrupt_key"
	KeyKeywords             = "keywords"
	KeyCloseTimeout         = "close_timeout"
	KeyKillTimeout          = "kill_timeout"
	KeyGuardRunningBrowser  = "guard_running_browser"
)

// FileName is the config file looked up in the base directory.
const FileName = "config.yaml"

// Config is the resolved configuration.
type Config struct {
	BaseDir              string
	ConfigFile           string
	StorageDir           string
	BackupDir            string
	LogDir               string
	DryRun               bool
	Debug                bool
	KeyEscrow            bool
	RegenerateCorruptKey bool
	Keywords             []string
	CloseTimeout         time.Duration
	KillTimeout          time.Duration
	GuardRunningBrowser  bool
	// Portable is set when the base directory sits beside the executable.
	Portable bool
}

// LoadOptions carries the inputs that do not come from the environment.
type LoadOptions struct {
	// ConfigFile is an explicit config path. A missing explicit file is an
	// error; a missing default file is not.
	ConfigFile string
	// Overrides are applied last, typically from command line flags.
	Overrides map[string]any
}

var (
	executable  = os.Executable
	userHomeDir = os.UserHomeDir
)

// BaseDir returns the directory that holds sessions, backups and logs and
// whether it is the portable directory beside the executable.
func BaseDir() (string, bool, error) {
	if dir := os.Getenv(common.HomeEnv); dir != "" {
		return dir, false, nil
	}
	if exe, err := executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		portable := filepath.Join(filepath.Dir(exe), common.PortableDirName)
		if fi, err := os.Stat(portable); err == nil && fi.IsDir() {
			return portable, true, nil
		}
	}
	home, err := userHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, common.HomeDirName), false, nil
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	base, portable, err := BaseDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, base)
	v.SetEnvPrefix(common.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	file := opts.ConfigFile
	if file == "" {
		file = os.Getenv(common.ConfigEnv)
	}
	explicit := file != ""
	if !explicit {
		file = filepath.Join(base, FileName)
	}
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		file = ""
	}

	for k, val := range opts.Overrides {
		v.Set(k, val)
	}

	cfg := &Config{
		BaseDir:              base,
		ConfigFile:           file,
		StorageDir:           v.GetString(KeyStorageDir),
		BackupDir:            v.GetString(KeyBackupDir),
		LogDir:               v.GetString(KeyLogDir),
		DryRun:               v.GetBool(KeyDryRun),
		Debug:                v.GetBool(KeyDebug),
		KeyEscrow:            v.GetBool(KeyKeyEscrow),
		RegenerateCorruptKey: v.GetBool(KeyRegenerateCorruptKey),
		Keywords:             keywords(v),
		CloseTimeout:         v.GetDuration(KeyCloseTimeout),
		KillTimeout:          v.GetDuration(KeyKillTimeout),
		GuardRunningBrowser:  v.GetBool(KeyGuardRunningBrowser),
		Portable:             portable,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, base string) {
	v.SetDefault(KeyStorageDir, filepath.Join(base, "sessions"))
	v.SetDefault(KeyBackupDir, filepath.Join(base, "backups"))
	v.SetDefault(KeyLogDir, filepath.Join(base, "logs"))
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyKeyEscrow, false)
	v.SetDefault(KeyRegenerateCorruptKey, false)
	v.SetDefault(KeyKeywords, browser.DefaultKeywords)
	v.SetDefault(KeyCloseTimeout, browser.DefaultCloseTimeout)
	v.SetDefault(KeyKillTimeout, browser.DefaultKillTimeout)
	v.SetDefault(KeyGuardRunningBrowser, true)
}

// keywords accepts a YAML list or a comma separated string (the form an
// environment variable takes).
func keywords(v *viper.Viper) []string {
	raw := v.GetStringSlice(KeyKeywords)
	var out []string
	for _, item := range raw {
		for _, kw := range strings.Split(item, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}

func (c *Config) validate() error {
	for key, dir := range map[string]string{
		KeyStorageDir: c.StorageDir,
		KeyBackupDir:  c.BackupDir,
		KeyLogDir:     c.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("config: %s must not be empty", key)
		}
	}
	if len(c.Keywords) == 0 {
		return errors.New("config: keywords must not be empty")
	}
	if c.CloseTimeout <= 0 || c.KillTimeout <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	return nil
}
