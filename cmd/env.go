package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/agclean/agclean/internal/browser"
	"github.com/agclean/agclean/internal/config"
	"github.com/agclean/agclean/internal/session"
	"github.com/agclean/agclean/pkg/keystore"
	"github.com/agclean/agclean/pkg/logger"
	"github.com/urfave/cli"
)

// LogFileName is the rotating log inside the configured log directory.
const LogFileName = "agclean.log"

type appEnv struct {
	cfg       *config.Config
	log       logger.Logger
	locator   *browser.Locator
	inspector *browser.Inspector
}

// loadEnv resolves configuration from the global flags and wires the
// console and file loggers.
func loadEnv(ctx *cli.Context) (*appEnv, error) {
	overrides := map[string]any{}
	if ctx.GlobalIsSet("dry-run") {
		overrides[config.KeyDryRun] = dryRun
	}
	if ctx.GlobalIsSet("debug") {
		overrides[config.KeyDebug] = debug
	}
	if storageDir != "" {
		overrides[config.KeyStorageDir] = storageDir
	}
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configPath, Overrides: overrides})
	if err != nil {
		return nil, err
	}

	console := logger.NewStandardLogger(log.New(os.Stdout, "", 0))
	console.Verbose = cfg.Debug
	var l logger.Logger = console
	fl, err := logger.NewFileLogger(logger.FileOptions{
		Path:  filepath.Join(cfg.LogDir, LogFileName),
		Debug: cfg.Debug,
	})
	if err != nil {
		console.Warning("File logging disabled: %v", err)
	} else {
		l = logger.NewMultiLogger(console, fl)
	}
	if cfg.DryRun {
		l.Info("[DRY RUN] No changes will be made")
	}
	l.Debug("Base directory: %s (portable: %v)", cfg.BaseDir, cfg.Portable)

	locator := browser.NewLocator(l)
	return &appEnv{
		cfg:     cfg,
		log:     l,
		locator: locator,
		inspector: browser.NewInspector(locator, browser.InspectorOptions{
			DryRun:       cfg.DryRun,
			CloseTimeout: cfg.CloseTimeout,
			KillTimeout:  cfg.KillTimeout,
			Logger:       l,
		}),
	}, nil
}

func (e *appEnv) close() {
	_ = e.log.Close()
}

func (e *appEnv) sessionManager(onProgress func(done, total int)) (*session.Manager, error) {
	opts := session.Options{
		StorageDir:           e.cfg.StorageDir,
		DryRun:               e.cfg.DryRun,
		Logger:               e.log,
		Locator:              e.locator,
		RegenerateCorruptKey: e.cfg.RegenerateCorruptKey,
		OnRestoreProgress:    onProgress,
	}
	if e.cfg.GuardRunningBrowser {
		opts.Guard = e.inspector
	}
	if e.cfg.KeyEscrow {
		opts.KeyEscrow = keystore.NewKeyring(e.cfg.StorageDir)
	}
	return session.NewManager(opts)
}

func (e *appEnv) cleaner(onProfile func(profile string, done, total int)) *browser.Cleaner {
	return browser.NewCleaner(e.locator, e.inspector, browser.CleanerOptions{
		DryRun:    e.cfg.DryRun,
		BackupDir: e.cfg.BackupDir,
		Keywords:  e.cfg.Keywords,
		Logger:    e.log,
		OnProfile: onProfile,
	})
}

// resolveProfile picks a profile directory. profile may be a path or a
// profile name; email searches signed-in accounts. With neither, the first
// profile is used.
func (e *appEnv) resolveProfile(key, profile, email string) (string, error) {
	if profile != "" {
		if fi, err := os.Stat(profile); err == nil && fi.IsDir() {
			return profile, nil
		}
	}
	var (
		list []browser.Profile
		err  error
	)
	if email != "" {
		list, err = e.locator.SearchByEmail(key, email)
	} else {
		list, err = e.locator.Profiles(key)
	}
	if err != nil {
		return "", err
	}
	for _, p := range list {
		if profile == "" || p.Name == profile {
			return p.Path, nil
		}
	}
	switch {
	case email != "":
		return "", fmt.Errorf("no %s profile signed in as %q", key, email)
	case profile != "":
		return "", fmt.Errorf("no %s profile named %q", key, profile)
	}
	return "", fmt.Errorf("no %s profiles found", key)
}
