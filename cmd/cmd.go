package cmd

import (
	"fmt"
	"runtime"

	"github.com/agclean/agclean/cmd/common"
	"github.com/urfave/cli"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var (
	dryRun     bool
	debug      bool
	storageDir string
	configPath string

	globalFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "dry-run, n",
			Usage:       "show what would change without touching any file",
			Destination: &dryRun,
		},
		cli.BoolFlag{
			Name:        "debug, d",
			Usage:       "enable debug logging",
			Destination: &debug,
		},
		cli.StringFlag{
			Name:        "storage-dir, s",
			Usage:       "directory holding saved sessions",
			Destination: &storageDir,
		},
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to a config.yaml",
			Destination: &configPath,
		},
	}
)

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "agclean",
		HelpName:              "agclean",
		Usage:                 "Antigravity browser data cleaner and session keeper.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "agclean [global options] <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "session",
				Aliases:            []string{"s"},
				Usage:              "back up, restore and manage saved login sessions",
				Description:        SessionDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Subcommands: []cli.Command{
					{
						Name:               "backup",
						Usage:              "save the cookies of a browser profile",
						UsageText:          "session backup <browser> [name]",
						Description:        BackupDescription,
						CustomHelpTemplate: CMD_HELP_TEMPL,
						OnUsageError:       common.UsageErrorCallback,
						Action:             backup,
						Flags:              profileFlags,
					},
					{
						Name:               "restore",
						Usage:              "write a saved session back into a browser profile",
						UsageText:          "session restore <name> <browser>",
						Description:        RestoreDescription,
						CustomHelpTemplate: CMD_HELP_TEMPL,
						OnUsageError:       common.UsageErrorCallback,
						Action:             restore,
						Flags:              append(profileFlags, forceFlag),
					},
					{
						Name:               "list",
						Aliases:            []string{"ls"},
						Usage:              "list saved sessions",
						UsageText:          "session list",
						CustomHelpTemplate: CMD_HELP_TEMPL,
						Action:             list,
					},
					{
						Name:               "delete",
						Aliases:            []string{"rm"},
						Usage:              "delete a saved session",
						UsageText:          "session delete <name>",
						CustomHelpTemplate: CMD_HELP_TEMPL,
						OnUsageError:       common.UsageErrorCallback,
						Action:             deleteSession,
						Flags:              []cli.Flag{forceFlag},
					},
					{
						Name:               "prune",
						Usage:              "delete expired and unreadable sessions",
						UsageText:          "session prune",
						CustomHelpTemplate: CMD_HELP_TEMPL,
						OnUsageError:       common.UsageErrorCallback,
						Action:             prune,
						Flags:              []cli.Flag{forceFlag},
					},
					{
						Name:               "forget-key",
						Usage:              "remove the escrowed master key from the OS keyring",
						UsageText:          "session forget-key",
						CustomHelpTemplate: CMD_HELP_TEMPL,
						OnUsageError:       common.UsageErrorCallback,
						Action:             forgetKey,
						Flags:              []cli.Flag{forceFlag},
					},
				},
			},
			{
				Name:               "browsers",
				Aliases:            []string{"b"},
				Usage:              "list supported browsers and whether they are installed",
				UsageText:          "browsers",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             browsers,
			},
			{
				Name:               "profiles",
				Aliases:            []string{"p"},
				Usage:              "list the profiles of a browser",
				UsageText:          "profiles <browser>",
				Description:        ProfilesDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             profiles,
				Flags:              []cli.Flag{emailFlag},
			},
			{
				Name:               "clean",
				Usage:              "remove Antigravity cookies, local storage and cache",
				UsageText:          "clean [browser...]",
				Description:        CleanDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             clean,
				Flags:              []cli.Flag{forceFlag},
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of agclean",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
