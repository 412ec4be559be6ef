package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/agclean/agclean/cmd/common"
	"github.com/agclean/agclean/pkg/keystore"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/zalando/go-keyring"
)

var (
	profileName  string
	profileEmail string
	forceAction  bool

	profileFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "profile, p",
			Usage:       "profile name or directory (default: first profile)",
			Destination: &profileName,
		},
		emailFlag,
	}
	emailFlag = cli.StringFlag{
		Name:        "email, e",
		Usage:       "select profiles signed in with an account containing this text",
		Destination: &profileEmail,
	}
	forceFlag = cli.BoolFlag{
		Name:        "force, f",
		Usage:       "skip the confirmation prompt",
		Destination: &forceAction,
	}
)

func backup(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	key := ctx.Args().First()
	if key == "" {
		return common.PrintErrWithCmdHelp(ctx, errMissingBrowser)
	}
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "backup", "load_config", err)
		return nil
	}
	defer e.close()

	profile, err := e.resolveProfile(key, profileName, profileEmail)
	if err != nil {
		common.PrintRuntimeErr(ctx, "backup", "resolve_profile", err)
		return nil
	}
	m, err := e.sessionManager(nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "backup", "new_manager", err)
		return nil
	}
	path, err := m.BackupSession(key, profile, ctx.Args().Get(1))
	if err != nil {
		common.PrintRuntimeErr(ctx, "backup", "backup_session", err)
		return nil
	}
	if !e.cfg.DryRun {
		fmt.Printf("Session saved to %s\n", path)
	}
	return nil
}

func restore(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	name, key := ctx.Args().Get(0), ctx.Args().Get(1)
	if name == "" {
		return common.PrintErrWithCmdHelp(ctx, errMissingSession)
	}
	if key == "" {
		return common.PrintErrWithCmdHelp(ctx, errMissingBrowser)
	}
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "restore", "load_config", err)
		return nil
	}
	defer e.close()

	profile, err := e.resolveProfile(key, profileName, profileEmail)
	if err != nil {
		common.PrintRuntimeErr(ctx, "restore", "resolve_profile", err)
		return nil
	}
	if !e.cfg.DryRun && !confirm(command("restore"), forceAction) {
		return nil
	}

	p := mpb.New(mpb.WithWidth(48))
	bar := common.InitBar(p, "Restoring", 0)
	m, err := e.sessionManager(common.ProgressFunc(bar))
	if err != nil {
		bar.Abort(true)
		p.Wait()
		common.PrintRuntimeErr(ctx, "restore", "new_manager", err)
		return nil
	}
	res, err := m.RestoreSession(name, key, profile)
	if !bar.Completed() {
		bar.Abort(true)
	}
	p.Wait()
	if err != nil {
		common.PrintRuntimeErr(ctx, "restore", "restore_session", err)
		return nil
	}
	if res.DryRun {
		return nil
	}
	fmt.Printf("Restored %d of %d cookies (%d updated, %d added, %d failed)\n",
		res.Applied, res.Total, res.Updated, res.Inserted, res.Skipped)
	fmt.Printf("Previous cookie database saved to %s\n", res.BackupPath)
	return nil
}

func list(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "list", "load_config", err)
		return nil
	}
	defer e.close()
	m, err := e.sessionManager(nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "list", "new_manager", err)
		return nil
	}
	sessions := m.ListSavedSessions()
	if len(sessions) == 0 {
		fmt.Println("agclean: no saved sessions found")
		return nil
	}
	txt := "Here are your saved sessions:"
	txt += "\n\n--------------------------------------------------------------------------------"
	txt += "\n|            Name            | Browser  | Cookies |     Backup time     | Status  |"
	txt += "\n|----------------------------|----------|---------|---------------------|---------|"
	for _, s := range sessions {
		status, when := "valid", "-"
		if s.Expired {
			status = "expired"
		}
		if s.Err != nil {
			status = "corrupt"
		}
		if !s.BackupTime.IsZero() {
			when = s.BackupTime.Local().Format(time.DateTime)
		}
		txt += fmt.Sprintf("\n| %s | %s | %s | %s | %s |",
			common.Pad(s.Name, 26),
			common.Pad(s.Browser, 8),
			common.Beaut(fmt.Sprint(s.CookieCount), 7),
			common.Pad(when, 19),
			common.Pad(status, 7),
		)
	}
	txt += "\n--------------------------------------------------------------------------------"
	fmt.Println(txt)
	return nil
}

func deleteSession(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	name := ctx.Args().First()
	if name == "" {
		return common.PrintErrWithCmdHelp(ctx, errMissingSession)
	}
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "delete", "load_config", err)
		return nil
	}
	defer e.close()
	if !e.cfg.DryRun && !confirm(command("delete"), forceAction) {
		return nil
	}
	m, err := e.sessionManager(nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "delete", "new_manager", err)
		return nil
	}
	if err := m.DeleteSession(name); err != nil {
		common.PrintRuntimeErr(ctx, "delete", "delete_session", err)
	}
	return nil
}

func prune(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "prune", "load_config", err)
		return nil
	}
	defer e.close()
	if !e.cfg.DryRun && !confirm(command("prune"), forceAction) {
		return nil
	}
	m, err := e.sessionManager(nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "prune", "new_manager", err)
		return nil
	}
	n := m.DeleteExpiredSessions()
	fmt.Printf("Removed %d expired sessions\n", n)
	return nil
}

// forgetKey removes the escrowed master key of the storage directory from the
// OS keyring. The key file under the storage directory is left alone.
func forgetKey(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "forget-key", "load_config", err)
		return nil
	}
	defer e.close()
	kr := keystore.NewKeyring(e.cfg.StorageDir)
	if e.cfg.DryRun {
		e.log.Info("[DRY RUN] Would remove keyring entry %s/%s", kr.Service, kr.Account)
		return nil
	}
	if !confirm(command("forget-key"), forceAction) {
		return nil
	}
	err = kr.Delete()
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Println("No escrowed key for this storage directory")
	case err != nil:
		common.PrintRuntimeErr(ctx, "forget-key", "keyring_delete", err)
	default:
		e.log.Info("Removed escrowed key %s/%s", kr.Service, kr.Account)
	}
	return nil
}
