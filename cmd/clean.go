package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/agclean/agclean/cmd/common"
	"github.com/agclean/agclean/internal/browser"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
)

func clean(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "clean", "load_config", err)
		return nil
	}
	defer e.close()

	keys := []string(ctx.Args())
	if len(keys) == 0 {
		keys = e.locator.Installed()
	}
	if len(keys) == 0 {
		fmt.Println("agclean: no installed browsers found")
		return nil
	}
	for _, key := range keys {
		if _, err := e.locator.Get(key); err != nil {
			common.PrintRuntimeErr(ctx, "clean", "get_browser", err)
			return nil
		}
	}
	if !e.cfg.DryRun && !confirm(command("clean"), forceAction) {
		return nil
	}

	sctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var total browser.Stats
	for _, key := range keys {
		p := mpb.New(mpb.WithWidth(48))
		bar := common.InitBar(p, key, 0)
		progress := common.ProgressFunc(bar)
		c := e.cleaner(func(_ string, done, n int) { progress(done, n) })
		stats, err := c.CleanBrowser(sctx, key)
		if !bar.Completed() {
			bar.Abort(true)
		}
		p.Wait()
		total.Cookies += stats.Cookies
		total.LocalStorage += stats.LocalStorage
		total.Cache += stats.Cache
		total.Profiles += stats.Profiles
		if err != nil {
			common.PrintRuntimeErr(ctx, "clean", key, err)
		}
		if sctx.Err() != nil {
			break
		}
	}

	verb := "Removed"
	if e.cfg.DryRun {
		verb = "Would remove"
	}
	fmt.Printf("%s %d cookies, %d local storage items and %d cache entries across %d profiles\n",
		verb, total.Cookies, total.LocalStorage, total.Cache, total.Profiles)
	return nil
}
