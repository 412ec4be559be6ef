package cmd

import (
	"fmt"

	"github.com/agclean/agclean/cmd/common"
	"github.com/urfave/cli"
)

func browsers(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "browsers", "load_config", err)
		return nil
	}
	defer e.close()

	installed := map[string]bool{}
	for _, key := range e.locator.Installed() {
		installed[key] = true
	}
	txt := "Supported browsers:"
	txt += "\n\n-----------------------------------------------------"
	txt += "\n|    Key     |        Name         | Engine   | Found |"
	txt += "\n|------------|---------------------|----------|-------|"
	for _, b := range e.locator.Browsers() {
		found := "no"
		if installed[b.Key] {
			found = "yes"
		}
		txt += fmt.Sprintf("\n| %s | %s | %s | %s |",
			common.Pad(b.Key, 10),
			common.Pad(b.Name, 19),
			common.Pad(b.Engine.String(), 8),
			common.Beaut(found, 5),
		)
	}
	txt += "\n-----------------------------------------------------"
	fmt.Println(txt)
	return nil
}

func profiles(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	key := ctx.Args().First()
	if key == "" {
		return common.PrintErrWithCmdHelp(ctx, errMissingBrowser)
	}
	e, err := loadEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "profiles", "load_config", err)
		return nil
	}
	defer e.close()

	list, err := e.locator.SearchByEmail(key, profileEmail)
	if err != nil {
		common.PrintRuntimeErr(ctx, "profiles", "get_profiles", err)
		return nil
	}
	if len(list) == 0 {
		fmt.Printf("agclean: no %s profiles found\n", key)
		return nil
	}
	fmt.Printf("Profiles of %s:\n\n", key)
	for i, p := range list {
		email := p.Email
		if email == "" {
			email = "-"
		}
		fmt.Printf("%3d. %s  %s\n     %s\n", i+1, common.Pad(p.Name, 20), email, p.Path)
	}
	return nil
}
