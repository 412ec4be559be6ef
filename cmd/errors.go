package cmd

import "errors"

var (
	errMissingBrowser = errors.New("browser key is required, see \"agclean browsers\"")
	errMissingSession = errors.New("session name is required, see \"agclean session list\"")
)
