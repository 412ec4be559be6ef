package cmd

const DESCRIPTION = `
agclean removes Antigravity sign-in data from your browsers and can
keep an encrypted copy of a browser session so you can log back in
without starting over. Saved sessions stay valid for 30 days.
`

const (
	SessionDescription = `The session command saves the cookies of a browser profile
into an encrypted file and writes them back later.

Examples:
        agclean session backup chrome work
        agclean session restore work chrome
        agclean session list

`
	BackupDescription = `The backup command reads the cookie database of a browser
profile and stores it encrypted under the storage directory.
Without a name the session is called <browser>_<timestamp>.

The first profile is used unless --profile or --email selects
another one.

Example:
        agclean session backup chrome
        agclean session backup firefox --email me@example.com personal

`
	RestoreDescription = `The restore command writes a saved session into the cookie
database of a browser profile. The database is copied to
<db>.backup_<timestamp> first. Sessions older than 30 days
are refused. Close the browser before restoring.

Example:
        agclean session restore work chrome
        agclean session restore work edge --profile "Profile 2"

`
	ProfilesDescription = `The profiles command lists the profiles of a browser with the
account each one is signed in to.

Example:
        agclean profiles chrome
        agclean profiles chrome --email gmail.com

`
	CleanDescription = `The clean command closes the browser if it is running and
removes Antigravity cookies, local storage and cache entries
from every profile. Each cookie database is copied to the
backup directory before it is changed. Without arguments every
installed browser is cleaned.

Example:
        agclean clean
        agclean --dry-run clean chrome brave

`
)
