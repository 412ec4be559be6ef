// Package cookies reads and mutates browser cookie databases.
//
// Reads never touch the live file: the database and its -wal and -shm
// companions are copied to a temporary directory first. Writes always leave
// a timestamped copy of the pre-change database next to the original.
//
// Both the Chromium cookies table (with or without encrypted_value) and the
// Gecko moz_cookies table are supported. Cookie values are never logged or
// formatted into errors. Only host and name may appear in diagnostics.
package cookies
