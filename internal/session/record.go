package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agclean/agclean/internal/cookies"
	"github.com/araddon/dateparse"
)

// Record is one backed-up browser session. Records are built once and never
// modified.
type Record struct {
	Browser      string
	ProfilePath  string
	BackupTime   time.Time
	CookieCount  int
	HasEncrypted bool
	// Cookies is nil when the serialized record had no cookies field.
	Cookies []cookies.Row

	rawBackupTime string
}

// NewRecord builds a record from a snapshot.
func NewRecord(browser, profilePath string, backupTime time.Time, snap *cookies.Snapshot) *Record {
	rows := make([]cookies.Row, len(snap.Rows))
	copy(rows, snap.Rows)
	return &Record{
		Browser:      browser,
		ProfilePath:  profilePath,
		BackupTime:   backupTime,
		CookieCount:  len(rows),
		HasEncrypted: snap.HasEncrypted(),
		Cookies:      rows,
	}
}

// RawBackupTime returns backup_time as it was serialized.
func (r *Record) RawBackupTime() string {
	if r.rawBackupTime != "" {
		return r.rawBackupTime
	}
	if r.BackupTime.IsZero() {
		return ""
	}
	return r.BackupTime.Format(time.RFC3339Nano)
}

// flag is an integer column value that also accepts JSON booleans.
type flag int

func (f *flag) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true":
		*f = 1
		return nil
	case "false", "null":
		*f = 0
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if n != 0 {
		*f = 1
	} else {
		*f = 0
	}
	return nil
}

type wireCookie struct {
	HostKey        string  `json:"host_key"`
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Path           *string `json:"path,omitempty"`
	ExpiresUTC     int64   `json:"expires_utc"`
	IsSecure       flag    `json:"is_secure"`
	IsHTTPOnly     flag    `json:"is_httponly"`
	EncryptedValue *string `json:"encrypted_value,omitempty"`
}

type wireRecord struct {
	Browser      *string       `json:"browser,omitempty"`
	ProfilePath  string        `json:"profile_path"`
	BackupTime   *string       `json:"backup_time,omitempty"`
	CookieCount  int           `json:"cookie_count"`
	HasEncrypted bool          `json:"has_encrypted"`
	Cookies      *[]wireCookie `json:"cookies,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{
		ProfilePath:  r.ProfilePath,
		CookieCount:  r.CookieCount,
		HasEncrypted: r.HasEncrypted,
	}
	if r.Browser != "" {
		w.Browser = &r.Browser
	}
	if bt := r.RawBackupTime(); bt != "" {
		w.BackupTime = &bt
	}
	if r.Cookies != nil {
		list := make([]wireCookie, 0, len(r.Cookies))
		for _, row := range r.Cookies {
			list = append(list, toWire(row))
		}
		w.Cookies = &list
	}
	return json.Marshal(w)
}

func toWire(row cookies.Row) wireCookie {
	c := row.Base()
	path := c.Path
	w := wireCookie{
		HostKey:    c.Host,
		Name:       c.Name,
		Value:      c.Value,
		Path:       &path,
		ExpiresUTC: c.Expires,
	}
	if c.Secure {
		w.IsSecure = 1
	}
	if c.HTTPOnly {
		w.IsHTTPOnly = 1
	}
	switch v := row.(type) {
	case cookies.EncryptedCookie:
		enc := base64.StdEncoding.EncodeToString(v.EncryptedValue)
		w.EncryptedValue = &enc
	case cookies.PlainCookie:
	}
	return w
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	out := Record{
		ProfilePath:  w.ProfilePath,
		CookieCount:  w.CookieCount,
		HasEncrypted: w.HasEncrypted,
	}
	if w.Browser != nil {
		out.Browser = *w.Browser
	}
	if w.BackupTime != nil {
		out.rawBackupTime = *w.BackupTime
		out.BackupTime = parseBackupTime(*w.BackupTime)
	}
	if w.Cookies != nil {
		out.Cookies = make([]cookies.Row, 0, len(*w.Cookies))
		for i, wc := range *w.Cookies {
			row, err := fromWire(wc)
			if err != nil {
				return fmt.Errorf("cookie %d: %w", i, err)
			}
			out.Cookies = append(out.Cookies, row)
		}
	}
	*r = out
	return nil
}

func fromWire(w wireCookie) (cookies.Row, error) {
	c := cookies.Cookie{
		Host:     w.HostKey,
		Name:     w.Name,
		Value:    w.Value,
		Path:     "/",
		Expires:  w.ExpiresUTC,
		Secure:   w.IsSecure != 0,
		HTTPOnly: w.IsHTTPOnly != 0,
	}
	if w.Path != nil {
		c.Path = *w.Path
	}
	if w.EncryptedValue == nil {
		return cookies.PlainCookie{Cookie: c}, nil
	}
	enc, err := base64.StdEncoding.DecodeString(*w.EncryptedValue)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted_value is not base64", ErrValidation)
	}
	return cookies.EncryptedCookie{Cookie: c, EncryptedValue: enc}, nil
}

// parseBackupTime accepts RFC 3339 and the naive ISO-8601 timestamps older
// writers produced, which are read as local time. It returns the zero time
// when s cannot be parsed.
func parseBackupTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
