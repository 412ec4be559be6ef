package cookies

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteMagic is the first 16 bytes of any SQLite database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// Column describes one column of the cookie table.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	HasDefault bool
	PrimaryKey bool
}

// Schema is the detected layout of a cookie database.
type Schema struct {
	Family       Family
	Table        string
	HasEncrypted bool
	Columns      []Column

	host, expires, secure, httpOnly string
}

// DefaultBusyTimeout is how long writers wait for a browser's lock to clear.
const DefaultBusyTimeout = 5000

// openDB opens path read-write with a busy timeout in milliseconds.
func openDB(path string, busyTimeoutMS int) (*sql.DB, error) {
	if busyTimeoutMS <= 0 {
		busyTimeoutMS = DefaultBusyTimeout
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", sqliteURI(path), busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// sqliteURI turns a filesystem path into a file: URI. Characters that start
// the query or fragment are percent-encoded so they stay part of the path.
func sqliteURI(path string) string {
	p := uriPathEscaper.Replace(filepath.ToSlash(path))
	if filepath.VolumeName(path) != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file:" + p
}

// checkMagic rejects files that are not SQLite databases before the driver
// gets a chance to create or rewrite them.
func checkMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return newAccessError(path, err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%w: %s is not a SQLite database", ErrSchema, path)
	}
	if string(header) != string(sqliteMagic) {
		return fmt.Errorf("%w: %s is not a SQLite database", ErrSchema, path)
	}
	return nil
}

// DetectSchema inspects db for a Gecko or Chromium cookie table.
func DetectSchema(db *sql.DB) (*Schema, error) {
	var table string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('moz_cookies', 'cookies') ORDER BY name = 'moz_cookies' DESC LIMIT 1`).Scan(&table)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSchema
	}
	if err != nil {
		return nil, classifySQLError("", err)
	}

	s := &Schema{Table: table}
	if table == "moz_cookies" {
		s.Family = FamilyGecko
		s.host, s.expires, s.secure, s.httpOnly = "host", "expiry", "isSecure", "isHttpOnly"
	} else {
		s.Family = FamilyChromium
		s.host, s.expires, s.secure, s.httpOnly = "host_key", "expires_utc", "is_secure", "is_httponly"
	}

	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, classifySQLError("", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("read table info: %w", err)
		}
		s.Columns = append(s.Columns, Column{
			Name:       name,
			Type:       strings.ToUpper(typ),
			NotNull:    notNull != 0,
			HasDefault: dflt.Valid,
			PrimaryKey: pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table info: %w", err)
	}

	for _, required := range []string{s.host, "name", "value", "path", s.expires, s.secure, s.httpOnly} {
		if !s.HasColumn(required) {
			return nil, fmt.Errorf("%w: %s has no %s column", ErrSchema, table, required)
		}
	}
	s.HasEncrypted = s.Family == FamilyChromium && s.HasColumn("encrypted_value")
	return s, nil
}

// HasColumn reports whether the cookie table has the named column.
func (s *Schema) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (s *Schema) selectColumns() string {
	cols := []string{s.host, "name", "value", "path", s.expires, s.secure, s.httpOnly}
	if s.HasEncrypted {
		cols = append(cols, "encrypted_value")
	}
	return strings.Join(cols, ", ")
}

// isBusyDatabase reports a SQLite busy or locked result.
func isBusyDatabase(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// classifySQLError turns lock failures into *AccessError.
func classifySQLError(path string, err error) error {
	if isBusyDatabase(err) {
		return &AccessError{Path: path, Locked: true, Err: err}
	}
	return err
}
