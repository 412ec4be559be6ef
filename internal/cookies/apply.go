package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// BackupStampLayout formats the suffix of pre-change database copies.
const BackupStampLayout = "20060102_150405"

// ApplyOptions tunes Apply.
type ApplyOptions struct {
	// Now stamps the backup copy and fills creation timestamps of new rows.
	Now func() time.Time
	// BusyTimeoutMS is how long to wait on a browser's lock.
	BusyTimeoutMS int
	// OnRow, when set, is called after every row with the number processed.
	OnRow func(done, total int)
}

// ApplyResult summarises an Apply call. Row failures are collected in
// Errors and never abort the run.
type ApplyResult struct {
	Applied    int
	Inserted   int
	Updated    int
	Skipped    int
	Total      int
	Errors     []RowError
	BackupPath string
}

// Apply writes rows into the live database at dbPath. Every row is matched
// on (host, name, path): an existing cookie is updated, a missing one is
// inserted. A copy of the database is saved as {dbPath}.backup_{stamp}
// before the first write.
//
// Each row runs inside its own savepoint so a failing row leaves the others
// intact. All rows commit together at the end. A lock held by another
// connection aborts the whole run with a locked *AccessError and nothing is
// committed.
func Apply(dbPath string, rows []Row, opts ApplyOptions) (*ApplyResult, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now()

	if err := checkSource(dbPath); err != nil {
		return nil, err
	}
	if err := checkMagic(dbPath); err != nil {
		return nil, err
	}
	backupPath, err := BackupCopy(dbPath, now.Format(BackupStampLayout))
	if err != nil {
		return nil, err
	}
	res := &ApplyResult{Total: len(rows), BackupPath: backupPath}

	db, err := openDB(dbPath, opts.BusyTimeoutMS)
	if err != nil {
		return res, err
	}
	defer db.Close()

	schema, err := DetectSchema(db)
	if err != nil {
		return res, fmt.Errorf("%s: %w", dbPath, err)
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, classifySQLError(dbPath, err)
	}
	defer tx.Rollback()

	w := newRowWriter(schema, now)
	for i, r := range rows {
		inserted, err := w.apply(ctx, tx, r)
		if isBusyDatabase(err) {
			return res, &AccessError{Path: dbPath, Locked: true, Err: err}
		}
		if err != nil {
			c := r.Base()
			res.Errors = append(res.Errors, RowError{Index: i, Host: c.Host, Name: c.Name, Err: err})
			res.Skipped++
		} else {
			res.Applied++
			if inserted {
				res.Inserted++
			} else {
				res.Updated++
			}
		}
		if opts.OnRow != nil {
			opts.OnRow(i+1, len(rows))
		}
	}

	if err := tx.Commit(); err != nil {
		return res, classifySQLError(dbPath, fmt.Errorf("commit: %w", err))
	}
	return res, nil
}

type rowWriter struct {
	schema *Schema
	now    time.Time
	fill   []Column
}

func newRowWriter(schema *Schema, now time.Time) *rowWriter {
	w := &rowWriter{schema: schema, now: now}
	set := map[string]bool{
		schema.host: true, "name": true, "value": true, "path": true,
		schema.expires: true, schema.secure: true, schema.httpOnly: true,
		"encrypted_value": schema.HasEncrypted,
	}
	for _, c := range schema.Columns {
		if set[c.Name] || !c.NotNull || c.HasDefault || c.PrimaryKey {
			continue
		}
		w.fill = append(w.fill, c)
	}
	return w
}

// apply writes one row inside a savepoint and reports whether it was inserted.
func (w *rowWriter) apply(ctx context.Context, tx *sql.Tx, r Row) (inserted bool, err error) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT cookie_row"); err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.ExecContext(ctx, "ROLLBACK TO cookie_row")
		}
		tx.ExecContext(ctx, "RELEASE cookie_row")
	}()

	c := r.Base()
	var encrypted []byte
	hasBlob := false
	if e, ok := r.(EncryptedCookie); ok && w.schema.HasEncrypted {
		encrypted, hasBlob = e.EncryptedValue, true
		if encrypted == nil {
			encrypted = []byte{}
		}
	}

	s := w.schema
	sets := []string{"value=?", s.expires + "=?", s.secure + "=?", s.httpOnly + "=?"}
	args := []any{c.Value, c.Expires, boolInt(c.Secure), boolInt(c.HTTPOnly)}
	if hasBlob {
		sets = append(sets, "encrypted_value=?")
		args = append(args, encrypted)
	}
	args = append(args, c.Host, c.Name, c.Path)
	update := fmt.Sprintf("UPDATE %s SET %s WHERE %s=? AND name=? AND path=?",
		s.Table, strings.Join(sets, ", "), s.host)
	result, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return false, err
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return false, nil
	}

	cols := []string{s.host, "name", "value", "path", s.expires, s.secure, s.httpOnly}
	args = []any{c.Host, c.Name, c.Value, c.Path, c.Expires, boolInt(c.Secure), boolInt(c.HTTPOnly)}
	if hasBlob {
		cols = append(cols, "encrypted_value")
		args = append(args, encrypted)
	}
	for _, col := range w.fill {
		cols = append(cols, col.Name)
		args = append(args, w.fillValue(col))
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.Table, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return false, err
	}
	return true, nil
}

// fillValue picks a value for a NOT NULL column the caller has no data for.
func (w *rowWriter) fillValue(col Column) any {
	switch col.Name {
	case "creation_utc", "last_access_utc", "last_update_utc":
		return unixToChrome(w.now.Unix()) + int64(w.now.Nanosecond()/1000)
	case "creationTime", "lastAccessed":
		return w.now.UnixMicro()
	}
	t := col.Type
	switch {
	case strings.Contains(t, "INT"):
		return int64(0)
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return ""
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return float64(0)
	case t == "", strings.Contains(t, "BLOB"):
		return []byte{}
	}
	return int64(0)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
