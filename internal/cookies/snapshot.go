package cookies

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Snapshot is a point-in-time read of a cookie database.
type Snapshot struct {
	Schema Schema
	Rows   []Row
}

// HasEncrypted reports whether the source schema carries encrypted_value.
func (s *Snapshot) HasEncrypted() bool {
	return s.Schema.HasEncrypted
}

// ReadSnapshot copies dbPath to a temporary directory and reads every cookie
// row from the copy in rowid order. The copy is removed before returning.
func ReadSnapshot(dbPath string) (*Snapshot, error) {
	copyPath, cleanup, err := SafeCopy(dbPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := checkMagic(copyPath); err != nil {
		return nil, err
	}
	db, err := openDB(copyPath, 0)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	schema, err := DetectSchema(db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dbPath, err)
	}
	rows, err := readRows(db, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dbPath, err)
	}
	return &Snapshot{Schema: *schema, Rows: rows}, nil
}

func readRows(db *sql.DB, schema *Schema) ([]Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", schema.selectColumns(), schema.Table)
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			host, name, value, path sql.NullString
			expires                 sql.NullInt64
			secure, httpOnly        sql.NullInt64
			encrypted               []byte
		)
		dest := []any{&host, &name, &value, &path, &expires, &secure, &httpOnly}
		if schema.HasEncrypted {
			dest = append(dest, &encrypted)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan cookie row: %w", err)
		}
		c := Cookie{
			Host:     host.String,
			Name:     name.String,
			Value:    value.String,
			Path:     path.String,
			Expires:  expires.Int64,
			Secure:   secure.Int64 != 0,
			HTTPOnly: httpOnly.Int64 != 0,
		}
		if schema.HasEncrypted {
			if encrypted == nil {
				encrypted = []byte{}
			}
			out = append(out, EncryptedCookie{Cookie: c, EncryptedValue: encrypted})
		} else {
			out = append(out, PlainCookie{Cookie: c})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cookie rows: %w", err)
	}
	return out, nil
}
