package cookies

import (
	"fmt"
	"strings"
)

// keywordClause builds a WHERE clause matching rows whose host or name
// contains any keyword. LIKE wildcards inside keywords are matched literally.
func keywordClause(s *Schema, keywords []string) (string, []any) {
	var parts []string
	var args []any
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		pattern := "%" + escapeLike(kw) + "%"
		parts = append(parts, fmt.Sprintf(`%s LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\'`, s.host))
		args = append(args, pattern, pattern)
	}
	if len(parts) == 0 {
		return "0", nil
	}
	return strings.Join(parts, " OR "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CountMatching returns how many rows of a snapshot of dbPath match any
// keyword. Each row is counted once.
func CountMatching(dbPath string, keywords []string) (int, error) {
	copyPath, cleanup, err := SafeCopy(dbPath)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	if err := checkMagic(copyPath); err != nil {
		return 0, err
	}
	db, err := openDB(copyPath, 0)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	schema, err := DetectSchema(db)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", dbPath, err)
	}
	where, args := keywordClause(schema, keywords)
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", schema.Table, where)
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cookies: %w", err)
	}
	return n, nil
}

// Purge deletes rows of the live database whose host or name contains any
// keyword and returns how many were removed.
func Purge(dbPath string, keywords []string) (int64, error) {
	if err := checkSource(dbPath); err != nil {
		return 0, err
	}
	if err := checkMagic(dbPath); err != nil {
		return 0, err
	}
	db, err := openDB(dbPath, 0)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	schema, err := DetectSchema(db)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", dbPath, err)
	}
	where, args := keywordClause(schema, keywords)
	res, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s", schema.Table, where), args...)
	if err != nil {
		return 0, classifySQLError(dbPath, fmt.Errorf("delete cookies: %w", err))
	}
	return res.RowsAffected()
}
