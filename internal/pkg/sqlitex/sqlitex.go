// Package sqlitex opens SQLite databases with the settings every store in
// this module relies on and converts timestamps to and from TEXT columns.
package sqlitex

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
)

// FuncLower is a Unicode-aware lower(). SQLite's built-in only folds ASCII.
const FuncLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FuncLower, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return strings.ToLower(fmt.Sprint(v)), nil
	}
}

// Open opens (or creates) the database at path in WAL mode and applies
// schema. Schema statements must be idempotent.
//
//	db, err := sqlitex.Open("./data/store.db", schema)
func Open(path, schema string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return db, nil
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t as fixed-width RFC3339 TEXT so lexical order matches
// time order; SQLite has no native datetime type.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses the timestamp strings stored by FormatTime.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
