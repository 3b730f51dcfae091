// Package sqlite implements the identity and document stores on SQLite.
// Document data is kept as JSON text and queried with json_extract.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    email         TEXT UNIQUE,
    phone         TEXT NOT NULL DEFAULT '',
    password_hash BLOB NOT NULL,
    created_at    TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS users_phone ON users (phone) WHERE phone <> '';

CREATE TABLE IF NOT EXISTS documents (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    collection  TEXT NOT NULL,
    id          TEXT NOT NULL,
    data        TEXT NOT NULL,
    permissions TEXT NOT NULL DEFAULT '[]',
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL,
    UNIQUE (collection, id)
);
`

var (
	_ ports.Users     = (*Store)(nil)
	_ ports.Documents = (*Store)(nil)
)

// Store serves both the Users and the Documents ports from one database.
type Store struct {
	db   *sql.DB
	cost int
}

// Open opens the database at path. cost is the bcrypt cost, zero for the default.
func Open(path string, cost int) (*Store, error) {
	db, err := sqlitex.Open(path, schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, cost: cost}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
