// Package sqlite provides a SQLite-backed implementation of sagalog.Repository.
//
// Incidents are appended after the fact and never read back for recovery.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/nested-tictactoe/internal/coordinator/sagalog"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/sqlitex"
)

// schema is the DDL executed once on startup. The table is append-only.
const schema = `
CREATE TABLE IF NOT EXISTS saga_incidents (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    saga_id     TEXT NOT NULL,
    status      TEXT NOT NULL,
    operation   TEXT NOT NULL DEFAULT '',
    error       TEXT NOT NULL DEFAULT '',
    classified  TEXT NOT NULL DEFAULT '',
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saga_incidents_saga_id ON saga_incidents(saga_id, created_at);
CREATE INDEX IF NOT EXISTS idx_saga_incidents_status ON saga_incidents(status);
`

// Repository is the SQLite implementation of sagalog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
//
//	repo, err := sqlite.Open("./data/incidents.db")
func Open(path string) (*Repository, error) {
	db, err := sqlitex.Open(path, schema)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts a new incident. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *sagalog.Entry) error {
	const q = `
		INSERT INTO saga_incidents
			(saga_id, status, operation, error, classified, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.SagaID,
		string(entry.Status),
		entry.Operation,
		entry.Error,
		entry.Classified,
		entry.TraceID,
		entry.SpanID,
		sqlitex.FormatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save incident for %q: %w", entry.SagaID, err)
	}
	return nil
}

// ListBySaga returns every incident recorded for sagaID, oldest first.
func (r *Repository) ListBySaga(ctx context.Context, sagaID string) ([]sagalog.Entry, error) {
	const q = `
		SELECT saga_id, status, operation, error, classified, trace_id, span_id, created_at
		FROM   saga_incidents
		WHERE  saga_id = ?
		ORDER  BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, sagaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list incidents for %q: %w", sagaID, err)
	}
	defer rows.Close()

	var out []sagalog.Entry
	for rows.Next() {
		var entry sagalog.Entry
		var createdAt string
		if err := rows.Scan(
			&entry.SagaID,
			&entry.Status,
			&entry.Operation,
			&entry.Error,
			&entry.Classified,
			&entry.TraceID,
			&entry.SpanID,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan incident for %q: %w", sagaID, err)
		}
		if entry.CreatedAt, err = sqlitex.ParseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list incidents for %q: %w", sagaID, err)
	}
	return out, nil
}

// CountByStatus reports how many incidents of the given status were recorded.
func (r *Repository) CountByStatus(ctx context.Context, status sagalog.Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saga_incidents WHERE status = ?`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count %s incidents: %w", status, err)
	}
	return n, nil
}
