package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/store"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/sqlitex"
)

const documentColumns = `id, collection, data, permissions, created_at, updated_at`

func (s *Store) CreateDocument(ctx context.Context, collection, id string, data any, permissions []string) (entity.Document, error) {
	raw, err := store.EncodeData(data)
	if err != nil {
		return entity.Document{}, err
	}
	if permissions == nil {
		permissions = []string{}
	}
	perms, err := json.Marshal(permissions)
	if err != nil {
		return entity.Document{}, fmt.Errorf("sqlite: encode permissions: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, string(raw), string(perms), sqlitex.FormatTime(now), sqlitex.FormatTime(now),
	)
	if err != nil {
		return entity.Document{}, fmt.Errorf("sqlite: create document %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.Document{}, ports.ErrDocumentExists
	}

	return entity.Document{
		ID:          id,
		Collection:  collection,
		Data:        raw,
		Permissions: permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (entity.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Document{}, ports.ErrDocumentNotFound
	}
	return doc, err
}

func (s *Store) UpdateDocument(ctx context.Context, collection, id string, data any) (entity.Document, error) {
	raw, err := store.EncodeData(data)
	if err != nil {
		return entity.Document{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET data = ?, updated_at = ?
		WHERE  collection = ? AND id = ?`,
		string(raw), sqlitex.FormatTime(time.Now().UTC()), collection, id,
	)
	if err != nil {
		return entity.Document{}, fmt.Errorf("sqlite: update document %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.Document{}, ports.ErrDocumentNotFound
	}
	return s.GetDocument(ctx, collection, id)
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete document %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrDocumentNotFound
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, collection string, query entity.Query) (entity.DocumentList, error) {
	where, args := whereClause(collection, query)

	list := entity.DocumentList{Documents: []entity.Document{}}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&list.Total); err != nil {
		return entity.DocumentList{}, fmt.Errorf("sqlite: count documents in %s: %w", collection, err)
	}

	if query.CursorAfter != "" {
		var after int64
		err := s.db.QueryRowContext(ctx,
			`SELECT seq FROM documents WHERE collection = ? AND id = ?`,
			collection, query.CursorAfter).Scan(&after)
		if errors.Is(err, sql.ErrNoRows) {
			return entity.DocumentList{}, ports.ErrDocumentNotFound
		}
		if err != nil {
			return entity.DocumentList{}, fmt.Errorf("sqlite: resolve cursor %q: %w", query.CursorAfter, err)
		}
		where += ` AND seq > ?`
		args = append(args, after)
	}

	args = append(args, query.EffectiveLimit())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE `+where+` ORDER BY seq ASC LIMIT ?`,
		args...)
	if err != nil {
		return entity.DocumentList{}, fmt.Errorf("sqlite: list documents in %s: %w", collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return entity.DocumentList{}, err
		}
		list.Documents = append(list.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return entity.DocumentList{}, fmt.Errorf("sqlite: list documents in %s: %w", collection, err)
	}
	return list, nil
}

// whereClause translates the query filters. Missing fields compare as the
// empty string, matching entity.Query.Matches.
func whereClause(collection string, query entity.Query) (string, []any) {
	clauses := []string{`collection = ?`}
	args := []any{collection}

	field := `COALESCE(json_extract(data, ?), '')`

	for _, f := range query.Equal {
		clauses = append(clauses, field+` = ?`)
		args = append(args, jsonPath(f.Field), f.Value)
	}

	if len(query.AnyOf) > 0 {
		var or []string
		for _, f := range query.AnyOf {
			or = append(or, field+` = ?`)
			args = append(args, jsonPath(f.Field), f.Value)
		}
		clauses = append(clauses, `(`+strings.Join(or, ` OR `)+`)`)
	}

	if query.Search != nil {
		clauses = append(clauses, `instr(`+sqlitex.FuncLower+`(`+field+`), `+sqlitex.FuncLower+`(?)) > 0`)
		args = append(args, jsonPath(query.Search.Field), query.Search.Value)
	}

	return strings.Join(clauses, ` AND `), args
}

func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, ``) + `"`
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (entity.Document, error) {
	var (
		doc                  entity.Document
		data, perms          string
		createdAt, updatedAt string
	)
	if err := row.Scan(&doc.ID, &doc.Collection, &data, &perms, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Document{}, err
		}
		return entity.Document{}, fmt.Errorf("sqlite: scan document: %w", err)
	}

	doc.Data = json.RawMessage(data)
	if err := json.Unmarshal([]byte(perms), &doc.Permissions); err != nil {
		return entity.Document{}, fmt.Errorf("sqlite: decode permissions of %s: %w", doc.ID, err)
	}

	var err error
	if doc.CreatedAt, err = sqlitex.ParseTime(createdAt); err != nil {
		return entity.Document{}, err
	}
	if doc.UpdatedAt, err = sqlitex.ParseTime(updatedAt); err != nil {
		return entity.Document{}, err
	}
	return doc, nil
}
