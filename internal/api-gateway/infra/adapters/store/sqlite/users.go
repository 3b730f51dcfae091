package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/store"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/sqlitex"
)

func (s *Store) CreateUser(ctx context.Context, id string, credentials entity.Credentials) (entity.User, error) {
	hash, err := store.HashPassword(credentials.Password, s.cost)
	if err != nil {
		return entity.User{}, err
	}

	u := entity.User{
		ID:           id,
		Name:         credentials.Name,
		Email:        store.NormalizeEmail(credentials.Email),
		Phone:        credentials.Phone,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	// An empty email is stored as NULL so it never collides.
	var email any
	if u.Email != "" {
		email = u.Email
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		u.ID, u.Name, email, u.Phone, u.PasswordHash, sqlitex.FormatTime(u.CreatedAt),
	)
	if err != nil {
		return entity.User{}, fmt.Errorf("sqlite: create user %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.User{}, ports.ErrUserAlreadyExists
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (entity.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(email, ''), phone, password_hash, created_at
		FROM   users
		WHERE  id = ?`, id), ports.ErrUserNotFound)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete user %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrUserNotFound
	}
	return nil
}

func (s *Store) VerifyCredentials(ctx context.Context, email, password string) (entity.User, error) {
	u, err := s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(email, ''), phone, password_hash, created_at
		FROM   users
		WHERE  email = ?`, store.NormalizeEmail(email)), ports.ErrInvalidCredentials)
	if err != nil {
		return entity.User{}, err
	}
	if !store.PasswordMatches(u.PasswordHash, password) {
		return entity.User{}, ports.ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) scanUser(row *sql.Row, missing error) (entity.User, error) {
	var (
		u         entity.User
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, missing
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("sqlite: scan user: %w", err)
	}
	if u.CreatedAt, err = sqlitex.ParseTime(createdAt); err != nil {
		return entity.User{}, err
	}
	return u, nil
}
