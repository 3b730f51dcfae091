// Package memory implements the identity, session and document stores in
// process memory. It backs local runs and the service tests.
package memory

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/store"
)

var _ ports.Users = (*Users)(nil)

type Users struct {
	users  *xsync.MapOf[string, entity.User]
	emails *xsync.MapOf[string, string]
	phones *xsync.MapOf[string, string]
	cost   int
	now    func() time.Time
}

// NewUsers returns an empty identity store. cost is the bcrypt cost, zero
// for the default.
func NewUsers(cost int) *Users {
	return &Users{
		users:  xsync.NewMapOf[string, entity.User](),
		emails: xsync.NewMapOf[string, string](),
		phones: xsync.NewMapOf[string, string](),
		cost:   cost,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Users) CreateUser(_ context.Context, id string, credentials entity.Credentials) (entity.User, error) {
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
		CreatedAt:    s.now(),
	}

	if _, loaded := s.users.LoadOrStore(id, u); loaded {
		return entity.User{}, ports.ErrUserAlreadyExists
	}
	if u.Email != "" {
		if _, loaded := s.emails.LoadOrStore(u.Email, id); loaded {
			s.users.Delete(id)
			return entity.User{}, ports.ErrUserAlreadyExists
		}
	}
	if u.Phone != "" {
		if _, loaded := s.phones.LoadOrStore(u.Phone, id); loaded {
			s.users.Delete(id)
			if u.Email != "" {
				s.emails.Delete(u.Email)
			}
			return entity.User{}, ports.ErrUserAlreadyExists
		}
	}
	return u, nil
}

func (s *Users) GetUser(_ context.Context, id string) (entity.User, error) {
	u, ok := s.users.Load(id)
	if !ok {
		return entity.User{}, ports.ErrUserNotFound
	}
	return u, nil
}

func (s *Users) DeleteUser(_ context.Context, id string) error {
	u, ok := s.users.LoadAndDelete(id)
	if !ok {
		return ports.ErrUserNotFound
	}
	if u.Email != "" {
		s.emails.Delete(u.Email)
	}
	if u.Phone != "" {
		s.phones.Delete(u.Phone)
	}
	return nil
}

func (s *Users) VerifyCredentials(_ context.Context, email, password string) (entity.User, error) {
	id, ok := s.emails.Load(store.NormalizeEmail(email))
	if !ok {
		return entity.User{}, ports.ErrInvalidCredentials
	}
	u, ok := s.users.Load(id)
	if !ok || !store.PasswordMatches(u.PasswordHash, password) {
		return entity.User{}, ports.ErrInvalidCredentials
	}
	return u, nil
}
