// Package service binds inbound requests to store clients scoped to the
// caller's session.
package service

import (
	"context"
	"errors"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
)

// Ensure the binder and its clients implement the ports at compile time.
var (
	_ ports.ClientBinder = (*Binder)(nil)
	_ ports.Client       = (*client)(nil)
	_ ports.Documents    = (*scopedDocuments)(nil)
)

// Binder resolves session secrets against the session store and hands out
// clients whose document access is checked against document permissions and
// the per-collection permissions in collections.
type Binder struct {
	users       ports.Users
	sessions    ports.Sessions
	documents   ports.Documents
	collections map[string][]string
}

func NewBinder(users ports.Users, sessions ports.Sessions, documents ports.Documents, collections map[string][]string) *Binder {
	return &Binder{
		users:       users,
		sessions:    sessions,
		documents:   documents,
		collections: collections,
	}
}

func (b *Binder) Guest() ports.Client {
	return &client{binder: b}
}

func (b *Binder) Bind(ctx context.Context, secret string) (ports.Client, error) {
	if secret == "" {
		return nil, ports.ErrMissingScope
	}
	session, err := b.sessions.Get(ctx, secret)
	if err != nil {
		return nil, err
	}
	return &client{binder: b, session: &session}, nil
}

type client struct {
	binder  *Binder
	session *entity.Session
}

func (c *client) userID() string {
	if c.session == nil {
		return ""
	}
	return c.session.UserID
}

func (c *client) Account(ctx context.Context) (entity.User, error) {
	if c.session == nil {
		return entity.User{}, ports.ErrMissingScope
	}
	u, err := c.binder.users.GetUser(ctx, c.session.UserID)
	if errors.Is(err, ports.ErrUserNotFound) {
		// the session outlived its account
		return entity.User{}, ports.ErrMissingScope
	}
	return u, err
}

func (c *client) Session() (entity.Session, bool) {
	if c.session == nil {
		return entity.Session{}, false
	}
	return *c.session, true
}

func (c *client) Documents() ports.Documents {
	return &scopedDocuments{
		inner:       c.binder.documents,
		userID:      c.userID(),
		collections: c.binder.collections,
	}
}
