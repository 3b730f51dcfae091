package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/store"
)

var _ ports.Sessions = (*Sessions)(nil)

// Sessions keeps sessions keyed by secret. Expired sessions are dropped
// when they are looked up.
type Sessions struct {
	sessions *xsync.MapOf[string, entity.Session]
	now      func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: xsync.NewMapOf[string, entity.Session](),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Sessions) Create(_ context.Context, userID string, ttl time.Duration) (entity.Session, error) {
	secret, err := store.NewSecret()
	if err != nil {
		return entity.Session{}, err
	}
	session := entity.Session{
		ID:     uuid.NewString(),
		UserID: userID,
		Secret: secret,
		Expire: s.now().Add(ttl),
	}
	s.sessions.Store(secret, session)
	return session, nil
}

func (s *Sessions) Get(_ context.Context, secret string) (entity.Session, error) {
	session, ok := s.sessions.Load(secret)
	if !ok {
		return entity.Session{}, ports.ErrMissingScope
	}
	if session.Expired(s.now()) {
		s.sessions.Delete(secret)
		return entity.Session{}, ports.ErrMissingScope
	}
	return session, nil
}

func (s *Sessions) Delete(_ context.Context, secret string) error {
	if _, ok := s.sessions.LoadAndDelete(secret); !ok {
		return ports.ErrMissingScope
	}
	return nil
}
