// Package session stores login sessions in Redis through the shared cache.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/store"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/cache"
)

var _ ports.Sessions = (*RedisSessions)(nil)

const keyOperation = "session"

// record is the cached form of a session. The secret is the key and is not
// repeated in the value.
type record struct {
	ID     string    `json:"id"`
	UserID string    `json:"userId"`
	Expire time.Time `json:"expire"`
}

// RedisSessions keeps each session under its secret with the session TTL,
// so Redis expires it on its own.
type RedisSessions struct {
	cache cache.Cache
	now   func() time.Time
}

func NewRedisSessions(c cache.Cache) *RedisSessions {
	return &RedisSessions{cache: c, now: func() time.Time { return time.Now().UTC() }}
}

func (s *RedisSessions) Create(ctx context.Context, userID string, ttl time.Duration) (entity.Session, error) {
	secret, err := store.NewSecret()
	if err != nil {
		return entity.Session{}, err
	}

	rec := record{ID: uuid.NewString(), UserID: userID, Expire: s.now().Add(ttl)}
	b, err := json.Marshal(rec)
	if err != nil {
		return entity.Session{}, fmt.Errorf("encoding session: %w", err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey(keyOperation, secret), string(b), ttl); err != nil {
		return entity.Session{}, fmt.Errorf("storing session: %w", err)
	}

	return entity.Session{ID: rec.ID, UserID: rec.UserID, Secret: secret, Expire: rec.Expire}, nil
}

func (s *RedisSessions) Get(ctx context.Context, secret string) (entity.Session, error) {
	if secret == "" {
		return entity.Session{}, ports.ErrMissingScope
	}
	value, err := s.cache.Get(ctx, s.cache.GenerateKey(keyOperation, secret))
	if err != nil {
		return entity.Session{}, fmt.Errorf("loading session: %w", err)
	}
	if value == "" {
		return entity.Session{}, ports.ErrMissingScope
	}

	var rec record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return entity.Session{}, fmt.Errorf("decoding session: %w", err)
	}
	session := entity.Session{ID: rec.ID, UserID: rec.UserID, Secret: secret, Expire: rec.Expire}
	if session.Expired(s.now()) {
		return entity.Session{}, ports.ErrMissingScope
	}
	return session, nil
}

func (s *RedisSessions) Delete(ctx context.Context, secret string) error {
	existed, err := s.cache.Delete(ctx, s.cache.GenerateKey(keyOperation, secret))
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if !existed {
		return ports.ErrMissingScope
	}
	return nil
}
