package ports

import (
	"context"
	"time"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
)

// Sessions issues and resolves login sessions. Get fails with
// "User (role: guests) missing scope (account)" when the secret is unknown
// or expired.
type Sessions interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (entity.Session, error)
	Get(ctx context.Context, secret string) (entity.Session, error)
	Delete(ctx context.Context, secret string) error
}
