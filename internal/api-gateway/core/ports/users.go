package ports

import (
	"context"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
)

// Users is the identity store. Implementations fail with the identity
// provider's phrasings so serviceerror.Classify recognises them:
//
//	User with the requested ID could not be found.
//	A user with the same id, email, or phone already exists in this project.
//	Invalid credentials. Please check the email and password.
type Users interface {
	CreateUser(ctx context.Context, id string, credentials entity.Credentials) (entity.User, error)
	GetUser(ctx context.Context, id string) (entity.User, error)
	DeleteUser(ctx context.Context, id string) error
	VerifyCredentials(ctx context.Context, email, password string) (entity.User, error)
}
