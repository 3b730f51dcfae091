package ports

import (
	"context"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
)

// Client is a store handle scoped to one caller, either a guest or the
// owner of a session.
type Client interface {
	// Account returns the signed-in user. Guests fail with a missing scope error.
	Account(ctx context.Context) (entity.User, error)
	// Session returns the bound session, false for guests.
	Session() (entity.Session, bool)
	// Documents enforces document and collection permissions for the caller.
	// Denied writes fail with "The current user is not authorized to perform
	// the requested action.".
	Documents() Documents
}

// ClientBinder produces scoped clients for inbound requests.
type ClientBinder interface {
	Guest() Client
	// Bind resolves a session secret. Unknown or expired secrets fail with
	// the same missing scope error as Client.Account on a guest.
	Bind(ctx context.Context, secret string) (Client, error)
}
