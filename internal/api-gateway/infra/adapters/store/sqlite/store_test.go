package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.db"), bcrypt.MinCost)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	u, err := s.CreateUser(ctx, "u1", entity.Credentials{Name: "alice", Email: "ALICE@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = s.CreateUser(ctx, "u1", entity.Credentials{Email: "x@example.com", Password: "x"})
	assert.ErrorIs(t, err, ports.ErrUserAlreadyExists)
	_, err = s.CreateUser(ctx, "u2", entity.Credentials{Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, ports.ErrUserAlreadyExists)

	_, err = s.CreateUser(ctx, "u3", entity.Credentials{Name: "no email", Password: "x"})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, "u4", entity.Credentials{Name: "no email either", Password: "x"})
	require.NoError(t, err, "empty emails do not collide")

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.VerifyCredentials(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	_, err = s.VerifyCredentials(ctx, "alice@example.com", "nope")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)
	_, err = s.VerifyCredentials(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)

	require.NoError(t, s.DeleteUser(ctx, "u1"))
	assert.ErrorIs(t, s.DeleteUser(ctx, "u1"), ports.ErrUserNotFound)
	_, err = s.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, ports.ErrUserNotFound)
}

func TestStore_Documents(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	perms := []string{entity.PermissionUpdate(entity.RoleUser("u1")), entity.PermissionDelete(entity.RoleUser("u1"))}

	created, err := s.CreateDocument(ctx, "users_public_data", "u1", entity.UserPublicData{UserID: "u1", Username: "alice", ELO: 1000}, perms)
	require.NoError(t, err)
	assert.Equal(t, perms, created.Permissions)

	_, err = s.CreateDocument(ctx, "users_public_data", "u1", entity.UserPublicData{}, nil)
	assert.ErrorIs(t, err, ports.ErrDocumentExists)

	got, err := s.GetDocument(ctx, "users_public_data", "u1")
	require.NoError(t, err)
	var data entity.UserPublicData
	require.NoError(t, got.Decode(&data))
	assert.Equal(t, 1000, data.ELO)
	assert.Equal(t, perms, got.Permissions)

	updated, err := s.UpdateDocument(ctx, "users_public_data", "u1", entity.UserPublicData{UserID: "u1", Username: "alice", ELO: 1016})
	require.NoError(t, err)
	require.NoError(t, updated.Decode(&data))
	assert.Equal(t, 1016, data.ELO)
	assert.Equal(t, perms, updated.Permissions)

	require.NoError(t, s.DeleteDocument(ctx, "users_public_data", "u1"))
	_, err = s.GetDocument(ctx, "users_public_data", "u1")
	assert.ErrorIs(t, err, ports.ErrDocumentNotFound)
	assert.ErrorIs(t, s.DeleteDocument(ctx, "users_public_data", "u1"), ports.ErrDocumentNotFound)
	_, err = s.UpdateDocument(ctx, "users_public_data", "u1", map[string]any{})
	assert.ErrorIs(t, err, ports.ErrDocumentNotFound)
}

func TestStore_ListDocuments(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	for i := 1; i <= 5; i++ {
		status := entity.StatusWaitingForPlayers
		if i%2 == 0 {
			status = entity.StatusInProgress
		}
		_, err := s.CreateDocument(ctx, "games", fmt.Sprintf("g%d", i), entity.Game{
			CreatorID: fmt.Sprintf("p%d", i),
			XPlayerID: fmt.Sprintf("p%d", i),
			Status:    status,
		}, nil)
		require.NoError(t, err)
	}

	list, err := s.ListDocuments(ctx, "games", entity.Query{
		Equal: []entity.Filter{{Field: "status", Value: string(entity.StatusWaitingForPlayers)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, []string{"g1", "g3", "g5"}, ids(list))

	list, err = s.ListDocuments(ctx, "games", entity.Query{
		AnyOf: []entity.Filter{{Field: "xPlayerId", Value: "p4"}, {Field: "oPlayerId", Value: "p4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"g4"}, ids(list))

	list, err = s.ListDocuments(ctx, "games", entity.Query{
		Equal: []entity.Filter{{Field: "oPlayerId", Value: ""}},
		Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, ids(list))

	list, err = s.ListDocuments(ctx, "games", entity.Query{Limit: 2, CursorAfter: "g2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"g3", "g4"}, ids(list))
	assert.Equal(t, 5, list.Total)

	_, err = s.ListDocuments(ctx, "games", entity.Query{CursorAfter: "missing"})
	assert.ErrorIs(t, err, ports.ErrDocumentNotFound)

	_, err = s.CreateDocument(ctx, "users", "u1", entity.UserPublicData{UserID: "u1", Username: "Alice"}, nil)
	require.NoError(t, err)
	_, err = s.CreateDocument(ctx, "users", "u2", entity.UserPublicData{UserID: "u2", Username: "bob"}, nil)
	require.NoError(t, err)

	list, err = s.ListDocuments(ctx, "users", entity.Query{Search: &entity.Filter{Field: "username", Value: "ALI"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids(list))

	list, err = s.ListDocuments(ctx, "empty", entity.Query{})
	require.NoError(t, err)
	assert.NotNil(t, list.Documents)
	assert.Zero(t, list.Total)
}

func ids(list entity.DocumentList) []string {
	out := make([]string, 0, len(list.Documents))
	for _, d := range list.Documents {
		out = append(out, d.ID)
	}
	return out
}
