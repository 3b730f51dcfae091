package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := NewUsers(bcrypt.MinCost)

	u, err := s.CreateUser(ctx, "u1", entity.Credentials{Name: "alice", Email: "Alice@Example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEmpty(t, u.PasswordHash)

	_, err = s.CreateUser(ctx, "u1", entity.Credentials{Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ports.ErrUserAlreadyExists)

	_, err = s.CreateUser(ctx, "u2", entity.Credentials{Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, ports.ErrUserAlreadyExists)
	_, err = s.GetUser(ctx, "u2")
	assert.ErrorIs(t, err, ports.ErrUserNotFound, "a rejected user is not kept")

	got, err := s.VerifyCredentials(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = s.VerifyCredentials(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)

	require.NoError(t, s.DeleteUser(ctx, "u1"))
	assert.ErrorIs(t, s.DeleteUser(ctx, "u1"), ports.ErrUserNotFound)

	_, err = s.VerifyCredentials(ctx, "alice@example.com", "secret123")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)

	_, err = s.CreateUser(ctx, "u3", entity.Credentials{Email: "alice@example.com", Password: "x"})
	assert.NoError(t, err, "email is free again after delete")
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := NewSessions()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	session, err := s.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Secret)
	assert.Equal(t, now.Add(time.Hour), session.Expire)

	got, err := s.Get(ctx, session.Secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = s.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ports.ErrMissingScope)

	now = now.Add(2 * time.Hour)
	_, err = s.Get(ctx, session.Secret)
	assert.ErrorIs(t, err, ports.ErrMissingScope)

	other, err := s.Create(ctx, "u2", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, other.Secret))
	assert.ErrorIs(t, s.Delete(ctx, other.Secret), ports.ErrMissingScope)
}

func TestDocuments_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewDocuments()
	perms := []string{entity.PermissionRead(entity.RoleUsers())}

	doc, err := s.CreateDocument(ctx, "games", "g1", map[string]any{"status": "WAITING_FOR_PLAYERS"}, perms)
	require.NoError(t, err)
	assert.Equal(t, "g1", doc.ID)
	assert.Equal(t, perms, doc.Permissions)

	_, err = s.CreateDocument(ctx, "games", "g1", map[string]any{}, nil)
	assert.ErrorIs(t, err, ports.ErrDocumentExists)

	_, err = s.CreateDocument(ctx, "users", "g1", map[string]any{}, nil)
	assert.NoError(t, err, "ids are unique per collection")

	updated, err := s.UpdateDocument(ctx, "games", "g1", map[string]any{"status": "IN_PROGRESS"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"IN_PROGRESS"}`, string(updated.Data))
	assert.Equal(t, perms, updated.Permissions)

	got, err := s.GetDocument(ctx, "games", "g1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"IN_PROGRESS"}`, string(got.Data))

	got.Permissions[0] = "tampered"
	again, _ := s.GetDocument(ctx, "games", "g1")
	assert.Equal(t, perms, again.Permissions, "returned documents are copies")

	require.NoError(t, s.DeleteDocument(ctx, "games", "g1"))
	_, err = s.GetDocument(ctx, "games", "g1")
	assert.ErrorIs(t, err, ports.ErrDocumentNotFound)
	assert.ErrorIs(t, s.DeleteDocument(ctx, "games", "g1"), ports.ErrDocumentNotFound)
	_, err = s.UpdateDocument(ctx, "games", "g1", map[string]any{})
	assert.ErrorIs(t, err, ports.ErrDocumentNotFound)
}

func TestDocuments_List(t *testing.T) {
	ctx := context.Background()
	s := NewDocuments()

	for i := 1; i <= 5; i++ {
		status := "WAITING_FOR_PLAYERS"
		if i%2 == 0 {
			status = "IN_PROGRESS"
		}
		_, err := s.CreateDocument(ctx, "games", fmt.Sprintf("g%d", i), map[string]any{
			"status":    status,
			"xPlayerId": fmt.Sprintf("p%d", i),
			"oPlayerId": "",
		}, nil)
		require.NoError(t, err)
	}

	t.Run("equality", func(t *testing.T) {
		list, err := s.ListDocuments(ctx, "games", entity.Query{
			Equal: []entity.Filter{{Field: "status", Value: "WAITING_FOR_PLAYERS"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, list.Total)
		assert.Equal(t, []string{"g1", "g3", "g5"}, ids(list))
	})

	t.Run("any of", func(t *testing.T) {
		list, err := s.ListDocuments(ctx, "games", entity.Query{
			AnyOf: []entity.Filter{{Field: "xPlayerId", Value: "p2"}, {Field: "oPlayerId", Value: "p2"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"g2"}, ids(list))
	})

	t.Run("limit and cursor", func(t *testing.T) {
		first, err := s.ListDocuments(ctx, "games", entity.Query{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"g1", "g2"}, ids(first))
		assert.Equal(t, 5, first.Total)

		next, err := s.ListDocuments(ctx, "games", entity.Query{Limit: 2, CursorAfter: "g2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"g3", "g4"}, ids(next))

		_, err = s.ListDocuments(ctx, "games", entity.Query{CursorAfter: "missing"})
		assert.ErrorIs(t, err, ports.ErrDocumentNotFound)
	})

	t.Run("search", func(t *testing.T) {
		_, err := s.CreateDocument(ctx, "users", "u1", entity.UserPublicData{UserID: "u1", Username: "Alice"}, nil)
		require.NoError(t, err)
		_, err = s.CreateDocument(ctx, "users", "u2", entity.UserPublicData{UserID: "u2", Username: "bob"}, nil)
		require.NoError(t, err)

		list, err := s.ListDocuments(ctx, "users", entity.Query{Search: &entity.Filter{Field: "username", Value: "ali"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, ids(list))
	})

	t.Run("empty collection", func(t *testing.T) {
		list, err := s.ListDocuments(ctx, "nothing", entity.Query{})
		require.NoError(t, err)
		assert.Empty(t, list.Documents)
		assert.NotNil(t, list.Documents)
	})
}

func ids(list entity.DocumentList) []string {
	out := make([]string, 0, len(list.Documents))
	for _, d := range list.Documents {
		out = append(out, d.ID)
	}
	return out
}
