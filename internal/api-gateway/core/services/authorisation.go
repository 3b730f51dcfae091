package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/pipeline"
	"github.com/jcmexdev/nested-tictactoe/internal/coordinator"
)

// Authorisation signs users up, in and out, and deletes accounts.
type Authorisation struct {
	base
}

func NewAuthorisation(deps Deps, opts ...pipeline.Option) *Authorisation {
	return &Authorisation{base: newBase("AuthorisationService", deps, opts...)}
}

// SignUp creates the account and its public profile. A failed profile
// write deletes the account again.
func (s *Authorisation) SignUp(ctx context.Context, req *pipeline.Request, credentials entity.Credentials) (any, error) {
	userID := uuid.NewString()

	ok, user := coordinator.Run(ctx, req.Saga, coordinator.Operation[entity.User, string]{
		Label: "creating user",
		Runner: func(ctx context.Context) (entity.User, string, error) {
			u, err := s.deps.Users.CreateUser(ctx, userID, credentials)
			return u, u.ID, err
		},
		Compensation: func(ctx context.Context, id string) error {
			return s.deps.Users.DeleteUser(ctx, id)
		},
	})
	if !ok {
		return nil, nil
	}

	coordinator.Run(ctx, req.Saga, coordinator.Operation[entity.Document, coordinator.NoCompensation]{
		Label: "saving user data",
		Runner: func(ctx context.Context) (entity.Document, coordinator.NoCompensation, error) {
			doc, err := s.deps.Documents.CreateDocument(ctx, s.deps.Collections.UsersPublicData, user.ID,
				entity.UserPublicData{UserID: user.ID, Username: credentials.Name, ELO: entity.DefaultELO},
				[]string{
					entity.PermissionUpdate(entity.RoleUser(user.ID)),
					entity.PermissionDelete(entity.RoleUser(user.ID)),
				},
			)
			return doc, coordinator.NoCompensation{}, err
		},
	})
	return nil, nil
}

// SignIn verifies the credentials and opens a session. The session cookie
// is emitted by the SetCookies post-step.
func (s *Authorisation) SignIn(ctx context.Context, req *pipeline.Request, credentials entity.Credentials) (any, error) {
	ok, user := coordinator.Run(ctx, req.Saga, coordinator.Read("verifying credentials", func(ctx context.Context) (entity.User, error) {
		return s.deps.Users.VerifyCredentials(ctx, credentials.Email, credentials.Password)
	}))
	if !ok {
		return nil, nil
	}

	ok, session := coordinator.Run(ctx, req.Saga, coordinator.Operation[entity.Session, string]{
		Label: "signing in",
		Runner: func(ctx context.Context) (entity.Session, string, error) {
			session, err := s.deps.Sessions.Create(ctx, user.ID, s.deps.SessionTTL)
			return session, session.Secret, err
		},
		Compensation: func(ctx context.Context, secret string) error {
			return s.deps.Sessions.Delete(ctx, secret)
		},
	})
	if !ok {
		return nil, nil
	}

	req.IssuedSession = &session
	return nil, nil
}

// SignOut deletes the caller's session and clears the cookie.
func (s *Authorisation) SignOut(ctx context.Context, req *pipeline.Request) (any, error) {
	session, _ := req.Client.Session()

	ok, _ := coordinator.Run(ctx, req.Saga, coordinator.Operation[struct{}, coordinator.NoCompensation]{
		Label: "deleting session",
		Runner: func(ctx context.Context) (struct{}, coordinator.NoCompensation, error) {
			return struct{}{}, coordinator.NoCompensation{}, s.deps.Sessions.Delete(ctx, session.Secret)
		},
	})
	if ok {
		req.ClearSession = true
	}
	return nil, nil
}

// DeleteAccount removes the public profile and then the account. The
// profile is deleted through the caller's client, so only its owner can
// delete it; if deleting the account fails the profile is restored with its
// original permissions.
func (s *Authorisation) DeleteAccount(ctx context.Context, req *pipeline.Request, userID string) (any, error) {
	collection := s.deps.Collections.UsersPublicData
	documents := req.Client.Documents()

	ok, _ := coordinator.Run(ctx, req.Saga, coordinator.Read("getting user", func(ctx context.Context) (entity.User, error) {
		return s.deps.Users.GetUser(ctx, userID)
	}))
	if !ok {
		return nil, nil
	}

	ok, _ = coordinator.Run(ctx, req.Saga, coordinator.Operation[struct{}, entity.Document]{
		Label: "deleting user data",
		Runner: func(ctx context.Context) (struct{}, entity.Document, error) {
			doc, err := documents.GetDocument(ctx, collection, userID)
			if err != nil {
				return struct{}{}, entity.Document{}, err
			}
			return struct{}{}, doc, documents.DeleteDocument(ctx, collection, userID)
		},
		Compensation: func(ctx context.Context, doc entity.Document) error {
			_, err := s.deps.Documents.CreateDocument(ctx, collection, doc.ID, doc.Data, doc.Permissions)
			return err
		},
	})
	if !ok {
		return nil, nil
	}

	ok, _ = coordinator.Run(ctx, req.Saga, coordinator.Operation[struct{}, coordinator.NoCompensation]{
		Label: "deleting user",
		Runner: func(ctx context.Context) (struct{}, coordinator.NoCompensation, error) {
			return struct{}{}, coordinator.NoCompensation{}, s.deps.Users.DeleteUser(ctx, userID)
		},
	})
	if ok {
		if session, bound := req.Client.Session(); bound && session.UserID == userID {
			req.ClearSession = true
		}
	}
	return nil, nil
}
