package services

import (
	"context"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/pipeline"
	"github.com/jcmexdev/nested-tictactoe/internal/coordinator"
)

type UserManagement struct {
	base
}

func NewUserManagement(deps Deps, opts ...pipeline.Option) *UserManagement {
	return &UserManagement{base: newBase("UserManagementService", deps, opts...)}
}

// GetUsers searches public profiles by username. No match is an empty
// list, not an error.
func (s *UserManagement) GetUsers(ctx context.Context, req *pipeline.Request, username string) (any, error) {
	documents := req.Client.Documents()

	ok, users := coordinator.Run(ctx, req.Saga, coordinator.Read("retrieving user data", func(ctx context.Context) ([]entity.UserPublicData, error) {
		list, err := documents.ListDocuments(ctx, s.deps.Collections.UsersPublicData, entity.Query{
			Search: &entity.Filter{Field: "username", Value: username},
		})
		if err != nil {
			return nil, err
		}
		users := make([]entity.UserPublicData, 0, len(list.Documents))
		for _, doc := range list.Documents {
			var u entity.UserPublicData
			if err := doc.Decode(&u); err != nil {
				return nil, err
			}
			users = append(users, u)
		}
		return users, nil
	}))
	if !ok {
		return nil, nil
	}
	return users, nil
}
