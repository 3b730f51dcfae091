package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/game"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/pipeline"
	"github.com/jcmexdev/nested-tictactoe/internal/coordinator"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/serviceerror"
)

// GameManagement creates, lists, joins and quits games. Games are read
// through the caller's client so hidden games stay hidden, and written with
// full access because only the creator holds update permission on a
// public game.
type GameManagement struct {
	base
}

func NewGameManagement(deps Deps, opts ...pipeline.Option) *GameManagement {
	return &GameManagement{base: newBase("GameManagementService", deps, opts...)}
}

func (s *GameManagement) getUser(ctx context.Context, req *pipeline.Request) (bool, entity.User) {
	return coordinator.Run(ctx, req.Saga, coordinator.Read("getting user", func(ctx context.Context) (entity.User, error) {
		return req.Client.Account(ctx)
	}))
}

func decodeGame(doc entity.Document) (entity.Game, error) {
	var g entity.Game
	if err := doc.Decode(&g); err != nil {
		return entity.Game{}, err
	}
	g.ID = doc.ID
	return g, nil
}

func gamePermissions(g entity.Game) []string {
	if !g.IsPrivate {
		return []string{
			entity.PermissionRead(entity.RoleUsers()),
			entity.PermissionUpdate(entity.RoleUser(g.CreatorID)),
		}
	}
	return []string{
		entity.PermissionRead(entity.RoleUser(g.CreatorID)),
		entity.PermissionRead(entity.RoleUser(g.OpponentID)),
		entity.PermissionUpdate(entity.RoleUser(g.CreatorID)),
		entity.PermissionUpdate(entity.RoleUser(g.OpponentID)),
	}
}

// CreateGame stores a new game created by the caller. A private game needs
// an existing opponent other than the caller.
func (s *GameManagement) CreateGame(ctx context.Context, req *pipeline.Request, settings entity.GameSettings) (any, error) {
	ok, user := s.getUser(ctx, req)
	if !ok {
		return nil, nil
	}

	if settings.IsPrivate && settings.OpponentID == "" {
		return nil, serviceerror.BadRequest("A private game needs an opponent")
	}
	if settings.OpponentID == user.ID {
		return nil, serviceerror.BadRequest("Cannot play against yourself")
	}
	if settings.OpponentID != "" {
		ok, _ := coordinator.Run(ctx, req.Saga, coordinator.Read("getting opponent", func(ctx context.Context) (entity.User, error) {
			return s.deps.Users.GetUser(ctx, settings.OpponentID)
		}))
		if !ok {
			return nil, nil
		}
	}

	g := game.Create(user.ID, settings)
	id := uuid.NewString()

	ok, created := coordinator.Run(ctx, req.Saga, coordinator.Operation[entity.Game, string]{
		Label: "creating game",
		Runner: func(ctx context.Context) (entity.Game, string, error) {
			doc, err := s.deps.Documents.CreateDocument(ctx, s.deps.Collections.Games, id, g, gamePermissions(g))
			if err != nil {
				return entity.Game{}, "", err
			}
			created, err := decodeGame(doc)
			return created, doc.ID, err
		},
		Compensation: func(ctx context.Context, id string) error {
			return s.deps.Documents.DeleteDocument(ctx, s.deps.Collections.Games, id)
		},
	})
	if !ok {
		return nil, nil
	}
	return created, nil
}

// ListGames pages through the games visible to the caller. The returned
// cursor is the id of the last game, empty when the page is empty.
func (s *GameManagement) ListGames(ctx context.Context, req *pipeline.Request, filter entity.GameFilter, limit int, cursor string) (any, error) {
	ok, user := s.getUser(ctx, req)
	if !ok {
		return nil, nil
	}

	query := entity.Query{Limit: limit, CursorAfter: cursor}
	switch filter {
	case entity.GameFilterMine:
		query.AnyOf = []entity.Filter{
			{Field: "oPlayerId", Value: user.ID},
			{Field: "xPlayerId", Value: user.ID},
		}
	case entity.GameFilterOpen, "":
		query.Equal = []entity.Filter{{Field: "status", Value: string(entity.StatusWaitingForPlayers)}}
	default:
		return nil, serviceerror.BadRequest("Unknown game filter " + string(filter))
	}

	documents := req.Client.Documents()
	ok, list := coordinator.Run(ctx, req.Saga, coordinator.Read("listing games", func(ctx context.Context) (entity.GameList, error) {
		docs, err := documents.ListDocuments(ctx, s.deps.Collections.Games, query)
		if err != nil {
			return entity.GameList{}, err
		}

		list := entity.GameList{Games: make([]entity.Game, 0, len(docs.Documents))}
		for _, doc := range docs.Documents {
			g, err := decodeGame(doc)
			if err != nil {
				return entity.GameList{}, err
			}
			list.Games = append(list.Games, g)
		}
		if n := len(list.Games); n > 0 {
			list.QueryCursor = list.Games[n-1].ID
		}
		return list, nil
	}))
	if !ok {
		return nil, nil
	}
	return list, nil
}

func (s *GameManagement) getGame(ctx context.Context, req *pipeline.Request, gameID string) (bool, entity.Game) {
	documents := req.Client.Documents()
	return coordinator.Run(ctx, req.Saga, coordinator.Read("getting game", func(ctx context.Context) (entity.Game, error) {
		doc, err := documents.GetDocument(ctx, s.deps.Collections.Games, gameID)
		if err != nil {
			return entity.Game{}, err
		}
		return decodeGame(doc)
	}))
}

func (s *GameManagement) GetGame(ctx context.Context, req *pipeline.Request, gameID string) (any, error) {
	ok, g := s.getGame(ctx, req, gameID)
	if !ok {
		return nil, nil
	}
	return g, nil
}

// JoinGame seats the caller in an open game.
func (s *GameManagement) JoinGame(ctx context.Context, req *pipeline.Request, gameID string) (any, error) {
	return s.transitionGame(ctx, req, gameID, "joining game", game.PlayerJoins)
}

// LeaveGame quits the game and hands the win to the other player.
func (s *GameManagement) LeaveGame(ctx context.Context, req *pipeline.Request, gameID string) (any, error) {
	return s.transitionGame(ctx, req, gameID, "quitting game", game.PlayerQuits)
}

// transitionGame applies a lobby rule to a stored game. If a later operation
// fails the previous game state is written back.
func (s *GameManagement) transitionGame(
	ctx context.Context,
	req *pipeline.Request,
	gameID, label string,
	rule func(playerID string, g entity.Game) (entity.Game, error),
) (any, error) {
	ok, user := s.getUser(ctx, req)
	if !ok {
		return nil, nil
	}
	ok, current := s.getGame(ctx, req, gameID)
	if !ok {
		return nil, nil
	}

	ok, next := coordinator.Run(ctx, req.Saga, coordinator.Operation[entity.Game, entity.Game]{
		Label: label,
		Runner: func(ctx context.Context) (entity.Game, entity.Game, error) {
			next, err := rule(user.ID, current)
			if err != nil {
				return entity.Game{}, current, err
			}
			if _, err := s.deps.Documents.UpdateDocument(ctx, s.deps.Collections.Games, gameID, withoutID(next)); err != nil {
				return entity.Game{}, current, err
			}
			return next, current, nil
		},
		Compensation: func(ctx context.Context, previous entity.Game) error {
			_, err := s.deps.Documents.UpdateDocument(ctx, s.deps.Collections.Games, gameID, withoutID(previous))
			return err
		},
	})
	if !ok {
		return nil, nil
	}
	return next, nil
}

// withoutID drops the id from stored data; it lives on the document.
func withoutID(g entity.Game) entity.Game {
	g.ID = ""
	return g
}
