package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/pipeline"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/services"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/serviceerror"
)

// Handler maps HTTP routes onto service methods. Decoding and validation run
// inside the method stage so malformed input is answered like any other
// failure.
type Handler struct {
	auth  *services.Authorisation
	users *services.UserManagement
	games *services.GameManagement

	validator *validator.Validate
}

func NewHandler(auth *services.Authorisation, users *services.UserManagement, games *services.GameManagement) *Handler {
	return &Handler{
		auth:      auth,
		users:     users,
		games:     games,
		validator: newValidator(),
	}
}

func run(p *pipeline.Pipeline, method string, authorise bool, w http.ResponseWriter, r *http.Request, fn pipeline.Method) {
	p.Execute(r.Context(), method, authorise, r, fn, newSink(w))
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	run(h.auth.Pipeline(), "SignUp", false, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		var body SignUpRequest
		if err := h.decodeJSON(w, r, &body); err != nil {
			return nil, err
		}
		return h.auth.SignUp(ctx, req, body.credentials())
	})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	run(h.auth.Pipeline(), "SignIn", false, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		var body SignInRequest
		if err := h.decodeJSON(w, r, &body); err != nil {
			return nil, err
		}
		return h.auth.SignIn(ctx, req, entity.Credentials{Email: body.Email, Password: body.Password})
	})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	run(h.auth.Pipeline(), "SignOut", true, w, r, h.auth.SignOut)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	run(h.auth.Pipeline(), "DeleteAccount", true, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		q := DeleteAccountQuery{UserID: r.URL.Query().Get("userId")}
		if err := h.validate(q); err != nil {
			return nil, err
		}
		return h.auth.DeleteAccount(ctx, req, q.UserID)
	})
}

func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	run(h.users.Pipeline(), "GetUsers", true, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		q := GetUsersQuery{Name: r.URL.Query().Get("name")}
		if err := h.validate(q); err != nil {
			return nil, err
		}
		return h.users.GetUsers(ctx, req, q.Name)
	})
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	run(h.games.Pipeline(), "CreateGame", true, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		var body CreateGameRequest
		if err := h.decodeJSON(w, r, &body); err != nil {
			return nil, err
		}
		return h.games.CreateGame(ctx, req, body.settings())
	})
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	run(h.games.Pipeline(), "ListGames", true, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		values := r.URL.Query()
		q := ListGamesQuery{Filter: values.Get("filter"), Cursor: values.Get("cursor")}
		if raw := values.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				return nil, serviceerror.BadRequest("limit must be a number")
			}
			q.Limit = limit
		}
		if err := h.validate(q); err != nil {
			return nil, err
		}
		return h.games.ListGames(ctx, req, entity.GameFilter(q.Filter), q.Limit, q.Cursor)
	})
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")
	run(h.games.Pipeline(), "GetGame", true, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		return h.games.GetGame(ctx, req, gameID)
	})
}

func (h *Handler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")
	run(h.games.Pipeline(), "JoinGame", true, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		return h.games.JoinGame(ctx, req, gameID)
	})
}

func (h *Handler) LeaveGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")
	run(h.games.Pipeline(), "LeaveGame", true, w, r, func(ctx context.Context, req *pipeline.Request) (any, error) {
		return h.games.LeaveGame(ctx, req, gameID)
	})
}
