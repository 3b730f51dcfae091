package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/httpx/middlewares"
)

// RouterOptions are the optional parts of the router. Nil fields disable
// the matching feature.
type RouterOptions struct {
	Logger      *slog.Logger
	RateLimiter *middlewares.RateLimiter
	Metrics     http.Handler
	// Health reports whether the backing stores are reachable.
	Health func(ctx context.Context) error
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	if opts.Logger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(opts.Logger.Handler(), slog.LevelInfo),
			NoColor: true,
		}))
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz(opts.Health))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}

		r.Post("/auth/sign-up", handler.SignUp)
		r.Post("/auth/sign-in", handler.SignIn)
		r.Post("/auth/sign-out", handler.SignOut)
		r.Delete("/account", handler.DeleteAccount)

		r.Get("/users", handler.GetUsers)

		r.Post("/games", handler.CreateGame)
		r.Get("/games", handler.ListGames)
		r.Get("/games/{gameId}", handler.GetGame)
		r.Post("/games/{gameId}/join", handler.JoinGame)
		r.Post("/games/{gameId}/leave", handler.LeaveGame)
	})
	return r
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	}
}
