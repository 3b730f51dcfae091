// Package services holds the business methods of the game backend. Each
// method runs inside a pipeline.Request and drives the request's saga
// coordinator against the identity, session and document stores.
package services

import (
	"net/http"
	"time"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/pipeline"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
)

// Collections names the document collections the services use.
type Collections struct {
	UsersPublicData string
	Games           string
}

// CookieOptions controls the session cookie emitted after sign in.
type CookieOptions struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

// Deps are the collaborators shared by every service. Users, Sessions and
// Documents have full access; per-caller access goes through Binder.
type Deps struct {
	Users       ports.Users
	Sessions    ports.Sessions
	Documents   ports.Documents
	Binder      ports.ClientBinder
	Collections Collections
	SessionTTL  time.Duration
	Cookie      CookieOptions
}

func (d Deps) withDefaults() Deps {
	if d.Collections.UsersPublicData == "" {
		d.Collections.UsersPublicData = "users_public_data"
	}
	if d.Collections.Games == "" {
		d.Collections.Games = "games"
	}
	if d.SessionTTL == 0 {
		d.SessionTTL = 24 * time.Hour
	}
	if d.Cookie.Name == "" {
		d.Cookie.Name = "session"
	}
	if d.Cookie.SameSite == 0 {
		d.Cookie.SameSite = http.SameSiteStrictMode
	}
	return d
}

// base carries what every service needs: its dependencies and a pipeline
// with the standard pre and post steps.
type base struct {
	deps     Deps
	pipeline *pipeline.Pipeline
}

func newBase(name string, deps Deps, opts ...pipeline.Option) base {
	deps = deps.withDefaults()
	opts = append(opts,
		pipeline.WithPreSteps(PrepareClient(deps.Binder), Authorise(deps.Binder, deps.Cookie.Name)),
		pipeline.WithPostSteps(SetCookies(deps.Cookie), pipeline.SendResponse(), pipeline.Cleanup()),
	)
	return base{deps: deps, pipeline: pipeline.New(name, opts...)}
}

// Pipeline returns the pipeline the service's methods are executed in.
func (b *base) Pipeline() *pipeline.Pipeline { return b.pipeline }
