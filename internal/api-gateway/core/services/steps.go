package services

import (
	"context"
	"net/http"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/pipeline"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
)

// PrepareClient gives every request a guest client.
func PrepareClient(binder ports.ClientBinder) pipeline.PreStep {
	return pipeline.PreStep{
		Name: "prepare client",
		Run: func(_ context.Context, req *pipeline.Request) error {
			req.Client = binder.Guest()
			return nil
		},
	}
}

// Authorise binds the session cookie when the method requires a signed-in
// user, and checks the account behind it still exists.
func Authorise(binder ports.ClientBinder, cookieName string) pipeline.PreStep {
	return pipeline.PreStep{
		Name: "authorise",
		Run: func(ctx context.Context, req *pipeline.Request) error {
			if !req.Authorise {
				return nil
			}

			var secret string
			if req.HTTP != nil {
				if c, err := req.HTTP.Cookie(cookieName); err == nil {
					secret = c.Value
				}
			}

			client, err := binder.Bind(ctx, secret)
			if err != nil {
				return err
			}
			user, err := client.Account(ctx)
			if err != nil {
				return err
			}

			req.Client = client
			req.Log.Debug("successfully authorised as " + user.ID)
			return nil
		},
	}
}

// SetCookies emits the session cookie after a successful sign in, or
// expires it after a sign out. It does nothing once the request failed.
func SetCookies(opts CookieOptions) pipeline.PostStep {
	return pipeline.PostStep{
		Name: "set cookies",
		Run: func(_ context.Context, req *pipeline.Request, sink pipeline.Sink) error {
			if req.Saga.DidFail() {
				return nil
			}

			switch {
			case req.IssuedSession != nil:
				sink.SetCookie(&http.Cookie{
					Name:     opts.Name,
					Value:    req.IssuedSession.Secret,
					Path:     "/",
					Expires:  req.IssuedSession.Expire,
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: opts.SameSite,
				})
			case req.ClearSession:
				sink.SetCookie(&http.Cookie{
					Name:     opts.Name,
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: opts.SameSite,
				})
			}
			return nil
		},
	}
}
