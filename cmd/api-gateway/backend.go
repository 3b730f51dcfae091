package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/session"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/store/memory"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/store/sqlite"
	"github.com/jcmexdev/nested-tictactoe/internal/coordinator/sagalog"
	sagasqlite "github.com/jcmexdev/nested-tictactoe/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/cache"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/config"
)

// backend holds the stores selected by the config.
type backend struct {
	users     ports.Users
	documents ports.Documents
	sessions  ports.Sessions
	incidents sagalog.Repository

	checks  []func(ctx context.Context) error
	closers []io.Closer
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}

	switch cfg.Store.Driver {
	case "sqlite":
		store, err := sqlite.Open(cfg.Store.Path, cfg.Store.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		b.users, b.documents = store, store
		b.checks = append(b.checks, store.Ping)
		b.closers = append(b.closers, store)
	default:
		b.users = memory.NewUsers(cfg.Store.BcryptCost)
		b.documents = memory.NewDocuments()
	}

	switch cfg.Sessions.Driver {
	case "redis":
		if err := cache.Ping(ctx, cfg.Sessions.RedisAddr); err != nil {
			b.Close()
			return nil, err
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Sessions.RedisAddr})
		b.sessions = session.NewRedisSessions(cache.NewRedisCacheFromClient(client, "api-gateway"))
		b.checks = append(b.checks, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		b.closers = append(b.closers, client)
	default:
		b.sessions = memory.NewSessions()
	}

	if cfg.Saga.IncidentLog != "" {
		repo, err := sagasqlite.Open(cfg.Saga.IncidentLog)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("opening incident log: %w", err)
		}
		b.incidents = repo
		b.closers = append(b.closers, repo)
	} else {
		b.incidents = sagalog.NewMemoryRepository()
	}

	return b, nil
}

// Health runs every store check.
func (b *backend) Health(ctx context.Context) error {
	var errs []error
	for _, check := range b.checks {
		errs = append(errs, check(ctx))
	}
	return errors.Join(errs...)
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i].Close())
	}
	return errors.Join(errs...)
}
