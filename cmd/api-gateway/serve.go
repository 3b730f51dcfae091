package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/pipeline"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/services"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/service"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/httpx"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/httpx/middlewares"
	"github.com/jcmexdev/nested-tictactoe/internal/coordinator"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/config"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/interceptors"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/metrics"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// app is everything serve starts, built from the config.
type app struct {
	backend     *backend
	router      http.Handler
	rateLimiter *middlewares.RateLimiter
}

func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(telemetry.NewLogger(logger)),
		pipeline.WithMetrics(m),
		pipeline.WithSagaOptions(
			coordinator.WithCompensationOrder(coordinator.ParseCompensationOrder(cfg.Saga.CompensationOrder)),
			coordinator.WithIncidentLog(b.incidents),
		),
	}

	deps := services.Deps{
		Users:     b.users,
		Sessions:  b.sessions,
		Documents: b.documents,
		Binder:    service.NewBinder(b.users, b.sessions, b.documents, cfg.Collections.Permissions),
		Collections: services.Collections{
			UsersPublicData: cfg.Collections.UsersPublicData,
			Games:           cfg.Collections.Games,
		},
		SessionTTL: cfg.Sessions.TTL,
		Cookie: services.CookieOptions{
			Name:   cfg.Sessions.CookieName,
			Secure: cfg.Sessions.CookieSecure,
		},
	}

	handler := httpx.NewHandler(
		services.NewAuthorisation(deps, pipelineOpts...),
		services.NewUserManagement(deps, pipelineOpts...),
		services.NewGameManagement(deps, pipelineOpts...),
	)

	a := &app{backend: b}
	opts := httpx.RouterOptions{Logger: logger, Health: b.Health}
	if m != nil {
		opts.Metrics = m.Handler()
	}
	if cfg.RateLimit.Enabled {
		a.rateLimiter = middlewares.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Idle)
		opts.RateLimiter = a.rateLimiter
	}
	a.router = httpx.NewRouter(handler, opts)
	return a, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := telemetry.InitLogger(telemetry.LogOptions{Level: cfg.Log.Level, Format: cfg.Log.Format})

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracingOptions{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Tracing.Environment,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.backend.Close(); err != nil {
			logger.Error("closing stores failed", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryServerInterceptor(),
			interceptors.TraceServerInterceptor(logger),
			interceptors.ServiceErrorInterceptor(),
		),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.GRPC.Addr != "" {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}
			logger.Info("grpc health server listening", "addr", cfg.GRPC.Addr)
			return grpcServer.Serve(lis)
		})
	}

	if a.rateLimiter != nil {
		g.Go(func() error { return a.rateLimiter.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	return g.Wait()
}
