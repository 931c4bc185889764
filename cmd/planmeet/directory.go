package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/planmeet/internal/api/http"
	"github.com/spec-kit/planmeet/internal/api/http/handlers"
	"github.com/spec-kit/planmeet/internal/auth"
	"github.com/spec-kit/planmeet/internal/config"
	"github.com/spec-kit/planmeet/internal/keycloak"
	"github.com/spec-kit/planmeet/internal/observability"
	"github.com/spec-kit/planmeet/internal/persistence"
	"github.com/spec-kit/planmeet/internal/service"
)

func runDirectory(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpClient := &http.Client{Timeout: cfg.Keycloak.HTTPTimeout()}
	metrics := observability.NewMetrics(config.ServiceDirectory)

	var tokenCache keycloak.TokenCache
	readiness := map[string]handlers.ReadinessCheck{}
	if cfg.Keycloak.CacheAdminToken {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		tokenCache = keycloak.NewRedisTokenCache(redis.Client, logger)
		readiness["redis"] = redis.Ping
	}

	gateway := keycloak.NewGateway(cfg.Keycloak, httpClient, tokenCache)
	admin := keycloak.NewAdminClient(cfg.Keycloak, gateway, httpClient)

	keys, err := auth.NewJWKSKeySource(ctx, cfg.Keycloak.CertsURL(), httpClient)
	if err != nil {
		return fmt.Errorf("load realm keys: %w", err)
	}
	verifier := auth.NewTokenVerifier(keys.Keyfunc, cfg.Keycloak.IssuerURL())

	app := httptransport.NewApp(cfg.App.Name+"-directory", logger)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
	})
	httptransport.RegisterDirectoryRoutes(app, httptransport.DirectoryRoutes{
		Health:         handlers.NewHealthHandler(config.ServiceDirectory, cfg.App.Version, "Authentication Service is Running", readiness),
		Session:        handlers.NewSessionHandler(service.NewAuthService(gateway, logger)),
		Directory:      handlers.NewDirectoryHandler(service.NewDirectoryService(admin, logger)),
		AuthMiddleware: auth.NewAuthMiddleware(verifier),
		Policy:         auth.DefaultPolicy(),
		Metrics:        metrics,
		LoginLimiter:   httptransport.RateLimit(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst),
	})

	return serve(ctx, app, cfg.App.DirectoryAddr(), logger)
}
