package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/planmeet/internal/api/http"
	"github.com/spec-kit/planmeet/internal/api/http/handlers"
	"github.com/spec-kit/planmeet/internal/auth"
	"github.com/spec-kit/planmeet/internal/config"
	"github.com/spec-kit/planmeet/internal/events"
	"github.com/spec-kit/planmeet/internal/observability"
	"github.com/spec-kit/planmeet/internal/persistence"
	"github.com/spec-kit/planmeet/internal/repository"
	"github.com/spec-kit/planmeet/internal/service"
	"github.com/spec-kit/planmeet/internal/worker"
)

func runChecklist(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, closeStore, err := openChecklistStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	keys, err := auth.NewJWKSKeySource(ctx, cfg.Keycloak.CertsURL(), nil)
	if err != nil {
		return fmt.Errorf("load realm keys: %w", err)
	}
	verifier := auth.NewTokenVerifier(keys.Keyfunc, cfg.Keycloak.IssuerURL())

	metrics := observability.NewMetrics(config.ServiceChecklist)
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification, nil), logger)

	checklists := service.NewChecklistService(service.ChecklistDependencies{
		ChecklistRepo: store,
		Dispatcher:    dispatcher,
		Recorder:      metrics,
		Logger:        logger,
	})

	app := httptransport.NewApp(cfg.App.Name+"-checklist", logger)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
	})
	httptransport.RegisterChecklistRoutes(app, httptransport.ChecklistRoutes{
		Health: handlers.NewHealthHandler(config.ServiceChecklist, cfg.App.Version, "Checklist Service is Running",
			map[string]handlers.ReadinessCheck{cfg.Store.Backend: checklists.Ready}),
		Checklists:     handlers.NewChecklistHandler(checklists),
		Submissions:    handlers.NewSubmissionHandler(checklists),
		AuthMiddleware: auth.NewAuthMiddleware(verifier),
		Policy:         auth.DefaultPolicy(),
		Metrics:        metrics,
	})

	return serve(ctx, app, cfg.App.ChecklistAddr(), logger)
}

// openChecklistStore returns the configured repository and a release func.
func openChecklistStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.ChecklistRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return repository.NewPostgresChecklistRepository(pg.PoolHandle()), pg.Close, nil
	default:
		client, err := persistence.NewDynamoDB(ctx, cfg.DynamoDB, logger)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewDynamoChecklistRepository(client, cfg.DynamoDB.TableName), func() {}, nil
	}
}
