package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/webapp-gateway/internal/api/http"
	"github.com/spec-kit/webapp-gateway/internal/api/http/handlers"
	"github.com/spec-kit/webapp-gateway/internal/auth"
	"github.com/spec-kit/webapp-gateway/internal/config"
	"github.com/spec-kit/webapp-gateway/internal/events"
	"github.com/spec-kit/webapp-gateway/internal/identity"
	"github.com/spec-kit/webapp-gateway/internal/observability"
	"github.com/spec-kit/webapp-gateway/internal/persistence"
	"github.com/spec-kit/webapp-gateway/internal/repository"
	"github.com/spec-kit/webapp-gateway/internal/service"
	"github.com/spec-kit/webapp-gateway/internal/session"
	"github.com/spec-kit/webapp-gateway/internal/source/graphql"
	"github.com/spec-kit/webapp-gateway/internal/source/local"
	"github.com/spec-kit/webapp-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("webapp_gateway")
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger)

	dependencies := map[string]handlers.Pinger{}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	var (
		users        repository.UserRepository
		source       identity.Source
		itemsHandler *handlers.ItemsHandler
	)
	switch cfg.Identity.Source {
	case config.IdentitySourceGraphQL:
		source = graphql.NewSource(cfg.Identity.GraphQLEndpoint, cfg.Identity.FetchTimeout())
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		dependencies["postgres"] = pg
		users = repository.NewUserRepository(pg.PoolHandle())
		itemsHandler = handlers.NewItemsHandler(service.NewItemService(repository.NewItemRepository(pg.PoolHandle())))
		source = local.NewSource(users, tokens)
	}

	var sessions session.Store
	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		logger.Warn("using in-memory session store; sessions do not survive restarts")
		sessions = session.NewMemoryStore()
	default:
		redis, err := persistence.NewRedis(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to configure redis", zap.Error(err))
		}
		defer redis.Close()
		dependencies["redis"] = redis
		sessions = session.NewRedisStore(redis.Client, cfg.Session.KeyPrefix)
	}

	registry, err := identity.NewRegistry(source, cfg.Identity.RegistrySize,
		identity.WithLogger(logger.Named("identity")),
		identity.WithDispatcher(dispatcher),
		identity.WithRecorder(metrics),
		identity.WithFetchTimeout(cfg.Identity.FetchTimeout()),
	)
	if err != nil {
		logger.Fatal("failed to create identity registry", zap.Error(err))
	}
	defer registry.Close()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   users,
		Sessions:   sessions,
		Source:     source,
		Tokens:     tokens,
		Dispatcher: dispatcher,
	})
	cookie := session.CookieOptions{Name: cfg.Session.CookieName, Secure: cfg.Session.SecureCookie}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:     handlers.NewAuthHandler(authService, registry, cookie),
		Session:  handlers.NewSessionHandler(),
		Header:   handlers.NewHeaderHandler(httptransport.HeaderPaths()),
		Home:     handlers.NewHomeHandler(registry, cfg.App.Version),
		Items:    itemsHandler,
		Identity: httptransport.NewIdentityMount(authService, registry, cookie, logger),
		Metrics:  metrics,
		Source:   cfg.Identity.Source,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
