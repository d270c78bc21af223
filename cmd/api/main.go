package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/news-portal/internal/api/http"
	"github.com/spec-kit/news-portal/internal/api/http/handlers"
	"github.com/spec-kit/news-portal/internal/auth"
	"github.com/spec-kit/news-portal/internal/cache"
	"github.com/spec-kit/news-portal/internal/config"
	"github.com/spec-kit/news-portal/internal/events"
	"github.com/spec-kit/news-portal/internal/observability"
	"github.com/spec-kit/news-portal/internal/persistence"
	"github.com/spec-kit/news-portal/internal/repository"
	"github.com/spec-kit/news-portal/internal/service"
	"github.com/spec-kit/news-portal/internal/storage"
	"github.com/spec-kit/news-portal/internal/worker"
)

const reclaimQueueSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	groupCache := cache.NewGroupCache(redis.Client, cfg.Cache.GroupTTL())
	if err := groupCache.Invalidate(ctx); err != nil {
		logger.Warn("failed to reset group cache", zap.Error(err))
	}

	content, err := storage.New(ctx, cfg.Content)
	if err != nil {
		logger.Fatal("failed to init content store", zap.Error(err), zap.String("backend", cfg.Content.Backend))
	}

	uow := repository.NewUnitOfWork(pg.PoolHandle())
	dispatcher := events.NewInMemoryDispatcher()

	auditService := service.NewAuditService(dispatcher, logger)
	worker.StartAuditWorker(auditService)

	reclaimer := worker.NewContentReclaimer(content, logger, reclaimQueueSize)
	reclaimer.Register(dispatcher)
	reclaimer.Start(ctx)
	defer reclaimer.Stop()

	accountService := service.NewAccountService(service.AccountDependencies{
		UnitOfWork: uow,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	newsService := service.NewNewsService(service.NewsDependencies{
		UnitOfWork: uow,
		Content:    content,
		GroupCache: groupCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		UnitOfWork: uow,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(accountService, tokens)

	if _, err := accountService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
		logger.Fatal("failed to bootstrap administrator", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	checks := map[string]handlers.Pinger{"postgres": pg}
	if redis.Enabled() {
		checks["redis"] = redis
	}
	binder := handlers.NewBinder()

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, checks),
		Auth:           handlers.NewAuthHandler(authService, binder),
		News:           handlers.NewNewsHandler(newsService, binder),
		Comments:       handlers.NewCommentHandler(commentService, binder),
		Accounts:       handlers.NewAccountHandler(accountService, binder),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), accountService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
