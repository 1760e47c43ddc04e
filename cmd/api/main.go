package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/signalement-service/internal/api/http"
	"github.com/spec-kit/signalement-service/internal/api/http/handlers"
	"github.com/spec-kit/signalement-service/internal/auth"
	"github.com/spec-kit/signalement-service/internal/config"
	"github.com/spec-kit/signalement-service/internal/events"
	"github.com/spec-kit/signalement-service/internal/mirror"
	"github.com/spec-kit/signalement-service/internal/observability"
	"github.com/spec-kit/signalement-service/internal/persistence"
	"github.com/spec-kit/signalement-service/internal/repository"
	"github.com/spec-kit/signalement-service/internal/service"
	"github.com/spec-kit/signalement-service/internal/worker"
)

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	statusRepo := repository.NewStatusRepository(pool)
	validationStatusRepo := repository.NewValidationStatusRepository(pool)
	typeUserRepo := repository.NewTypeUserRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	signalementRepo := repository.NewSignalementRepository(pool)
	statusEntryRepo := repository.NewStatusEntryRepository(pool)
	photoRepo := repository.NewPhotoRepository(pool)
	validationRepo := repository.NewValidationRepository(pool)
	validationHistoryRepo := repository.NewValidationHistoryRepository(pool)
	entrepriseRepo := repository.NewEntrepriseRepository(pool)

	if err := persistence.SeedDefaults(ctx, statusRepo, validationStatusRepo, typeUserRepo, logger); err != nil {
		logger.Fatal("failed to seed defaults", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	mirrorStore := mirror.NewRedisStore(redis.Client, cfg.Mirror.Namespace)

	validationService := service.NewValidationService(service.ValidationDependencies{
		ValidationRepo:       validationRepo,
		HistoryRepo:          validationHistoryRepo,
		ValidationStatusRepo: validationStatusRepo,
		SignalementRepo:      signalementRepo,
		UserRepo:             userRepo,
		Dispatcher:           dispatcher,
	})
	signalementService := service.NewSignalementService(service.SignalementDependencies{
		SignalementRepo: signalementRepo,
		StatusRepo:      statusRepo,
		StatusEntryRepo: statusEntryRepo,
		PhotoRepo:       photoRepo,
		UserRepo:        userRepo,
		EntrepriseRepo:  entrepriseRepo,
		Validations:     validationService,
		Dispatcher:      dispatcher,
	})
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:     userRepo,
		TypeUserRepo: typeUserRepo,
	})
	syncService := service.NewSyncService(cfg, service.SyncDependencies{
		SignalementRepo: signalementRepo,
		StatusRepo:      statusRepo,
		UserRepo:        userRepo,
		TypeUserRepo:    typeUserRepo,
		Validations:     validationService,
		Store:           mirrorStore,
	}, logger)
	statisticsService := service.NewStatisticsService(signalementRepo, statusRepo, statusEntryRepo, logger)
	catalogService := service.NewCatalogService(statusRepo, validationStatusRepo, typeUserRepo, entrepriseRepo)
	notificationService := service.NewNotificationService(dispatcher, signalementRepo, mirrorStore, cfg, logger)

	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Signalements:   handlers.NewSignalementsHandler(signalementService, validationService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Statistics:     handlers.NewStatisticsHandler(statisticsService),
		Admin:          handlers.NewAdminHandler(authService, syncService),
		AuthMiddleware: authMiddleware,
		AdminAPIKey:    cfg.Security.AdminAPIKey,
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
