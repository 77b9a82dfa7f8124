package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/civicdesk/municipal-booking/internal/admission"
	httptransport "github.com/civicdesk/municipal-booking/internal/api/http"
	"github.com/civicdesk/municipal-booking/internal/api/http/handlers"
	"github.com/civicdesk/municipal-booking/internal/auth"
	"github.com/civicdesk/municipal-booking/internal/config"
	"github.com/civicdesk/municipal-booking/internal/events"
	"github.com/civicdesk/municipal-booking/internal/geo"
	"github.com/civicdesk/municipal-booking/internal/locks"
	"github.com/civicdesk/municipal-booking/internal/observability"
	"github.com/civicdesk/municipal-booking/internal/persistence"
	"github.com/civicdesk/municipal-booking/internal/repository"
	"github.com/civicdesk/municipal-booking/internal/service"
	"github.com/civicdesk/municipal-booking/internal/worker"
	"github.com/civicdesk/municipal-booking/migrations"
)

type repositories struct {
	bookings  repository.BookingRepository
	history   repository.BookingHistoryRepository
	employees repository.EmployeeRepository
	tasks     repository.TaskRepository
	tx        repository.TxManager
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var gate admission.Gate
	switch cfg.Admission.Backend {
	case config.AdmissionBackendRedis:
		gate = admission.NewRedisGate(redis.Client, cfg.Admission.MaxPerDay, cfg.Admission.KeyTTL(), repos.bookings.CountActive)
	default:
		gate = admission.NewMemoryGate(cfg.Admission.MaxPerDay, repos.bookings.CountActive)
	}
	logger.Info("admission gate ready",
		zap.String("backend", cfg.Admission.Backend),
		zap.Int("max_per_day", cfg.Admission.MaxPerDay))

	var directory geo.Directory
	if cfg.Geo.DirectoryURL != "" {
		directory = geo.NewHTTPDirectory(cfg.Geo.DirectoryURL, cfg.Geo.TTL())
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	bookingService := service.NewBookingService(service.BookingDependencies{
		BookingRepo: repos.bookings,
		HistoryRepo: repos.history,
		TxManager:   repos.tx,
		Locks:       locks.NewKeyedMutex(),
		Tokens:      service.RandomTokenGenerator{},
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:     repos.tasks,
		EmployeeRepo: repos.employees,
		Bookings:     bookingService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	facade := service.NewOrchestrator(service.OrchestratorDependencies{
		Gate:      gate,
		Bookings:  bookingService,
		Tasks:     taskService,
		Employees: service.NewEmployeeService(repos.employees),
		Directory: directory,
		Metrics:   metrics,
		Logger:    logger,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, tokenManager, logger)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, cfg.Auth.Enabled)

	app := httptransport.NewApp(cfg.App)
	httptransport.RegisterMiddlewares(app, logger, metrics, observability.NewClientLimiter(cfg.RateLimit), cfg.App.RequestTimeout())

	var metricsHandler fiber.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Bookings:       handlers.NewBookingsHandler(facade),
		Employees:      handlers.NewEmployeesHandler(facade),
		Tasks:          handlers.NewTasksHandler(facade),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
		Metrics:        metricsHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// buildRepositories picks Postgres when a pool is open, process memory otherwise.
func buildRepositories(pg *persistence.Postgres) repositories {
	if pg.Configured() {
		pool := pg.PoolHandle()
		return repositories{
			bookings:  repository.NewBookingRepository(pool),
			history:   repository.NewBookingHistoryRepository(pool),
			employees: repository.NewEmployeeRepository(pool),
			tasks:     repository.NewTaskRepository(pool),
			tx:        repository.NewTxManager(pool),
		}
	}
	return repositories{
		bookings:  repository.NewMemoryBookingRepository(),
		history:   repository.NewMemoryBookingHistoryRepository(),
		employees: repository.NewMemoryEmployeeRepository(),
		tasks:     repository.NewMemoryTaskRepository(),
		tx:        repository.NewMemoryTxManager(),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
