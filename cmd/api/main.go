package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dispatch-service/internal/api/http"
	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/geo"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/persistence"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	"github.com/spec-kit/dispatch-service/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	httpClient := &http.Client{Timeout: cfg.Geo.HTTPTimeout()}
	geocoder := geo.NewGeocoder(
		geo.WithHTTPClient(httpClient),
		geo.WithBaseURL(cfg.Geo.NominatimURL),
		geo.WithUserAgent(cfg.Geo.UserAgent),
		geo.WithRequestDelay(cfg.Geo.RequestDelay()),
		geo.WithCache(geo.NewRedisCache(redis.Handle(), "geo:"), cfg.Geo.PostalCacheTTL()),
		geo.WithLogger(logger),
	)
	postal := geo.NewPostalLookup(
		geo.WithHTTPClient(httpClient),
		geo.WithBaseURL(cfg.Geo.PostalURL),
		geo.WithUserAgent(cfg.Geo.UserAgent),
		geo.WithCache(geo.NewRedisCache(redis.Handle(), "postal:"), cfg.Geo.PostalCacheTTL()),
		geo.WithLogger(logger),
	)

	pool := pg.PoolHandle()
	operatorRepo := repository.NewOperatorRepository(pool)
	clientRepo := repository.NewClientRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	photoRepo := repository.NewPhotoRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := worker.NewNotificationWorker(service.NewNotificationService(logger), logger, 0)
	notifications.Subscribe(dispatcher)
	notifications.Start()

	loc := cfg.Report.Location()
	authService := service.NewAuthService(cfg.Auth, operatorRepo)
	operatorService := service.NewOperatorService(operatorRepo, cfg.Auth.BcryptCost)
	clientService := service.NewClientService(service.ClientDependencies{
		ClientRepo:  clientRepo,
		VehicleRepo: vehicleRepo,
		PlanRepo:    planRepo,
		Geocoder:    geocoder,
		Postal:      postal,
		Logger:      logger,
	})
	planService := service.NewPlanService(planRepo)
	agentService := service.NewAgentService(agentRepo, ticketRepo, geocoder, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		AgentRepo:   agentRepo,
		PhotoRepo:   photoRepo,
		HistoryRepo: historyRepo,
		Geocoder:    geocoder,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		TicketRepo:  ticketRepo,
		PaymentRepo: paymentRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	reportDeps := service.ReportDependencies{
		TicketRepo:  ticketRepo,
		ClientRepo:  clientRepo,
		AgentRepo:   agentRepo,
		VehicleRepo: vehicleRepo,
		Location:    loc,
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), operatorRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Operators:      handlers.NewOperatorsHandler(operatorService),
		Clients:        handlers.NewClientsHandler(clientService),
		Plans:          handlers.NewPlansHandler(planService),
		Agents:         handlers.NewAgentsHandler(agentService),
		Tickets:        handlers.NewTicketsHandler(ticketService, loc),
		Ledger:         handlers.NewLedgerHandler(ledgerService, loc),
		Reports:        handlers.NewReportsHandler(service.NewDashboardService(reportDeps), service.NewPerformanceService(reportDeps)),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := notifications.Stop(stopCtx); err != nil {
		logger.Warn("notification worker did not drain", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
