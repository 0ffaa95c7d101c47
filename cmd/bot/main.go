package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/app"
	"github.com/Freeeeeet/clinic_scheduler/internal/config"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller"
	"github.com/Freeeeeet/clinic_scheduler/internal/gateway/httpapi"
	"github.com/Freeeeeet/clinic_scheduler/internal/metrics"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting clinic scheduler bot",
		zap.String("environment", cfg.Environment),
		zap.String("gateway", cfg.GatewayMode),
		zap.String("timezone", cfg.Location.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	_ = migrator.Close()

	gateway, err := newGateway(cfg, pool, logger)
	if err != nil {
		return err
	}

	policy, err := service.ParseConflictPolicy(cfg.ConflictPolicy)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(collector),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("Metrics server listening", zap.String("addr", cfg.MetricsAddr))

	userService := service.NewUserService(repository.NewUserRepository(pool), logger)
	scheduler := service.NewAppointmentScheduler(gateway, policy, cfg.Location, collector, logger)

	registry := service.NewWorkspaceRegistry(service.WorkspaceDeps{
		Gateway:   gateway,
		Scheduler: scheduler,
		PageSize:  cfg.PageSize,
		Debounce:  cfg.FetchDebounce,
		Metrics:   collector,
		Logger:    logger,
	}, cfg.WorkspaceIdleTTL)
	defer registry.Close()

	resync := app.NewScheduler(registry, cfg.ResyncInterval, collector, logger)
	resync.Start(ctx)
	defer resync.Stop()

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return err
	}

	botController := controller.NewBotController(b, userService, registry, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		// меню команд не критично для работы
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	err = botController.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("Metrics server shutdown failed", zap.Error(shutdownErr))
	}
	return err
}

// newGateway источник приёмов: своя таблица в Postgres или внешний HTTP API
func newGateway(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (service.AppointmentGateway, error) {
	if cfg.GatewayMode == config.GatewayHTTP {
		client, err := httpapi.New(httpapi.Config{
			BaseURL:  cfg.APIBaseURL,
			Token:    cfg.APIToken,
			Timeout:  cfg.APITimeout,
			Location: cfg.Location,
		}, logger.Named("httpapi"))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return repository.NewAppointmentRepository(pool, cfg.Location), nil
}

func metricsMux(collector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
