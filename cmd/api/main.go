package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledrent/internal/api"
	"ledrent/internal/auth"
	"ledrent/internal/config"
	"ledrent/internal/database"
	"ledrent/internal/domain"
	"ledrent/internal/events"
	"ledrent/internal/export"
	"ledrent/internal/logging"
	"ledrent/internal/metrics"
	"ledrent/internal/models"
	"ledrent/internal/repository"
	"ledrent/internal/service"
	"ledrent/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	sessionRepo, redisCloser := initSessionStore(cfg, logger)
	if redisCloser != nil {
		defer redisCloser.Close()
	}

	bus := events.NewEventBus()

	bookingService := service.NewBookingService(db, bus, logger)
	userService := service.NewUserService(db, bus, cfg.Auth.BcryptCost, logger)
	inventoryService := service.NewInventoryService(db, bus, logger)
	clientService := service.NewClientService(db, bus, logger)
	activityService := service.NewActivityService(db, logger)
	activityService.RegisterRecorder(bus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrapData(ctx, cfg, db, userService, inventoryService, logger); err != nil {
		return err
	}

	sessions := auth.NewSessionManager(sessionRepo, cfg.SessionTTL(), cfg.Sessions.CookieName)
	exporter := export.NewExporter(cfg.Exports.Path, logger)

	httpServer := api.NewHTTPServer(cfg.Server, cfg.Auth, api.ServerDeps{
		Sessions:   sessions,
		Bookings:   bookingService,
		Users:      userService,
		Clients:    clientService,
		Inventory:  inventoryService,
		Activities: activityService,
		Company:    db,
		Exporter:   exporter,
	}, logger)

	startMetrics(ctx, cfg, logger)
	startBackground(ctx, cfg, bookingService, logger)

	return serve(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, &logger, closer, nil
}

// initSessionStore собирает хранилище сессий: redis с in-memory
// подстраховкой либо чистая память, если redis не настроен.
func initSessionStore(cfg *config.Config, logger *zerolog.Logger) (domain.SessionRepository, io.Closer) {
	memory := repository.NewMemorySessionRepository(cfg.SessionTTL())

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis is not configured, sessions are kept in memory")
		return memory, nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, sessions fall back to memory")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	primary := repository.NewRedisSessionRepository(client, cfg.SessionTTL())
	return repository.NewFailoverSessionRepository(primary, memory, logger), client
}

// catalogSeed описывает configs/catalog.yaml: стартовый инвентарь.
type catalogSeed struct {
	Equipment []models.Equipment `yaml:"equipment"`
	Products  []models.Product   `yaml:"products"`
}

func bootstrapData(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	users *service.UserService,
	inventory *service.InventoryService,
	logger *zerolog.Logger,
) error {
	if cfg.Auth.BootstrapEmail != "" && cfg.Auth.BootstrapSecret != "" {
		if err := users.EnsureBootstrapUser(ctx, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapSecret); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	if cfg.Company.Name != "" {
		settings, err := db.GetCompanySettings(ctx)
		if err != nil {
			return fmt.Errorf("read company settings: %w", err)
		}
		// Реквизиты из конфига применяются только к незаполненному профилю
		if settings.Name == "" {
			settings.Name = cfg.Company.Name
			if cfg.Company.Currency != "" {
				settings.Currency = cfg.Company.Currency
			}
			if err := db.UpdateCompanySettings(ctx, settings); err != nil {
				return fmt.Errorf("apply company defaults: %w", err)
			}
			logger.Info().Str("name", settings.Name).Msg("company profile initialized")
		}
	}

	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "configs/catalog.yaml"
	}
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		// Каталог необязателен: инвентарь можно завести через API.
		logger.Info().Str("catalog_path", catalogPath).Msg("no catalog seed, skipping")
		return nil
	}

	var seed catalogSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse catalog seed: %w", err)
	}

	seeded := 0
	for i := range seed.Equipment {
		eq := seed.Equipment[i]
		if err := inventory.CreateEquipment(ctx, &eq, 0); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("seed equipment %q: %w", eq.Code, err)
		}
		seeded++
	}
	for i := range seed.Products {
		p := seed.Products[i]
		if err := inventory.CreateProduct(ctx, &p, 0); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("seed product %q: %w", p.Code, err)
		}
		seeded++
	}

	if seeded > 0 {
		logger.Info().Int("positions", seeded).Msg("catalog seed applied")
	}
	return nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	go startMetricsServer(ctx, port, logger)
}

func startBackground(
	ctx context.Context,
	cfg *config.Config,
	bookings *service.BookingService,
	logger *zerolog.Logger,
) {
	if cfg.Maintenance.Interval > 0 {
		maintenanceLogger := logging.Component(logger, "maintenance-worker")
		w := worker.NewMaintenanceWorker(bookings, cfg.MaintenanceInterval(), worker.RetryPolicy{}, &maintenanceLogger)
		go w.Start(ctx)
	}

	if cfg.Backup.Enabled {
		backupLogger := logging.Component(logger, "backup")
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &backupLogger)
		go backup.Start(ctx)
	}
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.Server.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
