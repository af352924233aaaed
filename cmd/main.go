package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/shenikar/alertabh/internal/auth"
	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/config"
	"github.com/shenikar/alertabh/internal/geocoding"
	v1 "github.com/shenikar/alertabh/internal/handler/http/v1"
	"github.com/shenikar/alertabh/internal/repository"
	"github.com/shenikar/alertabh/internal/service"
	"github.com/shenikar/alertabh/internal/webhook"
	"github.com/shenikar/alertabh/pkg/logger"
	"github.com/shenikar/alertabh/pkg/postgres"
	redisclient "github.com/shenikar/alertabh/pkg/redis"
	"github.com/shenikar/alertabh/pkg/sqlite"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/alertabh/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title AlertaBH API
// @version 1.0
// @description Crowd-sourced traffic alerts for Belo Horizonte.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// openStateRepository подключает выбранное хранилище состояния.
// cleanup закрывает соединения, открытые здесь.
func openStateRepository(ctx context.Context, cfg *config.Config, redisClient *goredis.Client, log *logrus.Logger) (service.StateRepository, func(), error) {
	switch cfg.StateBackend {
	case config.BackendPostgres:
		if err := runMigrations(cfg, log); err != nil {
			return nil, nil, err
		}
		dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Successfully connected to PostgreSQL")
		return repository.NewPostgresStateRepository(dbpool), dbpool.Close, nil

	case config.BackendRedis:
		if redisClient == nil {
			return nil, nil, errors.New("redis backend selected but redis is unavailable")
		}
		return repository.NewRedisStateRepository(redisClient), func() {}, nil

	case config.BackendSQLite:
		db, err := sqlite.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewSQLiteStateRepository(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("Successfully opened SQLite database")
		return repo, func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Контекст для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis нужен для кэша геокодера и очереди вебхуков; обязателен только для redis-хранилища
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		if cfg.StateBackend == config.BackendRedis {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.WithError(err).Warn("Redis unavailable, geocode cache and webhooks disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info("Successfully connected to Redis")
	}

	stateRepo, closeRepo, err := openStateRepository(ctx, cfg, redisClient, log)
	if err != nil {
		log.Fatalf("Failed to open state storage: %v", err)
	}
	defer closeRepo()

	cat, err := catalog.Load(cfg.FuelCatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	authn, err := auth.ParseAccounts(cfg.AuthAccounts)
	if err != nil {
		log.Fatalf("Failed to parse accounts: %v", err)
	}
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// Кэш геокодера
	var geocodeCache geocoding.Cache
	if redisClient != nil {
		geocodeCache = repository.NewGeocodeCache(redisClient)
	}
	geocoder := geocoding.NewClient(geocoding.Options{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: cfg.GeocoderUserAgent,
		Suffix:    cfg.CitySuffix,
		Timeout:   cfg.GeocoderTimeout,
		CacheTTL:  cfg.GeocoderCacheTTL,
	}, geocodeCache, log)

	// Издатель вебхуков включается, только если задан адрес доставки
	var publisher webhook.Publisher
	var worker *webhook.Worker
	if redisClient != nil && cfg.WebhookURL != "" {
		publisher = webhook.NewRedisPublisher(redisClient)
		worker = webhook.NewWorker(webhook.NewRedisQueue(redisClient), log, cfg)
	}

	// Инициализация сервисов
	appService := service.NewAppService(stateRepo, publisher, geocoder, cat, log, service.Options{
		StateKey: cfg.StateKey,
		Location: cfg.Location(),
	})
	if err := appService.Load(ctx); err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}
	reportService := service.NewReportService(appService, cat, log, cfg.ReportSubmitDelay)

	// Инициализация хэндлеров
	handler := v1.NewHandler(appService, reportService, authn, issuer, cat, log)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("HTTP server started on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Received shutdown signal, shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
	log.Info("Server gracefully stopped")
}
