package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"docvault/docs"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logger"
	"docvault/internal/otel"
	"docvault/internal/repository"
	"docvault/internal/repository/jsonfile"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	// multipart framing and metadata fields on top of the file itself
	bodyLimitSlack = 1 << 20
)

// @title docvault API
// @version 1.0
// @description Document upload, classification and search.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logger.New(cfg.Log, cfg.Location)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server_failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) error {
	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	docRepo, closeRepo, err := openCorpus(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	objStore, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	docSvc := service.NewDocumentService(objStore, docRepo, service.Options{
		MaxUploadBytes: cfg.Storage.MaxBytes,
		TagCacheTTL:    cfg.TagCacheTTL,
		PresignTTL:     cfg.Storage.PresignTTL,
		Logger:         log,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             int(cfg.Storage.MaxBytes) + bodyLimitSlack,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, handlers.PingerFunc(docSvc.Ping), docSvc, handlers.RouteOptions{
		AuthSecret: cfg.Auth.JWTSecret,
		Gatherer:   prometheus.DefaultGatherer,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth_disabled", zap.String("reason", "AUTH_JWT_SECRET is not set"))
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting",
			zap.String("addr", addr),
			zap.String("corpus_backend", cfg.Corpus.Backend),
			zap.String("storage_backend", cfg.Storage.Backend),
		)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openCorpus returns the configured document repository and a cleanup func.
func openCorpus(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (repository.DocumentRepository, func(), error) {
	switch cfg.Corpus.Backend {
	case config.CorpusBackendFile:
		repo, err := jsonfile.NewDocumentFile(cfg.Corpus.File)
		if err != nil {
			return nil, nil, fmt.Errorf("open corpus file: %w", err)
		}
		return repo, func() {}, nil

	case config.CorpusBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.NewDocumentPostgres(db), closeDB(db, log), nil

	default:
		return nil, nil, fmt.Errorf("unknown CORPUS_BACKEND %q", cfg.Corpus.Backend)
	}
}

func closeDB(db *sql.DB, log *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("database_close_failed", zap.Error(err))
		}
	}
}

// openStorage returns the configured content store.
func openStorage(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendLocal:
		store, err := storage.NewLocal(cfg.Storage.LocalRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		return store, nil

	case config.StorageBackendMinIO:
		store, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
}
