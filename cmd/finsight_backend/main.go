package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/cpenarrieta/finsight/internal/adapters/cache"
	"github.com/cpenarrieta/finsight/internal/adapters/gemini"
	"github.com/cpenarrieta/finsight/internal/adapters/plaid"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/core/services"
	"github.com/cpenarrieta/finsight/internal/handlers"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/cpenarrieta/finsight/internal/platform/config"
	"github.com/cpenarrieta/finsight/internal/repositories/database/pgsql"
	"github.com/cpenarrieta/finsight/internal/utils"
	"github.com/cpenarrieta/finsight/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const cacheSize = 4096

// @title Finsight Backend API
// @version 1.0
// @description Personal finance sync and AI categorization backend.

// @host localhost:8080
// @BasePath /
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		os.Exit(1)
	}

	// Provider access tokens are sealed at rest.
	tokens, err := utils.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		logger.Error("Failed to initialize token cipher", slog.String("error", err.Error()))
		os.Exit(1)
	}

	plaidClient, err := plaid.NewClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
	if err != nil {
		logger.Error("Failed to initialize plaid client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	verifier := plaid.NewWebhookVerifier(plaidClient)

	llm, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize gemini client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	readCache, err := cache.NewMemory(cacheSize)
	if err != nil {
		logger.Error("Failed to initialize read cache", slog.String("error", err.Error()))
		os.Exit(1)
	}

	analytics := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer analytics.Close()

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(cfg, repos, plaidClient, llm, readCache, tokens, analytics)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, repos, verifier, tokens, readCache, logger)

	if cfg.SyncInterval > 0 {
		go runSyncScheduler(serviceContainer.Sync, cfg.SyncInterval, logger)
	}

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations before serving.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Open a temporary standard sql.DB connection for migrations,
	// using the pgx/v5/stdlib driver to be compatible with the main pool.
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// runSyncScheduler runs a full sync pass on a fixed interval. Per-item
// failures are contained inside the pass; a pass-level error only logs.
func runSyncScheduler(sync portssvc.SyncOrchestratorSvc, interval time.Duration, logger *slog.Logger) {
	logger.Info("Sync scheduler started", slog.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	opts := domain.SyncOptions{
		SyncTransactions:    true,
		SyncInvestments:     true,
		RunAICategorization: true,
	}
	for range ticker.C {
		ctx := middleware.ContextWithLogger(context.Background(), logger)
		summary, err := sync.SyncItems(ctx, opts)
		if err != nil {
			logger.Error("Scheduled sync pass failed", slog.String("error", err.Error()))
			continue
		}
		logger.Info("Scheduled sync pass finished",
			slog.Int("items_synced", summary.ItemsSynced),
			slog.Int("item_errors", len(summary.ItemErrors)))
	}
}
