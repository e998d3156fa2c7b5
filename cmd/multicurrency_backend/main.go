package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/storelens/multicurrency/internal/adapters/cache"
	"github.com/storelens/multicurrency/internal/adapters/database/pgsql"
	"github.com/storelens/multicurrency/internal/adapters/geoip"
	"github.com/storelens/multicurrency/internal/adapters/rateapi"
	"github.com/storelens/multicurrency/internal/core/services"
	"github.com/storelens/multicurrency/internal/handlers"
	"github.com/storelens/multicurrency/internal/middleware"
	"github.com/storelens/multicurrency/pkg/config"
	"github.com/storelens/multicurrency/pkg/database"
	"github.com/storelens/multicurrency/pkg/redisclient"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		os.Exit(1)
	}

	redisClient, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("Redis connection established.")

	// Adapters
	settingsRepo := pgsql.NewPgxSettingsRepository(dbPool)
	orderRepo := pgsql.NewPgxOrderRepository(dbPool)
	userMetaRepo := pgsql.NewPgxUserMetaRepository(dbPool)
	sessionStore := cache.NewRedisSessionStore(redisClient)
	rateCache := cache.NewRedisRateCache(redisClient)
	cartRecalc := cache.NewRedisCartRecalculator(redisClient)
	rateProvider := rateapi.NewClient(cfg.RateProviderURL)
	geolocator := geoip.NewClient(cfg.GeolocationURL)

	// Core services
	localeService := services.NewLocaleService(cfg.LocaleCacheTTL, logger)
	compatService := services.NewCompatibilityService(orderRepo, logger)
	geoService := services.NewGeolocationService(geolocator, localeService, cfg, logger)

	conversionService := services.NewConversionService(
		settingsRepo, orderRepo, rateCache, rateProvider,
		localeService, compatService, cfg, logger,
	)
	selectionService := services.NewSelectionService(
		conversionService, sessionStore, userMetaRepo, settingsRepo,
		compatService, geoService, cartRecalc, cfg, logger,
	)
	conversionService.AttachSelectionResolver(selectionService)

	if err := conversionService.Init(ctx); err != nil {
		logger.Error("Failed to initialize conversion engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Rate limiting backed by redis so limits hold across instances.
	rate, err := limiter.NewRateFromFormatted("60-M")
	if err != nil {
		logger.Error("Failed to parse rate limit", slog.String("error", err.Error()))
		os.Exit(1)
	}
	limiterStore, err := sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix: "multicurrency_limiter",
	})
	if err != nil {
		logger.Error("Failed to create rate limiter store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	rateLimiter := limiter.New(limiterStore, rate)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, cors)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "X-Customer-ID", "X-Cart-Renewal-Order", "X-Cart-Switch-Order", "X-Cart-Resubscribe-Order", "X-Pricing-Context"},
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, rateLimiter, conversionService, selectionService, compatService, localeService)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies pending database migrations using a temporary
// database/sql connection via the pgx stdlib driver.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
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
